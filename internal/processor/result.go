package processor

import "iris/internal/registry"

// Sentiment is a classified sentiment with confidence.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Thumbnail is one generated preview image.
type Thumbnail struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   []byte `json:"data"`
}

// Quality summarizes measurable image quality attributes.
type Quality struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Megapixels float64 `json:"megapixels"`
	Score      float64 `json:"score"`
}

// Result is the raw processor output. Pointer and slice fields are set
// only when the corresponding stage ran and produced data; a nil field
// means the stage was not attempted, not that it produced nothing.
type Result struct {
	Metadata map[string]string

	Transcription *string
	Speakers      []string
	Segments      []registry.TranscriptSegment
	Objects       []registry.DetectedObject
	OCRText       *string
	Description   *string
	SceneSummary  *string
	Sentiment     *Sentiment
	Tags          []string
	Thumbnails    []Thumbnail
	Quality       *Quality

	// ProvidersUsed maps stage name to the provider that served it.
	ProvidersUsed map[string]string
	FallbackUsed  bool
}

// NewResult returns a Result with its maps initialized.
func NewResult() *Result {
	return &Result{
		Metadata:      make(map[string]string),
		ProvidersUsed: make(map[string]string),
	}
}

// RecordOutcome notes which provider served a stage and whether fallback
// was exercised.
func (r *Result) RecordOutcome(stage string, outcome registry.Outcome) {
	r.ProvidersUsed[stage] = outcome.ProviderUsed
	if outcome.FallbackUsed {
		r.FallbackUsed = true
	}
}

// StringPtr adapts a produced string value to the result's pointer fields.
func StringPtr(s string) *string { return &s }
