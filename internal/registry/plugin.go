package registry

import "context"

// Category is a class of analysis function that interchangeable providers
// can satisfy.
type Category string

const (
	CategoryTranscription    Category = "transcription"
	CategoryObjectDetection  Category = "object-detection"
	CategoryOCR              Category = "ocr"
	CategoryImageDescription Category = "image-description"
	CategorySentiment        Category = "sentiment"
)

// AllCategories returns the known capability categories in display order.
func AllCategories() []Category {
	return []Category{
		CategoryTranscription,
		CategoryObjectDetection,
		CategoryOCR,
		CategoryImageDescription,
		CategorySentiment,
	}
}

// Input is the uniform payload handed to plugin execution.
type Input struct {
	Payload  []byte
	Filename string
	MIMEType string
	// Prompt carries the task instruction for generative capabilities.
	Prompt string
}

// DetectedObject is one object-detection hit.
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// TranscriptSegment is one span of transcribed speech.
type TranscriptSegment struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
	StartMS int64  `json:"startMs"`
	EndMS   int64  `json:"endMs"`
}

// Result is the provider-agnostic output of a plugin execution. Only the
// fields relevant to the plugin's category are populated.
type Result struct {
	Text     string
	Objects  []DetectedObject
	Segments []TranscriptSegment
	Label    string
	Score    float64
}

// Plugin is a provider-specific implementation of one capability.
//
// Initialize constructs and authenticates the underlying client, Probe is
// a cheap liveness check run once at startup, Execute performs the
// operation. Cleanup releases client resources and may be a no-op.
type Plugin interface {
	Name() string
	Category() Category
	Provider() string
	// Priority orders fallback resolution; lower sorts first.
	Priority() int
	// MissingDependencies names absent credentials or settings. A
	// non-empty result disables the plugin without probing it.
	MissingDependencies() []string

	Initialize(ctx context.Context) error
	Probe(ctx context.Context) error
	Execute(ctx context.Context, input Input) (Result, error)
	Cleanup() error
}
