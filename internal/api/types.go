// Package api holds the JSON shapes shared by the daemon HTTP API, the
// CLI renderers, and the result archive.
package api

import "time"

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

// Sentiment is a classified sentiment with confidence.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Thumbnail is one generated preview image. Data is base64 in JSON.
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

// ProcessingResult is the provider-agnostic output shape. Absent fields
// mean the stage was not attempted, not that it produced nothing.
type ProcessingResult struct {
	Metadata      map[string]string   `json:"metadata,omitempty"`
	Transcription *string             `json:"transcription,omitempty"`
	Speakers      []string            `json:"speakers,omitempty"`
	Segments      []TranscriptSegment `json:"segments,omitempty"`
	Objects       []DetectedObject    `json:"objects,omitempty"`
	OCRText       *string             `json:"ocrText,omitempty"`
	Description   *string             `json:"description,omitempty"`
	SceneSummary  *string             `json:"sceneSummary,omitempty"`
	Sentiment     *Sentiment          `json:"sentiment,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	Thumbnails    []Thumbnail         `json:"thumbnails,omitempty"`
	Quality       *Quality            `json:"quality,omitempty"`
	ProvidersUsed map[string]string   `json:"providersUsed,omitempty"`
	FallbackUsed  bool                `json:"fallbackUsed,omitempty"`
}

// ProcessResponse is the orchestrator's answer to one submission.
type ProcessResponse struct {
	JobID            string           `json:"jobId"`
	MediaType        string           `json:"mediaType"`
	ProcessingTimeMS int64            `json:"processingTime"`
	Results          ProcessingResult `json:"results"`
	Warnings         []string         `json:"warnings,omitempty"`
}

// StageStatus is one stage row in a job status answer.
type StageStatus struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Status  string  `json:"status"`
	Percent float64 `json:"percent"`
	Detail  string  `json:"detail,omitempty"`
}

// JobStatus answers a status query for an active or recently cached job.
type JobStatus struct {
	ID                string        `json:"id"`
	Status            string        `json:"status"`
	MediaType         string        `json:"mediaType"`
	StartTime         time.Time     `json:"startTime"`
	ProcessingTimeMS  int64         `json:"processingTime"`
	Progress          float64       `json:"progress"`
	Stages            []StageStatus `json:"stages,omitempty"`
	Warnings          []string      `json:"warnings,omitempty"`
	Error             string        `json:"error,omitempty"`
	AvailableFeatures []string      `json:"availableFeatures,omitempty"`
	FromCache         bool          `json:"fromCache"`
}

// PluginStatus is one catalogue row in the system status answer.
type PluginStatus struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	Provider       string `json:"provider"`
	Priority       int    `json:"priority"`
	Enabled        bool   `json:"enabled"`
	DisabledReason string `json:"disabledReason,omitempty"`
}

// Metrics is the cumulative processing counters.
type Metrics struct {
	TotalProcessed int64 `json:"totalProcessed"`
	SuccessCount   int64 `json:"successCount"`
	ErrorCount     int64 `json:"errorCount"`
	AverageTimeMS  int64 `json:"averageTimeMs"`
}

// SystemStatus is the introspection answer.
type SystemStatus struct {
	Initialized bool            `json:"initialized"`
	ActiveJobs  int             `json:"activeJobs"`
	CacheSize   int             `json:"cacheSize"`
	Metrics     Metrics         `json:"metrics"`
	Categories  map[string]bool `json:"categories"`
	Plugins     []PluginStatus  `json:"plugins"`
}

// ErrorResponse is the uniform HTTP error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
