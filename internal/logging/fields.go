package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for processing job identifiers.
	FieldJobID = "job_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldMediaType is the standardized structured logging key for detected media types.
	FieldMediaType = "media_type"
	// FieldCategory is the standardized structured logging key for capability categories.
	FieldCategory = "category"
	// FieldPlugin is the standardized structured logging key for provider plugin names.
	FieldPlugin = "plugin"
	// FieldProvider is the standardized structured logging key for provider vendor names.
	FieldProvider = "provider"
	// FieldEventType is the standardized structured logging key for machine-readable event labels.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)
