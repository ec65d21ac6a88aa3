package orchestrator

import (
	"iris/internal/api"
	"iris/internal/processor"
	"iris/internal/registry"
)

// formatResult converts the processor's raw output into the
// provider-agnostic response shape, carrying over only fields the run
// actually produced.
func formatResult(raw *processor.Result) api.ProcessingResult {
	out := api.ProcessingResult{
		Transcription: raw.Transcription,
		Speakers:      raw.Speakers,
		OCRText:       raw.OCRText,
		Description:   raw.Description,
		SceneSummary:  raw.SceneSummary,
		Tags:          raw.Tags,
		FallbackUsed:  raw.FallbackUsed,
	}
	if len(raw.Metadata) > 0 {
		out.Metadata = raw.Metadata
	}
	if len(raw.ProvidersUsed) > 0 {
		out.ProvidersUsed = raw.ProvidersUsed
	}
	if len(raw.Segments) > 0 {
		out.Segments = make([]api.TranscriptSegment, len(raw.Segments))
		for i, segment := range raw.Segments {
			out.Segments[i] = api.TranscriptSegment{
				Speaker: segment.Speaker,
				Text:    segment.Text,
				StartMS: segment.StartMS,
				EndMS:   segment.EndMS,
			}
		}
	}
	if len(raw.Objects) > 0 {
		out.Objects = formatObjects(raw.Objects)
	}
	if raw.Sentiment != nil {
		out.Sentiment = &api.Sentiment{Label: raw.Sentiment.Label, Score: raw.Sentiment.Score}
	}
	if len(raw.Thumbnails) > 0 {
		out.Thumbnails = make([]api.Thumbnail, len(raw.Thumbnails))
		for i, thumb := range raw.Thumbnails {
			out.Thumbnails[i] = api.Thumbnail{
				Width:  thumb.Width,
				Height: thumb.Height,
				Format: thumb.Format,
				Data:   thumb.Data,
			}
		}
	}
	if raw.Quality != nil {
		out.Quality = &api.Quality{
			Width:      raw.Quality.Width,
			Height:     raw.Quality.Height,
			Megapixels: raw.Quality.Megapixels,
			Score:      raw.Quality.Score,
		}
	}
	return out
}

func formatObjects(objects []registry.DetectedObject) []api.DetectedObject {
	out := make([]api.DetectedObject, len(objects))
	for i, obj := range objects {
		out[i] = api.DetectedObject{Label: obj.Label, Confidence: obj.Confidence}
	}
	return out
}
