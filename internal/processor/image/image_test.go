package image_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"iris/internal/logging"
	"iris/internal/processor"
	"iris/internal/processor/image"
	"iris/internal/registry"
	"iris/internal/testsupport"
	"iris/internal/tracker"
)

func newPipeline(t *testing.T, plugins ...registry.Plugin) (*image.Processor, *tracker.Tracker) {
	t.Helper()
	reg := registry.New(logging.NewNop())
	for _, plugin := range plugins {
		if err := reg.Register(plugin); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	reg.InitializeAndProbe(context.Background())
	trk := tracker.New(logging.NewNop())
	return image.New(reg, trk, logging.NewNop()), trk
}

func startJob(t *testing.T, trk *tracker.Tracker, proc *image.Processor, id string) {
	t.Helper()
	if _, err := trk.CreateJob(id, proc.MediaType(), proc.Stages(), nil); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
}

func TestProcessFullPipeline(t *testing.T) {
	detection := &testsupport.FakePlugin{
		PluginName:     "fake-detection",
		PluginCategory: registry.CategoryObjectDetection,
		PluginProvider: "gemini",
		ExecResult: registry.Result{Objects: []registry.DetectedObject{
			{Label: "Golden Retriever", Confidence: 0.97},
			{Label: "ball", Confidence: 0.81},
		}},
	}
	ocr := &testsupport.FakePlugin{
		PluginName:     "fake-ocr",
		PluginCategory: registry.CategoryOCR,
		PluginProvider: "gemini",
		ExecResult:     registry.Result{Text: "BEWARE OF DOG"},
	}
	description := &testsupport.FakePlugin{
		PluginName:     "fake-description",
		PluginCategory: registry.CategoryImageDescription,
		PluginProvider: "openai",
		ExecResult:     registry.Result{Text: "A dog playing with a ball."},
	}
	proc, trk := newPipeline(t, detection, ocr, description)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:    "job-1",
		Payload:  testsupport.JPEGImage(t, 640, 480),
		Filename: "dog.jpg",
	}, processor.Options{ThumbnailWidth: 160})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(result.Objects) != 2 {
		t.Fatalf("Objects = %v", result.Objects)
	}
	if result.OCRText == nil || *result.OCRText != "BEWARE OF DOG" {
		t.Fatalf("OCRText = %v", result.OCRText)
	}
	if result.Description == nil || *result.Description != "A dog playing with a ball." {
		t.Fatalf("Description = %v", result.Description)
	}
	if result.Metadata["width"] != "640" || result.Metadata["height"] != "480" {
		t.Fatalf("Metadata = %v", result.Metadata)
	}
	if len(result.Thumbnails) != 1 {
		t.Fatalf("Thumbnails = %d, want 1", len(result.Thumbnails))
	}
	if result.Thumbnails[0].Width != 160 {
		t.Fatalf("thumbnail width = %d, want 160", result.Thumbnails[0].Width)
	}
	if result.Quality == nil || result.Quality.Score <= 0 {
		t.Fatalf("Quality = %v", result.Quality)
	}
	wantTags := []string{"ball", "golden-retriever", "image", "jpeg"}
	if len(result.Tags) != len(wantTags) {
		t.Fatalf("Tags = %v, want %v", result.Tags, wantTags)
	}
	for i := range wantTags {
		if result.Tags[i] != wantTags[i] {
			t.Fatalf("Tags = %v, want %v", result.Tags, wantTags)
		}
	}
	if result.ProvidersUsed["object-detection"] != "gemini" {
		t.Fatalf("ProvidersUsed = %v", result.ProvidersUsed)
	}

	snap, _ := trk.Snapshot("job-1")
	if snap.Status != tracker.JobCompleted {
		t.Fatalf("job status = %s, want completed", snap.Status)
	}
}

func TestProcessRejectsNonImagePayload(t *testing.T) {
	proc, trk := newPipeline(t)
	startJob(t, trk, proc, "job-1")

	_, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: []byte("this is plain text, not an image"),
	}, processor.Options{})
	if err == nil {
		t.Fatal("non-image payload should fail validation")
	}

	snap, _ := trk.Snapshot("job-1")
	if snap.Status != tracker.JobFailed {
		t.Fatalf("job status = %s, want failed", snap.Status)
	}
}

func TestProcessEmptyPayloadFails(t *testing.T) {
	proc, trk := newPipeline(t)
	startJob(t, trk, proc, "job-1")

	_, err := proc.Process(context.Background(), processor.Request{JobID: "job-1"}, processor.Options{})
	if err == nil {
		t.Fatal("empty payload should fail validation")
	}
}

func TestProcessDegradesWhenProvidersUnavailable(t *testing.T) {
	proc, trk := newPipeline(t)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: testsupport.PNGImage(t, 100, 100),
	}, processor.Options{})
	if err != nil {
		t.Fatalf("Process failed without providers: %v", err)
	}

	if result.Objects != nil || result.OCRText != nil || result.Description != nil {
		t.Fatalf("provider stages produced data with no providers: %+v", result)
	}
	if len(result.Thumbnails) != 1 {
		t.Fatal("local thumbnail stage should still run")
	}

	snap, _ := trk.Snapshot("job-1")
	if snap.Status != tracker.JobCompleted {
		t.Fatalf("job status = %s, want completed", snap.Status)
	}
	if len(snap.Warnings) == 0 {
		t.Fatal("expected warnings for skipped provider stages")
	}
}

func TestProcessDisabledStagesAreSkippedNotFailed(t *testing.T) {
	detection := &testsupport.FakePlugin{
		PluginName:     "fake-detection",
		PluginCategory: registry.CategoryObjectDetection,
	}
	proc, trk := newPipeline(t, detection)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: testsupport.JPEGImage(t, 64, 64),
	}, processor.Options{
		Features: map[string]bool{
			"object-detection": false,
			"thumbnails":       false,
		},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if detection.ExecCalls.Load() != 0 {
		t.Fatal("disabled stage still called its plugin")
	}
	if len(result.Thumbnails) != 0 {
		t.Fatal("disabled thumbnail stage produced data")
	}

	snap, _ := trk.Snapshot("job-1")
	for _, stage := range snap.Stages {
		if stage.Name == "object-detection" || stage.Name == "thumbnails" {
			if stage.Status != tracker.StageSkipped {
				t.Fatalf("stage %s status = %s, want skipped", stage.Name, stage.Status)
			}
		}
	}
	if snap.Status != tracker.JobCompleted {
		t.Fatalf("job status = %s, want completed", snap.Status)
	}
}

func TestProcessWebPPassesValidationSkipsRasterStages(t *testing.T) {
	proc, trk := newPipeline(t)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: testsupport.WebPHeader(),
	}, processor.Options{})
	if err != nil {
		t.Fatalf("Process failed for webp: %v", err)
	}
	if result.Metadata["format"] != "webp" {
		t.Fatalf("format = %q, want webp", result.Metadata["format"])
	}

	snap, _ := trk.Snapshot("job-1")
	for _, stage := range snap.Stages {
		switch stage.Name {
		case "validation":
			if stage.Status != tracker.StageCompleted {
				t.Fatalf("validation status = %s", stage.Status)
			}
		case "thumbnails", "quality":
			if stage.Status != tracker.StageSkipped {
				t.Fatalf("%s status = %s, want skipped", stage.Name, stage.Status)
			}
			if !strings.Contains(stage.Detail, "no local decoder") {
				t.Fatalf("%s detail = %q", stage.Name, stage.Detail)
			}
		}
	}
}

func TestProcessFallbackProviderRecorded(t *testing.T) {
	failing := &testsupport.FakePlugin{
		PluginName:     "primary-ocr",
		PluginCategory: registry.CategoryOCR,
		PluginProvider: "gemini",
		PluginPriority: 10,
		ExecErr:        errors.New("quota exceeded"),
	}
	backup := &testsupport.FakePlugin{
		PluginName:     "backup-ocr",
		PluginCategory: registry.CategoryOCR,
		PluginProvider: "openai",
		PluginPriority: 20,
		ExecResult:     registry.Result{Text: "recovered text"},
	}
	proc, trk := newPipeline(t, failing, backup)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: testsupport.JPEGImage(t, 64, 64),
	}, processor.Options{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.OCRText == nil || *result.OCRText != "recovered text" {
		t.Fatalf("OCRText = %v", result.OCRText)
	}
	if !result.FallbackUsed {
		t.Fatal("FallbackUsed not set")
	}
	if result.ProvidersUsed["ocr"] != "openai" {
		t.Fatalf("ProvidersUsed = %v", result.ProvidersUsed)
	}
}
