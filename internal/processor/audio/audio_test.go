package audio_test

import (
	"context"
	"testing"

	"iris/internal/logging"
	"iris/internal/processor"
	"iris/internal/processor/audio"
	"iris/internal/registry"
	"iris/internal/testsupport"
	"iris/internal/tracker"
)

func newPipeline(t *testing.T, plugins ...registry.Plugin) (*audio.Processor, *tracker.Tracker) {
	t.Helper()
	reg := registry.New(logging.NewNop())
	for _, plugin := range plugins {
		if err := reg.Register(plugin); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	reg.InitializeAndProbe(context.Background())
	trk := tracker.New(logging.NewNop())
	return audio.New(reg, trk, logging.NewNop()), trk
}

func startJob(t *testing.T, trk *tracker.Tracker, proc *audio.Processor, id string) {
	t.Helper()
	if _, err := trk.CreateJob(id, proc.MediaType(), proc.Stages(), nil); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
}

func TestProcessTranscriptionPipeline(t *testing.T) {
	whisper := &testsupport.FakePlugin{
		PluginName:     "fake-whisper",
		PluginCategory: registry.CategoryTranscription,
		PluginProvider: "openai",
		ExecResult: registry.Result{
			Text: "Hello there. General Kenobi.",
			Segments: []registry.TranscriptSegment{
				{Speaker: "A", Text: "Hello there.", StartMS: 0, EndMS: 1200},
				{Speaker: "B", Text: "General Kenobi.", StartMS: 1300, EndMS: 2600},
				{Speaker: "A", Text: "", StartMS: 2700, EndMS: 2900},
			},
		},
	}
	sentiment := &testsupport.FakePlugin{
		PluginName:     "fake-sentiment",
		PluginCategory: registry.CategorySentiment,
		PluginProvider: "openai",
		ExecResult:     registry.Result{Label: "positive", Score: 0.92},
	}
	proc, trk := newPipeline(t, whisper, sentiment)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:    "job-1",
		Payload:  testsupport.MP3ID3Header(),
		Filename: "greeting.mp3",
	}, processor.Options{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Transcription == nil || *result.Transcription != "Hello there. General Kenobi." {
		t.Fatalf("Transcription = %v", result.Transcription)
	}
	if len(result.Speakers) != 2 {
		t.Fatalf("Speakers = %v, want two distinct", result.Speakers)
	}
	if result.Sentiment == nil || result.Sentiment.Label != "positive" {
		t.Fatalf("Sentiment = %v", result.Sentiment)
	}
	if result.Metadata["format"] != "mp3" {
		t.Fatalf("format = %q", result.Metadata["format"])
	}

	hasTranscribed := false
	for _, tag := range result.Tags {
		if tag == "transcribed" {
			hasTranscribed = true
		}
	}
	if !hasTranscribed {
		t.Fatalf("Tags = %v, want a transcribed tag", result.Tags)
	}

	snap, _ := trk.Snapshot("job-1")
	if snap.Status != tracker.JobCompleted {
		t.Fatalf("job status = %s, want completed", snap.Status)
	}
}

func TestProcessWithoutTranscriptionProviderDegrades(t *testing.T) {
	proc, trk := newPipeline(t)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: testsupport.FLACHeader(),
	}, processor.Options{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Transcription != nil {
		t.Fatal("transcription produced without a provider")
	}
	if result.Sentiment != nil {
		t.Fatal("sentiment produced without a transcript")
	}

	snap, _ := trk.Snapshot("job-1")
	if snap.Status != tracker.JobCompleted {
		t.Fatalf("job status = %s, want completed", snap.Status)
	}
	skipped := map[string]bool{}
	for _, stage := range snap.Stages {
		if stage.Status == tracker.StageSkipped {
			skipped[stage.Name] = true
		}
	}
	for _, name := range []string{"transcription", "speakers", "sentiment"} {
		if !skipped[name] {
			t.Fatalf("stage %s not skipped; stages = %+v", name, snap.Stages)
		}
	}
	if len(snap.Warnings) == 0 {
		t.Fatal("expected warnings for skipped stages")
	}
}

func TestProcessRejectsNonAudioPayload(t *testing.T) {
	proc, trk := newPipeline(t)
	startJob(t, trk, proc, "job-1")

	_, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: testsupport.PNGHeader(),
	}, processor.Options{})
	if err == nil {
		t.Fatal("image payload should fail audio validation")
	}

	snap, _ := trk.Snapshot("job-1")
	if snap.Status != tracker.JobFailed {
		t.Fatalf("job status = %s, want failed", snap.Status)
	}
}

func TestProcessAcceptsMIMEFallbackForUnknownContainer(t *testing.T) {
	proc, trk := newPipeline(t)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:    "job-1",
		Payload:  []byte{0x00, 0x01, 0x02, 0x03},
		MIMEType: "audio/aac",
	}, processor.Options{})
	if err != nil {
		t.Fatalf("Process failed for declared audio MIME: %v", err)
	}
	if result.Metadata["format"] != "aac" {
		t.Fatalf("format = %q, want aac", result.Metadata["format"])
	}
}

func TestProcessSpeakersSkippedWithoutSegments(t *testing.T) {
	whisper := &testsupport.FakePlugin{
		PluginName:     "fake-whisper",
		PluginCategory: registry.CategoryTranscription,
		ExecResult:     registry.Result{Text: "no segment data"},
	}
	proc, trk := newPipeline(t, whisper)
	startJob(t, trk, proc, "job-1")

	result, err := proc.Process(context.Background(), processor.Request{
		JobID:   "job-1",
		Payload: testsupport.WAVHeader(),
	}, processor.Options{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Transcription == nil {
		t.Fatal("transcription missing")
	}
	if len(result.Speakers) != 0 {
		t.Fatalf("Speakers = %v, want none", result.Speakers)
	}

	snap, _ := trk.Snapshot("job-1")
	for _, stage := range snap.Stages {
		if stage.Name == "speakers" && stage.Status != tracker.StageSkipped {
			t.Fatalf("speakers status = %s, want skipped", stage.Status)
		}
	}
}
