package archive_test

import (
	"context"
	"testing"
	"time"

	"iris/internal/api"
	"iris/internal/archive"
	"iris/internal/logging"
	"iris/internal/mediatype"
	"iris/internal/testsupport"
	"iris/internal/tracker"
)

func newStore(t *testing.T) *archive.Store {
	t.Helper()
	store, err := archive.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSnapshot(id string, status tracker.JobStatus) tracker.Snapshot {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return tracker.Snapshot{
		ID:         id,
		MediaType:  mediatype.TypeImage,
		Status:     status,
		Progress:   100,
		Warnings:   []string{"stage ocr skipped: no provider"},
		Metadata:   tracker.Metadata{"filename": "photo.jpg"},
		CreatedAt:  created,
		FinishedAt: created.Add(3 * time.Second),
	}
}

func TestSaveJobRoundtrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	snap := sampleSnapshot("job-1", tracker.JobCompleted)
	if err := store.SaveJob(ctx, snap); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	record, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if record == nil {
		t.Fatal("archived job not found")
	}
	if record.Status != string(tracker.JobCompleted) {
		t.Fatalf("Status = %s", record.Status)
	}
	if record.MediaType != "image" {
		t.Fatalf("MediaType = %s", record.MediaType)
	}
	if len(record.Warnings) != 1 {
		t.Fatalf("Warnings = %v", record.Warnings)
	}
	if record.Metadata["filename"] != "photo.jpg" {
		t.Fatalf("Metadata = %v", record.Metadata)
	}
	if record.DurationMS != 3000 {
		t.Fatalf("DurationMS = %d, want 3000", record.DurationMS)
	}
	if !record.CreatedAt.Equal(snap.CreatedAt) {
		t.Fatalf("CreatedAt = %s, want %s", record.CreatedAt, snap.CreatedAt)
	}
	if record.Result != nil {
		t.Fatal("result present before SaveResult")
	}
}

func TestSaveJobUpsertsTerminalState(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	snap := sampleSnapshot("job-1", tracker.JobCompleted)
	if err := store.SaveJob(ctx, snap); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	snap.Status = tracker.JobFailed
	snap.ErrorMessage = "provider outage"
	if err := store.SaveJob(ctx, snap); err != nil {
		t.Fatalf("second SaveJob failed: %v", err)
	}

	record, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if record.Status != string(tracker.JobFailed) || record.Error != "provider outage" {
		t.Fatalf("record = %+v", record)
	}
}

func TestSaveResultAttachesFormattedResult(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.SaveJob(ctx, sampleSnapshot("job-1", tracker.JobCompleted)); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	text := "BEWARE OF DOG"
	err := store.SaveResult(ctx, "job-1", api.ProcessingResult{
		OCRText: &text,
		Tags:    []string{"dog", "sign"},
	})
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	record, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if record.Result == nil {
		t.Fatal("result missing after SaveResult")
	}
	if record.Result.OCRText == nil || *record.Result.OCRText != text {
		t.Fatalf("OCRText = %v", record.Result.OCRText)
	}
	if len(record.Result.Tags) != 2 {
		t.Fatalf("Tags = %v", record.Result.Tags)
	}
}

func TestGetJobUnknownReturnsNil(t *testing.T) {
	store := newStore(t)
	record, err := store.GetJob(context.Background(), "never-archived")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if record != nil {
		t.Fatalf("record = %+v, want nil", record)
	}
}

func TestRecentJobsNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, id := range []string{"oldest", "middle", "newest"} {
		snap := sampleSnapshot(id, tracker.JobCompleted)
		snap.FinishedAt = snap.CreatedAt.Add(time.Duration(i+1) * time.Minute)
		if err := store.SaveJob(ctx, snap); err != nil {
			t.Fatalf("SaveJob %s failed: %v", id, err)
		}
	}

	records, err := store.RecentJobs(ctx, 2)
	if err != nil {
		t.Fatalf("RecentJobs failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != "newest" || records[1].ID != "middle" {
		t.Fatalf("order = %s, %s", records[0].ID, records[1].ID)
	}
}

func TestArchiverPersistsTerminalJobs(t *testing.T) {
	store := newStore(t)
	trk := tracker.New(logging.NewNop())
	trk.Subscribe(archive.NewArchiver(store, trk, logging.NewNop()))

	if _, err := trk.CreateJob("job-1", mediatype.TypeAudio, []string{"validation"}, nil); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := trk.StartStage("job-1", "validation", ""); err != nil {
		t.Fatal(err)
	}
	if err := trk.CompleteStage("job-1", "validation", ""); err != nil {
		t.Fatal(err)
	}

	record, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if record == nil {
		t.Fatal("terminal job not archived")
	}
	if record.Status != string(tracker.JobCompleted) {
		t.Fatalf("Status = %s", record.Status)
	}
}

func TestArchiverIgnoresNonTerminalEvents(t *testing.T) {
	store := newStore(t)
	trk := tracker.New(logging.NewNop())
	trk.Subscribe(archive.NewArchiver(store, trk, logging.NewNop()))

	if _, err := trk.CreateJob("job-1", mediatype.TypeAudio, []string{"validation", "metadata"}, nil); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := trk.StartStage("job-1", "validation", ""); err != nil {
		t.Fatal(err)
	}

	record, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if record != nil {
		t.Fatal("non-terminal job was archived")
	}
}
