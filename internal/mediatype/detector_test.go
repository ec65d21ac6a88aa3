package mediatype_test

import (
	"errors"
	"testing"

	"iris/internal/mediatype"
	"iris/internal/services"
	"iris/internal/testsupport"
)

func newDetector() *mediatype.Detector {
	return mediatype.NewDetector(
		[]string{".mp4", ".webm", ".avi"},
		[]string{".mp3", ".wav", ".flac", ".ogg"},
		[]string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
	)
}

func TestDetectFromSignatureAlone(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want mediatype.Type
	}{
		{"mp4", testsupport.MP4Header(), mediatype.TypeVideo},
		{"webm", testsupport.WebMHeader(), mediatype.TypeVideo},
		{"avi", testsupport.AVIHeader(), mediatype.TypeVideo},
		{"wav", testsupport.WAVHeader(), mediatype.TypeAudio},
		{"mp3 frame sync", testsupport.MP3Frame(), mediatype.TypeAudio},
		{"mp3 id3", testsupport.MP3ID3Header(), mediatype.TypeAudio},
		{"flac", testsupport.FLACHeader(), mediatype.TypeAudio},
		{"ogg", testsupport.OggHeader(), mediatype.TypeAudio},
		{"jpeg", testsupport.JPEGHeader(), mediatype.TypeImage},
		{"png", testsupport.PNGHeader(), mediatype.TypeImage},
		{"gif", testsupport.GIFHeader(), mediatype.TypeImage},
		{"webp", testsupport.WebPHeader(), mediatype.TypeImage},
	}

	detector := newDetector()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := detector.Detect(tc.buf, mediatype.Hints{})
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Detect = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDetectPriorityOrder(t *testing.T) {
	detector := newDetector()

	// Type hint wins over everything else.
	got, err := detector.Detect(testsupport.JPEGHeader(), mediatype.Hints{
		TypeHint: "audio",
		Filename: "photo.jpg",
		MIMEType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got != mediatype.TypeAudio {
		t.Fatalf("type hint ignored, got %s", got)
	}

	// Extension wins over MIME and signature.
	got, err = detector.Detect(testsupport.JPEGHeader(), mediatype.Hints{
		Filename: "recording.mp3",
		MIMEType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got != mediatype.TypeAudio {
		t.Fatalf("extension ignored, got %s", got)
	}

	// MIME prefix wins over signature.
	got, err = detector.Detect(testsupport.JPEGHeader(), mediatype.Hints{
		Filename: "payload.bin",
		MIMEType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got != mediatype.TypeVideo {
		t.Fatalf("mime type ignored, got %s", got)
	}
}

func TestDetectInvalidTypeHintIsFatal(t *testing.T) {
	detector := newDetector()
	_, err := detector.Detect(testsupport.JPEGHeader(), mediatype.Hints{TypeHint: "hologram"})
	if err == nil {
		t.Fatal("expected error for invalid type hint")
	}
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestDetectUndetectableIsFatal(t *testing.T) {
	detector := newDetector()
	_, err := detector.Detect([]byte{0x00, 0x01, 0x02, 0x03}, mediatype.Hints{Filename: "mystery.xyz"})
	if err == nil {
		t.Fatal("expected error for undetectable payload")
	}
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestSniffSignatureRIFFDisambiguation(t *testing.T) {
	if got, ok := mediatype.SniffSignature(testsupport.AVIHeader()); !ok || got != mediatype.TypeVideo {
		t.Fatalf("AVI sniff = %s, %v", got, ok)
	}
	if got, ok := mediatype.SniffSignature(testsupport.WAVHeader()); !ok || got != mediatype.TypeAudio {
		t.Fatalf("WAV sniff = %s, %v", got, ok)
	}
	if got, ok := mediatype.SniffSignature(testsupport.WebPHeader()); !ok || got != mediatype.TypeImage {
		t.Fatalf("WebP sniff = %s, %v", got, ok)
	}
	// Truncated RIFF headers cannot be disambiguated.
	if _, ok := mediatype.SniffSignature([]byte("RIFF")); ok {
		t.Fatal("truncated RIFF header should not classify")
	}
}
