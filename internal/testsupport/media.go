package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// JPEGImage renders a small decodable JPEG payload.
func JPEGImage(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testPattern(width, height), &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// PNGImage renders a small decodable PNG payload.
func PNGImage(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testPattern(width, height)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// MJPEGContainer builds an AVI-signature buffer with embedded JPEG
// frames, enough for the video frame scanner to find.
func MJPEGContainer(t testing.TB, frames int) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(AVIHeader())
	frame := JPEGImage(t, 64, 48)
	for i := 0; i < frames; i++ {
		buf.Write(frame)
		buf.Write([]byte{0x00, 0x00})
	}
	return buf.Bytes()
}

func testPattern(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 0x40,
				A: 0xFF,
			})
		}
	}
	return img
}

// The signature builders below produce minimal buffers carrying only the
// magic bytes the detector sniffs.

func MP4Header() []byte {
	return []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
}

func WebMHeader() []byte {
	return []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00, 0x00, 0x00, 0x00}
}

func AVIHeader() []byte {
	return []byte{'R', 'I', 'F', 'F', 0x00, 0x10, 0x00, 0x00, 'A', 'V', 'I', ' '}
}

func WAVHeader() []byte {
	return []byte{'R', 'I', 'F', 'F', 0x24, 0x00, 0x00, 0x00, 'W', 'A', 'V', 'E'}
}

func WebPHeader() []byte {
	return []byte{'R', 'I', 'F', 'F', 0x24, 0x00, 0x00, 0x00, 'W', 'E', 'B', 'P'}
}

func MP3Frame() []byte {
	return []byte{0xFF, 0xFB, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00}
}

func MP3ID3Header() []byte {
	return []byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
}

func FLACHeader() []byte {
	return []byte{'f', 'L', 'a', 'C', 0x00, 0x00, 0x00, 0x22}
}

func OggHeader() []byte {
	return []byte{'O', 'g', 'g', 'S', 0x00, 0x02, 0x00, 0x00}
}

func GIFHeader() []byte {
	return []byte{'G', 'I', 'F', '8', '9', 'a', 0x01, 0x00}
}

func PNGHeader() []byte {
	return []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
}

func JPEGHeader() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
}
