package mediatype

import "bytes"

// SniffSignature classifies buf by its binary signature alone. The table
// covers the containers the pipeline accepts; RIFF containers are
// disambiguated by their form type tag.
func SniffSignature(buf []byte) (Type, bool) {
	if len(buf) < 4 {
		return "", false
	}

	// RIFF containers: AVI, WAV, and WebP share the outer signature.
	if bytes.HasPrefix(buf, []byte("RIFF")) {
		if len(buf) < 12 {
			return "", false
		}
		switch string(buf[8:12]) {
		case "AVI ":
			return TypeVideo, true
		case "WAVE":
			return TypeAudio, true
		case "WEBP":
			return TypeImage, true
		default:
			return "", false
		}
	}

	// ISO-BMFF (MP4 family): the ftyp box follows a 4-byte size field.
	if len(buf) >= 12 && bytes.Equal(buf[4:8], []byte("ftyp")) {
		return TypeVideo, true
	}

	// Matroska / WebM EBML header.
	if bytes.HasPrefix(buf, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return TypeVideo, true
	}

	switch {
	case bytes.HasPrefix(buf, []byte("fLaC")):
		return TypeAudio, true
	case bytes.HasPrefix(buf, []byte("OggS")):
		return TypeAudio, true
	case bytes.HasPrefix(buf, []byte("ID3")):
		return TypeAudio, true
	case bytes.HasPrefix(buf, []byte{0xFF, 0xD8, 0xFF}):
		return TypeImage, true
	case bytes.HasPrefix(buf, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return TypeImage, true
	case bytes.HasPrefix(buf, []byte("GIF87a")), bytes.HasPrefix(buf, []byte("GIF89a")):
		return TypeImage, true
	}

	// MP3 frame sync: eleven set bits across the first two bytes.
	if len(buf) >= 2 && buf[0] == 0xFF && buf[1]&0xE0 == 0xE0 {
		return TypeAudio, true
	}

	return "", false
}
