package mediatype

import (
	"path/filepath"
	"strings"

	"iris/internal/services"
)

// Type identifies one of the supported media classes.
type Type string

const (
	TypeVideo Type = "video"
	TypeAudio Type = "audio"
	TypeImage Type = "image"
)

// ParseType converts a string into a known Type.
func ParseType(value string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeVideo:
		return TypeVideo, true
	case TypeAudio:
		return TypeAudio, true
	case TypeImage:
		return TypeImage, true
	default:
		return "", false
	}
}

// Hints carries the caller-supplied classification inputs.
type Hints struct {
	// TypeHint is an explicit media type declaration. Invalid values are a
	// fatal input error rather than a fallthrough.
	TypeHint string
	Filename string
	MIMEType string
}

// Detector classifies payloads using configured extension lists and the
// built-in signature table.
type Detector struct {
	extensions map[string]Type
}

// NewDetector builds a detector from per-medium extension lists.
func NewDetector(videoExts, audioExts, imageExts []string) *Detector {
	extensions := make(map[string]Type, len(videoExts)+len(audioExts)+len(imageExts))
	for _, ext := range videoExts {
		extensions[normalizeExt(ext)] = TypeVideo
	}
	for _, ext := range audioExts {
		extensions[normalizeExt(ext)] = TypeAudio
	}
	for _, ext := range imageExts {
		extensions[normalizeExt(ext)] = TypeImage
	}
	return &Detector{extensions: extensions}
}

// Detect resolves the media type of buf using, in priority order: the
// explicit type hint, the filename extension, the declared MIME type
// prefix, and binary signature sniffing.
func (d *Detector) Detect(buf []byte, hints Hints) (Type, error) {
	if hint := strings.TrimSpace(hints.TypeHint); hint != "" {
		parsed, ok := ParseType(hint)
		if !ok {
			return "", services.Wrap(services.ErrInput, "detect", "type hint", "unsupported media type "+hint, nil)
		}
		return parsed, nil
	}

	if filename := strings.TrimSpace(hints.Filename); filename != "" {
		ext := strings.ToLower(filepath.Ext(filename))
		if mediaType, ok := d.extensions[ext]; ok {
			return mediaType, nil
		}
	}

	if mediaType, ok := typeFromMIME(hints.MIMEType); ok {
		return mediaType, nil
	}

	if mediaType, ok := SniffSignature(buf); ok {
		return mediaType, nil
	}

	return "", services.Wrap(services.ErrInput, "detect", "classify", "undetectable media type", nil)
}

func typeFromMIME(mimeType string) (Type, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return TypeVideo, true
	case strings.HasPrefix(mimeType, "audio/"):
		return TypeAudio, true
	case strings.HasPrefix(mimeType, "image/"):
		return TypeImage, true
	default:
		return "", false
	}
}

func normalizeExt(ext string) string {
	cleaned := strings.ToLower(strings.TrimSpace(ext))
	if cleaned != "" && !strings.HasPrefix(cleaned, ".") {
		cleaned = "." + cleaned
	}
	return cleaned
}
