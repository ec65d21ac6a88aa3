// Package mediatype classifies raw payloads as video, audio, or image.
//
// Resolution follows a strict priority order: an explicit caller hint, the
// filename extension, the declared MIME type prefix, and finally binary
// signature sniffing against a fixed magic-number table. Payloads that
// survive all four checks unclassified are rejected outright.
package mediatype
