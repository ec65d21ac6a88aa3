// Package processor defines the uniform contract the media processors
// implement and the raw result shape they produce. The concrete
// video/audio/image pipelines live in subpackages.
package processor
