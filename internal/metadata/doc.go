// Package metadata extracts EXIF information from image inputs so
// conversion jobs can record when and with what a source was shot.
// Extraction is best-effort: most formats carry no EXIF and that is
// not an error worth surfacing.
package metadata
