package codec

import (
	"context"
	"errors"
	"image"
)

// ErrUnavailable reports that the host runtime lacks the encoder or
// feature required to produce the requested target format. It is the
// signal callers use to distinguish host-feature absence from malformed
// input.
var ErrUnavailable = errors.New("capability not available in host runtime")

// ImageRuntime is the host-side image codec capability consumed by the
// conversion units.
type ImageRuntime interface {
	// Decode converts one encoded payload of srcType into one or more
	// payloads of dstType. Multi-page sources (HEIC bursts, animated
	// GIF, multi-page TIFF) yield one payload per page, in source
	// order. Quality is on a 0-1 scale and applies where the target
	// format supports it.
	Decode(ctx context.Context, data []byte, srcType, dstType string, quality float64) ([][]byte, error)

	// RenderEncode renders a decoded bitmap into dstType. It fails
	// with an error wrapping ErrUnavailable when the runtime has no
	// encoder for dstType; it never returns an empty payload.
	RenderEncode(ctx context.Context, bmp image.Image, dstType string, quality float64) ([]byte, error)

	// CanHandle reports whether the runtime can process the given
	// container type at all.
	CanHandle(containerType string) bool
}

// AudioRuntime is the host-side audio capability. The intermediate
// renderable representation is a PCM Clip rather than a bitmap.
type AudioRuntime interface {
	// Decode converts one encoded payload of srcType into payloads of
	// dstType.
	Decode(ctx context.Context, data []byte, srcType, dstType string) ([][]byte, error)

	// DecodeClip decodes srcType into interleaved PCM using the
	// universally-supported decode path.
	DecodeClip(ctx context.Context, data []byte, srcType string) (*Clip, error)

	// RenderEncode renders PCM into dstType, failing with
	// ErrUnavailable when no encoder exists.
	RenderEncode(ctx context.Context, clip *Clip, dstType string) ([]byte, error)

	// CanHandle reports whether the runtime can decode the given
	// container type.
	CanHandle(containerType string) bool
}

// Clip is decoded audio: interleaved PCM samples at a known rate.
type Clip struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []int
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Mono returns the clip downmixed to a single channel. A clip that is
// already mono is returned as-is.
func (c *Clip) Mono() []int {
	if c.Channels <= 1 {
		return c.Samples
	}
	frames := c.Frames()
	out := make([]int, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < c.Channels; ch++ {
			sum += c.Samples[i*c.Channels+ch]
		}
		out[i] = sum / c.Channels
	}
	return out
}
