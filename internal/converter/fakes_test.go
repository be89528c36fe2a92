package converter

import (
	"context"
	"fmt"
	"image"
	"math"

	"media-converter/internal/codec"
)

// fakeImageRuntime implements codec.ImageRuntime with controllable
// behavior so branch logic can be exercised without libvips.
type fakeImageRuntime struct {
	unhandled   map[string]bool
	decodeFn    func(data []byte, srcType, dstType string) ([][]byte, error)
	renderFn    func(dstType string) ([]byte, error)
	decodeCalls int
	renderCalls int
}

func newFakeImageRuntime() *fakeImageRuntime {
	return &fakeImageRuntime{unhandled: make(map[string]bool)}
}

func (f *fakeImageRuntime) CanHandle(containerType string) bool {
	return !f.unhandled[containerType]
}

func (f *fakeImageRuntime) Decode(_ context.Context, data []byte, srcType, dstType string, _ float64) ([][]byte, error) {
	f.decodeCalls++
	if f.decodeFn != nil {
		return f.decodeFn(data, srcType, dstType)
	}
	return [][]byte{[]byte("decoded:" + dstType)}, nil
}

func (f *fakeImageRuntime) RenderEncode(_ context.Context, _ image.Image, dstType string, _ float64) ([]byte, error) {
	f.renderCalls++
	if f.renderFn != nil {
		return f.renderFn(dstType)
	}
	return []byte("rendered:" + dstType), nil
}

// fakeAudioRuntime implements codec.AudioRuntime.
type fakeAudioRuntime struct {
	unhandled map[string]bool
	clip      *codec.Clip
	clipErr   error
}

func newFakeAudioRuntime() *fakeAudioRuntime {
	return &fakeAudioRuntime{unhandled: make(map[string]bool)}
}

func (f *fakeAudioRuntime) CanHandle(containerType string) bool {
	return !f.unhandled[containerType]
}

func (f *fakeAudioRuntime) Decode(ctx context.Context, data []byte, srcType, dstType string) ([][]byte, error) {
	clip, err := f.DecodeClip(ctx, data, srcType)
	if err != nil {
		return nil, err
	}
	out, err := f.RenderEncode(ctx, clip, dstType)
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

func (f *fakeAudioRuntime) DecodeClip(_ context.Context, _ []byte, srcType string) (*codec.Clip, error) {
	if f.clipErr != nil {
		return nil, f.clipErr
	}
	if f.clip != nil {
		return f.clip, nil
	}
	return testToneClip(8000, 1, spectrogramWindow*2), nil
}

func (f *fakeAudioRuntime) RenderEncode(_ context.Context, _ *codec.Clip, dstType string) ([]byte, error) {
	switch dstType {
	case "audio/wav":
		return []byte("pcm-as-wav"), nil
	default:
		return nil, fmt.Errorf("no %s encoder in host runtime: %w", dstType, codec.ErrUnavailable)
	}
}

// testToneClip generates a 440 Hz tone.
func testToneClip(sampleRate, channels, frames int) *codec.Clip {
	samples := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(12000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}
	return &codec.Clip{SampleRate: sampleRate, Channels: channels, BitDepth: 16, Samples: samples}
}
