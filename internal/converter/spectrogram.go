package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/cmplx"

	"media-converter/internal/capability"
	"media-converter/internal/codec"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// spectrogramWindow is the analysis window in samples. The output
// raster is half this high: one row per frequency bin below Nyquist.
const spectrogramWindow = 1024

// SpectrogramUnit renders audio into a raster frequency-domain image.
// The capability is one-directional: audio is only ever an input and
// the image is only ever an output, so the conversion is not
// invertible.
type SpectrogramUnit struct {
	unit
	ac codec.AudioRuntime
}

// NewSpectrogramUnit returns the audio analysis unit.
func NewSpectrogramUnit(ac codec.AudioRuntime) *SpectrogramUnit {
	su := &SpectrogramUnit{ac: ac}
	su.unit = unit{
		name:    "spectrogram",
		natives: []capability.Family{capability.FamilyWAV, capability.FamilyMP3},
	}
	su.unit.decode = su.analyze
	su.unit.encode = su.rejectEncode
	return su
}

// Probe checks audio decode support and freezes the capability set.
// Audio entries are gated by the same runtime playability query as the
// audio unit; the image output is unconditional.
func (su *SpectrogramUnit) Probe(ctx context.Context) error {
	return su.runProbe(ctx, func(_ context.Context) error {
		wav := format("wav")
		if err := su.caps.Add(directed("wav", su.ac.CanHandle(wav.MIME), false, true)); err != nil {
			return err
		}
		mp3 := format("mp3")
		if err := su.caps.Add(directed("mp3", su.ac.CanHandle(mp3.MIME), false, true)); err != nil {
			return err
		}
		return su.caps.Add(directed("png", false, true, false))
	})
}

func (su *SpectrogramUnit) analyze(ctx context.Context, data []byte, in, out capability.Descriptor) ([][]byte, error) {
	clip, err := su.ac.DecodeClip(ctx, data, in.MIME)
	if err != nil {
		return nil, err
	}

	img := renderSpectrogram(clip)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode spectrogram raster: %w", err)
	}
	return [][]byte{buf.Bytes()}, nil
}

// rejectEncode exists to satisfy the branch table; the capability set
// never routes an encode here because no audio output is declared.
func (su *SpectrogramUnit) rejectEncode(_ context.Context, _ []byte, _, out capability.Descriptor) ([]byte, error) {
	return nil, fmt.Errorf("spectrogram analysis is one-directional, cannot produce %s: %w",
		out.Tag, codec.ErrUnavailable)
}

// renderSpectrogram frames the clip into fixed windows, applies a Hann
// window and an FFT per frame, and maps each bin magnitude into a
// 24-bit color at full opacity. One pixel column per window, one row
// per frequency bin.
func renderSpectrogram(clip *codec.Clip) *image.RGBA {
	bitDepth := clip.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int(1) << uint(bitDepth-1))

	mono := clip.Mono()
	samples := make([]float64, len(mono))
	for i, s := range mono {
		samples[i] = float64(s) / scale
	}

	cols := len(samples) / spectrogramWindow
	if cols == 0 {
		// Short clips are zero-padded to a single window
		cols = 1
		padded := make([]float64, spectrogramWindow)
		copy(padded, samples)
		samples = padded
	}
	height := spectrogramWindow / 2

	img := image.NewRGBA(image.Rect(0, 0, cols, height))
	fft := fourier.NewFFT(spectrogramWindow)
	frame := make([]float64, spectrogramWindow)

	for col := 0; col < cols; col++ {
		copy(frame, samples[col*spectrogramWindow:(col+1)*spectrogramWindow])
		window.Hann(frame)
		coeffs := fft.Coefficients(nil, frame)

		for bin := 0; bin < height; bin++ {
			mag := cmplx.Abs(coeffs[bin])
			v := uint32(math.Min(mag*float64(0xffffff)/float64(spectrogramWindow), float64(0xffffff)))
			img.SetRGBA(col, height-1-bin, color.RGBA{
				R: uint8(v >> 16),
				G: uint8(v >> 8),
				B: uint8(v),
				A: 0xff,
			})
		}
	}
	return img
}
