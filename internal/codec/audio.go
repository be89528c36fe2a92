package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"media-converter/internal/logging"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// AudioContext is the shared audio decode/encode capability for a
// conversion unit. Decoding is stateful inside the underlying decoders,
// so one context must not be used concurrently; a unit processes its
// batch sequentially and the mutex enforces that.
type AudioContext struct {
	mu sync.Mutex
}

// NewAudioContext returns an audio capability backed by the pure-Go
// MP3 and WAV decoders.
func NewAudioContext() *AudioContext {
	return &AudioContext{}
}

// CanHandle reports whether the context can decode the container type.
func (c *AudioContext) CanHandle(containerType string) bool {
	switch containerType {
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/mpeg":
		return true
	default:
		return false
	}
}

// Decode converts one encoded audio payload of srcType into payloads of
// dstType. The only native decode target is WAV; anything else requires
// an encoder the runtime does not carry.
func (c *AudioContext) Decode(ctx context.Context, data []byte, srcType, dstType string) ([][]byte, error) {
	clip, err := c.DecodeClip(ctx, data, srcType)
	if err != nil {
		return nil, err
	}
	out, err := c.RenderEncode(ctx, clip, dstType)
	if err != nil {
		return nil, err
	}
	return [][]byte{out}, nil
}

// DecodeClip decodes an encoded payload into interleaved PCM.
func (c *AudioContext) DecodeClip(ctx context.Context, data []byte, srcType string) (*Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch srcType {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return decodeWav(data)
	case "audio/mpeg":
		return decodeMp3(data)
	default:
		return nil, fmt.Errorf("no %s decoder in host runtime: %w", srcType, ErrUnavailable)
	}
}

// RenderEncode renders PCM into dstType. WAV is the only available
// encoder; requesting anything else surfaces ErrUnavailable.
func (c *AudioContext) RenderEncode(ctx context.Context, clip *Clip, dstType string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch dstType {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return encodeWav(clip)
	default:
		return nil, fmt.Errorf("no %s encoder in host runtime: %w", dstType, ErrUnavailable)
	}
}

func decodeWav(data []byte) (*Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV stream")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read WAV samples: %w", err)
	}
	if buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("WAV stream contains no samples")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	return &Clip{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   bitDepth,
		Samples:    buf.Data,
	}, nil
}

func decodeMp3(data []byte) (*Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open MP3 stream: %w", err)
	}

	// go-mp3 always yields 16-bit little-endian stereo
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode MP3 samples: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("MP3 stream contains no samples")
	}

	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8))
	}

	logging.Debug("decoded MP3: %d frames at %d Hz", len(samples)/2, dec.SampleRate())
	return &Clip{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		BitDepth:   16,
		Samples:    samples,
	}, nil
}

func encodeWav(clip *Clip) ([]byte, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, fmt.Errorf("empty clip")
	}

	bitDepth := clip.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	var ws memWriteSeeker
	enc := wav.NewEncoder(&ws, clip.SampleRate, bitDepth, clip.Channels, 1)
	err := enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: clip.Channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           clip.Samples,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize WAV stream: %w", err)
	}
	return ws.Bytes(), nil
}

// memWriteSeeker is an in-memory io.WriteSeeker. The WAV encoder seeks
// back to patch chunk sizes, so a plain bytes.Buffer is not enough.
type memWriteSeeker struct {
	buf []byte
	pos int64
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + int64(len(p)); need > int64(len(m.buf)) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += int64(len(p))
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = m.pos + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	m.pos = next
	return next, nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return m.buf
}
