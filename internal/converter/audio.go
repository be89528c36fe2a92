package converter

import (
	"context"

	"media-converter/internal/capability"
	"media-converter/internal/codec"
)

// AudioUnit converts MPEG audio. Decoding an MP3 yields a WAV
// rendering of its PCM; the reverse direction requires an MP3 encoder
// the runtime does not carry, so it surfaces a host-capability error
// suggesting WAV output instead.
type AudioUnit struct {
	unit
	ac codec.AudioRuntime
}

// NewAudioUnit returns the MPEG audio conversion unit.
func NewAudioUnit(ac codec.AudioRuntime) *AudioUnit {
	au := &AudioUnit{ac: ac}
	au.unit = unit{
		name:      "mpeg-audio",
		natives:   []capability.Family{capability.FamilyMP3},
		fallbacks: []string{"wav"},
	}
	au.unit.decode = au.decodeAudio
	au.unit.encode = au.encodeAudio
	return au
}

// Probe checks the runtime's MPEG decode support and freezes the
// capability set.
func (au *AudioUnit) Probe(ctx context.Context) error {
	return au.runProbe(ctx, func(_ context.Context) error {
		mp3 := format("mp3")
		if err := au.caps.Add(directed("mp3", au.ac.CanHandle(mp3.MIME), true, true)); err != nil {
			return err
		}
		return au.caps.Add(directed("wav", true, true, false))
	})
}

func (au *AudioUnit) decodeAudio(ctx context.Context, data []byte, in, out capability.Descriptor) ([][]byte, error) {
	return au.ac.Decode(ctx, data, in.MIME, out.MIME)
}

func (au *AudioUnit) encodeAudio(ctx context.Context, data []byte, in, out capability.Descriptor) ([]byte, error) {
	clip, err := au.ac.DecodeClip(ctx, data, in.MIME)
	if err != nil {
		return nil, err
	}
	return au.ac.RenderEncode(ctx, clip, out.MIME)
}
