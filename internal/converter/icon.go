package converter

import (
	"context"
	"fmt"

	"media-converter/internal/capability"
	"media-converter/internal/codec"
)

// IconUnit converts icon containers. The ico and ani formats share one
// family, so converting between them is a passthrough rename; foreign
// raster inputs are assembled into single-entry ICO containers.
type IconUnit struct {
	unit
	rt codec.ImageRuntime
}

// NewIconUnit returns the icon family conversion unit.
func NewIconUnit(rt codec.ImageRuntime) *IconUnit {
	iu := &IconUnit{rt: rt}
	iu.unit = unit{
		name:      "icon",
		natives:   []capability.Family{capability.FamilyIcon},
		fallbacks: []string{"ico", "png"},
	}
	iu.unit.decode = iu.decodeIcon
	iu.unit.encode = iu.encodeIcon
	return iu
}

// Probe freezes the icon unit's capability set.
func (iu *IconUnit) Probe(ctx context.Context) error {
	return iu.runProbe(ctx, func(_ context.Context) error {
		caps := []capability.Descriptor{
			directed("ico", true, true, false),
			directed("ani", true, true, false),
			directed("png", true, true, false),
			directed("jpeg", true, true, false),
			directed("bmp", true, false, false),
		}
		for _, d := range caps {
			if err := iu.caps.Add(d); err != nil {
				return err
			}
		}
		return nil
	})
}

func (iu *IconUnit) decodeIcon(ctx context.Context, data []byte, in, out capability.Descriptor) ([][]byte, error) {
	img, err := codec.DecodeIcon(data)
	if err != nil {
		return nil, err
	}
	rendered, err := iu.rt.RenderEncode(ctx, img, out.MIME, Quality)
	if err != nil {
		return nil, err
	}
	return [][]byte{rendered}, nil
}

func (iu *IconUnit) encodeIcon(_ context.Context, data []byte, in, out capability.Descriptor) ([]byte, error) {
	if out.Tag != "ico" {
		return nil, fmt.Errorf("no %s encoder in host runtime: %w", out.Tag, codec.ErrUnavailable)
	}
	bmp, err := codec.DecodeBitmap(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s source: %w", in.Tag, err)
	}
	return codec.EncodeIcon(bmp)
}
