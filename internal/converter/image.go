package converter

import (
	"context"
	"fmt"

	"media-converter/internal/capability"
	"media-converter/internal/codec"
)

// rasterInterchange lists the interchange formats every raster unit can
// read through the universal bitmap path and (except bmp, which the
// host cannot write) produce through the host runtime.
var rasterInterchange = []string{"png", "jpeg", "webp", "gif", "bmp", "tiff"}

// RasterUnit converts between one native raster family and the common
// interchange formats. A native input is decoded by the host runtime
// (with multi-page fan-out); a foreign input is decoded through the
// universal bitmap path and rendered into the native family by the
// host; two native formats pass bytes through untouched.
type RasterUnit struct {
	unit
	rt         codec.ImageRuntime
	nativeTags []string
}

func newRasterUnit(name string, natives []capability.Family, nativeTags []string, rt codec.ImageRuntime) *RasterUnit {
	ru := &RasterUnit{rt: rt, nativeTags: nativeTags}
	ru.unit = unit{
		name:      name,
		natives:   natives,
		fallbacks: []string{"png", "jpeg"},
	}
	ru.unit.decode = ru.decodeNative
	ru.unit.encode = ru.encodeNative
	return ru
}

// NewHeifUnit converts the HEIF container family (heic, heif).
// Multi-frame HEIC bursts fan out to one output per frame.
func NewHeifUnit(rt codec.ImageRuntime) *RasterUnit {
	return newRasterUnit("heif", []capability.Family{capability.FamilyHEIF}, []string{"heic", "heif"}, rt)
}

// NewAvifUnit converts AV1 image files.
func NewAvifUnit(rt codec.ImageRuntime) *RasterUnit {
	return newRasterUnit("avif", []capability.Family{capability.FamilyAVIF}, []string{"avif"}, rt)
}

// NewWebpUnit converts WebP images.
func NewWebpUnit(rt codec.ImageRuntime) *RasterUnit {
	return newRasterUnit("webp", []capability.Family{capability.FamilyWebP}, []string{"webp"}, rt)
}

// NewGifUnit converts GIF images; animated sources fan out per frame.
func NewGifUnit(rt codec.ImageRuntime) *RasterUnit {
	return newRasterUnit("gif", []capability.Family{capability.FamilyGIF}, []string{"gif"}, rt)
}

// NewTiffUnit converts TIFF images; multi-page sources fan out.
func NewTiffUnit(rt codec.ImageRuntime) *RasterUnit {
	return newRasterUnit("tiff", []capability.Family{capability.FamilyTIFF}, []string{"tiff"}, rt)
}

// NewJpegUnit converts JPEG images. Both jpeg and jpg tags are native,
// so a jpg to jpeg request is a pure rename.
func NewJpegUnit(rt codec.ImageRuntime) *RasterUnit {
	return newRasterUnit("jpeg", []capability.Family{capability.FamilyJPEG}, []string{"jpeg", "jpg"}, rt)
}

// NewPngUnit converts PNG images.
func NewPngUnit(rt codec.ImageRuntime) *RasterUnit {
	return newRasterUnit("png", []capability.Family{capability.FamilyPNG}, []string{"png"}, rt)
}

// Probe queries the host runtime and freezes the capability set.
func (ru *RasterUnit) Probe(ctx context.Context) error {
	return ru.runProbe(ctx, ru.buildCapabilities)
}

func (ru *RasterUnit) buildCapabilities(_ context.Context) error {
	// Native formats first: readability depends on what the linked
	// runtime carries, so these entries are probed.
	for _, tag := range ru.nativeTags {
		d := format(tag)
		if err := ru.caps.Add(directed(tag, ru.rt.CanHandle(d.MIME), true, true)); err != nil {
			return err
		}
	}

	// Interchange formats: valid encode-branch inputs, and decode
	// targets where the host can write them.
	for _, tag := range rasterInterchange {
		if ru.isNative(format(tag).Family) {
			continue
		}
		to := tag != "bmp"
		if err := ru.caps.Add(directed(tag, true, to, false)); err != nil {
			return err
		}
	}
	return nil
}

func (ru *RasterUnit) decodeNative(ctx context.Context, data []byte, in, out capability.Descriptor) ([][]byte, error) {
	return ru.rt.Decode(ctx, data, in.MIME, out.MIME, Quality)
}

func (ru *RasterUnit) encodeNative(ctx context.Context, data []byte, in, out capability.Descriptor) ([]byte, error) {
	bmp, err := codec.DecodeBitmap(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s source: %w", in.Tag, err)
	}
	return ru.rt.RenderEncode(ctx, bmp, out.MIME, Quality)
}
