package converter

import (
	"fmt"

	"media-converter/internal/capability"
)

// formatCatalog holds the canonical descriptor prototypes. Units copy a
// prototype and set its directionality when building their capability
// sets; the prototypes themselves carry no directionality.
var formatCatalog = map[string]capability.Descriptor{
	"jpeg": {Name: "JPEG image", Tag: "jpeg", Extension: "jpeg", MIME: "image/jpeg", Family: capability.FamilyJPEG, Category: capability.CategoryImage},
	"jpg":  {Name: "JPEG image", Tag: "jpg", Extension: "jpg", MIME: "image/jpeg", Family: capability.FamilyJPEG, Category: capability.CategoryImage},
	"png":  {Name: "PNG image", Tag: "png", Extension: "png", MIME: "image/png", Family: capability.FamilyPNG, Category: capability.CategoryImage, Lossless: true},
	"webp": {Name: "WebP image", Tag: "webp", Extension: "webp", MIME: "image/webp", Family: capability.FamilyWebP, Category: capability.CategoryImage},
	"gif":  {Name: "GIF image", Tag: "gif", Extension: "gif", MIME: "image/gif", Family: capability.FamilyGIF, Category: capability.CategoryImage, Lossless: true},
	"bmp":  {Name: "Windows bitmap", Tag: "bmp", Extension: "bmp", MIME: "image/bmp", Family: capability.FamilyBMP, Category: capability.CategoryImage, Lossless: true},
	"tiff": {Name: "TIFF image", Tag: "tiff", Extension: "tiff", MIME: "image/tiff", Family: capability.FamilyTIFF, Category: capability.CategoryImage, Lossless: true},
	"heic": {Name: "HEIC image", Tag: "heic", Extension: "heic", MIME: "image/heic", Family: capability.FamilyHEIF, Category: capability.CategoryImage},
	"heif": {Name: "HEIF image", Tag: "heif", Extension: "heif", MIME: "image/heif", Family: capability.FamilyHEIF, Category: capability.CategoryImage},
	"avif": {Name: "AVIF image", Tag: "avif", Extension: "avif", MIME: "image/avif", Family: capability.FamilyAVIF, Category: capability.CategoryImage},
	"ico":  {Name: "Windows icon", Tag: "ico", Extension: "ico", MIME: "image/x-icon", Family: capability.FamilyIcon, Category: capability.CategoryImage, Lossless: true},
	"ani":  {Name: "Animated cursor", Tag: "ani", Extension: "ani", MIME: "application/x-navi-animation", Family: capability.FamilyIcon, Category: capability.CategoryImage, Lossless: true},
	"wav":  {Name: "WAVE audio", Tag: "wav", Extension: "wav", MIME: "audio/wav", Family: capability.FamilyWAV, Category: capability.CategoryAudio, Lossless: true},
	"mp3":  {Name: "MP3 audio", Tag: "mp3", Extension: "mp3", MIME: "audio/mpeg", Family: capability.FamilyMP3, Category: capability.CategoryAudio},
}

// format returns the catalog prototype for a tag. Unknown tags are a
// programmer error.
func format(tag string) capability.Descriptor {
	d, ok := formatCatalog[tag]
	if !ok {
		panic(fmt.Sprintf("converter: unknown format tag %q", tag))
	}
	return d
}

// directed returns a catalog prototype with directionality applied.
func directed(tag string, from, to, probed bool) capability.Descriptor {
	d := format(tag)
	d.From = from
	d.To = to
	d.Probed = probed
	return d
}
