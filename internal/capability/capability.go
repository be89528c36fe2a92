package capability

import "fmt"

// Family groups formats that the conversion branch logic treats as
// interchangeable, even when their containers and extensions differ.
type Family int

const (
	// FamilyUnknown is the zero value; no descriptor should carry it.
	FamilyUnknown Family = iota
	// FamilyJPEG covers JPEG/JFIF images.
	FamilyJPEG
	// FamilyPNG covers PNG images.
	FamilyPNG
	// FamilyWebP covers WebP images.
	FamilyWebP
	// FamilyGIF covers GIF images, including animated GIF.
	FamilyGIF
	// FamilyBMP covers Windows bitmap images.
	FamilyBMP
	// FamilyTIFF covers TIFF images.
	FamilyTIFF
	// FamilyHEIF covers the HEIF container family (heic, heif).
	FamilyHEIF
	// FamilyAVIF covers AV1 image files.
	FamilyAVIF
	// FamilyIcon covers icon containers (ico, ani).
	FamilyIcon
	// FamilyWAV covers RIFF/WAVE audio.
	FamilyWAV
	// FamilyMP3 covers MPEG layer 3 audio.
	FamilyMP3
)

// String returns the lowercase name of the family.
func (f Family) String() string {
	switch f {
	case FamilyJPEG:
		return "jpeg"
	case FamilyPNG:
		return "png"
	case FamilyWebP:
		return "webp"
	case FamilyGIF:
		return "gif"
	case FamilyBMP:
		return "bmp"
	case FamilyTIFF:
		return "tiff"
	case FamilyHEIF:
		return "heif"
	case FamilyAVIF:
		return "avif"
	case FamilyIcon:
		return "icon"
	case FamilyWAV:
		return "wav"
	case FamilyMP3:
		return "mp3"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// Category is the broad media class a format belongs to.
type Category string

const (
	// CategoryImage marks raster image formats.
	CategoryImage Category = "image"
	// CategoryAudio marks audio formats.
	CategoryAudio Category = "audio"
)

// Descriptor describes one concrete format a conversion unit can accept
// or produce. Descriptors are value types and are never mutated after
// being added to a Set.
type Descriptor struct {
	// Name is the human-readable format name, e.g. "HEIC image".
	Name string `json:"name"`
	// Tag is the canonical format tag used to address the format in
	// requests, e.g. "heic".
	Tag string `json:"tag"`
	// Extension is the file extension without the leading dot.
	Extension string `json:"extension"`
	// MIME is the container-type identifier, e.g. "image/heic".
	MIME string `json:"mime"`
	// Family is the internal classification key for branch selection.
	Family Family `json:"-"`
	// From reports whether the owning unit can read this format.
	From bool `json:"from"`
	// To reports whether the owning unit can produce this format.
	To bool `json:"to"`
	// Category is the broad media class.
	Category Category `json:"category"`
	// Lossless reports whether the format preserves source data exactly.
	Lossless bool `json:"lossless"`
	// Probed is true when the entry was appended by the runtime probe
	// rather than declared unconditionally.
	Probed bool `json:"probed"`
}
