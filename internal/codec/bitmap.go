package codec

import (
	"bytes"
	"fmt"
	"image"

	// Bitmap decoders for the universal decode path. Encode-branch
	// inputs are decoded here, never by the target family's own codec.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/fyne-io/image/ico"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeBitmap decodes an encoded image into an in-memory bitmap using
// the universally-supported decode path (stdlib registrations plus
// webp, bmp, tiff and ico). EXIF orientation is applied during decode.
func DecodeBitmap(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	// ico is not part of the stdlib decode registry
	if icoImg, icoErr := ico.Decode(bytes.NewReader(data)); icoErr == nil {
		return icoImg, nil
	}

	return nil, fmt.Errorf("not a decodable bitmap: %w", err)
}

// BitmapDimensions returns the pixel dimensions of an encoded image
// without fully decoding it.
func BitmapDimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
