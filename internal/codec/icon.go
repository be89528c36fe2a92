package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fyne-io/image/ico"
)

// maxIconSide is the largest icon dimension the ICO format addresses
// directly; larger bitmaps are downscaled before embedding.
const maxIconSide = 256

// DecodeIcon decodes an ICO container, returning its largest image.
func DecodeIcon(data []byte) (image.Image, error) {
	img, err := ico.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode icon container: %w", err)
	}
	return img, nil
}

// EncodeIcon assembles a single-entry ICO container with a PNG-encoded
// payload, the modern icon encoding. Bitmaps larger than 256px on a
// side are fitted first.
func EncodeIcon(bmp image.Image) ([]byte, error) {
	b := bmp.Bounds()
	if b.Dx() > maxIconSide || b.Dy() > maxIconSide {
		bmp = imaging.Fit(bmp, maxIconSide, maxIconSide, imaging.Lanczos)
		b = bmp.Bounds()
	}

	var payload bytes.Buffer
	if err := png.Encode(&payload, bmp); err != nil {
		return nil, fmt.Errorf("encode icon payload: %w", err)
	}

	// ICONDIR + one ICONDIRENTRY; width/height bytes of 0 mean 256
	var out bytes.Buffer
	dir := struct {
		Reserved uint16
		Type     uint16
		Count    uint16
	}{0, 1, 1}
	entry := struct {
		Width    uint8
		Height   uint8
		Colors   uint8
		Reserved uint8
		Planes   uint16
		BitCount uint16
		Size     uint32
		Offset   uint32
	}{
		Width:    uint8(b.Dx() % maxIconSide),
		Height:   uint8(b.Dy() % maxIconSide),
		Planes:   1,
		BitCount: 32,
		Size:     uint32(payload.Len()),
		Offset:   22, // 6-byte header + 16-byte entry
	}

	if err := binary.Write(&out, binary.LittleEndian, dir); err != nil {
		return nil, fmt.Errorf("write icon header: %w", err)
	}
	if err := binary.Write(&out, binary.LittleEndian, entry); err != nil {
		return nil, fmt.Errorf("write icon entry: %w", err)
	}
	out.Write(payload.Bytes())
	return out.Bytes(), nil
}
