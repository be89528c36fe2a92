package metadata

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Info holds the EXIF fields worth recording on a conversion job.
type Info struct {
	Timestamp time.Time
	Camera    string
}

// Extract reads EXIF from an encoded image. It returns an error when
// the payload carries no parseable EXIF block.
func Extract(data []byte) (*Info, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("no EXIF data: %w", err)
	}

	info := &Info{}
	if ts, err := x.DateTime(); err == nil {
		info.Timestamp = ts
	}

	var parts []string
	if tag, err := x.Get(exif.Make); err == nil {
		if v, err := tag.StringVal(); err == nil {
			parts = append(parts, strings.TrimSpace(v))
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if v, err := tag.StringVal(); err == nil {
			parts = append(parts, strings.TrimSpace(v))
		}
	}
	info.Camera = strings.Join(parts, " ")

	return info, nil
}

// Summary returns a compact one-line description of an input's EXIF,
// or the empty string when none is present.
func Summary(data []byte) string {
	info, err := Extract(data)
	if err != nil {
		return ""
	}

	var parts []string
	if !info.Timestamp.IsZero() {
		parts = append(parts, info.Timestamp.Format(time.RFC3339))
	}
	if info.Camera != "" {
		parts = append(parts, info.Camera)
	}
	return strings.Join(parts, ", ")
}
