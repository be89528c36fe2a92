package converter

import (
	"fmt"
	"path"
	"strings"
)

// baseName strips the input's extension to obtain the base output name.
// Names without an extension are used as-is.
func baseName(name string) string {
	ext := path.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// outputNames maps one input to its 1..n output names. A single output
// keeps the base name; multiple outputs are numbered with a 1-based,
// zero-padded width-3 sequence, preserving source order.
func outputNames(base, ext string, n int) []string {
	if n == 1 {
		return []string{fmt.Sprintf("%s.%s", base, ext)}
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = fmt.Sprintf("%s_%03d.%s", base, i+1, ext)
	}
	return names
}
