// Package codec adapts the host runtime's decode and encode
// capabilities for the conversion units.
//
// Images are handled by libvips through govips: VipsRuntime exposes a
// buffer-to-buffer decode capability (with multi-page fan-out for HEIC,
// GIF and TIFF sources), a bitmap render/encode capability, and a
// feature probe that discovers at startup which encoders the linked
// libvips actually carries. Audio is handled by pure-Go decoders
// (go-mp3, go-audio/wav) behind the same capability shape.
//
// When the host runtime cannot produce a requested target format the
// encode paths fail with an error wrapping ErrUnavailable so callers
// can distinguish host-feature absence from malformed input.
package codec
