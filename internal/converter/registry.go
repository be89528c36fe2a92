package converter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"media-converter/internal/capability"
	"media-converter/internal/codec"
	"media-converter/internal/logging"
)

// ErrNoUnit is returned when no ready conversion unit covers a format
// pair.
var ErrNoUnit = errors.New("no conversion unit for format pair")

// Registry holds the conversion units and pairs requests with the
// first ready unit whose capabilities cover them. Registration order
// is priority order.
type Registry struct {
	mu    sync.RWMutex
	units []Handler
}

// NewRegistry returns a registry over the given units.
func NewRegistry(units ...Handler) *Registry {
	return &Registry{units: units}
}

// NewDefaultRegistry assembles the built-in unit set over the given
// host runtimes.
func NewDefaultRegistry(imageRT codec.ImageRuntime, audioRT codec.AudioRuntime) *Registry {
	return NewRegistry(
		NewHeifUnit(imageRT),
		NewAvifUnit(imageRT),
		NewIconUnit(imageRT),
		NewWebpUnit(imageRT),
		NewGifUnit(imageRT),
		NewTiffUnit(imageRT),
		NewJpegUnit(imageRT),
		NewPngUnit(imageRT),
		NewAudioUnit(audioRT),
		NewSpectrogramUnit(audioRT),
	)
}

// Register appends a unit at the lowest priority.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = append(r.units, h)
}

// Units returns the registered units in priority order.
func (r *Registry) Units() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handler, len(r.units))
	copy(out, r.units)
	return out
}

// ProbeAll probes every unit. A unit whose probe fails stays unready
// and is skipped by Resolve; ProbeAll fails only when no unit at all
// became ready.
func (r *Registry) ProbeAll(ctx context.Context) error {
	ready := 0
	for _, h := range r.Units() {
		if err := h.Probe(ctx); err != nil {
			logging.Warn("unit %s failed to probe: %v", h.Name(), err)
			continue
		}
		ready++
	}
	if ready == 0 {
		return fmt.Errorf("no conversion units became ready")
	}
	logging.Info("registry ready: %d/%d units probed", ready, len(r.Units()))
	return nil
}

// Ready reports whether at least one unit completed probing.
func (r *Registry) Ready() bool {
	for _, h := range r.Units() {
		if h.Ready() {
			return true
		}
	}
	return false
}

// Capabilities returns the union of all ready units' descriptors,
// merged by tag: a tag readable or writable anywhere is reported so.
func (r *Registry) Capabilities() []capability.Descriptor {
	var order []string
	merged := make(map[string]capability.Descriptor)
	for _, h := range r.Units() {
		for _, d := range h.Capabilities() {
			if prev, ok := merged[d.Tag]; ok {
				prev.From = prev.From || d.From
				prev.To = prev.To || d.To
				merged[d.Tag] = prev
				continue
			}
			merged[d.Tag] = d
			order = append(order, d.Tag)
		}
	}
	out := make([]capability.Descriptor, 0, len(order))
	for _, tag := range order {
		out = append(out, merged[tag])
	}
	return out
}

// Resolve finds the first ready unit that can execute the pair,
// returning the unit and its own descriptors for both formats.
func (r *Registry) Resolve(inTag, outTag string) (Handler, capability.Descriptor, capability.Descriptor, error) {
	for _, h := range r.Units() {
		if !h.Ready() {
			continue
		}
		var in, out capability.Descriptor
		var haveIn, haveOut bool
		for _, d := range h.Capabilities() {
			if d.Tag == inTag {
				in, haveIn = d, true
			}
			if d.Tag == outTag {
				out, haveOut = d, true
			}
		}
		if haveIn && haveOut && h.CanConvert(in, out) {
			return h, in, out, nil
		}
	}
	return nil, capability.Descriptor{}, capability.Descriptor{},
		fmt.Errorf("%w: %s -> %s", ErrNoUnit, inTag, outTag)
}

// Convert resolves the pair and executes the batch, returning the
// outputs and the name of the unit that handled it.
func (r *Registry) Convert(ctx context.Context, files []File, inTag, outTag string) ([]File, string, error) {
	h, in, out, err := r.Resolve(inTag, outTag)
	if err != nil {
		return nil, "", err
	}
	outputs, err := h.Convert(ctx, files, in, out)
	if err != nil {
		return nil, h.Name(), err
	}
	return outputs, h.Name(), nil
}
