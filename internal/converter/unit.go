package converter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"media-converter/internal/capability"
	"media-converter/internal/codec"
	"media-converter/internal/logging"
	"media-converter/internal/metrics"
)

// branch identifies the execution path selected for a format pair.
type branch int

const (
	branchDecode branch = iota
	branchEncode
	branchPassthrough
)

func (b branch) String() string {
	switch b {
	case branchDecode:
		return "decode"
	case branchEncode:
		return "encode"
	case branchPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("unknown(%d)", int(b))
	}
}

// decodeFunc turns one native-format payload into 1..n payloads of the
// target format.
type decodeFunc func(ctx context.Context, data []byte, in, out capability.Descriptor) ([][]byte, error)

// encodeFunc turns one foreign-format payload into a single payload of
// a native target format.
type encodeFunc func(ctx context.Context, data []byte, in, out capability.Descriptor) ([]byte, error)

// unit is the conversion state machine shared by every concrete
// handler. Concrete units supply the native families, the probe
// function that builds the capability set, and the decode/encode
// capabilities the branches delegate to.
type unit struct {
	name      string
	natives   []capability.Family
	caps      capability.Set
	decode    decodeFunc
	encode    encodeFunc
	fallbacks []string

	mu    sync.Mutex
	ready bool
}

// Name returns the unit's identity.
func (u *unit) Name() string {
	return u.name
}

// Ready reports whether probing completed successfully.
func (u *unit) Ready() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ready
}

// Capabilities returns the frozen capability set, or nil before the
// probe has completed.
func (u *unit) Capabilities() []capability.Descriptor {
	if !u.Ready() {
		return nil
	}
	return u.caps.List()
}

// runProbe executes fn once. On success the capability set is frozen
// and the unit becomes ready; on failure nothing is committed and the
// unit stays unusable. A second call after success is a no-op.
func (u *unit) runProbe(ctx context.Context, fn func(ctx context.Context) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.ready {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	if err := fn(ctx); err != nil {
		metrics.ProbesTotal.WithLabelValues(u.name, "error").Inc()
		return fmt.Errorf("probe %s: %w", u.name, err)
	}

	u.caps.Freeze()
	u.ready = true
	metrics.ProbesTotal.WithLabelValues(u.name, "success").Inc()
	metrics.UnitsReady.Inc()
	logging.Info("unit %s ready: %d capabilities (probe took %s)",
		u.name, u.caps.Len(), time.Since(start).Round(time.Millisecond))
	return nil
}

func (u *unit) isNative(f capability.Family) bool {
	for _, n := range u.natives {
		if n == f {
			return true
		}
	}
	return false
}

// classify selects exactly one branch for a format pair, in precedence
// order decode, encode, passthrough.
func (u *unit) classify(in, out capability.Descriptor) (branch, error) {
	switch {
	case u.isNative(in.Family) && !u.isNative(out.Family):
		return branchDecode, nil
	case u.isNative(out.Family) && !u.isNative(in.Family):
		return branchEncode, nil
	case u.isNative(in.Family) && u.isNative(out.Family):
		return branchPassthrough, nil
	}
	return 0, &Error{Kind: KindClassification, Unit: u.name, In: in.Tag, Out: out.Tag}
}

// CanConvert reports whether the unit's frozen capability set covers
// the pair and the pair classifies into a branch.
func (u *unit) CanConvert(in, out capability.Descriptor) bool {
	if !u.Ready() || !u.caps.Covers(in.Tag, out.Tag) {
		return false
	}
	_, err := u.classify(in, out)
	return err == nil
}

// Convert executes one batch sequentially. The batch is all-or-nothing:
// the first per-file failure aborts the remaining files.
func (u *unit) Convert(ctx context.Context, files []File, in, out capability.Descriptor) ([]File, error) {
	if !u.Ready() {
		return nil, &Error{Kind: KindResource, Unit: u.name, Err: ErrNotReady}
	}
	if !u.caps.Covers(in.Tag, out.Tag) {
		return nil, &Error{Kind: KindClassification, Unit: u.name, In: in.Tag, Out: out.Tag}
	}

	br, err := u.classify(in, out)
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues(u.name, "none", "error").Inc()
		return nil, err
	}

	start := time.Now()
	logging.Debug("unit %s: %s -> %s via %s branch, %d file(s)",
		u.name, in.Tag, out.Tag, br, len(files))

	outputs := make([]File, 0, len(files))
	inputBytes := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			metrics.ConversionsTotal.WithLabelValues(u.name, br.String(), "error").Inc()
			return nil, &Error{Kind: KindResource, Unit: u.name, File: f.Name, Err: err}
		}
		inputBytes += len(f.Data)

		produced, err := u.convertOne(ctx, f, in, out, br)
		if err != nil {
			metrics.ConversionsTotal.WithLabelValues(u.name, br.String(), "error").Inc()
			return nil, err
		}
		outputs = append(outputs, produced...)
	}

	metrics.ConversionsTotal.WithLabelValues(u.name, br.String(), "success").Inc()
	metrics.ConversionDuration.WithLabelValues(u.name, br.String()).Observe(time.Since(start).Seconds())
	metrics.ConversionOutputFiles.WithLabelValues(u.name).Add(float64(len(outputs)))
	metrics.ConversionInputBytes.WithLabelValues(u.name).Add(float64(inputBytes))
	return outputs, nil
}

// convertOne executes the selected branch for a single file.
func (u *unit) convertOne(ctx context.Context, f File, in, out capability.Descriptor, br branch) ([]File, error) {
	base := baseName(f.Name)

	switch br {
	case branchPassthrough:
		// Same native family on both sides: byte-identical copy,
		// only the name changes.
		data := make([]byte, len(f.Data))
		copy(data, f.Data)
		return []File{{Name: outputNames(base, out.Extension, 1)[0], Data: data}}, nil

	case branchDecode:
		frames, err := u.decode(ctx, f.Data, in, out)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Unit: u.name, File: f.Name, In: in.Tag, Out: out.Tag, Err: err}
		}
		if len(frames) == 0 {
			return nil, &Error{Kind: KindDecode, Unit: u.name, File: f.Name, In: in.Tag, Out: out.Tag,
				Err: fmt.Errorf("decode produced no output")}
		}
		names := outputNames(base, out.Extension, len(frames))
		results := make([]File, len(frames))
		for i, frame := range frames {
			results[i] = File{Name: names[i], Data: frame}
		}
		return results, nil

	case branchEncode:
		data, err := u.encode(ctx, f.Data, in, out)
		if err != nil {
			if errors.Is(err, codec.ErrUnavailable) {
				return nil, &Error{
					Kind: KindEncodeUnavailable, Unit: u.name, File: f.Name,
					In: in.Tag, Out: out.Tag,
					Missing: out.Tag, Fallbacks: u.fallbacks, Err: err,
				}
			}
			return nil, &Error{Kind: KindDecode, Unit: u.name, File: f.Name, In: in.Tag, Out: out.Tag, Err: err}
		}
		if len(data) == 0 {
			return nil, &Error{
				Kind: KindEncodeUnavailable, Unit: u.name, File: f.Name,
				In: in.Tag, Out: out.Tag,
				Missing: out.Tag, Fallbacks: u.fallbacks,
				Err: fmt.Errorf("encoder produced no bytes"),
			}
		}
		return []File{{Name: outputNames(base, out.Extension, 1)[0], Data: data}}, nil
	}

	return nil, &Error{Kind: KindClassification, Unit: u.name, In: in.Tag, Out: out.Tag}
}
