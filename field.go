package fieldgo

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/fieldgo/persistence"
)

// Field owns one instantiated layer chain. It is created from a Pack or
// loaded from a stream, and is immutable from the chain's point of view;
// leaves may still expose their own mutation surface.
type Field[B Layer] struct {
	backend B
}

// NewField builds chain B from pack, innermost layer first. The pack length
// must equal Depth[B]. On failure no field is returned and the error is a
// *ConfigurationError.
func NewField[B Layer](pack *Pack, opts ...Option) (*Field[B], error) {
	o := applyOptions(opts)
	start := time.Now()
	depth := Depth[B]()

	f, err := build[B](pack, depth)

	o.logger.LogBuild(context.Background(), depth, err)
	o.metricsCollector.RecordBuild(depth, time.Since(start), err)
	return f, err
}

func build[B Layer](pack *Pack, depth int) (*Field[B], error) {
	if pack == nil {
		return nil, chainConfigurationError("nil pack")
	}
	if pack.Len() != depth {
		return nil, chainConfigurationError("pack has %d entries, chain depth is %d", pack.Len(), depth)
	}
	configs, err := pack.take()
	if err != nil {
		return nil, err
	}

	b, err := BuildInner[B](configs)
	if err != nil {
		if !classified(err) {
			err = &ConfigurationError{Layer: -1, Reason: err.Error(), remaining: -1, cause: err}
		}
		return nil, locate(err, depth)
	}
	return &Field[B]{backend: b}, nil
}

// Load restores chain B from a plain field stream. It stops after the last
// layer; bytes that follow are left unread. The stream must declare
// exactly Depth[B] layers whose kinds match the chain outer to inner.
// Scalar blocks stored at a different width than a leaf's scalar type are
// converted element by element.
//
// A stream that ends early is an *IOError; content that does not match the
// layout is a *FormatError.
func Load[B Layer](r io.Reader, opts ...Option) (*Field[B], error) {
	return load[B](context.Background(), r, applyOptions(opts), false)
}

// load decodes chain B from r. With whole set, r must end after the last
// layer.
func load[B Layer](ctx context.Context, r io.Reader, o options, whole bool) (*Field[B], error) {
	start := time.Now()
	depth := Depth[B]()
	d := persistence.NewDecoder(r)

	b, err := decode[B](d, depth)
	if err == nil && whole {
		err = d.ReadEnd()
	}
	err = translateLoadError(err)

	o.logger.LogLoad(ctx, depth, d.BytesRead(), err)
	o.metricsCollector.RecordLoad(d.BytesRead(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &Field[B]{backend: b}, nil
}

func decode[B Layer](d *persistence.Decoder, depth int) (B, error) {
	var zero B
	h, err := d.ReadFileHeader()
	if err != nil {
		return zero, err
	}
	if int(h.Depth) != depth {
		return zero, fmt.Errorf("%w: stream declares %d layers, chain has %d", persistence.ErrInvalidDepth, h.Depth, depth)
	}
	return DecodeInner[B](d)
}

// loadEnveloped loads a whole stream that may be plain or enveloped.
func loadEnveloped[B Layer](ctx context.Context, r io.Reader, o options) (*Field[B], error) {
	stream, _, err := persistence.OpenStream(r)
	if err != nil {
		err = translateLoadError(err)
		o.logger.LogLoad(ctx, Depth[B](), 0, err)
		o.metricsCollector.RecordLoad(0, 0, err)
		return nil, err
	}
	defer stream.Close()
	return load[B](ctx, stream, o, true)
}

// LoadFile restores chain B from a file holding a plain or compressed stream.
// Bytes after the last layer are a *FormatError.
func LoadFile[B Layer](path string, opts ...Option) (*Field[B], error) {
	o := applyOptions(opts)
	o.logger = o.logger.WithSource(path)

	var f *Field[B]
	err := persistence.LoadFromFile(path, func(r io.Reader) error {
		var err error
		f, err = loadEnveloped[B](context.Background(), r, o)
		return err
	})
	if err != nil {
		if !classified(err) {
			err = &IOError{Op: "open", cause: err}
		}
		return nil, err
	}
	return f, nil
}

// Backend returns the outermost layer of the chain.
func (f *Field[B]) Backend() B { return f.backend }

// Depth returns the number of layers in the chain.
func (f *Field[B]) Depth() int { return DepthOf(f.backend) }

// Pack returns a fresh pack with the configuration of every layer, which
// builds a chain of the same shape. Storage contents are not part of it.
func (f *Field[B]) Pack() *Pack {
	layers := Layers(f.backend)
	configs := make([]any, len(layers))
	for i, l := range layers {
		configs[i] = l.Configuration()
	}
	return &Pack{configs: configs}
}

// Dump writes the chain to w: the file header, then one record per layer,
// outer to inner. Failing writes are reported as *IOError.
func (f *Field[B]) Dump(w io.Writer, opts ...Option) error {
	return f.dump(context.Background(), w, applyOptions(opts))
}

func (f *Field[B]) dump(ctx context.Context, w io.Writer, o options) error {
	start := time.Now()

	n, err := f.encode(w, o)
	err = translateDumpError(err)

	o.logger.LogDump(ctx, f.Depth(), n, err)
	o.metricsCollector.RecordDump(n, time.Since(start), err)
	return err
}

func (f *Field[B]) encode(w io.Writer, o options) (int64, error) {
	if !o.compress {
		return f.encodePlain(w, o.width)
	}
	cw, err := persistence.NewCompressedWriter(w, o.compression)
	if err != nil {
		return 0, err
	}
	n, err := f.encodePlain(cw, o.width)
	if cerr := cw.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func (f *Field[B]) encodePlain(w io.Writer, width persistence.Width) (int64, error) {
	e := persistence.NewEncoder(w)
	if err := e.SetScalarWidth(width); err != nil {
		return 0, err
	}
	layers := Layers(f.backend)
	if err := e.WriteFileHeader(len(layers)); err != nil {
		return e.BytesWritten(), err
	}
	for _, l := range layers {
		if err := e.WriteLayer(uint16(l.Kind()), l.EncodePayload); err != nil {
			return e.BytesWritten(), err
		}
	}
	return e.BytesWritten(), nil
}

// SaveFile atomically writes the field to path. Use WithCompression to
// store a compressed envelope.
func (f *Field[B]) SaveFile(path string, opts ...Option) error {
	o := applyOptions(opts)
	o.logger = o.logger.WithSource(path)

	err := persistence.SaveToFile(path, func(w io.Writer) error {
		return f.dump(context.Background(), w, o)
	})
	if err != nil && !classified(err) {
		err = &IOError{Op: "save", cause: err}
	}
	return err
}
