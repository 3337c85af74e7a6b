package fieldgo

import (
	"github.com/hupe1980/fieldgo/persistence"
	"github.com/hupe1980/fieldgo/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	width            persistence.Width
	compression      persistence.CompressionType
	compress         bool
	resources        *resource.Controller
}

// Option configures field construction, load and dump behavior.
type Option func(*options)

// WithLogger sets the logger used for build, load and dump events.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the collector notified after each operation.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithScalarWidth selects the width scalar blocks are dumped with. The
// default writes each leaf at the width of its own scalar type.
func WithScalarWidth(width persistence.Width) Option {
	return func(o *options) {
		o.width = width
	}
}

// WithCompression wraps dumped streams in a compressed envelope. Load accepts
// enveloped streams only through LoadFile and LoadBlob.
func WithCompression(c persistence.CompressionType) Option {
	return func(o *options) {
		o.compression = c
		o.compress = true
	}
}

// WithResourceController bounds the memory, concurrency and I/O rate of blob
// loads.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
