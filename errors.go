package fieldgo

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/fieldgo/persistence"
)

var (
	// ErrConfiguration classifies missing or structurally invalid construction parameters.
	ErrConfiguration = errors.New("configuration error")
	// ErrIO classifies failures of the underlying byte stream.
	ErrIO = errors.New("i/o error")
	// ErrFormat classifies stream content that does not match the expected layout.
	ErrFormat = errors.New("format error")
)

// ConfigurationError reports a construction parameter that is missing or
// structurally invalid. Layer is the chain position the error refers to, or
// -1 when it concerns the whole chain.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigurationError struct {
	Layer  int
	Kind   Kind
	Reason string

	remaining int // configuration entries left when a layer failed, -1 if unknown
	cause     error
}

func (e *ConfigurationError) Error() string {
	if e.Layer < 0 {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: layer %d (%s): %s", e.Layer, e.Kind, e.Reason)
}

// Is reports a match against ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func (e *ConfigurationError) Unwrap() error { return e.cause }

// InvalidConfiguration reports that the configuration popped from configs by
// a layer of the given kind was rejected. configs is the slice the layer's
// Build received, which locates the layer in its chain.
func InvalidConfiguration(kind Kind, configs []any, err error) error {
	return &ConfigurationError{
		Layer:     -1,
		Kind:      kind,
		Reason:    err.Error(),
		remaining: len(configs),
		cause:     err,
	}
}

func chainConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Layer: -1, Reason: fmt.Sprintf(format, args...), remaining: -1}
}

// IOError reports that the underlying byte stream could not be opened, was
// exhausted before the expected data arrived, or rejected a write.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type IOError struct {
	Op    string
	cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error: %s: %v", e.Op, e.cause)
}

// Is reports a match against ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.cause }

// NewIOError wraps err as an IOError for the named operation.
func NewIOError(op string, err error) error {
	return &IOError{Op: op, cause: err}
}

// FormatError reports stream content that does not match the self-describing
// layout: a bad tag, a size mismatch, a checksum failure. Layer is the record
// index the problem was found in, or -1 for the file header.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type FormatError struct {
	Layer  int
	Reason string
	cause  error
}

func (e *FormatError) Error() string {
	if e.Layer < 0 {
		return "format error: " + e.Reason
	}
	return fmt.Sprintf("format error: layer %d: %s", e.Layer, e.Reason)
}

// Is reports a match against ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) Unwrap() error { return e.cause }

// locate fills in the chain position of a layer configuration error.
func locate(err error, depth int) error {
	var ce *ConfigurationError
	if errors.As(err, &ce) && ce.Layer < 0 && ce.remaining >= 0 {
		ce.Layer = depth - ce.remaining
	}
	return err
}

// translateLoadError maps decoder failures onto the public taxonomy.
func translateLoadError(err error) error {
	if err == nil {
		return nil
	}

	layer := -1
	var le *persistence.LayerError
	if errors.As(err, &le) {
		layer = le.Index
	}

	var ce *ConfigurationError
	if errors.As(err, &ce) {
		// A decoded configuration the layer rejects is malformed content.
		return &FormatError{Layer: layer, Reason: ce.Reason, cause: ce.cause}
	}
	if persistence.IsFormatError(err) {
		return &FormatError{Layer: layer, Reason: rootCause(err).Error(), cause: err}
	}
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("%w: empty stream", err)
	}
	return &IOError{Op: "load", cause: err}
}

// translateDumpError maps encoder failures onto the public taxonomy.
func translateDumpError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrInvalidWidth) ||
		errors.Is(err, persistence.ErrInvalidCompression) ||
		errors.Is(err, persistence.ErrInvalidDepth) {
		return &ConfigurationError{Layer: -1, Reason: err.Error(), remaining: -1, cause: err}
	}
	var le *persistence.LayerError
	if errors.As(err, &le) && persistence.IsFormatError(err) {
		return &FormatError{Layer: le.Index, Reason: rootCause(err).Error(), cause: err}
	}
	return &IOError{Op: "dump", cause: err}
}

// classified reports whether err already belongs to the public taxonomy.
func classified(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrIO) || errors.Is(err, ErrFormat)
}

func rootCause(err error) error {
	var le *persistence.LayerError
	if errors.As(err, &le) && le.Err != nil {
		return le.Err
	}
	return err
}
