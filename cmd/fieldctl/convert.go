package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/fieldgo/blobstore"
	"github.com/hupe1980/fieldgo/persistence"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Re-envelope a stream with another compression",
		Long: `convert reads IN, verifies it and writes the same plain stream to OUT,
wrapped in the selected compression envelope. With --compression none the
output is a plain stream that fieldgo.Load accepts directly.`,
		Example: `  fieldctl convert velocity.fld velocity.fldz --compression zstd
  FIELDCTL_COMPRESSION=lz4 fieldctl convert a.fld minio://fields/a.fld`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := persistence.ParseCompression(a.v.GetString(cfgCompression))
			if err != nil {
				return err
			}
			return a.convert(cmd, args[0], args[1], c)
		},
	}
	cmd.Flags().String(cfgCompression, persistence.CompressionZSTD.String(), "envelope compression: zstd, lz4 or none")
	_ = a.v.BindPFlag(cfgCompression, cmd.Flags().Lookup(cfgCompression))
	return cmd
}

func (a *app) convert(cmd *cobra.Command, in, out string, c persistence.CompressionType) error {
	ctx := cmd.Context()
	data, from, err := a.readVerified(ctx, in)
	if err != nil {
		return err
	}

	dst, err := a.resolve(ctx, out)
	if err != nil {
		return err
	}
	n, err := write(ctx, dst, data, c)
	if err != nil {
		return fmt.Errorf("%s: %w", out, err)
	}

	a.logger.Debug("converted stream", "source", in, "target", out, "compression", c.String())
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) -> %s (%s): %d -> %d bytes\n", in, from, out, c, len(data), n)
	return nil
}

// readVerified returns the plain stream held at raw after checking it.
func (a *app) readVerified(ctx context.Context, raw string) ([]byte, persistence.CompressionType, error) {
	loc, err := a.resolve(ctx, raw)
	if err != nil {
		return nil, 0, err
	}
	s, err := a.open(ctx, loc)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", raw, err)
	}
	defer s.Close()

	data, err := io.ReadAll(s)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", raw, err)
	}
	if _, err := persistence.Inspect(bytes.NewReader(data)); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", raw, err)
	}
	return data, s.compression, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// write stores data at loc. A failed write is aborted where supported.
func write(ctx context.Context, loc location, data []byte, c persistence.CompressionType) (int64, error) {
	w, err := loc.store.Create(ctx, loc.name)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}

	err = encode(cw, data, c)
	if err != nil {
		if ab, ok := w.(blobstore.Aborter); ok {
			_ = ab.Abort()
		} else {
			_ = w.Close()
		}
		return cw.n, err
	}
	return cw.n, w.Close()
}

func encode(w io.Writer, data []byte, c persistence.CompressionType) error {
	if c == persistence.CompressionNone {
		_, err := w.Write(data)
		return err
	}
	zw, err := persistence.NewCompressedWriter(w, c)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
