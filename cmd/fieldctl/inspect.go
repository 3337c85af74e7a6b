package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/persistence"
)

type layerReport struct {
	Index    int    `json:"index"`
	Kind     string `json:"kind"`
	Tag      uint16 `json:"tag"`
	Offset   int64  `json:"offset"`
	Size     uint64 `json:"size"`
	Checksum uint32 `json:"checksum"`
}

type report struct {
	Location    string        `json:"location"`
	Compression string        `json:"compression"`
	Version     uint16        `json:"version"`
	Depth       uint32        `json:"depth"`
	Size        int64         `json:"size"`
	Layers      []layerReport `json:"layers"`
}

func newReport(raw string, c persistence.CompressionType, info *persistence.StreamInfo) report {
	r := report{
		Location:    raw,
		Compression: c.String(),
		Version:     info.Header.Version,
		Depth:       info.Header.Depth,
		Size:        info.Size,
		Layers:      make([]layerReport, 0, len(info.Layers)),
	}
	for _, l := range info.Layers {
		r.Layers = append(r.Layers, layerReport{
			Index:    l.Index,
			Kind:     fieldgo.Kind(l.Header.Kind).String(),
			Tag:      l.Header.Kind,
			Offset:   l.Offset,
			Size:     l.Header.Size,
			Checksum: l.Header.Checksum,
		})
	}
	return r
}

func (r report) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "location:\t%s\n", r.Location)
	fmt.Fprintf(tw, "compression:\t%s\n", r.Compression)
	fmt.Fprintf(tw, "version:\t%d\n", r.Version)
	fmt.Fprintf(tw, "depth:\t%d\n", r.Depth)
	fmt.Fprintf(tw, "size:\t%d bytes (%s)\n", r.Size, humanize.IBytes(uint64(r.Size)))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tKIND\tOFFSET\tSIZE\tCHECKSUM")
	for _, l := range r.Layers {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%08x\n", l.Index, l.Kind, l.Offset, l.Size, l.Checksum)
	}
	return tw.Flush()
}

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect LOCATION",
		Short: "Print the file header and every layer header",
		Example: `  fieldctl inspect velocity.fld
  fieldctl inspect --json s3://fields/velocity.fld`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.inspect(cmd, args[0])
			if err != nil {
				return err
			}
			if a.v.GetBool(cfgJSON) {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			return r.writeText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool(cfgJSON, false, "print the report as JSON")
	_ = a.v.BindPFlag(cfgJSON, cmd.Flags().Lookup(cfgJSON))
	return cmd
}

func (a *app) inspect(cmd *cobra.Command, raw string) (report, error) {
	ctx := cmd.Context()
	loc, err := a.resolve(ctx, raw)
	if err != nil {
		return report{}, err
	}
	s, err := a.open(ctx, loc)
	if err != nil {
		return report{}, fmt.Errorf("%s: %w", raw, err)
	}
	defer s.Close()

	info, err := persistence.Inspect(s)
	if err != nil {
		return report{}, fmt.Errorf("%s: %w", raw, err)
	}
	return newReport(raw, s.compression, info), nil
}
