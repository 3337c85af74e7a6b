package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/backend"
	"github.com/hupe1980/fieldgo/persistence"
)

type grid = backend.NearestNeighbour[backend.Strided[backend.Array[float32], []float32], []float32]

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func saveGrid(t *testing.T, opts ...fieldgo.Option) (string, *fieldgo.Field[grid]) {
	t.Helper()
	f, err := fieldgo.NewField[grid](fieldgo.MakePack(
		backend.NearestNeighbourConfig{Dimensions: 2},
		backend.StridedConfig{Sizes: []uint64{2, 3}},
		backend.ArrayConfig{Size: 6, Components: 1},
	))
	require.NoError(t, err)
	data := leafData(f)
	for i := range data {
		data[i] = float32(i)
	}

	path := filepath.Join(t.TempDir(), "grid.fld")
	require.NoError(t, f.SaveFile(path, opts...))
	return path, f
}

func leafData(f *fieldgo.Field[grid]) []float32 {
	return f.Backend().Inner().Inner().(backend.Array[float32]).Data()
}

func TestInspect(t *testing.T) {
	path, _ := saveGrid(t)

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "compression:  none")
	assert.Contains(t, out, "depth:        3")
	assert.Contains(t, out, "nearest-neighbour")
	assert.Contains(t, out, "strided")
	assert.Contains(t, out, "array")

	out, err = run(t, "inspect", "--json", path)
	require.NoError(t, err)
	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, uint32(3), r.Depth)
	require.Len(t, r.Layers, 3)
	assert.Equal(t, "nearest-neighbour", r.Layers[0].Kind)
	assert.Equal(t, int64(16), r.Layers[0].Offset)
	assert.Equal(t, "array", r.Layers[2].Kind)

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, stat.Size(), r.Size)
}

func TestInspect_Compressed(t *testing.T) {
	path, _ := saveGrid(t, fieldgo.WithCompression(persistence.CompressionLZ4))

	out, err := run(t, "inspect", "--json", path)
	require.NoError(t, err)
	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "lz4", r.Compression)
	assert.Len(t, r.Layers, 3)
}

func TestVerify(t *testing.T) {
	good, _ := saveGrid(t)

	out, err := run(t, "verify", good)
	require.NoError(t, err)
	assert.Contains(t, out, "OK "+good+": 3 layers")

	data, err := os.ReadFile(good)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	corrupt := filepath.Join(t.TempDir(), "corrupt.fld")
	require.NoError(t, os.WriteFile(corrupt, data, 0o600))

	_, err = run(t, "verify", good, corrupt)
	assert.True(t, persistence.IsChecksumMismatch(err), "%v", err)

	_, err = run(t, "verify", filepath.Join(t.TempDir(), "missing.fld"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(t.TempDir(), "empty.fld")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = run(t, "verify", empty)
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	src, f := saveGrid(t)
	dir := t.TempDir()

	zst := filepath.Join(dir, "grid.fldz")
	out, err := run(t, "convert", src, zst)
	require.NoError(t, err)
	assert.Contains(t, out, "(none) -> "+zst+" (zstd)")

	g, err := fieldgo.LoadFile[grid](zst)
	require.NoError(t, err)
	assert.Equal(t, leafData(f), leafData(g))

	plain := filepath.Join(dir, "plain.fld")
	_, err = run(t, "convert", "--compression", "none", zst, plain)
	require.NoError(t, err)

	r, err := os.Open(plain)
	require.NoError(t, err)
	defer r.Close()
	_, err = fieldgo.Load[grid](r)
	require.NoError(t, err)

	_, err = run(t, "convert", "--compression", "brotli", src, plain)
	assert.ErrorIs(t, err, persistence.ErrInvalidCompression)
}

func TestConvert_CompressionFromEnv(t *testing.T) {
	src, _ := saveGrid(t)
	dst := filepath.Join(t.TempDir(), "grid.fldz")
	t.Setenv("FIELDCTL_COMPRESSION", "lz4")

	_, err := run(t, "convert", src, dst)
	require.NoError(t, err)

	out, err := run(t, "inspect", "--json", dst)
	require.NoError(t, err)
	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "lz4", r.Compression)
}

func TestResolve(t *testing.T) {
	v := viper.New()
	a := &app{v: v, logger: fieldgo.NoopLogger()}
	ctx := context.Background()

	loc, err := a.resolve(ctx, filepath.Join("data", "grid.fld"))
	require.NoError(t, err)
	assert.Equal(t, "grid.fld", loc.name)

	v.Set(cfgMinioEndpoint, "localhost:9000")
	loc, err = a.resolve(ctx, "minio://fields/run/grid.fld")
	require.NoError(t, err)
	assert.Equal(t, "run/grid.fld", loc.name)

	_, err = a.resolve(ctx, "minio://fields")
	assert.Error(t, err)
	_, err = a.resolve(ctx, "ftp://host/grid.fld")
	assert.Error(t, err)
}
