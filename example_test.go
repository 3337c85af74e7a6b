package fieldgo_test

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hupe1980/fieldgo"
	"github.com/hupe1980/fieldgo/backend"
)

func Example() {
	type chain = backend.NearestNeighbour[backend.Strided[backend.Array[float64], []float64], []float64]

	f, err := fieldgo.NewField[chain](fieldgo.MakePack(
		backend.NearestNeighbourConfig{Dimensions: 2},
		backend.StridedConfig{Sizes: []uint64{2, 2}},
		backend.ArrayConfig{Size: 4, Components: 1},
	))
	if err != nil {
		panic(err)
	}
	copy(f.Backend().Inner().Inner().(backend.Array[float64]).Data(), []float64{1, 2, 3, 4})

	v := fieldgo.NewView[[]float64, []float64](f)
	fmt.Println(v.At([]float64{0.9, 0.2}))

	var buf bytes.Buffer
	if err := f.Dump(&buf); err != nil {
		panic(err)
	}
	g, err := fieldgo.Load[chain](&buf)
	if err != nil {
		panic(err)
	}
	w := fieldgo.NewView[[]float64, []float64](g)
	fmt.Println(w.At([]float64{1, 1}))
	// Output:
	// [3]
	// [4]
}

func ExampleDepth() {
	type grid = backend.NearestNeighbour[backend.Strided[backend.Array[float32], []float32], []float32]
	type chain = backend.Clamp[grid, []float32]

	fmt.Println(fieldgo.Depth[chain]())
	fmt.Println(fieldgo.NthLayer[chain](3))
	fmt.Println(fieldgo.IsEmpty(fieldgo.NthLayer[chain](4)))
	// Output:
	// 4
	// backend.Array[float32]
	// true
}

func ExamplePackFor() {
	type chain = backend.Strided[backend.Array[float32], []float32]

	_, err := fieldgo.PackFor[chain](backend.ArrayConfig{Size: 4, Components: 1}, backend.StridedConfig{Sizes: []uint64{4}})

	var ce *fieldgo.ConfigurationError
	fmt.Println(errors.As(err, &ce), ce.Layer)
	// Output: true 0
}
