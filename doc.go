// Package fieldgo provides composable field storage and field access for
// simulation and reconstruction code.
//
// A field answers lookups of vector-valued quantities, such as magnetic field
// samples, at coordinates. Lookups run through a chain of layers: one
// terminal layer that stores or generates values, wrapped by any number of
// transform layers that rewrite the coordinate on the way in.
//
// # Chains
//
// A chain is a nested Go type. The outermost layer is the field's backend:
//
//	type grid = backend.NearestNeighbour[
//	    backend.Strided[backend.Array[float32], []float32], []float32]
//
// Chain traits inspect such a type without an instance:
//
//	fieldgo.Depth[grid]()       // 3
//	fieldgo.NthLayer[grid](2)   // backend.Array[float32]
//	fieldgo.NthLayer[grid](3)   // fieldgo.Empty
//
// # Construction
//
// A Pack carries one configuration per layer, outer to inner, and is consumed
// by exactly one NewField:
//
//	pack := fieldgo.MakePack(
//	    backend.NearestNeighbourConfig{Dimensions: 2},
//	    backend.StridedConfig{Sizes: []uint64{64, 64}},
//	    backend.ArrayConfig{Size: 64 * 64, Components: 3},
//	)
//	f, err := fieldgo.NewField[grid](pack)
//
// PackFor additionally checks every entry against the layer at its position.
//
// # Lookup
//
// A View is a copyable handle for lookups. It owns scratch memory for the
// transforms of its chain, so lookups do not allocate; give each goroutine
// its own copy.
//
//	v := fieldgo.NewView[[]float64, []float32](f)
//	b := v.At([]float64{12.3, 40.8})
//
// # Persistence
//
// Dump writes a self-describing binary stream and Load restores it into the
// same chain type. Scalar blocks may be stored at another width than the
// leaf's scalar type (WithScalarWidth), including binary16, and are converted
// on load. SaveFile, LoadFile, SaveBlob and LoadBlob add compressed envelopes
// (WithCompression) and storage in any blobstore.BlobStore, such as a local
// directory, Amazon S3 or MinIO.
//
// # Errors
//
// All failures belong to one of three classes, matched with errors.Is:
// ErrConfiguration for rejected construction parameters, ErrIO for failing
// streams and ErrFormat for stream content that does not match the layout.
// The typed errors ConfigurationError, IOError and FormatError carry the
// layer position where known.
package fieldgo
