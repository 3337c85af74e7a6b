// Package backend provides the concrete layers fields are composed of.
//
// Leaves:
//   - Array stores Size elements of Components scalars each.
//   - Constant yields one configured element for every coordinate.
//
// Transforms:
//   - Strided maps a multi-index to a linear index (row-major).
//   - NearestNeighbour rounds continuous coordinates to the nearest index.
//   - Affine applies a homogeneous N x (N+1) matrix to coordinates.
//   - Clamp limits coordinates to a box.
//   - Mask replaces the elements of indices outside a roaring bitmap with
//     a fallback element.
//
// A chain is spelled as nested generic types, outer layer first:
//
//	type Grid = backend.NearestNeighbour[
//		backend.Strided[backend.Array[float32], []float32], []float32]
//
//	pack := fieldgo.MakePack(
//		backend.NearestNeighbourConfig{Dimensions: 3},
//		backend.StridedConfig{Sizes: []uint64{10, 10, 10}},
//		backend.ArrayConfig{Size: 1000, Components: 3},
//	)
//	f, err := fieldgo.NewField[Grid](pack)
package backend
