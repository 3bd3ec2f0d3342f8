// Package affine provides the 4x4 homogeneous transform used for every
// per-copy stage.
//
// A [Transform] is a row-major 4x4 matrix. The upper-left 3x3 block holds
// rotation and scale, rows 0-2 of column 3 hold the translation, and row 3 is
// always (0, 0, 0, 1) for transforms built by this package.
//
// # Composition Order
//
// [Compose] returns the matrix product a·b. Applying the result to a point
// applies b first and then a:
//
//	t := affine.Compose(affine.Translation(1, 0, 0), affine.Scaling(2, 2, 2))
//	t.Apply(affine.Vec3{X: 1}) // scaled to (2,0,0), then translated to (3,0,0)
//
// [Transform.Then] reads left to right instead: a.Then(b) applies a, then b.
//
// Transforms are values. Copying one never aliases another, so a transform
// handed to a geometry collaborator cannot be changed afterwards.
package affine
