// Package render draws transform plans as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] lays a plan out as one cluster per copy, with a node for every
// emitted stage in application order. Consecutive stages are chained, and
// the last stage of each copy points at the first stage of the next copy,
// so the diagram reads as the sequence the geometry collaborator sees.
//
// # Usage
//
//	dot := render.ToDOT(steps, render.Options{})
//	svg, err := render.RenderSVG(dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, node labels include the full 4x4 matrix
//
// Stages that were skipped (disabled or identity) have no node.
package render
