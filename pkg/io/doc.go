// Package io provides JSON import and export for transform plans and
// executed documents.
//
// # Plan Format
//
// A plan is a single object with a "steps" array, in application order:
//
//	{
//	  "steps": [
//	    {"stage": "scale", "copy": 1, "cumulative": false,
//	     "matrix": [2,0,0,0, 0,2,0,0, 0,0,2,0, 0,0,0,1]},
//	    {"stage": "translation", "copy": 1, "cumulative": false,
//	     "matrix": [1,0,0,1, 0,1,0,0, 0,0,1,0, 0,0,0,1]}
//	  ]
//	}
//
// "matrix" holds the 16 cells of the 4x4 transform in row-major order, so
// the translation is at indexes 3, 7 and 11. This format can be re-imported
// with [ReadPlanJSON] for round-trip processing, and it is the format the
// plan cache and the HTTP API use.
//
// # Document Format
//
// [WriteDocumentJSON] writes the bodies and components of an executed
// [geometry.Document]:
//
//	{
//	  "bodies": [{"id": "b2", "name": "Body1_1", "component": "Body1_1",
//	              "vertices": [{"x": 0, "y": 0, "z": 0}]}],
//	  "components": [{"name": "Body1_1", "body": "b2"}]
//	}
package io
