// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gemm computes the dense matrix product C = A·B for row-major
// float32 matrices.
//
// Two implementations share one contract:
//   - GemmNaive is the triple-loop reference. Its k-ascending accumulation
//     order defines the ground-truth result.
//   - GemmParallel partitions the rows of C into panels, runs the panels as a
//     fork-join group and, inside each panel, accumulates over tiles of the
//     shared K dimension so the working set stays resident in cache.
//
// Panels own disjoint row ranges of the output, so no locking happens during
// accumulation. The innermost tile multiply-accumulate is a TileKernel; the
// scalar kernel shipped here can be replaced by a vectorized one without
// touching the partitioning.
//
// Results of the two paths agree within GEMMTolerance. Repeated GemmParallel
// calls with the same inputs and Config are bit-identical.
//
//	a := gemm.Random(256, 256, 42)
//	b := gemm.Random(256, 256, 1337)
//	c, err := gemm.GemmParallel(a, b, gemm.WithPanelRows(64), gemm.WithTileK(128))
package gemm
