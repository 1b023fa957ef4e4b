// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sei

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_lagrange01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("lagrange01. nodal basis on [0,1]")

	// order 1: ℓ0 = 1−x, ℓ1 = x
	bas := NewLagrange(1)
	chk.Vector(tst, "f0", 1e-15, bas.F[0], []float64{1, -1})
	chk.Vector(tst, "f1", 1e-15, bas.F[1], []float64{0, 1})
	chk.Vector(tst, "df0", 1e-15, bas.Df[0], []float64{-1})
	chk.Vector(tst, "df1", 1e-15, bas.Df[1], []float64{1})

	// order 0 degenerates to the constant
	bas = NewLagrange(0)
	chk.Vector(tst, "f0 (order 0)", 1e-15, bas.F[0], []float64{1})

	// partition of unity and nodal interpolation for higher orders
	for order := 2; order <= 5; order++ {
		bas = NewLagrange(order)
		for i := 0; i <= order; i++ {
			for j := 0; j <= order; j++ {
				xj := float64(j) / float64(order)
				val := polyVal(xj, bas.F[i])
				if i == j {
					chk.Scalar(tst, "ℓi(xi)", 1e-13, val, 1)
				} else {
					chk.Scalar(tst, "ℓi(xj)", 1e-13, val, 0)
				}
			}
		}
	}
}

func Test_spectral01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spectral01. operator shapes and determinism")

	// shapes: (order+1) × order for all valid orders
	for order := 0; order <= 4; order++ {
		ops := NewOperators(order)
		chk.IntAssert(len(ops.D), order+1)
		chk.IntAssert(len(ops.K1), order+1)
		chk.IntAssert(len(ops.K2), order+1)
		chk.IntAssert(len(ops.P), order+1)
		for i := 0; i <= order; i++ {
			chk.IntAssert(len(ops.D[i]), order)
			chk.IntAssert(len(ops.K1[i]), order)
			chk.IntAssert(len(ops.K2[i]), order)
		}
	}

	// rebuilding with the same order yields bit-identical matrices
	a, b := NewOperators(3), NewOperators(3)
	for i := range a.D {
		for j := range a.D[i] {
			if a.D[i][j] != b.D[i][j] || a.K1[i][j] != b.K1[i][j] || a.K2[i][j] != b.K2[i][j] {
				tst.Errorf("rebuilt operators differ at (%d,%d)", i, j)
				return
			}
		}
		if a.P[i] != b.P[i] {
			tst.Errorf("rebuilt P differs at %d", i)
			return
		}
	}
}

func Test_spectral02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spectral02. closed-form values for order 1")

	ops := NewOperators(1)
	chk.Matrix(tst, "D", 1e-15, ops.D, [][]float64{{1.0 / 3.0}, {1.0 / 6.0}})
	chk.Matrix(tst, "K1", 1e-15, ops.K1, [][]float64{{2.0 / 3.0}, {1.0 / 3.0}})
	chk.Matrix(tst, "K2", 1e-15, ops.K2, [][]float64{{1}, {-1}})
	chk.Vector(tst, "P", 1e-15, ops.P, []float64{1, 0})

	// the boundary-evaluation vector picks the particle-interface node
	ops = NewOperators(2)
	chk.Vector(tst, "P (order 2)", 1e-14, ops.P, []float64{1, 0, 0})
}

func Test_spectral03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("spectral03. negative order panics at construction")

	defer func() {
		if r := recover(); r == nil {
			tst.Errorf("NewOperators(-1) should have panicked")
		}
	}()
	NewOperators(-1)
}
