// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sei

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Operators holds the reduced spectral operators of the solvent
// diffusion-through-film sub-model. The (order+1)-mode Lagrange basis is
// projected with the last column eliminated, because the concentration at the
// film/electrolyte interface is imposed by the bulk solvent concentration.
//
// All entries are closed-form polynomial-product integrals evaluated at the
// domain endpoints; rebuilding with the same order yields bit-identical
// matrices
type Operators struct {
	Order int         // approximation order
	D     [][]float64 // (order+1)×order mass coupling
	K1    [][]float64 // (order+1)×order moving-boundary advective coupling
	K2    [][]float64 // (order+1)×order diffusive coupling
	P     []float64   // order+1 boundary-evaluation vector at the particle interface
}

// NewOperators builds the spectral operators for the given approximation
// order (default in the growth model is 2). A negative order is a programmer
// error and panics
func NewOperators(order int) (o *Operators) {
	if order < 0 {
		chk.Panic("spectral operators require a non-negative order. order=%d is invalid", order)
	}

	// basis
	bas := NewLagrange(order)
	n := order + 1

	// full (n×n) projections
	J := la.MatAlloc(n, n) // ℓi(0)·ℓj(0)
	H := la.MatAlloc(n, n) // ℓi'(1)·ℓj(1)
	K := la.MatAlloc(n, n) // ∫ ℓi·ℓj
	L := la.MatAlloc(n, n) // ∫ ℓi'·ℓj
	M := la.MatAlloc(n, n) // ∫ x·ℓi'·ℓj
	N := la.MatAlloc(n, n) // ∫ ℓi'·ℓj'
	o = new(Operators)
	o.Order = order
	o.P = make([]float64, n)
	for i := 0; i < n; i++ {
		o.P[i] = polyVal(0, bas.F[i])
		for j := 0; j < n; j++ {
			J[i][j] = polyVal(0, polyMul(bas.F[i], bas.F[j]))
			H[i][j] = polyVal(1, polyMul(bas.Df[i], bas.F[j]))
			K[i][j] = polyVal(1, polyInt(polyMul(bas.F[i], bas.F[j])))
			L[i][j] = polyVal(1, polyInt(polyMul(bas.Df[i], bas.F[j])))
			M[i][j] = polyVal(1, polyInt(polyMul(bas.Xdf[i], bas.F[j])))
			N[i][j] = polyVal(1, polyInt(polyMul(bas.Df[i], bas.Df[j])))
		}
	}

	// eliminate the film/electrolyte boundary mode (last column)
	o.D = la.MatAlloc(n, order)
	o.K1 = la.MatAlloc(n, order)
	o.K2 = la.MatAlloc(n, order)
	for i := 0; i < n; i++ {
		for j := 0; j < order; j++ {
			o.D[i][j] = K[i][j]
			o.K1[i][j] = L[i][j] - M[i][j] + J[i][j]
			o.K2[i][j] = N[i][j] - H[i][j]
		}
	}
	return
}
