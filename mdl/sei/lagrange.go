// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sei implements the solvent-diffusion limited SEI growth model
//  References:
//   [1] Safari et al. (2009) Multimodal Physics-Based Aging Model for Life
//       Prediction of Li-Ion Batteries. Journal of The Electrochemical
//       Society, 156 A145
package sei

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// polynomial helpers ///////////////////////////////////////////////////////////////////////////////
//
// polynomials are represented by slices of coefficients in ascending order;
// i.e. a = {a0, a1, a2} means a0 + a1·x + a2·x²

// polyVal evaluates a polynomial at x
func polyVal(x float64, a []float64) (res float64) {
	for i := len(a) - 1; i >= 0; i-- {
		res = res*x + a[i]
	}
	return
}

// polyMul multiplies two polynomials
func polyMul(a, b []float64) (res []float64) {
	res = make([]float64, len(a)+len(b)-1)
	for i := range a {
		for j := range b {
			res[i+j] += a[i] * b[j]
		}
	}
	return
}

// polyInt returns the antiderivative of a polynomial with zero constant term
func polyInt(a []float64) (res []float64) {
	res = make([]float64, len(a)+1)
	for i := range a {
		res[i+1] = a[i] / float64(i+1)
	}
	return
}

// polyDer returns the derivative of a polynomial
func polyDer(a []float64) (res []float64) {
	if len(a) < 2 {
		return []float64{0}
	}
	res = make([]float64, len(a)-1)
	for i := 1; i < len(a); i++ {
		res[i-1] = float64(i) * a[i]
	}
	return
}

// Lagrange basis ///////////////////////////////////////////////////////////////////////////////////

// Lagrange holds the nodal Lagrange polynomial basis of given order on the
// normalised film domain [0,1]. Node i sits at x = i/order
type Lagrange struct {
	Order int         // approximation order
	F     [][]float64 // F[i]: coefficients of the i-th nodal polynomial ℓi
	Df    [][]float64 // Df[i]: coefficients of dℓi/dx
	Xdf   [][]float64 // Xdf[i]: coefficients of x·dℓi/dx
}

// NewLagrange builds the nodal basis. Order must be non-negative
func NewLagrange(order int) (o *Lagrange) {
	if order < 0 {
		chk.Panic("Lagrange basis requires a non-negative order. order=%d is invalid", order)
	}
	o = new(Lagrange)
	o.Order = order
	o.F = make([][]float64, order+1)
	o.Df = make([][]float64, order+1)
	o.Xdf = make([][]float64, order+1)
	xs := utl.LinSpace(0, 1, order+1)
	for i := 0; i <= order; i++ {
		p := []float64{1}
		for j := 0; j <= order; j++ {
			if j == i {
				continue
			}
			den := xs[i] - xs[j]
			p = polyMul(p, []float64{-xs[j] / den, 1.0 / den})
		}
		o.F[i] = p
		o.Df[i] = polyDer(p)
		o.Xdf[i] = polyMul([]float64{0, 1}, o.Df[i])
	}
	return
}
