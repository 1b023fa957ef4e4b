// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// Mesh holds the radial discretisation of the normalised particle domain
// [0,1] with linear elements. Node Ns (at r=1) is the particle surface
type Mesh struct {
	Ns int       // number of elements
	H  float64   // element size
	X  []float64 // nodal coordinates [Ns+1]
}

// NewMesh returns a uniform radial mesh with ns elements
func NewMesh(ns int) (o *Mesh, err error) {
	if ns < 1 {
		return nil, chk.Err("radial mesh requires at least one element. ns=%d is invalid", ns)
	}
	o = &Mesh{Ns: ns, H: 1.0 / float64(ns)}
	o.X = utl.LinSpace(0, 1, ns+1)
	return
}

// integration points on the unit element: {ξ, weight}. The 3-point Gauss rule
// is exact for the r²-weighted bilinear products of the weak form
var ips = [3][2]float64{
	{0.5 - math.Sqrt(0.6)/2.0, 5.0 / 18.0},
	{0.5, 8.0 / 18.0},
	{0.5 + math.Sqrt(0.6)/2.0, 5.0 / 18.0},
}

// RadialIntegral computes ∫ r²·c dr over [0,1] for a nodal field c
func (o *Mesh) RadialIntegral(c []float64) (res float64) {
	for e := 0; e < o.Ns; e++ {
		for _, ip := range ips {
			r := o.X[e] + ip[0]*o.H
			cip := (1.0-ip[0])*c[e] + ip[0]*c[e+1]
			res += o.H * ip[1] * r * r * cip
		}
	}
	return
}
