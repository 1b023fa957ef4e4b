// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package particle implements the per-node single-particle intercalation
// model: a radial diffusion problem with a Lagrange-multiplier surface
// constraint, solved once per macro node and active material each timestep
package particle

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

// Diffusivity defines solid-phase diffusivity laws. The law is evaluated in
// the surface-stoichiometry multiplier of the constrained problem; the
// Arrhenius temperature correction is applied by the caller
type Diffusivity interface {
	Init(prms dbf.Params) error // initialises the law from parameters
	Val(x float64) float64      // Val returns D(x)
	Deriv(x float64) float64    // Deriv returns dD/dx
}

// NewDiffusivity returns a diffusivity law
func NewDiffusivity(name string) (Diffusivity, error) {
	allocator, ok := allocators[name]
	if !ok {
		return nil, chk.Err("diffusivity law %q is not available in 'particle' database", name)
	}
	return allocator(), nil
}

// allocators holds all available diffusivity laws
var allocators = map[string]func() Diffusivity{}

// Dcte implements a constant diffusivity
type Dcte struct {
	val float64
}

// Dpoly implements a cubic polynomial law in the surface stoichiometry
//
//   D(x) = b0 + b1 x + b2 x² + b3 x³
//
type Dpoly struct {
	b0, b1, b2, b3 float64
}

// add laws to factory
func init() {
	allocators["cte"] = func() Diffusivity { return new(Dcte) }
	allocators["poly"] = func() Diffusivity { return new(Dpoly) }
}

// Init initialises the constant law
func (o *Dcte) Init(prms dbf.Params) (err error) {
	for _, p := range prms {
		if p.N == "ds" {
			o.val = p.V
		}
	}
	if o.val <= 0 {
		return chk.Err("constant diffusivity requires 'ds' > 0. ds=%g is invalid", o.val)
	}
	return
}

// Val returns D(x)
func (o *Dcte) Val(x float64) float64 { return o.val }

// Deriv returns dD/dx
func (o *Dcte) Deriv(x float64) float64 { return 0 }

// Init initialises the polynomial law
func (o *Dpoly) Init(prms dbf.Params) (err error) {
	for _, p := range prms {
		switch p.N {
		case "b0":
			o.b0 = p.V
		case "b1":
			o.b1 = p.V
		case "b2":
			o.b2 = p.V
		case "b3":
			o.b3 = p.V
		}
	}
	if o.b0 <= 0 {
		return chk.Err("polynomial diffusivity requires 'b0' > 0. b0=%g is invalid", o.b0)
	}
	return
}

// Val returns D(x)
func (o *Dpoly) Val(x float64) float64 {
	return o.b0 + o.b1*x + o.b2*x*x + o.b3*x*x*x
}

// Deriv returns dD/dx
func (o *Dpoly) Deriv(x float64) float64 {
	return o.b1 + 2.0*o.b2*x + 3.0*o.b3*x*x
}
