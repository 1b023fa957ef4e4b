// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package lam implements the loss-of-active-material model: particle
// cracking driven by intercalation-induced hydrostatic stress
//  References:
//   [1] Zhang, Shyy & Sastry (2007) Numerical Simulation of
//       Intercalation-Induced Stress in Li-Ion Battery Electrode Particles.
//       Journal of The Electrochemical Society, 154 A910
//   [2] Reniers, Mulder & Howey (2019) Review and Performance Comparison of
//       Mechanical-Chemical Degradation Models for Lithium-Ion Batteries.
//       Journal of The Electrochemical Society, 166 A3189
package lam

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/utl"
)

// Mech holds the mechanical constants of one active material
type Mech struct {
	Omega      float64 // partial molar volume [m³/mol]
	Young      float64 // Young modulus [Pa]
	Poisson    float64 // Poisson ratio
	CritStress float64 // critical stress for cracking [Pa]
	Mexp       float64 // cracking exponent
}

// Init initialises the mechanical constants
func (o *Mech) Init(prms dbf.Params) (err error) {
	for _, p := range prms {
		switch p.N {
		case "omega":
			o.Omega = p.V
		case "young":
			o.Young = p.V
		case "poisson":
			o.Poisson = p.V
		case "sigmac":
			o.CritStress = p.V
		case "mexp":
			o.Mexp = p.V
		}
	}
	if o.Poisson < 0 || o.Poisson >= 0.5 {
		return chk.Err("Poisson ratio must be within [0, 0.5). poisson=%g is invalid", o.Poisson)
	}
	if o.Mexp <= 0 {
		o.Mexp = 2 // common choice in the stress-cracking literature
	}
	return
}

// Model computes the incremental active-material-fraction loss per
// (node, material) from the hydrostatic stress
//
//   σh = (2/9)·Ω·E/(1−ν)·(3·c̄ − csurf)
//
// Only tensile stress contributes; between cycles the particle is assumed
// to relax to a stress-free state, so σh ≤ 0 yields exactly zero loss.
// Increments are staged here and accumulated into the electrode
// volume-fraction field by the orchestrator on commit
type Model struct {

	// input
	Beta float64 // cracking rate constant [1/s]
	Mats []*Mech // mechanical constants per active material

	// staged increments [nnod][nmat]
	deps [][]float64
}

// NewModel allocates the model
func NewModel(nnod int, mats []*Mech, prms dbf.Params) (o *Model, err error) {
	if nnod < 1 || len(mats) < 1 {
		return nil, chk.Err("invalid LAM model dimensions: nnod=%d, nmat=%d", nnod, len(mats))
	}
	o = &Model{Mats: mats}
	for m, mech := range mats {
		if mech.CritStress <= 0 {
			return nil, chk.Err("critical stress of material %d must be positive. sigmac=%g is invalid", m, mech.CritStress)
		}
	}
	for _, p := range prms {
		if p.N == "beta" {
			o.Beta = p.V
		}
	}
	if o.Beta < 0 {
		return nil, chk.Err("cracking rate constant must be non-negative. beta=%g is invalid", o.Beta)
	}
	o.deps = utl.Alloc(nnod, len(mats))
	return
}

// HydroStress returns the hydrostatic stress of material m given the
// particle-average and surface concentrations
func (o *Model) HydroStress(cavg, csurf float64, m int) float64 {
	mech := o.Mats[m]
	return 2.0 / 9.0 * mech.Omega * mech.Young / (1.0 - mech.Poisson) * (3.0*cavg - csurf)
}

// Update stages the volume-fraction loss increments of one timestep
func (o *Model) Update(Δt float64, cavg, csurf [][]float64) (err error) {
	if len(cavg) != len(o.deps) || len(csurf) != len(o.deps) {
		return chk.Err("LAM update arrays must have %d entries, one per macro node. {cavg:%d, csurf:%d} given", len(o.deps), len(cavg), len(csurf))
	}
	for n := range o.deps {
		for m, mech := range o.Mats {
			σh := o.HydroStress(cavg[n][m], csurf[n][m], m)
			if σh <= 0 { // compressive stress makes no contribution
				o.deps[n][m] = 0
				continue
			}
			o.deps[n][m] = -Δt * o.Beta * math.Pow(σh/mech.CritStress, mech.Mexp)
		}
	}
	return
}

// DeltaEpsS returns the staged volume-fraction increments
func (o *Model) DeltaEpsS() [][]float64 { return o.deps }

// Clear zeroes the staged increments (after commit or rejection)
func (o *Model) Clear() {
	for n := range o.deps {
		for m := range o.deps[n] {
			o.deps[n][m] = 0
		}
	}
}
