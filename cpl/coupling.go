// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package cpl implements the micro-macro coupling orchestrator: it drives,
// per timestep, the broadcast of macroscale fields down to the particle
// solves, the aggregation of particle-surface states back up, the
// degradation updates and the gated state roll-forward
package cpl

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"

	"github.com/battsim/gocell/mdl/lam"
	"github.com/battsim/gocell/mdl/particle"
	"github.com/battsim/gocell/mdl/sei"
)

// Inputs holds the per-node macroscale fields valid for one timestep
type Inputs struct {
	Ce   []float64 // electrolyte concentration
	PhiS []float64 // solid potential
	PhiE []float64 // electrolyte potential
	Temp []float64 // temperature
}

// Orchestrator couples the electrode-scale model with the per-node particle
// solves and the degradation side-models. One timestep runs the stages
//
//   BroadcastDown → SolveMicro → Aggregate → UpdateDegradation →
//   EstimateError → Commit | Reject
//
// Commit and Reject are gated by the caller (the enclosing macroscale
// Newton loop): the staged current generation is only promoted on Commit,
// so rejecting a step never mutates committed state
type Orchestrator struct {

	// collaborators
	Par *particle.Solver // particle diffusion solver (required)
	Sei *sei.Model       // SEI growth model, may be nil
	Lam *lam.Model       // loss-of-active-material model, may be nil

	// time filter parameters
	Nu  float64 // filter coefficient
	Tau float64 // timestep ratio

	// electrode state
	EpsS [][]float64 // evolving active-material volume fractions [nnod][nmat]

	// control
	ShowMsg bool // verbose messages

	// staged aggregates of the latest step
	csurf [][]float64
	flux  [][]float64

	phi   []float64 // φs − φe scratch
	nstep int       // accepted steps
}

// New returns an orchestrator. seiMdl and lamMdl may be nil to disable the
// respective degradation model
func New(par *particle.Solver, seiMdl *sei.Model, lamMdl *lam.Model) (o *Orchestrator, err error) {
	if par == nil {
		return nil, chk.Err("a particle solver is required")
	}
	o = &Orchestrator{Par: par, Sei: seiMdl, Lam: lamMdl, Nu: 1, Tau: 1}
	nnod := par.Sto.Nnod()
	o.EpsS = utl.Alloc(nnod, len(par.Mats))
	for n := 0; n < nnod; n++ {
		for m, mtl := range par.Mats {
			o.EpsS[n][m] = mtl.EpsS
		}
	}
	o.phi = make([]float64, nnod)
	return
}

// Step runs one timestep up to the error estimate. The caller inspects est
// (and the convergence of its own macroscale solve) and then either commits
// or rejects the step.
//  Output:
//   est -- time-filter consistency residual; zero until two steps committed
func (o *Orchestrator) Step(Δt float64, in *Inputs) (est float64, err error) {

	// broadcast macro → micro
	nnod := o.Par.Sto.Nnod()
	if len(in.PhiS) != nnod || len(in.PhiE) != nnod {
		return 0, chk.Err("potential arrays must have %d entries, one per macro node. {phis:%d, phie:%d} given", nnod, len(in.PhiS), len(in.PhiE))
	}
	for n := 0; n < nnod; n++ {
		o.phi[n] = in.PhiS[n] - in.PhiE[n]
	}
	err = o.Par.Broadcast(in.Ce, o.phi, in.Temp)
	if err != nil {
		return
	}

	// solve micro problems (parallel over nodes; barrier inside)
	err = o.Par.SolveTimestep(Δt)
	if err != nil {
		return
	}

	// aggregate micro → macro
	o.csurf = o.Par.SurfaceConcentration()
	o.flux = o.Par.SurfaceFlux()

	// degradation updates
	if o.Sei != nil {
		err = o.Sei.Update(Δt, in.PhiS, in.PhiE, in.Temp, o.flux)
		if err != nil {
			return
		}
	}
	if o.Lam != nil {
		err = o.Lam.Update(Δt, o.Par.AverageConcentration(false), o.csurf)
		if err != nil {
			return
		}
	}

	// error estimate
	est = o.Par.TimeFilterError(o.Nu, o.Tau)
	if o.ShowMsg {
		io.Pf("> step %d solved: %d nodes × %d materials, filter residual = %g\n", o.nstep+1, nnod, len(o.Par.Mats), est)
	}
	return
}

// Commit accepts the staged timestep: particle generations are promoted,
// the SEI state advances and the volume-fraction losses are accumulated.
// Must be called exactly once per accepted timestep
func (o *Orchestrator) Commit() {
	o.Par.Advance()
	if o.Sei != nil {
		o.Sei.Advance()
	}
	if o.Lam != nil {
		deps := o.Lam.DeltaEpsS()
		for n := range o.EpsS {
			for m := range o.EpsS[n] {
				o.EpsS[n][m] += deps[n][m]
			}
		}
		o.Lam.Clear()
	}
	o.nstep++
}

// Reject discards the staged timestep; committed state is left untouched.
// The caller is expected to retry with a smaller timestep
func (o *Orchestrator) Reject() {
	if o.Sei != nil {
		o.Sei.Reject()
	}
	if o.Lam != nil {
		o.Lam.Clear()
	}
	if o.ShowMsg {
		io.Pfyel("> step %d rejected\n", o.nstep+1)
	}
}

// accessors (pull-based persistence boundary) //////////////////////////////////////////////////////

// Nstep returns the number of accepted timesteps
func (o *Orchestrator) Nstep() int { return o.nstep }

// SurfaceConcentration returns the staged per-node, per-material surface
// concentration
func (o *Orchestrator) SurfaceConcentration() [][]float64 {
	if o.csurf == nil {
		return o.Par.SurfaceConcentration()
	}
	return o.csurf
}

// ReactionFlux returns the staged per-node, per-material intercalation flux
// consumed by the macroscale source terms
func (o *Orchestrator) ReactionFlux() [][]float64 {
	if o.flux == nil {
		return o.Par.SurfaceFlux()
	}
	return o.flux
}

// SEICurrent returns the staged SEI current density, or nil if the SEI
// model is disabled
func (o *Orchestrator) SEICurrent() [][]float64 {
	if o.Sei == nil {
		return nil
	}
	return o.Sei.Jsei()
}

// SEIThickness returns the staged SEI film thickness, or nil if the SEI
// model is disabled
func (o *Orchestrator) SEIThickness() [][]float64 {
	if o.Sei == nil {
		return nil
	}
	return o.Sei.Thickness()
}

// LithiumInventory returns the node-wise lithium content weighted by the
// evolving volume fractions; the series is meant for trapezoidal
// integration over the electrode thickness
func (o *Orchestrator) LithiumInventory() []float64 {
	return o.Par.LithiumInventory(o.EpsS)
}
