// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
	"gonum.org/v1/gonum/floats"
)

// Store implements the 3-dimensional particle state database
// (macro-node × active-material × radial-dof). Three generations are
// retained in a triple-buffer arena with an explicit rotating slot index:
// current, previous and previous-previous; the last two feed the
// second-order time-filter error estimate.
//
// The store also owns the scalar inputs broadcast down from the macroscale,
// one entry per macro node, valid for the current timestep
type Store struct {

	// dimensions
	nnod, nmat, ndof int

	// generation arena
	gens [3][][][]float64 // generation slots [nnod][nmat][ndof]
	cur  int              // slot index of the current generation
	nacc int              // number of accepted (committed) timesteps

	// broadcast inputs
	Ce   []float64 // electrolyte concentration per node
	Phi  []float64 // overpotential-driving potential per node
	Temp []float64 // temperature per node

	// scratch
	buf []float64 // time-filter workspace
}

// NewStore allocates the state database
func NewStore(nnod, nmat, ndof int) (o *Store, err error) {
	if nnod < 1 || nmat < 1 || ndof < 2 {
		return nil, chk.Err("invalid state database dimensions: nnod=%d, nmat=%d, ndof=%d", nnod, nmat, ndof)
	}
	o = &Store{nnod: nnod, nmat: nmat, ndof: ndof}
	for k := 0; k < 3; k++ {
		o.gens[k] = utl.Deep3alloc(nnod, nmat, ndof)
	}
	o.Ce = make([]float64, nnod)
	o.Phi = make([]float64, nnod)
	o.Temp = make([]float64, nnod)
	o.buf = make([]float64, nnod*nmat*ndof)
	return
}

// dimensions
func (o *Store) Nnod() int { return o.nnod }
func (o *Store) Nmat() int { return o.nmat }
func (o *Store) Ndof() int { return o.ndof }

// Current returns the current generation
func (o *Store) Current() [][][]float64 { return o.gens[o.cur] }

// Prev returns the previous generation
func (o *Store) Prev() [][][]float64 { return o.gens[(o.cur+2)%3] }

// PrevPrev returns the twice-previous generation
func (o *Store) PrevPrev() [][][]float64 { return o.gens[(o.cur+1)%3] }

// Committed returns the number of accepted timesteps
func (o *Store) Committed() int { return o.nacc }

// Fill fills all three generations with one uniform value per material.
// The length of cini must match the number of active materials
func (o *Store) Fill(cini []float64) (err error) {
	if len(cini) != o.nmat {
		return chk.Err("initial concentration list must have %d values, one per active material. %d given", o.nmat, len(cini))
	}
	for k := 0; k < 3; k++ {
		for n := 0; n < o.nnod; n++ {
			for m := 0; m < o.nmat; m++ {
				la.VecFill(o.gens[k][n][m], cini[m])
			}
		}
	}
	return
}

// Broadcast stores the macroscale inputs for the current timestep. Each
// array must have one entry per macro node
func (o *Store) Broadcast(ce, phi, temp []float64) (err error) {
	if len(ce) != o.nnod || len(phi) != o.nnod || len(temp) != o.nnod {
		return chk.Err("broadcast arrays must have %d entries, one per macro node. {ce:%d, phi:%d, temp:%d} given", o.nnod, len(ce), len(phi), len(temp))
	}
	copy(o.Ce, ce)
	copy(o.Phi, phi)
	copy(o.Temp, temp)
	return
}

// Advance promotes the generations after an accepted timestep:
// previous-previous ← previous, previous ← current. The recycled slot
// becomes the new current generation and is seeded with the previous one so
// that accessors remain valid before the next solve. Must be called exactly
// once per accepted timestep
func (o *Store) Advance() {
	o.cur = (o.cur + 1) % 3
	cur, prev := o.Current(), o.Prev()
	for n := 0; n < o.nnod; n++ {
		for m := 0; m < o.nmat; m++ {
			copy(cur[n][m], prev[n][m])
		}
	}
	o.nacc++
}

// TimeFilterError returns the norm of the second-order time-filter
// consistency residual
//
//   ν·( cur/(1+τ) − prev + τ·prevprev/(1+τ) )
//
// It is a step-size control signal for the caller; with fewer than two
// committed timesteps there is no meaningful history and zero is returned
func (o *Store) TimeFilterError(nu, tau float64) float64 {
	if o.nacc < 2 {
		return 0
	}
	cur, prev, pp := o.Current(), o.Prev(), o.PrevPrev()
	i := 0
	for n := 0; n < o.nnod; n++ {
		for m := 0; m < o.nmat; m++ {
			for d := 0; d < o.ndof; d++ {
				o.buf[i] = nu * (cur[n][m][d]/(1.0+tau) - prev[n][m][d] + tau*pp[n][m][d]/(1.0+tau))
				i++
			}
		}
	}
	return floats.Norm(o.buf, 2)
}
