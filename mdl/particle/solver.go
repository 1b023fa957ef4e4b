// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import (
	"math"
	"runtime"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Solver owns one discretised radial diffusion problem per active material
// and solves it for every macro node each timestep. The weak form is the
// intercalation equation on the normalised radius r ∈ [0,1], weighted by r²
// and discretised with implicit Euler in time
//
//   ∫ (c − c0)/Δt · r²·v dr + ∫ (Ds/Rs²) · r²·∇c·∇v dr + (1/Rs)·jLi·v |r=1 = 0
//
// plus a scalar Lagrange-multiplier row tying the multiplier to the
// normalised surface concentration
//
//   λ − c(1)/cmax = 0
//
// The diffusivity law is evaluated in λ, which makes the system fully
// coupled; each (node, material) pair is an independent Newton solve
type Solver struct {

	// input
	Mats  []*Material // active materials
	Sto   *Store      // state database (exclusively owned)
	Alpha float64     // charge-transfer coefficient
	Tol   float64     // absolute residual tolerance
	MaxIt int         // Newton iteration budget
	Nwrk  int         // number of parallel workers over macro nodes

	// discretisation
	Msh *Mesh // radial mesh, shared by all materials

	// multiplier values from the latest solve [nnod][nmat]
	lm [][]float64
}

// NewSolver allocates the solver and its state database.
//  Input:
//   mats -- active materials (at least one)
//   nnod -- number of macro nodes
//   ns   -- number of radial elements per particle
func NewSolver(mats []*Material, nnod, ns int) (o *Solver, err error) {
	if len(mats) < 1 {
		return nil, chk.Err("at least one active material is required")
	}
	o = new(Solver)
	o.Mats = mats
	o.Alpha = 0.5
	o.Tol = 1e-6
	o.MaxIt = 20
	o.Nwrk = runtime.NumCPU()
	o.Msh, err = NewMesh(ns)
	if err != nil {
		return nil, err
	}
	o.Sto, err = NewStore(nnod, len(mats), ns+1)
	if err != nil {
		return nil, err
	}
	o.lm = utl.Alloc(nnod, len(mats))
	err = o.SetInitial(nil)
	return
}

// SetInitial fills all three generations with uniform concentrations, one
// value per material. A nil list selects each material's csini
func (o *Solver) SetInitial(cini []float64) (err error) {
	if cini == nil {
		cini = make([]float64, len(o.Mats))
		for m, mtl := range o.Mats {
			cini[m] = mtl.CsIni
		}
	}
	err = o.Sto.Fill(cini)
	if err != nil {
		return
	}
	for n := 0; n < o.Sto.Nnod(); n++ {
		for m, mtl := range o.Mats {
			o.lm[n][m] = cini[m] / mtl.CsMax
		}
	}
	return
}

// Broadcast stores the macroscale inputs for the current timestep
func (o *Solver) Broadcast(ce, phi, temp []float64) error {
	return o.Sto.Broadcast(ce, phi, temp)
}

// SolveTimestep solves the constrained diffusion problem of every
// (node, material) pair and writes the results into the current generation.
// Pairs are independent; nodes are distributed over parallel workers and
// Wait provides the barrier before aggregation may run.
//
// A pair failing to converge within the iteration budget aborts the whole
// timestep; no partial result is committed
func (o *Solver) SolveTimestep(Δt float64) (err error) {
	if Δt <= 0 {
		return chk.Err("timestep must be positive. Δt=%g is invalid", Δt)
	}
	nnod := o.Sto.Nnod()
	nw := o.Nwrk
	if nw < 1 {
		nw = 1
	}
	if nw > nnod {
		nw = nnod
	}
	csize := (nnod + nw - 1) / nw
	var eg errgroup.Group
	for iw := 0; iw < nw; iw++ {
		n0 := iw * csize
		n1 := n0 + csize
		if n1 > nnod {
			n1 = nnod
		}
		if n0 >= n1 {
			break
		}
		eg.Go(func() error {
			w := newScratch(o.Msh.Ns + 2)
			for n := n0; n < n1; n++ {
				for m := range o.Mats {
					if e := o.solveOne(w, n, m, Δt); e != nil {
						return e
					}
				}
			}
			return nil
		})
	}
	return eg.Wait()
}

// Advance promotes the state generations after an accepted timestep
func (o *Solver) Advance() {
	o.Sto.Advance()
}

// TimeFilterError returns the second-order time-filter consistency residual
func (o *Solver) TimeFilterError(nu, tau float64) float64 {
	return o.Sto.TimeFilterError(nu, tau)
}

// accessors ////////////////////////////////////////////////////////////////////////////////////////

// SurfaceConcentration returns the per-node, per-material concentration at
// r=1 of the current generation. Before any solve this is the initial fill
func (o *Solver) SurfaceConcentration() (csurf [][]float64) {
	cur := o.Sto.Current()
	ndof := o.Sto.Ndof()
	csurf = utl.Alloc(o.Sto.Nnod(), len(o.Mats))
	for n := 0; n < o.Sto.Nnod(); n++ {
		for m := range o.Mats {
			csurf[n][m] = cur[n][m][ndof-1]
		}
	}
	return
}

// SurfaceFlux returns the per-node, per-material Butler–Volmer flux
// evaluated at the current surface concentration and the broadcast inputs.
// This is the aggregate consumed by the macroscale source terms and by the
// SEI film-overpotential term
func (o *Solver) SurfaceFlux() (flux [][]float64) {
	cur := o.Sto.Current()
	ndof := o.Sto.Ndof()
	flux = utl.Alloc(o.Sto.Nnod(), len(o.Mats))
	for n := 0; n < o.Sto.Nnod(); n++ {
		for m, mtl := range o.Mats {
			j, _ := mtl.Flux(cur[n][m][ndof-1], o.Sto.Ce[n], o.Sto.Phi[n], o.Sto.Temp[n], o.Alpha)
			flux[n][m] = j
		}
	}
	return
}

// AverageConcentration returns the r²-weighted volumetric average
// concentration per node and material. With subtractIni, the increment
// relative to the initial fill is returned instead
func (o *Solver) AverageConcentration(subtractIni bool) (cavg [][]float64) {
	cur := o.Sto.Current()
	cavg = utl.Alloc(o.Sto.Nnod(), len(o.Mats))
	for n := 0; n < o.Sto.Nnod(); n++ {
		for m, mtl := range o.Mats {
			cavg[n][m] = 3.0 * o.Msh.RadialIntegral(cur[n][m])
			if subtractIni {
				cavg[n][m] -= mtl.CsIni
			}
		}
	}
	return
}

// LithiumInventory returns the node-wise lithium content
// Σm εs·∫r²·c dr of the current generation, given the evolving
// volume-fraction field. The series is meant for trapezoidal integration
// over the electrode thickness by the caller
func (o *Solver) LithiumInventory(epsS [][]float64) (inv []float64) {
	cur := o.Sto.Current()
	inv = make([]float64, o.Sto.Nnod())
	for n := 0; n < o.Sto.Nnod(); n++ {
		for m := range o.Mats {
			inv[n] += epsS[n][m] * o.Msh.RadialIntegral(cur[n][m])
		}
	}
	return
}

// Multiplier returns the Lagrange multiplier of the latest solve
func (o *Solver) Multiplier(n, m int) float64 { return o.lm[n][m] }

// nonlinear solve //////////////////////////////////////////////////////////////////////////////////

// scratch holds per-worker workspace for the Newton iterations
type scratch struct {
	u    []float64   // iterate: ndof concentrations plus the multiplier
	r    []float64   // residual
	K    [][]float64 // Jacobian
	flat []float64   // row-major copy of K for the dense solve
	du   []float64   // Newton correction
}

func newScratch(ntot int) *scratch {
	return &scratch{
		u:    make([]float64, ntot),
		r:    make([]float64, ntot),
		K:    la.MatAlloc(ntot, ntot),
		flat: make([]float64, ntot*ntot),
		du:   make([]float64, ntot),
	}
}

// solveOne runs the Newton iteration of one (node, material) pair, using the
// previous generation as initial guess and the broadcast inputs of node n
func (o *Solver) solveOne(w *scratch, n, m int, Δt float64) (err error) {
	mtl := o.Mats[m]
	ce, phi, T := o.Sto.Ce[n], o.Sto.Phi[n], o.Sto.Temp[n]
	cprev := o.Sto.Prev()[n][m]
	ndof := o.Sto.Ndof()
	ntot := ndof + 1

	// initial guess from previous generation
	copy(w.u[:ndof], cprev)
	w.u[ndof] = cprev[ndof-1] / mtl.CsMax

	// iterations
	var res float64
	for it := 0; it < o.MaxIt; it++ {

		// residual and Jacobian
		o.assemble(w, mtl, cprev, ce, phi, T, Δt)
		res = la.VecNorm(w.r)
		if math.IsNaN(res) {
			return chk.Err("particle solve diverged at node %d, material %q (NaN residual at iteration %d)", n, mtl.Name, it)
		}
		if res < o.Tol {

			// range check: a converged state with negative concentration is a
			// modelling inconsistency, not something to clamp
			for d := 0; d < ndof; d++ {
				if w.u[d] < 0 {
					return chk.Err("negative concentration at node %d, material %q, radial dof %d: c=%g", n, mtl.Name, d, w.u[d])
				}
			}
			copy(o.Sto.Current()[n][m], w.u[:ndof])
			o.lm[n][m] = w.u[ndof]
			return nil
		}

		// linear solve: K·δ = r, then u ← u − δ
		for i := 0; i < ntot; i++ {
			copy(w.flat[i*ntot:(i+1)*ntot], w.K[i])
		}
		A := mat.NewDense(ntot, ntot, w.flat)
		b := mat.NewVecDense(ntot, w.r)
		x := mat.NewVecDense(ntot, w.du)
		var lu mat.LU
		lu.Factorize(A)
		if e := lu.SolveVecTo(x, false, b); e != nil {
			return chk.Err("singular particle Jacobian at node %d, material %q: %v", n, mtl.Name, e)
		}
		for i := 0; i < ntot; i++ {
			w.u[i] -= w.du[i]
		}
	}
	return chk.Err("particle solve did not converge at node %d, material %q: residual=%g after %d iterations", n, mtl.Name, res, o.MaxIt)
}

// assemble computes the residual and Jacobian at the current iterate
func (o *Solver) assemble(w *scratch, mtl *Material, cprev []float64, ce, phi, T, Δt float64) {

	// clear
	ndof := o.Sto.Ndof()
	la.MatFill(w.K, 0)
	la.VecFill(w.r, 0)

	// diffusivity at the current multiplier
	lm := w.u[ndof]
	D, dDdlm := mtl.Dval(lm, T)
	cD := D / (mtl.Rs * mtl.Rs)
	cdD := dDdlm / (mtl.Rs * mtl.Rs)

	// element loop
	h := o.Msh.H
	var S, G [2]float64
	G[0], G[1] = -1.0/h, 1.0/h
	for e := 0; e < o.Msh.Ns; e++ {
		a, b := e, e+1
		for _, ip := range ips {
			ξ := ip[0]
			S[0], S[1] = 1.0-ξ, ξ
			r := o.Msh.X[e] + ξ*h
			r2 := r * r
			coef := h * ip[1]
			cip := S[0]*w.u[a] + S[1]*w.u[b]
			cip0 := S[0]*cprev[a] + S[1]*cprev[b]
			gc := G[0]*w.u[a] + G[1]*w.u[b]
			for i, gi := range []int{a, b} {
				w.r[gi] += coef * (S[i]*r2*(cip-cip0)/Δt + cD*r2*gc*G[i])
				w.K[gi][ndof] += coef * cdD * r2 * gc * G[i]
				for k, gk := range []int{a, b} {
					w.K[gi][gk] += coef * (S[i]*S[k]*r2/Δt + cD*r2*G[i]*G[k])
				}
			}
		}
	}

	// surface flux term (r² = 1 at the surface)
	j, djdcs := mtl.Flux(w.u[ndof-1], ce, phi, T, o.Alpha)
	w.r[ndof-1] += j / mtl.Rs
	w.K[ndof-1][ndof-1] += djdcs / mtl.Rs

	// multiplier constraint row
	w.r[ndof] = lm - w.u[ndof-1]/mtl.CsMax
	w.K[ndof][ndof] = 1.0
	w.K[ndof][ndof-1] = -1.0 / mtl.CsMax
}
