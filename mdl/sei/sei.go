// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sei

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
	"gonum.org/v1/gonum/mat"

	"github.com/battsim/gocell/mdl/particle"
)

// Params holds the immutable parameters of the SEI layer
type Params struct {
	Kf     float64 // solvent reduction rate constant
	U      float64 // SEI reaction equilibrium potential [V]
	Beta   float64 // cathodic symmetry factor
	Rfilm  float64 // ohmic resistance of the pristine interface [Ω·m²]
	Kappa  float64 // SEI ionic conductivity [S/m]
	Mw     float64 // SEI molar mass [kg/mol]
	Rho    float64 // SEI density [kg/m³]
	DEC    float64 // solvent diffusivity through the film [m²/s]
	CECsln float64 // bulk solvent concentration [mol/m³]
	Eps    float64 // SEI porosity
	Delta0 float64 // initial film thickness [m]
}

// Init initialises the parameters
func (o *Params) Init(prms dbf.Params) (err error) {
	for _, p := range prms {
		switch p.N {
		case "kf":
			o.Kf = p.V
		case "u":
			o.U = p.V
		case "beta":
			o.Beta = p.V
		case "rfilm":
			o.Rfilm = p.V
		case "kappa":
			o.Kappa = p.V
		case "mw":
			o.Mw = p.V
		case "rho":
			o.Rho = p.V
		case "dec":
			o.DEC = p.V
		case "cec":
			o.CECsln = p.V
		case "eps":
			o.Eps = p.V
		case "delta0":
			o.Delta0 = p.V
		}
	}
	if o.Kappa <= 0 || o.Rho <= 0 || o.Mw <= 0 || o.Delta0 <= 0 {
		return chk.Err("invalid SEI parameters: {kappa=%g, rho=%g, mw=%g, delta0=%g} must be all > 0", o.Kappa, o.Rho, o.Mw, o.Delta0)
	}
	return
}

// Model maintains, per (node, material), the SEI current density, the film
// thickness and the solvent-concentration mode vector of the spectral
// solvent-diffusion sub-model. Growth is limited by solvent transport
// through the film
//
//   dδ/dt = j·M/(2·F·ρ)       (implicit Euler, j ≥ 0 grows the film)
//
// with j solved implicitly from the reduction kinetics
//
//   j = F·kf·c0 · exp( −βF·η/(R·T) ),   η = φs − φe − U − J·(Rf + δ/κ)
//
// and the modes from the reduced operators with the effective stiffness
//
//   K = (1/δ)·(dδ/dt)·K1 + (1/δ²)·DEC·K2
//
// closed at the film/electrolyte boundary by the porosity-scaled bulk
// solvent concentration. Everything is mutually dependent, so the 2+order
// unknowns per pair are solved together by Newton iteration
type Model struct {

	// input
	Par   Params     // layer parameters
	Ops   *Operators // spectral operators (read-only shared state)
	Tol   float64    // absolute residual tolerance
	MaxIt int        // Newton iteration budget

	// dimensions
	nnod, nmat, order int

	// state: staged (current) and committed (previous)
	jcur, jprev [][]float64   // SEI current density
	dcur, dprev [][]float64   // film thickness
	gcur, gprev [][][]float64 // solvent modes [nnod][nmat][order]

	// scratch
	x, r, du, flat []float64
	A              [][]float64
}

// NewModel allocates the growth model. order is the approximation order of
// the inner spectral model (use 2 unless studying convergence)
func NewModel(nnod, nmat, order int, prms dbf.Params) (o *Model, err error) {
	if nnod < 1 || nmat < 1 {
		return nil, chk.Err("invalid SEI model dimensions: nnod=%d, nmat=%d", nnod, nmat)
	}
	o = new(Model)
	err = o.Par.Init(prms)
	if err != nil {
		return nil, err
	}
	o.Ops = NewOperators(order)
	o.Tol = 1e-8
	o.MaxIt = 30
	o.nnod, o.nmat, o.order = nnod, nmat, order
	o.jcur = utl.Alloc(nnod, nmat)
	o.jprev = utl.Alloc(nnod, nmat)
	o.dcur = utl.Alloc(nnod, nmat)
	o.dprev = utl.Alloc(nnod, nmat)
	o.gcur = utl.Deep3alloc(nnod, nmat, order)
	o.gprev = utl.Deep3alloc(nnod, nmat, order)
	ntot := 2 + order
	o.x = make([]float64, ntot)
	o.r = make([]float64, ntot)
	o.du = make([]float64, ntot)
	o.flat = make([]float64, ntot*ntot)
	o.A = la.MatAlloc(ntot, ntot)
	o.InitialState()
	return
}

// InitialState resets both buffers to the very first step: film at the
// configured initial thickness, a constant solvent profile at the
// porosity-scaled bulk concentration, no current. With no previous
// thickness there are no dynamics; this is the pure initial-condition
// identity
func (o *Model) InitialState() {
	c0 := o.Par.CECsln * o.Par.Eps
	for n := 0; n < o.nnod; n++ {
		for m := 0; m < o.nmat; m++ {
			o.jcur[n][m], o.jprev[n][m] = 0, 0
			o.dcur[n][m], o.dprev[n][m] = o.Par.Delta0, o.Par.Delta0
			la.VecFill(o.gcur[n][m], c0)
			la.VecFill(o.gprev[n][m], c0)
		}
	}
}

// Update stages the SEI state of the next time level for every
// (node, material) pair.
//  Input:
//   Δt         -- timestep
//   phis, phie -- solid and electrolyte potential per node
//   temp       -- temperature per node
//   J          -- total intercalation flux per node and material
func (o *Model) Update(Δt float64, phis, phie, temp []float64, J [][]float64) (err error) {
	if len(phis) != o.nnod || len(phie) != o.nnod || len(temp) != o.nnod || len(J) != o.nnod {
		return chk.Err("SEI update arrays must have %d entries, one per macro node. {phis:%d, phie:%d, temp:%d, J:%d} given", o.nnod, len(phis), len(phie), len(temp), len(J))
	}
	for n := 0; n < o.nnod; n++ {
		for m := 0; m < o.nmat; m++ {
			err = o.updateOne(n, m, Δt, phis[n], phie[n], temp[n], J[n][m])
			if err != nil {
				return
			}
		}
	}
	return
}

// Advance promotes the staged state after an accepted timestep
func (o *Model) Advance() {
	for n := 0; n < o.nnod; n++ {
		for m := 0; m < o.nmat; m++ {
			o.jprev[n][m] = o.jcur[n][m]
			o.dprev[n][m] = o.dcur[n][m]
			copy(o.gprev[n][m], o.gcur[n][m])
		}
	}
}

// Reject discards the staged state after a rejected timestep
func (o *Model) Reject() {
	for n := 0; n < o.nnod; n++ {
		for m := 0; m < o.nmat; m++ {
			o.jcur[n][m] = o.jprev[n][m]
			o.dcur[n][m] = o.dprev[n][m]
			copy(o.gcur[n][m], o.gprev[n][m])
		}
	}
}

// Jsei returns the staged SEI current density per node and material
func (o *Model) Jsei() [][]float64 { return o.jcur }

// Thickness returns the staged film thickness per node and material
func (o *Model) Thickness() [][]float64 { return o.dcur }

// Modes returns the staged solvent mode vector of one pair
func (o *Model) Modes(n, m int) []float64 { return o.gcur[n][m] }

// updateOne solves the coupled {j, δ, modes} system of one pair by Newton
// iteration on the residual
//
//   R0 = j − F·kf·c0·exp(−βFη/(RT))
//   R1 = (δ − δ0)/Δt − j·M/(2Fρ)
//   Rg = Σi D[i][g]·(ci − ci0)/Δt + Σi K[i][g]·ci + (j/(F·δ))·P[g]
//
// where the last basis coefficient is the known porosity-scaled bulk
// concentration
func (o *Model) updateOne(n, m int, Δt, phis, phie, T, J float64) (err error) {

	// aliases
	k := o.order
	ntot := 2 + k
	F := particle.Faraday
	δ0 := o.dprev[n][m]
	cb := o.Par.CECsln * o.Par.Eps

	// initial guess from committed state
	o.x[0] = o.jprev[n][m]
	o.x[1] = δ0
	copy(o.x[2:], o.gprev[n][m])

	var res float64
	for it := 0; it < o.MaxIt; it++ {

		// current iterate
		j, δ := o.x[0], o.x[1]
		la.MatFill(o.A, 0)
		la.VecFill(o.r, 0)

		// kinetics residual: mode 0 of the solvent profile drives the
		// exchange current; with order 0 the profile is the boundary value
		c0 := cb
		if k > 0 {
			c0 = o.x[2]
		}
		eta := phis - phie - o.Par.U - J*(o.Par.Rfilm+δ/o.Par.Kappa)
		ex := math.Exp(-o.Par.Beta * F * eta / (particle.Rgas * T))
		o.r[0] = j - F*o.Par.Kf*c0*ex
		o.A[0][0] = 1.0
		o.A[0][1] = -F * o.Par.Kf * c0 * ex * (o.Par.Beta * F * J) / (particle.Rgas * T * o.Par.Kappa)
		if k > 0 {
			o.A[0][2] = -F * o.Par.Kf * ex
		}

		// growth residual
		grw := o.Par.Mw / (2.0 * F * o.Par.Rho)
		o.r[1] = (δ-δ0)/Δt - j*grw
		o.A[1][0] = -grw
		o.A[1][1] = 1.0 / Δt

		// spectral solvent transport residuals
		dδdt := (δ - δ0) / Δt
		for g := 0; g < k; g++ {
			for i := 0; i <= k; i++ {
				ci, ci0 := cb, cb
				if i < k {
					ci, ci0 = o.x[2+i], o.gprev[n][m][i]
				}
				Kig := dδdt/δ*o.Ops.K1[i][g] + o.Par.DEC/(δ*δ)*o.Ops.K2[i][g]
				o.r[2+g] += o.Ops.D[i][g]*(ci-ci0)/Δt + Kig*ci
				o.A[2+g][1] += ci * (δ0/(Δt*δ*δ)*o.Ops.K1[i][g] - 2.0*o.Par.DEC/(δ*δ*δ)*o.Ops.K2[i][g])
				if i < k {
					o.A[2+g][2+i] = o.Ops.D[i][g]/Δt + Kig
				}
			}
			o.r[2+g] += j / (F * δ) * o.Ops.P[g]
			o.A[2+g][0] += o.Ops.P[g] / (F * δ)
			o.A[2+g][1] -= j * o.Ops.P[g] / (F * δ * δ)
		}

		// convergence
		res = la.VecNorm(o.r)
		if math.IsNaN(res) {
			return chk.Err("SEI solve diverged at node %d, material %d (NaN residual at iteration %d)", n, m, it)
		}
		if res < o.Tol {

			// the film must not shrink nor vanish: dissolution is not
			// modelled, so a violation signals solver divergence and is
			// reported instead of clamped
			if o.x[1] <= 0 {
				return chk.Err("non-positive SEI thickness at node %d, material %d: delta=%g", n, m, o.x[1])
			}
			if o.x[1] < δ0 {
				return chk.Err("shrinking SEI thickness at node %d, material %d: delta=%g < %g", n, m, o.x[1], δ0)
			}
			o.jcur[n][m] = o.x[0]
			o.dcur[n][m] = o.x[1]
			copy(o.gcur[n][m], o.x[2:])
			return nil
		}

		// linear solve: A·δx = r, then x ← x − δx
		for i := 0; i < ntot; i++ {
			copy(o.flat[i*ntot:(i+1)*ntot], o.A[i])
		}
		Am := mat.NewDense(ntot, ntot, o.flat)
		bv := mat.NewVecDense(ntot, o.r)
		xv := mat.NewVecDense(ntot, o.du)
		var lu mat.LU
		lu.Factorize(Am)
		if e := lu.SolveVecTo(xv, false, bv); e != nil {
			return chk.Err("singular SEI Jacobian at node %d, material %d: %v", n, m, e)
		}
		for i := 0; i < ntot; i++ {
			o.x[i] -= o.du[i]
		}
	}
	return chk.Err("SEI solve did not converge at node %d, material %d: residual=%g after %d iterations", n, m, res, o.MaxIt)
}
