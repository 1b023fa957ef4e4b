// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

func Test_mesh01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("mesh01. radial mesh and r²-weighted integral")

	if _, err := NewMesh(0); err == nil {
		tst.Errorf("NewMesh should have failed with ns=0")
		return
	}
	msh, err := NewMesh(4)
	if err != nil {
		tst.Errorf("NewMesh failed: %v\n", err)
		return
	}
	chk.Vector(tst, "x", 1e-15, msh.X, []float64{0, 0.25, 0.5, 0.75, 1})

	// ∫ r² dr = 1/3 and ∫ r³ dr = 1/4 (linear interpolant is exact for c = r)
	ones := []float64{1, 1, 1, 1, 1}
	chk.Scalar(tst, "∫r²dr", 1e-15, msh.RadialIntegral(ones), 1.0/3.0)
	chk.Scalar(tst, "∫r³dr", 1e-15, msh.RadialIntegral(msh.X), 1.0/4.0)
}

func Test_solver01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver01. allocation and pre-solve accessors")

	mtl := &Material{Name: "graphite"}
	err := mtl.Init("cte", testPrms(), zeroOcv(tst))
	if err != nil {
		tst.Errorf("Init failed: %v\n", err)
		return
	}
	sol, err := NewSolver([]*Material{mtl}, 3, 8)
	if err != nil {
		tst.Errorf("NewSolver failed: %v\n", err)
		return
	}
	chk.IntAssert(sol.Sto.Nnod(), 3)
	chk.IntAssert(sol.Sto.Ndof(), 9)

	// before any solve the accessors see the uniform initial fill
	csurf := sol.SurfaceConcentration()
	cavg := sol.AverageConcentration(true)
	for n := 0; n < 3; n++ {
		chk.Scalar(tst, "csurf", 1e-15, csurf[n][0], mtl.CsIni)
		chk.Scalar(tst, "cavg − csini", 1e-9, cavg[n][0], 0)
		chk.Scalar(tst, "λ", 1e-15, sol.Multiplier(n, 0), mtl.CsIni/mtl.CsMax)
	}

	// lithium inventory of the uniform fill: εs·csini/3 per node
	epsS := [][]float64{{0.55}, {0.55}, {0.55}}
	inv := sol.LithiumInventory(epsS)
	for n := 0; n < 3; n++ {
		chk.Scalar(tst, "inventory", 1e-9, inv[n], 0.55*mtl.CsIni/3.0)
	}
}

func Test_solver02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver02. equilibrium step preserves the uniform state")

	mtl := &Material{Name: "graphite"}
	err := mtl.Init("cte", testPrms(), zeroOcv(tst))
	if err != nil {
		tst.Errorf("Init failed: %v\n", err)
		return
	}
	sol, err := NewSolver([]*Material{mtl}, 2, 6)
	if err != nil {
		tst.Errorf("NewSolver failed: %v\n", err)
		return
	}

	// φ equals the OCV: zero overpotential, zero flux, nothing moves
	sol.Broadcast([]float64{1000, 1000}, []float64{0, 0}, []float64{298.15, 298.15})
	err = sol.SolveTimestep(1.0)
	if err != nil {
		tst.Errorf("SolveTimestep failed: %v\n", err)
		return
	}
	cur := sol.Sto.Current()
	for n := 0; n < 2; n++ {
		for d := 0; d < sol.Sto.Ndof(); d++ {
			chk.Scalar(tst, "c (equilibrium)", 1e-10, cur[n][0][d], mtl.CsIni)
		}
	}

	// invalid timestep
	if err := sol.SolveTimestep(0); err == nil {
		tst.Errorf("SolveTimestep should have failed with Δt=0")
		return
	}
}

func Test_solver03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver03. galvanostatic-like delithiation transient")

	mtl := &Material{Name: "graphite"}
	err := mtl.Init("cte", testPrms(), zeroOcv(tst))
	if err != nil {
		tst.Errorf("Init failed: %v\n", err)
		return
	}
	sol, err := NewSolver([]*Material{mtl}, 3, 8)
	if err != nil {
		tst.Errorf("NewSolver failed: %v\n", err)
		return
	}
	sol.Broadcast([]float64{1000, 1000, 1000}, []float64{0.05, 0.05, 0.05}, []float64{298.15, 298.15, 298.15})

	// positive overpotential extracts lithium: the surface concentration and
	// the particle average must decrease monotonically and stay positive
	epsS := [][]float64{{0.55}, {0.55}, {0.55}}
	csurf0 := mtl.CsIni
	cavg0 := mtl.CsIni
	inv0 := sol.LithiumInventory(epsS)[0]
	for i := 0; i < 10; i++ {
		err = sol.SolveTimestep(1.0)
		if err != nil {
			tst.Errorf("SolveTimestep failed: %v\n", err)
			return
		}
		csurf := sol.SurfaceConcentration()[0][0]
		cavg := sol.AverageConcentration(false)[0][0]
		inv := sol.LithiumInventory(epsS)[0]
		flux := sol.SurfaceFlux()[0][0]
		io.Pf("step %2d: csurf=%8.3f cavg=%8.3f j=%11.4e\n", i+1, csurf, cavg, flux)
		if csurf <= 0 || csurf >= csurf0 {
			tst.Errorf("surface concentration must decrease and stay positive: %g → %g", csurf0, csurf)
			return
		}
		if cavg >= cavg0 {
			tst.Errorf("average concentration must decrease: %g → %g", cavg0, cavg)
			return
		}
		if inv >= inv0 {
			tst.Errorf("lithium inventory must decrease: %g → %g", inv0, inv)
			return
		}
		if flux <= 0 {
			tst.Errorf("delithiation flux must stay positive. j=%g", flux)
			return
		}
		csurf0, cavg0, inv0 = csurf, cavg, inv
		sol.Advance()
	}

	// all nodes see the same inputs, so all particles evolved identically
	csurf := sol.SurfaceConcentration()
	chk.Scalar(tst, "node symmetry", 1e-12, csurf[1][0], csurf[0][0])
	chk.Scalar(tst, "node symmetry", 1e-12, csurf[2][0], csurf[0][0])

	// the constraint ties the multiplier to the surface stoichiometry
	chk.Scalar(tst, "λ", 1e-10, sol.Multiplier(0, 0), csurf[0][0]/mtl.CsMax)
}

func Test_solver04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver04. Jacobian vs central differences")

	// the polynomial law makes the diffusivity depend on the multiplier,
	// exercising the off-diagonal D-coupling column
	prms := testPrms()
	prms = append(prms, &dbf.P{N: "b0", V: 3.9e-14}, &dbf.P{N: "b1", V: 2e-14})
	mtl := &Material{Name: "graphite"}
	err := mtl.Init("poly", prms, zeroOcv(tst))
	if err != nil {
		tst.Errorf("Init failed: %v\n", err)
		return
	}
	sol, err := NewSolver([]*Material{mtl}, 1, 4)
	if err != nil {
		tst.Errorf("NewSolver failed: %v\n", err)
		return
	}
	sol.Broadcast([]float64{1000}, []float64{0.05}, []float64{298.15})

	// non-uniform iterate
	ndof := sol.Sto.Ndof()
	ntot := ndof + 1
	w := newScratch(ntot)
	for d := 0; d < ndof; d++ {
		w.u[d] = 500.0 - 20.0*float64(d)
	}
	w.u[ndof] = w.u[ndof-1] / mtl.CsMax
	cprev := sol.Sto.Prev()[0][0]

	sol.assemble(w, mtl, cprev, 1000, 0.05, 298.15, 1.0)
	Kana := la.MatAlloc(ntot, ntot)
	for i := 0; i < ntot; i++ {
		copy(Kana[i], w.K[i])
	}

	rp := make([]float64, ntot)
	rm := make([]float64, ntot)
	for k := 0; k < ntot; k++ {
		h := 1e-6 * (1.0 + math.Abs(w.u[k]))
		save := w.u[k]
		w.u[k] = save + h
		sol.assemble(w, mtl, cprev, 1000, 0.05, 298.15, 1.0)
		copy(rp, w.r)
		w.u[k] = save - h
		sol.assemble(w, mtl, cprev, 1000, 0.05, 298.15, 1.0)
		copy(rm, w.r)
		w.u[k] = save
		for i := 0; i < ntot; i++ {
			chk.Scalar(tst, io.Sf("K[%d][%d]", i, k), 1e-8, Kana[i][k], (rp[i]-rm[i])/(2.0*h))
		}
	}
}
