// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

// physical constants
const (
	Faraday = 96485.33289 // Faraday constant [C/mol]
	Rgas    = 8.3144598   // universal gas constant [J/(mol·K)]
)

// Arrhenius returns the temperature correction factor
//
//   exp( Ea/R · (1/Tref − 1/T) )
//
func Arrhenius(Ea, Tref, T float64) float64 {
	return math.Exp(Ea / Rgas * (1.0/Tref - 1.0/T))
}

// Material holds the immutable physical parameters of one active material.
// Lifetime equals the simulation run
type Material struct {

	// input
	Name   string  // name of material
	CsMax  float64 // maximum solid concentration [mol/m³]
	CsIni  float64 // initial solid concentration [mol/m³]
	Rs     float64 // particle radius [m]
	EpsS   float64 // initial volume fraction of active material
	K0     float64 // reaction rate constant
	K0Ea   float64 // reaction rate activation energy [J/mol]
	K0Tref float64 // reaction rate reference temperature [K]
	DsEa   float64 // diffusivity activation energy [J/mol]
	DsTref float64 // diffusivity reference temperature [K]

	// derived
	Dif Diffusivity // solid-phase diffusivity law
	U   dbf.T       // open-circuit voltage vs stoichiometry
}

// Init initialises the material. dmodel selects the diffusivity law
// ("cte" or "poly"); ocv is the open-circuit voltage law
func (o *Material) Init(dmodel string, prms dbf.Params, ocv dbf.T) (err error) {
	for _, p := range prms {
		switch p.N {
		case "csmax":
			o.CsMax = p.V
		case "csini":
			o.CsIni = p.V
		case "rs":
			o.Rs = p.V
		case "epss":
			o.EpsS = p.V
		case "k0":
			o.K0 = p.V
		case "k0ea":
			o.K0Ea = p.V
		case "k0tref":
			o.K0Tref = p.V
		case "dsea":
			o.DsEa = p.V
		case "dstref":
			o.DsTref = p.V
		}
	}
	if o.CsMax <= 0 || o.Rs <= 0 || o.K0Tref <= 0 || o.DsTref <= 0 {
		return chk.Err("material %q: {csmax=%g, rs=%g, k0tref=%g, dstref=%g} must be all > 0", o.Name, o.CsMax, o.Rs, o.K0Tref, o.DsTref)
	}
	if o.CsIni < 0 || o.CsIni > o.CsMax {
		return chk.Err("material %q: csini=%g must be within [0, csmax=%g]", o.Name, o.CsIni, o.CsMax)
	}
	if ocv == nil {
		return chk.Err("material %q: an OCV function is required", o.Name)
	}
	o.U = ocv
	o.Dif, err = NewDiffusivity(dmodel)
	if err != nil {
		return
	}
	return o.Dif.Init(prms)
}

// Dval returns the Arrhenius-corrected diffusivity and its derivative with
// respect to the surface-stoichiometry multiplier
func (o *Material) Dval(x, T float64) (D, dDdx float64) {
	ar := Arrhenius(o.DsEa, o.DsTref, T)
	return o.Dif.Val(x) * ar, o.Dif.Deriv(x) * ar
}

// Flux computes the Butler–Volmer intercalation flux and its derivative with
// respect to the solid surface concentration
//
//   keff = k0 · exp( Ea/R · (1/Tref − 1/T) )
//   i0   = keff · ce^α · (cmax − cs)^α · cs^α
//   η    = φ − U(cs/cmax)
//   j    = i0 · ( exp(αFη/RT) − exp(−αFη/RT) )
//
func (o *Material) Flux(cs, ce, phi, T, alpha float64) (j, djdcs float64) {
	x := cs / o.CsMax
	eta := phi - o.U.F(x, nil)
	detadcs := -o.U.G(x, nil) / o.CsMax
	keff := o.K0 * Arrhenius(o.K0Ea, o.K0Tref, T)
	cea := math.Pow(ce, alpha)
	da := math.Pow(o.CsMax-cs, alpha)
	ca := math.Pow(cs, alpha)
	i0 := keff * cea * da * ca
	di0dcs := keff * cea * alpha * (da*math.Pow(cs, alpha-1.0) - math.Pow(o.CsMax-cs, alpha-1.0)*ca)
	a := alpha * Faraday / (Rgas * T)
	ep, em := math.Exp(a*eta), math.Exp(-a*eta)
	j = i0 * (ep - em)
	djdcs = di0dcs*(ep-em) + i0*a*(ep+em)*detadcs
	return
}
