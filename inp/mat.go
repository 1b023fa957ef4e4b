// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input database of materials, degradation
// layers and pointwise function laws
package inp

import (
	"encoding/json"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"

	"github.com/battsim/gocell/mdl/lam"
	"github.com/battsim/gocell/mdl/particle"
	"github.com/battsim/gocell/mdl/sei"
)

// Material holds material data
type Material struct {

	// input
	Name  string     `json:"name"`  // name of material
	Type  string     `json:"type"`  // type of material; "particle", "sei" or "lam"
	Model string     `json:"model"` // name of model; e.g. diffusivity law "cte" or "poly" for particles
	Ocv   string     `json:"ocv"`   // name of open-circuit voltage function (particles only)
	Prms  dbf.Params `json:"prms"`  // prms holds all model parameters for this material

	// derived
	Particle *particle.Material // pointer to actual particle material
	Mech     *lam.Mech          // mechanical constants of particle materials
	SeiPrms  *sei.Params        // pointer to actual SEI layer parameters
	LamPrms  dbf.Params         // cracking parameters for the LAM model
}

// MatsData holds materials
type MatsData []*Material

// MatDb implements a database of materials
type MatDb struct {

	// input
	Functions FuncsData `json:"functions"` // all functions
	Materials MatsData  `json:"materials"` // all materials

	// derived (configuration faults surface here, never at solve time)
	Particles []*Material // subset, in input order: active materials
	Sei       *Material   // SEI layer entry, may be nil
	Lam       *Material   // LAM entry, may be nil
}

// ReadMat reads all materials data from a .mat JSON file
func ReadMat(dir, fn string) (mdb *MatDb, err error) {

	// read file
	mdb = new(MatDb)
	b, err := io.ReadFile(filepath.Join(dir, fn))
	if err != nil {
		return nil, err
	}

	// decode
	err = json.Unmarshal(b, mdb)
	if err != nil {
		return nil, err
	}

	// subsets
	for _, m := range mdb.Materials {
		switch m.Type {
		case "particle":
			mdb.Particles = append(mdb.Particles, m)
		case "sei":
			if mdb.Sei != nil {
				return nil, chk.Err("more than one SEI layer entry in materials database")
			}
			mdb.Sei = m
		case "lam":
			if mdb.Lam != nil {
				return nil, chk.Err("more than one LAM entry in materials database")
			}
			mdb.Lam = m
		default:
			return nil, chk.Err("material type %q is incorrect; options are \"particle\", \"sei\" and \"lam\"", m.Type)
		}
	}
	if len(mdb.Particles) < 1 {
		return nil, chk.Err("at least one active material of type \"particle\" is required")
	}

	// alloc/init: particles
	for _, m := range mdb.Particles {
		ocv, e := mdb.Functions.Get(m.Ocv)
		if e != nil {
			return nil, chk.Err("material %q: %v", m.Name, e)
		}
		m.Particle = &particle.Material{Name: m.Name}
		err = m.Particle.Init(m.Model, m.Prms, ocv)
		if err != nil {
			return nil, err
		}
		m.Mech = new(lam.Mech)
		err = m.Mech.Init(m.Prms)
		if err != nil {
			return nil, chk.Err("material %q: %v", m.Name, err)
		}
	}

	// init: SEI layer
	if mdb.Sei != nil {
		mdb.Sei.SeiPrms = new(sei.Params)
		err = mdb.Sei.SeiPrms.Init(mdb.Sei.Prms)
		if err != nil {
			return nil, err
		}
	}

	// init: LAM
	if mdb.Lam != nil {
		mdb.Lam.LamPrms = mdb.Lam.Prms
	}
	return
}

// ParticleMats returns the active materials in input order
func (o *MatDb) ParticleMats() (mats []*particle.Material) {
	for _, m := range o.Particles {
		mats = append(mats, m.Particle)
	}
	return
}

// MechMats returns the mechanical constants in input order
func (o *MatDb) MechMats() (mats []*lam.Mech) {
	for _, m := range o.Particles {
		mats = append(mats, m.Mech)
	}
	return
}

// Get returns a material
//  Note: returns nil if not found
func (o *MatDb) Get(name string) *Material {
	for _, mat := range o.Materials {
		if mat.Name == name {
			return mat
		}
	}
	return nil
}

// String prints materials
func (o MatsData) String() string {
	l := "  \"materials\" : [\n"
	for i, m := range o {
		if i > 0 {
			l += ",\n"
		}
		l += io.Sf("    {\"name\":%q, \"type\":%q, \"model\":%q}", m.Name, m.Type, m.Model)
	}
	l += "\n  ]"
	return l
}
