// Copyright 2026 The Gocell Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// FuncData holds function definition; e.g. an open-circuit voltage law
// evaluated in the surface stoichiometry
type FuncData struct {
	Name string     `json:"name"` // name of function. ex: ocv-graphite
	Type string     `json:"type"` // type of function. ex: cte, lin, pts
	Prms dbf.Params `json:"prms"` // parameters
}

// FuncsData holds functions
type FuncsData []*FuncData

// Get returns function by name
func (o FuncsData) Get(name string) (fcn dbf.T, err error) {
	for _, f := range o {
		if f.Name == name {
			fcn, err = dbf.New(f.Type, f.Prms)
			if err != nil {
				err = chk.Err("cannot get function named %q because of the following error:\n%v", name, err)
			}
			return
		}
	}
	err = chk.Err("cannot find function named %q", name)
	return
}

// String prints one function
func (o FuncData) String() string {
	return io.Sf("    {\"name\":%q, \"type\":%q, \"prms\":%v}", o.Name, o.Type, o.Prms)
}
