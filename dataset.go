/*
Copyright © 2024 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package dset

import (
	"bytes"
	"fmt"
	"sort"
)

// Dataset is a collection of variables that share dimensions, some of
// which are flagged as coordinates.
type Dataset struct {
	variables  *Variables
	coordNames stringSet
	dims       map[string]int
	attrs      Attributes
	store      Store
}

// NewDataset creates a dataset from data variables, coordinates and
// global attributes. DataArray inputs are aligned against each other with
// an outer join, and values given for the same name more than once must
// agree after broadcasting.
func NewDataset(vars, coords []Input, attrs Attributes) (*Dataset, error) {
	names := newStringSet()
	for _, in := range vars {
		names.add(in.Name)
	}
	var redundant []string
	for _, in := range coords {
		if names.has(in.Name) {
			redundant = append(redundant, in.Name)
		}
	}
	if len(redundant) > 0 {
		return nil, fmt.Errorf("redundant variables and coordinates: %v: %w", redundant, ErrConflict)
	}
	raw := make([]Input, 0, len(vars)+len(coords))
	raw = append(raw, vars...)
	raw = append(raw, coords...)
	raw, err := alignInputs(raw, Outer)
	if err != nil {
		return nil, err
	}
	newVars, coordNames, err := expandVariables(raw, nil, BroadcastEquals)
	if err != nil {
		return nil, err
	}
	for _, in := range coords {
		coordNames.add(in.Name)
	}
	return newDataset(newVars, coordNames, attrs.Copy())
}

// newDataset is the constructor for already normalized variables. The new
// dataset holds its own headers for the variables in vars, sharing their
// values copy-on-write, so writing to a derived dataset leaves its source
// unchanged. The dimension table is computed, default coordinates are
// added for dimensions without a variable, and coordNames is restricted to
// names that exist.
func newDataset(vars *Variables, coordNames stringSet, attrs Attributes) (*Dataset, error) {
	vars = vars.shared()
	dims, err := calculateDims(vars)
	if err != nil {
		return nil, err
	}
	defaults := defaultCoords(dims, vars)
	vars.Update(defaults)
	cn := newStringSet(defaults.Names()...)
	for n := range coordNames {
		if vars.Has(n) {
			cn.add(n)
		}
	}
	return &Dataset{
		variables:  vars,
		coordNames: cn,
		dims:       dims,
		attrs:      attrs,
	}, nil
}

// replace returns a dataset with the given variables and the attributes of
// ds. If coordNames is nil the coordinate names of ds are kept.
func (ds *Dataset) replace(vars *Variables, coordNames stringSet) (*Dataset, error) {
	if coordNames == nil {
		coordNames = ds.coordNames
	}
	return newDataset(vars, coordNames, ds.attrs.Copy())
}

// commit makes the state of o the state of ds. The store of ds is kept.
func (ds *Dataset) commit(o *Dataset) {
	ds.variables = o.variables
	ds.coordNames = o.coordNames
	ds.dims = o.dims
	ds.attrs = o.attrs
}

// Copy returns a copy of ds. A shallow copy shares variable values until
// one of the copies is written to; a deep copy duplicates them.
func (ds *Dataset) Copy(deep bool) (*Dataset, error) {
	vars := NewVariables()
	var err error
	ds.variables.Each(func(name string, v *Variable) {
		if err != nil {
			return
		}
		var c *Variable
		c, err = v.Copy(deep)
		vars.Set(name, c)
	})
	if err != nil {
		return nil, err
	}
	dims := make(map[string]int, len(ds.dims))
	for d, s := range ds.dims {
		dims[d] = s
	}
	return &Dataset{
		variables:  vars,
		coordNames: ds.coordNames.copy(),
		dims:       dims,
		attrs:      ds.attrs.Copy(),
	}, nil
}

// Variables returns the variables of ds, coordinates included. The
// returned variables share values with ds until either is written to.
func (ds *Dataset) Variables() *Variables { return ds.variables.shared() }

// Names returns the names of all variables in order.
func (ds *Dataset) Names() []string { return ds.variables.Names() }

// Len returns the number of variables.
func (ds *Dataset) Len() int { return ds.variables.Len() }

// Contains returns whether name is a variable of ds. Virtual variables are
// not included.
func (ds *Dataset) Contains(name string) bool { return ds.variables.Has(name) }

// Variable returns the named variable.
func (ds *Dataset) Variable(name string) (*Variable, error) {
	v, ok := ds.variables.Get(name)
	if !ok {
		return nil, fmt.Errorf("variable %q: %w", name, ErrUnknownName)
	}
	return v, nil
}

// Dims returns the size of each dimension.
func (ds *Dataset) Dims() map[string]int {
	o := make(map[string]int, len(ds.dims))
	for d, s := range ds.dims {
		o[d] = s
	}
	return o
}

// DimNames returns the dimension names in sorted order.
func (ds *Dataset) DimNames() []string { return sortedDims(ds.dims) }

// Coords returns the coordinate variables in order.
func (ds *Dataset) Coords() *Variables {
	o := NewVariables()
	ds.variables.Each(func(name string, v *Variable) {
		if ds.coordNames.has(name) {
			o.Set(name, v)
		}
	})
	return o
}

// CoordNames returns the coordinate names in variable order.
func (ds *Dataset) CoordNames() []string { return ds.Coords().Names() }

// DataVars returns the variables that are not coordinates, in order.
func (ds *Dataset) DataVars() *Variables {
	o := NewVariables()
	ds.variables.Each(func(name string, v *Variable) {
		if !ds.coordNames.has(name) {
			o.Set(name, v)
		}
	})
	return o
}

// Attrs returns the global attributes.
func (ds *Dataset) Attrs() Attributes { return ds.attrs }

// SetAttrs replaces the global attributes.
func (ds *Dataset) SetAttrs(attrs Attributes) { ds.attrs = attrs.Copy() }

// Indexes returns the label index of every dimension.
func (ds *Dataset) Indexes() (map[string]*Index, error) {
	o := make(map[string]*Index, len(ds.dims))
	for d := range ds.dims {
		v, ok := ds.variables.Get(d)
		if !ok {
			return nil, fmt.Errorf("dimension %q has no coordinate: %w", d, ErrUnknownName)
		}
		ix, err := indexFromVariable(d, v)
		if err != nil {
			return nil, err
		}
		o[d] = ix
	}
	return o, nil
}

func (ds *Dataset) indexes() (map[string]*Index, error) { return ds.Indexes() }

func (ds *Dataset) reindexed(targets map[string]*Index) (alignable, error) {
	return ds.reindex(targets, NoFill, false)
}

// Load reads the values of every lazily loaded variable into memory.
func (ds *Dataset) Load() error {
	for _, n := range ds.variables.Names() {
		v, _ := ds.variables.Get(n)
		if err := v.Load(); err != nil {
			return fmt.Errorf("loading %q: %w", n, err)
		}
	}
	return nil
}

// SetCoords returns a copy of ds in which the named variables are
// coordinates.
func (ds *Dataset) SetCoords(names ...string) (*Dataset, error) {
	if err := ds.assertAllIn(names); err != nil {
		return nil, err
	}
	o, err := ds.Copy(false)
	if err != nil {
		return nil, err
	}
	o.coordNames.add(names...)
	return o, nil
}

// ResetCoords returns a copy of ds in which the named coordinates are data
// variables, or are removed if drop is set. Without names, every
// coordinate that is not an index is reset. Index coordinates cannot be
// reset.
func (ds *Dataset) ResetCoords(drop bool, names ...string) (*Dataset, error) {
	if len(names) == 0 {
		for _, n := range ds.CoordNames() {
			if _, ok := ds.dims[n]; !ok {
				names = append(names, n)
			}
		}
	} else {
		if err := ds.assertAllIn(names); err != nil {
			return nil, err
		}
		var bad []string
		for _, n := range names {
			if _, ok := ds.dims[n]; ok {
				bad = append(bad, n)
			}
		}
		if len(bad) > 0 {
			return nil, fmt.Errorf("cannot remove index coordinates with ResetCoords: %v: %w", bad, ErrInvalidInput)
		}
	}
	o, err := ds.Copy(false)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		delete(o.coordNames, n)
		if drop {
			o.variables.Delete(n)
		}
	}
	return o, nil
}

func (ds *Dataset) assertAllIn(names []string) error {
	var bad []string
	for _, n := range names {
		if !ds.variables.Has(n) {
			bad = append(bad, n)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("variables %v are not in the dataset: %w", bad, ErrUnknownName)
	}
	return nil
}

// Equals returns whether ds and o have the same coordinate names and equal
// variables. Variable order is ignored.
func (ds *Dataset) Equals(o *Dataset) bool {
	return ds.allCompat(o, Equals)
}

// Identical returns whether ds and o are equal and all of their attributes
// match, global attributes included.
func (ds *Dataset) Identical(o *Dataset) bool {
	return ds.attrs.Equal(o.attrs) && ds.allCompat(o, Identical)
}

func (ds *Dataset) allCompat(o *Dataset, compat Compat) bool {
	if o == nil || !ds.coordNames.equal(o.coordNames) || ds.variables.Len() != o.variables.Len() {
		return false
	}
	for _, n := range ds.variables.Names() {
		a, _ := ds.variables.Get(n)
		b, ok := o.variables.Get(n)
		if !ok {
			return false
		}
		eq, err := a.compare(b, compat)
		if err != nil || !eq {
			return false
		}
	}
	return true
}

// String returns a summary of the dimensions, coordinates, data variables
// and attributes of ds.
func (ds *Dataset) String() string {
	b := new(bytes.Buffer)
	b.WriteString("<dset.Dataset>\nDimensions:")
	for _, d := range ds.DimNames() {
		fmt.Fprintf(b, " (%s: %d)", d, ds.dims[d])
	}
	b.WriteString("\nCoordinates:\n")
	ds.Coords().Each(func(name string, v *Variable) {
		marker := " "
		if _, ok := ds.dims[name]; ok {
			marker = "*"
		}
		fmt.Fprintf(b, "  %s %-10s %v\n", marker, name, v)
	})
	b.WriteString("Data variables:\n")
	ds.DataVars().Each(func(name string, v *Variable) {
		fmt.Fprintf(b, "    %-10s %v\n", name, v)
	})
	if len(ds.attrs) > 0 {
		b.WriteString("Attributes:\n")
		for _, a := range ds.attrs {
			fmt.Fprintf(b, "    %s: %v\n", a.Name, a.Value)
		}
	}
	return b.String()
}

// sortedNames returns the members of s in sorted order.
func sortedNames(s stringSet) []string {
	o := make([]string, 0, len(s))
	for n := range s {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}
