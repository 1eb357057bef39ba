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
	"fmt"
	"strings"
)

// Get returns the named variable with the coordinates that apply to it.
// Names that are not variables are resolved as virtual variables.
func (ds *Dataset) Get(name string) (*DataArray, error) {
	v, ok := ds.variables.Get(name)
	if !ok {
		var err error
		if _, v, err = getVirtual(ds.variables, name); err != nil {
			return nil, err
		}
	}
	dims := newStringSet(v.dims...)
	coords := NewVariables()
	ds.variables.Each(func(cn string, c *Variable) {
		if !ds.coordNames.has(cn) {
			return
		}
		for _, d := range c.dims {
			if !dims.has(d) {
				return
			}
		}
		coords.Set(cn, c)
	})
	return &DataArray{name: name, variable: v, coords: coords}, nil
}

// Select returns a dataset holding the named variables, which may be
// virtual, and every coordinate that applies to them. Global attributes
// are kept.
func (ds *Dataset) Select(names ...string) (*Dataset, error) {
	vars := NewVariables()
	coordNames := newStringSet()
	for _, n := range names {
		if v, ok := ds.variables.Get(n); ok {
			vars.Set(n, v)
			continue
		}
		ref, v, err := getVirtual(ds.variables, n)
		if err != nil {
			return nil, err
		}
		vars.Set(n, v)
		if ds.coordNames.has(ref) {
			coordNames.add(n)
		}
	}
	needed := newStringSet()
	vars.Each(func(_ string, v *Variable) { needed.add(v.dims...) })
	ds.variables.Each(func(cn string, c *Variable) {
		if !ds.coordNames.has(cn) {
			return
		}
		for _, d := range c.dims {
			if !needed.has(d) {
				return
			}
		}
		vars.Set(cn, c)
		coordNames.add(cn)
	})
	return newDataset(vars, coordNames, ds.attrs.Copy())
}

// Delete removes the named variable from ds. If name is a dimension, every
// variable that uses it is removed too.
func (ds *Dataset) Delete(name string) error {
	if !ds.variables.Has(name) {
		return fmt.Errorf("variable %q: %w", name, ErrUnknownName)
	}
	next, err := ds.dropVars([]string{name})
	if err != nil {
		return err
	}
	ds.commit(next)
	return nil
}

// DropVars returns a dataset without the named variables and without any
// variable that uses one of the names as a dimension.
func (ds *Dataset) DropVars(names ...string) (*Dataset, error) {
	if err := ds.assertAllIn(names); err != nil {
		return nil, err
	}
	return ds.dropVars(names)
}

func (ds *Dataset) dropVars(names []string) (*Dataset, error) {
	drop := newStringSet(names...)
	vars := NewVariables()
	ds.variables.Each(func(name string, v *Variable) {
		if drop.has(name) {
			return
		}
		for _, d := range v.dims {
			if drop.has(d) {
				return
			}
		}
		vars.Set(name, v)
	})
	return ds.replace(vars, nil)
}

// Rename returns a dataset with variables and dimensions renamed according
// to names, which maps old names to new ones.
func (ds *Dataset) Rename(names map[string]string) (*Dataset, error) {
	for k := range names {
		if !ds.variables.Has(k) {
			return nil, fmt.Errorf("cannot rename %q because it is not a variable in this dataset: %w", k, ErrUnknownName)
		}
	}
	vars := NewVariables()
	coordNames := newStringSet()
	var err error
	ds.variables.Each(func(k string, v *Variable) {
		if err != nil {
			return
		}
		name := k
		if n, ok := names[k]; ok {
			name = n
		}
		if vars.Has(name) {
			err = fmt.Errorf("renaming %q to %q: the name is already used: %w", k, name, ErrConflict)
			return
		}
		vars.Set(name, v.renameDims(names))
		if ds.coordNames.has(k) {
			coordNames.add(name)
		}
	})
	if err != nil {
		return nil, err
	}
	return ds.replace(vars, coordNames)
}

// Transpose returns a dataset whose variables have their dimensions in the
// given order. The dimensions must be a permutation of the dataset
// dimensions. Without arguments the dimensions of every variable are
// reversed.
func (ds *Dataset) Transpose(dims ...string) (*Dataset, error) {
	if len(dims) > 0 {
		given := newStringSet(dims...)
		ok := len(given) == len(dims) && len(given) == len(ds.dims)
		for d := range ds.dims {
			ok = ok && given.has(d)
		}
		if !ok {
			return nil, fmt.Errorf("arguments to Transpose (%s) must be permuted dataset dimensions (%s): %w",
				strings.Join(dims, ", "), strings.Join(ds.DimNames(), ", "), ErrInvalidInput)
		}
	}
	vars := NewVariables()
	var err error
	ds.variables.Each(func(name string, v *Variable) {
		if err != nil {
			return
		}
		var order []string
		for _, d := range dims {
			if indexOf(v.dims, d) >= 0 {
				order = append(order, d)
			}
		}
		var t *Variable
		t, err = v.Transpose(order...)
		vars.Set(name, t)
	})
	if err != nil {
		return nil, err
	}
	return ds.replace(vars, nil)
}

// Squeeze returns a dataset without the given dimensions, which must have
// size one. Without arguments every dimension of size one is removed.
func (ds *Dataset) Squeeze(dims ...string) (*Dataset, error) {
	if len(dims) == 0 {
		for _, d := range ds.DimNames() {
			if ds.dims[d] == 1 {
				dims = append(dims, d)
			}
		}
	}
	sel := make(map[string]Selector, len(dims))
	for _, d := range dims {
		s, ok := ds.dims[d]
		if !ok {
			return nil, fmt.Errorf("dimension %q does not exist: %w", d, ErrUnknownName)
		}
		if s != 1 {
			return nil, fmt.Errorf("cannot squeeze dimension %q of size %d: %w", d, s, ErrShape)
		}
		sel[d] = At(0)
	}
	return ds.Isel(sel)
}

// DropHow selects which labels DropNA removes.
type DropHow int

const (
	// DropAny removes labels with any missing value.
	DropAny DropHow = iota
	// DropAll removes labels whose values are all missing.
	DropAll
)

// DropNA returns a dataset without the labels along dim that have missing
// values in the variables of subset, by default every data variable. If
// thresh is positive it takes precedence over how, and labels with fewer
// than thresh valid values are removed.
func (ds *Dataset) DropNA(dim string, how DropHow, thresh int, subset ...string) (*Dataset, error) {
	n, ok := ds.dims[dim]
	if !ok {
		return nil, fmt.Errorf("%q must be a single dataset dimension: %w", dim, ErrUnknownName)
	}
	if len(subset) == 0 {
		subset = ds.DataVars().Names()
	} else if err := ds.assertAllIn(subset); err != nil {
		return nil, err
	}
	count := make([]int, n)
	size := 0
	for _, name := range subset {
		v, _ := ds.variables.Get(name)
		if indexOf(v.dims, dim) < 0 {
			continue
		}
		c, err := v.count(dim)
		if err != nil {
			return nil, err
		}
		for i := range count {
			count[i] += c[i]
		}
		other := 1
		for i, d := range v.dims {
			if d != dim {
				other *= v.shape[i]
			}
		}
		size += other
	}
	mask := make(Mask, n)
	for i, c := range count {
		switch {
		case thresh > 0:
			mask[i] = c >= thresh
		case how == DropAny:
			mask[i] = c == size
		case how == DropAll:
			mask[i] = c > 0
		default:
			return nil, fmt.Errorf("invalid how option %d: %w", how, ErrInvalidInput)
		}
	}
	return ds.Isel(map[string]Selector{dim: mask})
}
