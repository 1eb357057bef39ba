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

	"github.com/ctessum/sparse"
)

// DataArray is a single named variable together with its coordinates.
// Every dimension of the variable has an index coordinate.
type DataArray struct {
	name     string
	variable *Variable
	coords   *Variables
}

// NewDataArray creates a DataArray. Coordinates must only use dimensions
// of v with matching sizes. Dimensions without an index coordinate get a
// default integer range.
func NewDataArray(name string, v *Variable, coords []Input) (*DataArray, error) {
	if v == nil {
		return nil, fmt.Errorf("data array %q has no variable: %w", name, ErrInvalidInput)
	}
	cv := NewVariables()
	for _, in := range coords {
		c, err := asDatasetVariable(in.Name, in.Value)
		if err != nil {
			return nil, err
		}
		cv.Set(in.Name, c)
	}
	return newDataArray(name, v, cv)
}

func newDataArray(name string, v *Variable, coords *Variables) (*DataArray, error) {
	all := coords.Copy()
	all.Set("\x00"+name, v)
	dims, err := calculateDims(all)
	if err != nil {
		return nil, err
	}
	var err2 error
	coords.Each(func(cn string, c *Variable) {
		for _, d := range c.dims {
			if indexOf(v.dims, d) < 0 && err2 == nil {
				err2 = fmt.Errorf("coordinate %q has dimension %q which is not a dimension of %q: %w",
					cn, d, name, ErrShape)
			}
		}
	})
	if err2 != nil {
		return nil, err2
	}
	o := coords.Copy()
	for _, d := range v.dims {
		if !o.Has(d) {
			o.Set(d, rangeVariable(d, dims[d]))
		}
	}
	return &DataArray{name: name, variable: v, coords: o}, nil
}

// Name returns the name of da.
func (da *DataArray) Name() string { return da.name }

// Variable returns the variable of da.
func (da *DataArray) Variable() *Variable { return da.variable }

// Coords returns the coordinates of da.
func (da *DataArray) Coords() *Variables { return da.coords.Copy() }

// Dims returns the dimensions of the variable of da.
func (da *DataArray) Dims() []string { return da.variable.Dims() }

// Shape returns the shape of the variable of da.
func (da *DataArray) Shape() []int { return da.variable.Shape() }

// Attrs returns the attributes of the variable of da.
func (da *DataArray) Attrs() Attributes { return da.variable.Attrs() }

// Values returns the values of the variable of da.
func (da *DataArray) Values() (*sparse.DenseArray, error) { return da.variable.Values() }

// Indexes returns the label index of each dimension.
func (da *DataArray) Indexes() (map[string]*Index, error) {
	o := make(map[string]*Index, len(da.variable.dims))
	for _, d := range da.variable.dims {
		c, _ := da.coords.Get(d)
		ix, err := indexFromVariable(d, c)
		if err != nil {
			return nil, err
		}
		o[d] = ix
	}
	return o, nil
}

func (da *DataArray) indexes() (map[string]*Index, error) { return da.Indexes() }

func (da *DataArray) reindexed(targets map[string]*Index) (alignable, error) {
	current, err := da.Indexes()
	if err != nil {
		return nil, err
	}
	vars := da.coords.Copy()
	vars.Set("\x00"+da.name, da.variable)
	r, err := reindexVariables(vars, current, targets, NoFill, false)
	if err != nil {
		return nil, err
	}
	v, _ := r.Get("\x00" + da.name)
	r.Delete("\x00" + da.name)
	return &DataArray{name: da.name, variable: v, coords: r}, nil
}

// Dataset returns a dataset holding da as a data variable and its
// coordinates.
func (da *DataArray) Dataset() (*Dataset, error) {
	vars := da.coords.Copy()
	vars.Set(da.name, da.variable)
	return newDataset(vars, newStringSet(da.coords.Names()...), nil)
}

func (da *DataArray) String() string {
	return fmt.Sprintf("<dset.DataArray %q %v>", da.name, da.variable)
}
