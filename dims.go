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
	"sort"

	"github.com/ctessum/sparse"
)

// calculateDims returns the size of every dimension used by vars. The
// first variable to use a dimension fixes its size.
func calculateDims(vars *Variables) (map[string]int, error) {
	dims := make(map[string]int)
	lastUsed := make(map[string]string)
	scalars := newStringSet()
	vars.Each(func(name string, v *Variable) {
		if v.Ndim() == 0 {
			scalars.add(name)
		}
	})
	var err error
	vars.Each(func(name string, v *Variable) {
		if err != nil {
			return
		}
		for i, d := range v.dims {
			size := v.shape[i]
			if scalars.has(d) {
				err = fmt.Errorf("dimension %q already exists as a scalar variable: %w", d, ErrShape)
				return
			}
			if s, ok := dims[d]; !ok {
				dims[d] = size
				lastUsed[d] = name
			} else if s != size {
				err = fmt.Errorf("conflicting sizes for dimension %q: length %d on %q and length %d on %q: %w",
					d, size, name, s, lastUsed[d], ErrShape)
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return dims, nil
}

// sortedDims returns the dimension names in sorted order.
func sortedDims(dims map[string]int) []string {
	names := make([]string, 0, len(dims))
	for d := range dims {
		names = append(names, d)
	}
	sort.Strings(names)
	return names
}

// defaultCoords returns an integer range index coordinate for every
// dimension that has no variable of its own. The values are only created
// when they are first needed.
func defaultCoords(dims map[string]int, vars *Variables) *Variables {
	o := NewVariables()
	for _, d := range sortedDims(dims) {
		if !vars.Has(d) {
			o.Set(d, rangeVariable(d, dims[d]))
		}
	}
	return o
}

func rangeVariable(dim string, size int) *Variable {
	return &Variable{
		dims:  []string{dim},
		shape: []int{size},
		kind:  Float,
		buf: &buffer{refs: 1, load: func() (*sparse.DenseArray, error) {
			arr := sparse.ZerosDense(size)
			for i := range arr.Elements {
				arr.Elements[i] = float64(i)
			}
			return arr, nil
		}},
	}
}
