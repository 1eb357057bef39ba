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
	"time"

	"github.com/ctessum/sparse"
)

// Value is anything that can be added to a Dataset: a *Variable, a Tuple
// or a *DataArray, whose coordinates are added along with it.
type Value interface {
	isValue()
}

func (*Variable) isValue()  {}
func (Tuple) isValue()      {}
func (*DataArray) isValue() {}

// Tuple is the raw form of a variable: dimension names, data, and
// optional attributes and encoding.
//
// Data may be a *sparse.DenseArray, a []float64, []float32, []int or
// []time.Time for one-dimensional data, or a float64, int or time.Time for
// a scalar. If Dims is nil and Data is one-dimensional, the variable is
// given a single dimension named after itself, which makes it an index
// coordinate.
type Tuple struct {
	Dims     []string
	Data     interface{}
	Attrs    Attributes
	Encoding Attributes
}

// Input is a named Value.
type Input struct {
	Name  string
	Value Value
}

// Var is shorthand for Input{Name: name, Value: value}.
func Var(name string, value Value) Input {
	return Input{Name: name, Value: value}
}

// asVariable converts val to a Variable.
func asVariable(name string, val Value) (*Variable, error) {
	switch t := val.(type) {
	case *Variable:
		if t == nil {
			return nil, fmt.Errorf("variable %q is nil: %w", name, ErrInvalidInput)
		}
		return t, nil
	case *DataArray:
		if t == nil {
			return nil, fmt.Errorf("variable %q is nil: %w", name, ErrInvalidInput)
		}
		return t.variable, nil
	case Tuple:
		kind, arr, err := dataToArray(t.Data)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		dims := t.Dims
		if dims == nil && len(arr.Shape) == 1 {
			dims = []string{name}
		}
		v, err := newVariableKind(kind, dims, arr, t.Attrs)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		v.encoding = t.Encoding.Copy()
		return v, nil
	}
	return nil, fmt.Errorf("variable %q of type %T: dataset variables must be a *Variable, "+
		"*DataArray or Tuple of the form (dims, data[, attrs, encoding]): %w", name, val, ErrInvalidInput)
}

// asDatasetVariable prepares a variable for adding it to a dataset under
// name. A variable that uses its own name as a dimension is an index
// coordinate and must be one-dimensional.
func asDatasetVariable(name string, val Value) (*Variable, error) {
	v, err := asVariable(name, val)
	if err != nil {
		return nil, err
	}
	if indexOf(v.dims, name) >= 0 && v.Ndim() != 1 {
		return nil, fmt.Errorf("index variable %q must be defined with 1-dimensional data, not dimensions %v: %w",
			name, v.dims, ErrShape)
	}
	return v, nil
}

func floatArray(vals []float64) *sparse.DenseArray {
	arr := sparse.ZerosDense(len(vals))
	copy(arr.Elements, vals)
	return arr
}

func dataToArray(data interface{}) (Kind, *sparse.DenseArray, error) {
	switch d := data.(type) {
	case *sparse.DenseArray:
		if d == nil {
			return Float, nil, fmt.Errorf("nil array: %w", ErrInvalidInput)
		}
		return Float, d, nil
	case []float64:
		return Float, floatArray(d), nil
	case []float32:
		arr := sparse.ZerosDense(len(d))
		for i, x := range d {
			arr.Elements[i] = float64(x)
		}
		return Float, arr, nil
	case []int:
		arr := sparse.ZerosDense(len(d))
		for i, x := range d {
			arr.Elements[i] = float64(x)
		}
		return Float, arr, nil
	case []time.Time:
		arr := sparse.ZerosDense(len(d))
		for i, x := range d {
			arr.Elements[i] = timeToSeconds(x)
		}
		return Time, arr, nil
	case float64:
		arr := sparse.ZerosDense()
		arr.Elements[0] = d
		return Float, arr, nil
	case int:
		arr := sparse.ZerosDense()
		arr.Elements[0] = float64(d)
		return Float, arr, nil
	case time.Time:
		arr := sparse.ZerosDense()
		arr.Elements[0] = timeToSeconds(d)
		return Time, arr, nil
	}
	return Float, nil, fmt.Errorf("data of type %T: %w", data, ErrInvalidInput)
}

// expandVariables converts raw inputs to variables ready for a dataset's
// variable table. DataArray inputs contribute their coordinates as well.
// Names already present in old or earlier in raw are compared under
// compat and must agree. It returns the new or widened variables and the
// names that should be treated as coordinates.
func expandVariables(raw []Input, old *Variables, compat Compat) (*Variables, stringSet, error) {
	newVars := NewVariables()
	coordNames := newStringSet()

	lookup := func(name string) (*Variable, bool) {
		if v, ok := newVars.Get(name); ok {
			return v, true
		}
		return old.Get(name)
	}

	add := func(name string, val Value) error {
		v, err := asDatasetVariable(name, val)
		if err != nil {
			return err
		}
		existing, ok := lookup(name)
		if !ok {
			newVars.Set(name, v)
			coordNames.add(v.dims...)
			return nil
		}
		eq, err := existing.compare(v, compat)
		if err != nil {
			return err
		}
		if !eq {
			return fmt.Errorf("conflicting value for variable %q:\nfirst value: %v\nsecond value: %v\n%w",
				name, existing, v, ErrConflict)
		}
		if compat == BroadcastEquals {
			dims, sizes, err := unionDims(existing, v)
			if err != nil {
				return err
			}
			widened, err := existing.expand(dims, sizes)
			if err != nil {
				return err
			}
			newVars.Set(name, widened)
			coordNames.add(v.dims...)
		}
		return nil
	}

	for _, in := range raw {
		val := in.Value
		if da, ok := val.(*DataArray); ok && da != nil {
			coordNames.add(da.coords.Names()...)
			for _, cn := range da.coords.Names() {
				if cn == in.Name {
					continue
				}
				cv, _ := da.coords.Get(cn)
				if err := add(cn, cv); err != nil {
					return nil, nil, err
				}
			}
			val = da.variable
		}
		if err := add(in.Name, val); err != nil {
			return nil, nil, err
		}
	}
	return newVars, coordNames, nil
}
