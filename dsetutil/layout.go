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

package dsetutil

import (
	"fmt"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/dset"
)

// layout is the contents of a dataset layout file. An example:
//
//	[Attributes]
//	title = "surface temperature"
//
//	[[Variable]]
//	Name = "x"
//	Values = [0.5, 1.5, 2.5]
//
//	[[Variable]]
//	Name = "temp"
//	Dims = ["y", "x"]
//	Shape = [2, 3]
//	Values = [280.0, 281.0, 282.0, 283.0, 284.0, 285.0]
//	  [Variable.Attributes]
//	  units = "K"
type layout struct {
	Attributes map[string]interface{}
	Variable   []layoutVariable
}

type layoutVariable struct {
	Name string

	// Dims are the dimensions of the variable. If Dims is empty and there
	// is more than one value, the variable is an index coordinate along a
	// dimension with its own name.
	Dims []string

	// Shape is required for variables with more than one dimension.
	Shape []int

	Values []float64
	Times  []time.Time

	// Coordinate marks a variable as a coordinate that is not an index.
	Coordinate bool

	Attributes map[string]interface{}
}

// CreateFromLayout builds a dataset from the TOML layout file at path.
func CreateFromLayout(path string) (*dset.Dataset, error) {
	var l layout
	if _, err := toml.DecodeFile(path, &l); err != nil {
		return nil, fmt.Errorf("dset: reading layout file %s: %v", path, err)
	}
	globals, err := layoutAttributes(l.Attributes)
	if err != nil {
		return nil, fmt.Errorf("dset: layout file %s: %v", path, err)
	}
	var vars, coords []dset.Input
	for _, lv := range l.Variable {
		v, err := lv.value()
		if err != nil {
			return nil, fmt.Errorf("dset: layout file %s: variable %q: %v", path, lv.Name, err)
		}
		if lv.Coordinate {
			coords = append(coords, dset.Var(lv.Name, v))
		} else {
			vars = append(vars, dset.Var(lv.Name, v))
		}
	}
	return dset.NewDataset(vars, coords, globals)
}

func (lv layoutVariable) value() (dset.Value, error) {
	if lv.Name == "" {
		return nil, fmt.Errorf("missing Name")
	}
	if len(lv.Values) > 0 && len(lv.Times) > 0 {
		return nil, fmt.Errorf("only one of Values and Times may be given")
	}
	attrs, err := layoutAttributes(lv.Attributes)
	if err != nil {
		return nil, err
	}
	if len(lv.Shape) > 0 {
		if len(lv.Times) > 0 {
			return dset.NewTimeArray(lv.Dims, lv.Shape, lv.Times, attrs)
		}
		shape := make([]int, len(lv.Shape))
		copy(shape, lv.Shape)
		arr := sparse.ZerosDense(shape...)
		if len(arr.Elements) != len(lv.Values) {
			return nil, fmt.Errorf("%d values do not fill shape %v", len(lv.Values), lv.Shape)
		}
		copy(arr.Elements, lv.Values)
		return dset.NewVariable(lv.Dims, arr, attrs)
	}

	t := dset.Tuple{Dims: lv.Dims, Attrs: attrs}
	if len(lv.Dims) == 0 {
		t.Dims = nil
	}
	switch {
	case len(lv.Times) == 1 && len(lv.Dims) == 0:
		t.Data = lv.Times[0]
		t.Dims = []string{}
	case len(lv.Times) > 0:
		t.Data = lv.Times
	case len(lv.Values) == 1 && len(lv.Dims) == 0:
		t.Data = lv.Values[0]
		t.Dims = []string{}
	case len(lv.Values) > 0:
		t.Data = lv.Values
	default:
		return nil, fmt.Errorf("no Values or Times")
	}
	return t, nil
}

// layoutAttributes converts decoded TOML attributes, sorted by name.
func layoutAttributes(m map[string]interface{}) (dset.Attributes, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	var o dset.Attributes
	for _, name := range names {
		switch v := m[name].(type) {
		case int64:
			o.Set(name, int(v))
		case float64, string, bool:
			o.Set(name, v)
		case []interface{}:
			vals := make([]float64, len(v))
			for i, e := range v {
				switch n := e.(type) {
				case int64:
					vals[i] = float64(n)
				case float64:
					vals[i] = n
				default:
					return nil, fmt.Errorf("attribute %q: arrays must hold numbers, not %T", name, e)
				}
			}
			o.Set(name, vals)
		default:
			return nil, fmt.Errorf("attribute %q has unsupported type %T", name, v)
		}
	}
	return o, nil
}
