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

	"github.com/sirupsen/logrus"
)

// ConcatMode selects which variables without the concatenation dimension
// are stacked by Concat.
type ConcatMode int

const (
	// Different stacks the variables whose values differ between datasets.
	Different ConcatMode = iota
	// All stacks every variable that is not an index coordinate.
	All
	// Minimal only stacks variables that already use the concatenation
	// dimension.
	Minimal
)

func (m ConcatMode) String() string {
	switch m {
	case Different:
		return "different"
	case All:
		return "all"
	case Minimal:
		return "minimal"
	}
	return fmt.Sprintf("ConcatMode(%d)", int(m))
}

// ParseConcatMode converts a mode name to a ConcatMode.
func ParseConcatMode(s string) (ConcatMode, error) {
	switch strings.ToLower(s) {
	case "different":
		return Different, nil
	case "all":
		return All, nil
	case "minimal":
		return Minimal, nil
	}
	return Different, fmt.Errorf("concat mode %q must be one of different, all or minimal: %w", s, ErrInvalidInput)
}

type concatOptions struct {
	mode   ConcatMode
	over   []string
	compat Compat
	labels Value
}

// ConcatOption configures Concat.
type ConcatOption func(*concatOptions)

// WithMode sets which variables are stacked. The default is Different.
func WithMode(m ConcatMode) ConcatOption {
	return func(o *concatOptions) { o.mode = m }
}

// ConcatOver names variables that are always stacked.
func ConcatOver(names ...string) ConcatOption {
	return func(o *concatOptions) { o.over = append(o.over, names...) }
}

// ConcatCompat sets how variables that are not stacked are compared across
// datasets. It must be Equals, the default, or Identical, which also
// requires equal global attributes.
func ConcatCompat(c Compat) ConcatOption {
	return func(o *concatOptions) { o.compat = c }
}

// ConcatLabels gives the labels of the concatenation dimension. The result
// gets an index coordinate holding them.
func ConcatLabels(labels Value) ConcatOption {
	return func(o *concatOptions) { o.labels = labels }
}

// Concat joins datasets along dim, which may be an existing dimension or a
// new one. Variables that use dim, and those selected by the options, are
// stacked; every other variable must be the same in all datasets and is
// taken from the first.
func Concat(datasets []*Dataset, dim string, opts ...ConcatOption) (*Dataset, error) {
	o := &concatOptions{mode: Different, compat: Equals}
	for _, opt := range opts {
		opt(o)
	}
	if o.compat != Equals && o.compat != Identical {
		return nil, fmt.Errorf("concat compat %v must be equals or identical: %w", o.compat, ErrInvalidInput)
	}
	if len(datasets) == 0 {
		return nil, fmt.Errorf("no datasets to concatenate: %w", ErrInvalidInput)
	}
	first := datasets[0]

	var labels *Variable
	if o.labels != nil {
		v, err := asVariable(dim, o.labels)
		if err != nil {
			return nil, err
		}
		if v.Ndim() != 1 {
			return nil, fmt.Errorf("concatenation labels must be one-dimensional, not %v: %w", v.dims, ErrShape)
		}
		if v.dims[0] != dim {
			v = v.withDims([]string{dim})
		}
		labels = v
	}

	over := newStringSet(o.over...)
	switch o.mode {
	case Different:
		for _, name := range first.variables.Names() {
			if _, ok := first.dims[name]; ok || over.has(name) {
				continue
			}
			v, _ := first.variables.Get(name)
			for _, ds := range datasets[1:] {
				w, ok := ds.variables.Get(name)
				if !ok {
					return nil, fmt.Errorf("variable %q is not in every dataset: %w", name, ErrUnknownName)
				}
				eq, err := v.equals(w)
				if err != nil {
					return nil, err
				}
				if !eq {
					over.add(name)
					break
				}
			}
		}
	case All:
		for _, name := range first.variables.Names() {
			if _, ok := first.dims[name]; !ok {
				over.add(name)
			}
		}
	case Minimal:
	default:
		return nil, fmt.Errorf("concat mode %v: %w", o.mode, ErrInvalidInput)
	}

	var missing []string
	for _, name := range sortedNames(over) {
		if !first.variables.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("variables %v selected for concatenation are not in the first dataset: %w", missing, ErrUnknownName)
	}

	first.variables.Each(func(name string, v *Variable) {
		if name == dim || indexOf(v.dims, dim) >= 0 {
			over.add(name)
		}
	})

	vars := NewVariables()
	first.variables.Each(func(name string, v *Variable) {
		if !over.has(name) {
			vars.Set(name, v)
		}
	})

	for _, ds := range datasets[1:] {
		if o.compat == Identical && !ds.attrs.Equal(first.attrs) {
			return nil, fmt.Errorf("dataset global attributes not equal: %w", ErrConflict)
		}
		var err error
		ds.variables.Each(func(name string, v *Variable) {
			if err != nil {
				return
			}
			kept, ok := vars.Get(name)
			switch {
			case !ok && !over.has(name):
				err = fmt.Errorf("encountered unexpected variable %q: %w", name, ErrInvalidInput)
			case ok && name != dim:
				var eq bool
				if eq, err = v.compare(kept, o.compat); err == nil && !eq {
					err = fmt.Errorf("variable %q not %s across datasets: %w", name, o.compat, ErrConflict)
				}
			}
		})
		if err != nil {
			return nil, err
		}
	}

	for _, name := range first.variables.Names() {
		if !over.has(name) {
			continue
		}
		parts := make([]*Variable, len(datasets))
		for i, ds := range datasets {
			v, ok := ds.variables.Get(name)
			if !ok {
				return nil, fmt.Errorf("variable %q is not in dataset %d: %w", name, i, ErrUnknownName)
			}
			parts[i] = v
		}
		parts, err := ensureCommonDims(parts)
		if err != nil {
			return nil, err
		}
		stacked, err := concatVariables(parts, dim)
		if err != nil {
			return nil, fmt.Errorf("concatenating %q: %w", name, err)
		}
		Log.WithFields(logrus.Fields{
			"variable": name,
			"dim":      dim,
			"inputs":   len(parts),
		}).Debug("dset: stacking variable")
		vars.Set(name, stacked)
	}

	coordNames := first.coordNames.copy()
	if labels != nil {
		vars.Set(dim, labels)
		coordNames.add(dim)
	}
	return newDataset(vars, coordNames, first.attrs.Copy())
}

// ensureCommonDims broadcasts vars onto the dimensions they use between
// them, in order of first use, inserting size one dimensions where needed.
func ensureCommonDims(vars []*Variable) ([]*Variable, error) {
	var common []string
	for _, v := range vars {
		for _, d := range v.dims {
			if indexOf(common, d) < 0 {
				common = append(common, d)
			}
		}
	}
	o := make([]*Variable, len(vars))
	for i, v := range vars {
		if sameStrings(v.dims, common) {
			o[i] = v
			continue
		}
		sizes := make(map[string]int, len(common))
		for _, d := range common {
			sizes[d] = 1
		}
		e, err := v.expand(common, sizes)
		if err != nil {
			return nil, err
		}
		o[i] = e
	}
	return o, nil
}
