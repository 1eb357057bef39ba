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
)

// End is a Slice bound meaning the end of the dimension.
const End = int(^uint(0) >> 1)

// Selector picks positions along one dimension. It is one of At, Slice,
// Positions or Mask.
type Selector interface {
	resolve(dim string, size int) (dimSelection, error)
}

// At selects a single position and removes the dimension. Negative values
// count from the end.
type At int

// Slice selects the positions Start, Start+Step, ... up to but not
// including Stop. Negative bounds count from the end and bounds beyond the
// dimension are clipped. A Step of zero means one.
type Slice struct {
	Start, Stop, Step int
}

// Range returns the slice [start, stop) with a step of one.
func Range(start, stop int) Slice { return Slice{Start: start, Stop: stop} }

// Positions selects the given positions in order. Negative values count
// from the end.
type Positions []int

// Mask selects the positions that are true. Its length must equal the size
// of the dimension.
type Mask []bool

// LabelSlice selects the labels between Start and Stop, both included. A
// nil bound is open.
type LabelSlice struct {
	Start, Stop interface{}
}

func (a At) resolve(dim string, size int) (dimSelection, error) {
	p := int(a)
	if p < 0 {
		p += size
	}
	if p < 0 || p >= size {
		return dimSelection{}, fmt.Errorf("position %d along %q with size %d: %w", int(a), dim, size, ErrOutOfRange)
	}
	return dimSelection{positions: []int{p}, drop: true}, nil
}

func (s Slice) resolve(dim string, size int) (dimSelection, error) {
	step := s.Step
	if step == 0 {
		step = 1
	}
	if step < 0 {
		return dimSelection{}, fmt.Errorf("slice step %d along %q must be positive: %w", step, dim, ErrInvalidInput)
	}
	clip := func(b int) int {
		if b < 0 {
			b += size
			if b < 0 {
				b = 0
			}
		}
		if b > size {
			b = size
		}
		return b
	}
	start, stop := clip(s.Start), clip(s.Stop)
	positions := []int{}
	for p := start; p < stop; p += step {
		positions = append(positions, p)
	}
	return dimSelection{positions: positions}, nil
}

func (ps Positions) resolve(dim string, size int) (dimSelection, error) {
	positions := make([]int, len(ps))
	for i, p := range ps {
		if p < 0 {
			p += size
		}
		if p < 0 || p >= size {
			return dimSelection{}, fmt.Errorf("position %d along %q with size %d: %w", ps[i], dim, size, ErrOutOfRange)
		}
		positions[i] = p
	}
	return dimSelection{positions: positions}, nil
}

func (m Mask) resolve(dim string, size int) (dimSelection, error) {
	if len(m) != size {
		return dimSelection{}, fmt.Errorf("mask of length %d along %q with size %d: %w", len(m), dim, size, ErrShape)
	}
	positions := []int{}
	for i, keep := range m {
		if keep {
			positions = append(positions, i)
		}
	}
	return dimSelection{positions: positions}, nil
}

// Isel returns a dataset with every variable indexed along the given
// dimensions. Variables that do not use any of the dimensions are shared
// with ds. Dimensions selected with At are removed.
func (ds *Dataset) Isel(indexers map[string]Selector) (*Dataset, error) {
	sel, err := ds.resolve(indexers)
	if err != nil {
		return nil, err
	}
	return ds.isel(sel)
}

func (ds *Dataset) resolve(indexers map[string]Selector) (map[string]dimSelection, error) {
	var invalid []string
	for d := range indexers {
		if _, ok := ds.dims[d]; !ok {
			invalid = append(invalid, d)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("dimensions %v do not exist: %w", invalid, ErrUnknownName)
	}
	sel := make(map[string]dimSelection, len(indexers))
	for d, s := range indexers {
		if s == nil {
			return nil, fmt.Errorf("nil selector for dimension %q: %w", d, ErrInvalidInput)
		}
		r, err := s.resolve(d, ds.dims[d])
		if err != nil {
			return nil, err
		}
		sel[d] = r
	}
	return sel, nil
}

func (ds *Dataset) isel(sel map[string]dimSelection) (*Dataset, error) {
	vars := NewVariables()
	var err error
	ds.variables.Each(func(name string, v *Variable) {
		if err != nil {
			return
		}
		var nv *Variable
		nv, err = v.isel(sel)
		vars.Set(name, nv)
	})
	if err != nil {
		return nil, err
	}
	return ds.replace(vars, nil)
}

// Sel returns a dataset indexed by coordinate labels. Each indexer is a
// single label, which removes the dimension, a LabelSlice, or a slice of
// labels ([]float64, []int, []time.Time or []interface{}).
func (ds *Dataset) Sel(indexers map[string]interface{}) (*Dataset, error) {
	positional, err := ds.labelIndexers(indexers)
	if err != nil {
		return nil, err
	}
	return ds.Isel(positional)
}

func (ds *Dataset) labelIndexers(indexers map[string]interface{}) (map[string]Selector, error) {
	o := make(map[string]Selector, len(indexers))
	for d, label := range indexers {
		if _, ok := ds.dims[d]; !ok {
			return nil, fmt.Errorf("dimension %q does not exist: %w", d, ErrUnknownName)
		}
		v, _ := ds.variables.Get(d)
		ix, err := indexFromVariable(d, v)
		if err != nil {
			return nil, err
		}
		s, err := labelSelector(ix, label)
		if err != nil {
			return nil, err
		}
		o[d] = s
	}
	return o, nil
}

func labelSelector(ix *Index, label interface{}) (Selector, error) {
	switch l := label.(type) {
	case LabelSlice:
		start, stop, err := ix.SliceLocs(l.Start, l.Stop)
		if err != nil {
			return nil, err
		}
		return Range(start, stop), nil
	case []float64:
		return labelPositions(ix, len(l), func(i int) interface{} { return l[i] })
	case []int:
		return labelPositions(ix, len(l), func(i int) interface{} { return l[i] })
	case []time.Time:
		return labelPositions(ix, len(l), func(i int) interface{} { return l[i] })
	case []interface{}:
		return labelPositions(ix, len(l), func(i int) interface{} { return l[i] })
	}
	p, err := ix.Get(label)
	if err != nil {
		return nil, err
	}
	return At(p), nil
}

func labelPositions(ix *Index, n int, at func(i int) interface{}) (Selector, error) {
	ps := make(Positions, n)
	for i := range ps {
		p, err := ix.Get(at(i))
		if err != nil {
			return nil, err
		}
		ps[i] = p
	}
	return ps, nil
}

// Reindex conforms ds onto new labels along the given dimensions. Each
// target is an *Index, a *Variable or *DataArray holding the labels, or a
// []float64, []int or []time.Time of labels. Labels that are not in the
// current index are filled according to method. If every target equals the
// current index, ds itself is returned unless copy is set, in which case
// the result holds copies of every variable.
func (ds *Dataset) Reindex(indexers map[string]interface{}, method FillMethod, copy bool) (*Dataset, error) {
	targets := make(map[string]*Index, len(indexers))
	for d, val := range indexers {
		if _, ok := ds.dims[d]; !ok {
			return nil, fmt.Errorf("invalid reindex dimension %q: %w", d, ErrUnknownName)
		}
		v, _ := ds.variables.Get(d)
		ix, err := asIndex(d, v.kind, val)
		if err != nil {
			return nil, err
		}
		targets[d] = ix
	}
	return ds.reindex(targets, method, copy)
}

// ReindexLike conforms ds onto the indexes of other. Dimensions of other
// that ds lacks are ignored.
func (ds *Dataset) ReindexLike(other *Dataset, method FillMethod, copy bool) (*Dataset, error) {
	ixs, err := other.Indexes()
	if err != nil {
		return nil, err
	}
	targets := make(map[string]*Index)
	for d, ix := range ixs {
		if _, ok := ds.dims[d]; ok {
			targets[d] = ix
		}
	}
	return ds.reindex(targets, method, copy)
}

func (ds *Dataset) reindex(targets map[string]*Index, method FillMethod, copy bool) (*Dataset, error) {
	current, err := ds.Indexes()
	if err != nil {
		return nil, err
	}
	changed := false
	for d, t := range targets {
		c, ok := current[d]
		if !ok {
			return nil, fmt.Errorf("invalid reindex dimension %q: %w", d, ErrUnknownName)
		}
		if !c.Equal(t) {
			changed = true
		}
	}
	if !changed {
		if copy {
			return ds.Copy(true)
		}
		return ds, nil
	}
	vars, err := reindexVariables(ds.variables, current, targets, method, copy)
	if err != nil {
		return nil, err
	}
	return ds.replace(vars, nil)
}
