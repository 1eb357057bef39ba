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
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Join specifies how the indexes of objects being aligned are combined.
type Join int

const (
	// Outer uses the union of the indexes.
	Outer Join = iota
	// Inner uses the intersection of the indexes.
	Inner
	// Left uses the index of the first object.
	Left
	// Right uses the index of the last object.
	Right
)

func (j Join) String() string {
	switch j {
	case Outer:
		return "outer"
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Join(%d)", int(j))
}

// ParseJoin converts a join name to a Join.
func ParseJoin(s string) (Join, error) {
	switch strings.ToLower(s) {
	case "outer":
		return Outer, nil
	case "inner":
		return Inner, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Outer, fmt.Errorf("join %q must be one of outer, inner, left or right: %w", s, ErrInvalidInput)
}

// alignable is implemented by objects that carry an index for each of
// their dimensions.
type alignable interface {
	indexes() (map[string]*Index, error)
	// reindexed returns the object conformed to targets, which only holds
	// dimensions of the object. Unchanged values are shared.
	reindexed(targets map[string]*Index) (alignable, error)
}

// Align conforms the datasets onto common indexes along every dimension
// they share, filling new positions with missing values. Variables that do
// not change are shared with the inputs.
func Align(join Join, datasets ...*Dataset) ([]*Dataset, error) {
	objs := make([]alignable, len(datasets))
	for i, ds := range datasets {
		objs[i] = ds
	}
	aligned, err := partialAlign(objs, join, nil)
	if err != nil {
		return nil, err
	}
	o := make([]*Dataset, len(aligned))
	for i, a := range aligned {
		o[i] = a.(*Dataset)
	}
	return o, nil
}

// partialAlign aligns objs along every dimension except those in exclude.
func partialAlign(objs []alignable, join Join, exclude stringSet) ([]alignable, error) {
	all := make([]map[string]*Index, len(objs))
	for i, obj := range objs {
		ix, err := obj.indexes()
		if err != nil {
			return nil, err
		}
		all[i] = ix
	}
	joined, err := joinIndexes(all, join, exclude)
	if err != nil {
		return nil, err
	}
	o := make([]alignable, len(objs))
	for i, obj := range objs {
		targets := make(map[string]*Index)
		for d, ix := range joined {
			if _, ok := all[i][d]; ok {
				targets[d] = ix
			}
		}
		if len(targets) == 0 {
			o[i] = obj
			continue
		}
		r, err := obj.reindexed(targets)
		if err != nil {
			return nil, err
		}
		o[i] = r
	}
	return o, nil
}

// joinIndexes combines the indexes of every dimension that is not in
// exclude and whose indexes differ between objects.
func joinIndexes(all []map[string]*Index, join Join, exclude stringSet) (map[string]*Index, error) {
	byDim := make(map[string][]*Index)
	for _, ixs := range all {
		for d, ix := range ixs {
			if !exclude.has(d) {
				byDim[d] = append(byDim[d], ix)
			}
		}
	}
	dims := make([]string, 0, len(byDim))
	for d := range byDim {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	joined := make(map[string]*Index)
	for _, d := range dims {
		ixs := byDim[d]
		same := true
		for _, ix := range ixs[1:] {
			if ix.kind != ixs[0].kind {
				return nil, fmt.Errorf("cannot align dimension %q with %s and %s labels: %w",
					d, ixs[0].kind, ix.kind, ErrInvalidInput)
			}
			if !ix.Equal(ixs[0]) {
				same = false
			}
		}
		if same {
			continue
		}
		var j *Index
		switch join {
		case Outer:
			j = ixs[0]
			for _, ix := range ixs[1:] {
				j = j.union(ix)
			}
		case Inner:
			j = ixs[0]
			for _, ix := range ixs[1:] {
				j = j.intersection(ix)
			}
		case Left:
			j = ixs[0]
		case Right:
			j = ixs[len(ixs)-1]
		default:
			return nil, fmt.Errorf("join %v: %w", join, ErrInvalidInput)
		}
		Log.WithFields(logrus.Fields{
			"dim":    d,
			"join":   join,
			"labels": j.Len(),
		}).Debug("dset: aligning dimension")
		joined[d] = j
	}
	return joined, nil
}

// alignInputs aligns the DataArray values of raw against each other,
// leaving other values alone.
func alignInputs(raw []Input, join Join) ([]Input, error) {
	var objs []alignable
	var which []int
	for i, in := range raw {
		if da, ok := in.Value.(*DataArray); ok && da != nil {
			objs = append(objs, da)
			which = append(which, i)
		}
	}
	if len(objs) < 2 {
		return raw, nil
	}
	aligned, err := partialAlign(objs, join, nil)
	if err != nil {
		return nil, err
	}
	o := make([]Input, len(raw))
	copy(o, raw)
	for k, i := range which {
		o[i].Value = aligned[k].(*DataArray)
	}
	return o, nil
}

// reindexVariables conforms vars onto targets. current holds the present
// index of every dimension. Variables that are not affected are shared
// unless copy is set.
func reindexVariables(vars *Variables, current, targets map[string]*Index, method FillMethod, copy bool) (*Variables, error) {
	sel := make(map[string]dimSelection)
	for d, t := range targets {
		c, ok := current[d]
		if !ok {
			return nil, fmt.Errorf("invalid reindex dimension %q: %w", d, ErrUnknownName)
		}
		if c.Equal(t) {
			continue
		}
		positions, err := c.Indexer(t.labels, method)
		if err != nil {
			return nil, err
		}
		Log.WithFields(logrus.Fields{
			"dim":    d,
			"from":   c.Len(),
			"to":     t.Len(),
			"method": method,
		}).Debug("dset: reindexing")
		sel[d] = dimSelection{positions: positions}
	}
	o := NewVariables()
	var err error
	vars.Each(func(name string, v *Variable) {
		if err != nil {
			return
		}
		if _, ok := sel[name]; ok && v.Ndim() == 1 && v.dims[0] == name {
			o.Set(name, targets[name].variable(v.attrs.Copy(), v.encoding))
			return
		}
		var nv *Variable
		nv, err = v.isel(sel)
		if err != nil {
			return
		}
		if nv == v && copy {
			nv, err = v.Copy(true)
			if err != nil {
				return
			}
		}
		o.Set(name, nv)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// asIndex converts a reindex target to an index for dimension dim. Plain
// label slices take the kind of the current index.
func asIndex(dim string, kind Kind, val interface{}) (*Index, error) {
	switch t := val.(type) {
	case *Index:
		if t == nil {
			break
		}
		if t.name == dim {
			return t, nil
		}
		return NewIndex(dim, t.kind, t.labels), nil
	case []float64:
		return NewIndex(dim, kind, append([]float64(nil), t...)), nil
	case []int:
		labels := make([]float64, len(t))
		for i, x := range t {
			labels[i] = float64(x)
		}
		return NewIndex(dim, kind, labels), nil
	case []time.Time:
		labels := make([]float64, len(t))
		for i, x := range t {
			labels[i] = timeToSeconds(x)
		}
		return NewIndex(dim, Time, labels), nil
	case *Variable:
		if t == nil {
			break
		}
		return indexFromVariable(dim, t)
	case *DataArray:
		if t == nil {
			break
		}
		return indexFromVariable(dim, t.variable)
	}
	return nil, fmt.Errorf("reindex target of type %T for dimension %q: %w", val, dim, ErrInvalidInput)
}
