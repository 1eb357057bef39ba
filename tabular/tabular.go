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

// Package tabular converts datasets to and from tables of rows and columns.
//
// A dataset becomes a table with one row per combination of dimension
// labels. The labels are held in index columns, one per dimension, and
// every other variable becomes a data column broadcast onto all of the
// dimensions.
package tabular

import (
	"fmt"
	"math"
	"time"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/dset"
)

// Column is a named column of a Table. Times is set instead of Values for
// columns holding datetimes.
type Column struct {
	Name   string
	Values []float64
	Times  []time.Time
}

// Len returns the number of rows in c.
func (c Column) Len() int {
	if c.Times != nil {
		return len(c.Times)
	}
	return len(c.Values)
}

func (c Column) isTime() bool { return c.Times != nil }

// Table is a row and column representation of a dataset. Index columns
// together identify each row.
type Table struct {
	Index   []Column
	Columns []Column
}

// Len returns the number of rows in t.
func (t *Table) Len() int {
	if len(t.Index) > 0 {
		return t.Index[0].Len()
	}
	if len(t.Columns) > 0 {
		return t.Columns[0].Len()
	}
	return 0
}

// Column returns the index or data column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Index {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// FromDataset converts ds to a table. The index columns are the dimensions
// of ds in sorted order, with the last dimension varying fastest. Every
// variable that is not an index coordinate becomes a data column.
func FromDataset(ds *dset.Dataset) (*Table, error) {
	dims := ds.DimNames()
	sizes := ds.Dims()
	n := 1
	for _, d := range dims {
		n *= sizes[d]
	}

	if n == 0 {
		return emptyTable(ds, dims, sizes), nil
	}

	t := new(Table)
	stride := n
	for _, d := range dims {
		stride /= sizes[d]
		v, err := ds.Variable(d)
		if err != nil {
			return nil, err
		}
		c, err := column(d, v)
		if err != nil {
			return nil, err
		}
		t.Index = append(t.Index, repeat(c, n, stride, sizes[d]))
	}

	for _, name := range ds.Names() {
		if _, ok := sizes[name]; ok {
			continue
		}
		v, err := ds.Variable(name)
		if err != nil {
			return nil, err
		}
		e, err := v.Expand(dims, sizes)
		if err != nil {
			return nil, fmt.Errorf("tabular: variable %s: %v", name, err)
		}
		c, err := column(name, e)
		if err != nil {
			return nil, err
		}
		t.Columns = append(t.Columns, c)
	}
	return t, nil
}

// emptyTable returns the table of a dataset with a zero-length dimension:
// every column is present and has no rows.
func emptyTable(ds *dset.Dataset, dims []string, sizes map[string]int) *Table {
	empty := func(name string) Column {
		c := Column{Name: name}
		v, err := ds.Variable(name)
		if err == nil && v.Kind() == dset.Time {
			c.Times = []time.Time{}
		} else {
			c.Values = []float64{}
		}
		return c
	}
	t := new(Table)
	for _, d := range dims {
		t.Index = append(t.Index, empty(d))
	}
	for _, name := range ds.Names() {
		if _, ok := sizes[name]; !ok {
			t.Columns = append(t.Columns, empty(name))
		}
	}
	return t
}

func column(name string, v *dset.Variable) (Column, error) {
	c := Column{Name: name}
	if v.Kind() == dset.Time {
		times, err := v.Times()
		if err != nil {
			return c, fmt.Errorf("tabular: variable %s: %v", name, err)
		}
		c.Times = times
		return c, nil
	}
	arr, err := v.Values()
	if err != nil {
		return c, fmt.Errorf("tabular: variable %s: %v", name, err)
	}
	c.Values = append([]float64{}, arr.Elements...)
	return c, nil
}

// repeat lays the labels of c out over n rows, with label i on the rows
// where (row/stride)%size == i.
func repeat(c Column, n, stride, size int) Column {
	o := Column{Name: c.Name}
	if c.isTime() {
		o.Times = make([]time.Time, n)
	} else {
		o.Values = make([]float64, n)
	}
	for r := 0; r < n; r++ {
		i := (r / stride) % size
		if c.isTime() {
			o.Times[r] = c.Times[i]
		} else {
			o.Values[r] = c.Values[i]
		}
	}
	return o
}

// level holds the distinct labels of an index column in order of first
// appearance and the position of each row's label among them.
type level struct {
	floats []float64
	times  []time.Time
	codes  []int
}

func (l *level) len() int {
	if l.times != nil {
		return len(l.times)
	}
	return len(l.floats)
}

func newLevel(c Column) (*level, error) {
	l := &level{codes: make([]int, c.Len())}
	if c.isTime() {
		pos := make(map[time.Time]int)
		l.times = []time.Time{}
		for r, x := range c.Times {
			x = x.UTC()
			i, ok := pos[x]
			if !ok {
				i = len(l.times)
				pos[x] = i
				l.times = append(l.times, x)
			}
			l.codes[r] = i
		}
		return l, nil
	}
	pos := make(map[float64]int)
	for r, x := range c.Values {
		if math.IsNaN(x) {
			return nil, fmt.Errorf("tabular: index column %s has a missing label in row %d", c.Name, r)
		}
		i, ok := pos[x]
		if !ok {
			i = len(l.floats)
			pos[x] = i
			l.floats = append(l.floats, x)
		}
		l.codes[r] = i
	}
	return l, nil
}

// ToDataset converts t to a dataset with one dimension per index column.
// The labels of each dimension are the distinct values of its index
// column in order of first appearance. Combinations of labels that have
// no row get missing values. A table without index columns gets a
// dimension named "index" labelled by row number.
func ToDataset(t *Table) (*dset.Dataset, error) {
	n := t.Len()
	for _, c := range append(append([]Column{}, t.Index...), t.Columns...) {
		if c.Len() != n {
			return nil, fmt.Errorf("tabular: column %s has %d rows but the table has %d", c.Name, c.Len(), n)
		}
	}
	index := t.Index
	if len(index) == 0 {
		rows := make([]float64, n)
		for i := range rows {
			rows[i] = float64(i)
		}
		index = []Column{{Name: "index", Values: rows}}
	}

	dims := make([]string, len(index))
	shape := make([]int, len(index))
	levels := make([]*level, len(index))
	var coords []dset.Input
	for i, c := range index {
		l, err := newLevel(c)
		if err != nil {
			return nil, err
		}
		levels[i] = l
		dims[i] = c.Name
		shape[i] = l.len()
		if l.times != nil {
			coords = append(coords, dset.Var(c.Name, dset.Tuple{Data: l.times}))
		} else {
			coords = append(coords, dset.Var(c.Name, dset.Tuple{Data: l.floats}))
		}
	}

	offsets := make([]int, n)
	seen := make(map[int]int, n)
	for r := range offsets {
		off := 0
		for i, l := range levels {
			off = off*shape[i] + l.codes[r]
		}
		if prev, ok := seen[off]; ok {
			return nil, fmt.Errorf("tabular: rows %d and %d have the same index labels", prev, r)
		}
		seen[off] = r
		offsets[r] = off
	}

	var vars []dset.Input
	for _, c := range t.Columns {
		if c.isTime() {
			if len(seen) != prodInts(shape) {
				return nil, fmt.Errorf("tabular: datetime column %s cannot have missing values", c.Name)
			}
			times := make([]time.Time, len(c.Times))
			for r, x := range c.Times {
				times[offsets[r]] = x
			}
			v, err := dset.NewTimeArray(dims, shape, times, nil)
			if err != nil {
				return nil, err
			}
			vars = append(vars, dset.Var(c.Name, v))
			continue
		}
		arr := sparse.ZerosDense(append([]int{}, shape...)...)
		for i := range arr.Elements {
			arr.Elements[i] = math.NaN()
		}
		for r, x := range c.Values {
			arr.Elements[offsets[r]] = x
		}
		vars = append(vars, dset.Var(c.Name, dset.Tuple{Dims: dims, Data: arr}))
	}
	return dset.NewDataset(vars, coords, nil)
}

func prodInts(s []int) int {
	p := 1
	for _, x := range s {
		p *= x
	}
	return p
}
