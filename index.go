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
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// FillMethod specifies how Reindex fills positions whose labels are not
// in the current index.
type FillMethod int

const (
	// NoFill leaves unmatched positions missing.
	NoFill FillMethod = iota
	// Pad carries the last valid value forward.
	Pad
	// Backfill carries the next valid value backward.
	Backfill
	// Nearest uses the value at the nearest label. Ties go to the smaller
	// label.
	Nearest
)

func (m FillMethod) String() string {
	switch m {
	case NoFill:
		return "none"
	case Pad:
		return "pad"
	case Backfill:
		return "backfill"
	case Nearest:
		return "nearest"
	}
	return fmt.Sprintf("FillMethod(%d)", int(m))
}

// ParseFillMethod converts a method name, as accepted by pandas-style
// interfaces, to a FillMethod. The empty string means NoFill.
func ParseFillMethod(s string) (FillMethod, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return NoFill, nil
	case "pad", "ffill":
		return Pad, nil
	case "backfill", "bfill":
		return Backfill, nil
	case "nearest":
		return Nearest, nil
	}
	return NoFill, fmt.Errorf("fill method %q: %w", s, ErrInvalidInput)
}

// Index is the label index of a single dimension, built from the values
// of its index coordinate.
type Index struct {
	name       string
	kind       Kind
	labels     []float64
	pos        map[float64]int
	dup        map[float64]bool
	increasing bool
}

// NewIndex creates an index for dimension name. labels is not copied.
func NewIndex(name string, kind Kind, labels []float64) *Index {
	ix := &Index{
		name:       name,
		kind:       kind,
		labels:     labels,
		pos:        make(map[float64]int, len(labels)),
		dup:        make(map[float64]bool),
		increasing: true,
	}
	for i, l := range labels {
		if _, ok := ix.pos[l]; ok {
			ix.dup[l] = true
		} else {
			ix.pos[l] = i
		}
		if i > 0 && !(labels[i-1] <= l) {
			ix.increasing = false
		}
	}
	return ix
}

func indexFromVariable(name string, v *Variable) (*Index, error) {
	if v.Ndim() != 1 {
		return nil, fmt.Errorf("index coordinate %q has %d dimensions: %w", name, v.Ndim(), ErrShape)
	}
	arr, err := v.Values()
	if err != nil {
		return nil, err
	}
	return NewIndex(name, v.kind, arr.Elements), nil
}

// Name returns the name of the indexed dimension.
func (ix *Index) Name() string { return ix.name }

// Kind returns the kind of the labels.
func (ix *Index) Kind() Kind { return ix.kind }

// Len returns the number of labels.
func (ix *Index) Len() int { return len(ix.labels) }

// Labels returns a copy of the labels.
func (ix *Index) Labels() []float64 {
	o := make([]float64, len(ix.labels))
	copy(o, ix.labels)
	return o
}

// Monotonic returns whether the labels are in increasing order.
func (ix *Index) Monotonic() bool { return ix.increasing }

// Equal returns whether ix and o have the same kind and labels in the same
// order.
func (ix *Index) Equal(o *Index) bool {
	return ix.kind == o.kind && floats.Same(ix.labels, o.labels)
}

// Get returns the position of label.
func (ix *Index) Get(label interface{}) (int, error) {
	l, err := ix.label(label)
	if err != nil {
		return 0, err
	}
	return ix.get(l)
}

func (ix *Index) get(l float64) (int, error) {
	if ix.dup[l] {
		return 0, fmt.Errorf("label %v appears more than once in index %q: %w", ix.format(l), ix.name, ErrLabelNotFound)
	}
	p, ok := ix.pos[l]
	if !ok {
		return 0, fmt.Errorf("label %v not in index %q: %w", ix.format(l), ix.name, ErrLabelNotFound)
	}
	return p, nil
}

// SliceLocs returns the positions [start, stop) of the labels between
// first and last inclusive. A nil bound is open.
func (ix *Index) SliceLocs(first, last interface{}) (int, int, error) {
	start, stop := 0, len(ix.labels)
	if !ix.increasing {
		if first != nil {
			p, err := ix.Get(first)
			if err != nil {
				return 0, 0, err
			}
			start = p
		}
		if last != nil {
			p, err := ix.Get(last)
			if err != nil {
				return 0, 0, err
			}
			stop = p + 1
		}
		if stop < start {
			stop = start
		}
		return start, stop, nil
	}
	if first != nil {
		l, err := ix.label(first)
		if err != nil {
			return 0, 0, err
		}
		start = sort.Search(len(ix.labels), func(i int) bool { return ix.labels[i] >= l })
	}
	if last != nil {
		l, err := ix.label(last)
		if err != nil {
			return 0, 0, err
		}
		stop = sort.Search(len(ix.labels), func(i int) bool { return ix.labels[i] > l })
	}
	if stop < start {
		stop = start
	}
	return start, stop, nil
}

// Indexer returns, for each target label, the position in ix that supplies
// its value, or -1 if there is none.
func (ix *Index) Indexer(target []float64, method FillMethod) ([]int, error) {
	if method != NoFill && !ix.increasing {
		return nil, fmt.Errorf("index %q must be monotonic increasing to fill with method %s: %w",
			ix.name, method, ErrInvalidInput)
	}
	o := make([]int, len(target))
	for i, t := range target {
		if p, ok := ix.pos[t]; ok && !ix.dup[t] {
			o[i] = p
			continue
		} else if ok {
			return nil, fmt.Errorf("cannot reindex index %q with duplicate label %v: %w", ix.name, ix.format(t), ErrLabelNotFound)
		}
		o[i] = -1
		if math.IsNaN(t) || len(ix.labels) == 0 {
			continue
		}
		switch method {
		case Pad:
			j := sort.Search(len(ix.labels), func(k int) bool { return ix.labels[k] > t })
			o[i] = j - 1
		case Backfill:
			j := sort.Search(len(ix.labels), func(k int) bool { return ix.labels[k] >= t })
			if j < len(ix.labels) {
				o[i] = j
			}
		case Nearest:
			j := sort.Search(len(ix.labels), func(k int) bool { return ix.labels[k] >= t })
			switch {
			case j == 0:
				o[i] = 0
			case j == len(ix.labels):
				o[i] = j - 1
			case t-ix.labels[j-1] <= ix.labels[j]-t:
				o[i] = j - 1
			default:
				o[i] = j
			}
		}
	}
	return o, nil
}

// union returns the labels of ix followed by labels of o that ix lacks.
// If both indexes are increasing the result is sorted.
func (ix *Index) union(o *Index) *Index {
	labels := ix.Labels()
	for _, l := range o.labels {
		if _, ok := ix.pos[l]; !ok {
			labels = append(labels, l)
		}
	}
	if ix.increasing && o.increasing {
		sort.Float64s(labels)
		labels = uniqueSorted(labels)
	}
	return NewIndex(ix.name, ix.kind, labels)
}

// intersection returns the labels of ix that are also in o, in the order
// of ix.
func (ix *Index) intersection(o *Index) *Index {
	var labels []float64
	seen := make(map[float64]bool)
	for _, l := range ix.labels {
		if _, ok := o.pos[l]; ok && !seen[l] {
			labels = append(labels, l)
			seen[l] = true
		}
	}
	if labels == nil {
		labels = []float64{}
	}
	return NewIndex(ix.name, ix.kind, labels)
}

func uniqueSorted(s []float64) []float64 {
	if len(s) == 0 {
		return s
	}
	o := s[:1]
	for _, v := range s[1:] {
		if v != o[len(o)-1] {
			o = append(o, v)
		}
	}
	return o
}

// variable returns the index coordinate for the labels of ix.
func (ix *Index) variable(attrs Attributes, encoding Attributes) *Variable {
	arr := floatArray(ix.Labels())
	return fromArray(ix.kind, []string{ix.name}, arr, attrs, encoding)
}

// label converts a selector value to the label space of ix.
func (ix *Index) label(x interface{}) (float64, error) {
	if t, ok := x.(time.Time); ok {
		if ix.kind != Time {
			return 0, fmt.Errorf("datetime label %v for non-datetime index %q: %w", t, ix.name, ErrUnsupportedKey)
		}
		return timeToSeconds(t), nil
	}
	return toFloat(x)
}

func (ix *Index) format(l float64) string {
	if ix.kind == Time && !math.IsNaN(l) {
		return secondsToTime(l).Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%g", l)
}

func toFloat(x interface{}) (float64, error) {
	switch t := x.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case time.Time:
		return timeToSeconds(t), nil
	}
	return 0, fmt.Errorf("label of type %T: %w", x, ErrUnsupportedKey)
}
