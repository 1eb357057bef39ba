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

	"github.com/ctessum/sparse"
)

// dimSelection is a resolved positional selection along one dimension.
// A position of -1 selects a missing value.
type dimSelection struct {
	positions []int
	drop      bool // the dimension is removed from the result
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	n := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = n
		n *= shape[i]
	}
	return s
}

// gather builds a new array from arr by picking positions along each
// dimension. A nil entry in picks selects every position. Dimensions
// flagged in drop must have exactly one pick and are removed from the
// output shape.
func gather(arr *sparse.DenseArray, picks [][]int, drop []bool) *sparse.DenseArray {
	shape := arr.Shape
	inStrides := strides(shape)
	lens := make([]int, len(shape))
	var outShape []int
	for i := range shape {
		if picks[i] == nil {
			lens[i] = shape[i]
		} else {
			lens[i] = len(picks[i])
		}
		if !drop[i] {
			outShape = append(outShape, lens[i])
		}
	}
	out := sparse.ZerosDense(outShape...)
	n := prod(lens)
	if n == 0 {
		return out
	}
	counter := make([]int, len(shape))
	for k := 0; k < n; k++ {
		off := 0
		missing := false
		for i, c := range counter {
			p := c
			if picks[i] != nil {
				p = picks[i][c]
			}
			if p < 0 {
				missing = true
				break
			}
			off += p * inStrides[i]
		}
		if missing {
			out.Elements[k] = math.NaN()
		} else {
			out.Elements[k] = arr.Elements[off]
		}
		for i := len(counter) - 1; i >= 0; i-- {
			counter[i]++
			if counter[i] < lens[i] {
				break
			}
			counter[i] = 0
		}
	}
	return out
}

// isel applies the selections whose dimensions appear in v. If none do, v
// itself is returned.
func (v *Variable) isel(sel map[string]dimSelection) (*Variable, error) {
	touched := false
	for _, d := range v.dims {
		if _, ok := sel[d]; ok {
			touched = true
			break
		}
	}
	if !touched {
		return v, nil
	}
	arr, err := v.Values()
	if err != nil {
		return nil, err
	}
	picks := make([][]int, len(v.dims))
	drop := make([]bool, len(v.dims))
	var dims []string
	for i, d := range v.dims {
		if s, ok := sel[d]; ok {
			picks[i] = s.positions
			drop[i] = s.drop
		}
		if !drop[i] {
			dims = append(dims, d)
		}
	}
	return fromArray(v.kind, dims, gather(arr, picks, drop), v.attrs.Copy(), v.encoding), nil
}

// take selects positions along dim; -1 positions become missing values.
func (v *Variable) take(dim string, positions []int) (*Variable, error) {
	return v.isel(map[string]dimSelection{dim: {positions: positions}})
}

// unionDims returns the dimensions of a followed by the dimensions of b
// that a lacks, with their sizes.
func unionDims(a, b *Variable) ([]string, map[string]int, error) {
	dims := copyStrings(a.dims)
	sizes := make(map[string]int, len(a.dims)+len(b.dims))
	for i, d := range a.dims {
		sizes[d] = a.shape[i]
	}
	for i, d := range b.dims {
		if s, ok := sizes[d]; ok {
			if s != b.shape[i] {
				return nil, nil, fmt.Errorf("dimension %q has size %d and %d: %w", d, s, b.shape[i], ErrShape)
			}
			continue
		}
		sizes[d] = b.shape[i]
		dims = append(dims, d)
	}
	return dims, sizes, nil
}

// expand broadcasts v onto dims, which must contain every dimension of v.
// Sizes of new dimensions are taken from sizes. The result's dimension
// order is dims.
func (v *Variable) expand(dims []string, sizes map[string]int) (*Variable, error) {
	if sameStrings(v.dims, dims) {
		return v, nil
	}
	if err := checkDims(dims); err != nil {
		return nil, err
	}
	for _, d := range v.dims {
		if indexOf(dims, d) < 0 {
			return nil, fmt.Errorf("cannot expand variable with dimensions %v onto %v: %w", v.dims, dims, ErrShape)
		}
	}
	arr, err := v.Values()
	if err != nil {
		return nil, err
	}
	inStrides := strides(v.shape)
	outShape := make([]int, len(dims))
	mapped := make([]int, len(dims))
	for i, d := range dims {
		if j := indexOf(v.dims, d); j >= 0 {
			outShape[i] = v.shape[j]
			mapped[i] = inStrides[j]
			continue
		}
		s, ok := sizes[d]
		if !ok {
			return nil, fmt.Errorf("no size given for new dimension %q: %w", d, ErrShape)
		}
		outShape[i] = s
	}
	out := sparse.ZerosDense(outShape...)
	n := prod(outShape)
	counter := make([]int, len(dims))
	for k := 0; k < n; k++ {
		off := 0
		for i, c := range counter {
			off += c * mapped[i]
		}
		out.Elements[k] = arr.Elements[off]
		for i := len(counter) - 1; i >= 0; i-- {
			counter[i]++
			if counter[i] < outShape[i] {
				break
			}
			counter[i] = 0
		}
	}
	return fromArray(v.kind, copyStrings(dims), out, v.attrs.Copy(), v.encoding), nil
}

// Transpose returns v with its dimensions reordered. With no arguments the
// order is reversed.
func (v *Variable) Transpose(dims ...string) (*Variable, error) {
	if len(dims) == 0 {
		dims = make([]string, len(v.dims))
		for i, d := range v.dims {
			dims[len(dims)-1-i] = d
		}
	}
	if len(dims) != len(v.dims) {
		return nil, fmt.Errorf("transpose dimensions %v must be a permutation of %v: %w", dims, v.dims, ErrInvalidInput)
	}
	return v.expand(dims, nil)
}

// concatVariables joins vars along dim. If dim is one of the dimensions
// of the first variable, the variables are joined along it; otherwise they
// are stacked along a new leading dimension. All variables must have the
// same dimensions in the same order.
func concatVariables(vars []*Variable, dim string) (*Variable, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("no variables to concatenate: %w", ErrInvalidInput)
	}
	first := vars[0]
	if indexOf(first.dims, dim) < 0 {
		stacked := make([]*Variable, len(vars))
		for i, v := range vars {
			dims := append([]string{dim}, v.dims...)
			e, err := v.expand(dims, map[string]int{dim: 1})
			if err != nil {
				return nil, err
			}
			stacked[i] = e
		}
		vars = stacked
		first = vars[0]
	}
	axis := indexOf(first.dims, dim)
	outShape := copyInts(first.shape)
	outShape[axis] = 0
	for _, v := range vars {
		if v.kind != first.kind {
			return nil, fmt.Errorf("cannot concatenate %s and %s variables along %q: %w", first.kind, v.kind, dim, ErrInvalidInput)
		}
		if !sameStrings(v.dims, first.dims) {
			return nil, fmt.Errorf("cannot concatenate variables with dimensions %v and %v: %w", first.dims, v.dims, ErrShape)
		}
		for i := range v.shape {
			if i != axis && v.shape[i] != first.shape[i] {
				return nil, fmt.Errorf("cannot concatenate along %q: dimension %q has sizes %d and %d: %w",
					dim, v.dims[i], first.shape[i], v.shape[i], ErrShape)
			}
		}
		outShape[axis] += v.shape[axis]
	}
	out := sparse.ZerosDense(outShape...)
	outer := prod(outShape[:axis])
	inner := prod(outShape[axis+1:])
	total := outShape[axis]
	cum := 0
	for _, v := range vars {
		arr, err := v.Values()
		if err != nil {
			return nil, err
		}
		block := v.shape[axis] * inner
		for o := 0; o < outer; o++ {
			copy(out.Elements[(o*total+cum)*inner:], arr.Elements[o*block:(o+1)*block])
		}
		cum += v.shape[axis]
	}
	return fromArray(first.kind, copyStrings(first.dims), out, first.attrs.Copy(), first.encoding), nil
}

// renameDims returns v with dimensions renamed according to names. v is
// returned unchanged if no dimension is renamed.
func (v *Variable) renameDims(names map[string]string) *Variable {
	changed := false
	dims := make([]string, len(v.dims))
	for i, d := range v.dims {
		if n, ok := names[d]; ok {
			dims[i] = n
			changed = true
		} else {
			dims[i] = d
		}
	}
	if !changed {
		return v
	}
	return v.withDims(dims)
}

// count returns, for each position along dim, the number of non-missing
// values of v.
func (v *Variable) count(dim string) ([]int, error) {
	axis := indexOf(v.dims, dim)
	if axis < 0 {
		return nil, fmt.Errorf("variable has no dimension %q: %w", dim, ErrUnknownName)
	}
	arr, err := v.Values()
	if err != nil {
		return nil, err
	}
	counts := make([]int, v.shape[axis])
	st := strides(v.shape)
	for k, e := range arr.Elements {
		if !math.IsNaN(e) {
			counts[(k/st[axis])%v.shape[axis]]++
		}
	}
	return counts, nil
}

// Expand returns v broadcast onto dims, which must include every dimension
// of v. sizes gives the lengths of the dimensions v does not have.
func (v *Variable) Expand(dims []string, sizes map[string]int) (*Variable, error) {
	return v.expand(dims, sizes)
}
