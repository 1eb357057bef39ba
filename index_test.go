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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexGet(t *testing.T) {
	ix := NewIndex("x", Float, []float64{10, 20, 30, 20})
	assert.Equal(t, 4, ix.Len())
	assert.False(t, ix.Monotonic())

	p, err := ix.Get(30)
	require.NoError(t, err)
	assert.Equal(t, 2, p)

	_, err = ix.Get(20.0)
	assert.True(t, errors.Is(err, ErrLabelNotFound), "duplicate labels are ambiguous")
	_, err = ix.Get(40.0)
	assert.True(t, errors.Is(err, ErrLabelNotFound))
	_, err = ix.Get("30")
	assert.True(t, errors.Is(err, ErrUnsupportedKey))
	_, err = ix.Get(time.Now())
	assert.True(t, errors.Is(err, ErrUnsupportedKey))
}

func TestIndexSliceLocs(t *testing.T) {
	ix := NewIndex("x", Float, []float64{0, 1, 2, 3, 4})
	tests := []struct {
		name              string
		first, last       interface{}
		wantStart, wantSt int
	}{
		{name: "inclusive", first: 1, last: 3, wantStart: 1, wantSt: 4},
		{name: "between labels", first: 0.5, last: 2.5, wantStart: 1, wantSt: 3},
		{name: "open start", last: 1, wantStart: 0, wantSt: 2},
		{name: "open stop", first: 3, wantStart: 3, wantSt: 5},
		{name: "empty", first: 3, last: 1, wantStart: 3, wantSt: 3},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			start, stop, err := ix.SliceLocs(test.first, test.last)
			require.NoError(t, err)
			assert.Equal(t, test.wantStart, start)
			assert.Equal(t, test.wantSt, stop)
		})
	}

	unsorted := NewIndex("x", Float, []float64{3, 1, 2})
	start, stop, err := unsorted.SliceLocs(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, stop)
	_, _, err = unsorted.SliceLocs(1.5, nil)
	assert.True(t, errors.Is(err, ErrLabelNotFound))
}

func TestIndexer(t *testing.T) {
	ix := NewIndex("x", Float, []float64{0, 10, 20})
	target := []float64{-5, 0, 4, 5, 6, 20, 25}
	tests := []struct {
		method FillMethod
		want   []int
	}{
		{method: NoFill, want: []int{-1, 0, -1, -1, -1, 2, -1}},
		{method: Pad, want: []int{-1, 0, 0, 0, 0, 2, 2}},
		{method: Backfill, want: []int{0, 0, 1, 1, 1, 2, -1}},
		{method: Nearest, want: []int{0, 0, 0, 0, 1, 2, 2}},
	}
	for _, test := range tests {
		t.Run(test.method.String(), func(t *testing.T) {
			got, err := ix.Indexer(target, test.method)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}

	unsorted := NewIndex("x", Float, []float64{10, 0})
	_, err := unsorted.Indexer(target, Pad)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	got, err := unsorted.Indexer([]float64{0, 5}, NoFill)
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1}, got)
}

func TestIndexJoin(t *testing.T) {
	a := NewIndex("x", Float, []float64{0, 1, 2})
	b := NewIndex("x", Float, []float64{1, 2, 3})
	assert.Equal(t, []float64{0, 1, 2, 3}, a.union(b).Labels())
	assert.Equal(t, []float64{1, 2}, a.intersection(b).Labels())

	c := NewIndex("x", Float, []float64{2, 0})
	assert.Equal(t, []float64{2, 0, 1}, c.union(a).Labels(), "unsorted indexes keep the first order")
	assert.Equal(t, []float64{2, 0}, c.intersection(a).Labels())
	assert.Equal(t, []float64{}, a.intersection(NewIndex("x", Float, []float64{7})).Labels())
}

func TestParseFillMethod(t *testing.T) {
	for s, want := range map[string]FillMethod{
		"": NoFill, "none": NoFill, "pad": Pad, "ffill": Pad,
		"backfill": Backfill, "bfill": Backfill, "Nearest": Nearest,
	} {
		got, err := ParseFillMethod(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := ParseFillMethod("linear")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
