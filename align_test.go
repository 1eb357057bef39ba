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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xDataset(t *testing.T, labels []float64, vals []float64) *Dataset {
	t.Helper()
	ds, err := NewDataset(
		[]Input{Var("v", Tuple{Dims: []string{"x"}, Data: vals})},
		[]Input{Var("x", Tuple{Data: labels})},
		nil,
	)
	require.NoError(t, err)
	return ds
}

func TestAlign(t *testing.T) {
	a := xDataset(t, []float64{0, 1, 2}, []float64{10, 11, 12})
	b := xDataset(t, []float64{1, 2}, []float64{21, 22})

	t.Run("inner", func(t *testing.T) {
		r, err := Align(Inner, a, b)
		require.NoError(t, err)
		for _, ds := range r {
			assert.Equal(t, []float64{1, 2}, elements(t, ds, "x"))
		}
		assert.Equal(t, []float64{11, 12}, elements(t, r[0], "v"))
		assert.Equal(t, []float64{21, 22}, elements(t, r[1], "v"))
	})
	t.Run("outer", func(t *testing.T) {
		r, err := Align(Outer, a, b)
		require.NoError(t, err)
		for _, ds := range r {
			assert.Equal(t, []float64{0, 1, 2}, elements(t, ds, "x"))
		}
		assert.True(t, r[0] == a, "an object that does not change is returned as is")
		v := elements(t, r[1], "v")
		assert.True(t, math.IsNaN(v[0]))
		assert.Equal(t, []float64{21, 22}, v[1:])
	})
	t.Run("left", func(t *testing.T) {
		r, err := Align(Left, b, a)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, elements(t, r[1], "x"))
		assert.Equal(t, []float64{11, 12}, elements(t, r[1], "v"))
	})
	t.Run("right", func(t *testing.T) {
		r, err := Align(Right, a, b)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, elements(t, r[0], "x"))
	})
	t.Run("unsorted outer", func(t *testing.T) {
		c := xDataset(t, []float64{2, 0}, []float64{32, 30})
		r, err := Align(Outer, c, b)
		require.NoError(t, err)
		assert.Equal(t, []float64{2, 0, 1}, elements(t, r[0], "x"))
		v := elements(t, r[0], "v")
		assert.Equal(t, []float64{32, 30}, v[:2])
		assert.True(t, math.IsNaN(v[2]))
	})
	t.Run("mixed kinds", func(t *testing.T) {
		ts, err := NewDataset(nil, []Input{Var("x", Tuple{Data: []time.Time{jan15}})}, nil)
		require.NoError(t, err)
		_, err = Align(Outer, a, ts)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestParseJoin(t *testing.T) {
	for _, j := range []Join{Outer, Inner, Left, Right} {
		got, err := ParseJoin(j.String())
		require.NoError(t, err)
		assert.Equal(t, j, got)
	}
	_, err := ParseJoin("exact")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
