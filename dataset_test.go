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

var (
	jan15 = time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC)
	jul15 = time.Date(2000, 7, 15, 0, 0, 0, 0, time.UTC)
)

// newTestDataset returns a dataset with a two-dimensional data variable,
// a scalar, two index coordinates and a non-index coordinate.
func newTestDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDataset(
		[]Input{
			Var("temp", Tuple{
				Dims:  []string{"time", "x"},
				Data:  dense([]int{2, 3}, 1, 2, 3, 4, 5, 6),
				Attrs: Attrs("units", "K"),
			}),
			Var("offset", Tuple{Dims: []string{}, Data: 1.5}),
		},
		[]Input{
			Var("time", Tuple{Data: []time.Time{jan15, jul15}}),
			Var("x", Tuple{Data: []float64{0, 1, 2}}),
			Var("xlabel", Tuple{Dims: []string{"x"}, Data: []float64{10, 20, 30}}),
		},
		Attrs("title", "test"),
	)
	require.NoError(t, err)
	return ds
}

func elements(t *testing.T, ds *Dataset, name string) []float64 {
	t.Helper()
	v, err := ds.Variable(name)
	require.NoError(t, err)
	arr, err := v.Values()
	require.NoError(t, err)
	return arr.Elements
}

func TestNewDataset(t *testing.T) {
	ds := newTestDataset(t)
	assert.Equal(t, map[string]int{"time": 2, "x": 3}, ds.Dims())
	assert.Equal(t, []string{"time", "x"}, ds.DimNames())
	assert.Equal(t, []string{"temp", "offset", "time", "x", "xlabel"}, ds.Names())
	assert.Equal(t, []string{"time", "x", "xlabel"}, ds.CoordNames())
	assert.Equal(t, []string{"temp", "offset"}, ds.DataVars().Names())
	assert.Equal(t, 5, ds.Len())
	assert.True(t, ds.Contains("xlabel"))
	assert.False(t, ds.Contains("time.month"))

	tm, err := ds.Variable("time")
	require.NoError(t, err)
	assert.Equal(t, Time, tm.Kind())
	assert.Equal(t, []string{"time"}, tm.Dims())

	_, err = ds.Variable("nope")
	assert.True(t, errors.Is(err, ErrUnknownName))

	ixs, err := ds.Indexes()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, ixs["x"].Labels())
	assert.Equal(t, Time, ixs["time"].Kind())
}

func TestDimensionInvariant(t *testing.T) {
	ds := newTestDataset(t)
	dims := ds.Dims()
	ds.variables.Each(func(name string, v *Variable) {
		for i, d := range v.dims {
			assert.Equal(t, dims[d], v.shape[i], "%s along %s", name, d)
		}
	})
}

func TestDefaultCoords(t *testing.T) {
	ds, err := NewDataset([]Input{
		Var("a", Tuple{Dims: []string{"y"}, Data: []float64{5, 6, 7}}),
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, ds.CoordNames())
	y, err := ds.Variable("y")
	require.NoError(t, err)
	assert.False(t, y.Loaded(), "default coordinates are created when first needed")
	assert.Equal(t, []float64{0, 1, 2}, elements(t, ds, "y"))
}

func TestNewDatasetErrors(t *testing.T) {
	tests := []struct {
		name         string
		vars, coords []Input
		err          error
	}{
		{
			name: "conflicting sizes",
			vars: []Input{
				Var("a", Tuple{Dims: []string{"x"}, Data: []float64{1, 2}}),
				Var("b", Tuple{Dims: []string{"x"}, Data: []float64{1, 2, 3}}),
			},
			err: ErrShape,
		},
		{
			name: "scalar named like a dimension",
			vars: []Input{
				Var("a", Tuple{Dims: []string{"x"}, Data: []float64{1, 2}}),
				Var("x", Tuple{Dims: []string{}, Data: 1.0}),
			},
			err: ErrShape,
		},
		{
			name: "two-dimensional index",
			vars: []Input{
				Var("x", Tuple{Dims: []string{"x", "y"}, Data: dense([]int{2, 2})}),
			},
			err: ErrShape,
		},
		{
			name:   "redundant",
			vars:   []Input{Var("a", Tuple{Data: []float64{1}})},
			coords: []Input{Var("a", Tuple{Data: []float64{1}})},
			err:    ErrConflict,
		},
		{
			name: "not a value",
			vars: []Input{Var("a", nil)},
			err:  ErrInvalidInput,
		},
		{
			name: "unsupported data",
			vars: []Input{Var("a", Tuple{Data: "abc"})},
			err:  ErrInvalidInput,
		},
		{
			name: "disagreeing duplicates",
			vars: []Input{
				Var("a", Tuple{Dims: []string{"x"}, Data: []float64{1, 2}}),
				Var("a", Tuple{Dims: []string{"x"}, Data: []float64{1, 3}}),
			},
			err: ErrConflict,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewDataset(test.vars, test.coords, nil)
			assert.True(t, errors.Is(err, test.err), "%v", err)
		})
	}
}

func TestSetCoords(t *testing.T) {
	ds := newTestDataset(t)
	c, err := ds.SetCoords("offset")
	require.NoError(t, err)
	assert.Equal(t, []string{"offset", "time", "x", "xlabel"}, c.CoordNames())
	assert.Equal(t, []string{"time", "x", "xlabel"}, ds.CoordNames())

	_, err = ds.SetCoords("nope")
	assert.True(t, errors.Is(err, ErrUnknownName))

	r, err := c.ResetCoords(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "x"}, r.CoordNames())
	assert.True(t, r.Contains("xlabel"))

	r, err = c.ResetCoords(true, "xlabel")
	require.NoError(t, err)
	assert.False(t, r.Contains("xlabel"))
	assert.Equal(t, []string{"offset", "time", "x"}, r.CoordNames())

	_, err = ds.ResetCoords(false, "x")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDatasetCopy(t *testing.T) {
	ds := newTestDataset(t)
	for _, deep := range []bool{false, true} {
		c, err := ds.Copy(deep)
		require.NoError(t, err)
		assert.True(t, c.Identical(ds))

		v, err := c.Variable("temp")
		require.NoError(t, err)
		require.NoError(t, v.SetValue(-1, 0, 0))
		assert.Equal(t, 1.0, elements(t, ds, "temp")[0], "deep=%v", deep)
		assert.False(t, c.Equals(ds))
	}
}

func TestEqualsIdentical(t *testing.T) {
	a := newTestDataset(t)
	b := newTestDataset(t)
	assert.True(t, a.Equals(b))
	assert.True(t, a.Identical(b))

	b.SetAttrs(Attrs("title", "other"))
	assert.True(t, a.Equals(b))
	assert.False(t, a.Identical(b))

	c, err := a.SetCoords("offset")
	require.NoError(t, err)
	assert.False(t, a.Equals(c), "coordinate names must match")
	assert.False(t, a.Equals(nil))
}

func TestDatasetString(t *testing.T) {
	s := newTestDataset(t).String()
	assert.Contains(t, s, "(time: 2) (x: 3)")
	assert.Contains(t, s, "* time")
	assert.Contains(t, s, "  xlabel")
	assert.Contains(t, s, "temp")
	assert.Contains(t, s, "title: test")
}

func TestSetScalarDimension(t *testing.T) {
	ds := newTestDataset(t)
	err := ds.Set("x", Tuple{Dims: []string{}, Data: 1.0})
	assert.True(t, errors.Is(err, ErrShape), "%v", err)
	assert.True(t, ds.Identical(newTestDataset(t)), "a failed update must leave the dataset unchanged")
}
