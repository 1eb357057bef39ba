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

func TestVirtualVariables(t *testing.T) {
	ds := newTestDataset(t)

	tests := []struct {
		key  string
		want []float64
	}{
		{key: "time.month", want: []float64{1, 7}},
		{key: "time.season", want: []float64{1, 3}},
		{key: "time.year", want: []float64{2000, 2000}},
		{key: "time.day", want: []float64{15, 15}},
		{key: "time.dayofyear", want: []float64{15, 197}},
		{key: "time.dayofweek", want: []float64{5, 5}},
		{key: "time.quarter", want: []float64{1, 3}},
	}
	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			da, err := ds.Get(test.key)
			require.NoError(t, err)
			assert.Equal(t, []string{"time"}, da.Dims())
			arr, err := da.Values()
			require.NoError(t, err)
			assert.Equal(t, test.want, arr.Elements)
		})
	}
	assert.False(t, ds.Contains("time.month"), "virtual variables are not stored")
}

func TestVirtualVariableErrors(t *testing.T) {
	ds := newTestDataset(t)
	for _, key := range []string{"time.bogus", "x.month", "nope.month", "time.month.day", "temp.year", "nope"} {
		t.Run(key, func(t *testing.T) {
			_, err := ds.Get(key)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedKey) || errors.Is(err, ErrUnknownName), "%v", err)
		})
	}
	_, err := ds.Get("time.bogus")
	assert.True(t, errors.Is(err, ErrUnsupportedKey))
}

func TestVirtualVariableListing(t *testing.T) {
	ds := newTestDataset(t)
	list := ds.VirtualVariables()
	assert.Contains(t, list, "time.month")
	assert.Contains(t, list, "time.season")
	assert.Len(t, list, len(timeComponents))
	for _, key := range list {
		_, err := ds.Get(key)
		assert.NoError(t, err, key)
	}

	scalar, err := ds.Isel(map[string]Selector{"time": At(0)})
	require.NoError(t, err)
	da, err := scalar.Get("time.month")
	require.NoError(t, err)
	assert.Equal(t, 0, len(da.Dims()))
	assert.Len(t, scalar.VirtualVariables(), len(timeComponents))

	// A stored variable shadows the virtual one.
	require.NoError(t, ds.Set("time.month", Tuple{Dims: []string{"time"}, Data: []float64{0, 0}}))
	assert.NotContains(t, ds.VirtualVariables(), "time.month")

	dropped, err := ds.DropVars("time")
	require.NoError(t, err)
	assert.Empty(t, dropped.VirtualVariables())
}

func TestVirtualVariablesDottedName(t *testing.T) {
	ds, err := NewDataset(nil, []Input{Var("t.0", Tuple{Data: []time.Time{jan15, jul15}})}, nil)
	require.NoError(t, err)
	list := ds.VirtualVariables()
	assert.Contains(t, list, "t.0.day")
	assert.Len(t, list, len(timeComponents))
	for _, key := range list {
		_, err := ds.Get(key)
		assert.NoError(t, err, key)
	}
	da, err := ds.Get("t.0.month")
	require.NoError(t, err)
	assert.Equal(t, []string{"t.0"}, da.Dims())
	arr, err := da.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 7}, arr.Elements)

	_, err = ds.Get("t.0.bogus")
	assert.True(t, errors.Is(err, ErrUnsupportedKey))
}

func TestSelect(t *testing.T) {
	ds := newTestDataset(t)
	s, err := ds.Select("temp", "time.season")
	require.NoError(t, err)
	assert.Equal(t, []string{"temp", "time.season", "time", "x", "xlabel"}, s.Names())
	assert.Equal(t, []float64{1, 3}, elements(t, s, "time.season"))
	assert.False(t, s.Contains("offset"))

	_, err = ds.Select("time.bogus")
	assert.True(t, errors.Is(err, ErrUnsupportedKey))

	da, err := ds.Get("temp")
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "x", "xlabel"}, da.Coords().Names())
}
