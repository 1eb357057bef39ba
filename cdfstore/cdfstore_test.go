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

package cdfstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spatialmodel/dset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset(t *testing.T) *dset.Dataset {
	t.Helper()
	times := []time.Time{
		time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	ds, err := dset.NewDataset(
		[]dset.Input{
			dset.Var("temp", dset.Tuple{
				Dims:  []string{"time", "x"},
				Data:  []float64{1, 2, 3, 4, 5, 6},
				Attrs: dset.Attrs("units", "K", "scale", 1.5, "level", 3),
			}),
			dset.Var("offset", dset.Tuple{Dims: []string{}, Data: 2.5}),
		},
		[]dset.Input{
			dset.Var("time", dset.Tuple{Data: times}),
			dset.Var("x", dset.Tuple{Data: []float64{10, 20, 30}}),
			dset.Var("xlabel", dset.Tuple{Dims: []string{"x"}, Data: []float64{-1, -2, -3}}),
		},
		dset.Attrs("title", "test data", "version", 2),
	)
	require.NoError(t, err)
	return ds
}

func TestRoundTrip(t *testing.T) {
	ds := testDataset(t)
	path := filepath.Join(t.TempDir(), "test.nc")

	w, err := os.Create(path)
	require.NoError(t, err)
	s := Create(w)
	require.NoError(t, ds.DumpToStore(s))
	require.NoError(t, s.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	rs, err := Open(r)
	require.NoError(t, err)

	err = dset.WithStore(rs, func(got *dset.Dataset) error {
		temp, err := got.Variable("temp")
		require.NoError(t, err)
		assert.False(t, temp.Loaded())
		require.NoError(t, got.Load())
		assert.True(t, temp.Loaded())

		assert.True(t, got.Identical(ds), "got:\n%v\nwant:\n%v", got, ds)
		assert.Equal(t, []string{"time", "x", "xlabel"}, got.CoordNames())

		tv, err := got.Variable("time")
		require.NoError(t, err)
		assert.Equal(t, dset.Time, tv.Kind())
		_, ok := tv.Attrs().Get("units")
		assert.False(t, ok)

		month, err := got.Get("time.month")
		require.NoError(t, err)
		vals, err := month.Values()
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 7}, vals.Elements)
		return nil
	})
	require.NoError(t, err)
}

func TestEmptyDimension(t *testing.T) {
	ds := testDataset(t)
	empty, err := ds.Isel(map[string]dset.Selector{"time": dset.Range(0, 0)})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "empty.nc")

	w, err := os.Create(path)
	require.NoError(t, err)
	s := Create(w)
	require.NoError(t, empty.DumpToStore(s))
	require.NoError(t, s.Close())

	r, err := os.Open(path)
	require.NoError(t, err)
	rs, err := Open(r)
	require.NoError(t, err)
	err = dset.WithStore(rs, func(got *dset.Dataset) error {
		assert.Equal(t, map[string]int{"time": 0, "x": 3}, got.Dims())
		temp, err := got.Variable("temp")
		require.NoError(t, err)
		assert.Equal(t, []int{0, 3}, temp.Shape())
		assert.True(t, got.Identical(empty), "got:\n%v\nwant:\n%v", got, empty)
		return nil
	})
	require.NoError(t, err)

	for name, sel := range map[string]map[string]dset.Selector{
		"not outermost": {"x": dset.Range(0, 0)},
		"two empty":     {"x": dset.Range(0, 0), "time": dset.Range(0, 0)},
	} {
		t.Run(name, func(t *testing.T) {
			bad, err := ds.Isel(sel)
			require.NoError(t, err)
			f, err := os.Create(filepath.Join(t.TempDir(), "bad.nc"))
			require.NoError(t, err)
			s := Create(f)
			defer s.Close()
			assert.Error(t, bad.DumpToStore(s))
		})
	}
}

func TestStoreTwice(t *testing.T) {
	ds := testDataset(t)
	f, err := os.Create(filepath.Join(t.TempDir(), "twice.nc"))
	require.NoError(t, err)
	s := Create(f)
	defer s.Close()
	require.NoError(t, ds.DumpToStore(s))
	assert.Error(t, ds.DumpToStore(s))
}

func TestLoadBeforeStore(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "empty.nc"))
	require.NoError(t, err)
	s := Create(f)
	defer s.Close()
	_, err = dset.OpenStore(s)
	assert.Error(t, err)
}

func TestUnsupportedAttribute(t *testing.T) {
	ds := testDataset(t)
	ds.SetAttrs(dset.Attrs("bad", struct{}{}))
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.nc"))
	require.NoError(t, err)
	s := Create(f)
	defer s.Close()
	assert.Error(t, ds.DumpToStore(s))
}
