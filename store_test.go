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
	"fmt"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ds := newTestDataset(t)
	s := NewMemoryStore()
	require.NoError(t, ds.DumpToStore(s))

	coords, ok := s.attrs.Get("coordinates")
	require.True(t, ok)
	assert.Equal(t, "xlabel", coords)
	_, ok = ds.Attrs().Get("coordinates")
	assert.False(t, ok, "the dataset's own attributes are not changed")

	loaded, err := OpenStore(s)
	require.NoError(t, err)
	assert.True(t, loaded.Identical(ds), "%v\n%v", loaded, ds)
	assert.Equal(t, ds.CoordNames(), loaded.CoordNames())

	require.NoError(t, loaded.Close())
	assert.True(t, s.Closed())
	require.NoError(t, loaded.Close())

	_, err = OpenStore(s)
	assert.Error(t, err)
}

func TestMemoryStoreCopies(t *testing.T) {
	ds := newTestDataset(t)
	s := NewMemoryStore()
	require.NoError(t, ds.DumpToStore(s))
	v, err := ds.Variable("temp")
	require.NoError(t, err)
	require.NoError(t, v.SetValue(100, 0, 0))

	stored, _ := s.vars.Get("temp")
	x, err := stored.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, x)
}

// failStore fails to load or store.
type failStore struct {
	closed bool
}

func (s *failStore) Load() (*Variables, Attributes, error) { return nil, nil, fmt.Errorf("no data") }
func (s *failStore) Store(*Variables, Attributes) error   { return fmt.Errorf("read only") }
func (s *failStore) Sync() error                          { return nil }
func (s *failStore) Close() error {
	s.closed = true
	return nil
}

func TestWithStore(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, newTestDataset(t).DumpToStore(s))

	var names []string
	err := WithStore(s, func(ds *Dataset) error {
		names = ds.Names()
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, names, "temp")
	assert.True(t, s.Closed())

	s = NewMemoryStore()
	require.NoError(t, newTestDataset(t).DumpToStore(s))
	sentinel := errors.New("stop")
	err = WithStore(s, func(*Dataset) error { return sentinel })
	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, s.Closed(), "the store is closed when the function fails")

	f := new(failStore)
	err = WithStore(f, func(*Dataset) error { return nil })
	assert.Error(t, err)
	assert.True(t, f.closed)

	assert.Error(t, newTestDataset(t).DumpToStore(f))
}

func TestLazyStore(t *testing.T) {
	loads := 0
	v, err := NewLazyVariable(Float, []string{"x"}, []int{3}, func() (*sparse.DenseArray, error) {
		loads++
		return dense([]int{3}, 1, 2, 3), nil
	}, nil)
	require.NoError(t, err)
	s := NewMemoryStore()
	s.vars.Set("v", v)

	ds, err := OpenStore(s)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 3}, ds.Dims())
	assert.Equal(t, 0, loads, "opening a store does not load values")
	require.NoError(t, ds.Load())
	assert.Equal(t, 1, loads)
}
