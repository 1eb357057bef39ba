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
	"strings"
)

// coordinatesAttr is the global attribute that records which non-index
// variables are coordinates when a dataset is written to a store.
const coordinatesAttr = "coordinates"

// Store is a source and destination of dataset contents, such as a file.
type Store interface {
	// Load returns the variables and global attributes held by the store.
	// Variable values may be loaded lazily.
	Load() (*Variables, Attributes, error)
	// Store writes variables and global attributes to the store.
	Store(vars *Variables, attrs Attributes) error
	// Sync flushes anything written to the store.
	Sync() error
	// Close releases the store.
	Close() error
}

// OpenStore creates a dataset from the contents of store. The dataset owns
// the store until Close is called.
func OpenStore(store Store) (*Dataset, error) {
	vars, attrs, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("dset: loading store: %w", err)
	}
	coordNames := newStringSet()
	if c, ok := attrs.Get(coordinatesAttr); ok {
		if s, ok := c.(string); ok {
			coordNames.add(strings.Fields(s)...)
			attrs = attrs.Copy()
			attrs.Delete(coordinatesAttr)
		}
	}
	var raw, coords []Input
	vars.Each(func(name string, v *Variable) {
		if coordNames.has(name) {
			coords = append(coords, Var(name, v))
		} else {
			raw = append(raw, Var(name, v))
		}
	})
	ds, err := NewDataset(raw, coords, attrs)
	if err != nil {
		return nil, err
	}
	ds.store = store
	return ds, nil
}

// Close closes the store ds was loaded from, if any.
func (ds *Dataset) Close() error {
	if ds.store == nil {
		return nil
	}
	err := ds.store.Close()
	ds.store = nil
	return err
}

// WithStore opens a dataset from store, calls fn with it, and closes the
// store however fn returns.
func WithStore(store Store, fn func(*Dataset) error) (err error) {
	ds, err := OpenStore(store)
	if err != nil {
		store.Close()
		return err
	}
	defer func() {
		if cerr := ds.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(ds)
}

// DumpToStore writes the variables and attributes of ds to store and syncs
// it.
func (ds *Dataset) DumpToStore(store Store) error {
	attrs := ds.attrs.Copy()
	var coords []string
	for _, n := range sortedNames(ds.coordNames) {
		if _, ok := ds.dims[n]; !ok {
			coords = append(coords, n)
		}
	}
	if len(coords) > 0 {
		attrs.Set(coordinatesAttr, strings.Join(coords, " "))
	}
	if err := store.Store(ds.variables.Copy(), attrs); err != nil {
		return err
	}
	return store.Sync()
}

// MemoryStore is a Store that keeps its contents in memory.
type MemoryStore struct {
	vars   *Variables
	attrs  Attributes
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vars: NewVariables()}
}

// Load implements Store.
func (s *MemoryStore) Load() (*Variables, Attributes, error) {
	if s.closed {
		return nil, nil, fmt.Errorf("dset: memory store is closed")
	}
	return s.vars.Copy(), s.attrs.Copy(), nil
}

// Store implements Store. Variables are stored as deep copies.
func (s *MemoryStore) Store(vars *Variables, attrs Attributes) error {
	if s.closed {
		return fmt.Errorf("dset: memory store is closed")
	}
	var err error
	vars.Each(func(name string, v *Variable) {
		if err != nil {
			return
		}
		var c *Variable
		if c, err = v.Copy(true); err == nil {
			s.vars.Set(name, c)
		}
	})
	if err != nil {
		return err
	}
	for _, a := range attrs {
		s.attrs.Set(a.Name, a.Value)
	}
	return nil
}

// Sync implements Store.
func (s *MemoryStore) Sync() error { return nil }

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.closed = true
	return nil
}

// Closed returns whether Close has been called.
func (s *MemoryStore) Closed() bool { return s.closed }
