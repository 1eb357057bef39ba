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

// Package cdfstore reads and writes datasets as NetCDF classic files.
package cdfstore

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/dset"
)

// TimeUnits is the units attribute of variables holding times, stored as
// seconds since the Unix epoch.
const TimeUnits = "seconds since 1970-01-01 00:00:00"

// Store is a dset.Store backed by a NetCDF file.
type Store struct {
	rw cdf.ReaderWriterAt
	f  *cdf.File
}

// Open returns a store that reads the NetCDF file in rw. Variable values
// are read when they are first used.
func Open(rw cdf.ReaderWriterAt) (*Store, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("cdfstore: %v", err)
	}
	return &Store{rw: rw, f: f}, nil
}

// Create returns an empty store that will be written to w when Store is
// called.
func Create(w cdf.ReaderWriterAt) *Store {
	return &Store{rw: w}
}

// Load implements dset.Store.
func (s *Store) Load() (*dset.Variables, dset.Attributes, error) {
	if s.f == nil {
		return nil, nil, fmt.Errorf("cdfstore: nothing has been stored")
	}
	h := s.f.Header
	vars := dset.NewVariables()
	for _, name := range h.Variables() {
		v, err := s.variable(name)
		if err != nil {
			return nil, nil, fmt.Errorf("cdfstore: loading variable %s: %v", name, err)
		}
		vars.Set(name, v)
	}
	return vars, readAttributes(h, ""), nil
}

func (s *Store) variable(name string) (*dset.Variable, error) {
	h := s.f.Header
	dims := h.Dimensions(name)
	shape := append([]int{}, h.Lengths(name)...)
	if h.IsRecordVariable(name) {
		n, err := s.numRecs()
		if err != nil {
			return nil, err
		}
		shape[0] = n
	}
	attrs := readAttributes(h, name)
	kind := dset.Float
	if u, ok := attrs.Get("units"); ok && u == TimeUnits {
		kind = dset.Time
		attrs.Delete("units")
	}
	f := s.f
	load := func() (*sparse.DenseArray, error) {
		arr := sparse.ZerosDense(shape...)
		if len(arr.Elements) == 0 {
			return arr, nil
		}
		tmp := h.ZeroValue(name, len(arr.Elements))
		if _, err := f.Reader(name, nil, nil).Read(tmp); err != nil && err != io.EOF {
			return nil, fmt.Errorf("cdfstore: reading %s: %v", name, err)
		}
		switch t := tmp.(type) {
		case []float64:
			copy(arr.Elements, t)
		case []float32:
			for i, v := range t {
				arr.Elements[i] = float64(v)
			}
		case []int32:
			for i, v := range t {
				arr.Elements[i] = float64(v)
			}
		case []int16:
			for i, v := range t {
				arr.Elements[i] = float64(v)
			}
		case []uint8:
			for i, v := range t {
				arr.Elements[i] = float64(v)
			}
		default:
			return nil, fmt.Errorf("cdfstore: variable %s has unsupported type %T", name, tmp)
		}
		return arr, nil
	}
	return dset.NewLazyVariable(kind, dims, shape, load, attrs)
}

// numRecs returns the length of the record dimension, which is only
// known from the size of the file.
func (s *Store) numRecs() (int, error) {
	st, ok := s.rw.(interface {
		Stat() (os.FileInfo, error)
	})
	if !ok {
		return 0, fmt.Errorf("record variables need a file whose size is known")
	}
	fi, err := st.Stat()
	if err != nil {
		return 0, err
	}
	return int(s.f.Header.NumRecs(fi.Size())), nil
}

func readAttributes(h *cdf.Header, v string) dset.Attributes {
	var o dset.Attributes
	for _, a := range h.Attributes(v) {
		var val interface{}
		switch t := h.GetAttribute(v, a).(type) {
		case string:
			val = t
		case []float64:
			val = unwrapFloat64(t)
		case []float32:
			f := make([]float64, len(t))
			for i, x := range t {
				f[i] = float64(x)
			}
			val = unwrapFloat64(f)
		case []int32:
			if len(t) == 1 {
				val = int(t[0])
			} else {
				val = append([]int32{}, t...)
			}
		case []int16:
			val = append([]int16{}, t...)
		case []uint8:
			val = append([]uint8{}, t...)
		default:
			continue
		}
		o.Set(a, val)
	}
	return o
}

func unwrapFloat64(f []float64) interface{} {
	if len(f) == 1 {
		return f[0]
	}
	return append([]float64{}, f...)
}

// Store implements dset.Store. It writes the header and then every
// variable, in sorted order, as double precision values. A store can only
// be written once. A dimension of length zero is written as the record
// dimension, so there may be at most one and it must be the first
// dimension of every variable that uses it.
func (s *Store) Store(vars *dset.Variables, attrs dset.Attributes) error {
	if s.f != nil {
		return fmt.Errorf("cdfstore: file has already been written")
	}
	dimSizes := make(map[string]int)
	vars.Each(func(_ string, v *dset.Variable) {
		shape := v.Shape()
		for i, d := range v.Dims() {
			dimSizes[d] = shape[i]
		}
	})
	dims := make([]string, 0, len(dimSizes))
	for d := range dimSizes {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	lengths := make([]int, len(dims))
	record := ""
	for i, d := range dims {
		if dimSizes[d] == 0 {
			if record != "" {
				return fmt.Errorf("cdfstore: dimensions %s and %s both have zero length; only one record dimension is allowed", record, d)
			}
			record = d
		}
		lengths[i] = dimSizes[d]
	}
	if record != "" {
		var err error
		vars.Each(func(name string, v *dset.Variable) {
			for i, d := range v.Dims() {
				if d == record && i != 0 && err == nil {
					err = fmt.Errorf("cdfstore: variable %s: zero-length dimension %s must be its first dimension", name, d)
				}
			}
		})
		if err != nil {
			return err
		}
	}

	h := cdf.NewHeader(dims, lengths)
	for _, a := range attrs {
		if err := addAttribute(h, "", a); err != nil {
			return err
		}
	}

	// Sort the names so they write in the same order every time.
	names := vars.Names()
	sort.Strings(names)

	for _, name := range names {
		v, _ := vars.Get(name)
		h.AddVariable(name, v.Dims(), []float64{0})
		for _, a := range v.Attrs() {
			if v.Kind() == dset.Time && a.Name == "units" {
				continue
			}
			if err := addAttribute(h, name, a); err != nil {
				return err
			}
		}
		if v.Kind() == dset.Time {
			h.AddAttribute(name, "units", TimeUnits)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("cdfstore: invalid header: %v", errs[0])
	}

	f, err := cdf.Create(s.rw, h)
	if err != nil {
		return fmt.Errorf("cdfstore: %v", err)
	}
	for _, name := range names {
		v, _ := vars.Get(name)
		if err := writeVariable(f, name, v); err != nil {
			return fmt.Errorf("cdfstore: writing variable %s: %v", name, err)
		}
	}
	s.f = f
	return nil
}

func writeVariable(f *cdf.File, name string, v *dset.Variable) error {
	arr, err := v.Values()
	if err != nil {
		return err
	}
	if len(arr.Elements) == 0 {
		return nil
	}
	// The writer reports io.EOF once the variable is filled.
	if _, err = f.Writer(name, nil, nil).Write(arr.Elements); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func addAttribute(h *cdf.Header, v string, a dset.Attribute) error {
	var val interface{}
	switch t := a.Value.(type) {
	case string:
		val = t
	case float64:
		val = []float64{t}
	case float32:
		val = []float32{t}
	case int:
		val = []int32{int32(t)}
	case int32:
		val = []int32{t}
	case []float64, []float32, []int32, []int16, []uint8:
		val = t
	case []int:
		i32 := make([]int32, len(t))
		for i, x := range t {
			i32[i] = int32(x)
		}
		val = i32
	case bool:
		val = fmt.Sprint(t)
	default:
		return fmt.Errorf("cdfstore: attribute %s of type %T cannot be stored", a.Name, a.Value)
	}
	h.AddAttribute(v, a.Name, val)
	return nil
}

// Sync implements dset.Store. If the store is backed by an *os.File the
// record count in the header is updated and the file is synced.
func (s *Store) Sync() error {
	f, ok := s.rw.(*os.File)
	if !ok || s.f == nil {
		return nil
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("cdfstore: %v", err)
	}
	return f.Sync()
}

// Close implements dset.Store, closing the underlying storage if it is an
// io.Closer.
func (s *Store) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
