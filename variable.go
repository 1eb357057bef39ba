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
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Kind specifies how the values of a Variable are interpreted.
type Kind int

const (
	// Float values are plain numbers. NaN marks missing values.
	Float Kind = iota
	// Time values are seconds since 1970-01-01T00:00:00Z. NaN marks
	// missing times.
	Time
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float64"
	case Time:
		return "datetime"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// buffer holds the values of one or more Variables. A buffer created with
// a loader is filled on first access. refs counts the Variables that
// reference the buffer. A Variable writes to its buffer only when it is
// the sole reference.
type buffer struct {
	arr  *sparse.DenseArray
	load func() (*sparse.DenseArray, error)
	refs int
}

func newBuffer(arr *sparse.DenseArray) *buffer {
	return &buffer{arr: arr, refs: 1}
}

func (b *buffer) array() (*sparse.DenseArray, error) {
	if b.arr == nil {
		if b.load == nil {
			return nil, fmt.Errorf("dset: variable has no data")
		}
		arr, err := b.load()
		if err != nil {
			return nil, fmt.Errorf("dset: loading variable data: %w", err)
		}
		b.arr = arr
		b.load = nil
	}
	return b.arr, nil
}

func (b *buffer) loaded() bool { return b.arr != nil }

// Variable is a named-dimension array with metadata. The values of a
// Variable should be treated as read-only except through SetValue, which
// copies buffers that are shared with other Variables before writing.
type Variable struct {
	dims     []string
	shape    []int
	kind     Kind
	buf      *buffer
	attrs    Attributes
	encoding Attributes
}

// NewVariable creates a new floating point variable with the given
// dimensions. The rank of data must equal the number of dimensions.
// data is not copied.
func NewVariable(dims []string, data *sparse.DenseArray, attrs Attributes) (*Variable, error) {
	return newVariableKind(Float, dims, data, attrs)
}

// NewTimeVariable creates a datetime variable with zero or one dimension.
func NewTimeVariable(dims []string, times []time.Time, attrs Attributes) (*Variable, error) {
	switch len(dims) {
	case 0:
		return NewTimeArray(dims, nil, times, attrs)
	case 1:
		return NewTimeArray(dims, []int{len(times)}, times, attrs)
	}
	return nil, fmt.Errorf("datetime variables without a shape can only have 0 or 1 dimensions, not %d: %w",
		len(dims), ErrShape)
}

// NewTimeArray creates a datetime variable with the given shape from times
// in row-major order.
func NewTimeArray(dims []string, shape []int, times []time.Time, attrs Attributes) (*Variable, error) {
	if len(times) != prod(shape) {
		return nil, fmt.Errorf("shape %v needs %d datetimes, not %d: %w", shape, prod(shape), len(times), ErrShape)
	}
	data := sparse.ZerosDense(copyInts(shape)...)
	for i, t := range times {
		data.Elements[i] = timeToSeconds(t)
	}
	return newVariableKind(Time, dims, data, attrs)
}

// NewLazyVariable creates a variable whose values are obtained by calling
// load the first time they are needed. The array returned by load must
// have the given shape.
func NewLazyVariable(kind Kind, dims []string, shape []int, load func() (*sparse.DenseArray, error), attrs Attributes) (*Variable, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("%d dimensions %v for shape %v: %w", len(dims), dims, shape, ErrShape)
	}
	if err := checkDims(dims); err != nil {
		return nil, err
	}
	b := &buffer{refs: 1, load: func() (*sparse.DenseArray, error) {
		arr, err := load()
		if err != nil {
			return nil, err
		}
		if !sameShape(arr.Shape, shape) {
			return nil, fmt.Errorf("loaded shape %v does not match declared shape %v: %w", arr.Shape, shape, ErrShape)
		}
		return arr, nil
	}}
	return &Variable{
		dims:  copyStrings(dims),
		shape: copyInts(shape),
		kind:  kind,
		buf:   b,
		attrs: attrs.Copy(),
	}, nil
}

func newVariableKind(kind Kind, dims []string, data *sparse.DenseArray, attrs Attributes) (*Variable, error) {
	if data == nil {
		return nil, fmt.Errorf("nil data: %w", ErrInvalidInput)
	}
	if len(dims) != len(data.Shape) {
		return nil, fmt.Errorf("%d dimensions %v for data with shape %v: %w", len(dims), dims, data.Shape, ErrShape)
	}
	if err := checkDims(dims); err != nil {
		return nil, err
	}
	if n := prod(data.Shape); len(data.Elements) != n {
		return nil, fmt.Errorf("shape %v needs %d values but data has %d: %w", data.Shape, n, len(data.Elements), ErrShape)
	}
	return &Variable{
		dims:  copyStrings(dims),
		shape: copyInts(data.Shape),
		kind:  kind,
		buf:   newBuffer(data),
		attrs: attrs.Copy(),
	}, nil
}

// fromArray wraps an array produced internally; no checks are performed.
func fromArray(kind Kind, dims []string, arr *sparse.DenseArray, attrs, encoding Attributes) *Variable {
	return &Variable{
		dims:     dims,
		shape:    copyInts(arr.Shape),
		kind:     kind,
		buf:      newBuffer(arr),
		attrs:    attrs,
		encoding: encoding,
	}
}

func checkDims(dims []string) error {
	seen := make(map[string]bool, len(dims))
	for _, d := range dims {
		if seen[d] {
			return fmt.Errorf("repeated dimension %q in %v: %w", d, dims, ErrInvalidInput)
		}
		seen[d] = true
	}
	return nil
}

// Dims returns the dimension names of v.
func (v *Variable) Dims() []string { return copyStrings(v.dims) }

// Shape returns the extent of v along each dimension.
func (v *Variable) Shape() []int { return copyInts(v.shape) }

// Ndim returns the number of dimensions.
func (v *Variable) Ndim() int { return len(v.dims) }

// Size returns the total number of elements.
func (v *Variable) Size() int { return prod(v.shape) }

// Kind returns how the values of v are interpreted.
func (v *Variable) Kind() Kind { return v.kind }

// Attrs returns the metadata of v.
func (v *Variable) Attrs() Attributes { return v.attrs }

// Encoding returns the serialization hints of v.
func (v *Variable) Encoding() Attributes { return v.encoding }

// Loaded returns whether the values of v are in memory.
func (v *Variable) Loaded() bool { return v.buf.loaded() }

// Load reads the values of v into memory if they are lazily backed.
func (v *Variable) Load() error {
	_, err := v.buf.array()
	return err
}

// Values returns the array holding the values of v. The array may be
// shared with other variables and must not be modified.
func (v *Variable) Values() (*sparse.DenseArray, error) {
	return v.buf.array()
}

// Times returns the values of a datetime variable in row-major order.
// Missing values are returned as the zero time.
func (v *Variable) Times() ([]time.Time, error) {
	if v.kind != Time {
		return nil, fmt.Errorf("variable of kind %s is not a datetime: %w", v.kind, ErrInvalidInput)
	}
	arr, err := v.Values()
	if err != nil {
		return nil, err
	}
	o := make([]time.Time, len(arr.Elements))
	for i, s := range arr.Elements {
		if !math.IsNaN(s) {
			o[i] = secondsToTime(s)
		}
	}
	return o, nil
}

// At returns the value at the given position.
func (v *Variable) At(index ...int) (float64, error) {
	off, err := v.offset(index)
	if err != nil {
		return math.NaN(), err
	}
	arr, err := v.Values()
	if err != nil {
		return math.NaN(), err
	}
	return arr.Elements[off], nil
}

// SetValue sets the value at the given position. If the buffer of v is
// shared with another variable, it is copied first so the other variable
// is not affected.
func (v *Variable) SetValue(val float64, index ...int) error {
	off, err := v.offset(index)
	if err != nil {
		return err
	}
	if err := v.ensureOwned(); err != nil {
		return err
	}
	v.buf.arr.Elements[off] = val
	return nil
}

func (v *Variable) offset(index []int) (int, error) {
	if len(index) != len(v.shape) {
		return 0, fmt.Errorf("%d indices for variable with dimensions %v: %w", len(index), v.dims, ErrOutOfRange)
	}
	off := 0
	for i, ix := range index {
		if ix < 0 || ix >= v.shape[i] {
			return 0, fmt.Errorf("index %d along %q with size %d: %w", ix, v.dims[i], v.shape[i], ErrOutOfRange)
		}
		off = off*v.shape[i] + ix
	}
	return off, nil
}

// ensureOwned makes the buffer of v private to v.
func (v *Variable) ensureOwned() error {
	arr, err := v.buf.array()
	if err != nil {
		return err
	}
	if v.buf.refs > 1 {
		v.buf.refs--
		v.buf = newBuffer(copyArray(arr))
	}
	return nil
}

// Copy returns a copy of v. A deep copy duplicates the values; a shallow
// copy shares them until either variable is written to.
func (v *Variable) Copy(deep bool) (*Variable, error) {
	o := v.shallow()
	if deep {
		arr, err := v.Values()
		if err != nil {
			return nil, err
		}
		o.buf = newBuffer(copyArray(arr))
		o.encoding = v.encoding.Copy()
		return o, nil
	}
	o.buf = v.buf
	v.buf.refs++
	return o, nil
}

// shallow copies the header of v. The caller is responsible for setting buf.
func (v *Variable) shallow() *Variable {
	return &Variable{
		dims:     copyStrings(v.dims),
		shape:    copyInts(v.shape),
		kind:     v.kind,
		attrs:    v.attrs.Copy(),
		encoding: v.encoding,
	}
}

// share returns a new header for the values of v. The values are copied
// when either header is written to.
func (v *Variable) share() *Variable { return v.withDims(copyStrings(v.dims)) }

// withDims returns a shallow copy of v with renamed dimensions.
func (v *Variable) withDims(dims []string) *Variable {
	o := v.shallow()
	o.dims = dims
	o.buf = v.buf
	v.buf.refs++
	return o
}

// Equals returns whether v and o have the same dimensions and values.
// Missing values in the same positions are considered equal.
func (v *Variable) Equals(o *Variable) bool {
	eq, err := v.equals(o)
	return err == nil && eq
}

// Identical returns whether v and o are equal and have the same
// attributes.
func (v *Variable) Identical(o *Variable) bool {
	return v.attrs.Equal(o.attrs) && v.Equals(o)
}

// BroadcastEquals returns whether v and o are equal after both are
// broadcast against each other.
func (v *Variable) BroadcastEquals(o *Variable) bool {
	eq, err := v.broadcastEquals(o)
	return err == nil && eq
}

func (v *Variable) equals(o *Variable) (bool, error) {
	if v == o {
		return true, nil
	}
	if v.kind != o.kind || !sameStrings(v.dims, o.dims) || !sameShape(v.shape, o.shape) {
		return false, nil
	}
	if v.buf == o.buf {
		return true, nil
	}
	a, err := v.Values()
	if err != nil {
		return false, err
	}
	b, err := o.Values()
	if err != nil {
		return false, err
	}
	return floats.Same(a.Elements, b.Elements), nil
}

func (v *Variable) broadcastEquals(o *Variable) (bool, error) {
	dims, sizes, err := unionDims(v, o)
	if err != nil {
		return false, nil
	}
	a, err := v.expand(dims, sizes)
	if err != nil {
		return false, err
	}
	b, err := o.expand(dims, sizes)
	if err != nil {
		return false, err
	}
	return a.equals(b)
}

// compare reports whether v and o agree under compat.
func (v *Variable) compare(o *Variable, compat Compat) (bool, error) {
	switch compat {
	case BroadcastEquals:
		return v.broadcastEquals(o)
	case Equals:
		return v.equals(o)
	case Identical:
		if !v.attrs.Equal(o.attrs) {
			return false, nil
		}
		return v.equals(o)
	default:
		return false, fmt.Errorf("comparison mode %v: %w", compat, ErrInvalidInput)
	}
}

// String returns a short description of v including up to the first few
// values.
func (v *Variable) String() string {
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "<Variable (%s) %s %v>", joinStrings(v.dims, ", "), v.kind, v.shape)
	if !v.buf.loaded() {
		b.WriteString(" [lazy]")
		return b.String()
	}
	const maxShown = 6
	b.WriteString(" [")
	for i, e := range v.buf.arr.Elements {
		if i == maxShown {
			b.WriteString(" ...")
			break
		}
		if i > 0 {
			b.WriteString(" ")
		}
		if v.kind == Time && !math.IsNaN(e) {
			b.WriteString(secondsToTime(e).Format(time.RFC3339))
		} else {
			fmt.Fprintf(b, "%g", e)
		}
	}
	b.WriteString("]")
	return b.String()
}

func timeToSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// secondsToTime converts seconds since the epoch back to a time, rounded to
// the nearest microsecond to remove floating point noise.
func secondsToTime(s float64) time.Time {
	sec := math.Floor(s)
	us := math.Round((s - sec) * 1e6)
	return time.Unix(int64(sec), int64(us)*1e3).UTC()
}

// copyArray copies the shape and values of a. DenseArray.Copy is not used
// because it relies on fields that are unset in arrays built as literals.
func copyArray(a *sparse.DenseArray) *sparse.DenseArray {
	o := sparse.ZerosDense(copyInts(a.Shape)...)
	copy(o.Elements, a.Elements)
	return o
}
