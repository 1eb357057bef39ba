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
	"sort"
	"strings"
	"time"

	"github.com/ctessum/sparse"
)

// timeComponents lists the suffixes of virtual variables and how each is
// computed from a time.
var timeComponents = []struct {
	name string
	fn   func(t time.Time) float64
}{
	{"year", func(t time.Time) float64 { return float64(t.Year()) }},
	{"month", func(t time.Time) float64 { return float64(t.Month()) }},
	{"day", func(t time.Time) float64 { return float64(t.Day()) }},
	{"hour", func(t time.Time) float64 { return float64(t.Hour()) }},
	{"minute", func(t time.Time) float64 { return float64(t.Minute()) }},
	{"second", func(t time.Time) float64 { return float64(t.Second()) }},
	{"microsecond", func(t time.Time) float64 { return float64(t.Nanosecond() / 1e3) }},
	{"nanosecond", func(t time.Time) float64 { return float64(t.Nanosecond() % 1e3) }},
	{"dayofyear", func(t time.Time) float64 { return float64(t.YearDay()) }},
	{"weekofyear", func(t time.Time) float64 {
		_, w := t.ISOWeek()
		return float64(w)
	}},
	// Monday is 0.
	{"dayofweek", func(t time.Time) float64 { return float64((int(t.Weekday()) + 6) % 7) }},
	{"quarter", func(t time.Time) float64 { return float64((int(t.Month())-1)/3 + 1) }},
	{"season", func(t time.Time) float64 { return float64((int(t.Month())-1)/3 + 1) }},
}

// timeLike returns whether virtual variables can be derived from the
// variable v named name: datetime index coordinates and datetime scalars.
func timeLike(name string, v *Variable) bool {
	if v.kind != Time {
		return false
	}
	return v.Ndim() == 0 || (v.Ndim() == 1 && v.dims[0] == name)
}

// listVirtual returns the sorted names of the virtual variables that can
// be derived from vars.
func listVirtual(vars *Variables) []string {
	var o []string
	vars.Each(func(name string, v *Variable) {
		if !timeLike(name, v) {
			return
		}
		for _, c := range timeComponents {
			key := name + "." + c.name
			if !vars.Has(key) {
				o = append(o, key)
			}
		}
	})
	sort.Strings(o)
	return o
}

// getVirtual computes the virtual variable key, returning it along with
// the name of the variable it is derived from.
func getVirtual(vars *Variables, key string) (string, *Variable, error) {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return "", nil, fmt.Errorf("%q is not of the form variable.component: %w", key, ErrUnsupportedKey)
	}
	ref, suffix := key[:i], key[i+1:]
	v, ok := vars.Get(ref)
	if !ok {
		return "", nil, fmt.Errorf("variable %q: %w", ref, ErrUnknownName)
	}
	if !timeLike(ref, v) {
		return "", nil, fmt.Errorf("%q: variable %q is not a datetime index or scalar: %w", key, ref, ErrUnsupportedKey)
	}
	var fn func(time.Time) float64
	for _, c := range timeComponents {
		if c.name == suffix {
			fn = c.fn
			break
		}
	}
	if fn == nil {
		return "", nil, fmt.Errorf("%q: unknown time component %q: %w", key, suffix, ErrUnsupportedKey)
	}
	arr, err := v.Values()
	if err != nil {
		return "", nil, err
	}
	out := sparse.ZerosDense(copyInts(v.shape)...)
	for i, s := range arr.Elements {
		if math.IsNaN(s) {
			out.Elements[i] = math.NaN()
			continue
		}
		out.Elements[i] = fn(secondsToTime(s))
	}
	return ref, fromArray(Float, copyStrings(v.dims), out, nil, nil), nil
}

// VirtualVariables returns the names of the variables that Get can derive
// from the variables of ds, such as "time.month".
func (ds *Dataset) VirtualVariables() []string {
	return listVirtual(ds.variables)
}
