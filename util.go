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

import "strings"

func prod(s []int) int {
	n := 1
	for _, v := range s {
		n *= v
	}
	return n
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	o := make([]string, len(s))
	copy(o, s)
	return o
}

func copyInts(s []int) []int {
	if s == nil {
		return nil
	}
	o := make([]int, len(s))
	copy(o, s)
	return o
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func joinStrings(s []string, sep string) string { return strings.Join(s, sep) }

// stringSet is a set of names.
type stringSet map[string]struct{}

func newStringSet(names ...string) stringSet {
	s := make(stringSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s stringSet) has(n string) bool {
	_, ok := s[n]
	return ok
}

func (s stringSet) add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

func (s stringSet) copy() stringSet {
	o := make(stringSet, len(s))
	for n := range s {
		o[n] = struct{}{}
	}
	return o
}

func (s stringSet) equal(o stringSet) bool {
	if len(s) != len(o) {
		return false
	}
	for n := range s {
		if !o.has(n) {
			return false
		}
	}
	return true
}
