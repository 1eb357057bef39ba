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

// Variables is an ordered mapping from names to variables. The zero value
// is an empty mapping.
type Variables struct {
	names []string
	m     map[string]*Variable
}

// NewVariables creates an empty mapping.
func NewVariables() *Variables {
	return &Variables{m: make(map[string]*Variable)}
}

// Len returns the number of variables.
func (vs *Variables) Len() int {
	if vs == nil {
		return 0
	}
	return len(vs.names)
}

// Names returns the variable names in order.
func (vs *Variables) Names() []string {
	if vs == nil {
		return nil
	}
	return copyStrings(vs.names)
}

// Get returns the named variable.
func (vs *Variables) Get(name string) (*Variable, bool) {
	if vs == nil || vs.m == nil {
		return nil, false
	}
	v, ok := vs.m[name]
	return v, ok
}

// Has returns whether name is present.
func (vs *Variables) Has(name string) bool {
	_, ok := vs.Get(name)
	return ok
}

// Set adds or replaces a variable. Replaced variables keep their position.
func (vs *Variables) Set(name string, v *Variable) {
	if vs.m == nil {
		vs.m = make(map[string]*Variable)
	}
	if _, ok := vs.m[name]; !ok {
		vs.names = append(vs.names, name)
	}
	vs.m[name] = v
}

// Delete removes the named variable if present.
func (vs *Variables) Delete(name string) {
	if _, ok := vs.m[name]; !ok {
		return
	}
	delete(vs.m, name)
	for i, n := range vs.names {
		if n == name {
			vs.names = append(vs.names[:i:i], vs.names[i+1:]...)
			break
		}
	}
}

// Copy returns a new mapping holding the same variables.
func (vs *Variables) Copy() *Variables {
	if vs == nil {
		return NewVariables()
	}
	o := &Variables{
		names: copyStrings(vs.names),
		m:     make(map[string]*Variable, len(vs.m)),
	}
	for k, v := range vs.m {
		o.m[k] = v
	}
	return o
}

// shared returns a new mapping whose variables share the values of vs
// copy-on-write.
func (vs *Variables) shared() *Variables {
	o := NewVariables()
	vs.Each(func(name string, v *Variable) { o.Set(name, v.share()) })
	return o
}

// Update sets every variable of other in vs, in other's order.
func (vs *Variables) Update(other *Variables) {
	for _, n := range other.Names() {
		v, _ := other.Get(n)
		vs.Set(n, v)
	}
}

// Each calls fn for each variable in order.
func (vs *Variables) Each(fn func(name string, v *Variable)) {
	if vs == nil {
		return
	}
	for _, n := range vs.names {
		fn(n, vs.m[n])
	}
}
