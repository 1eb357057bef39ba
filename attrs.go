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
	"reflect"
)

// Attribute is a single metadata entry.
type Attribute struct {
	Name  string
	Value interface{}
}

// Attributes holds metadata in insertion order. The zero value is an empty
// set of attributes.
type Attributes []Attribute

// Attrs creates attributes from alternating names and values, e.g.
// Attrs("units", "K", "long_name", "temperature").
func Attrs(kv ...interface{}) Attributes {
	var a Attributes
	for i := 0; i+1 < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			continue
		}
		a.Set(name, kv[i+1])
	}
	return a
}

// Get returns the value of the named attribute.
func (a Attributes) Get(name string) (interface{}, bool) {
	for _, at := range a {
		if at.Name == name {
			return at.Value, true
		}
	}
	return nil, false
}

// Set adds or replaces the named attribute, keeping its position if it
// already exists.
func (a *Attributes) Set(name string, value interface{}) {
	for i, at := range *a {
		if at.Name == name {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Name: name, Value: value})
}

// Delete removes the named attribute if it exists.
func (a *Attributes) Delete(name string) {
	for i, at := range *a {
		if at.Name == name {
			*a = append((*a)[:i:i], (*a)[i+1:]...)
			return
		}
	}
}

// Names returns the attribute names in order.
func (a Attributes) Names() []string {
	o := make([]string, len(a))
	for i, at := range a {
		o[i] = at.Name
	}
	return o
}

// Copy returns a copy of a. Values themselves are not copied.
func (a Attributes) Copy() Attributes {
	if a == nil {
		return nil
	}
	o := make(Attributes, len(a))
	copy(o, a)
	return o
}

// Equal returns whether a and b hold the same names and values, in any
// order.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for _, at := range a {
		v, ok := b.Get(at.Name)
		if !ok || !reflect.DeepEqual(at.Value, v) {
			return false
		}
	}
	return true
}
