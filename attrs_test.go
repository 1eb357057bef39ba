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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributes(t *testing.T) {
	a := Attrs("units", "K", "scale", 1.5, 3, "ignored", "long_name")
	assert.Equal(t, []string{"units", "scale"}, a.Names())

	a.Set("units", "C")
	a.Set("offset", 2)
	assert.Equal(t, []string{"units", "scale", "offset"}, a.Names())
	v, ok := a.Get("units")
	assert.True(t, ok)
	assert.Equal(t, "C", v)

	c := a.Copy()
	c.Delete("scale")
	assert.Equal(t, []string{"units", "offset"}, c.Names())
	assert.Equal(t, []string{"units", "scale", "offset"}, a.Names())
	c.Delete("nope")

	b := Attrs("offset", 2, "scale", 1.5, "units", "C")
	assert.True(t, a.Equal(b), "order does not matter")
	b.Set("scale", 2.5)
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	var empty Attributes
	assert.Nil(t, empty.Copy())
	assert.True(t, empty.Equal(nil))
	_, ok = empty.Get("units")
	assert.False(t, ok)
}
