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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsVariable(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		dims []string
		kind Kind
		want []float64
	}{
		{name: "floats", val: Tuple{Data: []float64{1, 2}}, dims: []string{"floats"}, kind: Float, want: []float64{1, 2}},
		{name: "float32", val: Tuple{Dims: []string{"x"}, Data: []float32{1.5}}, dims: []string{"x"}, kind: Float, want: []float64{1.5}},
		{name: "ints", val: Tuple{Dims: []string{"x"}, Data: []int{3, 4}}, dims: []string{"x"}, kind: Float, want: []float64{3, 4}},
		{name: "int", val: Tuple{Data: 7}, kind: Float, want: []float64{7}},
		{name: "time", val: Tuple{Data: jan15}, kind: Time, want: []float64{timeToSeconds(jan15)}},
		{name: "array", val: Tuple{Dims: []string{"a", "b"}, Data: dense([]int{1, 2}, 5, 6)}, dims: []string{"a", "b"}, kind: Float, want: []float64{5, 6}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := asVariable(test.name, test.val)
			require.NoError(t, err)
			assert.Equal(t, test.dims, v.Dims())
			assert.Equal(t, test.kind, v.Kind())
			arr, err := v.Values()
			require.NoError(t, err)
			assert.Equal(t, test.want, arr.Elements)
		})
	}

	v := mustVariable(t, []string{"x"}, []int{1})
	got, err := asVariable("v", v)
	require.NoError(t, err)
	assert.True(t, got == v)

	var nilVar *Variable
	_, err = asVariable("v", nilVar)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = asVariable("v", Tuple{Data: []string{"a"}})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
