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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	ds := newTestDataset(t)
	tests := []struct {
		expr string
		dims []string
		want []float64
	}{
		{expr: "temp * 2", dims: []string{"time", "x"}, want: []float64{2, 4, 6, 8, 10, 12}},
		{expr: "temp + xlabel", dims: []string{"time", "x"}, want: []float64{11, 22, 33, 14, 25, 36}},
		{expr: "xlabel + temp", dims: []string{"x", "time"}, want: []float64{11, 14, 22, 25, 33, 36}},
		{expr: "[time.month] == 7", dims: []string{"time"}, want: []float64{0, 1}},
		{expr: "max(offset, 2)", dims: nil, want: []float64{2}},
		{expr: "sqrt(xlabel - 1)", dims: []string{"x"}, want: []float64{3, math.Sqrt(19), math.Sqrt(29)}},
	}
	for _, test := range tests {
		t.Run(test.expr, func(t *testing.T) {
			r, err := ds.Eval("out", test.expr)
			require.NoError(t, err)
			v, err := r.Variable("out")
			require.NoError(t, err)
			assert.Equal(t, test.dims, v.Dims())
			assert.Equal(t, test.want, elements(t, r, "out"))
			assert.False(t, ds.Contains("out"))
		})
	}
}

func TestEvalErrors(t *testing.T) {
	ds := newTestDataset(t)
	for _, expr := range []string{"nope * 2", "temp *", "[time.bogus] + 1", "exp(temp, 1)"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ds.Eval("out", expr)
			assert.Error(t, err)
		})
	}
	_, err := ds.Eval("out", "temp *")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestEvalInPlace(t *testing.T) {
	ds := newTestDataset(t)
	require.NoError(t, ds.EvalInPlace(
		Assignment{Name: "double", Expr: "temp * 2"},
		Assignment{Name: "quad", Expr: "double * 2"},
		Assignment{Name: "temp", Expr: "temp - 1"},
	))
	assert.Equal(t, []float64{4, 8, 12, 16, 20, 24}, elements(t, ds, "quad"))
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, elements(t, ds, "temp"))

	before, err := ds.Copy(true)
	require.NoError(t, err)
	err = ds.EvalInPlace(
		Assignment{Name: "ok", Expr: "temp + 1"},
		Assignment{Name: "bad", Expr: "nope + 1"},
	)
	assert.Error(t, err)
	assert.True(t, ds.Identical(before))
}
