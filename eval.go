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

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

// EvalFunctions are the functions available to expressions passed to
// Eval. Callers may add their own.
var EvalFunctions = map[string]govaluate.ExpressionFunction{
	"exp":   unaryFunc("exp", math.Exp),
	"log":   unaryFunc("log", math.Log),
	"sqrt":  unaryFunc("sqrt", math.Sqrt),
	"abs":   unaryFunc("abs", math.Abs),
	"floor": unaryFunc("floor", math.Floor),
	"isnan": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("dset: got %d arguments for function 'isnan', but needs 1", len(args))
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("dset: argument of 'isnan' is %T, not a number", args[0])
		}
		return math.IsNaN(x), nil
	},
	"min": binaryFunc("min", math.Min),
	"max": binaryFunc("max", math.Max),
}

func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("dset: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("dset: argument of '%s' is %T, not a number", name, args[0])
		}
		return f(x), nil
	}
}

func binaryFunc(name string, f func(a, b float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("dset: got %d arguments for function '%s', but needs 2", len(args), name)
		}
		a, ok1 := args[0].(float64)
		b, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("dset: arguments of '%s' are %T and %T, not numbers", name, args[0], args[1])
		}
		return f(a, b), nil
	}
}

// Assignment is an expression whose result is stored under Name.
type Assignment struct {
	Name, Expr string
}

// Eval evaluates expr elementwise and returns a dataset in which the
// result is stored as the variable name. Variables referenced by the
// expression, which may be virtual, are broadcast against each other; use
// brackets for names that are not identifiers, as in "[time.month] * 2".
func (ds *Dataset) Eval(name, expr string) (*Dataset, error) {
	v, err := ds.evaluate(expr)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", name, err)
	}
	return ds.merge(nil, []Input{Var(name, v)}, &mergeOptions{
		compat:    BroadcastEquals,
		join:      Left,
		overwrite: newStringSet(name),
	})
}

// EvalInPlace evaluates the assignments in order, each one seeing the
// results of those before it, and stores the results in ds. If any
// assignment fails ds is left unchanged.
func (ds *Dataset) EvalInPlace(assignments ...Assignment) error {
	cur := ds
	for _, a := range assignments {
		next, err := cur.Eval(a.Name, a.Expr)
		if err != nil {
			return err
		}
		cur = next
	}
	if cur != ds {
		ds.commit(cur)
	}
	return nil
}

func (ds *Dataset) evaluate(expr string) (*Variable, error) {
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, EvalFunctions)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	var names []string
	seen := newStringSet()
	for _, n := range expression.Vars() {
		if !seen.has(n) {
			seen.add(n)
			names = append(names, n)
		}
	}
	vars := make([]*Variable, len(names))
	for i, n := range names {
		v, ok := ds.variables.Get(n)
		if !ok {
			if _, v, err = getVirtual(ds.variables, n); err != nil {
				return nil, err
			}
		}
		vars[i] = v
	}

	var dims []string
	sizes := make(map[string]int)
	for _, v := range vars {
		for i, d := range v.dims {
			if s, ok := sizes[d]; ok && s != v.shape[i] {
				return nil, fmt.Errorf("dimension %q has size %d and %d: %w", d, s, v.shape[i], ErrShape)
			} else if !ok {
				sizes[d] = v.shape[i]
				dims = append(dims, d)
			}
		}
	}
	arrs := make([]*sparse.DenseArray, len(vars))
	for i, v := range vars {
		e, err := v.expand(dims, sizes)
		if err != nil {
			return nil, err
		}
		if arrs[i], err = e.Values(); err != nil {
			return nil, err
		}
	}

	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = sizes[d]
	}
	out := sparse.ZerosDense(shape...)
	params := make(map[string]interface{}, len(names))
	for k := range out.Elements {
		for i, n := range names {
			params[n] = arrs[i].Elements[k]
		}
		r, err := expression.Evaluate(params)
		if err != nil {
			return nil, err
		}
		switch x := r.(type) {
		case float64:
			out.Elements[k] = x
		case bool:
			if x {
				out.Elements[k] = 1
			}
		default:
			return nil, fmt.Errorf("expression %q gives a %T, not a number: %w", expr, r, ErrInvalidInput)
		}
	}
	return fromArray(Float, dims, out, nil, nil), nil
}
