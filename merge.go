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
	"strings"

	"github.com/sirupsen/logrus"
)

// Compat specifies how variables with the same name are compared when
// datasets are merged or concatenated.
type Compat int

const (
	// BroadcastEquals requires equal values once both variables are
	// broadcast against each other.
	BroadcastEquals Compat = iota
	// Equals requires equal dimensions and values.
	Equals
	// Identical requires equal dimensions, values and attributes.
	Identical
)

func (c Compat) String() string {
	switch c {
	case BroadcastEquals:
		return "broadcast_equals"
	case Equals:
		return "equals"
	case Identical:
		return "identical"
	}
	return fmt.Sprintf("Compat(%d)", int(c))
}

// ParseCompat converts a comparison mode name to a Compat.
func ParseCompat(s string) (Compat, error) {
	switch strings.ToLower(s) {
	case "broadcast_equals":
		return BroadcastEquals, nil
	case "equals":
		return Equals, nil
	case "identical":
		return Identical, nil
	}
	return Equals, fmt.Errorf("compat %q must be one of broadcast_equals, equals or identical: %w", s, ErrInvalidInput)
}

type mergeOptions struct {
	compat    Compat
	join      Join
	overwrite stringSet
}

// MergeOption configures Merge and its variants.
type MergeOption func(*mergeOptions)

// WithCompat sets how variables present on both sides are compared. The
// default is BroadcastEquals.
func WithCompat(c Compat) MergeOption {
	return func(o *mergeOptions) { o.compat = c }
}

// WithJoin sets how the indexes of the two sides are joined. The default
// is Outer.
func WithJoin(j Join) MergeOption {
	return func(o *mergeOptions) { o.join = j }
}

// OverwriteVars names variables that are replaced by the incoming values
// without being compared.
func OverwriteVars(names ...string) MergeOption {
	return func(o *mergeOptions) { o.overwrite.add(names...) }
}

func newMergeOptions(opts []MergeOption) (*mergeOptions, error) {
	o := &mergeOptions{compat: BroadcastEquals, join: Outer, overwrite: newStringSet()}
	for _, opt := range opts {
		opt(o)
	}
	if o.compat < BroadcastEquals || o.compat > Identical {
		return nil, fmt.Errorf("compat %v: %w", o.compat, ErrInvalidInput)
	}
	if o.join < Outer || o.join > Right {
		return nil, fmt.Errorf("join %v: %w", o.join, ErrInvalidInput)
	}
	return o, nil
}

// Merge returns a dataset holding the variables of ds and other. Variables
// present in both must agree under the comparison mode, and a variable may
// not be a coordinate on one side and a data variable on the other. The
// global attributes of other are ignored.
func (ds *Dataset) Merge(other *Dataset, opts ...MergeOption) (*Dataset, error) {
	o, err := newMergeOptions(opts)
	if err != nil {
		return nil, err
	}
	return ds.merge(other, nil, o)
}

// MergeInPlace merges other into ds. On error ds is left unchanged.
func (ds *Dataset) MergeInPlace(other *Dataset, opts ...MergeOption) error {
	o, err := newMergeOptions(opts)
	if err != nil {
		return err
	}
	next, err := ds.merge(other, nil, o)
	if err != nil {
		return err
	}
	ds.commit(next)
	return nil
}

// MergeVars is like Merge for raw variables. DataArray values are first
// aligned against each other with an outer join.
func (ds *Dataset) MergeVars(vars []Input, opts ...MergeOption) (*Dataset, error) {
	o, err := newMergeOptions(opts)
	if err != nil {
		return nil, err
	}
	return ds.merge(nil, vars, o)
}

// Update replaces or adds the variables of other in ds, aligning other to
// the indexes of ds. On error ds is left unchanged.
func (ds *Dataset) Update(other *Dataset) error {
	next, err := ds.merge(other, nil, &mergeOptions{
		compat:    BroadcastEquals,
		join:      Left,
		overwrite: newStringSet(other.Names()...),
	})
	if err != nil {
		return err
	}
	ds.commit(next)
	return nil
}

// UpdateVars replaces or adds the given variables in ds. On error ds is
// left unchanged.
func (ds *Dataset) UpdateVars(vars ...Input) error {
	overwrite := newStringSet()
	for _, in := range vars {
		overwrite.add(in.Name)
	}
	next, err := ds.merge(nil, vars, &mergeOptions{
		compat:    BroadcastEquals,
		join:      Left,
		overwrite: overwrite,
	})
	if err != nil {
		return err
	}
	ds.commit(next)
	return nil
}

// Set adds or replaces a single variable in ds.
func (ds *Dataset) Set(name string, value Value) error {
	return ds.UpdateVars(Var(name, value))
}

// merge computes the result of merging either other or vars into ds. ds is
// not modified.
func (ds *Dataset) merge(other *Dataset, vars []Input, o *mergeOptions) (*Dataset, error) {
	var (
		replace, newVars *Variables
		newCoordNames    stringSet
		err              error
	)
	if other != nil {
		replace, newVars, newCoordNames, err = mergeDataset(ds, other, o)
	} else {
		replace, newVars, newCoordNames, err = mergeInputs(ds, vars, o)
	}
	if err != nil {
		return nil, err
	}

	ambiguous := newStringSet()
	for n := range newCoordNames {
		if ds.variables.Has(n) && !ds.coordNames.has(n) {
			ambiguous.add(n)
		}
	}
	for _, n := range newVars.Names() {
		if ds.coordNames.has(n) && !newCoordNames.has(n) {
			ambiguous.add(n)
		}
	}
	for n := range o.overwrite {
		delete(ambiguous, n)
	}
	if len(ambiguous) > 0 {
		return nil, fmt.Errorf("cannot merge: the following variables are coordinates on one dataset but not the other: %v: %w",
			sortedNames(ambiguous), ErrConflict)
	}

	for _, n := range newVars.Names() {
		if o.overwrite.has(n) && ds.variables.Has(n) {
			Log.WithFields(logrus.Fields{"variable": n}).Debug("dset: overwriting variable")
		}
	}

	coordNames := ds.coordNames.copy()
	coordNames.add(sortedNames(newCoordNames)...)
	return newDataset(replace, coordNames, ds.attrs.Copy())
}

// mergeExpand expands the incoming variables against the aligned receiver.
// Names being overwritten are not compared.
func mergeExpand(aligned *Dataset, raw []Input, o *mergeOptions) (*Variables, *Variables, stringSet, error) {
	possibleConflicts := NewVariables()
	aligned.variables.Each(func(name string, v *Variable) {
		if !o.overwrite.has(name) {
			possibleConflicts.Set(name, v)
		}
	})
	newVars, newCoordNames, err := expandVariables(raw, possibleConflicts, o.compat)
	if err != nil {
		return nil, nil, nil, err
	}
	replace := aligned.variables.Copy()
	replace.Update(newVars)
	return replace, newVars, newCoordNames, nil
}

func mergeDataset(ds, other *Dataset, o *mergeOptions) (*Variables, *Variables, stringSet, error) {
	aligned, err := partialAlign([]alignable{ds, other}, o.join, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	alignedOther := aligned[1].(*Dataset)
	raw := make([]Input, 0, alignedOther.Len())
	alignedOther.variables.Each(func(name string, v *Variable) {
		raw = append(raw, Var(name, v))
	})
	replace, newVars, newCoordNames, err := mergeExpand(aligned[0].(*Dataset), raw, o)
	if err != nil {
		return nil, nil, nil, err
	}
	newCoordNames.add(sortedNames(alignedOther.coordNames)...)
	return replace, newVars, newCoordNames, nil
}

func mergeInputs(ds *Dataset, raw []Input, o *mergeOptions) (*Variables, *Variables, stringSet, error) {
	raw, err := alignInputs(raw, Outer)
	if err != nil {
		return nil, nil, nil, err
	}
	objs := []alignable{ds}
	var which []int
	for i, in := range raw {
		if da, ok := in.Value.(*DataArray); ok && da != nil {
			objs = append(objs, da)
			which = append(which, i)
		}
	}
	aligned, err := partialAlign(objs, o.join, o.overwrite)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(which) > 0 {
		raw = append([]Input(nil), raw...)
		for k, i := range which {
			raw[i].Value = aligned[k+1].(*DataArray)
		}
	}
	return mergeExpand(aligned[0].(*Dataset), raw, o)
}
