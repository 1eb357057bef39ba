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

import "errors"

// Errors returned by this package. Callers should match them with
// errors.Is; returned errors usually wrap one of these with the names of
// the variables or dimensions involved.
var (
	// ErrShape is returned when dimension sizes are inconsistent, or when an
	// index coordinate does not have exactly one dimension.
	ErrShape = errors.New("dset: inconsistent shape")

	// ErrConflict is returned when two variables with the same name
	// disagree under the active comparison mode, or when a name would be a
	// coordinate in one operand and a data variable in the other.
	ErrConflict = errors.New("dset: conflicting values")

	// ErrUnknownName is returned when a referenced dimension or variable
	// does not exist.
	ErrUnknownName = errors.New("dset: unknown name")

	// ErrUnsupportedKey is returned for malformed virtual variable names and
	// selectors of an unsupported type.
	ErrUnsupportedKey = errors.New("dset: unsupported key")

	// ErrInvalidInput is returned when a value cannot be interpreted as a
	// variable, or when an option has an invalid value.
	ErrInvalidInput = errors.New("dset: invalid input")

	// ErrLabelNotFound is returned by label lookups for labels that are not
	// present in an index, or present more than once.
	ErrLabelNotFound = errors.New("dset: label not found")

	// ErrOutOfRange is returned for positional selectors outside of a
	// dimension.
	ErrOutOfRange = errors.New("dset: index out of range")
)
