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

// Package dset holds in-memory datasets of named, multi-dimensional
// numeric variables that share a table of dimension sizes.
//
// A Dataset keeps its dimension table consistent across every operation:
// variables are normalized and checked as they are added, datasets are
// aligned on their coordinate labels before they are merged, and
// positional or label based selections and concatenations recompute the
// dimensions from the variables they produce. Operations that modify a
// Dataset in place either succeed completely or leave it as it was.
//
// Values are float64. Datetime variables hold seconds since the Unix epoch
// and missing values of either kind are NaN.
package dset

// Version gives the version number.
const Version = "1.0.0"
