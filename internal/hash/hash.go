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

// Package hash computes content fingerprints.
package hash

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/spatialmodel/dset"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Hash returns a hash key for the specified object.
func Hash(object interface{}) string {
	if s, ok := object.(fmt.Stringer); ok {
		return s.String()
	}
	h := fnv.New128a()

	e := gob.NewEncoder(h)
	if err := e.Encode(object); err == nil {
		return sum(h)
	}
	// If there is an error (e.g., there are NaN values)
	// use spew instead of gob.
	h.Reset()
	printer.Fprintf(h, "%#v", object)
	return sum(h)
}

// Dataset returns a fingerprint of the contents of ds: its dimensions,
// coordinate names, global attributes and, for each variable, its
// dimensions, kind, attributes and values. Variable order does not
// matter, so datasets that are Identical have the same fingerprint.
// Lazily loaded variables are loaded.
func Dataset(ds *dset.Dataset) (string, error) {
	h := fnv.New128a()
	printer.Fprintf(h, "%#v", ds.Dims())
	printer.Fprintf(h, "%#v", ds.CoordNames())
	printer.Fprintf(h, "%#v", sortedAttrs(ds.Attrs()))

	names := ds.Names()
	sort.Strings(names)
	buf := make([]byte, 8)
	for _, name := range names {
		v, err := ds.Variable(name)
		if err != nil {
			return "", err
		}
		printer.Fprintf(h, "%s %#v %s %#v", name, v.Dims(), v.Kind(), sortedAttrs(v.Attrs()))
		arr, err := v.Values()
		if err != nil {
			return "", fmt.Errorf("hash: variable %s: %v", name, err)
		}
		for _, e := range arr.Elements {
			if math.IsNaN(e) {
				e = math.NaN()
			}
			binary.LittleEndian.PutUint64(buf, math.Float64bits(e))
			h.Write(buf)
		}
	}
	return sum(h), nil
}

func sortedAttrs(a dset.Attributes) dset.Attributes {
	o := a.Copy()
	sort.Slice(o, func(i, j int) bool { return o[i].Name < o[j].Name })
	return o
}

func sum(h hash.Hash) string {
	bKey := h.Sum([]byte{})
	return fmt.Sprintf("%x", bKey[0:h.Size()])
}
