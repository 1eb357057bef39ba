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

package dsetutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dset"
	"github.com/spatialmodel/dset/cdfstore"
)

// openDataset reads the dataset in the NetCDF file at path into memory.
func openDataset(path string) (*dset.Dataset, error) {
	path = os.ExpandEnv(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dset: opening dataset: %v", err)
	}
	s, err := cdfstore.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dset: reading %s: %v", path, err)
	}
	var ds *dset.Dataset
	err = dset.WithStore(s, func(d *dset.Dataset) error {
		ds = d
		return d.Load()
	})
	if err != nil {
		return nil, fmt.Errorf("dset: reading %s: %v", path, err)
	}
	return ds, nil
}

func openDatasets(paths []string) ([]*dset.Dataset, error) {
	o := make([]*dset.Dataset, len(paths))
	for i, p := range paths {
		ds, err := openDataset(p)
		if err != nil {
			return nil, err
		}
		o[i] = ds
	}
	return o, nil
}

// writeDataset writes ds to a new NetCDF file at path.
func writeDataset(ds *dset.Dataset, path string) error {
	path, err := checkOutputFile(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dset: creating output file: %v", err)
	}
	s := cdfstore.Create(f)
	if err := ds.DumpToStore(s); err != nil {
		s.Close()
		return fmt.Errorf("dset: writing %s: %v", path, err)
	}
	dset.Log.WithFields(logrus.Fields{
		"file":      path,
		"variables": ds.Len(),
	}).Info("dset: wrote dataset")
	return s.Close()
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("dset: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// splitAssignment splits an argument of the form name=value.
func splitAssignment(arg string) (string, string, error) {
	i := strings.Index(arg, "=")
	if i <= 0 {
		return "", "", fmt.Errorf("dset: argument %q is not of the form name=value", arg)
	}
	return strings.TrimSpace(arg[:i]), strings.TrimSpace(arg[i+1:]), nil
}

// parsePositions converts arguments such as x=2, x=1:3, x=0:10:2 and
// x=0,2,5 to positional selectors.
func parsePositions(args []string) (map[string]dset.Selector, error) {
	o := make(map[string]dset.Selector, len(args))
	for _, arg := range args {
		dim, val, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		switch {
		case strings.Contains(val, ":"):
			parts := strings.Split(val, ":")
			if len(parts) > 3 {
				return nil, fmt.Errorf("dset: invalid range %q", val)
			}
			s := dset.Slice{Start: 0, Stop: dset.End, Step: 1}
			fields := []*int{&s.Start, &s.Stop, &s.Step}
			for i, p := range parts {
				if p == "" {
					continue
				}
				if *fields[i], err = strconv.Atoi(p); err != nil {
					return nil, fmt.Errorf("dset: invalid range %q: %v", val, err)
				}
			}
			o[dim] = s
		case strings.Contains(val, ","):
			var ps dset.Positions
			for _, p := range strings.Split(val, ",") {
				i, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil {
					return nil, fmt.Errorf("dset: invalid position list %q: %v", val, err)
				}
				ps = append(ps, i)
			}
			o[dim] = ps
		default:
			i, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("dset: invalid position %q: %v", val, err)
			}
			o[dim] = dset.At(i)
		}
	}
	return o, nil
}

// parseLabel converts a label given on the command line to a number or a
// time.
func parseLabel(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, fmt.Errorf("dset: label %q is neither a number nor a time", s)
}

// parseLabels converts arguments such as x=1.5, x=0.5:2.5 and x=0.5,2.5
// to label selectors. Time ranges are separated by "..", since times
// contain colons.
func parseLabels(args []string) (map[string]interface{}, error) {
	o := make(map[string]interface{}, len(args))
	for _, arg := range args {
		dim, val, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		sep := ""
		switch {
		case strings.Contains(val, ".."):
			sep = ".."
		case strings.Count(val, ":") == 1 && !strings.Contains(val, "T"):
			sep = ":"
		}
		switch {
		case sep != "":
			parts := strings.SplitN(val, sep, 2)
			var ls dset.LabelSlice
			if parts[0] != "" {
				if ls.Start, err = parseLabel(parts[0]); err != nil {
					return nil, err
				}
			}
			if parts[1] != "" {
				if ls.Stop, err = parseLabel(parts[1]); err != nil {
					return nil, err
				}
			}
			o[dim] = ls
		case strings.Contains(val, ","):
			var labels []interface{}
			for _, p := range strings.Split(val, ",") {
				l, err := parseLabel(p)
				if err != nil {
					return nil, err
				}
				labels = append(labels, l)
			}
			o[dim] = labels
		default:
			l, err := parseLabel(val)
			if err != nil {
				return nil, err
			}
			o[dim] = l
		}
	}
	return o, nil
}

// parseAssignments converts arguments of the form name=expression.
func parseAssignments(args []string) ([]dset.Assignment, error) {
	o := make([]dset.Assignment, len(args))
	for i, arg := range args {
		name, expr, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		o[i] = dset.Assignment{Name: name, Expr: expr}
	}
	return o, nil
}
