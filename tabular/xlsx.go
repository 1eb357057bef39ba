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

package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx"
)

// WriteXLSX saves t as a sheet of a new Microsoft Excel file. The first row
// holds the column names, index columns first. Datetimes are written as
// RFC 3339 text and missing values as empty cells.
func WriteXLSX(path, sheet string, t *Table) error {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := xlsx.NewFile()
	s, err := f.AddSheet(sheet)
	if err != nil {
		return fmt.Errorf("tabular: %v", err)
	}
	cols := append(append([]Column{}, t.Index...), t.Columns...)
	header := s.AddRow()
	for _, c := range cols {
		header.AddCell().SetString(c.Name)
	}
	for r := 0; r < t.Len(); r++ {
		row := s.AddRow()
		for _, c := range cols {
			cell := row.AddCell()
			switch {
			case c.isTime():
				cell.SetString(c.Times[r].UTC().Format(time.RFC3339Nano))
			case math.IsNaN(c.Values[r]):
			default:
				cell.SetFloat(c.Values[r])
			}
		}
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("tabular: writing %s: %v", path, err)
	}
	return nil
}

// ReadXLSX reads a table from a sheet of a Microsoft Excel file laid out
// as written by WriteXLSX. If sheet is empty the first sheet is read. The
// columns named by index become index columns. A column is read as
// datetimes if every cell in it is RFC 3339 text, and as numbers otherwise.
func ReadXLSX(path, sheet string, index ...string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: opening %s: %v", path, err)
	}
	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("tabular: %s has no sheets", path)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, fmt.Errorf("tabular: %s has no sheet %s", path, sheet)
		}
	}
	if len(s.Rows) == 0 {
		return nil, fmt.Errorf("tabular: sheet %s is empty", s.Name)
	}

	var names []string
	for _, c := range s.Rows[0].Cells {
		names = append(names, strings.TrimSpace(c.Value))
	}
	cells := make([][]string, len(names))
	for _, row := range s.Rows[1:] {
		// Skip blank rows.
		if len(row.Cells) == 0 {
			continue
		}
		for j := range names {
			var v string
			if j < len(row.Cells) {
				v = strings.TrimSpace(row.Cells[j].Value)
			}
			cells[j] = append(cells[j], v)
		}
	}

	isIndex := make(map[string]bool, len(index))
	for _, n := range index {
		isIndex[n] = true
	}
	t := new(Table)
	found := 0
	for j, name := range names {
		c, err := parseColumn(name, cells[j])
		if err != nil {
			return nil, err
		}
		if isIndex[name] {
			t.Index = append(t.Index, c)
			found++
		} else {
			t.Columns = append(t.Columns, c)
		}
	}
	if found != len(isIndex) {
		return nil, fmt.Errorf("tabular: sheet %s does not have all of the index columns %v", s.Name, index)
	}
	return t, nil
}

func parseColumn(name string, cells []string) (Column, error) {
	c := Column{Name: name}
	if times, ok := parseTimes(cells); ok {
		c.Times = times
		return c, nil
	}
	c.Values = make([]float64, len(cells))
	for i, s := range cells {
		if s == "" {
			c.Values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, fmt.Errorf("tabular: column %s row %d: %v", name, i+1, err)
		}
		c.Values[i] = v
	}
	return c, nil
}

func parseTimes(cells []string) ([]time.Time, bool) {
	if len(cells) == 0 {
		return nil, false
	}
	o := make([]time.Time, len(cells))
	for i, s := range cells {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, false
		}
		o[i] = t.UTC()
	}
	return o, true
}
