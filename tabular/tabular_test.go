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
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/spatialmodel/dset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridDataset(t *testing.T) *dset.Dataset {
	t.Helper()
	ds, err := dset.NewDataset(
		[]dset.Input{
			dset.Var("conc", dset.Tuple{Dims: []string{"y", "x"}, Data: []float64{1, 2, 3, 4, 5, 6}}),
			dset.Var("area", dset.Tuple{Dims: []string{"x"}, Data: []float64{10, 20, 30}}),
		},
		[]dset.Input{
			dset.Var("x", dset.Tuple{Data: []float64{0.5, 1.5, 2.5}}),
			dset.Var("y", dset.Tuple{Data: []float64{7, 8}}),
		},
		nil,
	)
	require.NoError(t, err)
	return ds
}

func TestFromDataset(t *testing.T) {
	tab, err := FromDataset(gridDataset(t))
	require.NoError(t, err)
	require.Equal(t, 6, tab.Len())

	require.Len(t, tab.Index, 2)
	assert.Equal(t, "x", tab.Index[0].Name)
	assert.Equal(t, []float64{0.5, 0.5, 1.5, 1.5, 2.5, 2.5}, tab.Index[0].Values)
	assert.Equal(t, "y", tab.Index[1].Name)
	assert.Equal(t, []float64{7, 8, 7, 8, 7, 8}, tab.Index[1].Values)

	conc, ok := tab.Column("conc")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, conc.Values)
	area, ok := tab.Column("area")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 10, 20, 20, 30, 30}, area.Values)
}

func TestFromDatasetEmptyDimension(t *testing.T) {
	ds, err := dset.NewDataset(
		[]dset.Input{
			dset.Var("conc", dset.Tuple{Dims: []string{"time", "x"}, Data: []float64{1, 2, 3, 4}}),
		},
		[]dset.Input{
			dset.Var("time", dset.Tuple{Data: []time.Time{
				time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC),
			}}),
			dset.Var("x", dset.Tuple{Data: []float64{0.5, 1.5}}),
		},
		nil,
	)
	require.NoError(t, err)
	empty, err := ds.Isel(map[string]dset.Selector{"x": dset.Range(0, 0)})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"time": 2, "x": 0}, empty.Dims())

	tab, err := FromDataset(empty)
	require.NoError(t, err)
	assert.Equal(t, 0, tab.Len())
	require.Len(t, tab.Index, 2)
	assert.Equal(t, "time", tab.Index[0].Name)
	assert.True(t, tab.Index[0].isTime())
	assert.Equal(t, "x", tab.Index[1].Name)
	conc, ok := tab.Column("conc")
	require.True(t, ok)
	assert.Equal(t, 0, conc.Len())
}

func TestToDataset(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ds := gridDataset(t)
		tab, err := FromDataset(ds)
		require.NoError(t, err)
		got, err := ToDataset(tab)
		require.NoError(t, err)

		conc, err := got.Variable("conc")
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, conc.Dims())
		want, err := ds.Transpose("x", "y")
		require.NoError(t, err)
		wantConc, err := want.Variable("conc")
		require.NoError(t, err)
		assert.True(t, conc.Equals(wantConc))
		assert.Equal(t, map[string]int{"x": 3, "y": 2}, got.Dims())
	})
	t.Run("missing cells", func(t *testing.T) {
		tab := &Table{
			Index: []Column{
				{Name: "site", Values: []float64{1, 1, 2}},
				{Name: "level", Values: []float64{0, 1, 0}},
			},
			Columns: []Column{{Name: "v", Values: []float64{10, 11, 20}}},
		}
		ds, err := ToDataset(tab)
		require.NoError(t, err)
		v, err := ds.Variable("v")
		require.NoError(t, err)
		arr, err := v.Values()
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2}, arr.Shape)
		assert.Equal(t, 10.0, arr.Elements[0])
		assert.Equal(t, 11.0, arr.Elements[1])
		assert.Equal(t, 20.0, arr.Elements[2])
		assert.True(t, math.IsNaN(arr.Elements[3]))
	})
	t.Run("duplicate labels", func(t *testing.T) {
		tab := &Table{
			Index:   []Column{{Name: "x", Values: []float64{1, 1}}},
			Columns: []Column{{Name: "v", Values: []float64{1, 2}}},
		}
		_, err := ToDataset(tab)
		assert.Error(t, err)
	})
	t.Run("ragged", func(t *testing.T) {
		tab := &Table{
			Index:   []Column{{Name: "x", Values: []float64{1, 2}}},
			Columns: []Column{{Name: "v", Values: []float64{1}}},
		}
		_, err := ToDataset(tab)
		assert.Error(t, err)
	})
	t.Run("no index", func(t *testing.T) {
		tab := &Table{Columns: []Column{{Name: "v", Values: []float64{3, 4, 5}}}}
		ds, err := ToDataset(tab)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"index": 3}, ds.Dims())
	})
}

func TestXLSX(t *testing.T) {
	times := []time.Time{
		time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 7, 15, 12, 0, 0, 0, time.UTC),
	}
	tab := &Table{
		Index: []Column{{Name: "time", Times: times}},
		Columns: []Column{
			{Name: "temp", Values: []float64{1.5, math.NaN()}},
			{Name: "count", Values: []float64{3, 4}},
		},
	}
	path := filepath.Join(t.TempDir(), "table.xlsx")
	require.NoError(t, WriteXLSX(path, "data", tab))

	got, err := ReadXLSX(path, "data", "time")
	require.NoError(t, err)
	require.Len(t, got.Index, 1)
	assert.Equal(t, times, got.Index[0].Times)
	require.Len(t, got.Columns, 2)
	assert.Equal(t, "temp", got.Columns[0].Name)
	assert.Equal(t, 1.5, got.Columns[0].Values[0])
	assert.True(t, math.IsNaN(got.Columns[0].Values[1]))
	assert.Equal(t, []float64{3, 4}, got.Columns[1].Values)

	_, err = ReadXLSX(path, "nosuchsheet")
	assert.Error(t, err)
	_, err = ReadXLSX(path, "", "nosuchcolumn")
	assert.Error(t, err)
}
