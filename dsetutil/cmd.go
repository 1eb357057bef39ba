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

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dset"
	"github.com/spatialmodel/dset/internal/hash"
	"github.com/spatialmodel/dset/tabular"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to dset.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the level of log messages that are printed: one
              of panic, fatal, error, warn, info or debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the file where the result
              should be written.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets: []*pflag.FlagSet{createCmd.Flags(), mergeCmd.Flags(), concatCmd.Flags(),
				iselCmd.Flags(), selCmd.Flags(), reindexCmd.Flags(), evalCmd.Flags(),
				exportCmd.Flags(), importCmd.Flags()},
		},
		{
			name: "Join",
			usage: `
              Join specifies how the coordinate labels of datasets are combined
              before they are merged: outer, inner, left or right.`,
			defaultVal: "outer",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "Compat",
			usage: `
              Compat specifies how variables that appear in more than one
              dataset are compared when merging: broadcast_equals, equals
              or identical.`,
			defaultVal: "broadcast_equals",
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "Overwrite",
			usage: `
              Overwrite lists variables whose values in later files replace the
              values in earlier files without being compared.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{mergeCmd.Flags()},
		},
		{
			name: "ConcatDim",
			usage: `
              ConcatDim is the dimension that files are concatenated along. It
              may be a new dimension.`,
			defaultVal: "time",
			flagsets:   []*pflag.FlagSet{concatCmd.Flags()},
		},
		{
			name: "ConcatMode",
			usage: `
              ConcatMode specifies which variables without the concatenation
              dimension are stacked: different, all or minimal.`,
			defaultVal: "different",
			flagsets:   []*pflag.FlagSet{concatCmd.Flags()},
		},
		{
			name: "ConcatCompat",
			usage: `
              ConcatCompat specifies how variables that are not stacked are
              compared across files: equals or identical.`,
			defaultVal: "equals",
			flagsets:   []*pflag.FlagSet{concatCmd.Flags()},
		},
		{
			name: "Method",
			usage: `
              Method is the method used to fill in labels that are missing
              when reindexing: none, pad, backfill or nearest.`,
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{reindexCmd.Flags()},
		},
		{
			name: "Sheet",
			usage: `
              Sheet is the name of the spreadsheet sheet that tables are written
              to or read from.`,
			defaultVal: "Sheet1",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags(), importCmd.Flags()},
		},
		{
			name: "Index",
			usage: `
              Index lists the spreadsheet columns that become dimensions when
              a table is imported.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{importCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DSET")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(createCmd)
	Root.AddCommand(mergeCmd)
	Root.AddCommand(concatCmd)
	Root.AddCommand(iselCmd)
	Root.AddCommand(selCmd)
	Root.AddCommand(reindexCmd)
	Root.AddCommand(evalCmd)
	Root.AddCommand(exportCmd)
	Root.AddCommand(importCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("dset: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("dset: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	dset.Log = logrus.StandardLogger()
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "dset",
	Short: "Manipulate datasets of multi-dimensional variables.",
	Long: `dset combines, subsets and converts datasets of named multi-dimensional
variables stored in NetCDF files. Use the subcommands specified below to
access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'DSET_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of dset.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dset v%s\n", dset.Version)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Describe a dataset",
	Long: `info prints the dimensions, coordinates, data variables and attributes
of the dataset in FILE, the virtual variables that can be derived from it,
and a fingerprint of its contents.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(args[0])
		if err != nil {
			return err
		}
		fp, err := hash.Dataset(ds)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprint(w, ds)
		if vv := ds.VirtualVariables(); len(vv) > 0 {
			fmt.Fprintln(w, "Virtual variables:")
			for _, v := range vv {
				fmt.Fprintf(w, "    %s\n", v)
			}
		}
		fmt.Fprintf(w, "Fingerprint: %s\n", fp)
		return nil
	},
	DisableAutoGenTag: true,
}

var createCmd = &cobra.Command{
	Use:   "create LAYOUT",
	Short: "Create a dataset from a layout file",
	Long: `create builds a dataset from the variables and attributes listed in the
TOML file LAYOUT and writes it to OutputFile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := CreateFromLayout(os.ExpandEnv(args[0]))
		if err != nil {
			return err
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}

var mergeCmd = &cobra.Command{
	Use:   "merge FILE...",
	Short: "Merge datasets",
	Long: `merge merges the datasets in the given files, in order, and writes the
result to OutputFile. Variables that appear in more than one file must agree
according to Compat unless they are listed in Overwrite.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		join, err := dset.ParseJoin(Cfg.GetString("Join"))
		if err != nil {
			return err
		}
		compat, err := dset.ParseCompat(Cfg.GetString("Compat"))
		if err != nil {
			return err
		}
		overwrite, err := cast.ToStringSliceE(Cfg.Get("Overwrite"))
		if err != nil {
			return fmt.Errorf("dset: reading 'Overwrite': %v", err)
		}
		datasets, err := openDatasets(args)
		if err != nil {
			return err
		}
		ds := datasets[0]
		for i, other := range datasets[1:] {
			if ds, err = ds.Merge(other, dset.WithJoin(join), dset.WithCompat(compat),
				dset.OverwriteVars(overwrite...)); err != nil {
				return fmt.Errorf("dset: merging %s: %v", args[i+1], err)
			}
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}

var concatCmd = &cobra.Command{
	Use:   "concat FILE...",
	Short: "Concatenate datasets",
	Long: `concat joins the datasets in the given files along ConcatDim and writes
the result to OutputFile.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := dset.ParseConcatMode(Cfg.GetString("ConcatMode"))
		if err != nil {
			return err
		}
		compat, err := dset.ParseCompat(Cfg.GetString("ConcatCompat"))
		if err != nil {
			return err
		}
		datasets, err := openDatasets(args)
		if err != nil {
			return err
		}
		ds, err := dset.Concat(datasets, Cfg.GetString("ConcatDim"),
			dset.WithMode(mode), dset.ConcatCompat(compat))
		if err != nil {
			return err
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}

var iselCmd = &cobra.Command{
	Use:   "isel FILE DIM=SELECTION...",
	Short: "Select by position",
	Long: `isel selects positions along dimensions of the dataset in FILE and writes
the result to OutputFile. A selection is a position (x=2), which removes the
dimension, a range of positions (x=1:3 or x=0:10:2) or a list of positions
(x=0,2,5). Negative positions are not supported.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexers, err := parsePositions(args[1:])
		if err != nil {
			return err
		}
		ds, err := openDataset(args[0])
		if err != nil {
			return err
		}
		if ds, err = ds.Isel(indexers); err != nil {
			return err
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}

var selCmd = &cobra.Command{
	Use:   "sel FILE DIM=SELECTION...",
	Short: "Select by label",
	Long: `sel selects coordinate labels along dimensions of the dataset in FILE and
writes the result to OutputFile. A selection is a label (x=1.5), which removes
the dimension, an inclusive range of labels (time=2000-01-01:2000-06-30) or a
list of labels (x=0.5,2.5). Datetime labels are given as RFC 3339 times or
dates.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexers, err := parseLabels(args[1:])
		if err != nil {
			return err
		}
		ds, err := openDataset(args[0])
		if err != nil {
			return err
		}
		if ds, err = ds.Sel(indexers); err != nil {
			return err
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex FILE LIKE",
	Short: "Conform a dataset to the labels of another",
	Long: `reindex conforms the dataset in FILE to the coordinate labels of the
dataset in LIKE, filling in missing labels according to Method, and writes
the result to OutputFile.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, err := dset.ParseFillMethod(Cfg.GetString("Method"))
		if err != nil {
			return err
		}
		datasets, err := openDatasets(args)
		if err != nil {
			return err
		}
		ds, err := datasets[0].ReindexLike(datasets[1], method, false)
		if err != nil {
			return err
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval FILE NAME=EXPRESSION...",
	Short: "Calculate new variables",
	Long: `eval evaluates expressions of the variables in FILE, in order, stores
each result under the given name and writes the result to OutputFile. Use
brackets around names that are not identifiers, as in
"summer=[time.season] == 3". If any expression fails nothing is written.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		assignments, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		ds, err := openDataset(args[0])
		if err != nil {
			return err
		}
		if err := ds.EvalInPlace(assignments...); err != nil {
			return err
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write a dataset as a spreadsheet",
	Long: `export writes the dataset in FILE as a table to Sheet of the Microsoft
Excel file OutputFile. There is one row for every combination of coordinate
labels.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(args[0])
		if err != nil {
			return err
		}
		t, err := tabular.FromDataset(ds)
		if err != nil {
			return err
		}
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return tabular.WriteXLSX(out, Cfg.GetString("Sheet"), t)
	},
	DisableAutoGenTag: true,
}

var importCmd = &cobra.Command{
	Use:   "import XLSX",
	Short: "Read a dataset from a spreadsheet",
	Long: `import reads a table from Sheet of the Microsoft Excel file XLSX, as
written by export, and writes it as a dataset to OutputFile. The columns
listed in Index become dimensions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := cast.ToStringSliceE(Cfg.Get("Index"))
		if err != nil {
			return fmt.Errorf("dset: reading 'Index': %v", err)
		}
		t, err := tabular.ReadXLSX(os.ExpandEnv(args[0]), Cfg.GetString("Sheet"), index...)
		if err != nil {
			return err
		}
		ds, err := tabular.ToDataset(t)
		if err != nil {
			return err
		}
		return writeDataset(ds, Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}
