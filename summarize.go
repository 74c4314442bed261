// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
)

// summarizecmd prints descriptive statistics for every declared column
// of a cohort table, a quick sanity check before running assoc or
// stability.
type summarizecmd struct {
	input  string
	schema string
	log2   bool
}

func (cmd *summarizecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cmd.run(prog, args, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

func (cmd *summarizecmd) run(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cmd.input, "input", "", "cohort table `file` (tsv, .gz ok)")
	flags.StringVar(&cmd.schema, "schema", "", "column schema `file` (json)")
	flags.BoolVar(&cmd.log2, "log2", false, "rescale numeric covariates to log2(x+1) at load")
	err := flags.Parse(args)
	if err == flag.ErrHelp {
		return nil
	} else if err != nil {
		return err
	} else if flags.NArg() > 0 {
		return fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
	}
	if cmd.input == "" || cmd.schema == "" {
		return errors.New("must provide -input and -schema")
	}

	sch, err := loadSchema(cmd.schema)
	if err != nil {
		return err
	}
	c, err := loadCohort(cmd.input, sch, cmd.log2)
	if err != nil {
		return err
	}

	kinds := map[string]string{}
	for _, sig := range sch.Signatures {
		kinds[sig] = "signature"
	}
	for _, cv := range sch.Covariates {
		kinds[cv.Name] = cv.Kind
	}

	csvw := csv.NewWriter(stdout)
	err = csvw.Write([]string{"Column", "Kind", "N", "Mean", "SD", "Median", "Min", "Max"})
	if err != nil {
		return err
	}
	for _, name := range c.columns {
		col, _ := c.column(name)
		mean, err := stats.Mean(col)
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		sd, _ := stats.StandardDeviation(col)
		median, _ := stats.Median(col)
		min, _ := stats.Min(col)
		max, _ := stats.Max(col)
		err = csvw.Write([]string{
			name, kinds[name], fmt.Sprintf("%d", len(col)),
			fmtFloat(mean), fmtFloat(sd), fmtFloat(median), fmtFloat(min), fmtFloat(max),
		})
		if err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}
