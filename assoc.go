// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	log "github.com/sirupsen/logrus"
)

// assoccmd runs the full-cohort branch: per signature, univariate
// screen + FDR gate + stepwise multivariate selection, then one
// combined coefficient table across all signatures, filtered to
// adjusted p < 0.1 and odds ratio outside [0.5,1.5]. The same command
// serves the structural-variant regression input and the TPM-scale
// expression input; the latter is typically run with -log2.
type assoccmd struct {
	input   string
	schema  string
	output  string
	log2    bool
	padjMax float64
	orLow   float64
	orHigh  float64
}

func (cmd *assoccmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cmd.run(prog, args, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

func (cmd *assoccmd) run(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	flags.StringVar(&cmd.input, "input", "", "cohort table `file` (tsv, .gz ok)")
	flags.StringVar(&cmd.schema, "schema", "", "column schema `file` (json)")
	flags.StringVar(&cmd.output, "o", "-", "output `file` (csv)")
	flags.BoolVar(&cmd.log2, "log2", false, "rescale numeric covariates to log2(x+1) at load")
	flags.Float64Var(&cmd.padjMax, "padj-cutoff", 0.1, "keep rows with adjusted p below `P`")
	flags.Float64Var(&cmd.orLow, "or-low", 0.5, "keep rows with odds ratio below `OR` ...")
	flags.Float64Var(&cmd.orHigh, "or-high", 1.5, "... or above `OR`")
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

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	sch, err := loadSchema(cmd.schema)
	if err != nil {
		return err
	}
	c, err := loadCohort(cmd.input, sch, cmd.log2)
	if err != nil {
		return err
	}

	var combined []coefRow
	for _, sig := range sch.Signatures {
		m, err := selectModel(sig, c, sch)
		var fe *fitError
		if errors.As(err, &fe) {
			// one signature's non-convergence must not stop the others
			log.Warnf("%s: %s", sig, err)
			continue
		} else if err != nil {
			return err
		} else if m == nil {
			log.Infof("%s: no covariates pass screening", sig)
			continue
		}
		log.Infof("%s: selected model with terms %v", sig, termNames(m.terms))
		rows := coefTable(m)
		for i := range rows {
			rows[i].Index = sig
		}
		combined = append(combined, rows...)
	}

	combined = adjustAndFilter(combined, cmd.padjMax, cmd.orLow, cmd.orHigh)

	var output io.WriteCloser
	if cmd.output == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.Create(cmd.output)
		if err != nil {
			return err
		}
	}
	err = writeCoefTable(output, combined)
	if err != nil {
		return err
	}
	return output.Close()
}

// adjustAndFilter drops intercept rows, attaches a Benjamini-Hochberg
// adjusted p across the remaining rows of the combined table, then
// keeps rows with adjusted p below padjMax and odds ratio outside
// [orLow, orHigh]. Intercepts are removed before the adjustment so
// they do not count toward the BH family size.
func adjustAndFilter(rows []coefRow, padjMax, orLow, orHigh float64) []coefRow {
	var kept []coefRow
	for _, r := range rows {
		if r.Variable != interceptName {
			kept = append(kept, r)
		}
	}
	pvalues := make([]float64, len(kept))
	for i, r := range kept {
		pvalues[i] = r.P
	}
	adj := bhAdjust(pvalues)
	var out []coefRow
	for i, r := range kept {
		r.PAdj = adj[i]
		if r.PAdj >= padjMax || (r.OR >= orLow && r.OR <= orHigh) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
