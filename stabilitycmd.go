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
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// stabilitycmd runs the resampled-stability branch: for every
// signature, repeated stratified partitions at several train
// fractions, the screen+select pipeline on each training subset, and
// one retention-frequency table per signature.
type stabilitycmd struct {
	input      string
	schema     string
	outputDir  string
	log2       bool
	fractions  string
	replicates int
	seed       uint64
}

func (cmd *stabilitycmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := cmd.run(prog, args, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

func (cmd *stabilitycmd) run(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	flags.StringVar(&cmd.input, "input", "", "cohort table `file` (tsv, .gz ok)")
	flags.StringVar(&cmd.schema, "schema", "", "column schema `file` (json)")
	flags.StringVar(&cmd.outputDir, "output-dir", ".", "output `directory`")
	flags.BoolVar(&cmd.log2, "log2", false, "rescale numeric covariates to log2(x+1) at load")
	flags.StringVar(&cmd.fractions, "fractions", "0.5,0.6,0.7,0.8,0.9,1", "comma-separated train `fractions`")
	flags.IntVar(&cmd.replicates, "replicates", 10, "partitions per (signature, fraction) pair")
	flags.Uint64Var(&cmd.seed, "random-seed", 0, "PRNG seed")
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

	fractions, err := parseFractions(cmd.fractions)
	if err != nil {
		return err
	}
	sch, err := loadSchema(cmd.schema)
	if err != nil {
		return err
	}
	c, err := loadCohort(cmd.input, sch, cmd.log2)
	if err != nil {
		return err
	}

	for _, sig := range sch.Signatures {
		t, err := aggregateStability(sig, c, sch, fractions, cmd.replicates, cmd.seed)
		if err != nil {
			return fmt.Errorf("%s: %w", sig, err)
		}
		fnm := filepath.Join(cmd.outputDir, sig+"-stability.csv")
		f, err := os.Create(fnm)
		if err != nil {
			return err
		}
		err = t.write(f)
		if err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", fnm, err)
		}
		err = f.Close()
		if err != nil {
			return fmt.Errorf("close %s: %w", fnm, err)
		}
		log.Infof("%s: wrote %s (%d variables)", sig, fnm, len(t.vars))
	}
	return nil
}

func parseFractions(s string) ([]float64, error) {
	var fractions []float64
	for _, field := range strings.Split(s, ",") {
		frac, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: -fractions: %s", errInvalidArgument, err)
		}
		if !(frac > 0 && frac <= 1) {
			return nil, fmt.Errorf("%w: -fractions: %v outside (0,1]", errInvalidArgument, frac)
		}
		fractions = append(fractions, frac)
	}
	if len(fractions) == 0 {
		return nil, fmt.Errorf("%w: -fractions is empty", errInvalidArgument)
	}
	return fractions, nil
}
