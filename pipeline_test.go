// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/check.v1"
)

type pipelineSuite struct{}

var _ = check.Suite(&pipelineSuite{})

func (s *pipelineSuite) writeFixture(c *check.C) (input, schemafile string) {
	tmpdir := c.MkDir()
	input, err := writeTSV(tmpdir, testCohort())
	c.Assert(err, check.IsNil)
	schemafile = filepath.Join(tmpdir, "schema.json")
	err = os.WriteFile(schemafile, []byte(`{
		"id_column": "sample",
		"signatures": ["RS3"],
		"covariates": [
			{"name": "X", "kind": "binary"},
			{"name": "noise1", "kind": "numeric"},
			{"name": "noise2", "kind": "numeric"},
			{"name": "noise3", "kind": "numeric"},
			{"name": "noise4", "kind": "numeric"},
			{"name": "noise5", "kind": "numeric"}
		]
	}`), 0644)
	c.Assert(err, check.IsNil)
	return input, schemafile
}

func (s *pipelineSuite) TestAssoc(c *check.C) {
	input, schemafile := s.writeFixture(c)
	outfile := filepath.Join(c.MkDir(), "assoc.csv")

	exited := (&assoccmd{}).RunCommand("assoc", []string{
		"-input=" + input,
		"-schema=" + schemafile,
		"-o", outfile,
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	buf, err := os.ReadFile(outfile)
	c.Assert(err, check.IsNil)
	records, err := csv.NewReader(bytes.NewReader(buf)).ReadAll()
	c.Assert(err, check.IsNil)
	c.Assert(len(records) > 0, check.Equals, true)
	if got, want := strings.Join(records[0], ","), strings.Join(coefTableHeader, ","); got != want {
		dmp := diffmatchpatch.New()
		c.Fatalf("header mismatch:\n%s", dmp.DiffPrettyText(dmp.DiffMain(want, got, false)))
	}

	// the only surviving row is X for RS3: the intercept is always
	// excluded and the noise covariates never enter the model
	c.Assert(records[1:], check.HasLen, 1)
	row := records[1]
	c.Check(row[0], check.Equals, "RS3")
	c.Check(row[1], check.Equals, "X")
	padj, err := strconv.ParseFloat(row[6], 64)
	c.Assert(err, check.IsNil)
	c.Check(padj < 0.1, check.Equals, true)
	or, err := strconv.ParseFloat(row[7], 64)
	c.Assert(err, check.IsNil)
	c.Check(or > 1.5, check.Equals, true)
}

func (s *pipelineSuite) TestAssocFailedFitContained(c *check.C) {
	// a signature whose combined fit cannot converge yields no rows
	// but does not fail the command
	tmpdir := c.MkDir()
	tbl, _ := collinearCohort()
	input, err := writeTSV(tmpdir, tbl)
	c.Assert(err, check.IsNil)
	schemafile := filepath.Join(tmpdir, "schema.json")
	err = os.WriteFile(schemafile, []byte(`{
		"id_column": "sample",
		"signatures": ["RS3"],
		"covariates": [
			{"name": "X", "kind": "binary"},
			{"name": "X2", "kind": "binary"},
			{"name": "noise1", "kind": "numeric"}
		]
	}`), 0644)
	c.Assert(err, check.IsNil)
	outfile := filepath.Join(tmpdir, "assoc.csv")

	exited := (&assoccmd{}).RunCommand("assoc", []string{
		"-input=" + input,
		"-schema=" + schemafile,
		"-o", outfile,
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	buf, err := os.ReadFile(outfile)
	c.Assert(err, check.IsNil)
	records, err := csv.NewReader(bytes.NewReader(buf)).ReadAll()
	c.Assert(err, check.IsNil)
	c.Check(records, check.HasLen, 1) // header only
}

func (s *pipelineSuite) TestStability(c *check.C) {
	input, schemafile := s.writeFixture(c)
	outdir := c.MkDir()

	exited := (&stabilitycmd{}).RunCommand("stability", []string{
		"-input=" + input,
		"-schema=" + schemafile,
		"-output-dir=" + outdir,
		"-fractions=0.8,1",
		"-replicates=10",
		"-random-seed=42",
	}, nil, os.Stderr, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	buf, err := os.ReadFile(filepath.Join(outdir, "RS3-stability.csv"))
	c.Assert(err, check.IsNil)
	records, err := csv.NewReader(bytes.NewReader(buf)).ReadAll()
	c.Assert(err, check.IsNil)
	c.Assert(len(records) >= 2, check.Equals, true)
	c.Check(records[0], check.DeepEquals, []string{"Variable", "0.8", "1"})
	for _, row := range records[1:] {
		for _, cell := range row[1:] {
			if cell == "" {
				continue
			}
			f, err := strconv.ParseFloat(cell, 64)
			c.Assert(err, check.IsNil)
			c.Check(math.Abs(f*10-math.Round(f*10)) < 1e-9, check.Equals, true)
		}
	}
	// X is retained on every full-cohort replicate and sorts last
	last := records[len(records)-1]
	c.Check(last[0], check.Equals, "X")
	c.Check(last[2], check.Equals, "1")
}

func (s *pipelineSuite) TestSummarize(c *check.C) {
	input, schemafile := s.writeFixture(c)
	var stdout bytes.Buffer

	exited := (&summarizecmd{}).RunCommand("summarize", []string{
		"-input=" + input,
		"-schema=" + schemafile,
	}, nil, &stdout, os.Stderr)
	c.Assert(exited, check.Equals, 0)

	out := stdout.String()
	for _, name := range []string{"RS3", "X", "noise1", "noise2", "noise3", "noise4", "noise5"} {
		c.Check(strings.Contains(out, name+","), check.Equals, true, check.Commentf("%s", name))
	}
}

func (s *pipelineSuite) TestVersionAndUsage(c *check.C) {
	var stdout, stderr bytes.Buffer
	c.Check(RunCommand("rsassoc", []string{"version"}, nil, &stdout, &stderr), check.Equals, 0)
	c.Check(stdout.String(), check.Matches, "rsassoc .*\n")

	c.Check(RunCommand("rsassoc", nil, nil, &stdout, &stderr), check.Equals, 2)
	c.Check(RunCommand("rsassoc", []string{"bogus"}, nil, &stdout, &stderr), check.Equals, 2)
}
