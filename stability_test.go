// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"math"
	"strings"

	"gopkg.in/check.v1"
)

type stabilitySuite struct{}

var _ = check.Suite(&stabilitySuite{})

func (s *stabilitySuite) TestRetentionFrequencies(c *check.C) {
	tbl := testCohort()
	t, err := aggregateStability("RS3", tbl, testSchema(), []float64{0.6, 1}, 10, 42)
	c.Assert(err, check.IsNil)

	// every cell is a count out of 10 replicates
	for _, v := range t.vars {
		for _, frac := range t.fractions {
			f, ok := t.cell(v, frac)
			if !ok {
				continue
			}
			c.Check(f > 0 && f <= 1, check.Equals, true)
			c.Check(math.Abs(f*10-math.Round(f*10)) < 1e-9, check.Equals, true,
				check.Commentf("%s fraction=%g freq=%v", v, frac, f))
		}
	}

	// on the full cohort every replicate selects X
	f, ok := t.cell("X", 1)
	c.Assert(ok, check.Equals, true)
	c.Check(f, check.Equals, 1.0)

	// ascending sort by full-cohort retention puts X last
	c.Assert(len(t.vars) > 0, check.Equals, true)
	c.Check(t.vars[len(t.vars)-1], check.Equals, "X")
}

func (s *stabilitySuite) TestDeterminism(c *check.C) {
	tbl := testCohort()
	a, err := aggregateStability("RS3", tbl, testSchema(), []float64{0.7, 1}, 10, 7)
	c.Assert(err, check.IsNil)
	b, err := aggregateStability("RS3", tbl, testSchema(), []float64{0.7, 1}, 10, 7)
	c.Assert(err, check.IsNil)
	c.Check(a.vars, check.DeepEquals, b.vars)
	c.Check(a.freq, check.DeepEquals, b.freq)
}

func (s *stabilitySuite) TestNullSignature(c *check.C) {
	tbl, sch := nullCohort()
	t, err := aggregateStability("RS3", tbl, sch, []float64{1}, 10, 1)
	c.Assert(err, check.IsNil)
	c.Check(t.vars, check.HasLen, 0)
}

func (s *stabilitySuite) TestFailedFitContained(c *check.C) {
	// every replicate's combined fit fails on the collinear design;
	// each one contributes nothing instead of aborting the run
	tbl, sch := collinearCohort()
	t, err := aggregateStability("RS3", tbl, sch, []float64{1}, 3, 5)
	c.Assert(err, check.IsNil)
	c.Check(t.vars, check.HasLen, 0)
}

func (s *stabilitySuite) TestWrite(c *check.C) {
	t := &stabilityTable{
		fractions: []float64{0.5, 1},
		vars:      []string{"a", "b"},
		freq: map[string]map[float64]float64{
			"a": {0.5: 0.3},
			"b": {0.5: 0.8, 1: 1},
		},
	}
	var b strings.Builder
	err := t.write(&b)
	c.Assert(err, check.IsNil)
	c.Check(b.String(), check.Equals, "Variable,0.5,1\na,0.3,\nb,0.8,1\n")
}

func (s *stabilitySuite) TestBadFraction(c *check.C) {
	tbl := testCohort()
	_, err := aggregateStability("RS3", tbl, testSchema(), []float64{0, 0.5}, 10, 1)
	c.Check(err, check.NotNil)
}
