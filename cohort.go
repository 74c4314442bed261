// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
)

// cohort is one tumour-sample table: rows keyed by sample identifier,
// columns holding signature indicators and covariates. Loaded once,
// read-only; every downstream stage derives a fresh cohort instead of
// mutating this one.
type cohort struct {
	ids     []string
	columns []string
	data    map[string][]float64
}

func (c *cohort) len() int { return len(c.ids) }

func (c *cohort) column(name string) ([]float64, bool) {
	col, ok := c.data[name]
	return col, ok
}

// isBinary reports whether every value of the named column is 0 or 1.
func (c *cohort) isBinary(name string) bool {
	col, ok := c.data[name]
	if !ok {
		return false
	}
	for _, v := range col {
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

// subset returns a new cohort containing the given rows, in the given
// order.
func (c *cohort) subset(rows []int) *cohort {
	sub := &cohort{
		ids:     make([]string, len(rows)),
		columns: c.columns,
		data:    make(map[string][]float64, len(c.columns)),
	}
	for i, row := range rows {
		sub.ids[i] = c.ids[row]
	}
	for _, name := range c.columns {
		col := c.data[name]
		out := make([]float64, len(rows))
		for i, row := range rows {
			out[i] = col[row]
		}
		sub.data[name] = out
	}
	return sub
}

// loadCohort reads a tab-separated cohort table (gzip-compressed if
// the filename ends in .gz). The header row must contain the schema's
// id column and every declared signature and covariate column; extra
// columns are ignored. With log2 set, numeric covariates are rescaled
// to log2(x+1) at load, for TPM-scale expression inputs.
func loadCohort(path string, sch *schema, log2 bool) (*cohort, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rdr io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		rdr = gz
	}
	c, err := readCohort(rdr, sch, log2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("loaded %s: %d samples, %d columns", path, c.len(), len(c.columns))
	return c, nil
}

func readCohort(rdr io.Reader, sch *schema, log2 bool) (*cohort, error) {
	scanner := bufio.NewScanner(rdr)
	scanner.Buffer(make([]byte, 1<<20), 1<<26)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty input: %w", scanner.Err())
	}
	header := strings.Split(scanner.Text(), "\t")
	colidx := map[string]int{}
	for i, name := range header {
		colidx[name] = i
	}
	idcol, ok := colidx[sch.IDColumn]
	if !ok {
		return nil, fmt.Errorf("%w: no column named %q in header", errInvalidArgument, sch.IDColumn)
	}
	want := append(append([]string(nil), sch.Signatures...), covariateNames(sch)...)
	for _, name := range want {
		if _, ok := colidx[name]; !ok {
			return nil, fmt.Errorf("%w: no column named %q in header", errInvalidArgument, name)
		}
	}

	c := &cohort{
		columns: want,
		data:    make(map[string][]float64, len(want)),
	}
	seen := map[string]bool{}
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: got %d fields, header has %d", line, len(fields), len(header))
		}
		id := fields[idcol]
		if seen[id] {
			return nil, fmt.Errorf("line %d: duplicate sample identifier %q", line, id)
		}
		seen[id] = true
		c.ids = append(c.ids, id)
		for _, name := range want {
			v, err := strconv.ParseFloat(fields[colidx[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: %w", line, name, err)
			}
			c.data[name] = append(c.data[name], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for _, sig := range sch.Signatures {
		if !c.isBinary(sig) {
			return nil, fmt.Errorf("%w: signature column %q is not coded {0,1}", errInvalidArgument, sig)
		}
	}
	for _, cv := range sch.Covariates {
		if cv.Kind != kindNumeric && !c.isBinary(cv.Name) {
			return nil, fmt.Errorf("%w: %s covariate %q is not coded {0,1}", errInvalidArgument, cv.Kind, cv.Name)
		}
	}
	if log2 {
		for _, cv := range sch.Covariates {
			if cv.Kind != kindNumeric {
				continue
			}
			col := c.data[cv.Name]
			for i, v := range col {
				col[i] = math.Log2(v + 1)
			}
		}
	}
	return c, nil
}

func covariateNames(sch *schema) []string {
	names := make([]string, len(sch.Covariates))
	for i, cv := range sch.Covariates {
		names[i] = cv.Name
	}
	return names
}
