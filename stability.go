// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// stabilityTable is the per-signature stability summary: one row per
// covariate retained at least once, one column per train fraction,
// each cell the fraction of replicates in which the covariate was
// significant. A missing cell means the covariate was never retained
// at that fraction, which is not the same as a retention of zero.
type stabilityTable struct {
	fractions []float64
	vars      []string
	freq      map[string]map[float64]float64
}

func (t *stabilityTable) cell(variable string, fraction float64) (float64, bool) {
	f, ok := t.freq[variable][fraction]
	return f, ok
}

// aggregateStability runs the screen+select pipeline on the training
// subset of every replicate at every train fraction and tabulates, per
// covariate, how often it was retained with p < 0.05. Partitions are
// drawn sequentially from one seeded source; only the fits run
// concurrently, so a fixed seed gives identical output.
func aggregateStability(sig string, c *cohort, sch *schema, fractions []float64, replicates int, seed uint64) (*stabilityTable, error) {
	if len(fractions) == 0 {
		return nil, fmt.Errorf("%w: no train fractions given", errInvalidArgument)
	}
	t := &stabilityTable{
		fractions: fractions,
		freq:      map[string]map[float64]float64{},
	}
	src := rand.NewSource(seed)
	for _, frac := range fractions {
		parts, err := makePartitions(sig, frac, c, replicates, src)
		if err != nil {
			return nil, err
		}

		retained := make([][]string, replicates)
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for rep := range parts {
			rep := rep
			g.Go(func() error {
				m, err := selectModel(sig, parts[rep].train, sch)
				var fe *fitError
				if errors.As(err, &fe) {
					// contained: this replicate contributes no variables
					log.Warnf("stability %s fraction=%g replicate=%d: %s", sig, frac, rep, err)
					return nil
				} else if err != nil {
					return err
				} else if m == nil {
					return nil
				}
				for _, row := range coefTable(m) {
					if row.Variable == interceptName || row.P >= rawPCutoff {
						continue
					}
					retained[rep] = append(retained[rep], row.Variable)
				}
				return nil
			})
		}
		err = g.Wait()
		if err != nil {
			return nil, err
		}

		counts := map[string]int{}
		for _, vars := range retained {
			for _, v := range vars {
				counts[v]++
			}
		}
		for v, n := range counts {
			if t.freq[v] == nil {
				t.freq[v] = map[float64]float64{}
			}
			t.freq[v][frac] = float64(n) / float64(replicates)
		}
	}

	for v := range t.freq {
		t.vars = append(t.vars, v)
	}
	sortKey := fractions[0]
	for _, frac := range fractions {
		if frac > sortKey {
			sortKey = frac
		}
	}
	// variables never significant at the highest train fraction
	// sort first
	sort.Slice(t.vars, func(a, b int) bool {
		fa, oka := t.cell(t.vars[a], sortKey)
		fb, okb := t.cell(t.vars[b], sortKey)
		if !oka {
			fa = -1
		}
		if !okb {
			fb = -1
		}
		if fa != fb {
			return fa < fb
		}
		return t.vars[a] < t.vars[b]
	})
	return t, nil
}

func (t *stabilityTable) write(w io.Writer) error {
	csvw := csv.NewWriter(w)
	header := []string{"Variable"}
	for _, frac := range t.fractions {
		header = append(header, fmt.Sprintf("%g", frac))
	}
	err := csvw.Write(header)
	if err != nil {
		return err
	}
	for _, v := range t.vars {
		record := []string{v}
		for _, frac := range t.fractions {
			if f, ok := t.cell(v, frac); ok {
				record = append(record, fmt.Sprintf("%g", f))
			} else {
				record = append(record, "")
			}
		}
		err = csvw.Write(record)
		if err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}
