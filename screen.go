// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
)

const rawPCutoff = 0.05

// screenUnivariate fits one single-covariate logistic model per
// candidate covariate and returns the coefficient rows of covariates
// whose raw p-value is below 0.05, with a Benjamini-Hochberg adjusted
// p attached. The adjustment runs across the retained covariates only,
// not the full candidate set. A covariate whose fit fails to converge
// is dropped and the screen continues.
func screenUnivariate(resp string, c *cohort, sch *schema) map[string]coefRow {
	retained := map[string]coefRow{}
	for _, name := range sch.candidates(resp) {
		m, err := fitLogistic(c, resp, []string{name})
		if err != nil {
			log.Debugf("screen %s ~ %s: %s", resp, name, err)
			continue
		}
		i := m.coef(name)
		if i < 0 || math.IsNaN(m.pvalues[i]) {
			continue
		}
		if m.pvalues[i] >= rawPCutoff {
			continue
		}
		retained[name] = coefRow{
			Variable: name,
			Estimate: m.params[i],
			StdErr:   m.stderr[i],
			Z:        m.zscores[i],
			P:        m.pvalues[i],
			PAdj:     math.NaN(),
		}
	}
	if len(retained) == 0 {
		return retained
	}

	names := make([]string, 0, len(retained))
	for name := range retained {
		names = append(names, name)
	}
	sort.Strings(names)
	pvalues := make([]float64, len(names))
	for i, name := range names {
		pvalues[i] = retained[name].P
	}
	for i, padj := range bhAdjust(pvalues) {
		row := retained[names[i]]
		row.PAdj = padj
		retained[names[i]] = row
	}
	return retained
}
