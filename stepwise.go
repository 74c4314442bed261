// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	log "github.com/sirupsen/logrus"
)

const fdrCutoff = 0.05

// selectModel builds the multivariate model for one signature: run the
// univariate screen, keep covariates with adjusted p < 0.05, merge
// dummy-coded survivors back into their full categorical terms, fit
// the combined model, and prune it by bidirectional stepwise AIC
// search. Returns (nil, nil) when nothing survives screening, and a
// *fitError when the combined fit itself fails to converge.
func selectModel(resp string, c *cohort, sch *schema) (*fittedModel, error) {
	screened := screenUnivariate(resp, c, sch)

	var terms []term
	seen := map[string]bool{}
	// schema order, so term order does not depend on map iteration
	for _, cv := range sch.Covariates {
		row, ok := screened[cv.Name]
		if !ok || row.PAdj >= fdrCutoff {
			continue
		}
		if cv.Group != "" {
			if seen[cv.Group] {
				continue
			}
			seen[cv.Group] = true
			terms = append(terms, term{name: cv.Group, cols: sch.groupColumns(cv.Group)})
		} else {
			terms = append(terms, term{name: cv.Name, cols: []string{cv.Name}})
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	full, err := fitTerms(c, resp, terms)
	if err != nil {
		return nil, &fitError{Response: resp, Terms: termNames(terms), Err: err}
	}
	return stepwiseAIC(c, resp, full), nil
}

// stepwiseAIC reduces a fitted model by repeatedly applying the single
// term removal or re-addition that most improves (lowers) AIC,
// stopping when no move improves it. The candidate pool for additions
// is the initial model's own term set, so the search moves both ways
// within the screened terms. A move whose fit fails is skipped.
func stepwiseAIC(c *cohort, resp string, full *fittedModel) *fittedModel {
	pool := full.terms
	current := full
	for {
		active := map[string]bool{}
		for _, t := range current.terms {
			active[t.name] = true
		}

		best := current
		for _, t := range pool {
			var trial []term
			if active[t.name] {
				for _, u := range current.terms {
					if u.name != t.name {
						trial = append(trial, u)
					}
				}
			} else {
				trial = append(append([]term(nil), current.terms...), t)
			}
			// an empty trial is the intercept-only model,
			// which still has a defined AIC
			m, err := fitTerms(c, resp, trial)
			if err != nil {
				log.Debugf("stepwise %s: %s", resp, err)
				continue
			}
			if m.aic < best.aic {
				best = m
			}
		}
		if best == current {
			return current
		}
		current = best
	}
}

func termNames(terms []term) []string {
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.name
	}
	return names
}
