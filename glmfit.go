// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"fmt"
	"io"
	"log"
	"math"

	"github.com/kshedden/statmodel/glm"
	"github.com/kshedden/statmodel/statmodel"
)

// interceptName is the label of the constant term in every fitted
// model, matching the column name passed to the fitting primitive.
const interceptName = "constants"

var glmConfig = &glm.Config{
	Family:         glm.NewFamily(glm.BinomialFamily),
	FitMethod:      "IRLS",
	ConcurrentIRLS: 1000,
	Log:            log.New(io.Discard, "", 0),
}

// term is one unit of the multivariate model: either a single
// covariate, or a dummy-coded categorical group whose member columns
// enter and leave the model together.
type term struct {
	name string
	cols []string
}

// fittedModel is the result of one logistic fit: per-coefficient Wald
// statistics plus the quantities the stepwise search needs.
type fittedModel struct {
	response string
	terms    []term
	names    []string // coefficient names, interceptName first
	params   []float64
	stderr   []float64
	zscores  []float64
	pvalues  []float64
	loglike  float64
	aic      float64
	nobs     int
}

// coef returns the index of the named coefficient, or -1.
func (m *fittedModel) coef(name string) int {
	for i, n := range m.names {
		if n == name {
			return i
		}
	}
	return -1
}

// fitLogistic fits resp ~ constants + cols with a binomial GLM. The
// fitting primitive panics on singular or near-singular designs;
// that, a NaN coefficient, or a NaN log-likelihood is reported as an
// error so callers can decide whether to drop or propagate.
func fitLogistic(c *cohort, resp string, cols []string) (m *fittedModel, err error) {
	defer func() {
		if recover() != nil {
			// typically "matrix singular or near-singular with condition number +Inf"
			m, err = nil, fmt.Errorf("fit %s: singular design matrix", resp)
		}
	}()

	outcome, ok := c.column(resp)
	if !ok {
		return nil, fmt.Errorf("%w: no column named %q", errInvalidArgument, resp)
	}
	constants := make([]statmodel.Dtype, c.len())
	for i := range constants {
		constants[i] = 1
	}
	data := [][]statmodel.Dtype{outcome, constants}
	names := []string{resp, interceptName}
	for _, col := range cols {
		series, ok := c.column(col)
		if !ok {
			return nil, fmt.Errorf("%w: no column named %q", errInvalidArgument, col)
		}
		data = append(data, series)
		names = append(names, col)
	}
	dataset := statmodel.NewDataset(data, names)

	model, err := glm.NewGLM(dataset, resp, names[1:], glmConfig)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", resp, err)
	}
	result := model.Fit()
	loglike := result.LogLike()
	params := result.Params()
	if math.IsNaN(loglike) {
		return nil, fmt.Errorf("fit %s: log-likelihood is NaN", resp)
	}
	for _, p := range params {
		if math.IsNaN(p) {
			return nil, fmt.Errorf("fit %s: did not converge", resp)
		}
	}
	return &fittedModel{
		response: resp,
		names:    names[1:],
		params:   params,
		stderr:   result.StdErr(),
		zscores:  result.ZScores(),
		pvalues:  result.PValues(),
		loglike:  loglike,
		aic:      2*float64(len(params)) - 2*loglike,
		nobs:     c.len(),
	}, nil
}

// fitTerms fits resp against the concatenated member columns of terms.
func fitTerms(c *cohort, resp string, terms []term) (*fittedModel, error) {
	var cols []string
	for _, t := range terms {
		cols = append(cols, t.cols...)
	}
	m, err := fitLogistic(c, resp, cols)
	if err != nil {
		return nil, err
	}
	m.terms = terms
	return m, nil
}
