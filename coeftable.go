// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// z975 is the 97.5% standard normal quantile used for the 95%
// confidence interval.
var z975 = distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)

// coefRow is one tidy coefficient-table row: native-scale Wald
// statistics plus the odds-ratio scale. Index labels the run the row
// came from (signature for the full-cohort table, replicate for the
// stability branch).
type coefRow struct {
	Index    string
	Variable string
	Estimate float64
	StdErr   float64
	Z        float64
	P        float64
	PAdj     float64
	OR       float64
	ORLower  float64
	ORUpper  float64
}

// coefTable converts a fitted model into coefficient rows, one per
// model coefficient including the intercept, with exponentiated
// estimate and 95% CI bounds. No significance filtering happens here.
func coefTable(m *fittedModel) []coefRow {
	rows := make([]coefRow, 0, len(m.names))
	for i, name := range m.names {
		rows = append(rows, coefRow{
			Variable: name,
			Estimate: m.params[i],
			StdErr:   m.stderr[i],
			Z:        m.zscores[i],
			P:        m.pvalues[i],
			PAdj:     math.NaN(),
			OR:       math.Exp(m.params[i]),
			ORLower:  math.Exp(m.params[i] - z975*m.stderr[i]),
			ORUpper:  math.Exp(m.params[i] + z975*m.stderr[i]),
		})
	}
	return rows
}

var coefTableHeader = []string{"Index", "Variable", "Estimate", "StdErr", "Z", "P", "PAdj", "OR", "ORLower", "ORUpper"}

func writeCoefTable(w io.Writer, rows []coefRow) error {
	csvw := csv.NewWriter(w)
	err := csvw.Write(coefTableHeader)
	if err != nil {
		return err
	}
	for _, r := range rows {
		err = csvw.Write([]string{
			r.Index, r.Variable,
			fmtFloat(r.Estimate), fmtFloat(r.StdErr), fmtFloat(r.Z),
			fmtFloat(r.P), fmtFloat(r.PAdj),
			fmtFloat(r.OR), fmtFloat(r.ORLower), fmtFloat(r.ORUpper),
		})
		if err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.6g", v)
}
