// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	kindNumeric = "numeric"
	kindBinary  = "binary"
	kindLevel   = "level"
)

// covariate describes one column of the cohort table. Dummy-coded
// levels of a grouped categorical predictor carry the group name, so
// they can be re-merged into the full term when building a
// multivariate model.
type covariate struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"` // numeric, binary, or level
	Group string `json:"group,omitempty"`
}

// schema declares the layout of a cohort table: the sample identifier
// column, the binary signature response columns, and the candidate
// covariates. Column roles are declared here rather than inferred
// from column-name patterns.
type schema struct {
	IDColumn   string      `json:"id_column"`
	Signatures []string    `json:"signatures"`
	Covariates []covariate `json:"covariates"`
}

func loadSchema(path string) (*schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sch schema
	err = json.Unmarshal(buf, &sch)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return &sch, sch.validate()
}

func (sch *schema) validate() error {
	if sch.IDColumn == "" {
		return fmt.Errorf("%w: schema does not name an id column", errInvalidArgument)
	}
	if len(sch.Signatures) == 0 {
		return fmt.Errorf("%w: schema declares no signature columns", errInvalidArgument)
	}
	seen := map[string]bool{sch.IDColumn: true}
	for _, sig := range sch.Signatures {
		if seen[sig] {
			return fmt.Errorf("%w: duplicate column %q in schema", errInvalidArgument, sig)
		}
		seen[sig] = true
	}
	for _, cv := range sch.Covariates {
		if seen[cv.Name] {
			return fmt.Errorf("%w: duplicate column %q in schema", errInvalidArgument, cv.Name)
		}
		seen[cv.Name] = true
		switch cv.Kind {
		case kindNumeric, kindBinary:
		case kindLevel:
			if cv.Group == "" {
				return fmt.Errorf("%w: level covariate %q has no group", errInvalidArgument, cv.Name)
			}
		default:
			return fmt.Errorf("%w: covariate %q has unknown kind %q", errInvalidArgument, cv.Name, cv.Kind)
		}
	}
	return nil
}

func (sch *schema) isSignature(name string) bool {
	for _, sig := range sch.Signatures {
		if sig == name {
			return true
		}
	}
	return false
}

// groupColumns returns the member columns of a dummy-coded group, in
// schema order.
func (sch *schema) groupColumns(group string) []string {
	var cols []string
	for _, cv := range sch.Covariates {
		if cv.Group == group {
			cols = append(cols, cv.Name)
		}
	}
	return cols
}

// candidates returns the candidate covariate set for one response:
// every declared covariate except the response itself and any other
// signature column, recomputed per response so no signature leaks into
// another signature's model.
func (sch *schema) candidates(resp string) []string {
	var cols []string
	for _, cv := range sch.Covariates {
		if cv.Name == resp || sch.isSignature(cv.Name) {
			continue
		}
		cols = append(cols, cv.Name)
	}
	return cols
}
