// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"errors"
	"fmt"
	"strings"
)

// errInvalidArgument marks malformed requests (non-binary response
// column, train fraction out of range, bad schema). Wrapped with
// context at the call site.
var errInvalidArgument = errors.New("invalid argument")

// fitError reports that a combined multivariate fit failed to
// converge. Unlike per-covariate screening failures, which are
// contained, this is surfaced to the caller; aggregation layers treat
// it as "no significant variables", never as a crash.
type fitError struct {
	Response string
	Terms    []string
	Err      error
}

func (e *fitError) Error() string {
	return fmt.Sprintf("fit %s ~ %s: %s", e.Response, strings.Join(e.Terms, " + "), e.Err)
}

func (e *fitError) Unwrap() error { return e.Err }
