// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/tumorseq/rsassoc"
)

func main() {
	rsassoc.Main()
}
