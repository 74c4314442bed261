// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import "sort"

// bhAdjust returns Benjamini-Hochberg adjusted p-values, in the same
// order as the input. The adjustment is computed over exactly the
// p-values given; callers decide the family (the univariate screener
// deliberately adjusts only over covariates that already passed the
// raw threshold).
func bhAdjust(pvalues []float64) []float64 {
	n := len(pvalues)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pvalues[order[a]] < pvalues[order[b]] })

	adj := make([]float64, n)
	min := 1.0
	for rank := n - 1; rank >= 0; rank-- {
		i := order[rank]
		p := pvalues[i] * float64(n) / float64(rank+1)
		if p < min {
			min = p
		}
		adj[i] = min
	}
	return adj
}
