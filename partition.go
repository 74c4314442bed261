// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
)

// partition is one stratified train/test split. test is the exact
// complement of train by sample identifier, not a second draw, so
// train and test are always disjoint.
type partition struct {
	train *cohort
	test  *cohort
}

// makePartitions draws n independent stratified samples of
// ≈ frac×len(c) rows, preserving the class balance of the binary resp
// column. The caller supplies the random source, so a fixed seed gives
// a fixed partition sequence.
func makePartitions(resp string, frac float64, c *cohort, n int, src rand.Source) ([]partition, error) {
	if !(frac > 0 && frac <= 1) {
		return nil, fmt.Errorf("%w: train fraction %v outside (0,1]", errInvalidArgument, frac)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: replicate count %d < 1", errInvalidArgument, n)
	}
	col, ok := c.column(resp)
	if !ok {
		return nil, fmt.Errorf("%w: no column named %q", errInvalidArgument, resp)
	}
	if !c.isBinary(resp) {
		return nil, fmt.Errorf("%w: response column %q is not coded {0,1}", errInvalidArgument, resp)
	}

	var classes [2][]int
	for i, v := range col {
		classes[int(v)] = append(classes[int(v)], i)
	}

	rnd := rand.New(src)
	parts := make([]partition, 0, n)
	for rep := 0; rep < n; rep++ {
		var train []int
		inTrain := make([]bool, c.len())
		for _, class := range classes {
			want := int(frac*float64(len(class)) + 0.5)
			if want > len(class) {
				want = len(class)
			}
			for _, i := range rnd.Perm(len(class))[:want] {
				train = append(train, class[i])
				inTrain[class[i]] = true
			}
		}
		sort.Ints(train)
		var test []int
		for i := 0; i < c.len(); i++ {
			if !inTrain[i] {
				test = append(test, i)
			}
		}
		parts = append(parts, partition{train: c.subset(train), test: c.subset(test)})
	}
	return parts, nil
}
