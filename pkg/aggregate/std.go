// Copyright 2023 BlockFold
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aggregate

import (
	"math"

	"github.com/foldlabs/blockfold/pkg/container/block"
)

// welfordState is a Welford accumulator: the sum of squared
// differences from the current mean, the mean, and the non-null count.
type welfordState struct {
	m2    float64
	mean  float64
	count int64
}

func (welfordState) isAggState() {}

// NewStd computes the standard deviation of column on with Welford's
// one-pass method, chosen for numerical stability and for having an
// exact parallel merge. ddof defaults to 1, the sample standard
// deviation.
func NewStd(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	merge := nullWrapMerge(func(a, b AggState) AggState {
		return mergeWelford(a.(welfordState), b.(welfordState))
	})
	return mustNew(cfg.name("std", on),
		nullWrapInit(),
		merge,
		BlockWise(nullWrapAccumulateBlock(
			vectorize(on, cfg.ignoreNulls, func(blk block.Block, col string) (AggState, bool) {
				sum, ok := blk.Sum(col, cfg.ignoreNulls)
				if !ok {
					return nil, false
				}
				count := int64(blk.Count(col))
				mean := sum / float64(count)
				m2, ok := blk.SumOfSquaredDiffsFromMean(col, cfg.ignoreNulls, mean)
				if !ok {
					return nil, false
				}
				return welfordState{m2: m2, mean: mean, count: count}, true
			}),
			merge,
		)),
		nullWrapFinalize(func(a AggState) Datum {
			s := a.(welfordState)
			if s.count < 2 {
				return Float(0.0)
			}
			return Float(math.Sqrt(s.m2 / float64(s.count-int64(cfg.ddof))))
		}),
	).onKey(on)
}

// mergeWelford combines two Welford accumulators.
// See https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Parallel_algorithm
func mergeWelford(a, b welfordState) welfordState {
	delta := b.mean - a.mean
	count := a.count + b.count
	// The weighted-sum form of the mean is kept over
	// mean_a + delta*count_b/count: the latter drifts in the last
	// couple of decimal places and breaks exact comparisons against
	// single-pass results.
	mean := (a.mean*float64(a.count) + b.mean*float64(b.count)) / float64(count)
	m2 := a.m2 + b.m2 + delta*delta*float64(a.count)*float64(b.count)/float64(count)
	return welfordState{m2: m2, mean: mean, count: count}
}
