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
	"sort"

	"github.com/foldlabs/blockfold/pkg/common/bferr"
	"github.com/foldlabs/blockfold/pkg/container/block"
)

// quantileState is every non-null value seen so far for one group.
// The whole group is held in memory and sorted once at finalize; this
// keeps the result exact but does not scale to groups that exceed
// memory.
type quantileState []float64

func (quantileState) isAggState() {}

// NewQuantile computes the exact q-quantile of column on by linear
// interpolation between the two nearest order statistics, rounded to 5
// decimal places. q defaults to 0.5, the median; a q outside [0, 1]
// panics with a configuration error at construction.
func NewQuantile(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	if cfg.q < 0 || cfg.q > 1 {
		panic(bferr.NewConfiguration("quantile: q must be in [0, 1], got %v", cfg.q))
	}
	merge := nullWrapMerge(func(a, b AggState) AggState {
		x, y := a.(quantileState), b.(quantileState)
		out := make(quantileState, 0, len(x)+len(y))
		out = append(out, x...)
		out = append(out, y...)
		return out
	})
	return mustNew(cfg.name("quantile", on),
		nullWrapInit(),
		merge,
		BlockWise(nullWrapAccumulateBlock(
			vectorize(on, cfg.ignoreNulls, func(blk block.Block, col string) (AggState, bool) {
				values := make(quantileState, 0, blk.NumRows())
				it := blk.Rows()
				for {
					row, ok := it.Next()
					if !ok {
						break
					}
					if v, valid := row.Get(col); valid {
						values = append(values, v)
					}
				}
				return values, true
			}),
			merge,
		)),
		nullWrapFinalize(func(a AggState) Datum {
			return percentile(a.(quantileState), cfg.q)
		}),
	).onKey(on)
}

// percentile is the linear-interpolation order statistic at rank
// (n-1)*q over a copy of values.
func percentile(values quantileState, q float64) Datum {
	if len(values) == 0 {
		return Null()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	k := float64(len(sorted)-1) * q
	f := int(k)
	c := f
	if k != float64(f) {
		c = f + 1
	}
	if f == c {
		return Float(sorted[f])
	}
	d0 := sorted[f] * (float64(c) - k)
	d1 := sorted[c] * (k - float64(f))
	return Float(roundPlaces(d0+d1, 5))
}
