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
	"github.com/foldlabs/blockfold/pkg/container/block"
)

// meanState carries the running sum and non-null count of one group.
type meanState struct {
	sum   float64
	count int64
}

func (meanState) isAggState() {}

// NewMean averages column on. One vectorized pass collects the block's
// sum and non-null count in a single state.
func NewMean(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	merge := nullWrapMerge(func(a, b AggState) AggState {
		x, y := a.(meanState), b.(meanState)
		return meanState{sum: x.sum + y.sum, count: x.count + y.count}
	})
	return mustNew(cfg.name("mean", on),
		nullWrapInit(),
		merge,
		BlockWise(nullWrapAccumulateBlock(
			vectorize(on, cfg.ignoreNulls, func(blk block.Block, col string) (AggState, bool) {
				sum, ok := blk.Sum(col, cfg.ignoreNulls)
				if !ok {
					return nil, false
				}
				return meanState{sum: sum, count: int64(blk.Count(col))}, true
			}),
			merge,
		)),
		nullWrapFinalize(func(a AggState) Datum {
			s := a.(meanState)
			return Float(s.sum / float64(s.count))
		}),
	).onKey(on)
}
