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

// NewSum sums the values of column on, vectorized through the block's
// sum primitive.
func NewSum(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	merge := nullWrapMerge(func(a, b AggState) AggState {
		return a.(floatState) + b.(floatState)
	})
	return mustNew(cfg.name("sum", on),
		nullWrapInit(),
		merge,
		BlockWise(nullWrapAccumulateBlock(
			vectorize(on, cfg.ignoreNulls, func(blk block.Block, col string) (AggState, bool) {
				s, ok := blk.Sum(col, cfg.ignoreNulls)
				return floatState(s), ok
			}),
			merge,
		)),
		nullWrapFinalize(identityFinalize),
	).onKey(on)
}
