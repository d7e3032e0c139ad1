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

// NewMin keeps the smallest value of column on.
func NewMin(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	merge := nullWrapMerge(func(a, b AggState) AggState {
		if x, y := a.(floatState), b.(floatState); x < y {
			return x
		}
		return b
	})
	return mustNew(cfg.name("min", on),
		nullWrapInit(),
		merge,
		BlockWise(nullWrapAccumulateBlock(
			vectorize(on, cfg.ignoreNulls, func(blk block.Block, col string) (AggState, bool) {
				m, ok := blk.Min(col, cfg.ignoreNulls)
				return floatState(m), ok
			}),
			merge,
		)),
		nullWrapFinalize(identityFinalize),
	).onKey(on)
}

// NewMax keeps the largest value of column on.
func NewMax(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	merge := nullWrapMerge(func(a, b AggState) AggState {
		if x, y := a.(floatState), b.(floatState); x > y {
			return x
		}
		return b
	})
	return mustNew(cfg.name("max", on),
		nullWrapInit(),
		merge,
		BlockWise(nullWrapAccumulateBlock(
			vectorize(on, cfg.ignoreNulls, func(blk block.Block, col string) (AggState, bool) {
				m, ok := blk.Max(col, cfg.ignoreNulls)
				return floatState(m), ok
			}),
			merge,
		)),
		nullWrapFinalize(identityFinalize),
	).onKey(on)
}

// NewAbsMax keeps the largest absolute value of column on. There is no
// vectorized absolute-value primitive on blocks, so this is the one
// row-wise built-in; the block fold is derived from the row fold.
func NewAbsMax(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	return mustNew(cfg.name("abs_max", on),
		nullWrapInit(),
		nullWrapMerge(func(a, b AggState) AggState {
			if x, y := a.(floatState), b.(floatState); x > y {
				return x
			}
			return b
		}),
		RowWise(nullWrapAccumulateRow(
			cfg.ignoreNulls,
			func() AggState { return floatState(0) },
			func(row block.Row) (float64, bool) { return row.Get(on) },
			func(a AggState, v float64) AggState {
				if av := floatState(math.Abs(v)); av > a.(floatState) {
					return av
				}
				return a
			},
		)),
		nullWrapFinalize(identityFinalize),
	).onKey(on)
}
