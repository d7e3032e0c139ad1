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

type countState int64

func (countState) isAggState() {}

// NewCount counts rows. It is not null-wrapped: it counts rows, not
// values, so nulls contribute like any other row and an empty input
// finalizes to 0 rather than null.
func NewCount(opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	return mustNew(cfg.name("count", ""),
		func(Key) AggState { return countState(0) },
		func(a, b AggState) AggState { return a.(countState) + b.(countState) },
		BlockWise(func(a AggState, blk block.Block) AggState {
			return a.(countState) + countState(blk.NumRows())
		}),
		nil,
	)
}
