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
	"encoding/binary"
	"math"

	hll "github.com/axiomhq/hyperloglog"

	"github.com/foldlabs/blockfold/pkg/container/block"
)

// sketchState is a hyperloglog sketch of the distinct non-null values
// of one group.
type sketchState struct {
	sk *hll.Sketch
}

func (sketchState) isAggState() {}

// NewApproxCountDistinct estimates the number of distinct non-null
// values of column on with a mergeable hyperloglog sketch. Unlike
// Quantile it holds bounded memory per group, at the price of an
// approximate result.
func NewApproxCountDistinct(on string, opts ...AggOpt) *AggregateFn {
	cfg := newAggConfig(opts)
	return mustNew(cfg.name("approx_count_distinct", on),
		nullWrapInit(),
		nullWrapMerge(func(a, b AggState) AggState {
			merged := a.(sketchState).sk.Clone()
			// Merge only fails on precision mismatch and every
			// sketch here shares hll.New's precision.
			_ = merged.Merge(b.(sketchState).sk)
			return sketchState{sk: merged}
		}),
		RowWise(nullWrapAccumulateRow(
			cfg.ignoreNulls,
			func() AggState { return sketchState{sk: hll.New()} },
			func(row block.Row) (float64, bool) { return row.Get(on) },
			func(a AggState, v float64) AggState {
				// In-place insert: accumulate may reuse the incoming
				// state, only Merge keeps its operands intact.
				sk := a.(sketchState).sk
				var buf [8]byte
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				sk.Insert(buf[:])
				return sketchState{sk: sk}
			},
		)),
		nullWrapFinalize(func(a AggState) Datum {
			return Float(float64(a.(sketchState).sk.Estimate()))
		}),
	).onKey(on)
}
