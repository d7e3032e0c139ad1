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

// The null wrapper injects the ignore-nulls policy into any base
// aggregation, so the base functions only ever see non-null input.
//
// The wrapped accumulator is a three-way tagged state:
//
//	empty    - no non-null value seen yet; the identity of merge
//	poisoned - a null was seen under the strict policy; absorbing
//	value    - holds a base accumulator
//
// Poisoning is permanent: once a group is poisoned every further
// accumulation is a no-op and the group finalizes to null. Empty and
// poisoned are deliberately distinct states; an empty group and a
// strict-mode group that met a null both output null, but only the
// latter absorbs on merge.

type nullTag uint8

const (
	nullEmpty nullTag = iota
	nullPoisoned
	nullValue
)

type nullState struct {
	tag   nullTag
	inner AggState
}

func (nullState) isAggState() {}

func asNullState(a AggState) nullState {
	s, ok := a.(nullState)
	if !ok {
		panic("aggregate: accumulator is not null-wrapped")
	}
	return s
}

// blockStatus classifies a vectorized per-block result.
type blockStatus uint8

const (
	blockOK blockStatus = iota

	// blockEmpty: the block holds no non-null value for the target
	// column.
	blockEmpty

	// blockNull: the block holds a null and the policy is strict.
	blockNull
)

// vectorizedFunc computes one block's partial accumulator.
type vectorizedFunc func(blk block.Block) (AggState, blockStatus)

func nullWrapInit() InitFunc {
	return func(Key) AggState {
		return nullState{tag: nullEmpty}
	}
}

func nullWrapMerge(merge MergeFunc) MergeFunc {
	return func(a, b AggState) AggState {
		x, y := asNullState(a), asNullState(b)
		switch {
		case x.tag == nullPoisoned || y.tag == nullPoisoned:
			return nullState{tag: nullPoisoned}
		case x.tag == nullEmpty:
			return y
		case y.tag == nullEmpty:
			return x
		default:
			return nullState{tag: nullValue, inner: merge(x.inner, y.inner)}
		}
	}
}

// nullWrapAccumulateRow wraps a row fold. seed supplies the base empty
// accumulator, extract pulls the target value out of a row.
func nullWrapAccumulateRow(
	ignoreNulls bool,
	seed func() AggState,
	extract func(block.Row) (float64, bool),
	accum func(a AggState, v float64) AggState,
) RowFunc {
	return func(a AggState, row block.Row) AggState {
		s := asNullState(a)
		if s.tag == nullPoisoned {
			return s
		}
		v, ok := extract(row)
		if !ok {
			if ignoreNulls {
				return s
			}
			return nullState{tag: nullPoisoned}
		}
		inner := s.inner
		if s.tag == nullEmpty {
			inner = seed()
		}
		return nullState{tag: nullValue, inner: accum(inner, v)}
	}
}

// nullWrapAccumulateBlock wraps a vectorized per-block computation.
// The block's partial result is folded into the running state with the
// wrapped merge, so poisoning propagates the same way it does across
// partitions.
func nullWrapAccumulateBlock(vectorized vectorizedFunc, nullMerge MergeFunc) BlockFunc {
	return func(a AggState, blk block.Block) AggState {
		partial, status := vectorized(blk)
		switch status {
		case blockEmpty:
			return nullMerge(a, nullState{tag: nullEmpty})
		case blockNull:
			return nullMerge(a, nullState{tag: nullPoisoned})
		default:
			return nullMerge(a, nullState{tag: nullValue, inner: partial})
		}
	}
}

func nullWrapFinalize(finalize FinalizeFunc) FinalizeFunc {
	return func(a AggState) Datum {
		s := asNullState(a)
		if s.tag != nullValue {
			return Null()
		}
		return finalize(s.inner)
	}
}

// vectorize builds a vectorizedFunc from a per-block reducer, adding
// the shared empty and strict-null classification. reduce only runs on
// blocks known to hold at least one non-null value.
func vectorize(on string, ignoreNulls bool, reduce func(blk block.Block, col string) (AggState, bool)) vectorizedFunc {
	return func(blk block.Block) (AggState, blockStatus) {
		col := resolveOn(blk, on)
		count := blk.Count(col)
		if !ignoreNulls && count < blk.NumRows() {
			return nil, blockNull
		}
		if count == 0 {
			return nil, blockEmpty
		}
		st, ok := reduce(blk, col)
		if !ok {
			return nil, blockNull
		}
		return st, blockOK
	}
}
