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

// Package aggregate implements accumulator-style aggregation over
// blocks of rows.
//
// Every aggregation is four functions: an init producing the empty
// accumulator for one group, an associative and commutative merge of
// two accumulators, an accumulate folding one block (or one row) into
// an accumulator, and a finalize turning the fully merged accumulator
// into the output value. The merge laws are what let the owning engine
// run blocks of the same group on any number of workers and combine
// the partial states in any order and any tree shape.
//
// Merge never modifies its operands, so partial accumulators may be
// combined across workers in any order with no synchronization.
// Accumulate only promises to return the updated accumulator; it may
// reuse the storage of the state it was given, so callers thread one
// state linearly per worker and must not hold on to earlier states of
// the chain.
package aggregate

import (
	"math"

	"github.com/foldlabs/blockfold/pkg/container/block"
)

// Key identifies one group. GlobalKey marks a whole-dataset
// aggregation.
type Key string

const GlobalKey Key = ""

// AggState is an opaque accumulator. Each aggregation kind has its own
// concrete state type; the marker method keeps foreign types out.
type AggState interface {
	isAggState()
}

// Datum is one nullable output value.
type Datum struct {
	Valid bool
	Value float64
}

// Null returns the null Datum.
func Null() Datum {
	return Datum{}
}

// Float returns a valid Datum holding v.
func Float(v float64) Datum {
	return Datum{Valid: true, Value: v}
}

type (
	// InitFunc returns the empty accumulator for one group.
	InitFunc func(key Key) AggState

	// MergeFunc combines two accumulators. It must be associative
	// and commutative.
	MergeFunc func(a, b AggState) AggState

	// RowFunc folds one row into an accumulator.
	RowFunc func(a AggState, row block.Row) AggState

	// BlockFunc folds one block into an accumulator.
	BlockFunc func(a AggState, blk block.Block) AggState

	// FinalizeFunc produces the output value from a fully merged
	// accumulator.
	FinalizeFunc func(a AggState) Datum
)

// Accumulator is the accumulation strategy of an aggregation: exactly
// one of RowWise and BlockWise. Supplying both is unrepresentable.
type Accumulator interface {
	isAccumulator()
}

type rowWise struct{ fn RowFunc }

type blockWise struct{ fn BlockFunc }

func (rowWise) isAccumulator()   {}
func (blockWise) isAccumulator() {}

// RowWise accumulates one row at a time. The block-level fold is
// derived by iterating the block in row order; the row fold must be
// order-independent for the result to match a vectorized path.
func RowWise(fn RowFunc) Accumulator {
	return rowWise{fn: fn}
}

// BlockWise accumulates a whole block at a time.
func BlockWise(fn BlockFunc) Accumulator {
	return blockWise{fn: fn}
}

// floatState is the scalar accumulator shared by sum, min, max and
// absolute max.
type floatState float64

func (floatState) isAggState() {}

// resolveOn picks the target column of blk: the configured column, or
// the block's only column when unset.
func resolveOn(blk block.Block, on string) string {
	if on != "" {
		return on
	}
	if schema := blk.Schema(); len(schema) == 1 {
		return schema[0]
	}
	return ""
}

func roundPlaces(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
