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
	"testing"

	"github.com/foldlabs/blockfold/pkg/common/bferr"
	"github.com/foldlabs/blockfold/pkg/container/block"
	"github.com/foldlabs/blockfold/pkg/container/nulls"
	"github.com/stretchr/testify/require"
)

// makeBlock builds a single-column block named "x".
func makeBlock(t *testing.T, values []float64, nullRows ...uint64) block.Block {
	t.Helper()
	var nsp *nulls.Nulls
	if len(nullRows) > 0 {
		nsp = nulls.Build(nullRows...)
	}
	b, err := block.NewMem(block.Column{Name: "x", Values: values, Nulls: nsp})
	require.NoError(t, err)
	return b
}

// run aggregates blocks one by one and finalizes once.
func run(agg *AggregateFn, blocks ...block.Block) Datum {
	state := agg.Init(GlobalKey)
	for _, blk := range blocks {
		state = agg.AccumulateBlock(state, blk)
	}
	return agg.Finalize(state)
}

func TestNewValidation(t *testing.T) {
	init := func(Key) AggState { return countState(0) }
	merge := func(a, b AggState) AggState { return a }

	_, err := New("custom", init, merge, nil, nil)
	require.True(t, bferr.IsConfiguration(err))

	_, err = New("custom", nil, merge, BlockWise(func(a AggState, blk block.Block) AggState { return a }), nil)
	require.True(t, bferr.IsConfiguration(err))

	_, err = New("custom", init, nil, BlockWise(func(a AggState, blk block.Block) AggState { return a }), nil)
	require.True(t, bferr.IsConfiguration(err))

	agg, err := New("custom", init, merge,
		BlockWise(func(a AggState, blk block.Block) AggState { return a }), nil)
	require.NoError(t, err)
	require.Equal(t, "custom", agg.Name())
}

type opaqueState struct{}

func (opaqueState) isAggState() {}

func TestDefaultFinalizeScalarsOnly(t *testing.T) {
	agg, err := New("opaque",
		func(Key) AggState { return opaqueState{} },
		func(a, b AggState) AggState { return a },
		BlockWise(func(a AggState, blk block.Block) AggState { return a }),
		nil,
	)
	require.NoError(t, err)
	// the default finalize only understands the built-in scalar
	// states; anything else finalizes to null
	require.Equal(t, Null(), agg.Finalize(agg.Init(GlobalKey)))
}

func TestRowWiseSynthesis(t *testing.T) {
	// A row-wise count must agree with the vectorized NumRows path.
	agg, err := New("row_count",
		func(Key) AggState { return countState(0) },
		func(a, b AggState) AggState { return a.(countState) + b.(countState) },
		RowWise(func(a AggState, row block.Row) AggState { return a.(countState) + 1 }),
		nil,
	)
	require.NoError(t, err)

	blk := makeBlock(t, []float64{1, 2, 3}, 1)
	require.Equal(t, Float(3), run(agg, blk))
	require.Equal(t, run(NewCount(), blk), run(agg, blk))
}

func TestValidate(t *testing.T) {
	schema := block.Schema{"x", "y"}

	require.NoError(t, NewCount().Validate(schema))
	require.NoError(t, NewSum("x").Validate(schema))
	require.NoError(t, NewStd("y").Validate(schema))

	err := NewSum("missing").Validate(schema)
	require.True(t, bferr.IsSchemaValidation(err))

	// no column given: only valid against a single-column schema
	err = NewMean("").Validate(schema)
	require.True(t, bferr.IsSchemaValidation(err))
	require.NoError(t, NewMean("").Validate(block.Schema{"x"}))
}

func TestNames(t *testing.T) {
	require.Equal(t, "count()", NewCount().Name())
	require.Equal(t, "sum(x)", NewSum("x").Name())
	require.Equal(t, "mean(x)", NewMean("x").Name())
	require.Equal(t, "std(x)", NewStd("x").Name())
	require.Equal(t, "abs_max(x)", NewAbsMax("x").Name())
	require.Equal(t, "quantile(x)", NewQuantile("x").Name())
	require.Equal(t, "approx_count_distinct(x)", NewApproxCountDistinct("x").Name())
	require.Equal(t, "total", NewSum("x", WithAlias("total")).Name())
}

func TestFinalizeIsPure(t *testing.T) {
	agg := NewStd("x")
	state := agg.AccumulateBlock(agg.Init(GlobalKey), makeBlock(t, []float64{2, 4, 4, 4, 5, 5, 7, 9}))
	first := agg.Finalize(state)
	second := agg.Finalize(state)
	require.Equal(t, first, second)
	require.True(t, first.Valid)
}
