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
	"fmt"

	"github.com/foldlabs/blockfold/pkg/common/bferr"
	"github.com/foldlabs/blockfold/pkg/container/block"
)

// AggregateFn is one aggregation in the accumulator style. It is
// stateless and safe to share: one instance serves every group and
// every block of a run, all progress lives in the AggState values it
// hands out.
type AggregateFn struct {
	name            string
	on              string
	requiresColumn  bool
	init            InitFunc
	merge           MergeFunc
	accumulateBlock BlockFunc
	finalize        FinalizeFunc
}

// New builds an aggregation from its four functions. acc supplies the
// accumulation strategy; a nil acc, init or merge is a configuration
// error. finalize may be nil, in which case the accumulator itself is
// the output; that default only understands the built-in scalar
// states and finalizes any other state type to null, so custom state
// types should bring their own finalize.
func New(name string, init InitFunc, merge MergeFunc, acc Accumulator, finalize FinalizeFunc) (*AggregateFn, error) {
	if init == nil || merge == nil {
		return nil, bferr.NewConfiguration("aggregation %q: init and merge must be provided", name)
	}
	if acc == nil {
		return nil, bferr.NewConfiguration(
			"aggregation %q: exactly one of row-wise or block-wise accumulation must be provided", name)
	}
	if finalize == nil {
		finalize = identityFinalize
	}
	a := &AggregateFn{
		name:     name,
		init:     init,
		merge:    merge,
		finalize: finalize,
	}
	switch v := acc.(type) {
	case blockWise:
		a.accumulateBlock = v.fn
	case rowWise:
		a.accumulateBlock = foldRows(v.fn)
	default:
		return nil, bferr.NewConfiguration("aggregation %q: unknown accumulation strategy %T", name, acc)
	}
	return a, nil
}

// foldRows derives the block-level fold from a row fold.
func foldRows(fn RowFunc) BlockFunc {
	return func(a AggState, blk block.Block) AggState {
		it := blk.Rows()
		for {
			row, ok := it.Next()
			if !ok {
				return a
			}
			a = fn(a, row)
		}
	}
}

// identityFinalize is the default finalize: the scalar accumulator is
// the output. State types it does not recognize finalize to null.
func identityFinalize(a AggState) Datum {
	switch s := a.(type) {
	case floatState:
		return Float(float64(s))
	case countState:
		return Float(float64(s))
	}
	return Null()
}

// Name is the output column label of this aggregation.
func (a *AggregateFn) Name() string {
	return a.name
}

// Init returns the empty accumulator for the group identified by key.
func (a *AggregateFn) Init(key Key) AggState {
	return a.init(key)
}

// Merge combines two partial accumulators of the same group.
func (a *AggregateFn) Merge(x, y AggState) AggState {
	return a.merge(x, y)
}

// AccumulateBlock folds blk into state and returns the new state.
func (a *AggregateFn) AccumulateBlock(state AggState, blk block.Block) AggState {
	return a.accumulateBlock(state, blk)
}

// Finalize computes the output value. It is a pure read of state and
// may be called any number of times with the same result.
func (a *AggregateFn) Finalize(state AggState) Datum {
	return a.finalize(state)
}

// Validate reports whether this aggregation can run against schema.
// It is invoked before any block is scanned.
func (a *AggregateFn) Validate(schema block.Schema) error {
	if !a.requiresColumn {
		return nil
	}
	if _, err := schema.Resolve(a.on); err != nil {
		return fmt.Errorf("validate %s: %w", a.name, err)
	}
	return nil
}

// mustNew is New for the built-in aggregations, which are valid by
// construction.
func mustNew(name string, init InitFunc, merge MergeFunc, acc Accumulator, finalize FinalizeFunc) *AggregateFn {
	a, err := New(name, init, merge, acc, finalize)
	if err != nil {
		panic(err)
	}
	return a
}

// aggConfig carries the shared options of the built-in aggregations.
type aggConfig struct {
	alias       string
	ignoreNulls bool
	ddof        int
	q           float64
}

// AggOpt configures a built-in aggregation.
type AggOpt func(*aggConfig)

// WithAlias overrides the canonical "<fn>(<column>)" output name.
func WithAlias(name string) AggOpt {
	return func(c *aggConfig) { c.alias = name }
}

// WithIgnoreNulls sets the null policy. True (the default) skips null
// inputs; false forces the group's output to null once any null is
// seen.
func WithIgnoreNulls(ignore bool) AggOpt {
	return func(c *aggConfig) { c.ignoreNulls = ignore }
}

// WithDdof sets the delta degrees of freedom of Std. The default of 1
// gives the sample standard deviation.
func WithDdof(ddof int) AggOpt {
	return func(c *aggConfig) { c.ddof = ddof }
}

// WithQuantile sets the quantile of Quantile, in [0, 1]. The default
// is 0.5, the median.
func WithQuantile(q float64) AggOpt {
	return func(c *aggConfig) { c.q = q }
}

func newAggConfig(opts []AggOpt) aggConfig {
	cfg := aggConfig{ignoreNulls: true, ddof: 1, q: 0.5}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c aggConfig) name(fn, on string) string {
	if c.alias != "" {
		return c.alias
	}
	return fmt.Sprintf("%s(%s)", fn, on)
}

// onKey marks an aggregation built around a key column so Validate
// checks the column before execution.
func (a *AggregateFn) onKey(on string) *AggregateFn {
	a.on = on
	a.requiresColumn = true
	return a
}
