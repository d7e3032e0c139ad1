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

// Package engine drives aggregations over sets of blocks. Blocks of
// the same group are accumulated concurrently on a shared worker pool
// and their partial accumulators are merged in completion order, which
// the aggregation contract's merge laws make safe.
package engine

import (
	"context"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/foldlabs/blockfold/pkg/aggregate"
	"github.com/foldlabs/blockfold/pkg/container/block"
	"github.com/foldlabs/blockfold/pkg/logutil"
)

// Result maps an aggregation's output name to its value for one group.
type Result map[string]aggregate.Datum

type Engine struct {
	pool        *ants.Pool
	logger      *zap.Logger
	parallelism int
}

type Option func(*Engine)

// WithParallelism caps the number of blocks accumulated concurrently.
// The default is the number of CPUs.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:      logutil.GetGlobalLogger(),
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	pool, err := ants.NewPool(e.parallelism)
	if err != nil {
		return nil, err
	}
	e.pool = pool
	return e, nil
}

// Close releases the worker pool. The engine must not be used after
// Close.
func (e *Engine) Close() {
	e.pool.Release()
}

// Aggregate runs aggs over blocks as one global group.
func (e *Engine) Aggregate(ctx context.Context, blocks []block.Block, aggs ...*aggregate.AggregateFn) (Result, error) {
	return e.run(ctx, aggregate.GlobalKey, blocks, aggs)
}

// AggregateGroups runs aggs once per pre-partitioned group. How rows
// are bucketed into groups is the caller's concern.
func (e *Engine) AggregateGroups(ctx context.Context, groups map[aggregate.Key][]block.Block, aggs ...*aggregate.AggregateFn) (map[aggregate.Key]Result, error) {
	results := make(map[aggregate.Key]Result, len(groups))
	for key, blocks := range groups {
		result, err := e.run(ctx, key, blocks, aggs)
		if err != nil {
			return nil, err
		}
		results[key] = result
	}
	return results, nil
}

func (e *Engine) run(ctx context.Context, key aggregate.Key, blocks []block.Block, aggs []*aggregate.AggregateFn) (Result, error) {
	// Validation happens before any block is scanned.
	for _, blk := range blocks {
		schema := blk.Schema()
		for _, agg := range aggs {
			if err := agg.Validate(schema); err != nil {
				return nil, err
			}
		}
	}

	e.logger.Debug("aggregate run",
		zap.String("key", string(key)),
		zap.Int("blocks", len(blocks)),
		zap.Int("aggregations", len(aggs)))

	partials := make(chan []aggregate.AggState, len(blocks))
	var wg sync.WaitGroup
	for _, blk := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		blk := blk
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			partial := make([]aggregate.AggState, len(aggs))
			for i, agg := range aggs {
				partial[i] = agg.AccumulateBlock(agg.Init(key), blk)
			}
			partials <- partial
		})
		if err != nil {
			wg.Done()
			return nil, err
		}
	}
	go func() {
		wg.Wait()
		close(partials)
	}()

	// Merge in completion order: the merge laws make any order and
	// any tree shape equivalent.
	states := make([]aggregate.AggState, len(aggs))
	for i, agg := range aggs {
		states[i] = agg.Init(key)
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case partial, ok := <-partials:
			if !ok {
				result := make(Result, len(aggs))
				for i, agg := range aggs {
					result[agg.Name()] = agg.Finalize(states[i])
				}
				return result, nil
			}
			for i, agg := range aggs {
				states[i] = agg.Merge(states[i], partial[i])
			}
		}
	}
}
