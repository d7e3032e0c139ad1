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

// Package config holds the toml job description of the blockfold
// runner.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/foldlabs/blockfold/pkg/aggregate"
	"github.com/foldlabs/blockfold/pkg/common/bferr"
	"github.com/foldlabs/blockfold/pkg/logutil"
)

const (
	defaultBlockSize = 4096
)

// Config is one aggregation job.
type Config struct {
	// Input is the path of the csv file to aggregate.
	Input string `toml:"input"`

	// BlockSize is the number of rows per block.
	BlockSize int `toml:"block-size"`

	// Parallelism caps concurrent block accumulation; 0 means one
	// worker per CPU.
	Parallelism int `toml:"parallelism"`

	Log logutil.LogConfig `toml:"log"`

	Aggregations []Aggregation `toml:"aggregation"`
}

// Aggregation describes one output column.
type Aggregation struct {
	// Fn is the aggregation kind: count, sum, min, max, mean, std,
	// abs_max, quantile or approx_count_distinct.
	Fn string `toml:"fn"`

	// Column is the target column; may stay empty for count, or for
	// single-column inputs.
	Column string `toml:"column"`

	// Alias overrides the canonical "<fn>(<column>)" output name.
	Alias string `toml:"alias"`

	// IgnoreNulls defaults to true.
	IgnoreNulls *bool `toml:"ignore-nulls"`

	// Q is the quantile of fn = "quantile", in [0, 1]; defaults to
	// 0.5.
	Q *float64 `toml:"q"`

	// Ddof is the delta degrees of freedom of fn = "std"; defaults
	// to 1.
	Ddof *int `toml:"ddof"`
}

// Load reads and validates a job file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = defaultBlockSize
	}
	if cfg.Input == "" {
		return nil, bferr.NewConfiguration("input file must be set")
	}
	if len(cfg.Aggregations) == 0 {
		return nil, bferr.NewConfiguration("at least one [[aggregation]] must be set")
	}
	for i := range cfg.Aggregations {
		if _, err := cfg.Aggregations[i].Build(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Build constructs the described aggregation.
func (a *Aggregation) Build() (*aggregate.AggregateFn, error) {
	var opts []aggregate.AggOpt
	if a.Alias != "" {
		opts = append(opts, aggregate.WithAlias(a.Alias))
	}
	if a.IgnoreNulls != nil {
		opts = append(opts, aggregate.WithIgnoreNulls(*a.IgnoreNulls))
	}
	if a.Q != nil {
		opts = append(opts, aggregate.WithQuantile(*a.Q))
	}
	if a.Ddof != nil {
		opts = append(opts, aggregate.WithDdof(*a.Ddof))
	}
	switch a.Fn {
	case "count":
		return aggregate.NewCount(opts...), nil
	case "sum":
		return aggregate.NewSum(a.Column, opts...), nil
	case "min":
		return aggregate.NewMin(a.Column, opts...), nil
	case "max":
		return aggregate.NewMax(a.Column, opts...), nil
	case "mean":
		return aggregate.NewMean(a.Column, opts...), nil
	case "std":
		return aggregate.NewStd(a.Column, opts...), nil
	case "abs_max":
		return aggregate.NewAbsMax(a.Column, opts...), nil
	case "quantile":
		if a.Q != nil && (*a.Q < 0 || *a.Q > 1) {
			return nil, bferr.NewConfiguration("quantile: q must be in [0, 1], got %v", *a.Q)
		}
		return aggregate.NewQuantile(a.Column, opts...), nil
	case "approx_count_distinct":
		return aggregate.NewApproxCountDistinct(a.Column, opts...), nil
	default:
		return nil, bferr.NewConfiguration("unknown aggregation %q", a.Fn)
	}
}
