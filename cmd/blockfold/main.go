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

// blockfold runs an aggregation job described by a toml file over a
// csv input and prints one line per output column.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/foldlabs/blockfold/pkg/aggregate"
	"github.com/foldlabs/blockfold/pkg/config"
	"github.com/foldlabs/blockfold/pkg/engine"
	"github.com/foldlabs/blockfold/pkg/logutil"
)

func main() {
	configPath := flag.String("config", "blockfold.toml", "path of the job file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "blockfold: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logutil.Setup(&cfg.Log)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	aggs := make([]*aggregate.AggregateFn, 0, len(cfg.Aggregations))
	for i := range cfg.Aggregations {
		agg, err := cfg.Aggregations[i].Build()
		if err != nil {
			return err
		}
		aggs = append(aggs, agg)
	}

	blocks, err := loadCSV(ctx, cfg.Input, cfg.BlockSize)
	if err != nil {
		return err
	}
	logutil.Info("input loaded",
		zap.String("path", cfg.Input),
		zap.Int("blocks", len(blocks)))

	opts := []engine.Option{engine.WithLogger(logger)}
	if cfg.Parallelism > 0 {
		opts = append(opts, engine.WithParallelism(cfg.Parallelism))
	}
	e, err := engine.New(opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.Aggregate(ctx, blocks, aggs...)
	if err != nil {
		return err
	}

	for _, agg := range aggs {
		datum := result[agg.Name()]
		if !datum.Valid {
			fmt.Printf("%s\tNULL\n", agg.Name())
			continue
		}
		fmt.Printf("%s\t%v\n", agg.Name(), datum.Value)
	}
	return nil
}
