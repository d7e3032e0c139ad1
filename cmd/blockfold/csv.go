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

package main

import (
	"context"
	"os"
	"strconv"

	"github.com/matrixorigin/simdcsv"

	"github.com/foldlabs/blockfold/pkg/common/bferr"
	"github.com/foldlabs/blockfold/pkg/container/block"
	"github.com/foldlabs/blockfold/pkg/container/nulls"
)

const csvBatchRows = 4000

// loadCSV reads a headed csv file into blocks of at most blockSize
// rows. Empty fields and fields that do not parse as numbers load as
// nulls.
func loadCSV(ctx context.Context, path string, blockSize int) ([]block.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := simdcsv.NewReaderWithOptions(f, ',', '#', true, true)

	var header []string
	var blocks []block.Block
	builder := newBlockBuilder(blockSize)

	records := make([][]string, csvBatchRows)
	for {
		var cnt int
		records, cnt, err = reader.Read(csvBatchRows, ctx, records)
		if err != nil {
			return nil, err
		}
		for i := 0; i < cnt; i++ {
			if header == nil {
				header = append(header, records[i]...)
				builder.reset(header)
				continue
			}
			if len(records[i]) != len(header) {
				return nil, bferr.NewSchemaValidation(
					"csv record has %d fields, header has %d", len(records[i]), len(header))
			}
			builder.appendRecord(records[i])
			if builder.full() {
				blk, err := builder.flush()
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, blk)
			}
		}
		if cnt < csvBatchRows {
			break
		}
	}
	if header == nil {
		return nil, bferr.NewSchemaValidation("csv file %q has no header", path)
	}
	if builder.rows > 0 {
		blk, err := builder.flush()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, blk)
	}
	return blocks, nil
}

type blockBuilder struct {
	header    []string
	blockSize int
	rows      int
	values    [][]float64
	nsp       []*nulls.Nulls
}

func newBlockBuilder(blockSize int) *blockBuilder {
	return &blockBuilder{blockSize: blockSize}
}

func (b *blockBuilder) reset(header []string) {
	b.header = header
	b.rows = 0
	b.values = make([][]float64, len(header))
	b.nsp = make([]*nulls.Nulls, len(header))
	for i := range b.nsp {
		b.nsp[i] = nulls.New()
	}
}

func (b *blockBuilder) appendRecord(record []string) {
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if field == "" || err != nil {
			nulls.Add(b.nsp[i], uint64(b.rows))
			v = 0
		}
		b.values[i] = append(b.values[i], v)
	}
	b.rows++
}

func (b *blockBuilder) full() bool {
	return b.rows >= b.blockSize
}

func (b *blockBuilder) flush() (block.Block, error) {
	cols := make([]block.Column, len(b.header))
	for i, name := range b.header {
		cols[i] = block.Column{Name: name, Values: b.values[i], Nulls: b.nsp[i]}
	}
	blk, err := block.NewMem(cols...)
	if err != nil {
		return nil, err
	}
	b.reset(b.header)
	return blk, nil
}
