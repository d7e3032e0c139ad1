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

package block

import (
	"math"

	"github.com/foldlabs/blockfold/pkg/common/bferr"
	"github.com/foldlabs/blockfold/pkg/container/nulls"
)

// Column is one named float64 vector with its null positions.
type Column struct {
	Name   string
	Values []float64
	Nulls  *nulls.Nulls
}

// MemBlock is the in-memory columnar Block implementation.
type MemBlock struct {
	schema Schema
	data   map[string][]float64
	nsp    map[string]*nulls.Nulls
	nrows  int
}

var _ Block = (*MemBlock)(nil)

// NewMem builds a block from columns. All columns must have the same
// length.
func NewMem(cols ...Column) (*MemBlock, error) {
	b := &MemBlock{
		data: make(map[string][]float64, len(cols)),
		nsp:  make(map[string]*nulls.Nulls, len(cols)),
	}
	for i, col := range cols {
		if i == 0 {
			b.nrows = len(col.Values)
		} else if len(col.Values) != b.nrows {
			return nil, bferr.NewSchemaValidation(
				"column %q has %d rows, want %d", col.Name, len(col.Values), b.nrows)
		}
		if _, dup := b.data[col.Name]; dup {
			return nil, bferr.NewSchemaValidation("duplicate column %q", col.Name)
		}
		b.schema = append(b.schema, col.Name)
		b.data[col.Name] = col.Values
		b.nsp[col.Name] = col.Nulls
	}
	return b, nil
}

func (b *MemBlock) NumRows() int {
	return b.nrows
}

func (b *MemBlock) Schema() Schema {
	return b.schema
}

func (b *MemBlock) Count(col string) int {
	values, ok := b.data[col]
	if !ok {
		return 0
	}
	return len(values) - nulls.Count(b.nsp[col])
}

func (b *MemBlock) Sum(col string, ignoreNulls bool) (float64, bool) {
	var sum float64
	seen := false
	b.reduce(col, func(v float64) {
		sum += v
		seen = true
	})
	if !seen || b.nullPoisoned(col, ignoreNulls) {
		return 0, false
	}
	return sum, true
}

func (b *MemBlock) Min(col string, ignoreNulls bool) (float64, bool) {
	min := math.Inf(1)
	seen := false
	b.reduce(col, func(v float64) {
		if v < min {
			min = v
		}
		seen = true
	})
	if !seen || b.nullPoisoned(col, ignoreNulls) {
		return 0, false
	}
	return min, true
}

func (b *MemBlock) Max(col string, ignoreNulls bool) (float64, bool) {
	max := math.Inf(-1)
	seen := false
	b.reduce(col, func(v float64) {
		if v > max {
			max = v
		}
		seen = true
	})
	if !seen || b.nullPoisoned(col, ignoreNulls) {
		return 0, false
	}
	return max, true
}

func (b *MemBlock) SumOfSquaredDiffsFromMean(col string, ignoreNulls bool, mean float64) (float64, bool) {
	var m2 float64
	seen := false
	b.reduce(col, func(v float64) {
		d := v - mean
		m2 += d * d
		seen = true
	})
	if !seen || b.nullPoisoned(col, ignoreNulls) {
		return 0, false
	}
	return m2, true
}

func (b *MemBlock) Rows() Rows {
	return &memRows{block: b}
}

// reduce applies fn to every non-null value of col.
func (b *MemBlock) reduce(col string, fn func(float64)) {
	values, ok := b.data[col]
	if !ok {
		return
	}
	nsp := b.nsp[col]
	if !nulls.Any(nsp) {
		for _, v := range values {
			fn(v)
		}
		return
	}
	for i, v := range values {
		if nulls.Contains(nsp, uint64(i)) {
			continue
		}
		fn(v)
	}
}

// nullPoisoned reports whether col forces a NULL result under the
// strict null policy.
func (b *MemBlock) nullPoisoned(col string, ignoreNulls bool) bool {
	return !ignoreNulls && nulls.Any(b.nsp[col])
}

type memRows struct {
	block *MemBlock
	idx   int
}

func (r *memRows) Next() (Row, bool) {
	if r.idx >= r.block.nrows {
		return nil, false
	}
	row := memRow{block: r.block, idx: r.idx}
	r.idx++
	return row, true
}

type memRow struct {
	block *MemBlock
	idx   int
}

func (r memRow) Get(col string) (float64, bool) {
	if col == "" && len(r.block.schema) == 1 {
		col = r.block.schema[0]
	}
	values, ok := r.block.data[col]
	if !ok {
		return 0, false
	}
	if nulls.Contains(r.block.nsp[col], uint64(r.idx)) {
		return 0, false
	}
	return values[r.idx], true
}
