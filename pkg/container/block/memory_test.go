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
	"testing"

	"github.com/foldlabs/blockfold/pkg/common/bferr"
	"github.com/foldlabs/blockfold/pkg/container/nulls"
	"github.com/stretchr/testify/require"
)

func newTestBlock(t *testing.T) *MemBlock {
	t.Helper()
	// x: [1, null, 3], y: [10, 20, 30]
	b, err := NewMem(
		Column{Name: "x", Values: []float64{1, 0, 3}, Nulls: nulls.Build(1)},
		Column{Name: "y", Values: []float64{10, 20, 30}},
	)
	require.NoError(t, err)
	return b
}

func TestNewMemValidation(t *testing.T) {
	_, err := NewMem(
		Column{Name: "x", Values: []float64{1, 2}},
		Column{Name: "y", Values: []float64{1}},
	)
	require.True(t, bferr.IsSchemaValidation(err))

	_, err = NewMem(
		Column{Name: "x", Values: []float64{1}},
		Column{Name: "x", Values: []float64{2}},
	)
	require.True(t, bferr.IsSchemaValidation(err))
}

func TestMemBlockVectorized(t *testing.T) {
	b := newTestBlock(t)
	require.Equal(t, 3, b.NumRows())
	require.Equal(t, 2, b.Count("x"))
	require.Equal(t, 3, b.Count("y"))

	sum, ok := b.Sum("x", true)
	require.True(t, ok)
	require.Equal(t, 4.0, sum)

	_, ok = b.Sum("x", false)
	require.False(t, ok)

	min, ok := b.Min("x", true)
	require.True(t, ok)
	require.Equal(t, 1.0, min)

	max, ok := b.Max("x", true)
	require.True(t, ok)
	require.Equal(t, 3.0, max)

	_, ok = b.Min("x", false)
	require.False(t, ok)
	_, ok = b.Max("x", false)
	require.False(t, ok)

	m2, ok := b.SumOfSquaredDiffsFromMean("x", true, 2.0)
	require.True(t, ok)
	require.Equal(t, 2.0, m2)
}

func TestMemBlockAllNullOrEmpty(t *testing.T) {
	b, err := NewMem(Column{Name: "x", Values: []float64{0, 0}, Nulls: nulls.Build(0, 1)})
	require.NoError(t, err)
	require.Equal(t, 0, b.Count("x"))
	_, ok := b.Sum("x", true)
	require.False(t, ok)
	_, ok = b.Min("x", true)
	require.False(t, ok)

	empty, err := NewMem(Column{Name: "x"})
	require.NoError(t, err)
	require.Equal(t, 0, empty.NumRows())
	_, ok = empty.Sum("x", true)
	require.False(t, ok)
}

func TestMemBlockRowsRestartable(t *testing.T) {
	b := newTestBlock(t)
	for pass := 0; pass < 2; pass++ {
		it := b.Rows()
		var got []float64
		var nullRows int
		for {
			row, ok := it.Next()
			if !ok {
				break
			}
			if v, valid := row.Get("x"); valid {
				got = append(got, v)
			} else {
				nullRows++
			}
		}
		require.Equal(t, []float64{1, 3}, got)
		require.Equal(t, 1, nullRows)
	}
}

func TestRowMissingColumn(t *testing.T) {
	b := newTestBlock(t)
	row, ok := b.Rows().Next()
	require.True(t, ok)
	_, valid := row.Get("zzz")
	require.False(t, valid)
}

func TestSchemaResolve(t *testing.T) {
	s := Schema{"x", "y"}
	col, err := s.Resolve("y")
	require.NoError(t, err)
	require.Equal(t, "y", col)

	_, err = s.Resolve("missing")
	require.True(t, bferr.IsSchemaValidation(err))

	_, err = s.Resolve("")
	require.True(t, bferr.IsSchemaValidation(err))

	single := Schema{"v"}
	col, err = single.Resolve("")
	require.NoError(t, err)
	require.Equal(t, "v", col)
}
