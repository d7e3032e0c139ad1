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

// Package block defines the partition-of-rows collaborator consumed by
// the aggregation layer, together with an in-memory columnar
// implementation.
//
// Nullable results use the (float64, bool) form: ok=false means the
// result is NULL, either because no non-null value exists or because a
// null was met under the strict null policy.
package block

import (
	"github.com/foldlabs/blockfold/pkg/common/bferr"
)

// Block is one contiguous partition of rows, the unit of vectorized
// accumulation. Implementations are read-only from the aggregation
// layer's point of view.
type Block interface {
	NumRows() int

	// Count returns the number of non-null values in col.
	Count(col string) int

	// Sum returns the sum of col. ok=false when no non-null value
	// exists, or when the column holds a null and ignoreNulls is
	// false.
	Sum(col string, ignoreNulls bool) (float64, bool)

	Min(col string, ignoreNulls bool) (float64, bool)
	Max(col string, ignoreNulls bool) (float64, bool)

	// SumOfSquaredDiffsFromMean returns sum((x-mean)^2) over the
	// non-null values of col, under the same null policy as Sum.
	SumOfSquaredDiffsFromMean(col string, ignoreNulls bool, mean float64) (float64, bool)

	Schema() Schema

	// Rows returns a fresh iterator positioned before the first row.
	Rows() Rows
}

// Row is one record of a block. Get returns ok=false when the value is
// null or the column does not exist. The empty column name selects the
// block's only column when the schema is single-column.
type Row interface {
	Get(col string) (float64, bool)
}

// Rows iterates the rows of one block in order.
type Rows interface {
	Next() (Row, bool)
}

// Schema is the ordered list of column names of a block.
type Schema []string

func (s Schema) Has(col string) bool {
	for _, name := range s {
		if name == col {
			return true
		}
	}
	return false
}

// Resolve maps an aggregation's target column to a schema column. The
// empty name selects the schema's only column; it is an error when the
// schema is not single-column.
func (s Schema) Resolve(col string) (string, error) {
	if col == "" {
		if len(s) != 1 {
			return "", bferr.NewSchemaValidation("no column given and schema has %d columns", len(s))
		}
		return s[0], nil
	}
	if !s.Has(col) {
		return "", bferr.NewSchemaValidation("column %q not found in schema %v", col, []string(s))
	}
	return col, nil
}
