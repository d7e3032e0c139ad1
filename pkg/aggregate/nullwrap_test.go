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

	"github.com/foldlabs/blockfold/pkg/container/block"
	"github.com/smartystreets/goconvey/convey"
)

func Test_NullWrapMerge(t *testing.T) {
	convey.Convey("null-wrapped merge algebra", t, func() {
		merge := nullWrapMerge(func(a, b AggState) AggState {
			return a.(floatState) + b.(floatState)
		})
		empty := nullState{tag: nullEmpty}
		poisoned := nullState{tag: nullPoisoned}
		value := func(v float64) nullState {
			return nullState{tag: nullValue, inner: floatState(v)}
		}

		convey.Convey("empty is the identity element", func() {
			convey.So(merge(empty, value(3)), convey.ShouldResemble, AggState(value(3)))
			convey.So(merge(value(3), empty), convey.ShouldResemble, AggState(value(3)))
			convey.So(merge(empty, empty), convey.ShouldResemble, AggState(empty))
		})

		convey.Convey("poisoned is absorbing in both positions", func() {
			convey.So(merge(poisoned, value(3)), convey.ShouldResemble, AggState(poisoned))
			convey.So(merge(value(3), poisoned), convey.ShouldResemble, AggState(poisoned))
			convey.So(merge(poisoned, empty), convey.ShouldResemble, AggState(poisoned))
			convey.So(merge(poisoned, poisoned), convey.ShouldResemble, AggState(poisoned))
		})

		convey.Convey("two values delegate to the base merge", func() {
			convey.So(merge(value(3), value(4)), convey.ShouldResemble, AggState(value(7)))
		})
	})
}

func Test_NullWrapAccumulateRow(t *testing.T) {
	seed := func() AggState { return floatState(0) }
	sum := func(a AggState, v float64) AggState { return a.(floatState) + floatState(v) }

	convey.Convey("row accumulation under ignore_nulls=true", t, func() {
		accum := nullWrapAccumulateRow(true, seed, rowValue, sum)
		state := nullWrapInit()(GlobalKey)

		state = accum(state, fakeRow{v: 2, valid: true})
		state = accum(state, fakeRow{})
		state = accum(state, fakeRow{v: 5, valid: true})

		convey.So(state, convey.ShouldResemble, AggState(nullState{tag: nullValue, inner: floatState(7)}))
	})

	convey.Convey("row accumulation under ignore_nulls=false", t, func() {
		accum := nullWrapAccumulateRow(false, seed, rowValue, sum)
		state := nullWrapInit()(GlobalKey)

		state = accum(state, fakeRow{v: 2, valid: true})
		state = accum(state, fakeRow{})

		convey.So(state, convey.ShouldResemble, AggState(nullState{tag: nullPoisoned}))

		convey.Convey("and accumulation after poisoning is a no-op", func() {
			state = accum(state, fakeRow{v: 9, valid: true})
			convey.So(state, convey.ShouldResemble, AggState(nullState{tag: nullPoisoned}))
		})
	})

	convey.Convey("a row-only group never leaves empty on all-null input", t, func() {
		accum := nullWrapAccumulateRow(true, seed, rowValue, sum)
		state := nullWrapInit()(GlobalKey)
		state = accum(state, fakeRow{})
		convey.So(state, convey.ShouldResemble, AggState(nullState{tag: nullEmpty}))
	})
}

func Test_NullWrapFinalize(t *testing.T) {
	convey.Convey("finalize maps the tagged states", t, func() {
		finalize := nullWrapFinalize(identityFinalize)

		convey.So(finalize(nullState{tag: nullEmpty}), convey.ShouldResemble, Null())
		convey.So(finalize(nullState{tag: nullPoisoned}), convey.ShouldResemble, Null())
		convey.So(finalize(nullState{tag: nullValue, inner: floatState(6)}), convey.ShouldResemble, Float(6))
	})
}

type fakeRow struct {
	v     float64
	valid bool
}

func (r fakeRow) Get(string) (float64, bool) {
	return r.v, r.valid
}

func rowValue(r block.Row) (float64, bool) {
	return r.Get("x")
}
