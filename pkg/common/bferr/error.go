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

// Package bferr defines the coded errors used across blockfold.
//
// Only two codes exist. Configuration errors are raised while an
// aggregation is being constructed and are fatal to construction.
// Schema-validation errors are raised by the pre-execution validation
// hook, before any block is scanned. Null values are never errors;
// they travel through the aggregation layer as data.
package bferr

import (
	"errors"
	"fmt"
)

type Code uint16

const (
	// OkCode is never carried by an Error.
	OkCode Code = 0

	// ErrConfiguration marks an invalid aggregation construction,
	// e.g. a missing accumulation strategy.
	ErrConfiguration Code = 20101

	// ErrSchemaValidation marks an aggregation that cannot be applied
	// to the schema it is about to run against.
	ErrSchemaValidation Code = 20102
)

type Error struct {
	code Code
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Code() Code {
	return e.code
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

func NewConfiguration(format string, args ...any) *Error {
	return newError(ErrConfiguration, format, args...)
}

func NewSchemaValidation(format string, args ...any) *Error {
	return newError(ErrSchemaValidation, format, args...)
}

func IsConfiguration(err error) bool {
	return hasCode(err, ErrConfiguration)
}

func IsSchemaValidation(err error) bool {
	return hasCode(err, ErrSchemaValidation)
}

func hasCode(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.code == code
}
