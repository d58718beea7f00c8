// Copyright 2026 The Pulsewatch Authors
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

// Package pulseerr collapses the result_void/VoidResult/make_success
// alias zoo some error hierarchies carry into one error type
// with a stable, switchable Kind. Every exported function in the core
// returns a plain error; callers that need to branch on failure mode
// use errors.As to recover a *pulseerr.Error and inspect its Kind.
package pulseerr

import "fmt"

// Kind enumerates the failure categories this package recognizes.
type Kind int

const (
	_ Kind = iota
	InvalidArgument
	InvalidConfiguration
	NotFound
	AlreadyExists
	AlreadyStarted
	InvalidState
	ResourceExhausted
	ValidationFailed
	OperationFailed
	RetryAttemptsExhausted
	StorageWriteFailed
	StorageReadFailed
	ParseError
	OperationCancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case InvalidConfiguration:
		return "invalid_configuration"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case AlreadyStarted:
		return "already_started"
	case InvalidState:
		return "invalid_state"
	case ResourceExhausted:
		return "resource_exhausted"
	case ValidationFailed:
		return "validation_failed"
	case OperationFailed:
		return "operation_failed"
	case RetryAttemptsExhausted:
		return "retry_attempts_exhausted"
	case StorageWriteFailed:
		return "storage_write_failed"
	case StorageReadFailed:
		return "storage_read_failed"
	case ParseError:
		return "parse_error"
	case OperationCancelled:
		return "operation_cancelled"
	default:
		return "unknown"
	}
}

// Error is the one error type the core returns across its API
// boundary; no exception-style panic ever crosses it.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap exposes the wrapped error to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can do errors.Is(err, pulseerr.New(pulseerr.NotFound, "", "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an *Error around an existing error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: err.Error(), Err: err}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}
