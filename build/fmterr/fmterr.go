// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fmterr separates errors caused by malformed user input from
// internal errors caused by bugs in the compiler.
//
// User errors are returned to the caller. Internal errors are raised as
// panics by Assert and Fail deep inside the lowering recursion and converted
// back to errors by Recover at the package boundary.
package fmterr

import (
	"fmt"

	"github.com/pkg/errors"
)

type (
	userError struct {
		err error
	}

	internalError struct {
		err error
	}
)

// Errorf returns a formatted error caused by the user input.
func Errorf(format string, a ...any) error {
	return userError{err: errors.Errorf(format, a...)}
}

// Internal marks an error as internal.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var internal internalError
	if errors.As(err, &internal) {
		return err
	}
	return internalError{err: err}
}

// Internalf returns a formatted internal error.
func Internalf(format string, a ...any) error {
	return internalError{err: errors.Errorf(format, a...)}
}

// IsInternal returns true if err, or an error it wraps, is an internal error.
func IsInternal(err error) bool {
	var internal internalError
	return errors.As(err, &internal)
}

// IsUser returns true if err, or an error it wraps, has been caused by the user input.
func IsUser(err error) bool {
	var user userError
	return errors.As(err, &user)
}

// PrefixWith returns a function to prefix errors with a formatted string.
// The class of the error is preserved.
func PrefixWith(s string, o ...any) func(err error) error {
	prefix := fmt.Sprintf(s, o...)
	return func(err error) error {
		return errors.WithMessage(err, prefix)
	}
}

func (err userError) Error() string {
	return err.err.Error()
}

func (err userError) Unwrap() error {
	return err.err
}

func (err userError) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

func (err internalError) Error() string {
	return "internal error. This is a bug in the lowering engine. Please report it. Error:\n" + err.err.Error()
}

func (err internalError) Unwrap() error {
	return err.err
}

func (err internalError) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}
