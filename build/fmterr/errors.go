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

package fmterr

import (
	"fmt"

	"go.uber.org/multierr"
)

// Errors accumulates errors.
// The zero value is an empty set of errors ready to use.
type Errors struct {
	err error
}

// Append an error to the set. A nil error is ignored.
// Always returns false so that callers can write `return errs.Append(err)`
// in functions reporting success.
func (errs *Errors) Append(err error) bool {
	errs.err = multierr.Append(errs.err, err)
	return false
}

// Appendf appends a formatted user error.
func (errs *Errors) Appendf(format string, a ...any) bool {
	return errs.Append(Errorf(format, a...))
}

// Empty returns true if no error has been appended.
func (errs *Errors) Empty() bool {
	return errs.err == nil
}

// Errors returns the list of all collected errors.
func (errs *Errors) Errors() []error {
	return multierr.Errors(errs.err)
}

// ToError returns the errors as an error interface, or nil if the set is empty.
func (errs *Errors) ToError() error {
	if errs == nil {
		return nil
	}
	return errs.err
}

// Transform returns a new set where every error has been transformed by f.
// Errors transformed into nil are dropped.
func (errs *Errors) Transform(f func(error) error) *Errors {
	nw := &Errors{}
	for _, err := range errs.Errors() {
		nw.Append(f(err))
	}
	return nw
}

// String representation of the errors.
func (errs *Errors) String() string {
	if errs.err == nil {
		return "no error"
	}
	return fmt.Sprint(errs.err)
}
