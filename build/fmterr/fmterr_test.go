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

package fmterr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/pkg/errors"
)

func TestClasses(t *testing.T) {
	tests := []struct {
		err            error
		user, internal bool
	}{
		{err: fmterr.Errorf("wrong number of indices"), user: true},
		{err: fmterr.Internalf("missing iterator"), internal: true},
		{err: fmterr.Internal(errors.New("boom")), internal: true},
		{err: fmterr.PrefixWith("A(i)")(fmterr.Errorf("bad")), user: true},
		{err: errors.New("plain")},
	}
	for i, test := range tests {
		if got := fmterr.IsUser(test.err); got != test.user {
			t.Errorf("test %d: IsUser(%v) = %t but want %t", i, test.err, got, test.user)
		}
		if got := fmterr.IsInternal(test.err); got != test.internal {
			t.Errorf("test %d: IsInternal(%v) = %t but want %t", i, test.err, got, test.internal)
		}
	}
}

func TestErrorsAccumulate(t *testing.T) {
	var errs fmterr.Errors
	if !errs.Empty() || errs.ToError() != nil {
		t.Fatalf("new error set is not empty")
	}
	errs.Append(nil)
	errs.Appendf("first %d", 1)
	errs.Appendf("second %d", 2)
	if got := len(errs.Errors()); got != 2 {
		t.Fatalf("got %d errors but want 2", got)
	}
	msg := errs.ToError().Error()
	if !strings.Contains(msg, "first 1") || !strings.Contains(msg, "second 2") {
		t.Errorf("unexpected message %q", msg)
	}
	prefixed := errs.Transform(fmterr.PrefixWith("A(i,j)"))
	for _, err := range prefixed.Errors() {
		if !strings.HasPrefix(err.Error(), "A(i,j): ") {
			t.Errorf("error %q has no prefix", err.Error())
		}
		if !fmterr.IsUser(err) {
			t.Errorf("error %q lost its class", err.Error())
		}
	}
}

func assertAndRecover(cond bool) (err error) {
	defer fmterr.Recover(&err)
	fmterr.Assert(cond, "invariant %s violated", "x")
	return nil
}

func TestRecover(t *testing.T) {
	if err := assertAndRecover(true); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := assertAndRecover(false)
	if !fmterr.IsInternal(err) {
		t.Fatalf("got %v but want an internal error", err)
	}
	if !strings.Contains(fmt.Sprintf("%+v", err), "Error generated at:") {
		t.Errorf("verbose format does not include a stack trace:\n%+v", err)
	}
}

func TestRecoverOtherPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "not an error" {
			t.Errorf("got panic %v but want the original panic", r)
		}
	}()
	var err error
	func() {
		defer fmterr.Recover(&err)
		panic("not an error")
	}()
}
