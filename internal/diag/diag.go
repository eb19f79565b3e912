// This file is part of simplisp.
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

// Package diag implements the soft-error reporting convention shared by
// reader and eval: every non-fatal error (§7) is printed in place and
// execution continues, rather than unwinding as a Go error.
package diag

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Reporter wraps an io.Writer, prefixing every message with "[error] " and
// remembering the first write failure it hits — the same shape as the
// teacher's internal/ngi.ErrWriter, generalized to carry a message prefix.
type Reporter struct {
	w   io.Writer
	Err error
}

// New wraps w for soft-error reporting.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Report prints a soft diagnostic. Once a write has failed, further calls
// are no-ops, matching ErrWriter's short-circuiting behavior.
func (r *Reporter) Report(format string, args ...interface{}) {
	if r.Err != nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if _, err := fmt.Fprintf(r.w, "[error] %s\n", msg); err != nil {
		r.Err = errors.Wrap(err, "diag: write failed")
	}
}

// Func returns a closure suitable for arena.SetDiagnostics, so any arena
// diagnostics go through the same sink.
func (r *Reporter) Func() func(string) {
	return func(msg string) { r.Report("%s", msg) }
}
