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

// Package reader implements the s-expression reader (spec §4.2): a
// tokenizer plus a small recursive-descent parser that materializes
// parsed forms directly as arena cells, pinning every cell it allocates
// onto GCSafe for the duration of one top-level Parse call so a
// mid-parse collection can never reclaim a partially built tree.
package reader

import (
	"os"
	"strings"
	"unicode"

	"github.com/dcbl47/simplisp/arena"
)

const defaultTokenMax = 100

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokQuote
	tokAtom
)

// Reader parses one s-expression at a time from a source.
type Reader struct {
	a        *arena.Arena
	src      source
	tokenMax int
	diag     func(format string, args ...interface{})

	line    []rune
	pos     int
	pushed  rune
	hasPush bool

	// Ok reports whether the most recent Parse call completed without a
	// syntax error (unexpected ')', premature EOF inside a list, or a
	// quote with no following form) — spec §4.2's "mark its Ok flag".
	Ok bool
}

// Option configures a Reader at construction time.
type Option func(*Reader)

// WithTokenMax overrides the default maximum token length (spec §6).
func WithTokenMax(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.tokenMax = n
		}
	}
}

// WithDiagnostics installs the sink used to report soft parse errors.
func WithDiagnostics(f func(format string, args ...interface{})) Option {
	return func(r *Reader) { r.diag = f }
}

func newReader(a *arena.Arena, src source, opts ...Option) *Reader {
	r := &Reader{a: a, src: src, tokenMax: defaultTokenMax, Ok: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewLineReader creates a Reader over a single REPL input line.
func NewLineReader(a *arena.Arena, line string, opts ...Option) *Reader {
	return newReader(a, newLineSource(line), opts...)
}

// NewFileReader creates a Reader over an open file, for `load`.
func NewFileReader(a *arena.Arena, f *os.File, opts ...Option) *Reader {
	return newReader(a, newFileSource(f), opts...)
}

func (r *Reader) report(format string, args ...interface{}) {
	if r.diag != nil {
		r.diag(format, args...)
	}
}

func (r *Reader) fillLine() bool {
	for r.pos >= len(r.line) {
		line, ok, err := r.src.nextLine()
		if err != nil || !ok {
			return false
		}
		r.line = append([]rune(line), '\n')
		r.pos = 0
	}
	return true
}

func (r *Reader) readRune() (rune, bool) {
	if r.hasPush {
		r.hasPush = false
		return r.pushed, true
	}
	if !r.fillLine() {
		return 0, false
	}
	c := r.line[r.pos]
	r.pos++
	return c, true
}

func (r *Reader) unread(c rune) {
	r.pushed = c
	r.hasPush = true
}

func isDelimiter(c rune) bool {
	return unicode.IsSpace(c) || c == '(' || c == ')' || c == '\''
}

func (r *Reader) nextToken() (string, tokenKind) {
	for {
		c, ok := r.readRune()
		if !ok {
			return "", tokEOF
		}
		switch {
		case unicode.IsSpace(c):
			continue
		case c == ';':
			for {
				c2, ok2 := r.readRune()
				if !ok2 || c2 == '\n' {
					break
				}
			}
			continue
		case c == '(':
			return "(", tokLParen
		case c == ')':
			return ")", tokRParen
		case c == '\'':
			return "'", tokQuote
		default:
			var sb strings.Builder
			sb.WriteRune(c)
			for sb.Len() < r.tokenMax {
				c2, ok2 := r.readRune()
				if !ok2 {
					break
				}
				if isDelimiter(c2) {
					r.unread(c2)
					break
				}
				sb.WriteRune(c2)
			}
			return sb.String(), tokAtom
		}
	}
}

// Parse reads and returns one top-level s-expression. ok is false when the
// input is cleanly exhausted (e.g. `load` reaching end of file) rather
// than a syntax error — syntax errors set r.Ok = false and report
// through the diagnostics sink, but still return a usable (NIL) value so
// the caller can continue, per spec §4.2/§7.
func (r *Reader) Parse() (val arena.Addr, ok bool, err error) {
	if r.a.ShouldCollect() {
		r.a.Collect()
	}
	r.Ok = true

	tok, kind := r.nextToken()
	if kind == tokEOF {
		return arena.Nil, false, nil
	}

	pins := 0
	val, err = r.dispatch(tok, kind, &pins)
	r.a.UnpinTemp(pins)
	if err != nil {
		return arena.Nil, false, err
	}
	return val, true, nil
}

func (r *Reader) dispatch(tok string, kind tokenKind, pins *int) (arena.Addr, error) {
	switch kind {
	case tokRParen:
		r.Ok = false
		r.report("unexpected )")
		return arena.Nil, nil
	case tokLParen:
		return r.parseList(pins)
	case tokQuote:
		return r.parseQuote(pins)
	case tokEOF:
		r.Ok = false
		r.report("premature end of input")
		return arena.Nil, nil
	default:
		return r.createCell(tok, pins)
	}
}

func (r *Reader) parseList(pins *int) (arena.Addr, error) {
	var items []arena.Addr
	for {
		tok, kind := r.nextToken()
		switch kind {
		case tokRParen:
			return r.consItems(items, pins)
		case tokEOF:
			r.Ok = false
			r.report("premature end of input inside list")
			return arena.Nil, nil
		default:
			val, err := r.dispatch(tok, kind, pins)
			if err != nil {
				return arena.Nil, err
			}
			items = append(items, val)
		}
	}
}

func (r *Reader) consItems(items []arena.Addr, pins *int) (arena.Addr, error) {
	result := arena.Addr(arena.Nil)
	for i := len(items) - 1; i >= 0; i-- {
		c, err := r.a.Cons(items[i], result)
		if err != nil {
			return arena.Nil, err
		}
		r.a.PinTemp(c)
		*pins++
		result = c
	}
	return result, nil
}

func (r *Reader) parseQuote(pins *int) (arena.Addr, error) {
	tok, kind := r.nextToken()
	if kind == tokEOF {
		r.Ok = false
		r.report("bad quote: unexpected end of input")
		return arena.Nil, nil
	}
	inner, err := r.dispatch(tok, kind, pins)
	if err != nil {
		return arena.Nil, err
	}

	quoteSym, err := r.a.AllocSymbol("'")
	if err != nil {
		return arena.Nil, err
	}
	r.a.PinTemp(quoteSym)
	*pins++

	tail, err := r.a.Cons(inner, arena.Nil)
	if err != nil {
		return arena.Nil, err
	}
	r.a.PinTemp(tail)
	*pins++

	head, err := r.a.Cons(quoteSym, tail)
	if err != nil {
		return arena.Nil, err
	}
	r.a.PinTemp(head)
	*pins++
	return head, nil
}

func (r *Reader) createCell(tok string, pins *int) (arena.Addr, error) {
	if len(tok) > r.tokenMax {
		r.report("token %q truncated to %d characters", tok, r.tokenMax)
		tok = tok[:r.tokenMax]
	}
	addr, err := r.a.AllocSymbol(tok)
	if err != nil {
		return arena.Nil, err
	}
	r.a.PinTemp(addr)
	*pins++
	return addr, nil
}
