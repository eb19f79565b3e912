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

// Package eval implements the evaluator (spec §4.3): dispatch over
// s-expression kind, the built-in/special-form table, user-function
// application, the non-local return protocol, and tracing.
package eval

import (
	"io"
	"strings"

	"github.com/dcbl47/simplisp/arena"
	"github.com/dcbl47/simplisp/internal/diag"
	"github.com/dcbl47/simplisp/reader"
)

// Evaluator holds everything the evaluator needs beyond the arena itself:
// where output goes, where soft diagnostics go, the built-in table, and
// the handful of bits of process-wide state (traced builtins, the
// non-local-return unwind flag) that aren't arena roots but behave like
// them for the duration of one evaluation.
type Evaluator struct {
	a        *arena.Arena
	out      io.Writer
	diag     *diag.Reporter
	builtins map[string]*builtin

	tracedBuiltins map[string]bool
	unwinding      bool

	gcEventCount int

	// stdin backs the read builtin; nil unless a REPL/CLI driver wires one
	// in via SetInput, in which case read pulls from the same stream the
	// REPL is already consuming lines from.
	stdin *reader.Reader
}

// SetInput installs the reader that the read builtin pulls forms from.
func (ev *Evaluator) SetInput(r *reader.Reader) { ev.stdin = r }

type builtin struct {
	name  string
	arity string
	fn    func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error)
}

// New constructs an Evaluator writing results to out and diagnostics
// through rep.
func New(a *arena.Arena, out io.Writer, rep *diag.Reporter) *Evaluator {
	ev := &Evaluator{
		a:              a,
		out:            out,
		diag:           rep,
		tracedBuiltins: map[string]bool{},
	}
	ev.builtins = ev.buildTable()
	return ev
}

// Arena exposes the evaluator's backing arena, e.g. for a REPL to report
// occupancy in its prompt.
func (ev *Evaluator) Arena() *arena.Arena { return ev.a }

// TopEnv builds the one-frame env a top-level Eval call should run
// against: DEFVARS as its sole frame. Callers must build a fresh one per
// top-level form rather than caching it, since defvar/defparameter/setq
// can replace DEFVARS' head between calls (AssocSet returns a possibly
// new head instead of mutating a shared cell — see arena/list.go).
func (ev *Evaluator) TopEnv() (arena.Addr, error) {
	return ev.a.Cons(ev.a.DefVars(), arena.Nil)
}

func (ev *Evaluator) report(format string, args ...interface{}) {
	ev.diag.Report(format, args...)
}

// withEnv pins env for the duration of fn so that a collection triggered
// by any nested Eval call cannot reclaim a freshly built frame/env chain
// before it becomes reachable any other way — the Go-native substitute for
// the reference interpreter's single mutable "bindings" cell trick (see
// DESIGN.md's env-representation resolution).
func (ev *Evaluator) withEnv(env arena.Addr, fn func() (arena.Addr, error)) (arena.Addr, error) {
	ev.a.PinTemp(env)
	defer ev.a.UnpinTemp(1)
	return fn()
}

// Eval is the evaluator's entry point (spec §4.3).
func (ev *Evaluator) Eval(sexpr, env arena.Addr, depth int) (arena.Addr, error) {
	if depth == 0 {
		ev.a.PinTemp(sexpr)
		ev.a.PinTemp(env)
		defer ev.a.UnpinTemp(2)
	}
	if ev.a.ShouldCollect() {
		ev.a.Collect()
		ev.gcEventCount++
	}

	switch ev.a.KindOf(sexpr) {
	case arena.KindNumber:
		return ev.a.AllocNumber(ev.a.NumOf(sexpr))
	case arena.KindSymbol:
		return ev.evalSymbol(sexpr, env)
	default:
		return ev.evalCons(sexpr, env, depth)
	}
}

func (ev *Evaluator) evalSymbol(sym, env arena.Addr) (arena.Addr, error) {
	name := ev.a.SymOf(sym)
	if arena.SymEqual(name, "T") {
		return ev.a.AllocSymbol("T")
	}
	if arena.SymEqual(name, "NIL") {
		return arena.Nil, nil
	}
	var cur arena.Cursor
	for node := ev.a.Traverse(env, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(env, &cur) {
		frame := ev.a.Car(node)
		if v, ok := ev.a.AssocGet(frame, name); ok {
			return v, nil
		}
	}
	ev.report("Undefined symbol %s", name)
	return arena.Nil, nil
}

func (ev *Evaluator) evalCons(sexpr, env arena.Addr, depth int) (arena.Addr, error) {
	if ev.a.IsNil(sexpr) {
		return arena.Nil, nil
	}
	head := ev.a.Car(sexpr)
	switch ev.a.KindOf(head) {
	case arena.KindNumber:
		ev.report("%d is not a function", ev.a.NumOf(head))
		return arena.Nil, nil
	case arena.KindCons:
		if ev.a.IsNil(head) {
			ev.report("() is not a function")
			return arena.Nil, nil
		}
		if ev.a.KindOf(ev.a.Car(head)) == arena.KindSymbol && arena.SymEqual(ev.a.SymOf(ev.a.Car(head)), "LAMBDA") {
			params := ev.a.Car(ev.a.Cdr(head))
			body := ev.a.Cdr(ev.a.Cdr(head))
			return ev.applyLambda("lambda", params, body, ev.a.Cdr(sexpr), env, depth)
		}
		ev.report("bad function call shape")
		return arena.Nil, nil
	default: // Symbol
		return ev.evalFunctionCall(ev.a.SymOf(head), sexpr, env, depth)
	}
}

func (ev *Evaluator) evalFunctionCall(name string, sexpr, env arena.Addr, depth int) (arena.Addr, error) {
	args := ev.a.Cdr(sexpr)
	key := strings.ToUpper(name)
	if b, ok := ev.builtins[key]; ok {
		n := ev.a.Length(args)
		if !checkArity(b.arity, n) {
			ev.report("%s: wrong number of arguments (%d)", name, n)
			return arena.Nil, nil
		}
		return ev.callBuiltin(b, sexpr, args, env, depth)
	}
	if fnCell, ok := ev.a.AssocGet(ev.a.DefUns(), name); ok {
		params := ev.a.Car(fnCell)
		body := ev.a.Cdr(fnCell)
		return ev.applyLambda(name, params, body, args, env, depth)
	}
	ev.report("Undefined function %s", name)
	return arena.Nil, nil
}

func (ev *Evaluator) callBuiltin(b *builtin, sexpr, args, env arena.Addr, depth int) (arena.Addr, error) {
	traced := ev.builtinTraced(b.name)
	if traced {
		ev.printRawEnter(sexpr)
	}
	result, err := b.fn(ev, args, env, depth)
	if traced && err == nil {
		ev.printRawExit(result)
	}
	return result, err
}

func checkArity(spec string, n int) bool {
	if spec == "*" {
		return true
	}
	if len(spec) < 2 {
		return false
	}
	want := 0
	for _, c := range spec[1:] {
		if c < '0' || c > '9' {
			return false
		}
		want = want*10 + int(c-'0')
	}
	switch spec[0] {
	case '=':
		return n == want
	case '<':
		return n < want
	case '>':
		return n > want
	default:
		return false
	}
}

// evalSequence evaluates body as an implicit progn, stopping early (and
// propagating the in-flight result) the moment ev.unwinding is set by a
// (return ...) deeper in the call chain — the Go-native substitute for
// the RETURNMARK sentinel (spec §4.3's non-local return protocol).
func (ev *Evaluator) evalSequence(body, env arena.Addr, depth int) (arena.Addr, error) {
	result := arena.Addr(arena.Nil)
	var cur arena.Cursor
	for node := ev.a.Traverse(body, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(body, &cur) {
		v, err := ev.Eval(ev.a.Car(node), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		result = v
		if ev.unwinding {
			return result, nil
		}
	}
	return result, nil
}

// withReturnBlock implements the loop-construct half of the non-local
// return protocol: push a placeholder onto RETURNS, run fn (which should
// evaluate the loop body per iteration and bail out as soon as
// ev.unwinding is observed), then resolve to either the value `return`
// left behind or fn's own normal result.
func (ev *Evaluator) withReturnBlock(fn func() (arena.Addr, error)) (arena.Addr, error) {
	ev.a.PushReturn(arena.Nil)
	normal, err := fn()
	if err != nil {
		ev.a.PopReturn()
		return arena.Nil, err
	}
	if ev.unwinding {
		ev.unwinding = false
		return ev.a.PopReturn(), nil
	}
	ev.a.PopReturn()
	return normal, nil
}
