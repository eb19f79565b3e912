package eval

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dcbl47/simplisp/arena"
	"github.com/dcbl47/simplisp/reader"
)

// sfQuote backs both the `'x` reader sugar and the spelled-out (quote x)
// form: return the argument cell exactly as read, never re-evaluated.
func sfQuote(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.a.Car(args), nil
}

func sfIf(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	test, err := ev.Eval(ev.a.Car(args), env, depth+1)
	if err != nil {
		return arena.Nil, err
	}
	if !ev.a.IsNil(test) {
		return ev.Eval(ev.a.Nth(args, 1), env, depth+1)
	}
	if ev.a.Length(args) < 3 {
		return arena.Nil, nil
	}
	return ev.Eval(ev.a.Nth(args, 2), env, depth+1)
}

func sfCond(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	var cur arena.Cursor
	for node := ev.a.Traverse(args, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(args, &cur) {
		clause := ev.a.Car(node)
		test, err := ev.Eval(ev.a.Car(clause), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		if !ev.a.IsNil(test) {
			return ev.evalSequence(ev.a.Cdr(clause), env, depth+1)
		}
	}
	return arena.Nil, nil
}

func sfAnd(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	var cur arena.Cursor
	for node := ev.a.Traverse(args, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(args, &cur) {
		v, err := ev.Eval(ev.a.Car(node), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		if ev.a.IsNil(v) {
			return arena.Nil, nil
		}
	}
	return ev.a.AllocSymbol("T")
}

func sfOr(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	var cur arena.Cursor
	for node := ev.a.Traverse(args, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(args, &cur) {
		v, err := ev.Eval(ev.a.Car(node), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		if !ev.a.IsNil(v) {
			return ev.a.AllocSymbol("T")
		}
	}
	return arena.Nil, nil
}

func sfProgn(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.evalSequence(args, env, depth+1)
}

// evalLet implements both let (all inits evaluated against the outer env)
// and let* (each init sees the bindings built so far), per spec §4.3.
// Every binding frame it builds is pinned via withEnv before the body runs,
// since nothing else roots it until it becomes part of env.
func (ev *Evaluator) evalLet(args, env arena.Addr, depth int, sequential bool) (arena.Addr, error) {
	bindings := ev.a.Car(args)
	body := ev.a.Cdr(args)

	frame := arena.Addr(arena.Nil)
	pins := 0
	defer func() { ev.a.UnpinTemp(pins) }()

	var cur arena.Cursor
	for node := ev.a.Traverse(bindings, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(bindings, &cur) {
		spec := ev.a.Car(node)
		varSym := ev.a.Car(spec)
		initExpr := ev.a.Nth(spec, 1)

		evalEnv := env
		if sequential {
			newEnv, err := ev.a.Cons(frame, env)
			if err != nil {
				return arena.Nil, err
			}
			ev.a.PinTemp(newEnv)
			pins++
			evalEnv = newEnv
		}
		v, err := ev.Eval(initExpr, evalEnv, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.PinTemp(v)
		pins++

		frame, err = ev.a.AssocSet(frame, ev.a.SymOf(varSym), v)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.PinTemp(frame)
		pins++
	}

	newEnv, err := ev.a.Cons(frame, env)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.PinTemp(newEnv)
	pins++

	return ev.withEnv(newEnv, func() (arena.Addr, error) {
		return ev.evalSequence(body, newEnv, depth+1)
	})
}

func sfLet(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.evalLet(args, env, depth, false)
}

func sfLetStar(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.evalLet(args, env, depth, true)
}

// defineVar backs defvar (bind only if not already present in DEFVARS) and
// defparameter (bind unconditionally). Both evaluate their name argument
// normally — callers write the familiar (defvar 'x 10) with the quote
// spelled out explicitly, mirroring original_source/src/lisp.cpp's
// defvarpar, which never auto-quotes its first argument.
func (ev *Evaluator) defineVar(args, env arena.Addr, depth int, unconditional bool) (arena.Addr, error) {
	nameVal, err := ev.Eval(ev.a.Car(args), env, depth+1)
	if err != nil {
		return arena.Nil, err
	}
	if ev.a.KindOf(nameVal) != arena.KindSymbol {
		ev.report("defvar/defparameter: name must be a symbol")
		return arena.Nil, nil
	}
	name := ev.a.SymOf(nameVal)

	var value arena.Addr
	if ev.a.Length(args) > 1 {
		value, err = ev.Eval(ev.a.Nth(args, 1), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
	}

	if !unconditional {
		if _, ok := ev.a.AssocGet(ev.a.DefVars(), name); ok {
			return nameVal, nil
		}
	}
	head, err := ev.a.AssocSet(ev.a.DefVars(), name, value)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.SetDefVars(head)
	return nameVal, nil
}

func sfDefvar(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.defineVar(args, env, depth, false)
}

func sfDefparameter(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.defineVar(args, env, depth, true)
}

// sfDefun installs (params . body) under name in DEFUNS. Unlike defvar's
// name argument, defun's name and parameter list are never evaluated — a
// genuine auto-quoting special form, matching (defun fact (n) ...) as
// users actually write it.
func sfDefun(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	nameExpr := ev.a.Car(args)
	if ev.a.KindOf(nameExpr) != arena.KindSymbol {
		ev.report("defun: name must be a symbol")
		return arena.Nil, nil
	}
	name := ev.a.SymOf(nameExpr)
	params := ev.a.Nth(args, 1)
	body := ev.a.Cdr(ev.a.Cdr(args))

	fnCell, err := ev.a.Cons(params, body)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.PinTemp(fnCell)
	defer ev.a.UnpinTemp(1)

	head, err := ev.a.AssocSet(ev.a.DefUns(), name, fnCell)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.SetDefUns(head)
	return nameExpr, nil
}

// setqSymbol backs both setq and the symbol-place case of setf: search env
// frame by frame and mutate the binding where found, falling back to
// DEFVARS when the symbol isn't bound in any frame.
func (ev *Evaluator) setqSymbol(nameExpr, valueExpr, env arena.Addr, depth int) (arena.Addr, error) {
	name := ev.a.SymOf(nameExpr)
	value, err := ev.Eval(valueExpr, env, depth+1)
	if err != nil {
		return arena.Nil, err
	}
	var cur arena.Cursor
	for node := ev.a.Traverse(env, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(env, &cur) {
		frame := ev.a.Car(node)
		if _, ok := ev.a.AssocGet(frame, name); ok {
			newFrame, err := ev.a.AssocSet(frame, name, value)
			if err != nil {
				return arena.Nil, err
			}
			ev.a.SetCar(node, newFrame)
			return value, nil
		}
	}
	head, err := ev.a.AssocSet(ev.a.DefVars(), name, value)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.SetDefVars(head)
	return value, nil
}

func sfSetq(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	nameExpr := ev.a.Car(args)
	if ev.a.KindOf(nameExpr) != arena.KindSymbol {
		ev.report("setq: first argument must be a symbol")
		return arena.Nil, nil
	}
	return ev.setqSymbol(nameExpr, ev.a.Nth(args, 1), env, depth)
}

// sfSetf generalizes setq to a handful of mutable places: a bare symbol,
// or (car x)/(cdr x)/(nth n list).
func sfSetf(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	place := ev.a.Car(args)
	valueExpr := ev.a.Nth(args, 1)

	if ev.a.KindOf(place) == arena.KindSymbol {
		return ev.setqSymbol(place, valueExpr, env, depth)
	}
	if ev.a.KindOf(place) != arena.KindCons || ev.a.IsNil(place) {
		ev.report("setf: unsupported place")
		return arena.Nil, nil
	}
	op := ev.a.Car(place)
	if ev.a.KindOf(op) != arena.KindSymbol {
		ev.report("setf: unsupported place")
		return arena.Nil, nil
	}

	switch strings.ToUpper(ev.a.SymOf(op)) {
	case "CAR":
		listVal, err := ev.Eval(ev.a.Nth(place, 1), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		if ev.a.KindOf(listVal) != arena.KindCons || ev.a.IsNil(listVal) {
			ev.report("setf: car place is not a cons")
			return arena.Nil, nil
		}
		value, err := ev.Eval(valueExpr, env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.SetCar(listVal, value)
		return value, nil
	case "CDR":
		listVal, err := ev.Eval(ev.a.Nth(place, 1), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		if ev.a.KindOf(listVal) != arena.KindCons || ev.a.IsNil(listVal) {
			ev.report("setf: cdr place is not a cons")
			return arena.Nil, nil
		}
		value, err := ev.Eval(valueExpr, env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.SetCdr(listVal, value)
		return value, nil
	case "NTH":
		nVal, err := ev.Eval(ev.a.Nth(place, 1), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		listVal, err := ev.Eval(ev.a.Nth(place, 2), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		if ev.a.KindOf(nVal) != arena.KindNumber {
			ev.report("setf: nth index must be a number")
			return arena.Nil, nil
		}
		node := listVal
		for i := int64(0); i < ev.a.NumOf(nVal); i++ {
			if ev.a.IsNil(node) {
				ev.report("setf: nth index out of range")
				return arena.Nil, nil
			}
			node = ev.a.Cdr(node)
		}
		if ev.a.IsNil(node) {
			ev.report("setf: nth index out of range")
			return arena.Nil, nil
		}
		value, err := ev.Eval(valueExpr, env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.SetCar(node, value)
		return value, nil
	default:
		ev.report("setf: unsupported place")
		return arena.Nil, nil
	}
}

// sfReturn implements the non-local return half of the protocol started by
// withReturnBlock: stash the (optional) value on RETURNS and set the
// unwinding flag so every enclosing evalSequence/loop bails out until the
// nearest withReturnBlock resolves it.
func sfReturn(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	if ev.a.ReturnDepth() == 0 {
		ev.report("return: not inside a loop")
		return arena.Nil, nil
	}
	var value arena.Addr
	if !ev.a.IsNil(args) {
		v, err := ev.Eval(ev.a.Car(args), env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		value = v
	}
	ev.a.PopReturn()
	ev.a.PushReturn(value)
	ev.unwinding = true
	return value, nil
}

// sfLoop runs body forever until a (return ...) inside it sets the unwind
// flag; per spec §4.3 a loop with no return never terminates on its own.
func sfLoop(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.withReturnBlock(func() (arena.Addr, error) {
		for {
			_, err := ev.evalSequence(args, env, depth+1)
			if err != nil {
				return arena.Nil, err
			}
			if ev.unwinding {
				return arena.Nil, nil
			}
		}
	})
}

// sfDo implements the full do form: parallel step updates computed against
// the pre-step frame, a test clause that both ends the loop and supplies
// the result forms, and the same early-exit-on-return handling as every
// other loop construct.
func sfDo(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	specs := ev.a.ToSlice(ev.a.Car(args))
	testClause := ev.a.Nth(args, 1)
	body := ev.a.Cdr(ev.a.Cdr(args))

	testExpr := ev.a.Car(testClause)
	resultBody := ev.a.Cdr(testClause)

	type varSpec struct {
		name    string
		step    arena.Addr
		hasStep bool
	}

	frame := arena.Addr(arena.Nil)
	pins := 0
	defer func() { ev.a.UnpinTemp(pins) }()

	var vars []varSpec
	for _, spec := range specs {
		varSym := ev.a.Car(spec)
		initExpr := ev.a.Nth(spec, 1)
		v, err := ev.Eval(initExpr, env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.PinTemp(v)
		pins++
		frame, err = ev.a.AssocSet(frame, ev.a.SymOf(varSym), v)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.PinTemp(frame)
		pins++
		vars = append(vars, varSpec{
			name:    ev.a.SymOf(varSym),
			step:    ev.a.Nth(spec, 2),
			hasStep: ev.a.Length(spec) > 2,
		})
	}

	loopEnv, err := ev.a.Cons(frame, env)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.PinTemp(loopEnv)
	pins++

	return ev.withReturnBlock(func() (arena.Addr, error) {
		for {
			testVal, err := ev.Eval(testExpr, loopEnv, depth+1)
			if err != nil {
				return arena.Nil, err
			}
			if !ev.a.IsNil(testVal) {
				return ev.evalSequence(resultBody, loopEnv, depth+1)
			}

			_, err = ev.evalSequence(body, loopEnv, depth+1)
			if err != nil {
				return arena.Nil, err
			}
			if ev.unwinding {
				return arena.Nil, nil
			}

			newFrame := arena.Addr(arena.Nil)
			for _, vs := range vars {
				var stepVal arena.Addr
				if vs.hasStep {
					stepVal, err = ev.Eval(vs.step, loopEnv, depth+1)
					if err != nil {
						return arena.Nil, err
					}
				} else {
					stepVal, _ = ev.a.AssocGet(frame, vs.name)
				}
				ev.a.PinTemp(stepVal)
				pins++
				newFrame, err = ev.a.AssocSet(newFrame, vs.name, stepVal)
				if err != nil {
					return arena.Nil, err
				}
				ev.a.PinTemp(newFrame)
				pins++
			}
			frame = newFrame
			loopEnv, err = ev.a.Cons(frame, env)
			if err != nil {
				return arena.Nil, err
			}
			// The new loopEnv reaches every live binding, so the previous
			// iteration's pins can be released in favour of this one.
			ev.a.UnpinTemp(pins)
			ev.a.PinTemp(loopEnv)
			pins = 1
		}
	})
}

// sfDolist iterates var over the elements of a single list expression,
// evaluating body once per element and finally, optionally, a result
// form with var bound to NIL — the standard CL dolist shape.
func sfDolist(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	spec := ev.a.Car(args)
	body := ev.a.Cdr(args)
	varName := ev.a.SymOf(ev.a.Car(spec))
	hasResult := ev.a.Length(spec) > 2
	resultExpr := ev.a.Nth(spec, 2)

	listVal, err := ev.Eval(ev.a.Nth(spec, 1), env, depth+1)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.PinTemp(listVal)
	defer ev.a.UnpinTemp(1)
	items := ev.a.ToSlice(listVal)

	return ev.withReturnBlock(func() (arena.Addr, error) {
		for _, item := range items {
			loopEnv, err := ev.bindOneVarEnv(varName, item, env)
			if err != nil {
				return arena.Nil, err
			}
			_, err = ev.withEnv(loopEnv, func() (arena.Addr, error) {
				return ev.evalSequence(body, loopEnv, depth+1)
			})
			ev.a.UnpinTemp(1)
			if err != nil {
				return arena.Nil, err
			}
			if ev.unwinding {
				return arena.Nil, nil
			}
		}
		return ev.finishVarLoop(varName, hasResult, resultExpr, arena.Nil, env, depth)
	})
}

// sfDotimes iterates var over 0..n-1 for an evaluated count expression.
func sfDotimes(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	spec := ev.a.Car(args)
	body := ev.a.Cdr(args)
	varName := ev.a.SymOf(ev.a.Car(spec))
	hasResult := ev.a.Length(spec) > 2
	resultExpr := ev.a.Nth(spec, 2)

	countVal, err := ev.Eval(ev.a.Nth(spec, 1), env, depth+1)
	if err != nil {
		return arena.Nil, err
	}
	if ev.a.KindOf(countVal) != arena.KindNumber {
		ev.report("dotimes: count must be a number")
		return arena.Nil, nil
	}
	count := ev.a.NumOf(countVal)

	return ev.withReturnBlock(func() (arena.Addr, error) {
		for i := int64(0); i < count; i++ {
			iVal, err := ev.a.AllocNumber(i)
			if err != nil {
				return arena.Nil, err
			}
			ev.a.PinTemp(iVal)
			loopEnv, err := ev.bindOneVarEnv(varName, iVal, env)
			if err != nil {
				ev.a.UnpinTemp(1)
				return arena.Nil, err
			}
			_, err = ev.withEnv(loopEnv, func() (arena.Addr, error) {
				return ev.evalSequence(body, loopEnv, depth+1)
			})
			ev.a.UnpinTemp(2)
			if err != nil {
				return arena.Nil, err
			}
			if ev.unwinding {
				return arena.Nil, nil
			}
		}
		terminal, err := ev.a.AllocNumber(count)
		if err != nil {
			return arena.Nil, err
		}
		ev.a.PinTemp(terminal)
		defer ev.a.UnpinTemp(1)
		return ev.finishVarLoop(varName, hasResult, resultExpr, terminal, env, depth)
	})
}

// sfDoSymbols iterates var over every name currently bound in DEFVARS and
// DEFUNS — a diagnostic/introspection loop, not part of any hot path, so
// materializing the full name list up front keeps the iteration simple.
func sfDoSymbols(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	spec := ev.a.Car(args)
	body := ev.a.Cdr(args)
	varName := ev.a.SymOf(ev.a.Car(spec))
	hasResult := ev.a.Length(spec) > 1
	resultExpr := ev.a.Nth(spec, 1)

	var names []string
	var cur arena.Cursor
	for node := ev.a.Traverse(ev.a.DefVars(), &cur); !ev.a.IsNil(node); node = ev.a.Traverse(ev.a.DefVars(), &cur) {
		names = append(names, ev.a.SymOf(ev.a.Car(ev.a.Car(node))))
	}
	var cur2 arena.Cursor
	for node := ev.a.Traverse(ev.a.DefUns(), &cur2); !ev.a.IsNil(node); node = ev.a.Traverse(ev.a.DefUns(), &cur2) {
		names = append(names, ev.a.SymOf(ev.a.Car(ev.a.Car(node))))
	}

	return ev.withReturnBlock(func() (arena.Addr, error) {
		for _, name := range names {
			sym, err := ev.a.AllocSymbol(name)
			if err != nil {
				return arena.Nil, err
			}
			ev.a.PinTemp(sym)
			loopEnv, err := ev.bindOneVarEnv(varName, sym, env)
			if err != nil {
				ev.a.UnpinTemp(1)
				return arena.Nil, err
			}
			_, err = ev.withEnv(loopEnv, func() (arena.Addr, error) {
				return ev.evalSequence(body, loopEnv, depth+1)
			})
			ev.a.UnpinTemp(2)
			if err != nil {
				return arena.Nil, err
			}
			if ev.unwinding {
				return arena.Nil, nil
			}
		}
		return ev.finishVarLoop(varName, hasResult, resultExpr, arena.Nil, env, depth)
	})
}

// bindOneVarEnv builds and pins a one-variable frame extending env —
// the common shape dolist/dotimes/do-symbols all bind per iteration.
func (ev *Evaluator) bindOneVarEnv(varName string, value, env arena.Addr) (arena.Addr, error) {
	frame, err := ev.a.AssocSet(arena.Nil, varName, value)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.PinTemp(frame)
	loopEnv, err := ev.a.Cons(frame, env)
	ev.a.UnpinTemp(1)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.PinTemp(loopEnv)
	return loopEnv, nil
}

// finishVarLoop evaluates a loop's result form, if any, with varName bound
// to terminal: NIL for dolist/do-symbols, the final count for dotimes.
func (ev *Evaluator) finishVarLoop(varName string, hasResult bool, resultExpr, terminal, env arena.Addr, depth int) (arena.Addr, error) {
	if !hasResult {
		return arena.Nil, nil
	}
	finalEnv, err := ev.bindOneVarEnv(varName, terminal, env)
	if err != nil {
		return arena.Nil, err
	}
	defer ev.a.UnpinTemp(1)
	return ev.Eval(resultExpr, finalEnv, depth+1)
}

// sfTime evaluates its single argument, reporting wall-clock elapsed time
// and the net number of cells allocated while doing so (a collection
// partway through can make the latter an underestimate, not a hard count).
func sfTime(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	before := ev.a.Used()
	start := time.Now()
	result, err := ev.Eval(ev.a.Car(args), env, depth+1)
	elapsed := time.Since(start)
	if err != nil {
		return arena.Nil, err
	}
	fmt.Fprintf(ev.out, "; time: %d ms, cells allocated (net): %d\n", elapsed.Milliseconds(), ev.a.Used()-before)
	return result, nil
}

// toggleTrace backs both trace and untrace: called with no arguments it
// reports the currently traced names; called with arguments it flips
// tracing on (or off) for each, routing built-ins through tracedBuiltins
// and user functions through TRACEDFUNCS.
func (ev *Evaluator) toggleTrace(args arena.Addr, on bool) (arena.Addr, error) {
	names := ev.a.ToSlice(args)
	if len(names) == 0 {
		all := append(append([]string{}, ev.tracedBuiltinNames()...), ev.tracedFuncNames()...)
		items := make([]arena.Addr, len(all))
		for i, n := range all {
			sym, err := ev.a.AllocSymbol(n)
			if err != nil {
				return arena.Nil, err
			}
			items[i] = sym
		}
		return ev.a.ConsList(items)
	}
	for _, nameExpr := range names {
		if ev.a.KindOf(nameExpr) != arena.KindSymbol {
			continue
		}
		name := ev.a.SymOf(nameExpr)
		if _, isBuiltin := ev.builtins[strings.ToUpper(name)]; isBuiltin {
			ev.setBuiltinTraced(name, on)
			continue
		}
		if on {
			if err := ev.addTracedFunc(name); err != nil {
				return arena.Nil, err
			}
		} else {
			ev.removeTracedFunc(name)
		}
	}
	return ev.a.AllocSymbol("T")
}

func sfTrace(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.toggleTrace(args, true)
}

func sfUntrace(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	return ev.toggleTrace(args, false)
}

// sfLoad reads and evaluates every top-level form in the named file. There
// are no strings in this language (spec's explicit non-goal), so the
// filename is written as a bare, unevaluated symbol: (load examples.lsp).
func sfLoad(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	nameExpr := ev.a.Car(args)
	if ev.a.KindOf(nameExpr) != arena.KindSymbol {
		ev.report("load: argument must be a filename symbol")
		return arena.Nil, nil
	}
	filename := ev.a.SymOf(nameExpr)

	f, err := os.Open(filename)
	if err != nil {
		ev.report("load: %v", err)
		return arena.Nil, nil
	}
	defer f.Close()

	rd := reader.NewFileReader(ev.a, f, reader.WithDiagnostics(ev.report))
	var result arena.Addr
	for {
		form, ok, perr := rd.Parse()
		if perr != nil {
			return arena.Nil, perr
		}
		if !ok {
			break
		}
		result, err = ev.Eval(form, env, depth+1)
		if err != nil {
			return arena.Nil, err
		}
	}
	return result, nil
}

// sfEval evaluates its argument once to obtain a form, then evaluates that
// form a second time — the "double evaluation" eval is defined by.
func sfEval(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
	form, err := ev.Eval(ev.a.Car(args), env, depth+1)
	if err != nil {
		return arena.Nil, err
	}
	return ev.Eval(form, env, depth+1)
}
