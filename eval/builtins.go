package eval

import (
	"fmt"
	"strings"

	"github.com/dcbl47/simplisp/arena"
)

// evalArgs evaluates every element of an unevaluated argument list
// left-to-right, pinning each result as it's produced so that evaluating
// argument k+1 can never let a collection reclaim argument k's value
// before it's handed to the builtin.
func (ev *Evaluator) evalArgs(args, env arena.Addr, depth int) ([]arena.Addr, int, error) {
	var out []arena.Addr
	pins := 0
	var cur arena.Cursor
	for node := ev.a.Traverse(args, &cur); !ev.a.IsNil(node); node = ev.a.Traverse(args, &cur) {
		v, err := ev.Eval(ev.a.Car(node), env, depth+1)
		if err != nil {
			ev.a.UnpinTemp(pins)
			return nil, 0, err
		}
		ev.a.PinTemp(v)
		pins++
		out = append(out, v)
	}
	return out, pins, nil
}

func (ev *Evaluator) withEvaledArgs(args, env arena.Addr, depth int, fn func([]arena.Addr) (arena.Addr, error)) (arena.Addr, error) {
	vals, pins, err := ev.evalArgs(args, env, depth)
	if err != nil {
		return arena.Nil, err
	}
	defer ev.a.UnpinTemp(pins)
	return fn(vals)
}

// quotedArgExprs wraps each already-evaluated value in a synthetic
// (quote v) expression, so apply/funcall/mapcar can hand pre-computed
// values to the ordinary builtin/applyLambda call machinery — which
// always expects unevaluated argument expressions — without writing a
// second call path that duplicates arity checking and tracing.
func (ev *Evaluator) quotedArgExprs(vals []arena.Addr) (arena.Addr, error) {
	exprs := make([]arena.Addr, len(vals))
	for i, v := range vals {
		q, err := ev.a.AllocSymbol("QUOTE")
		if err != nil {
			return arena.Nil, err
		}
		tail, err := ev.a.Cons(v, arena.Nil)
		if err != nil {
			return arena.Nil, err
		}
		expr, err := ev.a.Cons(q, tail)
		if err != nil {
			return arena.Nil, err
		}
		exprs[i] = expr
	}
	return ev.a.ConsList(exprs)
}

// applyValue calls fnDesignator (a symbol naming a built-in/user function,
// or a literal (lambda (params) body...) form) with argVals as already-
// computed arguments — the shared core of apply, funcall and mapcar.
func (ev *Evaluator) applyValue(fnDesignator arena.Addr, argVals []arena.Addr, env arena.Addr, depth int) (arena.Addr, error) {
	argExprs, err := ev.quotedArgExprs(argVals)
	if err != nil {
		return arena.Nil, err
	}

	if ev.a.KindOf(fnDesignator) == arena.KindSymbol {
		name := ev.a.SymOf(fnDesignator)
		key := strings.ToUpper(name)
		if b, ok := ev.builtins[key]; ok {
			if !checkArity(b.arity, len(argVals)) {
				ev.report("%s: wrong number of arguments (%d)", name, len(argVals))
				return arena.Nil, nil
			}
			return ev.callBuiltin(b, argExprs, argExprs, env, depth)
		}
		if fnCell, ok := ev.a.AssocGet(ev.a.DefUns(), name); ok {
			return ev.applyLambda(name, ev.a.Car(fnCell), ev.a.Cdr(fnCell), argExprs, env, depth)
		}
		ev.report("Undefined function %s", name)
		return arena.Nil, nil
	}

	if ev.a.KindOf(fnDesignator) == arena.KindCons && !ev.a.IsNil(fnDesignator) {
		head := ev.a.Car(fnDesignator)
		if ev.a.KindOf(head) == arena.KindSymbol && arena.SymEqual(ev.a.SymOf(head), "LAMBDA") {
			params := ev.a.Car(ev.a.Cdr(fnDesignator))
			body := ev.a.Cdr(ev.a.Cdr(fnDesignator))
			return ev.applyLambda("lambda", params, body, argExprs, env, depth)
		}
	}
	ev.report("apply/funcall: not a function designator")
	return arena.Nil, nil
}

func (ev *Evaluator) eqOrEql(a, b arena.Addr) bool {
	if a == b {
		return true
	}
	ka, kb := ev.a.KindOf(a), ev.a.KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case arena.KindNumber:
		return ev.a.NumOf(a) == ev.a.NumOf(b)
	case arena.KindSymbol:
		return arena.SymEqual(ev.a.SymOf(a), ev.a.SymOf(b))
	default:
		return false
	}
}

func (ev *Evaluator) equalRec(a, b arena.Addr) bool {
	if ev.eqOrEql(a, b) {
		return true
	}
	if ev.a.KindOf(a) == arena.KindCons && ev.a.KindOf(b) == arena.KindCons {
		if ev.a.IsNil(a) != ev.a.IsNil(b) {
			return false
		}
		if ev.a.IsNil(a) {
			return true
		}
		return ev.equalRec(ev.a.Car(a), ev.a.Car(b)) && ev.equalRec(ev.a.Cdr(a), ev.a.Cdr(b))
	}
	return false
}

func (ev *Evaluator) boolSymbol(v bool) (arena.Addr, error) {
	if v {
		return ev.a.AllocSymbol("T")
	}
	return arena.Nil, nil
}

func (ev *Evaluator) dumpMemory() {
	fmt.Fprintf(ev.out, "; %d/%d cells in use\n", ev.a.Used(), ev.a.Capacity())
	ev.a.ForEach(func(addr arena.Addr, c arena.Cell) {
		fmt.Fprintf(ev.out, "%6d: %-6s %s\n", addr, c.Kind, ev.Print(addr))
	})
}

func requireNumbers(ev *Evaluator, vals []arena.Addr, who string) ([]int64, bool) {
	nums := make([]int64, len(vals))
	for i, v := range vals {
		if ev.a.KindOf(v) != arena.KindNumber {
			ev.report("%s: argument %d is not a number", who, i+1)
			return nil, false
		}
		nums[i] = ev.a.NumOf(v)
	}
	return nums, true
}

// buildTable assembles the single name -> (arity, fn) table that backs
// every special form and built-in function, keyed upper-case since symbols
// are case-insensitive (spec §4.3/§6). Special forms receive the raw,
// unevaluated argument list; built-ins call withEvaledArgs themselves to
// opt into ordinary left-to-right argument evaluation.
func (ev *Evaluator) buildTable() map[string]*builtin {
	t := map[string]*builtin{}
	reg := func(name, arity string, fn func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error)) {
		t[strings.ToUpper(name)] = &builtin{name: name, arity: arity, fn: fn}
	}

	// Special forms: selective/no evaluation of their own arguments.
	reg("QUOTE", "=1", sfQuote)
	reg("'", "=1", sfQuote)
	reg("IF", ">1", sfIf)
	reg("COND", "*", sfCond)
	reg("AND", "*", sfAnd)
	reg("OR", "*", sfOr)
	reg("PROGN", "*", sfProgn)
	reg("LET", ">0", sfLet)
	reg("LET*", ">0", sfLetStar)
	reg("DEFVAR", ">0", sfDefvar)
	reg("DEFPARAMETER", ">0", sfDefparameter)
	reg("DEFUN", ">1", sfDefun)
	reg("SETQ", "=2", sfSetq)
	reg("SETF", "=2", sfSetf)
	reg("DO", ">1", sfDo)
	reg("DOLIST", ">0", sfDolist)
	reg("DOTIMES", ">0", sfDotimes)
	reg("DO-SYMBOLS", ">0", sfDoSymbols)
	reg("LOOP", "*", sfLoop)
	reg("RETURN", "<2", sfReturn)
	reg("TIME", "=1", sfTime)
	reg("TRACE", "*", sfTrace)
	reg("UNTRACE", "*", sfUntrace)
	reg("LOAD", "=1", sfLoad)
	reg("EVAL", "=1", sfEval)

	// Built-ins: ordinary left-to-right argument evaluation.
	reg("APPEND", "*", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			if len(vals) == 0 {
				return arena.Nil, nil
			}
			var items []arena.Addr
			for _, v := range vals[:len(vals)-1] {
				items = append(items, ev.a.ToSlice(v)...)
			}
			result := vals[len(vals)-1]
			for i := len(items) - 1; i >= 0; i-- {
				var err error
				result, err = ev.a.Cons(items[i], result)
				if err != nil {
					return arena.Nil, err
				}
			}
			return result, nil
		})
	})

	reg("APPLY", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.applyValue(vals[0], ev.a.ToSlice(vals[1]), env, depth)
		})
	})

	reg("FUNCALL", ">0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.applyValue(vals[0], vals[1:], env, depth)
		})
	})

	reg("ATOM", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			v := vals[0]
			return ev.boolSymbol(ev.a.KindOf(v) != arena.KindCons || ev.a.IsNil(v))
		})
	})

	reg("BOUNDP", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			if ev.a.KindOf(vals[0]) != arena.KindSymbol {
				return arena.Nil, nil
			}
			_, ok := ev.a.AssocGet(ev.a.DefVars(), ev.a.SymOf(vals[0]))
			return ev.boolSymbol(ok)
		})
	})

	reg("FBOUNDP", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			if ev.a.KindOf(vals[0]) != arena.KindSymbol {
				return arena.Nil, nil
			}
			name := ev.a.SymOf(vals[0])
			if _, ok := ev.builtins[strings.ToUpper(name)]; ok {
				return ev.boolSymbol(true)
			}
			_, ok := ev.a.AssocGet(ev.a.DefUns(), name)
			return ev.boolSymbol(ok)
		})
	})

	reg("CAR", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			if ev.a.KindOf(vals[0]) != arena.KindCons {
				ev.report("car: not a cons")
				return arena.Nil, nil
			}
			return ev.a.Car(vals[0]), nil
		})
	})

	reg("CDR", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			if ev.a.KindOf(vals[0]) != arena.KindCons {
				ev.report("cdr: not a cons")
				return arena.Nil, nil
			}
			return ev.a.Cdr(vals[0]), nil
		})
	})

	reg("CONS", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.a.Cons(vals[0], vals[1])
		})
	})

	reg("DUMPM", "=0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		ev.dumpMemory()
		return arena.Nil, nil
	})

	reg("EQ", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.boolSymbol(ev.eqOrEql(vals[0], vals[1]))
		})
	})

	reg("EQL", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.boolSymbol(ev.eqOrEql(vals[0], vals[1]))
		})
	})

	reg("EQUAL", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.boolSymbol(ev.equalRec(vals[0], vals[1]))
		})
	})

	reg("GC", "=0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		before := ev.a.Used()
		ev.a.Collect()
		fmt.Fprintf(ev.out, "; gc: reclaimed %d cells\n", before-ev.a.Used())
		return arena.Nil, nil
	})

	reg("LENGTH", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.a.AllocNumber(int64(ev.a.Length(vals[0])))
		})
	})

	reg("LIST", ">0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.a.ConsList(vals)
		})
	})

	reg("MAPCAR", ">1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			fnDesignator := vals[0]
			lists := vals[1:]
			var results []arena.Addr
			for i := 0; ; i++ {
				first := ev.a.Nth(lists[0], i)
				if ev.a.IsNil(first) {
					break
				}
				callArgs := make([]arena.Addr, len(lists))
				for j, l := range lists {
					callArgs[j] = ev.a.Nth(l, i)
				}
				r, err := ev.applyValue(fnDesignator, callArgs, env, depth)
				if err != nil {
					return arena.Nil, err
				}
				results = append(results, r)
			}
			return ev.a.ConsList(results)
		})
	})

	reg("MOD", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, "mod")
			if !ok {
				return arena.Nil, nil
			}
			if nums[1] == 0 {
				ev.report("mod: division by zero")
				return arena.Nil, nil
			}
			return ev.a.AllocNumber(nums[0] % nums[1])
		})
	})

	reg("NOT", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.boolSymbol(ev.a.IsNil(vals[0]))
		})
	})

	reg("NULL", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.boolSymbol(ev.a.IsNil(vals[0]))
		})
	})

	reg("NTH", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			if ev.a.KindOf(vals[0]) != arena.KindNumber {
				ev.report("nth: index must be a number")
				return arena.Nil, nil
			}
			n := ev.a.NumOf(vals[0])
			if n < 0 {
				ev.report("nth: negative index")
				return arena.Nil, nil
			}
			return ev.a.Nth(vals[1], int(n)), nil
		})
	})

	reg("POP", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.a.Pop(vals[0]), nil
		})
	})

	reg("PUSH", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			return ev.a.Push(vals[0], vals[1])
		})
	})

	reg("PRINT", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			fmt.Fprintln(ev.out, ev.Print(vals[0]))
			return vals[0], nil
		})
	})

	reg("PRIN1", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			fmt.Fprint(ev.out, ev.Print(vals[0]))
			return vals[0], nil
		})
	})

	reg("READ", "=0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		if ev.stdin == nil {
			ev.report("read: no input stream available")
			return arena.Nil, nil
		}
		form, ok, err := ev.stdin.Parse()
		if err != nil {
			return arena.Nil, err
		}
		if !ok {
			return arena.Nil, nil
		}
		return form, nil
	})

	reg("ROOM", "=0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		fmt.Fprintf(ev.out, "cells used: %d/%d\n", ev.a.Used(), ev.a.Capacity())
		fmt.Fprintf(ev.out, "gc runs: %d\n", ev.a.GCRuns())
		fmt.Fprintf(ev.out, "free: %d\n", ev.a.Capacity()-ev.a.Used())
		return arena.Nil, nil
	})

	reg("TERPRI", "=0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		fmt.Fprintln(ev.out)
		return arena.Nil, nil
	})

	reg("TYPE-OF", "=1", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			switch ev.a.KindOf(vals[0]) {
			case arena.KindNumber:
				return ev.a.AllocSymbol("NUMBER")
			case arena.KindSymbol:
				return ev.a.AllocSymbol("SYMBOL")
			default:
				return ev.a.AllocSymbol("CONS")
			}
		})
	})

	reg("+", ">0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, "+")
			if !ok {
				return arena.Nil, nil
			}
			var sum int64
			for _, n := range nums {
				sum += n
			}
			return ev.a.AllocNumber(sum)
		})
	})

	reg("-", ">0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, "-")
			if !ok {
				return arena.Nil, nil
			}
			if len(nums) == 1 {
				return ev.a.AllocNumber(-nums[0])
			}
			result := nums[0]
			for _, n := range nums[1:] {
				result -= n
			}
			return ev.a.AllocNumber(result)
		})
	})

	reg("*", ">0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, "*")
			if !ok {
				return arena.Nil, nil
			}
			result := int64(1)
			for _, n := range nums {
				result *= n
			}
			return ev.a.AllocNumber(result)
		})
	})

	reg("/", ">0", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, "/")
			if !ok {
				return arena.Nil, nil
			}
			if len(nums) == 1 {
				if nums[0] == 0 {
					ev.report("/: division by zero")
					return arena.Nil, nil
				}
				return ev.a.AllocNumber(1 / nums[0])
			}
			result := nums[0]
			for _, n := range nums[1:] {
				if n == 0 {
					ev.report("/: division by zero")
					return arena.Nil, nil
				}
				result /= n
			}
			return ev.a.AllocNumber(result)
		})
	})

	reg("=", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, "=")
			if !ok {
				return arena.Nil, nil
			}
			return ev.boolSymbol(nums[0] == nums[1])
		})
	})

	reg(">", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, ">")
			if !ok {
				return arena.Nil, nil
			}
			return ev.boolSymbol(nums[0] > nums[1])
		})
	})

	reg("<", "=2", func(ev *Evaluator, args, env arena.Addr, depth int) (arena.Addr, error) {
		return ev.withEvaledArgs(args, env, depth, func(vals []arena.Addr) (arena.Addr, error) {
			nums, ok := requireNumbers(ev, vals, "<")
			if !ok {
				return arena.Nil, nil
			}
			return ev.boolSymbol(nums[0] < nums[1])
		})
	})

	return t
}
