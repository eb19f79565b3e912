package eval

import "github.com/dcbl47/simplisp/arena"

// applyLambda implements apply_lambda (spec §4.3): arity-check, evaluate
// arguments left to right in the caller's env, bind them into a fresh
// frame built in isolation, extend env with that frame, evaluate the body
// as an implicit sequence, and restore env on the way out.
func (ev *Evaluator) applyLambda(name string, params, body, argExprs, callerEnv arena.Addr, depth int) (arena.Addr, error) {
	paramAddrs := ev.a.ToSlice(params)
	argAddrs := ev.a.ToSlice(argExprs)
	if len(paramAddrs) != len(argAddrs) {
		ev.report("%s: expected %d argument(s), got %d", name, len(paramAddrs), len(argAddrs))
		return arena.Nil, nil
	}

	evaledArgs := make([]arena.Addr, len(argAddrs))
	pins := 0
	defer func() { ev.a.UnpinTemp(pins) }()
	for i, argExpr := range argAddrs {
		v, err := ev.Eval(argExpr, callerEnv, depth+1)
		if err != nil {
			return arena.Nil, err
		}
		evaledArgs[i] = v
		ev.a.PinTemp(v)
		pins++
	}

	frame := arena.Addr(arena.Nil)
	for i, p := range paramAddrs {
		var err error
		frame, err = ev.a.AssocSet(frame, ev.a.SymOf(p), evaledArgs[i])
		if err != nil {
			return arena.Nil, err
		}
	}
	ev.a.PinTemp(frame)
	pins++

	newEnv, err := ev.a.Cons(frame, callerEnv)
	if err != nil {
		return arena.Nil, err
	}
	ev.a.PinTemp(newEnv)
	pins++

	traced := ev.userFunctionTraced(name)
	if traced {
		ev.printCallEnter(name, evaledArgs)
	}
	result, err := ev.withEnv(newEnv, func() (arena.Addr, error) {
		return ev.evalSequence(body, newEnv, depth+1)
	})
	if traced {
		ev.printCallExit(result)
	}
	return result, err
}
