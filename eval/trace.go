package eval

import (
	"fmt"
	"strings"

	"github.com/dcbl47/simplisp/arena"
)

// userFunctionTraced reports whether name is currently listed in
// TRACEDFUNCS (spec §4.3's "trace/untrace ... add/remove the user
// function in TRACEDFUNCS").
func (ev *Evaluator) userFunctionTraced(name string) bool {
	_, ok := ev.a.AssocGet(ev.a.TracedFuncs(), name)
	return ok
}

func (ev *Evaluator) addTracedFunc(name string) error {
	if ev.userFunctionTraced(name) {
		return nil
	}
	head, err := ev.a.AssocSet(ev.a.TracedFuncs(), name, arena.Nil)
	if err != nil {
		return err
	}
	ev.a.SetTracedFuncs(head)
	return nil
}

func (ev *Evaluator) removeTracedFunc(name string) {
	head, _ := ev.a.AssocDel(ev.a.TracedFuncs(), name)
	ev.a.SetTracedFuncs(head)
}

func (ev *Evaluator) tracedFuncNames() []string {
	var names []string
	var cur arena.Cursor
	for node := ev.a.Traverse(ev.a.TracedFuncs(), &cur); !ev.a.IsNil(node); node = ev.a.Traverse(ev.a.TracedFuncs(), &cur) {
		pair := ev.a.Car(node)
		names = append(names, ev.a.SymOf(ev.a.Car(pair)))
	}
	return names
}

func (ev *Evaluator) builtinTraced(name string) bool {
	return ev.tracedBuiltins[strings.ToUpper(name)]
}

func (ev *Evaluator) setBuiltinTraced(name string, on bool) {
	key := strings.ToUpper(name)
	if on {
		ev.tracedBuiltins[key] = true
	} else {
		delete(ev.tracedBuiltins, key)
	}
}

func (ev *Evaluator) tracedBuiltinNames() []string {
	names := make([]string, 0, len(ev.tracedBuiltins))
	for name := range ev.tracedBuiltins {
		names = append(names, name)
	}
	return names
}

// printRawEnter/printRawExit implement the traced-built-in form of §4.3's
// tracing rule: print the original call cell on entry, the result on
// exit.
func (ev *Evaluator) printRawEnter(sexpr arena.Addr) {
	fmt.Fprintf(ev.out, ">>> %s\n", ev.Print(sexpr))
}

func (ev *Evaluator) printRawExit(result arena.Addr) {
	fmt.Fprintf(ev.out, "<<< %s\n", ev.Print(result))
}

// printCallEnter/printCallExit implement the traced-user-function form:
// print the freshly evaluated arguments, not the unevaluated call.
func (ev *Evaluator) printCallEnter(name string, args []arena.Addr) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = ev.Print(a)
	}
	if len(parts) == 0 {
		fmt.Fprintf(ev.out, ">>> %s\n", name)
		return
	}
	fmt.Fprintf(ev.out, ">>> %s %s\n", name, strings.Join(parts, " "))
}

func (ev *Evaluator) printCallExit(result arena.Addr) {
	fmt.Fprintf(ev.out, "<<< %s\n", ev.Print(result))
}
