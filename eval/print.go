package eval

import (
	"strconv"
	"strings"

	"github.com/dcbl47/simplisp/arena"
)

// Print renders addr as spec §7 describes: "NIL" literally for NIL, the
// symbol name or decimal integer for atoms, a parenthesized form for
// proper lists, and dotted-pair syntax "(a . b)" once the tail stops
// being a proper list. Grounded on the NIL/dotted-pair/proper-list
// distinction in other_examples' Lisp 1.5 printer and on
// original_source/src/memory.cpp's Print/PrintList.
func (ev *Evaluator) Print(addr arena.Addr) string {
	var sb strings.Builder
	ev.print(&sb, addr)
	return sb.String()
}

func (ev *Evaluator) print(sb *strings.Builder, addr arena.Addr) {
	if ev.a.IsNil(addr) {
		sb.WriteString("NIL")
		return
	}
	switch ev.a.KindOf(addr) {
	case arena.KindNumber:
		sb.WriteString(strconv.FormatInt(ev.a.NumOf(addr), 10))
	case arena.KindSymbol:
		sb.WriteString(ev.a.SymOf(addr))
	case arena.KindCons:
		ev.printCons(sb, addr)
	}
}

func (ev *Evaluator) printCons(sb *strings.Builder, addr arena.Addr) {
	sb.WriteByte('(')
	ev.print(sb, ev.a.Car(addr))
	rest := ev.a.Cdr(addr)
	for {
		if ev.a.IsNil(rest) {
			break
		}
		if ev.a.KindOf(rest) == arena.KindCons {
			sb.WriteByte(' ')
			ev.print(sb, ev.a.Car(rest))
			rest = ev.a.Cdr(rest)
			continue
		}
		sb.WriteString(" . ")
		ev.print(sb, rest)
		break
	}
	sb.WriteByte(')')
}
