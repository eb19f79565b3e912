package reader_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcbl47/simplisp/arena"
	"github.com/dcbl47/simplisp/reader"
)

func printSexpr(a *arena.Arena, addr arena.Addr) string {
	if a.IsNil(addr) {
		return "NIL"
	}
	switch a.KindOf(addr) {
	case arena.KindNumber:
		return itoa(a.NumOf(addr))
	case arena.KindSymbol:
		return a.SymOf(addr)
	default:
		car := a.Car(addr)
		cdr := a.Cdr(addr)
		if a.KindOf(cdr) == arena.KindCons || a.IsNil(cdr) {
			s := "(" + printSexpr(a, car)
			rest := cdr
			for !a.IsNil(rest) {
				s += " " + printSexpr(a, a.Car(rest))
				rest = a.Cdr(rest)
			}
			return s + ")"
		}
		return "(" + printSexpr(a, car) + " . " + printSexpr(a, cdr) + ")"
	}
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf []byte
	for v > 0 {
		buf = append([]byte{byte('0' + v%10)}, buf...)
		v /= 10
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}

func TestParseAtoms(t *testing.T) {
	a := arena.New(1024, 0.8)
	r := reader.NewLineReader(a, "42")
	v, ok, err := r.Parse()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, arena.KindNumber, a.KindOf(v))
	require.Equal(t, int64(42), a.NumOf(v))
}

func TestParseList(t *testing.T) {
	a := arena.New(1024, 0.8)
	r := reader.NewLineReader(a, "(+ 1 2 3)")
	v, ok, err := r.Parse()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "(+ 1 2 3)", printSexpr(a, v))
}

func TestParseQuote(t *testing.T) {
	a := arena.New(1024, 0.8)
	r := reader.NewLineReader(a, "'(a b)")
	v, ok, err := r.Parse()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "(' (a b))", printSexpr(a, v))
}

func TestParseUnexpectedCloseParen(t *testing.T) {
	a := arena.New(1024, 0.8)
	r := reader.NewLineReader(a, ")")
	_, ok, err := r.Parse()
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, r.Ok)
}

func TestParsePrematureEOF(t *testing.T) {
	a := arena.New(1024, 0.8)
	r := reader.NewLineReader(a, "(+ 1 2")
	_, ok, err := r.Parse()
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, r.Ok)
}

func TestParseCleanEndOfStream(t *testing.T) {
	a := arena.New(1024, 0.8)
	r := reader.NewLineReader(a, "")
	_, ok, err := r.Parse()
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, r.Ok)
}

func TestParseNestedLists(t *testing.T) {
	a := arena.New(1024, 0.8)
	r := reader.NewLineReader(a, "(let ((x 1) (y 2)) (+ x y))")
	v, ok, err := r.Parse()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "(let ((x 1) (y 2)) (+ x y))", printSexpr(a, v))
}
