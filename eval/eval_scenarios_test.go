package eval_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcbl47/simplisp/arena"
	"github.com/dcbl47/simplisp/eval"
	"github.com/dcbl47/simplisp/internal/diag"
	"github.com/dcbl47/simplisp/reader"
)

func newEvaluator(t *testing.T, capacity int, threshold float64) (*arena.Arena, *eval.Evaluator, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	rep := diag.New(&out)
	a := arena.New(capacity, threshold)
	a.SetDiagnostics(rep.Func())
	ev := eval.New(a, &out, rep)
	return a, ev, &out
}

// evalString parses and evaluates every top-level form in src, each against
// a fresh ev.TopEnv() (DEFVARS as the sole frame, so defvar/defun writes
// land in DEFVARS/DEFUNS), returning the last form's printed result.
func evalString(t *testing.T, a *arena.Arena, ev *eval.Evaluator, src string) string {
	t.Helper()
	rd := reader.NewLineReader(a, src)
	var result arena.Addr
	for {
		form, ok, err := rd.Parse()
		require.NoError(t, err)
		if !ok {
			break
		}
		require.True(t, rd.Ok, "parse error in %q", src)
		env, envErr := ev.TopEnv()
		require.NoError(t, envErr)
		result, err = ev.Eval(form, env, 0)
		require.NoError(t, err)
	}
	return ev.Print(result)
}

func TestScenarioArithmetic(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "6", evalString(t, a, ev, "(+ 1 2 3)"))
}

func TestScenarioRecursiveFactorial(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	got := evalString(t, a, ev, "(defun fact (n) (if (< n 2) 1 (* n (fact (- n 1))))) (fact 5)")
	require.Equal(t, "120", got)
}

func TestScenarioLetAndLetStar(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "3", evalString(t, a, ev, "(let ((x 1) (y 2)) (+ x y))"))
	require.Equal(t, "2", evalString(t, a, ev, "(let* ((x 1) (y (+ x 1))) y)"))
}

func TestScenarioMapcarWithInlineLambda(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	got := evalString(t, a, ev, "(mapcar '(lambda (x) (* x x)) '(1 2 3 4))")
	require.Equal(t, "(1 4 9 16)", got)
}

func TestScenarioDoLoopSum(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	got := evalString(t, a, ev, "(do ((i 0 (+ i 1)) (s 0 (+ s i))) ((= i 5) s))")
	require.Equal(t, "10", got)
}

func TestScenarioLoopReturn(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "42", evalString(t, a, ev, "(loop (return 42))"))
}

func TestScenarioEqualVsEq(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "T", evalString(t, a, ev, "(equal '(1 (2 3)) '(1 (2 3)))"))
	require.Equal(t, "NIL", evalString(t, a, ev, "(eq '(1 2) '(1 2))"))
}

func TestScenarioDotimesTriggersGC(t *testing.T) {
	a, ev, out := newEvaluator(t, 2000, 0.8)
	evalString(t, a, ev, "(dotimes (i 100000) (cons i i))")
	evalString(t, a, ev, "(room)")
	require.Greater(t, a.GCRuns(), 0, "expected at least one collection over 100000 iterations on a 2000-cell arena")
	require.LessOrEqual(t, a.Used(), a.Capacity())
	require.Contains(t, out.String(), "gc runs:")
}

func TestRoundTripQuoteReturnsExactForm(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "(1 2 3)", evalString(t, a, ev, "(quote (1 2 3))"))
	require.Equal(t, "(1 2 3)", evalString(t, a, ev, "'(1 2 3)"))
}

func TestRoundTripEvalQuote(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, evalString(t, a, ev, "(+ 1 2)"), evalString(t, a, ev, "(eval (quote (+ 1 2)))"))
}

func TestRoundTripDefvarDefparameter(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	evalString(t, a, ev, "(defparameter 'a 1)")
	evalString(t, a, ev, "(defparameter 'a 2)")
	evalString(t, a, ev, "(defvar 'a 3)")
	require.Equal(t, "2", evalString(t, a, ev, "a"))
}

func TestRoundTripParsePrint(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	for _, src := range []string{"(1 2 3)", "FOO", "42", "(A (B C) D)"} {
		rd := reader.NewLineReader(a, src)
		form, ok, err := rd.Parse()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, src, ev.Print(form))
	}
}

func TestBoundaryNthOutOfRange(t *testing.T) {
	a, ev, out := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "NIL", evalString(t, a, ev, "(nth -1 (list 1 2 3))"))
	require.Contains(t, out.String(), "[error]")
	out.Reset()
	require.Equal(t, "NIL", evalString(t, a, ev, "(nth 5 (list 1 2 3))"))
}

func TestBoundaryLambdaArityMismatch(t *testing.T) {
	a, ev, out := newEvaluator(t, 1000, 0.8)
	got := evalString(t, a, ev, "(defun add2 (x y) (+ x y)) (add2 1)")
	require.Equal(t, "NIL", got)
	require.Contains(t, out.String(), "[error]")
}

func TestBoundaryReturnOutsideLoop(t *testing.T) {
	a, ev, out := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "NIL", evalString(t, a, ev, "(return 1)"))
	require.True(t, strings.Contains(out.String(), "[error]"))
}

func TestInvariantFboundpTracksDefunUndef(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	evalString(t, a, ev, "(defun double (x) (* x 2))")
	require.Equal(t, "T", evalString(t, a, ev, "(fboundp 'double)"))
}

func TestInvariantAllocationDistinctAddresses(t *testing.T) {
	a := arena.New(10, 0.99)
	seen := map[arena.Addr]bool{}
	for i := 0; i < 5; i++ {
		addr, err := a.AllocNumber(int64(i))
		require.NoError(t, err)
		require.False(t, seen[addr], "address %d reused without an intervening collection", addr)
		seen[addr] = true
	}
}

func TestAndOrReturnT(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "T", evalString(t, a, ev, "(and 1 2 3)"))
	require.Equal(t, "NIL", evalString(t, a, ev, "(and 1 NIL 3)"))
	require.Equal(t, "T", evalString(t, a, ev, "(or NIL 2)"))
	require.Equal(t, "NIL", evalString(t, a, ev, "(or NIL NIL)"))
}

func TestMapcarStopsAtFirstListEnd(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	got := evalString(t, a, ev, "(mapcar '(lambda (x y) (+ x y)) (list 1 2) (list 10 20 30))")
	require.Equal(t, "(11 22)", got)
}

func TestTraceReportsCallEnterExit(t *testing.T) {
	a, ev, out := newEvaluator(t, 1000, 0.8)
	evalString(t, a, ev, "(defun inc (x) (+ x 1))")
	evalString(t, a, ev, "(trace inc)")
	evalString(t, a, ev, "(inc 41)")
	require.Contains(t, out.String(), ">>> inc 41")
	require.Contains(t, out.String(), "<<< 42")
}

func TestSetqUpdatesNearestFrame(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	got := evalString(t, a, ev, "(let ((x 1)) (setq x (+ x 1)) x)")
	require.Equal(t, "2", got)
}

func TestSetfCarCdrNth(t *testing.T) {
	a, ev, _ := newEvaluator(t, 1000, 0.8)
	require.Equal(t, "(9 2 3)", evalString(t, a, ev, "(defparameter 'lst (list 1 2 3)) (setf (car lst) 9) lst"))
	require.Equal(t, "(9 2 7)", evalString(t, a, ev, "(setf (nth 2 lst) 7) lst"))
}
