package arena_test

import (
	"testing"

	"github.com/dcbl47/simplisp/arena"
)

func TestAllocSymbolPromotesNumbers(t *testing.T) {
	a := arena.New(64, 0.8)

	n, err := a.AllocSymbol("42")
	if err != nil {
		t.Fatal(err)
	}
	if a.KindOf(n) != arena.KindNumber || a.NumOf(n) != 42 {
		t.Fatalf("want number 42, got kind=%v num=%d", a.KindOf(n), a.NumOf(n))
	}

	neg, err := a.AllocSymbol("-7")
	if err != nil {
		t.Fatal(err)
	}
	if a.KindOf(neg) != arena.KindNumber || a.NumOf(neg) != -7 {
		t.Fatalf("want number -7, got kind=%v num=%d", a.KindOf(neg), a.NumOf(neg))
	}

	sym, err := a.AllocSymbol("FOO")
	if err != nil {
		t.Fatal(err)
	}
	if a.KindOf(sym) != arena.KindSymbol || a.SymOf(sym) != "FOO" {
		t.Fatalf("want symbol FOO, got kind=%v sym=%q", a.KindOf(sym), a.SymOf(sym))
	}

	lone, err := a.AllocSymbol("-")
	if err != nil {
		t.Fatal(err)
	}
	if a.KindOf(lone) != arena.KindSymbol {
		t.Fatalf("lone sign should stay a symbol, got kind=%v", a.KindOf(lone))
	}
}

func TestIsNilStructural(t *testing.T) {
	a := arena.New(64, 0.8)

	if !a.IsNil(arena.Nil) {
		t.Fatal("address 0 must be NIL")
	}

	other, err := a.AllocCons(arena.Nil, arena.Nil)
	if err != nil {
		t.Fatal(err)
	}
	if !a.IsNil(other) {
		t.Fatal("any (0 . 0) cons is structurally NIL")
	}

	one, err := a.AllocNumber(1)
	if err != nil {
		t.Fatal(err)
	}
	pair, err := a.AllocCons(one, arena.Nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.IsNil(pair) {
		t.Fatal("(1 . NIL) must not be NIL")
	}
}

func TestAllocExhaustion(t *testing.T) {
	a := arena.New(2, 0.8)
	if _, err := a.AllocNumber(1); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AllocNumber(2); err == nil {
		t.Fatal("expected memory-exhausted error")
	}
}

func TestCollectReclaimsUnreachable(t *testing.T) {
	a := arena.New(16, 0.8)

	kept, err := a.AllocNumber(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.AllocNumber(2); err != nil { // garbage: unreferenced after this point
		t.Fatal(err)
	}

	head, err := a.AssocSet(arena.Nil, "X", kept)
	if err != nil {
		t.Fatal(err)
	}
	a.SetDefVars(head)

	before := a.Used()
	a.Collect()
	if a.Used() >= before {
		t.Fatalf("expected collection to shrink used count, before=%d after=%d", before, a.Used())
	}
	if v, ok := a.AssocGet(a.DefVars(), "X"); !ok || v != kept {
		t.Fatal("rooted binding did not survive collection")
	}
}

func TestAssocSetOnNilReturnsNewHead(t *testing.T) {
	a := arena.New(64, 0.8)

	v, err := a.AllocNumber(7)
	if err != nil {
		t.Fatal(err)
	}
	head, err := a.AssocSet(arena.Nil, "Y", v)
	if err != nil {
		t.Fatal(err)
	}
	if head == arena.Nil {
		t.Fatal("AssocSet on an empty list must return a new, non-nil head")
	}
	if a.IsNil(arena.Nil) != true {
		t.Fatal("the canonical NIL address must remain untouched")
	}
	got, ok := a.AssocGet(head, "Y")
	if !ok || got != v {
		t.Fatal("binding not found after AssocSet on NIL")
	}
}

func TestPushPop(t *testing.T) {
	a := arena.New(64, 0.8)

	one, _ := a.AllocNumber(1)
	two, _ := a.AllocNumber(2)

	list, err := a.Push(one, arena.Nil)
	if err != nil {
		t.Fatal(err)
	}
	list, err = a.Push(two, list)
	if err != nil {
		t.Fatal(err)
	}
	if a.Length(list) != 2 {
		t.Fatalf("want length 2, got %d", a.Length(list))
	}
	if got := a.Pop(list); got != two {
		t.Fatalf("want pop to yield most recently pushed item")
	}
	if a.Length(list) != 1 {
		t.Fatalf("want length 1 after pop, got %d", a.Length(list))
	}
	if got := a.Pop(arena.Nil); got != arena.Nil {
		t.Fatal("popping NIL must return NIL without mutating it")
	}
}

func TestConsListAndToSlice(t *testing.T) {
	a := arena.New(64, 0.8)
	one, _ := a.AllocNumber(1)
	two, _ := a.AllocNumber(2)
	three, _ := a.AllocNumber(3)

	list, err := a.ConsList([]arena.Addr{one, two, three})
	if err != nil {
		t.Fatal(err)
	}
	got := a.ToSlice(list)
	want := []arena.Addr{one, two, three}
	if len(got) != len(want) {
		t.Fatalf("want %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d: want %v, got %v", i, want[i], got[i])
		}
	}
}
