package arena

// Length returns the number of elements in a proper list, stopping at the
// first NIL cdr — exactly the count of Traverse steps, not arithmetic on
// pointer distance.
func (a *Arena) Length(list Addr) int {
	n := 0
	for !a.IsNil(list) {
		list = a.Cdr(list)
		n++
	}
	return n
}

// Nth returns the n-th (0-based) element of list, or Nil if the list is
// shorter than n+1 elements.
func (a *Arena) Nth(list Addr, n int) Addr {
	node := list
	for n > 0 {
		if a.IsNil(node) {
			return Nil
		}
		node = a.Cdr(node)
		n--
	}
	if a.IsNil(node) {
		return Nil
	}
	return a.Car(node)
}

// Cursor is a caller-owned traversal token replacing the reference
// interpreter's out-of-band TRAVERSEMARK sentinel address: the cursor's
// state lives in the caller's stack frame instead of a well-known address
// in the arena, so two independent traversals of the same list can't
// collide on a shared mark.
type Cursor struct {
	started bool
	node    Addr
}

// Traverse advances cur and returns the next list node (or Nil, once the
// list is exhausted). The first call against a fresh Cursor returns list
// itself; every call after that ignores list and advances from where the
// previous call left off.
func (a *Arena) Traverse(list Addr, cur *Cursor) Addr {
	if !cur.started {
		cur.started = true
		if !a.IsNil(list) {
			cur.node = a.Cdr(list)
		} else {
			cur.node = Nil
		}
		return list
	}
	result := cur.node
	if !a.IsNil(cur.node) {
		cur.node = a.Cdr(cur.node)
	}
	return result
}

// AssocGet looks up name in the association list list (pairs of
// symbol . value), case-insensitively. ok is false if name is unbound.
func (a *Arena) AssocGet(list Addr, name string) (value Addr, ok bool) {
	var cur Cursor
	for node := a.Traverse(list, &cur); !a.IsNil(node); node = a.Traverse(list, &cur) {
		pair := a.Car(node)
		if SymEqual(a.SymOf(a.Car(pair)), name) {
			return a.Cdr(pair), true
		}
	}
	return Nil, false
}

// AssocSet binds name to value in list, mutating the existing pair in
// place if name is already bound, or appending a fresh (symbol . value)
// node at the tail otherwise. It returns the list's head, which callers
// must store back into whatever root or binding slot held list: when list
// is Nil, AssocSet cannot mutate the shared empty-list cell (see the
// mutable-NIL-trap resolution in DESIGN.md), so the returned head differs
// from the Nil passed in.
func (a *Arena) AssocSet(list Addr, name string, value Addr) (Addr, error) {
	var cur Cursor
	for node := a.Traverse(list, &cur); !a.IsNil(node); node = a.Traverse(list, &cur) {
		pair := a.Car(node)
		if SymEqual(a.SymOf(a.Car(pair)), name) {
			a.SetCdr(pair, value)
			return list, nil
		}
	}

	key, err := a.AllocSymbol(name)
	if err != nil {
		return Nil, err
	}
	pair, err := a.Cons(key, value)
	if err != nil {
		return Nil, err
	}
	node, err := a.Cons(pair, Nil)
	if err != nil {
		return Nil, err
	}

	if a.IsNil(list) {
		return node, nil
	}
	tail := list
	for !a.IsNil(a.Cdr(tail)) {
		tail = a.Cdr(tail)
	}
	a.SetCdr(tail, node)
	return list, nil
}

// AssocDel removes name's binding from list, if present, returning the
// possibly-new head and whether anything was removed.
func (a *Arena) AssocDel(list Addr, name string) (Addr, bool) {
	if a.IsNil(list) {
		return list, false
	}
	if SymEqual(a.SymOf(a.Car(a.Car(list))), name) {
		return a.Cdr(list), true
	}
	prev := list
	node := a.Cdr(list)
	for !a.IsNil(node) {
		if SymEqual(a.SymOf(a.Car(a.Car(node))), name) {
			a.SetCdr(prev, a.Cdr(node))
			return list, true
		}
		prev = node
		node = a.Cdr(node)
	}
	return list, false
}

// ConsList builds a proper list out of items, right to left, terminated by
// the canonical Nil — equivalent to repeated Push but batched into one
// call so builtins like list/mapcar don't need an explicit
// accumulator cell of their own.
func (a *Arena) ConsList(items []Addr) (Addr, error) {
	result := Addr(Nil)
	for i := len(items) - 1; i >= 0; i-- {
		var err error
		result, err = a.Cons(items[i], result)
		if err != nil {
			return Nil, err
		}
	}
	return result, nil
}

// ToSlice flattens a proper list into a Go slice of its elements.
func (a *Arena) ToSlice(list Addr) []Addr {
	var out []Addr
	var cur Cursor
	for node := a.Traverse(list, &cur); !a.IsNil(node); node = a.Traverse(list, &cur) {
		out = append(out, a.Car(node))
	}
	return out
}

// Push conses item onto the front of list, returning the new head. Unlike
// the reference interpreter's in-place Push, this never mutates list
// itself — see the mutable-NIL-trap resolution in DESIGN.md — so a caller
// that wants the binding it took list from to observe the push must
// explicitly rebind it (exactly the "push item list => new-list" contract
// spec.md documents for the builtin).
func (a *Arena) Push(item, list Addr) (Addr, error) {
	return a.Cons(item, list)
}

// Pop removes and returns the head element of a non-empty list, mutating
// list's cell in place to become its own cdr. Popping an empty list
// returns Nil without mutating anything, since list may denote the shared
// canonical empty cons.
func (a *Arena) Pop(list Addr) Addr {
	if a.IsNil(list) {
		return Nil
	}
	result := a.Car(list)
	next := a.Cdr(list)
	a.SetCar(list, a.Car(next))
	a.SetCdr(list, a.Cdr(next))
	return result
}
