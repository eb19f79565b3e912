package arena

// roots bundles the five GC-traced root registers described in spec.md §3.
// DefVars, DefUns and TracedFuncs are ordinary association lists whose head
// address the arena is free to reassign (AssocSet returns a possibly new
// head instead of mutating a shared NIL cell — see list.go); GCSafe and
// Returns are Go-native stacks rather than cons-list encodings of a stack,
// since nothing outside the arena ever needs to address into them as cells.
type roots struct {
	defVars     Addr
	defUns      Addr
	tracedFuncs Addr
	gcSafe      []Addr
	returns     []Addr
}

// Arena is the fixed-capacity cell store plus the roots the collector
// traces from. The zero value is not usable; construct with New.
type Arena struct {
	cells     []Cell
	next      Addr
	used      int
	threshold float64

	gcRuns int
	marked int
	freed  int64

	roots roots

	diag func(string)
}

// SetDiagnostics installs the sink used for soft, non-fatal collector
// diagnostics. A nil sink discards them. Collect itself sends nothing to
// it: mark treats a 0 car or cdr as an ordinary list end, not as a
// malformed cons.
func (a *Arena) SetDiagnostics(f func(string)) { a.diag = f }

func (a *Arena) report(msg string) {
	if a.diag != nil {
		a.diag(msg)
	}
}

// DefVars returns the head of the global variable association list.
func (a *Arena) DefVars() Addr { return a.roots.defVars }

// SetDefVars replaces the global variable association list's head.
func (a *Arena) SetDefVars(v Addr) { a.roots.defVars = v }

// DefUns returns the head of the global function association list.
func (a *Arena) DefUns() Addr { return a.roots.defUns }

// SetDefUns replaces the global function association list's head.
func (a *Arena) SetDefUns(v Addr) { a.roots.defUns = v }

// TracedFuncs returns the head of the traced-function-names list.
func (a *Arena) TracedFuncs() Addr { return a.roots.tracedFuncs }

// SetTracedFuncs replaces the traced-function-names list's head.
func (a *Arena) SetTracedFuncs(v Addr) { a.roots.tracedFuncs = v }

// PinTemp protects addr from collection for the duration of the caller's
// stack frame; pair with UnpinTemp(1) in a defer. Used wherever a cell is
// held only in a local Go variable (not yet reachable from an env or a
// root) across a call that might trigger GC.
func (a *Arena) PinTemp(addr Addr) { a.roots.gcSafe = append(a.roots.gcSafe, addr) }

// UnpinTemp releases the last n pins installed by PinTemp.
func (a *Arena) UnpinTemp(n int) {
	k := len(a.roots.gcSafe) - n
	if k < 0 {
		k = 0
	}
	a.roots.gcSafe = a.roots.gcSafe[:k]
}

// PushReturn pushes an entry onto RETURNS: a placeholder when a loop block
// is entered, or the value of a (return ...) replacing that placeholder.
func (a *Arena) PushReturn(v Addr) { a.roots.returns = append(a.roots.returns, v) }

// PopReturn removes and returns the top RETURNS entry.
func (a *Arena) PopReturn() Addr {
	n := len(a.roots.returns)
	v := a.roots.returns[n-1]
	a.roots.returns = a.roots.returns[:n-1]
	return v
}

// ReturnDepth reports how many loop blocks that accept (return ...) are
// currently active, one RETURNS entry each.
func (a *Arena) ReturnDepth() int { return len(a.roots.returns) }
