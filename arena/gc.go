package arena

// ShouldCollect reports whether the arena's occupancy has crossed the
// configured trigger threshold; callers (the evaluator, the reader) check
// this at their own safe points rather than the arena forcing a collection
// mid-allocation.
func (a *Arena) ShouldCollect() bool {
	return float64(a.used)/float64(len(a.cells)) > a.threshold
}

// ForEach visits every currently allocated cell in address order, address
// 0 included — used by the dumpm diagnostic, not by the evaluator or
// collector themselves.
func (a *Arena) ForEach(fn func(addr Addr, c Cell)) {
	for i, c := range a.cells {
		if !c.Available {
			fn(Addr(i), c)
		}
	}
}

// GCRuns reports how many collections have run so far.
func (a *Arena) GCRuns() int { return a.gcRuns }

// LastMarked reports how many cells survived the most recent collection's
// mark phase.
func (a *Arena) LastMarked() int { return a.marked }

// TotalFreed reports the cumulative number of cells reclaimed across all
// collections.
func (a *Arena) TotalFreed() int64 { return a.freed }

// Collect runs a full mark/sweep pass: clear all marks, mark everything
// reachable from the five roots, sweep everything left unmarked back onto
// the free list. It never moves memory and never reclaims address 0.
func (a *Arena) Collect() {
	for i := range a.cells {
		a.cells[i].Mark = false
	}
	a.marked = 0

	a.mark(a.roots.defVars)
	a.mark(a.roots.defUns)
	a.mark(a.roots.tracedFuncs)
	for _, r := range a.roots.gcSafe {
		a.mark(r)
	}
	for _, r := range a.roots.returns {
		a.mark(r)
	}

	freed := a.sweep()
	a.freed += int64(freed)
	a.gcRuns++
	a.next = 1
}

func (a *Arena) mark(addr Addr) {
	c := &a.cells[addr]
	if c.Mark {
		return
	}
	c.Mark = true
	a.marked++
	if c.Kind != KindCons {
		return
	}
	// Address 0 is always live and never swept, whether it's reached here
	// as the car or the cdr of a proper list's terminal pair or as the
	// structural (0,0) NIL itself — so a 0 child needs no recursion, and a
	// nonzero sibling (e.g. a list's last element) still gets marked.
	if c.Car != Nil {
		a.mark(c.Car)
	}
	if c.Cdr != Nil {
		a.mark(c.Cdr)
	}
}

func (a *Arena) sweep() int {
	freed := 0
	for i := range a.cells {
		if i == int(Nil) {
			a.cells[i].Mark = false
			continue
		}
		if !a.cells[i].Available && !a.cells[i].Mark {
			a.cells[i] = Cell{Available: true}
			freed++
			continue
		}
		a.cells[i].Mark = false
	}
	a.used -= freed
	return freed
}
