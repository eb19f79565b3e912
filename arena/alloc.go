package arena

import (
	"strconv"

	"github.com/pkg/errors"
)

// New creates an arena with room for capacity cells and a GC trigger
// threshold expressed as a fraction of capacity in (0, 1].
func New(capacity int, threshold float64) *Arena {
	if capacity < 1 {
		capacity = 1
	}
	a := &Arena{
		cells:     make([]Cell, capacity),
		next:      1,
		threshold: threshold,
	}
	for i := range a.cells {
		a.cells[i].Available = true
	}
	a.cells[0] = Cell{Kind: KindCons}
	a.cells[0].Available = false
	a.used = 1
	return a
}

// Capacity returns the arena's fixed cell count, address 0 included.
func (a *Arena) Capacity() int { return len(a.cells) }

// Used returns the number of cells currently allocated.
func (a *Arena) Used() int { return a.used }

// UsedPercent reports the arena's current occupancy as a 0-100 value.
func (a *Arena) UsedPercent() int {
	return a.used * 100 / len(a.cells)
}

func (a *Arena) alloc() (Addr, error) {
	n := Addr(len(a.cells))
	for i := Addr(0); i < n; i++ {
		idx := a.next
		a.next++
		if int(a.next) >= len(a.cells) {
			a.next = 1
		}
		if idx == Nil {
			continue
		}
		if a.cells[idx].Available {
			a.cells[idx].Available = false
			a.used++
			return idx, nil
		}
	}
	return Nil, errors.Errorf("memory exhausted: all %d cells in use", len(a.cells))
}

// AllocCons allocates a fresh cons cell with the given car/cdr.
func (a *Arena) AllocCons(car, cdr Addr) (Addr, error) {
	addr, err := a.alloc()
	if err != nil {
		return Nil, errors.Wrap(err, "alloc_cons")
	}
	a.cells[addr].Kind = KindCons
	a.cells[addr].Car = car
	a.cells[addr].Cdr = cdr
	return addr, nil
}

// Cons is shorthand for AllocCons, matching Lisp-side naming.
func (a *Arena) Cons(car, cdr Addr) (Addr, error) {
	return a.AllocCons(car, cdr)
}

// AllocNumber allocates a fresh cell holding an integer value.
func (a *Arena) AllocNumber(v int64) (Addr, error) {
	addr, err := a.alloc()
	if err != nil {
		return Nil, errors.Wrap(err, "alloc_number")
	}
	a.cells[addr].Kind = KindNumber
	a.cells[addr].Num = v
	return addr, nil
}

// AllocSymbol allocates a fresh cell for name, promoting it to a Number
// cell instead when name parses as a signed decimal integer — mirroring
// the reference interpreter's token-to-cell rule so "42" and "-7" never
// become distinct symbol identities.
func (a *Arena) AllocSymbol(name string) (Addr, error) {
	if v, ok := parseInteger(name); ok {
		return a.AllocNumber(v)
	}
	addr, err := a.alloc()
	if err != nil {
		return Nil, errors.Wrap(err, "alloc_symbol")
	}
	a.cells[addr].Kind = KindSymbol
	a.cells[addr].Sym = name
	return addr, nil
}

func parseInteger(s string) (int64, bool) {
	if s == "" || s == "+" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
