// This file is part of simplisp.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package arena implements the cell arena and mark/sweep collector backing
// the evaluator: a fixed-capacity, address-indexed store of tagged cells
// (numbers, symbols, conses) plus the five process-wide root registers the
// collector traces from.
package arena

import "strings"

// Kind discriminates a Cell's payload.
type Kind uint8

const (
	KindNumber Kind = iota
	KindSymbol
	KindCons
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindSymbol:
		return "symbol"
	case KindCons:
		return "cons"
	default:
		return "?"
	}
}

// Addr indexes a live cell in the arena. Addr 0 names the canonical empty
// cons (NIL); it is always allocated and is never reclaimed.
type Addr uint32

// Nil is the canonical empty-list address.
const Nil Addr = 0

// Cell is the sole heap object; all cells are the same size regardless of
// Kind. Only the fields matching Kind are meaningful.
type Cell struct {
	Available bool
	Mark      bool
	Kind      Kind
	Num       int64
	Sym       string
	Car, Cdr  Addr
}

// SymEqual reports whether two symbol names denote the same symbol: symbols
// are not interned, so identity is case-insensitive name equality.
func SymEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Cell returns a copy of the cell at addr.
func (a *Arena) Cell(addr Addr) Cell { return a.cells[addr] }

// KindOf returns the Kind of the cell at addr.
func (a *Arena) KindOf(addr Addr) Kind { return a.cells[addr].Kind }

// Car returns the car field of the cons cell at addr.
func (a *Arena) Car(addr Addr) Addr { return a.cells[addr].Car }

// Cdr returns the cdr field of the cons cell at addr.
func (a *Arena) Cdr(addr Addr) Addr { return a.cells[addr].Cdr }

// NumOf returns the numeric value of the Number cell at addr.
func (a *Arena) NumOf(addr Addr) int64 { return a.cells[addr].Num }

// SymOf returns the name of the Symbol cell at addr.
func (a *Arena) SymOf(addr Addr) string { return a.cells[addr].Sym }

// SetCar mutates the car field of the cons cell at addr in place.
func (a *Arena) SetCar(addr, v Addr) { a.cells[addr].Car = v }

// SetCdr mutates the cdr field of the cons cell at addr in place.
func (a *Arena) SetCdr(addr, v Addr) { a.cells[addr].Cdr = v }

// IsNil reports whether addr is a cons cell whose car and cdr are both
// address 0 — the structural definition of the empty list. Any number of
// distinct addresses may satisfy this, not only address 0 itself.
func (a *Arena) IsNil(addr Addr) bool {
	c := a.cells[addr]
	return c.Kind == KindCons && c.Car == Nil && c.Cdr == Nil
}
