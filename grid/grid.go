// Package grid implements the sparse two-dimensional cell store (spec §3,
// §4.2): Grid, Cell, CellValue, row/column content signatures, the
// read-only GridView index, and RegionMask.
package grid

import (
	"sort"

	"github.com/sqldef/gridiff/stringpool"
)

// Cell is an optional value plus an optional formula reference. A Cell with
// neither is semantically equivalent to absence (spec §3); Grid never
// stores such a cell.
type Cell struct {
	Value   *CellValue
	Formula *stringpool.StringId // interned raw formula text, without the leading '='
}

// IsEmpty reports whether c has neither a value nor a formula.
func (c Cell) IsEmpty() bool {
	return c.Value == nil && c.Formula == nil
}

// Equal reports whether c and other hold the same value and formula.
func (c Cell) Equal(other Cell) bool {
	if (c.Value == nil) != (other.Value == nil) {
		return false
	}
	if c.Value != nil && !c.Value.Equal(*other.Value) {
		return false
	}
	if (c.Formula == nil) != (other.Formula == nil) {
		return false
	}
	if c.Formula != nil && *c.Formula != *other.Formula {
		return false
	}
	return true
}

type cellKey struct {
	row, col uint32
}

// Grid is a rectangular, sparse mapping (row,col) -> Cell bounded by
// (nrows,ncols). A cell not present in the mapping is implicitly blank.
type Grid struct {
	nrows, ncols uint32
	cells        map[cellKey]Cell

	rowSigs []Signature // lazily built, invalidated by any mutation
	colSigs []Signature
	view    *View // lazily built, invalidated by any mutation
}

// New returns an empty grid with the given logical dimensions.
func New(nrows, ncols uint32) *Grid {
	return &Grid{
		nrows: nrows,
		ncols: ncols,
		cells: make(map[cellKey]Cell),
	}
}

// NRows and NCols return the grid's logical (possibly larger-than-populated)
// dimensions.
func (g *Grid) NRows() uint32 { return g.nrows }
func (g *Grid) NCols() uint32 { return g.ncols }

// Set stores a cell at (row,col), replacing anything stored there. Setting
// an empty cell (see Cell.IsEmpty) removes any stored entry, keeping the
// invariant that the map never holds an empty cell. Set invalidates any
// cached signatures.
func (g *Grid) Set(row, col uint32, c Cell) {
	g.rowSigs = nil
	g.colSigs = nil
	g.view = nil
	key := cellKey{row, col}
	if c.IsEmpty() {
		delete(g.cells, key)
		return
	}
	g.cells[key] = c
}

// Get returns the cell at (row,col) and whether one is stored there. A
// missing entry is implicitly blank.
func (g *Grid) Get(row, col uint32) (Cell, bool) {
	c, ok := g.cells[cellKey{row, col}]
	return c, ok
}

// CellCount returns the number of stored (non-blank) cells.
func (g *Grid) CellCount() int {
	return len(g.cells)
}

// PositionedCell pairs a Cell with its address, returned by IterCells in
// deterministic order.
type PositionedCell struct {
	Addr Address
	Cell Cell
}

// IterCells returns every stored cell sorted by (row, col). The sparse store
// itself is a Go map with no intrinsic order; this function is the single
// place that order is fixed, per spec §3's "implementations must fix a
// deterministic order" note. It is idempotent and safe to call repeatedly
// (restartable per spec §9).
func (g *Grid) IterCells() []PositionedCell {
	out := make([]PositionedCell, 0, len(g.cells))
	for k, c := range g.cells {
		out = append(out, PositionedCell{Addr: Address{Row: k.row, Col: k.col}, Cell: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Addr.Row != out[j].Addr.Row {
			return out[i].Addr.Row < out[j].Addr.Row
		}
		return out[i].Addr.Col < out[j].Addr.Col
	})
	return out
}

// CellsEqual compares g and other as multisets of (row,col,Cell), ignoring
// blanks. Dimensions are not compared; callers that care about dimension
// equality (the fast-path check in engine) check NRows/NCols separately.
func (g *Grid) CellsEqual(other *Grid) bool {
	if len(g.cells) != len(other.cells) {
		return false
	}
	for k, c := range g.cells {
		oc, ok := other.cells[k]
		if !ok || !c.Equal(oc) {
			return false
		}
	}
	return true
}
