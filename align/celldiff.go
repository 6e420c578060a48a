package align

import (
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

// DiffCells emits one CellEdited per changed (and, if includeUnchanged,
// every populated) column of a matched (oldRow, newRow) pair, per spec
// §4.4.9. rowDelta/colDelta are the alignment offset applied when
// classifying each cell's formula for equivalence-modulo-shift; for a
// straightforward matched row pair rowDelta is newRow-oldRow and colDelta is
// 0, but the single-column alignment case (§4.4.7(c)) passes a non-zero
// colDelta too.
func DiffCells(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, oldRow, newRow uint32, rowDelta, colDelta int64, includeUnchanged bool) []diffop.Op {
	ncols := old.NCols()
	if new.NCols() > ncols {
		ncols = new.NCols()
	}
	return viewCellRange(pool, cache, sheet, old, new, oldRow, newRow, 0, ncols, rowDelta, colDelta, includeUnchanged)
}

// DiffCellRange is DiffCells restricted to columns [colStart, colEnd),
// exported for callers outside align that diff a known column subset
// directly (dbalign's key-column-skipping row comparison).
func DiffCellRange(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, oldRow, newRow, colStart, colEnd uint32, rowDelta, colDelta int64, includeUnchanged bool) []diffop.Op {
	return viewCellRange(pool, cache, sheet, old, new, oldRow, newRow, colStart, colEnd, rowDelta, colDelta, includeUnchanged)
}

// viewCellRange is DiffCells restricted to columns [colStart, colEnd),
// implemented by walking old/new's cached GridView rows rather than
// scanning every column in the range, so the work done is proportional to
// the row's populated cells (spec §64), not colEnd-colStart -- View is
// built once per grid and reused for every matched/positional row pair this
// Diff call touches (spec §27: GridView ──► GridDiffer). Every caller here
// is reached only once preflight has already decided the full/near-identical
// pipeline applies; the ShortCircuitDissimilar bailout path (spec property
// 6) uses the plain diffCellRange below instead, so it never builds a View.
func viewCellRange(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, oldRow, newRow uint32, colStart, colEnd uint32, rowDelta, colDelta int64, includeUnchanged bool) []diffop.Op {
	oldEntries := entriesInRange(old.View().Row(oldRow), colStart, colEnd)
	newEntries := entriesInRange(new.View().Row(newRow), colStart, colEnd)

	var ops []diffop.Op
	i, j := 0, 0
	for i < len(oldEntries) || j < len(newEntries) {
		var col uint32
		var oldCell, newCell grid.Cell
		var oldOk, newOk bool

		switch {
		case j >= len(newEntries) || (i < len(oldEntries) && oldEntries[i].Col < newEntries[j].Col):
			col, oldCell, oldOk = oldEntries[i].Col, oldEntries[i].Cell, true
			i++
		case i >= len(oldEntries) || newEntries[j].Col < oldEntries[i].Col:
			col, newCell, newOk = newEntries[j].Col, newEntries[j].Cell, true
			j++
		default:
			col, oldCell, oldOk = oldEntries[i].Col, oldEntries[i].Cell, true
			newCell, newOk = newEntries[j].Cell, true
			i++
			j++
		}

		if op, emit := cellDiffOp(pool, cache, sheet, newRow, col, oldCell, oldOk, newCell, newOk, rowDelta, colDelta, includeUnchanged); emit {
			ops = append(ops, op)
		}
	}
	return ops
}

// diffCellRange is viewCellRange's dense counterpart: it scans every column
// in [colStart, colEnd) via plain Get instead of consulting a GridView, so
// it never triggers View construction. PositionalDiff is the one caller
// that must stay this way -- it also backs preflight's ShortCircuitDissimilar
// bailout (spec property 6: the dissimilar-bailout path never builds a
// GridView), and PositionalDiff's own row/column scan is already bounded by
// the overlap rectangle, not by populated-cell count, so there is no
// sparsity win to give up here.
func diffCellRange(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, oldRow, newRow uint32, colStart, colEnd uint32, rowDelta, colDelta int64, includeUnchanged bool) []diffop.Op {
	var ops []diffop.Op
	for col := colStart; col < colEnd; col++ {
		oldCell, oldOk := old.Get(oldRow, col)
		newCell, newOk := new.Get(newRow, col)
		if op, emit := cellDiffOp(pool, cache, sheet, newRow, col, oldCell, oldOk, newCell, newOk, rowDelta, colDelta, includeUnchanged); emit {
			ops = append(ops, op)
		}
	}
	return ops
}

// entriesInRange filters a View.Row's column-sorted entries down to
// [colStart, colEnd), still in column order.
func entriesInRange(entries []grid.RowEntry, colStart, colEnd uint32) []grid.RowEntry {
	var out []grid.RowEntry
	for _, e := range entries {
		if e.Col >= colStart && e.Col < colEnd {
			out = append(out, e)
		}
	}
	return out
}

// cellDiffOp builds the CellEdited op for one (oldCell, newCell) pair at
// (newRow, col), or reports emit=false when the pair is unchanged and the
// caller doesn't want unchanged cells reported.
func cellDiffOp(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, newRow, col uint32, oldCell grid.Cell, oldOk bool, newCell grid.Cell, newOk bool, rowDelta, colDelta int64, includeUnchanged bool) (diffop.Op, bool) {
	unchanged := oldOk && newOk && oldCell.Equal(newCell)
	if unchanged && !includeUnchanged {
		return nil, false
	}

	addr := grid.Address{Row: newRow, Col: col}
	from := snapshot(addr, oldCell, oldOk)
	to := snapshot(addr, newCell, newOk)

	var oldText, newText *string
	if oldOk && oldCell.Formula != nil {
		s := pool.Resolve(*oldCell.Formula)
		oldText = &s
	}
	if newOk && newCell.Formula != nil {
		s := pool.Resolve(*newCell.Formula)
		newText = &s
	}

	var result formula.Result
	if unchanged {
		result = formula.Unchanged
	} else {
		result = formula.Classify(oldText, newText, rowDelta, colDelta)
		// Record both parses in the shared cache; Classify above parses on
		// its own and does not consult the cache.
		if cache != nil {
			if oldOk && oldCell.Formula != nil {
				cache.Parse(*oldCell.Formula)
			}
			if newOk && newCell.Formula != nil {
				cache.Parse(*newCell.Formula)
			}
		}
	}

	return diffop.CellEdited{
		Base:        diffop.Base{SheetID: sheet},
		Addr:        addr,
		From:        from,
		To:          to,
		FormulaDiff: toFormulaDiffKind(result),
	}, true
}

// diffColumnRange is diffCellRange's column-aligned dual, used by the
// single-column alignment special case (§4.4.7(c)): oldCol and newCol are
// fixed, rows [rowStart, rowEnd) are compared top to bottom. GridView only
// indexes rows, not columns, so there is no sparse index to consult here;
// this stays a dense row scan like diffCellRange.
func diffColumnRange(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, oldCol, newCol uint32, rowStart, rowEnd uint32, rowDelta, colDelta int64, includeUnchanged bool) []diffop.Op {
	var ops []diffop.Op
	for row := rowStart; row < rowEnd; row++ {
		oldCell, oldOk := old.Get(row, oldCol)
		newCell, newOk := new.Get(row, newCol)
		if op, emit := cellDiffOp(pool, cache, sheet, row, newCol, oldCell, oldOk, newCell, newOk, rowDelta, colDelta, includeUnchanged); emit {
			ops = append(ops, op)
		}
	}
	return ops
}

func snapshot(addr grid.Address, c grid.Cell, ok bool) diffop.CellSnapshot {
	if !ok {
		return diffop.CellSnapshot{Addr: addr}
	}
	snap := diffop.CellSnapshot{Addr: addr, Formula: c.Formula}
	if c.Value != nil {
		v := *c.Value
		snap.Value = &v
	}
	return snap
}

func toFormulaDiffKind(r formula.Result) diffop.FormulaDiffKind {
	switch r {
	case formula.Unchanged:
		return diffop.FormulaUnchanged
	case formula.Added:
		return diffop.FormulaAdded
	case formula.Removed:
		return diffop.FormulaRemoved
	case formula.FormattingOnly:
		return diffop.FormulaFormattingOnly
	case formula.Filled:
		return diffop.FormulaFilled
	case formula.SemanticChange:
		return diffop.FormulaSemanticChange
	case formula.TextChange:
		return diffop.FormulaTextChange
	default:
		return diffop.FormulaUnknown
	}
}
