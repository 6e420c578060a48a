package align

import (
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

// PositionalDiff implements spec §4.4.7(d), the fallback used once AMR and
// bounded LCS both decline (too many rows, no usable anchors): pair row i of
// old with row i of new for i in [0, min(nrows)), diff the overlap columns
// cell-by-cell, and attribute anything outside the overlap rectangle to
// whole row/column additions or removals rather than a flood of per-cell
// edits.
func PositionalDiff(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, th DenseThresholds) []diffop.Op {
	oldRows, newRows := old.NRows(), new.NRows()
	oldCols, newCols := old.NCols(), new.NCols()

	overlapRows := oldRows
	if newRows < overlapRows {
		overlapRows = newRows
	}
	overlapCols := oldCols
	if newCols < overlapCols {
		overlapCols = newCols
	}

	var out []diffop.Op
	var run []uint32

	flush := func() {
		if len(run) == 0 {
			return
		}
		if len(run) >= th.RectReplaceMinRows {
			out = append(out, diffop.RectReplaced{
				Base: diffop.Base{SheetID: sheet},
				Rect: grid.Rect{RowStart: run[0], RowEnd: run[len(run)-1] + 1, ColStart: 0, ColEnd: overlapCols},
			})
		} else {
			for _, r := range run {
				out = append(out, diffop.RowReplaced{Base: diffop.Base{SheetID: sheet}, RowIdx: r})
			}
		}
		run = nil
	}

	for row := uint32(0); row < overlapRows; row++ {
		cellOps := diffCellRange(pool, cache, sheet, old, new, row, row, 0, overlapCols, 0, 0, th.IncludeUnchanged)
		dense := len(cellOps) > 0 &&
			len(cellOps) >= th.RowReplaceMinCols &&
			float64(len(cellOps)) >= th.RowReplaceRatio*float64(overlapCols)
		if dense {
			run = append(run, row)
			continue
		}
		flush()
		out = append(out, cellOps...)
	}
	flush()

	for row := overlapRows; row < newRows; row++ {
		out = append(out, diffop.RowAdded{Base: diffop.Base{SheetID: sheet}, RowIdx: row})
	}
	for row := overlapRows; row < oldRows; row++ {
		out = append(out, diffop.RowRemoved{Base: diffop.Base{SheetID: sheet}, RowIdx: row})
	}
	for col := overlapCols; col < newCols; col++ {
		out = append(out, diffop.ColumnAdded{Base: diffop.Base{SheetID: sheet}, ColIdx: col})
	}
	for col := overlapCols; col < oldCols; col++ {
		out = append(out, diffop.ColumnRemoved{Base: diffop.Base{SheetID: sheet}, ColIdx: col})
	}

	return out
}
