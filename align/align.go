package align

import (
	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

// Diff runs the advanced alignment pipeline (spec §4.4.7/§4.4.8) over one
// sheet's grid pair and returns the resulting cell-level ops in the §5.1
// per-sheet emission order. It assumes the move-mask loop has already run
// and found nothing to mask off (callers with a non-empty grid.Mask diff the
// masked remainder through a different entry point; see movemask).
func Diff(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, cfg config.DiffConfig) []diffop.Op {
	th := DenseThresholds{
		RowReplaceRatio:    cfg.DenseRowReplaceRatio,
		RowReplaceMinCols:  cfg.DenseRowReplaceMinCols,
		RectReplaceMinRows: cfg.DenseRectReplaceMinRows,
		IncludeUnchanged:   cfg.IncludeUnchangedCells,
	}

	var ops []diffop.Op

	if old.NRows() == new.NRows() {
		if colOps, ok := tryColumnAligned(pool, cache, sheet, old, new, cfg, th); ok {
			ops = colOps
			sortBySheetOrder(ops)
			return ops
		}
	}

	p, ok := AlignRows(old, new, cfg.Alignment.MaxAlignRows)
	if !ok {
		ops = PositionalDiff(pool, cache, sheet, old, new, th)
		sortBySheetOrder(ops)
		return ops
	}

	ops = DiffMatchedRows(pool, cache, sheet, old, new, p.Matched, th)
	for _, newRow := range p.Inserted {
		ops = append(ops, diffop.RowAdded{Base: diffop.Base{SheetID: sheet}, RowIdx: newRow})
	}
	for _, oldRow := range p.Deleted {
		ops = append(ops, diffop.RowRemoved{Base: diffop.Base{SheetID: sheet}, RowIdx: oldRow})
	}

	sortBySheetOrder(ops)
	return ops
}

// tryColumnAligned implements spec §4.4.7(c): with row counts equal, prefer
// a column-wise alignment over the row-wise one when exactly one contiguous
// column block was inserted, removed, or moved. ok is false whenever the
// shape doesn't qualify (IsSingleColumnBlockChange), in which case
// the caller proceeds to ordinary row alignment.
func tryColumnAligned(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, cfg config.DiffConfig, th DenseThresholds) ([]diffop.Op, bool) {
	p, ok := AlignColumns(old, new, cfg.Alignment.MaxAlignCols)
	if !ok || !IsSingleColumnBlockChange(p) {
		return nil, false
	}

	nrows := old.NRows()
	var ops []diffop.Op
	for _, pair := range p.Matched {
		oldCol, newCol := pair[0], pair[1]
		colOps := diffColumnRange(pool, cache, sheet, old, new, oldCol, newCol, 0, nrows, 0, int64(newCol)-int64(oldCol), th.IncludeUnchanged)
		ops = append(ops, colOps...)
	}
	for _, newCol := range p.Inserted {
		ops = append(ops, diffop.ColumnAdded{Base: diffop.Base{SheetID: sheet}, ColIdx: newCol})
	}
	for _, oldCol := range p.Deleted {
		ops = append(ops, diffop.ColumnRemoved{Base: diffop.Base{SheetID: sheet}, ColIdx: oldCol})
	}
	return ops, true
}

func sortBySheetOrder(ops []diffop.Op) {
	diffop.SortBySheetOrder(ops)
}
