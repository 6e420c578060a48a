package align

import (
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

// DenseThresholds bundles the subset of config.DiffConfig the dense-row/
// dense-rect coalescing pass needs, keeping align's public API free of a
// direct config import.
type DenseThresholds struct {
	RowReplaceRatio    float64
	RowReplaceMinCols  int
	RectReplaceMinRows int
	IncludeUnchanged   bool
}

// DiffMatchedRows walks p.Matched in new-row order, diffing each pair
// cell-by-cell and coalescing per spec §4.4.8: a row whose changed-cell
// count passes both the ratio and absolute-count thresholds collapses to a
// single RowReplaced, and a run of RowReplaced rows that stays contiguous on
// both sides (no row inserted, deleted, or moved between them) of height at
// least RectReplaceMinRows collapses further into one RectReplaced.
func DiffMatchedRows(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, matched [][2]uint32, th DenseThresholds) []diffop.Op {
	ncols := old.NCols()
	if new.NCols() > ncols {
		ncols = new.NCols()
	}

	var out []diffop.Op
	var run []uint32 // newRow indices of a contiguous dense run pending coalescing

	flush := func() {
		if len(run) == 0 {
			return
		}
		if len(run) >= th.RectReplaceMinRows {
			out = append(out, diffop.RectReplaced{
				Base: diffop.Base{SheetID: sheet},
				Rect: grid.Rect{RowStart: run[0], RowEnd: run[len(run)-1] + 1, ColStart: 0, ColEnd: ncols},
			})
		} else {
			for _, r := range run {
				out = append(out, diffop.RowReplaced{Base: diffop.Base{SheetID: sheet}, RowIdx: r})
			}
		}
		run = nil
	}

	var prevOld, prevNew uint32
	havePrev := false

	for _, pair := range matched {
		oldRow, newRow := pair[0], pair[1]
		contiguous := havePrev && oldRow == prevOld+1 && newRow == prevNew+1
		if !contiguous {
			flush()
		}

		cellOps := DiffCells(pool, cache, sheet, old, new, oldRow, newRow, int64(newRow)-int64(oldRow), 0, th.IncludeUnchanged)
		dense := len(cellOps) > 0 &&
			len(cellOps) >= th.RowReplaceMinCols &&
			float64(len(cellOps)) >= th.RowReplaceRatio*float64(ncols)

		if dense {
			run = append(run, newRow)
		} else {
			flush()
			out = append(out, cellOps...)
		}

		prevOld, prevNew = oldRow, newRow
		havePrev = true
	}
	flush()

	return out
}
