// Package movemask implements the move-mask detection loop (spec §4.4.5)
// and the masked-diff phase that follows it (spec §4.4.6): the central
// pipeline's way of recognizing that a rectangle, a run of rows, or a run
// of columns was relocated rather than deleted-and-reinserted, before the
// ordinary alignment passes ever see the remainder.
//
// Detect is only meaningful for equal-dimension grids; engine only calls it
// once the fast-path equality check and the dimension/memory gates have
// already passed.
package movemask

import (
	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

// Result is the outcome of the move-mask loop: the moves it found, emitted
// as ops already in their own fixed sub-order, plus the two masks left
// behind for the masked-diff phase. OldMask marks which old-side cells were
// attributed to a move (and so excluded from further diffing); NewMask is
// the new-side analogue.
type Result struct {
	Ops     []diffop.Op
	OldMask *grid.Mask
	NewMask *grid.Mask
}

// minNonBlankCells is the smallest number of non-blank cells a candidate
// rectangle/row-run/col-run must contain to count as a move. Without this
// floor, two all-blank regions would "match" trivially and the loop would
// spend its iteration budget relocating nothing.
const minNonBlankCells = 1

// Detect runs the move-mask loop (spec §4.4.5) over a pair of equal-
// dimension grids and returns the moves it found plus the resulting masks.
// It is a no-op (masks fully active, no ops) when either dimension exceeds
// cfg's detection bound, matching the config's role as a hard ceiling on
// how much move-detection work a single sheet may trigger.
func Detect(pool *stringpool.Pool, old, new *grid.Grid, cfg config.MovesConfig, sheet stringpool.StringId) Result {
	nrows, ncols := old.NRows(), old.NCols()
	oldMask := grid.NewMask(nrows, ncols)
	newMask := grid.NewMask(nrows, ncols)

	if int(nrows) > cfg.MaxMoveDetectionRows || int(ncols) > cfg.MaxMoveDetectionCols {
		return Result{OldMask: oldMask, NewMask: newMask}
	}

	var ops []diffop.Op
	iterations := cfg.MaxMoveIterations
	if iterations <= 0 {
		iterations = 1
	}

	for i := 0; i < iterations; i++ {
		if !oldMask.HasActiveCells() || !newMask.HasActiveCells() {
			break
		}

		if rect, ok := findRectangleMove(old, new, oldMask, newMask); ok {
			ops = append(ops, diffop.BlockMovedRect{
				Base:   diffop.Base{SheetID: sheet},
				SrcRow: rect.srcRow, SrcCol: rect.srcCol,
				DstRow: rect.dstRow, DstCol: rect.dstCol,
				Rows: rect.h, Cols: rect.w,
			})
			excludeRect(oldMask, rect.srcRow, rect.srcCol, rect.h, rect.w)
			excludeRect(newMask, rect.dstRow, rect.dstCol, rect.h, rect.w)

			// Swap partner: if the reverse rectangle (dst->src) also
			// content-matches, this was a true swap; attribute and mask
			// off the other half in the same iteration instead of hoping
			// a later iteration rediscovers it independently.
			if swapMatches(old, new, rect) {
				ops = append(ops, diffop.BlockMovedRect{
					Base:   diffop.Base{SheetID: sheet},
					SrcRow: rect.dstRow, SrcCol: rect.dstCol,
					DstRow: rect.srcRow, DstCol: rect.srcCol,
					Rows: rect.h, Cols: rect.w,
				})
				excludeRect(oldMask, rect.dstRow, rect.dstCol, rect.h, rect.w)
				excludeRect(newMask, rect.srcRow, rect.srcCol, rect.h, rect.w)
			}
			continue
		}

		if run, ok := findRowBlockMove(old, new, oldMask, newMask); ok {
			ops = append(ops, diffop.BlockMovedRows{
				Base: diffop.Base{SheetID: sheet}, SrcStart: run.srcStart, DstStart: run.dstStart, Count: run.count,
			})
			for k := uint32(0); k < run.count; k++ {
				oldMask.ExcludeRow(run.srcStart + k)
				newMask.ExcludeRow(run.dstStart + k)
			}
			continue
		}

		if run, ok := findColBlockMove(old, new, oldMask, newMask); ok {
			ops = append(ops, diffop.BlockMovedCols{
				Base: diffop.Base{SheetID: sheet}, SrcStart: run.srcStart, DstStart: run.dstStart, Count: run.count,
			})
			for k := uint32(0); k < run.count; k++ {
				oldMask.ExcludeCol(run.srcStart + k)
				newMask.ExcludeCol(run.dstStart + k)
			}
			continue
		}

		if cfg.EnableFuzzyMoves {
			if run, cellOps, ok := findFuzzyRowBlockMove(pool, old, new, oldMask, newMask, sheet); ok {
				ops = append(ops, diffop.BlockMovedRows{
					Base: diffop.Base{SheetID: sheet}, SrcStart: run.srcStart, DstStart: run.dstStart, Count: run.count,
				})
				ops = append(ops, cellOps...)
				for k := uint32(0); k < run.count; k++ {
					oldMask.ExcludeRow(run.srcStart + k)
					newMask.ExcludeRow(run.dstStart + k)
				}
				continue
			}
		}

		break
	}

	return Result{Ops: ops, OldMask: oldMask, NewMask: newMask}
}

func excludeRect(m *grid.Mask, row, col, h, w uint32) {
	m.ExcludeRect(grid.Rect{RowStart: row, RowEnd: row + h, ColStart: col, ColEnd: col + w})
}

type rectCandidate struct {
	srcRow, srcCol uint32
	dstRow, dstCol uint32
	h, w           uint32
}

// findRectangleMove looks for the largest rectangle active in oldMask at
// one position whose content is cell-equal to a rectangle active in
// newMask starting on a different row (spec §4.4.5 step 1); a rectangle
// that moved only sideways, staying on the same rows, is not found. It
// anchors on pairs of active rows with at least one matching cell and grows a
// column run, then a row run, from that anchor -- a bounded, not
// exhaustively-optimal search, adequate for the sheet sizes
// max_move_detection_rows/_cols permits.
func findRectangleMove(old, new *grid.Grid, oldMask, newMask *grid.Mask) (rectCandidate, bool) {
	oldRows := oldMask.ActiveRows()
	newRows := newMask.ActiveRows()

	var best rectCandidate
	bestArea := 0

	for _, r1 := range oldRows {
		for _, r2 := range newRows {
			if r1 == r2 {
				continue // only pairs of different rows are tried
			}
			for _, w := range matchingColumnRuns(old, new, oldMask, newMask, r1, r2) {
				h := growHeight(old, new, oldMask, newMask, r1, r2, w.col1, w.col2, w.width)
				if h == 0 {
					continue
				}
				area := int(h) * int(w.width)
				if area > bestArea && nonBlankCount(old, r1, w.col1, h, w.width) >= minNonBlankCells {
					bestArea = area
					best = rectCandidate{srcRow: r1, srcCol: w.col1, dstRow: r2, dstCol: w.col2, h: h, w: w.width}
				}
			}
		}
	}

	return best, bestArea > 0
}

type colRun struct {
	col1, col2 uint32
	width      uint32
}

// matchingColumnRuns finds every maximal run of columns starting at an
// active old-column c1 and active new-column c2 such that
// old.Get(r1,c1+k) == new.Get(r2,c2+k) for k in [0,width). It only reports
// runs anchored where the first cell pair is both active and non-blank, to
// keep the candidate set small.
func matchingColumnRuns(old, new *grid.Grid, oldMask, newMask *grid.Mask, r1, r2 uint32) []colRun {
	oldCols := oldMask.ActiveCols()
	newCols := newMask.ActiveCols()

	var runs []colRun
	seen := make(map[uint32]bool)
	for _, c1 := range oldCols {
		if seen[c1] {
			continue
		}
		oc, ok := old.Get(r1, c1)
		if !ok {
			continue
		}
		for _, c2 := range newCols {
			nc, ok := new.Get(r2, c2)
			if !ok || !oc.Equal(nc) {
				continue
			}
			width := uint32(0)
			for {
				oCell, oOk := old.Get(r1, c1+width)
				nCell, nOk := new.Get(r2, c2+width)
				if !oldMask.IsActive(r1, c1+width) || !newMask.IsActive(r2, c2+width) {
					break
				}
				if c1+width >= old.NCols() || c2+width >= new.NCols() {
					break
				}
				if oOk != nOk || (oOk && !oCell.Equal(nCell)) {
					break
				}
				width++
			}
			if width > 0 {
				runs = append(runs, colRun{col1: c1, col2: c2, width: width})
				for k := uint32(0); k < width; k++ {
					seen[c1+k] = true
				}
			}
		}
	}
	return runs
}

// growHeight extends a matched (r1,c1)-(r2,c2) column run of the given
// width downward while subsequent rows keep matching over that exact
// column range, stopping at the first mismatch, inactive cell, or grid
// edge.
func growHeight(old, new *grid.Grid, oldMask, newMask *grid.Mask, r1, r2, c1, c2, width uint32) uint32 {
	h := uint32(0)
	for {
		row1, row2 := r1+h, r2+h
		if row1 >= old.NRows() || row2 >= new.NRows() {
			break
		}
		if !rowsEqualOverRange(old, new, oldMask, newMask, row1, row2, c1, c2, width) {
			break
		}
		h++
	}
	return h
}

func rowsEqualOverRange(old, new *grid.Grid, oldMask, newMask *grid.Mask, row1, row2, c1, c2, width uint32) bool {
	for k := uint32(0); k < width; k++ {
		if !oldMask.IsActive(row1, c1+k) || !newMask.IsActive(row2, c2+k) {
			return false
		}
		oc, ok1 := old.Get(row1, c1+k)
		nc, ok2 := new.Get(row2, c2+k)
		if ok1 != ok2 {
			return false
		}
		if ok1 && !oc.Equal(nc) {
			return false
		}
	}
	return true
}

func nonBlankCount(g *grid.Grid, row, col, h, w uint32) int {
	n := 0
	for r := uint32(0); r < h; r++ {
		for c := uint32(0); c < w; c++ {
			if _, ok := g.Get(row+r, col+c); ok {
				n++
			}
		}
	}
	return n
}

// swapMatches reports whether the content at rect's dst position in old
// equals the content at rect's src position in new -- the signature of a
// true two-way swap rather than a one-way relocation.
func swapMatches(old, new *grid.Grid, rect rectCandidate) bool {
	for r := uint32(0); r < rect.h; r++ {
		for c := uint32(0); c < rect.w; c++ {
			oc, ok1 := old.Get(rect.dstRow+r, rect.dstCol+c)
			nc, ok2 := new.Get(rect.srcRow+r, rect.srcCol+c)
			if ok1 != ok2 {
				return false
			}
			if ok1 && !oc.Equal(nc) {
				return false
			}
		}
	}
	return true
}

type rowRun struct {
	srcStart, dstStart, count uint32
}

// findRowBlockMove looks for a run of consecutive active rows in old whose
// ordered signatures equal a run of consecutive active rows in new at a
// different position (spec §4.4.5 step 2), restricted to active columns.
func findRowBlockMove(old, new *grid.Grid, oldMask, newMask *grid.Mask) (rowRun, bool) {
	oldRows := oldMask.ActiveRows()
	newRows := newMask.ActiveRows()

	best := rowRun{}
	bestLen := uint32(0)

	for _, r1 := range oldRows {
		sig1 := maskedRowSignature(old, oldMask, r1)
		if sig1 == grid.Zero {
			continue
		}
		for _, r2 := range newRows {
			if r1 == r2 {
				continue
			}
			sig2 := maskedRowSignature(new, newMask, r2)
			if sig1 != sig2 {
				continue
			}
			count := uint32(1)
			for {
				a, b := r1+count, r2+count
				if a >= old.NRows() || b >= new.NRows() {
					break
				}
				sa := maskedRowSignature(old, oldMask, a)
				sb := maskedRowSignature(new, newMask, b)
				if sa != sb {
					break
				}
				count++
			}
			if count > bestLen {
				bestLen = count
				best = rowRun{srcStart: r1, dstStart: r2, count: count}
			}
		}
	}
	return best, bestLen > 0
}

// maskedRowSignature computes a row's commutative content signature
// restricted to columns still active in m, so a previously-excluded
// column (already attributed to an earlier move) doesn't block a later
// row-run match.
func maskedRowSignature(g *grid.Grid, m *grid.Mask, row uint32) grid.Signature {
	sig := grid.Zero
	for _, pc := range g.IterCells() {
		if pc.Addr.Row != row {
			continue
		}
		if !m.IsActive(row, pc.Addr.Col) {
			continue
		}
		sig = sig.Xor(singleCellSignature(pc.Addr.Col, pc.Cell))
	}
	return sig
}

// singleCellSignature is a lightweight per-cell hash of its own, not the
// xxhash-based one behind grid's RowSignature/ColSignature, so masked
// signatures are comparable only with each other. pos is the cell's column
// for a masked row signature and its row for a masked column signature. It
// is minimal (content-equality, not collision-proof) since it only needs to
// agree with itself across both grids here.
func singleCellSignature(pos uint32, c grid.Cell) grid.Signature {
	h := grid.Zero
	h.Hi ^= uint64(pos)*1099511628211 + 1
	if c.Value != nil {
		h.Hi ^= uint64(c.Value.Kind()) * 2654435761
		switch c.Value.Kind() {
		case grid.Number:
			h.Lo ^= mix(c.Value.Number())
		case grid.Text, grid.Error:
			h.Lo ^= uint64(c.Value.TextID()) * 40503
		case grid.Bool:
			if c.Value.Bool() {
				h.Lo ^= 0xB00
			}
		}
	}
	if c.Formula != nil {
		h.Lo ^= uint64(*c.Formula)*2246822519 + 0xF0
	}
	return h
}

func mix(f float64) uint64 {
	bits := int64ToUint(f)
	bits ^= bits >> 33
	bits *= 0xff51afd7ed558ccd
	bits ^= bits >> 33
	return bits
}

func int64ToUint(f float64) uint64 {
	return uint64(int64(f*1e6)) // coarse but stable across runs for our purposes
}

type colBlockRun struct {
	srcStart, dstStart, count uint32
}

// findColBlockMove is the column analogue of findRowBlockMove.
func findColBlockMove(old, new *grid.Grid, oldMask, newMask *grid.Mask) (colBlockRun, bool) {
	oldCols := oldMask.ActiveCols()
	newCols := newMask.ActiveCols()

	best := colBlockRun{}
	bestLen := uint32(0)

	for _, c1 := range oldCols {
		sig1 := maskedColSignature(old, oldMask, c1)
		if sig1 == grid.Zero {
			continue
		}
		for _, c2 := range newCols {
			if c1 == c2 {
				continue
			}
			sig2 := maskedColSignature(new, newMask, c2)
			if sig1 != sig2 {
				continue
			}
			count := uint32(1)
			for {
				a, b := c1+count, c2+count
				if a >= old.NCols() || b >= new.NCols() {
					break
				}
				sa := maskedColSignature(old, oldMask, a)
				sb := maskedColSignature(new, newMask, b)
				if sa != sb {
					break
				}
				count++
			}
			if count > bestLen {
				bestLen = count
				best = colBlockRun{srcStart: c1, dstStart: c2, count: count}
			}
		}
	}
	return best, bestLen > 0
}

func maskedColSignature(g *grid.Grid, m *grid.Mask, col uint32) grid.Signature {
	sig := grid.Zero
	for _, pc := range g.IterCells() {
		if pc.Addr.Col != col {
			continue
		}
		if !m.IsActive(pc.Addr.Row, col) {
			continue
		}
		sig = sig.Xor(singleCellSignature(pc.Addr.Row, pc.Cell))
	}
	return sig
}

// findFuzzyRowBlockMove allows an approximate row-run match (spec §4.4.5
// step 4, disabled by default per §9's open question): a run counts as
// moved if most cells across the run agree, and the residual differences
// are then emitted as ordinary CellEdited ops against the moved
// destination addresses.
func findFuzzyRowBlockMove(pool *stringpool.Pool, old, new *grid.Grid, oldMask, newMask *grid.Mask, sheet stringpool.StringId) (rowRun, []diffop.Op, bool) {
	const similarityThreshold = 0.7

	oldRows := oldMask.ActiveRows()
	newRows := newMask.ActiveRows()

	var best rowRun
	bestScore := -1.0

	for _, r1 := range oldRows {
		for _, r2 := range newRows {
			if r1 == r2 {
				continue
			}
			score := rowSimilarity(old, new, oldMask, newMask, r1, r2)
			if score >= similarityThreshold && score > bestScore {
				bestScore = score
				best = rowRun{srcStart: r1, dstStart: r2, count: 1}
			}
		}
	}

	if bestScore < 0 {
		return rowRun{}, nil, false
	}

	ncols := old.NCols()
	if new.NCols() > ncols {
		ncols = new.NCols()
	}
	var ops []diffop.Op
	for col := uint32(0); col < ncols; col++ {
		if !oldMask.IsActive(best.srcStart, col) || !newMask.IsActive(best.dstStart, col) {
			continue
		}
		oc, ok1 := old.Get(best.srcStart, col)
		nc, ok2 := new.Get(best.dstStart, col)
		if ok1 == ok2 && (!ok1 || oc.Equal(nc)) {
			continue
		}
		addr := grid.Address{Row: best.dstStart, Col: col}
		var oldText, newText *string
		if ok1 && oc.Formula != nil {
			s := pool.Resolve(*oc.Formula)
			oldText = &s
		}
		if ok2 && nc.Formula != nil {
			s := pool.Resolve(*nc.Formula)
			newText = &s
		}
		ops = append(ops, diffop.CellEdited{
			Base:        diffop.Base{SheetID: sheet},
			Addr:        addr,
			From:        cellSnapshot(addr, oc, ok1),
			To:          cellSnapshot(addr, nc, ok2),
			FormulaDiff: toFormulaDiffKind(formula.Classify(oldText, newText, int64(best.dstStart)-int64(best.srcStart), 0)),
		})
	}

	return best, ops, true
}

func rowSimilarity(old, new *grid.Grid, oldMask, newMask *grid.Mask, r1, r2 uint32) float64 {
	ncols := old.NCols()
	if new.NCols() > ncols {
		ncols = new.NCols()
	}
	total, match := 0, 0
	for col := uint32(0); col < ncols; col++ {
		if !oldMask.IsActive(r1, col) && !newMask.IsActive(r2, col) {
			continue
		}
		oc, ok1 := old.Get(r1, col)
		nc, ok2 := new.Get(r2, col)
		if !ok1 && !ok2 {
			continue
		}
		total++
		if ok1 == ok2 && (!ok1 || oc.Equal(nc)) {
			match++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(match) / float64(total)
}

func cellSnapshot(addr grid.Address, c grid.Cell, ok bool) diffop.CellSnapshot {
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

// MaskedDiff implements spec §4.4.6's equal-dimension-with-exclusions case:
// diff only cells still active in both masks. It reuses the ordinary cell
// comparison (no alignment, since the masks already encode which positions
// correspond) and attributes each changed cell to its own position --
// nothing here can be a move, since moves already consumed the mask.
func MaskedDiff(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, oldMask, newMask *grid.Mask, includeUnchanged bool) []diffop.Op {
	bounds, ok := oldMask.ShiftedBounds()
	if !ok {
		return nil
	}
	var ops []diffop.Op
	for row := bounds.RowStart; row < bounds.RowEnd; row++ {
		for col := bounds.ColStart; col < bounds.ColEnd; col++ {
			if !oldMask.IsActive(row, col) || !newMask.IsActive(row, col) {
				continue
			}
			oldCell, oldOk := old.Get(row, col)
			newCell, newOk := new.Get(row, col)
			if !oldOk && !newOk {
				continue
			}
			unchanged := oldOk && newOk && oldCell.Equal(newCell)
			if unchanged && !includeUnchanged {
				continue
			}

			addr := grid.Address{Row: row, Col: col}
			from := cellSnapshot(addr, oldCell, oldOk)
			to := cellSnapshot(addr, newCell, newOk)

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
				result = formula.Classify(oldText, newText, 0, 0)
				if cache != nil {
					if oldOk && oldCell.Formula != nil {
						cache.Parse(*oldCell.Formula)
					}
					if newOk && newCell.Formula != nil {
						cache.Parse(*newCell.Formula)
					}
				}
			}

			ops = append(ops, diffop.CellEdited{
				Base:        diffop.Base{SheetID: sheet},
				Addr:        addr,
				From:        from,
				To:          to,
				FormulaDiff: toFormulaDiffKind(result),
			})
		}
	}
	return ops
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
