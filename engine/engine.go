// Package engine is the top-level sheet-grid differ (spec §4.4): it wires
// together the fast-path equality check, the limit gate, the memory and
// signature preflights, the move-mask loop, and the advanced alignment
// pipeline into the single ordered cascade described at the top of §4.4,
// and layers the multi-sheet workbook ordering (spec §5.1) on top.
package engine

import (
	"fmt"

	"github.com/sqldef/gridiff/align"
	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/hardening"
	"github.com/sqldef/gridiff/movemask"
	"github.com/sqldef/gridiff/preflight"
	"github.com/sqldef/gridiff/stringpool"
)

// LimitsExceededError is returned when a sheet's dimensions exceed the
// configured alignment caps and hardening.on_limit_exceeded is
// ReturnError (spec §7's LimitsExceeded error kind).
type LimitsExceededError struct {
	Sheet            string
	Rows, Cols       uint32
	MaxRows, MaxCols int
}

func (e *LimitsExceededError) Error() string {
	return fmt.Sprintf("gridiff: sheet %q: dimensions %dx%d exceed alignment limits %dx%d",
		e.Sheet, e.Rows, e.Cols, e.MaxRows, e.MaxCols)
}

// memoryEstimate implements spec §9's conservative peak-memory bound:
// mem ~= 64*(nrows_old+nrows_new) + 48*cell_count + 16*(ncols_old+ncols_new).
func memoryEstimate(old, new *grid.Grid) int64 {
	rows := int64(old.NRows()) + int64(new.NRows())
	cols := int64(old.NCols()) + int64(new.NCols())
	cells := int64(old.CellCount()) + int64(new.CellCount())
	return 64*rows + 48*cells + 16*cols
}

func denseThresholds(cfg config.DiffConfig) align.DenseThresholds {
	return align.DenseThresholds{
		RowReplaceRatio:    cfg.DenseRowReplaceRatio,
		RowReplaceMinCols:  cfg.DenseRowReplaceMinCols,
		RectReplaceMinRows: cfg.DenseRectReplaceMinRows,
		IncludeUnchanged:   cfg.IncludeUnchangedCells,
	}
}

// DiffSheet runs the full §4.4 cascade over one sheet's grid pair and
// returns its ops, already sorted into the §5.1 per-sheet emission order.
// warnings accumulates any hardening/limit warnings produced along the way;
// it is owned by the caller so a multi-sheet diff can share one summary.
func DiffSheet(pool *stringpool.Pool, cache *formula.Cache, sheetName string, sheet stringpool.StringId, old, new *grid.Grid, cfg config.DiffConfig, hc *hardening.Controller, warnings *[]string) ([]diffop.Op, error) {
	th := denseThresholds(cfg)
	dimsEqual := old.NRows() == new.NRows() && old.NCols() == new.NCols()

	// §4.4.1 fast-path equality.
	if dimsEqual && old.CellsEqual(new) {
		return nil, nil
	}

	// §4.4.2 limit gate.
	maxRows, maxCols := cfg.Alignment.MaxAlignRows, cfg.Alignment.MaxAlignCols
	rows := maxU32(old.NRows(), new.NRows())
	cols := maxU32(old.NCols(), new.NCols())
	if int(rows) > maxRows || int(cols) > maxCols {
		switch cfg.Hardening.OnLimitExceeded {
		case config.OnLimitReturnError:
			return nil, &LimitsExceededError{Sheet: sheetName, Rows: rows, Cols: cols, MaxRows: maxRows, MaxCols: maxCols}
		case config.OnLimitReturnPartialResult:
			*warnings = append(*warnings, fmt.Sprintf("sheet %q: dimensions exceed alignment limits, falling back to positional diff", sheetName))
		}
		// SilentFallback and ReturnPartialResult both run the positional
		// diff; they differ only in whether a warning was appended above.
		ops := align.PositionalDiff(pool, cache, sheet, old, new, th)
		diffop.SortBySheetOrder(ops)
		return ops, nil
	}

	// §4.4.3 memory preflight, evaluated before any GridView/signature
	// structure is built.
	estimate := memoryEstimate(old, new)
	if hc.MemoryGuardOrWarn(estimate, warnings, fmt.Sprintf("sheet %q", sheetName)) {
		ops := align.PositionalDiff(pool, cache, sheet, old, new, th)
		diffop.SortBySheetOrder(ops)
		return ops, nil
	}

	if hc.CheckTimeout(warnings) {
		ops := align.PositionalDiff(pool, cache, sheet, old, new, th)
		diffop.SortBySheetOrder(ops)
		return ops, nil
	}

	hc.Progress("alignment", 0.1)

	if !dimsEqual {
		// §4.4.4-§4.4.6 only apply to equal-dimension grids; unequal
		// dimensions go straight to the advanced alignment pipeline,
		// which already falls back to positional diff internally when
		// neither AMR nor bounded LCS applies.
		ops := align.Diff(pool, cache, sheet, old, new, cfg)
		return ops, nil
	}

	// §4.4.4 signature-based preflight.
	pf := preflight.Classify(old, new, preflight.Thresholds{
		MinRows:              cfg.Preflight.PreflightMinRows,
		InOrderMismatchMax:   cfg.Preflight.InOrderMismatchMax,
		InOrderMatchRatioMin: cfg.Preflight.InOrderMatchRatioMin,
		BailoutSimilarity:    cfg.Preflight.BailoutSimilarityThreshold,
		MaxContextRows:       cfg.Preflight.MaxContextRows,
	})

	switch pf.Decision {
	case preflight.ShortCircuitDissimilar:
		ops := align.PositionalDiff(pool, cache, sheet, old, new, th)
		diffop.SortBySheetOrder(ops)
		return ops, nil
	case preflight.ShortCircuitNearIdentical:
		ops := nearIdenticalDiff(pool, cache, sheet, old, new, pf, cfg, th)
		diffop.SortBySheetOrder(ops)
		return ops, nil
	}

	// §4.4.5 move-mask detection loop.
	hc.Progress("move_detection", 0.3)
	mm := movemask.Detect(pool, old, new, cfg.Moves, sheet)

	var ops []diffop.Op
	ops = append(ops, mm.Ops...)

	hc.Progress("cell_diff", 0.6)
	if mm.OldMask.HasExclusions() || mm.NewMask.HasExclusions() {
		// §4.4.6 masked diff over whatever the move loop left behind.
		ops = append(ops, movemask.MaskedDiff(pool, cache, sheet, old, new, mm.OldMask, mm.NewMask, cfg.IncludeUnchangedCells)...)
	} else {
		// §4.4.7/§4.4.8 advanced alignment, no exclusions to respect.
		ops = append(ops, align.Diff(pool, cache, sheet, old, new, cfg)...)
	}

	diffop.SortBySheetOrder(ops)
	hc.Progress("cell_diff", 1.0)
	return ops, nil
}

// nearIdenticalDiff implements the ShortCircuitNearIdentical branch of
// §4.4.4: diff only the rows preflight flagged as mismatched, plus
// cfg.Preflight.MaxContextRows of padding on each side. The loop visits
// every row index but diffs only those rows; the rest are skipped.
func nearIdenticalDiff(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, pf preflight.Result, cfg config.DiffConfig, th align.DenseThresholds) []diffop.Op {
	nrows := old.NRows()
	context := uint32(cfg.Preflight.MaxContextRows)

	active := make(map[uint32]bool, len(pf.MismatchRows)*2)
	for _, r := range pf.MismatchRows {
		lo := uint32(0)
		if r > context {
			lo = r - context
		}
		hi := r + context
		if hi >= nrows {
			hi = nrows - 1
		}
		for row := lo; row <= hi; row++ {
			active[row] = true
		}
	}

	var ops []diffop.Op
	for row := uint32(0); row < nrows; row++ {
		if !active[row] {
			continue
		}
		ops = append(ops, align.DiffCells(pool, cache, sheet, old, new, row, row, 0, 0, th.IncludeUnchanged)...)
	}
	return ops
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
