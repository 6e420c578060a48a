package engine

import (
	"sort"
	"time"

	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/hardening"
	"github.com/sqldef/gridiff/modeldiff"
	"github.com/sqldef/gridiff/sink"
	"github.com/sqldef/gridiff/stringpool"
	"github.com/sqldef/gridiff/workbook"
)

// ProgressFunc is re-exported from hardening for callers that only need
// this package, not hardening directly.
type ProgressFunc = hardening.ProgressFunc

// Run performs a complete workbook diff (every sheet plus every auxiliary/
// model object) and streams the result into s, per spec §4.7's Sink
// contract and §5.1's ordering rules. pool must be the same StringPool that
// interned every Text/Formula StringId held by old and new's grids -- a
// Grid's cells are only meaningfully comparable (Cell.Equal, signatures,
// pool.Resolve) against IDs from the pool that produced them, so the two
// workbooks being compared and the pool given here must all come from one
// shared interning session (spec §9: "each diff owns its pool", read as
// "one pool per diff", not "one pool per side").
//
// Sheet ordering: sheets are emitted in the order they appear in new,
// each preceded by SheetAdded if it has no old-side counterpart; sheets
// present only in old are emitted last, as SheetRemoved (spec §5.1.1).
func Run(pool *stringpool.Pool, old, new *workbook.Workbook, cfg config.DiffConfig, s sink.Sink, progress ProgressFunc) (diffop.DiffSummary, error) {
	cache := formula.NewCache(pool)

	timeout := time.Duration(cfg.Hardening.TimeoutMs) * time.Millisecond
	hc := hardening.New(timeout, cfg.Hardening.MemoryCapBytes, 0, progress)

	var warnings []string
	complete := true
	var allOps []diffop.Op

	oldByName := make(map[string]workbook.Sheet, len(old.Sheets))
	for _, sh := range old.Sheets {
		oldByName[sh.Name] = sh
	}
	newByName := make(map[string]workbook.Sheet, len(new.Sheets))
	for _, sh := range new.Sheets {
		newByName[sh.Name] = sh
	}

	for _, sh := range new.Sheets {
		if hc.CheckTimeout(&warnings) {
			complete = false
			break
		}

		sheetID := pool.Intern(sh.Name)
		oldSheet, existed := oldByName[sh.Name]

		if !existed {
			allOps = append(allOps, diffop.NewSheetAdded(sheetID))
			allOps = append(allOps, positionalAgainstEmpty(sheetID, sh)...)
			continue
		}

		ops, err := DiffSheet(pool, cache, sh.Name, sheetID, oldSheet.Grid, sh.Grid, cfg, hc, &warnings)
		if err != nil {
			if _, ok := err.(*LimitsExceededError); ok {
				warnings = append(warnings, err.Error())
				complete = false
				continue
			}
			return diffop.DiffSummary{}, err
		}
		allOps = append(allOps, ops...)
	}

	// Sheets present only in old: SheetRemoved, emitted last (spec §5.1.1).
	var removedNames []string
	for name := range oldByName {
		if _, ok := newByName[name]; !ok {
			removedNames = append(removedNames, name)
		}
	}
	sort.Strings(removedNames)
	for _, name := range removedNames {
		allOps = append(allOps, diffop.NewSheetRemoved(pool.Intern(name)))
	}

	allOps = append(allOps, modeldiff.DiffVBAModules(pool, old.VBAModules, new.VBAModules)...)
	allOps = append(allOps, modeldiff.DiffNamedRanges(pool, old.NamedRanges, new.NamedRanges)...)
	allOps = append(allOps, modeldiff.DiffCharts(pool, old.Charts, new.Charts)...)
	allOps = append(allOps, modeldiff.DiffQueries(pool, old.Queries, new.Queries)...)
	allOps = append(allOps, modeldiff.DiffModel(pool, old.Model, new.Model)...)

	// Every string this diff will ever intern -- sheet names, cell text,
	// aux/model identifiers -- is now in the pool, so the header's string
	// table (spec §4.7) can be written accurately. Begin only now; both
	// buffered Sink implementations (VecSink, JSONLWriter) capture the
	// slice passed to Begin and don't re-read the pool later, so handing
	// them a growing slice before interning finished would silently drop
	// strings added afterward.
	guard := sink.NewFinishGuard(s)
	defer guard.Close()

	if err := s.Begin(pool.Strings()); err != nil {
		return diffop.DiffSummary{}, err
	}
	for _, op := range allOps {
		if err := s.Emit(op); err != nil {
			return diffop.DiffSummary{}, err
		}
	}
	if err := s.Finish(); err != nil {
		return diffop.DiffSummary{}, err
	}
	guard.Disarm()

	if len(warnings) > 0 {
		complete = false
	}

	return diffop.DiffSummary{Complete: complete, Warnings: warnings, OpCount: len(allOps)}, nil
}

// positionalAgainstEmpty reports a brand-new sheet as one RowAdded per row
// index of its grid, blank rows included, so a wholesale SheetAdded is
// followed by its rows; no cell-level diff is run.
func positionalAgainstEmpty(sheetID stringpool.StringId, sh workbook.Sheet) []diffop.Op {
	var ops []diffop.Op
	for row := uint32(0); row < sh.Grid.NRows(); row++ {
		ops = append(ops, diffop.RowAdded{Base: diffop.Base{SheetID: sheetID}, RowIdx: row})
	}
	return ops
}
