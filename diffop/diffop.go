// Package diffop defines the tagged union of change records the engine
// produces (spec §3's DiffOp) plus the DiffReport/DiffSummary result types.
// Every variant is a struct implementing the Op interface; there is no
// runtime type switch beyond the variant discriminant itself (spec §9).
package diffop

import (
	"sort"

	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

// Kind discriminates the ~30 DiffOp variants. Values are also used as the
// writer's dispatch key and (via sheetOrder) the per-sheet emission order
// required by spec §5.
type Kind int

const (
	KindSheetAdded Kind = iota
	KindSheetRemoved
	KindCellEdited
	KindRowAdded
	KindRowRemoved
	KindBlockMovedRows
	KindColumnAdded
	KindColumnRemoved
	KindBlockMovedCols
	KindBlockMovedRect
	KindRowReplaced
	KindRectReplaced
	KindDuplicateKeyCluster
	KindVBAModuleAdded
	KindVBAModuleRemoved
	KindVBAModuleChanged
	KindNamedRangeAdded
	KindNamedRangeRemoved
	KindNamedRangeChanged
	KindChartAdded
	KindChartRemoved
	KindChartChanged
	KindQueryAdded
	KindQueryRemoved
	KindQueryRenamed
	KindQueryStepAdded
	KindQueryStepRemoved
	KindQueryStepChanged
	KindQueryMetadataChanged
	KindModelTableAdded
	KindModelTableRemoved
	KindModelColumnAdded
	KindModelColumnRemoved
	KindModelColumnChanged
	KindRelationshipAdded
	KindRelationshipRemoved
	KindMeasureAdded
	KindMeasureRemoved
	KindMeasureChanged
)

// String renders the writer's "kind" tag for op, e.g. "CellEdited".
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

var kindNames = map[Kind]string{
	KindSheetAdded:           "SheetAdded",
	KindSheetRemoved:         "SheetRemoved",
	KindCellEdited:           "CellEdited",
	KindRowAdded:             "RowAdded",
	KindRowRemoved:           "RowRemoved",
	KindBlockMovedRows:       "BlockMovedRows",
	KindColumnAdded:          "ColumnAdded",
	KindColumnRemoved:        "ColumnRemoved",
	KindBlockMovedCols:       "BlockMovedCols",
	KindBlockMovedRect:       "BlockMovedRect",
	KindRowReplaced:          "RowReplaced",
	KindRectReplaced:         "RectReplaced",
	KindDuplicateKeyCluster:  "DuplicateKeyCluster",
	KindVBAModuleAdded:       "VBAModuleAdded",
	KindVBAModuleRemoved:     "VBAModuleRemoved",
	KindVBAModuleChanged:     "VBAModuleChanged",
	KindNamedRangeAdded:      "NamedRangeAdded",
	KindNamedRangeRemoved:    "NamedRangeRemoved",
	KindNamedRangeChanged:    "NamedRangeChanged",
	KindChartAdded:           "ChartAdded",
	KindChartRemoved:         "ChartRemoved",
	KindChartChanged:         "ChartChanged",
	KindQueryAdded:           "QueryAdded",
	KindQueryRemoved:         "QueryRemoved",
	KindQueryRenamed:         "QueryRenamed",
	KindQueryStepAdded:       "QueryStepAdded",
	KindQueryStepRemoved:     "QueryStepRemoved",
	KindQueryStepChanged:     "QueryStepChanged",
	KindQueryMetadataChanged: "QueryMetadataChanged",
	KindModelTableAdded:      "ModelTableAdded",
	KindModelTableRemoved:    "ModelTableRemoved",
	KindModelColumnAdded:     "ModelColumnAdded",
	KindModelColumnRemoved:   "ModelColumnRemoved",
	KindModelColumnChanged:   "ModelColumnChanged",
	KindRelationshipAdded:    "RelationshipAdded",
	KindRelationshipRemoved:  "RelationshipRemoved",
	KindMeasureAdded:         "MeasureAdded",
	KindMeasureRemoved:       "MeasureRemoved",
	KindMeasureChanged:       "MeasureChanged",
}

// sheetOrder is the per-sheet emission order required by spec §5.1: cell
// edits, row additions, row removals, row block moves, column additions,
// column removals, column block moves, rect moves, row/rect replacements.
// Everything else (aux objects, query/model ops) shares one rank after the
// grid ops; the stable sort keeps those ops in the order they were emitted.
var sheetOrder = map[Kind]int{
	KindCellEdited:     0,
	KindRowAdded:       1,
	KindRowRemoved:     2,
	KindBlockMovedRows: 3,
	KindColumnAdded:    4,
	KindColumnRemoved:  5,
	KindBlockMovedCols: 6,
	KindBlockMovedRect: 7,
	KindRowReplaced:    8,
	KindRectReplaced:   8,
}

// SheetOrderRank returns k's rank in the §5.1 emission order. Kinds not
// listed there (aux/model/query ops) rank after all grid ops but keep a
// stable relative order among themselves via a stable sort on the caller's
// side.
func SheetOrderRank(k Kind) int {
	if r, ok := sheetOrder[k]; ok {
		return r
	}
	return len(sheetOrder)
}

// SortBySheetOrder stable-sorts ops into the §5.1 per-sheet emission order,
// the single place every caller that assembles a mixed-kind op batch
// (align, movemask, engine) goes to get that order instead of each
// maintaining its own copy of the sort call.
func SortBySheetOrder(ops []Op) {
	sort.SliceStable(ops, func(i, j int) bool {
		return SheetOrderRank(ops[i].Kind()) < SheetOrderRank(ops[j].Kind())
	})
}

// Op is implemented by every DiffOp variant.
type Op interface {
	Kind() Kind
	Sheet() stringpool.StringId
}

// CellSnapshot captures a cell's value/formula at one side of an edit. Addr
// is always the *new*-side address (spec §4.4.9).
type CellSnapshot struct {
	Addr    grid.Address
	Value   *grid.CellValue
	Formula *stringpool.StringId
}

// Base is embedded by every variant to supply the common Sheet() accessor.
type Base struct {
	SheetID stringpool.StringId
}

func (b Base) Sheet() stringpool.StringId { return b.SheetID }

type SheetAdded struct {
	Base
}

func NewSheetAdded(sheet stringpool.StringId) SheetAdded {
	return SheetAdded{Base{sheet}}
}
func (SheetAdded) Kind() Kind { return KindSheetAdded }

type SheetRemoved struct {
	Base
}

func NewSheetRemoved(sheet stringpool.StringId) SheetRemoved {
	return SheetRemoved{Base{sheet}}
}
func (SheetRemoved) Kind() Kind { return KindSheetRemoved }

// FormulaDiffKind mirrors formula.Result without importing the formula
// package here (diffop is a leaf package the formula package does not need
// to depend on); align, movemask and modeldiff each convert between the two.
type FormulaDiffKind int

const (
	FormulaUnknown FormulaDiffKind = iota
	FormulaUnchanged
	FormulaAdded
	FormulaRemoved
	FormulaFormattingOnly
	FormulaFilled
	FormulaSemanticChange
	FormulaTextChange
)

type CellEdited struct {
	Base
	Addr        grid.Address
	From        CellSnapshot
	To          CellSnapshot
	FormulaDiff FormulaDiffKind
}

func (CellEdited) Kind() Kind { return KindCellEdited }

type RowAdded struct {
	Base
	RowIdx uint32
}

func (RowAdded) Kind() Kind { return KindRowAdded }

type RowRemoved struct {
	Base
	RowIdx uint32
}

func (RowRemoved) Kind() Kind { return KindRowRemoved }

type ColumnAdded struct {
	Base
	ColIdx uint32
}

func (ColumnAdded) Kind() Kind { return KindColumnAdded }

type ColumnRemoved struct {
	Base
	ColIdx uint32
}

func (ColumnRemoved) Kind() Kind { return KindColumnRemoved }

type RowReplaced struct {
	Base
	RowIdx uint32
}

func (RowReplaced) Kind() Kind { return KindRowReplaced }

type RectReplaced struct {
	Base
	Rect grid.Rect
}

func (RectReplaced) Kind() Kind { return KindRectReplaced }

type BlockMovedRows struct {
	Base
	SrcStart uint32
	DstStart uint32
	Count    uint32
}

func (BlockMovedRows) Kind() Kind { return KindBlockMovedRows }

type BlockMovedCols struct {
	Base
	SrcStart uint32
	DstStart uint32
	Count    uint32
}

func (BlockMovedCols) Kind() Kind { return KindBlockMovedCols }

type BlockMovedRect struct {
	Base
	SrcRow, SrcCol uint32
	DstRow, DstCol uint32
	Rows, Cols     uint32
}

func (BlockMovedRect) Kind() Kind { return KindBlockMovedRect }

// DuplicateKeyCluster reports a key that appeared more than once within a
// database-mode grid, grounding §4.5's "the whole mode fails with
// DuplicateKeys" decision as an observable op rather than a silent failure,
// so UI/audit consumers can see exactly which keys collided.
type DuplicateKeyCluster struct {
	Base
	KeyRepr stringpool.StringId
	OldRows []uint32
	NewRows []uint32
}

func (DuplicateKeyCluster) Kind() Kind { return KindDuplicateKeyCluster }
