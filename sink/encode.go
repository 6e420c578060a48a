package sink

import (
	"fmt"
	"strings"

	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

func sid(id stringpool.StringId) uint64 { return uint64(id) }

func formulaDiffName(k diffop.FormulaDiffKind) string {
	switch k {
	case diffop.FormulaUnchanged:
		return "Unchanged"
	case diffop.FormulaAdded:
		return "Added"
	case diffop.FormulaRemoved:
		return "Removed"
	case diffop.FormulaFormattingOnly:
		return "FormattingOnly"
	case diffop.FormulaFilled:
		return "Filled"
	case diffop.FormulaSemanticChange:
		return "SemanticChange"
	case diffop.FormulaTextChange:
		return "TextChange"
	default:
		return "Unknown"
	}
}

func writeCellSnapshot(b *objBuilder, key string, snap diffop.CellSnapshot) *objBuilder {
	inner := newObjBuilder().Addr("addr", snap.Addr)
	if snap.Value != nil {
		switch snap.Value.Kind() {
		case grid.Number:
			inner.Float("number", snap.Value.Number())
		case grid.Text:
			inner.Uint("text", sid(snap.Value.TextID()))
		case grid.Bool:
			inner.Bool("bool", snap.Value.Bool())
		case grid.Error:
			inner.Uint("error", sid(snap.Value.TextID()))
		}
	}
	if snap.Formula != nil {
		inner.Uint("formula", sid(*snap.Formula))
	}
	return b.Raw(key, inner.String())
}

// encodeOp renders one DiffOp as a single-line JSON object, with keys in
// the fixed per-variant order spec §4.4.9 (and its siblings) require.
func encodeOp(op diffop.Op) (string, error) {
	b := newObjBuilder().Str("kind", op.Kind().String())

	switch v := op.(type) {
	case diffop.SheetAdded:
		b.Uint("sheet", sid(v.Sheet()))
	case diffop.SheetRemoved:
		b.Uint("sheet", sid(v.Sheet()))
	case diffop.CellEdited:
		b.Uint("sheet", sid(v.Sheet())).Addr("addr", v.Addr)
		writeCellSnapshot(b, "from", v.From)
		writeCellSnapshot(b, "to", v.To)
		b.Str("formula_diff", formulaDiffName(v.FormulaDiff))
	case diffop.RowAdded:
		b.Uint("sheet", sid(v.Sheet())).Uint("row", uint64(v.RowIdx))
	case diffop.RowRemoved:
		b.Uint("sheet", sid(v.Sheet())).Uint("row", uint64(v.RowIdx))
	case diffop.ColumnAdded:
		b.Uint("sheet", sid(v.Sheet())).Uint("col", uint64(v.ColIdx))
	case diffop.ColumnRemoved:
		b.Uint("sheet", sid(v.Sheet())).Uint("col", uint64(v.ColIdx))
	case diffop.RowReplaced:
		b.Uint("sheet", sid(v.Sheet())).Uint("row", uint64(v.RowIdx))
	case diffop.RectReplaced:
		b.Uint("sheet", sid(v.Sheet()))
		b.Uint("row_start", uint64(v.Rect.RowStart)).Uint("row_end", uint64(v.Rect.RowEnd))
		b.Uint("col_start", uint64(v.Rect.ColStart)).Uint("col_end", uint64(v.Rect.ColEnd))
	case diffop.BlockMovedRows:
		b.Uint("sheet", sid(v.Sheet()))
		b.Uint("src_start", uint64(v.SrcStart)).Uint("dst_start", uint64(v.DstStart)).Uint("count", uint64(v.Count))
	case diffop.BlockMovedCols:
		b.Uint("sheet", sid(v.Sheet()))
		b.Uint("src_start", uint64(v.SrcStart)).Uint("dst_start", uint64(v.DstStart)).Uint("count", uint64(v.Count))
	case diffop.BlockMovedRect:
		b.Uint("sheet", sid(v.Sheet()))
		b.Uint("src_row", uint64(v.SrcRow)).Uint("src_col", uint64(v.SrcCol))
		b.Uint("dst_row", uint64(v.DstRow)).Uint("dst_col", uint64(v.DstCol))
		b.Uint("rows", uint64(v.Rows)).Uint("cols", uint64(v.Cols))
	case diffop.DuplicateKeyCluster:
		b.Uint("sheet", sid(v.Sheet())).Uint("key", sid(v.KeyRepr))
		b.Raw("old_rows", encodeUintArray(v.OldRows))
		b.Raw("new_rows", encodeUintArray(v.NewRows))
	case diffop.VBAModuleAdded:
		b.Uint("module", sid(v.Module))
	case diffop.VBAModuleRemoved:
		b.Uint("module", sid(v.Module))
	case diffop.VBAModuleChanged:
		b.Uint("module", sid(v.Module))
	case diffop.NamedRangeAdded:
		b.Uint("name", sid(v.Name))
	case diffop.NamedRangeRemoved:
		b.Uint("name", sid(v.Name))
	case diffop.NamedRangeChanged:
		b.Uint("name", sid(v.Name))
	case diffop.ChartAdded:
		b.Uint("sheet", sid(v.Sheet())).Uint("name", sid(v.Name))
	case diffop.ChartRemoved:
		b.Uint("sheet", sid(v.Sheet())).Uint("name", sid(v.Name))
	case diffop.ChartChanged:
		b.Uint("sheet", sid(v.Sheet())).Uint("name", sid(v.Name))
	case diffop.QueryAdded:
		b.Uint("name", sid(v.Name))
	case diffop.QueryRemoved:
		b.Uint("name", sid(v.Name))
	case diffop.QueryRenamed:
		b.Uint("old_name", sid(v.OldName)).Uint("new_name", sid(v.NewName))
	case diffop.QueryStepAdded:
		b.Uint("query", sid(v.Query)).Uint("step", sid(v.Step))
	case diffop.QueryStepRemoved:
		b.Uint("query", sid(v.Query)).Uint("step", sid(v.Step))
	case diffop.QueryStepChanged:
		b.Uint("query", sid(v.Query)).Uint("step", sid(v.Step))
	case diffop.QueryMetadataChanged:
		b.Uint("query", sid(v.Query)).Uint("attr", sid(v.Attr))
		writeOptStringId(b, "old", v.Old)
		writeOptStringId(b, "new", v.New)
	case diffop.ModelTableAdded:
		b.Uint("table", sid(v.Table))
	case diffop.ModelTableRemoved:
		b.Uint("table", sid(v.Table))
	case diffop.ModelColumnAdded:
		b.Uint("table", sid(v.Table)).Uint("column", sid(v.Column))
	case diffop.ModelColumnRemoved:
		b.Uint("table", sid(v.Table)).Uint("column", sid(v.Column))
	case diffop.ModelColumnChanged:
		b.Uint("table", sid(v.Table)).Uint("column", sid(v.Column))
	case diffop.RelationshipAdded:
		b.Uint("from_table", sid(v.FromTable)).Uint("from_column", sid(v.FromColumn))
		b.Uint("to_table", sid(v.ToTable)).Uint("to_column", sid(v.ToColumn))
	case diffop.RelationshipRemoved:
		b.Uint("from_table", sid(v.FromTable)).Uint("from_column", sid(v.FromColumn))
		b.Uint("to_table", sid(v.ToTable)).Uint("to_column", sid(v.ToColumn))
	case diffop.MeasureAdded:
		b.Uint("table", sid(v.Table)).Uint("name", sid(v.Name))
	case diffop.MeasureRemoved:
		b.Uint("table", sid(v.Table)).Uint("name", sid(v.Name))
	case diffop.MeasureChanged:
		b.Uint("table", sid(v.Table)).Uint("name", sid(v.Name))
		b.Str("expression_diff", formulaDiffName(v.ExpressionDiff))
	default:
		return "", fmt.Errorf("sink: unhandled op kind %v", op.Kind())
	}

	return b.String(), nil
}

// writeOptStringId writes the explicit-null field class (spec §4.7):
// QueryMetadataChanged's old/new are part of the schema and always present
// as either a string-id integer or JSON null, never omitted.
func writeOptStringId(b *objBuilder, key string, id *stringpool.StringId) {
	if id == nil {
		b.Null(key)
		return
	}
	b.Uint(key, sid(*id))
}

func encodeUintArray(vals []uint32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", v)
	}
	sb.WriteByte(']')
	return sb.String()
}
