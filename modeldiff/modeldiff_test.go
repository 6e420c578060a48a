package modeldiff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/modeldiff"
	"github.com/sqldef/gridiff/stringpool"
	"github.com/sqldef/gridiff/workbook"
)

func TestDiffVBAModulesAddedChangedRemoved(t *testing.T) {
	pool := stringpool.New()
	old := []workbook.VBAModule{
		{Name: "Module1", Code: "Sub A()\nEnd Sub"},
		{Name: "Module2", Code: "Sub B()\nEnd Sub"},
	}
	new_ := []workbook.VBAModule{
		{Name: "Module1", Code: "Sub A()\nEnd Sub"},
		{Name: "Module3", Code: "Sub C()\nEnd Sub"},
	}

	ops := modeldiff.DiffVBAModules(pool, old, new_)
	require.Len(t, ops, 2)

	_, added := ops[0].(diffop.VBAModuleAdded)
	require.True(t, added)
	_, removed := ops[1].(diffop.VBAModuleRemoved)
	require.True(t, removed)
}

func TestDiffVBAModuleChangedWhenCodeDiffers(t *testing.T) {
	pool := stringpool.New()
	old := []workbook.VBAModule{{Name: "Module1", Code: "old"}}
	new_ := []workbook.VBAModule{{Name: "Module1", Code: "new"}}

	ops := modeldiff.DiffVBAModules(pool, old, new_)
	require.Len(t, ops, 1)
	_, ok := ops[0].(diffop.VBAModuleChanged)
	require.True(t, ok)
}

func TestDiffNamedRangesScopesByOwningSheet(t *testing.T) {
	pool := stringpool.New()
	old := []workbook.NamedRange{
		{Name: "Foo", Scope: "", RefersTo: "Sheet1!$A$1"},
	}
	new_ := []workbook.NamedRange{
		{Name: "Foo", Scope: "", RefersTo: "Sheet1!$A$2"},
		{Name: "Foo", Scope: "Sheet2", RefersTo: "Sheet2!$B$1"},
	}

	ops := modeldiff.DiffNamedRanges(pool, old, new_)
	var changed, added int
	for _, op := range ops {
		switch op.(type) {
		case diffop.NamedRangeChanged:
			changed++
		case diffop.NamedRangeAdded:
			added++
		}
	}
	require.Equal(t, 1, changed)
	require.Equal(t, 1, added)
}

func TestDiffChartsReconcilesByNameAndSheet(t *testing.T) {
	pool := stringpool.New()
	old := []workbook.Chart{{Name: "Chart1", Sheet: "Sheet1", Definition: "v1"}}
	new_ := []workbook.Chart{{Name: "Chart1", Sheet: "Sheet1", Definition: "v2"}}

	ops := modeldiff.DiffCharts(pool, old, new_)
	require.Len(t, ops, 1)
	_, ok := ops[0].(diffop.ChartChanged)
	require.True(t, ok)
}

// TestDiffQueriesDetectsRenameByStepNameSequence is the QueryRenamed
// heuristic: a query gone from old and a differently-named one appearing in
// new, whose step name sequences match exactly, is a rename rather than a
// remove+add.
func TestDiffQueriesDetectsRenameByStepNameSequence(t *testing.T) {
	pool := stringpool.New()
	steps := []workbook.QueryStep{{Name: "Source", Text: "Csv.Document(...)"}, {Name: "FilteredRows", Text: "Table.SelectRows(...)"}}
	old := []workbook.Query{{Name: "RawSales", Steps: steps}}
	new_ := []workbook.Query{{Name: "Sales", Steps: steps}}

	ops := modeldiff.DiffQueries(pool, old, new_)
	require.Len(t, ops, 1)
	r, ok := ops[0].(diffop.QueryRenamed)
	require.True(t, ok, "expected QueryRenamed, got %#v", ops[0])
	require.Equal(t, pool.Resolve(r.OldName), "RawSales")
	require.Equal(t, pool.Resolve(r.NewName), "Sales")
}

func TestDiffQueriesWithoutMatchingStepsIsAddAndRemove(t *testing.T) {
	pool := stringpool.New()
	old := []workbook.Query{{Name: "Old", Steps: []workbook.QueryStep{{Name: "Source", Text: "a"}}}}
	new_ := []workbook.Query{{Name: "New", Steps: []workbook.QueryStep{{Name: "Source", Text: "a"}, {Name: "Extra", Text: "b"}}}}

	ops := modeldiff.DiffQueries(pool, old, new_)
	var added, removed int
	for _, op := range ops {
		switch op.(type) {
		case diffop.QueryAdded:
			added++
		case diffop.QueryRemoved:
			removed++
		}
	}
	require.Equal(t, 1, added)
	require.Equal(t, 1, removed)
}

func TestDiffQueryStepsAddedChangedRemoved(t *testing.T) {
	pool := stringpool.New()
	old := []workbook.Query{{
		Name: "Q1",
		Steps: []workbook.QueryStep{
			{Name: "Source", Text: "a"},
			{Name: "Old", Text: "b"},
		},
	}}
	new_ := []workbook.Query{{
		Name: "Q1",
		Steps: []workbook.QueryStep{
			{Name: "Source", Text: "a-changed"},
			{Name: "New", Text: "c"},
		},
	}}

	ops := modeldiff.DiffQueries(pool, old, new_)
	var changed, stepAdded, stepRemoved int
	for _, op := range ops {
		switch op.(type) {
		case diffop.QueryStepChanged:
			changed++
		case diffop.QueryStepAdded:
			stepAdded++
		case diffop.QueryStepRemoved:
			stepRemoved++
		}
	}
	require.Equal(t, 1, changed)
	require.Equal(t, 1, stepAdded)
	require.Equal(t, 1, stepRemoved)
}

func TestDiffModelTablesColumnsMeasuresRelationships(t *testing.T) {
	pool := stringpool.New()
	old := &workbook.Model{
		Tables: []workbook.ModelTable{
			{
				Name:    "Sales",
				Columns: []workbook.ModelColumn{{Name: "Amount", DataType: "int64"}},
				Measures: []workbook.Measure{
					{Name: "Total", Expression: "SUM(Sales[Amount])"},
				},
			},
		},
		Relationships: []workbook.Relationship{
			{FromTable: "Sales", FromColumn: "ProductID", ToTable: "Product", ToColumn: "ID"},
		},
	}
	new_ := &workbook.Model{
		Tables: []workbook.ModelTable{
			{
				Name:    "Sales",
				Columns: []workbook.ModelColumn{{Name: "Amount", DataType: "decimal"}},
				Measures: []workbook.Measure{
					{Name: "Total", Expression: "SUM(Sales[Amount]) * 2"},
				},
			},
			{Name: "Region"},
		},
		// Relationship removed entirely.
	}

	ops := modeldiff.DiffModel(pool, old, new_)

	var colChanged, measureChanged, tableAdded, relRemoved int
	for _, op := range ops {
		switch op.(type) {
		case diffop.ModelColumnChanged:
			colChanged++
		case diffop.MeasureChanged:
			measureChanged++
		case diffop.ModelTableAdded:
			tableAdded++
		case diffop.RelationshipRemoved:
			relRemoved++
		}
	}
	require.Equal(t, 1, colChanged)
	require.Equal(t, 1, measureChanged)
	require.Equal(t, 1, tableAdded)
	require.Equal(t, 1, relRemoved)
}

func TestDiffModelHandlesNilSides(t *testing.T) {
	pool := stringpool.New()
	ops := modeldiff.DiffModel(pool, nil, nil)
	require.Empty(t, ops)
}
