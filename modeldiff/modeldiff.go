// Package modeldiff diffs the workbook-scoped auxiliary objects and the
// Power BI tabular model (spec §4's "peripheral" query/model diff
// component, ~7% of the core): VBA modules, named ranges, charts, Power
// Query steps/metadata, and tabular-model tables/columns/relationships/
// measures. All ops it produces are workbook-scoped, not sheet-scoped, and
// reuse the "build key->value map on each side, partition into
// left-only/right-only/matched" shape of the teacher's
// Generator.generateDDLsForCreateTable column reconciliation loop
// (schema/generator.go).
package modeldiff

import (
	"sort"

	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/stringpool"
	"github.com/sqldef/gridiff/workbook"
)

// noSheet is the sentinel StringId every workbook-scoped op's Base.SheetID
// carries. Interning "" first (or re-interning it; Intern is idempotent)
// guarantees this resolves to the empty string regardless of call order.
func noSheet(pool *stringpool.Pool) stringpool.StringId {
	return pool.Intern("")
}

// DiffVBAModules reconciles two VBA projects by module name.
func DiffVBAModules(pool *stringpool.Pool, old, new []workbook.VBAModule) []diffop.Op {
	oldByName := make(map[string]workbook.VBAModule, len(old))
	for _, m := range old {
		oldByName[m.Name] = m
	}
	newByName := make(map[string]workbook.VBAModule, len(new))
	for _, m := range new {
		newByName[m.Name] = m
	}

	base := diffop.Base{SheetID: noSheet(pool)}
	var ops []diffop.Op
	for _, name := range sortedKeysVBA(newByName) {
		nm := newByName[name]
		if om, ok := oldByName[name]; !ok {
			ops = append(ops, diffop.VBAModuleAdded{Base: base, Module: pool.Intern(name)})
		} else if om.Code != nm.Code {
			ops = append(ops, diffop.VBAModuleChanged{Base: base, Module: pool.Intern(name)})
		}
	}
	for _, name := range sortedKeysVBA(oldByName) {
		if _, ok := newByName[name]; !ok {
			ops = append(ops, diffop.VBAModuleRemoved{Base: base, Module: pool.Intern(name)})
		}
	}
	return ops
}

func sortedKeysVBA(m map[string]workbook.VBAModule) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// namedRangeKey scopes a name by its owning sheet (workbook-scoped names
// use the empty scope), since the same name may legally exist at workbook
// scope and at sheet scope simultaneously.
func namedRangeKey(n workbook.NamedRange) string {
	return n.Scope + "\x00" + n.Name
}

// DiffNamedRanges reconciles two sets of defined names.
func DiffNamedRanges(pool *stringpool.Pool, old, new []workbook.NamedRange) []diffop.Op {
	oldByKey := make(map[string]workbook.NamedRange, len(old))
	for _, n := range old {
		oldByKey[namedRangeKey(n)] = n
	}
	newByKey := make(map[string]workbook.NamedRange, len(new))
	for _, n := range new {
		newByKey[namedRangeKey(n)] = n
	}

	base := diffop.Base{SheetID: noSheet(pool)}
	var ops []diffop.Op
	for _, key := range sortedKeys(oldByKey, newByKey) {
		on, oldOk := oldByKey[key]
		nn, newOk := newByKey[key]
		switch {
		case !oldOk && newOk:
			ops = append(ops, diffop.NamedRangeAdded{Base: base, Name: pool.Intern(nn.Name)})
		case oldOk && !newOk:
			ops = append(ops, diffop.NamedRangeRemoved{Base: base, Name: pool.Intern(on.Name)})
		case oldOk && newOk && on.RefersTo != nn.RefersTo:
			ops = append(ops, diffop.NamedRangeChanged{Base: base, Name: pool.Intern(nn.Name)})
		}
	}
	return ops
}

func chartKey(c workbook.Chart) string {
	return c.Sheet + "\x00" + c.Name
}

// DiffCharts reconciles two sets of charts, keyed by (sheet, chart name).
func DiffCharts(pool *stringpool.Pool, old, new []workbook.Chart) []diffop.Op {
	oldByKey := make(map[string]workbook.Chart, len(old))
	for _, c := range old {
		oldByKey[chartKey(c)] = c
	}
	newByKey := make(map[string]workbook.Chart, len(new))
	for _, c := range new {
		newByKey[chartKey(c)] = c
	}

	base := diffop.Base{SheetID: noSheet(pool)}
	var ops []diffop.Op
	for _, key := range sortedKeys(oldByKey, newByKey) {
		oc, oldOk := oldByKey[key]
		nc, newOk := newByKey[key]
		switch {
		case !oldOk && newOk:
			ops = append(ops, diffop.ChartAdded{Base: base, Name: pool.Intern(nc.Name)})
		case oldOk && !newOk:
			ops = append(ops, diffop.ChartRemoved{Base: base, Name: pool.Intern(oc.Name)})
		case oldOk && newOk && oc.Definition != nc.Definition:
			ops = append(ops, diffop.ChartChanged{Base: base, Name: pool.Intern(nc.Name)})
		}
	}
	return ops
}

// sortedKeys returns the union of a and b's keys, ordered by anyLess. It is
// generic over key and value types and is used by DiffNamedRanges,
// DiffCharts and diffRelationships.
func sortedKeys[K comparable, V any](a, b map[K]V) []K {
	seen := make(map[K]bool, len(a)+len(b))
	var keys []K
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return anyLess(keys[i], keys[j])
	})
	return keys
}

func anyLess(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return false
}

// DiffQueries reconciles Power Query queries by name, with a rename
// heuristic (spec §4's QueryRenamed): a query present only in old and one
// present only in new are treated as a rename, not an add+remove, if their
// step-name sequences match exactly.
func DiffQueries(pool *stringpool.Pool, old, new []workbook.Query) []diffop.Op {
	oldByName := make(map[string]workbook.Query, len(old))
	for _, q := range old {
		oldByName[q.Name] = q
	}
	newByName := make(map[string]workbook.Query, len(new))
	for _, q := range new {
		newByName[q.Name] = q
	}

	base := diffop.Base{SheetID: noSheet(pool)}
	var ops []diffop.Op

	var leftOnly, rightOnly []string
	for name := range oldByName {
		if _, ok := newByName[name]; !ok {
			leftOnly = append(leftOnly, name)
		}
	}
	for name := range newByName {
		if _, ok := oldByName[name]; !ok {
			rightOnly = append(rightOnly, name)
		}
	}
	sort.Strings(leftOnly)
	sort.Strings(rightOnly)

	renamedOld := make(map[string]bool)
	renamedNew := make(map[string]bool)
	for _, on := range leftOnly {
		for _, nn := range rightOnly {
			if renamedNew[nn] {
				continue
			}
			if stepNamesEqual(oldByName[on].Steps, newByName[nn].Steps) {
				ops = append(ops, diffop.QueryRenamed{Base: base, OldName: pool.Intern(on), NewName: pool.Intern(nn)})
				renamedOld[on] = true
				renamedNew[nn] = true
				break
			}
		}
	}

	for _, name := range sortedQueryNames(newByName) {
		if renamedNew[name] {
			continue
		}
		nq, newOk := newByName[name]
		oq, oldOk := oldByName[name]
		if !oldOk {
			if newOk {
				ops = append(ops, diffop.QueryAdded{Base: base, Name: pool.Intern(name)})
			}
			continue
		}
		ops = append(ops, diffQuerySteps(pool, base, name, oq, nq)...)
	}
	for _, name := range sortedQueryNames(oldByName) {
		if renamedOld[name] {
			continue
		}
		if _, ok := newByName[name]; !ok {
			ops = append(ops, diffop.QueryRemoved{Base: base, Name: pool.Intern(name)})
		}
	}

	return ops
}

func sortedQueryNames(m map[string]workbook.Query) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stepNamesEqual(a, b []workbook.QueryStep) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// diffQuerySteps diffs one query's steps, matched by step name (a step's
// position in the list is not compared), and its metadata attribute map.
func diffQuerySteps(pool *stringpool.Pool, base diffop.Base, name string, oq, nq workbook.Query) []diffop.Op {
	queryID := pool.Intern(name)
	oldByStep := make(map[string]workbook.QueryStep, len(oq.Steps))
	for _, s := range oq.Steps {
		oldByStep[s.Name] = s
	}
	newByStep := make(map[string]workbook.QueryStep, len(nq.Steps))
	for _, s := range nq.Steps {
		newByStep[s.Name] = s
	}

	var ops []diffop.Op
	for _, s := range nq.Steps {
		os, ok := oldByStep[s.Name]
		switch {
		case !ok:
			ops = append(ops, diffop.QueryStepAdded{Base: base, Query: queryID, Step: pool.Intern(s.Name)})
		case os.Text != s.Text:
			ops = append(ops, diffop.QueryStepChanged{Base: base, Query: queryID, Step: pool.Intern(s.Name)})
		}
	}
	for _, s := range oq.Steps {
		if _, ok := newByStep[s.Name]; !ok {
			ops = append(ops, diffop.QueryStepRemoved{Base: base, Query: queryID, Step: pool.Intern(s.Name)})
		}
	}

	for _, attr := range sortedMetaKeys(oq.Metadata, nq.Metadata) {
		ov, oldOk := oq.Metadata[attr]
		nv, newOk := nq.Metadata[attr]
		if oldOk == newOk && ov == nv {
			continue
		}
		var oldID, newID *stringpool.StringId
		if oldOk {
			id := pool.Intern(ov)
			oldID = &id
		}
		if newOk {
			id := pool.Intern(nv)
			newID = &id
		}
		ops = append(ops, diffop.QueryMetadataChanged{Base: base, Query: queryID, Attr: pool.Intern(attr), Old: oldID, New: newID})
	}
	return ops
}

func sortedMetaKeys(a, b map[string]string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var keys []string
	for k := range a {
		seen[k] = true
		keys = append(keys, k)
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// DiffModel reconciles the tabular model's tables, columns, relationships,
// and measures. Either side may be nil (no Power BI model present).
func DiffModel(pool *stringpool.Pool, old, new *workbook.Model) []diffop.Op {
	var oldTables, newTables []workbook.ModelTable
	if old != nil {
		oldTables = old.Tables
	}
	if new != nil {
		newTables = new.Tables
	}

	oldByName := make(map[string]workbook.ModelTable, len(oldTables))
	for _, t := range oldTables {
		oldByName[t.Name] = t
	}
	newByName := make(map[string]workbook.ModelTable, len(newTables))
	for _, t := range newTables {
		newByName[t.Name] = t
	}

	base := diffop.Base{SheetID: noSheet(pool)}
	var ops []diffop.Op

	for _, name := range sortedTableNames(newByName) {
		nt := newByName[name]
		ot, ok := oldByName[name]
		tableID := pool.Intern(name)
		if !ok {
			ops = append(ops, diffop.ModelTableAdded{Base: base, Table: tableID})
			continue
		}
		ops = append(ops, diffTableColumns(pool, base, tableID, ot, nt)...)
		ops = append(ops, diffTableMeasures(pool, base, tableID, ot, nt)...)
	}
	for _, name := range sortedTableNames(oldByName) {
		if _, ok := newByName[name]; !ok {
			ops = append(ops, diffop.ModelTableRemoved{Base: base, Table: pool.Intern(name)})
		}
	}

	var oldRels, newRels []workbook.Relationship
	if old != nil {
		oldRels = old.Relationships
	}
	if new != nil {
		newRels = new.Relationships
	}
	ops = append(ops, diffRelationships(pool, base, oldRels, newRels)...)

	return ops
}

func sortedTableNames(m map[string]workbook.ModelTable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func diffTableColumns(pool *stringpool.Pool, base diffop.Base, tableID stringpool.StringId, ot, nt workbook.ModelTable) []diffop.Op {
	oldByName := make(map[string]workbook.ModelColumn, len(ot.Columns))
	for _, c := range ot.Columns {
		oldByName[c.Name] = c
	}
	newByName := make(map[string]workbook.ModelColumn, len(nt.Columns))
	for _, c := range nt.Columns {
		newByName[c.Name] = c
	}

	var ops []diffop.Op
	for _, c := range nt.Columns {
		oc, ok := oldByName[c.Name]
		switch {
		case !ok:
			ops = append(ops, diffop.ModelColumnAdded{Base: base, Table: tableID, Column: pool.Intern(c.Name)})
		case oc.DataType != c.DataType:
			ops = append(ops, diffop.ModelColumnChanged{Base: base, Table: tableID, Column: pool.Intern(c.Name)})
		}
	}
	for _, c := range ot.Columns {
		if _, ok := newByName[c.Name]; !ok {
			ops = append(ops, diffop.ModelColumnRemoved{Base: base, Table: tableID, Column: pool.Intern(c.Name)})
		}
	}
	return ops
}

func diffTableMeasures(pool *stringpool.Pool, base diffop.Base, tableID stringpool.StringId, ot, nt workbook.ModelTable) []diffop.Op {
	oldByName := make(map[string]workbook.Measure, len(ot.Measures))
	for _, m := range ot.Measures {
		oldByName[m.Name] = m
	}
	newByName := make(map[string]workbook.Measure, len(nt.Measures))
	for _, m := range nt.Measures {
		newByName[m.Name] = m
	}

	var ops []diffop.Op
	for _, m := range nt.Measures {
		om, ok := oldByName[m.Name]
		if !ok {
			ops = append(ops, diffop.MeasureAdded{Base: base, Table: tableID, Name: pool.Intern(m.Name)})
			continue
		}
		if om.Expression == m.Expression && om.FormatString == m.FormatString && om.DisplayFolder == m.DisplayFolder {
			continue
		}
		oldText, newText := om.Expression, m.Expression
		ops = append(ops, diffop.MeasureChanged{
			Base:           base,
			Table:          tableID,
			Name:           pool.Intern(m.Name),
			ExpressionDiff: toFormulaDiffKind(formula.Classify(&oldText, &newText, 0, 0)),
		})
	}
	for _, m := range ot.Measures {
		if _, ok := newByName[m.Name]; !ok {
			ops = append(ops, diffop.MeasureRemoved{Base: base, Table: tableID, Name: pool.Intern(m.Name)})
		}
	}
	return ops
}

func toFormulaDiffKind(r formula.Result) diffop.FormulaDiffKind {
	switch r {
	case formula.Unchanged:
		return diffop.FormulaUnchanged
	case formula.FormattingOnly:
		return diffop.FormulaFormattingOnly
	case formula.SemanticChange:
		return diffop.FormulaSemanticChange
	case formula.TextChange:
		return diffop.FormulaTextChange
	default:
		return diffop.FormulaUnknown
	}
}

func relKey(r workbook.Relationship) string {
	return r.FromTable + "\x00" + r.FromColumn + "\x00" + r.ToTable + "\x00" + r.ToColumn
}

func diffRelationships(pool *stringpool.Pool, base diffop.Base, old, new []workbook.Relationship) []diffop.Op {
	oldByKey := make(map[string]workbook.Relationship, len(old))
	for _, r := range old {
		oldByKey[relKey(r)] = r
	}
	newByKey := make(map[string]workbook.Relationship, len(new))
	for _, r := range new {
		newByKey[relKey(r)] = r
	}

	var ops []diffop.Op
	for _, key := range sortedKeys(oldByKey, newByKey) {
		_, oldOk := oldByKey[key]
		nr, newOk := newByKey[key]
		if oldOk && newOk {
			continue
		}
		if newOk {
			ops = append(ops, diffop.RelationshipAdded{
				Base: base,
				FromTable: pool.Intern(nr.FromTable), FromColumn: pool.Intern(nr.FromColumn),
				ToTable: pool.Intern(nr.ToTable), ToColumn: pool.Intern(nr.ToColumn),
			})
			continue
		}
		or := oldByKey[key]
		ops = append(ops, diffop.RelationshipRemoved{
			Base: base,
			FromTable: pool.Intern(or.FromTable), FromColumn: pool.Intern(or.FromColumn),
			ToTable: pool.Intern(or.ToTable), ToColumn: pool.Intern(or.ToColumn),
		})
	}
	return ops
}
