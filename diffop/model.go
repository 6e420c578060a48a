package diffop

import "github.com/sqldef/gridiff/stringpool"

// Power Query ops. Base.Sheet is unused for query-level ops (queries are
// workbook-scoped, not sheet-scoped) and carries the empty StringId; step
// ops key additionally on the owning query name.
type QueryAdded struct {
	Base
	Name stringpool.StringId
}

func (QueryAdded) Kind() Kind { return KindQueryAdded }

type QueryRemoved struct {
	Base
	Name stringpool.StringId
}

func (QueryRemoved) Kind() Kind { return KindQueryRemoved }

// QueryRenamed links an old query name to its new one when the rename
// detection heuristic (matching step sequences) identifies a match.
type QueryRenamed struct {
	Base
	OldName stringpool.StringId
	NewName stringpool.StringId
}

func (QueryRenamed) Kind() Kind { return KindQueryRenamed }

type QueryStepAdded struct {
	Base
	Query stringpool.StringId
	Step  stringpool.StringId
}

func (QueryStepAdded) Kind() Kind { return KindQueryStepAdded }

type QueryStepRemoved struct {
	Base
	Query stringpool.StringId
	Step  stringpool.StringId
}

func (QueryStepRemoved) Kind() Kind { return KindQueryStepRemoved }

type QueryStepChanged struct {
	Base
	Query stringpool.StringId
	Step  stringpool.StringId
}

func (QueryStepChanged) Kind() Kind { return KindQueryStepChanged }

// QueryMetadataChanged reports a change to a query-level attribute (e.g.
// load destination, refresh-on-open flag). Old/New are nil when the
// attribute was absent on that side, distinct from being present-but-empty
// (spec §4.7's explicit-null rule).
type QueryMetadataChanged struct {
	Base
	Query stringpool.StringId
	Attr  stringpool.StringId
	Old   *stringpool.StringId
	New   *stringpool.StringId
}

func (QueryMetadataChanged) Kind() Kind { return KindQueryMetadataChanged }

// Tabular model ops (Power BI data model: tables, columns, relationships,
// measures). All are workbook-scoped like queries.
type ModelTableAdded struct {
	Base
	Table stringpool.StringId
}

func (ModelTableAdded) Kind() Kind { return KindModelTableAdded }

type ModelTableRemoved struct {
	Base
	Table stringpool.StringId
}

func (ModelTableRemoved) Kind() Kind { return KindModelTableRemoved }

type ModelColumnAdded struct {
	Base
	Table  stringpool.StringId
	Column stringpool.StringId
}

func (ModelColumnAdded) Kind() Kind { return KindModelColumnAdded }

type ModelColumnRemoved struct {
	Base
	Table  stringpool.StringId
	Column stringpool.StringId
}

func (ModelColumnRemoved) Kind() Kind { return KindModelColumnRemoved }

type ModelColumnChanged struct {
	Base
	Table  stringpool.StringId
	Column stringpool.StringId
}

func (ModelColumnChanged) Kind() Kind { return KindModelColumnChanged }

// RelationshipAdded/Removed identify a relationship by its full
// from-table/from-column/to-table/to-column tuple, since relationships have
// no separate name in the tabular model.
type RelationshipAdded struct {
	Base
	FromTable, FromColumn stringpool.StringId
	ToTable, ToColumn     stringpool.StringId
}

func (RelationshipAdded) Kind() Kind { return KindRelationshipAdded }

type RelationshipRemoved struct {
	Base
	FromTable, FromColumn stringpool.StringId
	ToTable, ToColumn     stringpool.StringId
}

func (RelationshipRemoved) Kind() Kind { return KindRelationshipRemoved }

type MeasureAdded struct {
	Base
	Table stringpool.StringId
	Name  stringpool.StringId
}

func (MeasureAdded) Kind() Kind { return KindMeasureAdded }

type MeasureRemoved struct {
	Base
	Table stringpool.StringId
	Name  stringpool.StringId
}

func (MeasureRemoved) Kind() Kind { return KindMeasureRemoved }

// MeasureChanged reports a measure whose Expression differs under the
// formula canonicalizer, or whose display folder/format string changed.
type MeasureChanged struct {
	Base
	Table           stringpool.StringId
	Name            stringpool.StringId
	ExpressionDiff  FormulaDiffKind
}

func (MeasureChanged) Kind() Kind { return KindMeasureChanged }
