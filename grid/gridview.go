package grid

import "sort"

// viewBuildCount is a test-only global build counter (spec §3: "A global
// build counter (optional, test-only) supports asserting that preflight
// short-circuits skip view construction"). It is only ever read/reset from
// tests; production code never inspects it.
var viewBuildCount int

// ResetViewBuildCount zeroes the test-only build counter. Call at the start
// of a test that asserts a particular number of GridView constructions.
func ResetViewBuildCount() { viewBuildCount = 0 }

// ViewBuildCount reports how many GridViews have been constructed since the
// last reset.
func ViewBuildCount() int { return viewBuildCount }

// RowEntry is one non-blank cell within a GridView row, paired with its
// column.
type RowEntry struct {
	Col  uint32
	Cell Cell
}

// View is a derived, read-only sparse index: for each populated row, a
// column-sorted slice of its non-blank cells. It lets row-diff run in time
// proportional to actual populated columns rather than the logical
// rectangle (spec §3).
type View struct {
	rows map[uint32][]RowEntry
}

// View returns g's cached GridView, building it on first use and reusing it
// across every subsequent call for the lifetime of g (invalidated, like
// rowSigs/colSigs, by Set). Row-level cell diffing calls this once per grid
// per Diff and then walks View.Row for every matched/positional row pair, so
// the actual per-row work is proportional to populated cells, not the
// logical rectangle (spec §64). Callers on the dissimilar-bailout preflight
// path (spec property 6) must never reach this.
func (g *Grid) View() *View {
	if g.view == nil {
		g.view = BuildView(g)
	}
	return g.view
}

// BuildView constructs a GridView over g. Building a view is the expensive
// step the dissimilar-bailout preflight path (spec property 6) must avoid;
// callers on that path must never call this. Most callers should use
// Grid.View instead, which caches the result.
func BuildView(g *Grid) *View {
	viewBuildCount++
	rows := make(map[uint32][]RowEntry)
	for k, c := range g.cells {
		rows[k.row] = append(rows[k.row], RowEntry{Col: k.col, Cell: c})
	}
	for _, entries := range rows {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Col < entries[j].Col })
	}
	return &View{rows: rows}
}

// Row returns the sorted non-blank cells of row, or nil if the row is
// entirely blank. The returned slice must not be mutated.
func (v *View) Row(row uint32) []RowEntry {
	return v.rows[row]
}

// ActiveRows returns every row index that has at least one non-blank cell,
// in ascending order.
func (v *View) ActiveRows() []uint32 {
	out := make([]uint32, 0, len(v.rows))
	for r := range v.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
