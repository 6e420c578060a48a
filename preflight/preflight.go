// Package preflight classifies a pair of equal-dimension grids by their row
// signatures before the expensive alignment pipeline runs (spec §4.4.4),
// so that near-identical or wildly-dissimilar sheets take a cheap
// positional path instead.
package preflight

import "github.com/sqldef/gridiff/grid"

// Decision is the preflight's classification of a grid pair.
type Decision int

const (
	// RunFullPipeline means no short-circuit applies; the advanced
	// alignment pipeline (spec §4.4.7) should run.
	RunFullPipeline Decision = iota
	// ShortCircuitDissimilar means the grids share too few row signatures
	// to be worth aligning; run a plain positional diff and, critically,
	// never build a GridView for either side (spec property 6).
	ShortCircuitDissimilar
	// ShortCircuitNearIdentical means almost every row matched in place;
	// run a positional diff restricted to the mismatched rows plus
	// MaxContextRows of context padding.
	ShortCircuitNearIdentical
)

// Thresholds bundles the tunables preflight needs from config.
type Thresholds struct {
	MinRows               int
	InOrderMismatchMax    int
	InOrderMatchRatioMin  float64
	BailoutSimilarity     float64
	MaxContextRows        int
}

// Result carries both the decision and the row-level detail a near-identical
// short-circuit needs to restrict its positional scan.
type Result struct {
	Decision      Decision
	Jaccard       float64
	InOrderRatio  float64
	EditDistance  int
	MismatchRows  []uint32 // rows whose old[i] != new[i] signature, only meaningful for ShortCircuitNearIdentical
}

// Classify implements spec §4.4.4. old and new must have equal dimensions;
// callers are responsible for checking that before calling (the full
// pipeline decision already requires it).
func Classify(old, new *grid.Grid, th Thresholds) Result {
	nrows := old.NRows()
	if int(nrows) < th.MinRows {
		return Result{Decision: RunFullPipeline}
	}

	oldSigs := old.BuildRowSignatures()
	newSigs := new.BuildRowSignatures()

	oldCount := countSignatures(oldSigs)
	newCount := countSignatures(newSigs)

	intersection := 0
	union := 0
	seen := make(map[grid.Signature]bool, len(oldCount)+len(newCount))
	for sig, n := range oldCount {
		seen[sig] = true
		m := newCount[sig]
		intersection += minInt(n, m)
		union += maxInt(n, m)
	}
	for sig, m := range newCount {
		if seen[sig] {
			continue
		}
		union += m
	}

	jaccard := 1.0
	if union > 0 {
		jaccard = float64(intersection) / float64(union)
	}

	var mismatches []uint32
	for i := uint32(0); i < nrows; i++ {
		if oldSigs[i] != newSigs[i] {
			mismatches = append(mismatches, i)
		}
	}
	inOrderRatio := 1.0
	if nrows > 0 {
		inOrderRatio = float64(int(nrows)-len(mismatches)) / float64(nrows)
	}

	editDistance := multisetEditDistance(oldCount, newCount)
	reorderSuspected := len(mismatches) > editDistance

	res := Result{
		Jaccard:      jaccard,
		InOrderRatio: inOrderRatio,
		EditDistance: editDistance,
		MismatchRows: mismatches,
	}

	if jaccard < th.BailoutSimilarity {
		res.Decision = ShortCircuitDissimilar
		return res
	}

	multisetEqual := editDistance == 0
	if len(mismatches) <= th.InOrderMismatchMax && inOrderRatio >= th.InOrderMatchRatioMin && !multisetEqual && !reorderSuspected {
		res.Decision = ShortCircuitNearIdentical
		return res
	}

	res.Decision = RunFullPipeline
	return res
}

func countSignatures(sigs []grid.Signature) map[grid.Signature]int {
	out := make(map[grid.Signature]int, len(sigs))
	for _, s := range sigs {
		out[s]++
	}
	return out
}

// multisetEditDistance computes Σ|Δ_sig|/2 -- the minimum number of
// single-row changes that could explain the multiset difference between
// old and new row-signature counts (spec §4.4.4).
func multisetEditDistance(oldCount, newCount map[grid.Signature]int) int {
	seen := make(map[grid.Signature]bool, len(oldCount)+len(newCount))
	total := 0
	for sig, n := range oldCount {
		seen[sig] = true
		m := newCount[sig]
		total += absInt(n - m)
	}
	for sig, m := range newCount {
		if seen[sig] {
			continue
		}
		total += m
	}
	return total / 2
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
