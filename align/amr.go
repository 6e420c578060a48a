package align

import "github.com/sqldef/gridiff/grid"

// tryAMR implements spec §4.4.7(a): Ancestor-Matched Rows. A row signature
// that occurs exactly once in *both* old and new is an anchor: its position
// is unambiguous. If every run of rows between consecutive anchors (a "gap")
// has the same length on both sides, the anchors pin a unique positional
// alignment of the gaps too, and AMR succeeds without needing the more
// expensive LCS. If any gap's lengths differ, the anchors alone do not
// determine how the gap's rows correspond, so AMR declines (ok=false) and
// the caller falls back to signature-matched LCS.
func tryAMR(old, new []grid.Signature) (Pairing, bool) {
	oldCount := make(map[grid.Signature]int, len(old))
	for _, s := range old {
		oldCount[s]++
	}
	newCount := make(map[grid.Signature]int, len(new))
	for _, s := range new {
		newCount[s]++
	}

	// anchorPairs holds (oldIdx, newIdx) for every uniquely-matched row, in
	// old-index order (which, since anchors preserve relative order in a
	// non-reordering diff, is also new-index order).
	type anchor struct{ oldIdx, newIdx uint32 }
	var anchors []anchor
	newPos := make(map[grid.Signature][]uint32, len(new))
	for i, s := range new {
		newPos[s] = append(newPos[s], uint32(i))
	}
	for i, s := range old {
		if oldCount[s] != 1 || newCount[s] != 1 {
			continue
		}
		positions := newPos[s]
		if len(positions) != 1 {
			continue
		}
		anchors = append(anchors, anchor{oldIdx: uint32(i), newIdx: positions[0]})
	}
	if len(anchors) == 0 {
		return Pairing{}, false
	}

	var p Pairing
	prevOld, prevNew := uint32(0), uint32(0)
	for _, a := range anchors {
		if a.oldIdx < prevOld || a.newIdx < prevNew {
			// Anchors out of relative order: rows were reordered, which AMR
			// as specified does not resolve. Defer to LCS.
			return Pairing{}, false
		}
		gapOld := a.oldIdx - prevOld
		gapNew := a.newIdx - prevNew
		if gapOld != gapNew {
			return Pairing{}, false
		}
		for g := uint32(0); g < gapOld; g++ {
			p.Matched = append(p.Matched, [2]uint32{prevOld + g, prevNew + g})
		}
		p.Matched = append(p.Matched, [2]uint32{a.oldIdx, a.newIdx})
		prevOld = a.oldIdx + 1
		prevNew = a.newIdx + 1
	}
	// Trailing gap after the last anchor.
	gapOld := uint32(len(old)) - prevOld
	gapNew := uint32(len(new)) - prevNew
	if gapOld != gapNew {
		return Pairing{}, false
	}
	for g := uint32(0); g < gapOld; g++ {
		p.Matched = append(p.Matched, [2]uint32{prevOld + g, prevNew + g})
	}
	return p, true
}
