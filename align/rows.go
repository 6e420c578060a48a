package align

import "github.com/sqldef/gridiff/grid"

// AlignRows implements the row half of spec §4.4.7: try Ancestor-Matched
// Rows first (cheap, exact, no bound), then signature-matched LCS bounded by
// maxAlignRows. ok is false when neither method applies -- AMR finds no
// usable anchor set and either side exceeds maxAlignRows -- signaling the caller to
// fall back to the positional diff (spec §4.4.7(d)).
func AlignRows(old, new *grid.Grid, maxAlignRows int) (Pairing, bool) {
	oldSigs := old.BuildRowSignatures()
	newSigs := new.BuildRowSignatures()

	if p, ok := tryAMR(oldSigs, newSigs); ok {
		return p, true
	}
	return lcsSignatures(oldSigs, newSigs, maxAlignRows)
}

// AlignColumns is the column analogue of AlignRows, used by the single-
// column special case (spec §4.4.7(c)): exactly one column block was
// inserted, removed, or moved while every row kept its row index.
func AlignColumns(old, new *grid.Grid, maxAlignCols int) (Pairing, bool) {
	oldSigs := old.BuildColSignatures()
	newSigs := new.BuildColSignatures()
	return lcsSignatures(oldSigs, newSigs, maxAlignCols)
}

// IsSingleColumnBlockChange reports whether p's Inserted/Deleted columns form
// at most one contiguous run on each side -- the shape spec §4.4.7(c)
// requires before the single-column special case is preferred over the
// general row-alignment result. A Pairing with no inserted/deleted columns
// (a pure permutation, or no change at all) does not qualify: there is
// nothing for the single-column case to explain better than plain matching.
func IsSingleColumnBlockChange(p Pairing) bool {
	if !isContiguous(p.Inserted) || !isContiguous(p.Deleted) {
		return false
	}
	return len(p.Inserted) > 0 || len(p.Deleted) > 0
}

func isContiguous(idx []uint32) bool {
	for i := 1; i < len(idx); i++ {
		if idx[i] != idx[i-1]+1 {
			return false
		}
	}
	return true
}
