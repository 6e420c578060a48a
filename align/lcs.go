// Package align implements the advanced row/column alignment pipeline (spec
// §4.4.7): Ancestor-Matched Rows, signature-matched LCS alignment, a
// single-column special case, and the positional fallback, plus the
// dense-row/dense-rect coalescing that runs while diffing matched pairs
// (spec §4.4.8).
package align

import (
	"sort"

	"github.com/sqldef/gridiff/grid"
)

// Pairing is one alignment outcome: Matched holds (old index, new index)
// pairs in new-index order, Inserted holds new-only indices, Deleted holds
// old-only indices, all three in ascending order.
type Pairing struct {
	Matched  [][2]uint32
	Inserted []uint32
	Deleted  []uint32
}

// lcsSignatures computes the longest common subsequence of old and new
// treated as sequences of opaque comparable signatures, via the classic
// O(n*m) dynamic program bounded by maxLen on either axis. ok is false if
// either sequence exceeds maxLen, signaling the caller should fall back to
// a cheaper alignment (spec §4.4.7's "bounded by max_align_rows").
func lcsSignatures(old, new []grid.Signature, maxLen int) (Pairing, bool) {
	if maxLen > 0 && (len(old) > maxLen || len(new) > maxLen) {
		return Pairing{}, false
	}

	n, m := len(old), len(new)
	// dp[i][j] = length of LCS of old[i:], new[j:]
	dp := make([][]int32, n+1)
	for i := range dp {
		dp[i] = make([]int32, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if old[i] == new[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var p Pairing
	// pendingDel/pendingIns accumulate the run of non-matching indices since
	// the last anchor; reconcileGap pairs them positionally (a "replace"
	// block) instead of reporting every element as a separate delete+insert.
	// Two same-position rows whose content merely changed share no signature,
	// so the raw LCS above would otherwise always treat them as one deletion
	// plus one unrelated insertion -- losing the matched-pair relationship
	// that DiffMatchedRows / dense-row coalescing (spec §4.4.8) need in order
	// to recognize an in-place edit (or heavily edited row) instead of a
	// structural add/remove.
	var pendingDel, pendingIns []uint32
	reconcileGap := func() {
		k := len(pendingDel)
		if len(pendingIns) < k {
			k = len(pendingIns)
		}
		for t := 0; t < k; t++ {
			p.Matched = append(p.Matched, [2]uint32{pendingDel[t], pendingIns[t]})
		}
		p.Deleted = append(p.Deleted, pendingDel[k:]...)
		p.Inserted = append(p.Inserted, pendingIns[k:]...)
		pendingDel = pendingDel[:0]
		pendingIns = pendingIns[:0]
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case old[i] == new[j]:
			reconcileGap()
			p.Matched = append(p.Matched, [2]uint32{uint32(i), uint32(j)})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			pendingDel = append(pendingDel, uint32(i))
			i++
		default:
			pendingIns = append(pendingIns, uint32(j))
			j++
		}
	}
	for ; i < n; i++ {
		pendingDel = append(pendingDel, uint32(i))
	}
	for ; j < m; j++ {
		pendingIns = append(pendingIns, uint32(j))
	}
	reconcileGap()

	sort.Slice(p.Matched, func(a, b int) bool { return p.Matched[a][1] < p.Matched[b][1] })
	return p, true
}
