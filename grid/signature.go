package grid

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Signature is the 128-bit content hash described in spec §3/§4.2. It is
// built as a pair of differently-salted 64-bit xxhash sums rather than a
// true 128-bit hash function (the retrieval pack's closest analogue,
// dolthub-dolt, uses xxhash purely for 64-bit content addresses); XORing two
// independent 64-bit lanes per cell keeps the same order-independence
// property the spec requires while staying on a single, already-adopted
// hash dependency.
type Signature struct {
	Hi uint64
	Lo uint64
}

// Xor combines two signatures commutatively, matching spec §4.2's
// "commutative accumulator" requirement: the row/column signature must not
// depend on iteration order of the sparse store.
func (s Signature) Xor(other Signature) Signature {
	return Signature{Hi: s.Hi ^ other.Hi, Lo: s.Lo ^ other.Lo}
}

// Zero is the identity element under Xor, and the signature of an empty
// row/column.
var Zero = Signature{}

// cellSignature hashes one cell's (position, kind, payload, formula) tuple,
// where position is the cell's column for a row signature and its row for a
// column signature. The two lanes are salted differently so Hi and Lo are
// not trivially equal for single-cell rows/columns.
func cellSignature(col uint32, c Cell) Signature {
	var buf [24]byte
	binary.LittleEndian.PutUint32(buf[0:4], col)

	if c.Value != nil {
		buf[4] = byte(c.Value.Kind()) + 1 // +1 so a formula-only cell differs from a truly empty one
		switch c.Value.Kind() {
		case Number:
			binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(c.Value.Number()))
		case Text, Error:
			binary.LittleEndian.PutUint32(buf[16:20], uint32(c.Value.TextID()))
		case Bool:
			if c.Value.Bool() {
				buf[20] = 1
			}
		}
	}

	var formulaSalt uint64
	if c.Formula != nil {
		var fbuf [5]byte
		binary.LittleEndian.PutUint32(fbuf[0:4], uint32(*c.Formula))
		fbuf[4] = 0xF0
		formulaSalt = xxhash.Sum64(fbuf[:])
	}

	hi := xxhash.Sum64(buf[:])
	buf[len(buf)-1] ^= 0xA5 // perturb before the second hash so Lo is independent of Hi
	lo := xxhash.Sum64(buf[:]) ^ formulaSalt

	return Signature{Hi: hi, Lo: lo}
}

// RowSignature computes the order-independent fingerprint of row's non-blank
// cells. Two rows with the same set of (col, value, formula) tuples, stored
// in any order, produce the same signature.
func (g *Grid) RowSignature(row uint32) Signature {
	if g.rowSigs != nil && int(row) < len(g.rowSigs) {
		return g.rowSigs[row]
	}
	sig := Zero
	for k, c := range g.cells {
		if k.row != row {
			continue
		}
		sig = sig.Xor(cellSignature(k.col, c))
	}
	return sig
}

// ColSignature is the column analogue of RowSignature.
func (g *Grid) ColSignature(col uint32) Signature {
	if g.colSigs != nil && int(col) < len(g.colSigs) {
		return g.colSigs[col]
	}
	sig := Zero
	for k, c := range g.cells {
		if k.col != col {
			continue
		}
		sig = sig.Xor(cellSignature(k.row, c))
	}
	return sig
}

// BuildRowSignatures computes and caches every row signature up front,
// giving O(1) RowSignature lookups afterward. Preflight calls it on both
// grids to make its decision; the dissimilar bailout that may follow builds
// no GridView.
func (g *Grid) BuildRowSignatures() []Signature {
	sigs := make([]Signature, g.nrows)
	for k, c := range g.cells {
		if k.row >= g.nrows {
			continue
		}
		sigs[k.row] = sigs[k.row].Xor(cellSignature(k.col, c))
	}
	g.rowSigs = sigs
	return sigs
}

// BuildColSignatures is the column analogue of BuildRowSignatures.
func (g *Grid) BuildColSignatures() []Signature {
	sigs := make([]Signature, g.ncols)
	for k, c := range g.cells {
		if k.col >= g.ncols {
			continue
		}
		sigs[k.col] = sigs[k.col].Xor(cellSignature(k.row, c))
	}
	g.colSigs = sigs
	return sigs
}
