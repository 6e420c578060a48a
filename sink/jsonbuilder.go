package sink

import (
	"strconv"
	"strings"

	"github.com/sqldef/gridiff/grid"
)

// objBuilder assembles one JSON object with fields in the exact order they
// are appended, matching spec §4.7's "keys serialized in a fixed order per
// op variant" rule. It never reorders or deduplicates keys -- callers are
// responsible for appending each field exactly once, in schema order.
type objBuilder struct {
	sb    strings.Builder
	first bool
}

func newObjBuilder() *objBuilder {
	b := &objBuilder{first: true}
	b.sb.WriteByte('{')
	return b
}

func (b *objBuilder) comma() {
	if !b.first {
		b.sb.WriteByte(',')
	}
	b.first = false
}

func (b *objBuilder) Str(key, val string) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteByte(':')
	writeJSONString(&b.sb, val)
	return b
}

func (b *objBuilder) Int(key string, val int64) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteByte(':')
	b.sb.WriteString(strconv.FormatInt(val, 10))
	return b
}

func (b *objBuilder) Uint(key string, val uint64) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteByte(':')
	b.sb.WriteString(strconv.FormatUint(val, 10))
	return b
}

// Float writes a finite f64 via Go's shortest round-trip formatter, which
// since Go 1.x implements the same class of algorithm as Ryu (spec §4.7).
// A non-finite value is a writer error under the spec; callers must not
// reach here with one -- grid.CellValue already rejects NaN/Inf at
// construction, so this is unreachable in practice rather than a checked
// path.
func (b *objBuilder) Float(key string, val float64) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteByte(':')
	b.sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	return b
}

func (b *objBuilder) Bool(key string, val bool) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteByte(':')
	b.sb.WriteString(strconv.FormatBool(val))
	return b
}

// Null writes key explicitly as JSON null, for fields the schema always
// includes (spec §4.7's "explicit null" fields, e.g. QueryMetadataChanged's
// old/new).
func (b *objBuilder) Null(key string) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteString(":null")
	return b
}

// OptStr writes key:val if val != nil, explicit null otherwise. Used for
// the explicit-null field class.
func (b *objBuilder) OptStr(key string, val *string) *objBuilder {
	if val == nil {
		return b.Null(key)
	}
	return b.Str(key, *val)
}

// Addr writes a CellAddress in A1 form (spec §4.7).
func (b *objBuilder) Addr(key string, addr grid.Address) *objBuilder {
	return b.Str(key, addr.A1())
}

// Hash writes a 128-bit signature as {"hash":"<32 lowercase hex>"}.
func (b *objBuilder) Hash(key string, sig grid.Signature) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteByte(':')
	b.sb.WriteByte('{')
	writeJSONString(&b.sb, "hash")
	b.sb.WriteByte(':')
	writeJSONString(&b.sb, formatSignatureHex(sig))
	b.sb.WriteByte('}')
	return b
}

// Raw appends a pre-built JSON value verbatim under key (used for nested
// arrays/objects assembled by the caller, e.g. the header's strings list).
func (b *objBuilder) Raw(key, rawJSON string) *objBuilder {
	b.comma()
	writeJSONString(&b.sb, key)
	b.sb.WriteByte(':')
	b.sb.WriteString(rawJSON)
	return b
}

func (b *objBuilder) String() string {
	return b.sb.String() + "}"
}

func formatSignatureHex(sig grid.Signature) string {
	return padHex(sig.Hi) + padHex(sig.Lo)
}

func padHex(v uint64) string {
	s := strconv.FormatUint(v, 16)
	if len(s) < 16 {
		s = strings.Repeat("0", 16-len(s)) + s
	}
	return s
}

// writeJSONString writes s as a double-quoted JSON string with the escapes
// required by spec §4.7: \", \\, \n, \r, \t, \b, \f, and any other byte <
// 0x20 as \u00XX. Non-ASCII UTF-8 bytes pass through untransformed.
func writeJSONString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if c < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte(hexDigit(c >> 4))
				sb.WriteByte(hexDigit(c & 0xf))
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + (n - 10)
}

// jsonStringArray renders ss as a JSON array of strings, in order, for the
// header's "strings" field.
func jsonStringArray(ss []string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, s := range ss {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeJSONString(&sb, s)
	}
	sb.WriteByte(']')
	return sb.String()
}
