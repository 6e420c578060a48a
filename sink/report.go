package sink

import (
	"fmt"
	"strings"

	"github.com/sqldef/gridiff/diffop"
)

// EncodeDiffReport renders r as the single JSON object spec §6.3 describes:
// {"version":..,"strings":[...],"ops":[...],"complete":..,"warnings":[...]}.
// It reuses the same field encoders jsonl.go's Finish uses for the header
// and each op, so the two serializations never drift apart.
func EncodeDiffReport(r diffop.DiffReport) (string, error) {
	var ops strings.Builder
	ops.WriteByte('[')
	for i, op := range r.Ops {
		if i > 0 {
			ops.WriteByte(',')
		}
		line, err := encodeOp(op)
		if err != nil {
			return "", fmt.Errorf("sink: encode report: %w", err)
		}
		ops.WriteString(line)
	}
	ops.WriteByte(']')

	b := newObjBuilder().
		Int("version", int64(r.SchemaVersion)).
		Raw("strings", jsonStringArray(r.Strings)).
		Raw("ops", ops.String()).
		Bool("complete", r.Complete).
		Raw("warnings", jsonStringArray(r.Warnings))
	return b.String(), nil
}
