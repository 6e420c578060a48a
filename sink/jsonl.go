package sink

import (
	"bufio"
	"io"

	"github.com/sqldef/gridiff/diffop"
)

// JSONLWriter is the reference Sink implementation: one JSON object per
// line, header first (spec §4.7). It buffers the whole diff and writes on
// Finish, the "buffered" strategy the spec names as simplest -- true
// streaming-to-file is left as future work per §4.7's dual-pass note.
type JSONLWriter struct {
	w       *bufio.Writer
	strings []string
	ops     []diffop.Op
	began   bool
	done    bool
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

func (j *JSONLWriter) Begin(strings []string) error {
	if j.began {
		return &SinkError{Op: "begin called twice"}
	}
	j.began = true
	j.strings = strings
	return nil
}

func (j *JSONLWriter) Emit(op diffop.Op) error {
	if !j.began || j.done {
		return &SinkError{Op: "emit before begin or after finish"}
	}
	j.ops = append(j.ops, op)
	return nil
}

func (j *JSONLWriter) Finish() error {
	if j.done {
		return &SinkError{Op: "finish called twice"}
	}
	j.done = true

	header := newObjBuilder().
		Str("kind", "Header").
		Str("version", "1").
		Raw("strings", jsonStringArray(j.strings)).
		String()
	if _, err := j.w.WriteString(header + "\n"); err != nil {
		return &SinkError{Op: "write header", Err: err}
	}

	for _, op := range j.ops {
		line, err := encodeOp(op)
		if err != nil {
			return &SinkError{Op: "encode op", Err: err}
		}
		if _, err := j.w.WriteString(line + "\n"); err != nil {
			return &SinkError{Op: "write op", Err: err}
		}
	}

	if err := j.w.Flush(); err != nil {
		return &SinkError{Op: "flush", Err: err}
	}
	return nil
}
