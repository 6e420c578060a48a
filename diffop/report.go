package diffop

// SchemaVersion is bumped whenever the wire shape of DiffReport/Op changes in
// a way a consumer must branch on.
const SchemaVersion = 1

// DiffReport is the full result of one diff, used by the non-streaming
// (VecSink) entry point. Strings is the backing table every StringId in Ops
// resolves against.
type DiffReport struct {
	SchemaVersion int
	Strings       []string
	Ops           []Op
	Complete      bool
	Warnings      []string
}

// Summary reduces the report to its streaming-mode counterpart.
func (r DiffReport) Summary() DiffSummary {
	return DiffSummary{
		Complete: r.Complete,
		Warnings: append([]string(nil), r.Warnings...),
		OpCount:  len(r.Ops),
	}
}

// DiffSummary is everything the streaming entry point (sink.Sink) can
// report about a finished diff once its ops have already been handed to the
// sink one at a time; it never holds the ops themselves.
type DiffSummary struct {
	Complete bool
	Warnings []string
	OpCount  int
}
