package sink

// FinishGuard wraps a Sink so that Finish is always called once, even on an
// error path that forgets to call it explicitly (spec §4.7's "scoped
// wrapper that calls finish() on drop unless explicitly disarmed"). Go has
// no destructor, so the caller must arrange for Close to run via defer;
// Disarm is for the one caller that already called Finish itself and
// should not pay for a second, redundant call.
type FinishGuard struct {
	sink     Sink
	disarmed bool
}

// NewFinishGuard wraps sink. The usual pattern is:
//
//	g := sink.NewFinishGuard(s)
//	defer g.Close()
//	... Begin/Emit calls, possibly returning early on error ...
//	if err := s.Finish(); err != nil { return err }
//	g.Disarm()
func NewFinishGuard(s Sink) *FinishGuard {
	return &FinishGuard{sink: s}
}

// Disarm marks the sink as already finished, so Close becomes a no-op.
func (g *FinishGuard) Disarm() {
	g.disarmed = true
}

// Close calls Finish on the wrapped sink unless Disarm was already called.
// Any error from Finish is swallowed, matching a drop-time finalizer's
// inability to propagate an error to its caller; callers that need the
// error must call Finish themselves and then Disarm.
func (g *FinishGuard) Close() {
	if g.disarmed {
		return
	}
	g.disarmed = true
	_ = g.sink.Finish()
}
