// Package hardening implements the resource-budget controller the engine
// consults at every stage boundary (spec §4.6): wall-clock timeout, a
// memory estimate cap, and an optional progress callback. sqldef carries no
// equivalent concept (a schema diff has no runaway-cost risk), so this
// package is built directly from the specification rather than adapted
// from teacher code.
package hardening

import (
	"time"

	"github.com/sqldef/gridiff/util"
)

// ProgressFunc receives a phase name and a completion fraction in [0, 1].
type ProgressFunc func(phase string, fraction float64)

// Controller tracks one diff's resource budget and abort state. It is not
// safe for concurrent use from multiple goroutines without external
// synchronization; the engine runs single-threaded and calls it from one
// goroutine.
type Controller struct {
	start    time.Time
	timeout  time.Duration
	memCap   int64
	opBudget int64
	aborted  bool
	progress ProgressFunc
}

// New returns a controller starting its clock now. A zero timeout or memCap
// means "abort immediately" (spec §222's check_timeout: abort when
// elapsed >= timeout, which holds from the very first check when timeout is
// zero) -- the CLI's "--max-memory 0"/"--timeout 0" convention of returning
// an immediate partial result (spec §6.1) is implemented one layer up, by
// special-casing those flags before the engine ever runs (cmd/gridiff),
// not by giving the controller itself an "unlimited" meaning for zero.
func New(timeout time.Duration, memCap int64, opBudget int64, progress ProgressFunc) *Controller {
	return &Controller{
		start:    time.Now(),
		timeout:  timeout,
		memCap:   memCap,
		opBudget: opBudget,
		progress: progress,
	}
}

// CheckTimeout reports whether the configured timeout has elapsed (spec
// §222: elapsed >= timeout). A zero timeout is elapsed>=0 from the first
// call onward, so it aborts immediately rather than meaning "no limit". On
// the first true result it appends a warning and marks the controller
// aborted; subsequent calls keep returning true without appending another
// warning.
func (c *Controller) CheckTimeout(warnings *[]string) bool {
	if c.aborted {
		return true
	}
	elapsed := time.Since(c.start)
	if elapsed >= c.timeout {
		*warnings = append(*warnings, "timeout exceeded after "+elapsed.Round(time.Millisecond).String())
		c.aborted = true
		return true
	}
	return false
}

// MemoryGuardOrWarn reports whether estimate exceeds the configured memory
// cap, appending a warning naming context if so. A true result tells the
// caller to downshift to the cheaper positional path rather than building
// the structure estimate describes. A zero or negative memCap is exceeded by
// any positive estimate, so it aborts immediately rather than meaning "no
// limit" (spec §222/property 8).
func (c *Controller) MemoryGuardOrWarn(estimate int64, warnings *[]string, context string) bool {
	if estimate > c.memCap {
		*warnings = append(*warnings, context+": estimated memory use exceeds configured cap")
		return true
	}
	return false
}

// ShouldAbort reports whether the controller has already recorded an abort
// condition (currently only CheckTimeout sets this).
func (c *Controller) ShouldAbort() bool {
	return c.aborted
}

// Progress forwards (phase, fraction) to the configured callback, if any,
// clamping fraction to [0, 1] first.
func (c *Controller) Progress(phase string, fraction float64) {
	if c.progress == nil {
		return
	}
	c.progress(phase, util.Clamp01(fraction))
}

// OpBudgetExceeded reports whether opsSoFar has exceeded the configured op
// budget. A zero op budget means unlimited.
func (c *Controller) OpBudgetExceeded(opsSoFar int64) bool {
	return c.opBudget > 0 && opsSoFar > c.opBudget
}
