// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// perfbench is a utility for counting performance events in a Go benchmark.
package perfbench

import "testing"

// DefaultEvents are the events counted by [Open].
var DefaultEvents = []string{
	"cycles",
	"instructions",
	"cache-misses",
	"cache-references",
}

// Counters is a set of performance counters that will be reported in benchmark
// results.
type Counters struct {
	counterSet
}

// Open starts a set of performance counters for benchmark b. These counters
// will be reported as metrics when the benchmark ends. The counters only count
// performance events on the calling goroutine.
//
// The counters are running on return. In general, any calls to b.StopTimer,
// b.StartTimer, or b.ResetTimer should be paired with the equivalent calls on
// Counters.
//
// The final value of the counters is captured in a b.Cleanup function. If the
// benchmark does substantial other work in cleanup functions, it may want to
// explicitly call [Counters.Stop] before returning.
//
// Counters that cannot be opened are logged once and otherwise ignored. A
// counter that fails after it has been opened fails the benchmark.
func Open(b *testing.B) *Counters {
	return OpenEvents(b, DefaultEvents...)
}

// OpenEvents is like [Open], but counts the named events. Names are resolved
// as by [events.ParseEvent], so PAPI-style presets such as PAPI_L1_DCM work.
//
// [events.ParseEvent]: github.com/perfmeasure/perfmeasure/events.ParseEvent
func OpenEvents(b *testing.B, events ...string) *Counters {
	printUnits(events)
	return open(b, b.N, events)
}

// Start resumes counting after [Counters.Stop].
func (cs *Counters) Start() {
	cs.start()
}

// Stop pauses counting. Counts accumulated so far are kept.
func (cs *Counters) Stop() {
	cs.stop()
}

// Reset discards the counts accumulated so far. Running counters keep
// running.
func (cs *Counters) Reset() {
	cs.reset()
}

// Total returns the total count of the named counter, which is a reported
// metric name without the "/op". If the named counter is unknown or could not
// be opened, this returns 0, false.
func (cs *Counters) Total(name string) (float64, bool) {
	return cs.total(name)
}
