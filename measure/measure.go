// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package measure adapts hardware performance counters to a generic
// benchmark measurement interface, so a harness can report event counts
// (cycles, cache misses, ...) where it would otherwise report elapsed time.
//
// A harness drives any [Measurement] by bracketing the measured code with
// Start and End, accumulating values with Add from Zero, and converting them
// with ToF64 for reporting. [Counter] is a Measurement of one counter event;
// [WallTime] is the usual elapsed-time Measurement.
//
// Measurement errors from Start and End are never papered over with a zero
// value. They are reported as [*Error] and the harness is expected to abort
// the run, since continuing would silently produce wrong results.
package measure

import "github.com/perfmeasure/perfmeasure/eventset"

// A Measurement is a pluggable strategy for measuring a benchmark. I is the
// intermediate state between Start and End, and V is the measured value.
//
// A harness calls Start and End in pairs around the measured code. Each
// intermediate returned by Start must be passed to End exactly once.
type Measurement[I, V any] interface {
	// Start begins a measurement.
	Start() (I, error)

	// End finishes the measurement begun by the Start that returned i.
	End(i I) (V, error)

	// Add combines two values. It must be associative and commutative.
	Add(a, b V) V

	// Zero returns the identity of Add.
	Zero() V

	// ToF64 converts a value for statistical processing.
	ToF64(v V) float64

	// Formatter returns the formatter used to report values.
	Formatter() ValueFormatter
}

// An Engine opens counter sessions for named events.
type Engine interface {
	// Open returns a Ready session that counts the named event.
	Open(event string) (ReadySession, error)
}

// A ReadySession is a prepared counter session that is not counting.
type ReadySession interface {
	// TryClone returns an independent duplicate of the session without
	// reopening its counters, or an error if that isn't possible.
	TryClone() (ReadySession, error)

	// InitSample sets s to the shape of the session's samples.
	InitSample(s *eventset.Sample) error

	// Start starts counting. It consumes the ReadySession.
	Start() (RunningSession, error)

	// Close releases the session.
	Close() error
}

// A RunningSession is a counter session that is counting.
type RunningSession interface {
	// Stop stops counting and writes the counts into s. It consumes the
	// RunningSession.
	Stop(s *eventset.Sample) error
}
