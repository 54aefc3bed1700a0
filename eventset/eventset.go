// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eventset manages sessions of hardware performance counters.
//
// A [Builder] resolves event names and opens them as one counter group,
// yielding a [Ready] session. Starting a Ready session yields a [Running]
// session, and stopping that writes the counts accumulated in between into a
// [Sample].
//
// A Ready session can be duplicated with [Ready.TryClone]. Duplicates share the
// underlying kernel counters rather than opening new ones: the counters are
// enabled while any session derived from them is running, and each Running
// session reports only the events that occurred between its own start and
// stop. This makes overlapping sessions independent of each other.
//
// Counters only count events on the OS thread of the goroutine that built
// them, so a session should be built, started, stopped, and closed on one
// goroutine.
package eventset

import "errors"

var (
	// ErrNoEvents is returned by Build when no events were added.
	ErrNoEvents = errors.New("no events in event set")

	// ErrClosed is returned when using a session whose counters have been
	// closed.
	ErrClosed = errors.New("event set is closed")

	// ErrStarted is returned when starting a Ready session that was already
	// started. Start consumes the Ready session; clone it first to start it
	// again.
	ErrStarted = errors.New("event set already started")

	// ErrStopped is returned when stopping a Running session twice.
	ErrStopped = errors.New("event set already stopped")
)
