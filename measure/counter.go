// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"

	"github.com/perfmeasure/perfmeasure/eventset"
)

// A Counter is a [Measurement] of one hardware counter event. Its values are
// event counts.
//
// A Counter is immutable after construction. Each Start duplicates the
// Counter's ready session, so every Start/End pair counts on its own session.
type Counter struct {
	event  string
	ready  ReadySession
	proto  eventset.Sample
	format ValueFormatter
}

var _ Measurement[RunningSession, int64] = (*Counter)(nil)

// New returns a Counter for the named event, using engine to open counter
// sessions. Errors are reported as [*Error] with Step [StepSetup].
func New(engine Engine, event string) (*Counter, error) {
	ready, err := engine.Open(event)
	if err != nil {
		return nil, &Error{StepSetup, event, err}
	}
	var proto eventset.Sample
	if err := ready.InitSample(&proto); err != nil {
		ready.Close()
		return nil, &Error{StepSetup, event, err}
	}
	if proto.Len() != 1 {
		ready.Close()
		return nil, &Error{StepSetup, event, fmt.Errorf("%w: got %v", ErrSampleShape, proto.Names())}
	}
	return &Counter{
		event:  event,
		ready:  ready,
		proto:  proto,
		format: CountFormatter(event),
	}, nil
}

// Event returns the name of the counted event.
func (c *Counter) Event() string {
	return c.event
}

// Start starts counting on a duplicate of c's ready session.
func (c *Counter) Start() (RunningSession, error) {
	dup, err := c.ready.TryClone()
	if err != nil {
		return nil, &Error{StepDuplicate, c.event, err}
	}
	run, err := dup.Start()
	if err != nil {
		dup.Close()
		return nil, &Error{StepStart, c.event, err}
	}
	return run, nil
}

// End stops a session returned by Start and returns the number of events
// counted while it was running.
func (c *Counter) End(run RunningSession) (int64, error) {
	if run == nil {
		return 0, &Error{StepStop, c.event, ErrNotStarted}
	}
	s := c.proto.Clone()
	if err := run.Stop(&s); err != nil {
		return 0, &Error{StepStop, c.event, err}
	}
	if s.Len() == 0 {
		return 0, &Error{StepSample, c.event, ErrEmptySample}
	}
	if !s.SameShape(&c.proto) {
		return 0, &Error{StepSample, c.event, fmt.Errorf("%w: got %v, want %v", ErrSampleShape, s.Names(), c.proto.Names())}
	}
	_, v := s.At(0)
	return v, nil
}

func (c *Counter) Add(a, b int64) int64 {
	return a + b
}

func (c *Counter) Zero() int64 {
	return 0
}

func (c *Counter) ToF64(v int64) float64 {
	return float64(v)
}

func (c *Counter) Formatter() ValueFormatter {
	return c.format
}

// Close releases c's ready session. Sessions already started are unaffected.
func (c *Counter) Close() error {
	return c.ready.Close()
}
