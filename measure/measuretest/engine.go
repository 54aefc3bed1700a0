// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package measuretest provides a deterministic counter engine for testing
// code built on package measure without hardware counters.
package measuretest

import (
	"fmt"
	"sync"

	"github.com/perfmeasure/perfmeasure/eventset"
	"github.com/perfmeasure/perfmeasure/measure"
)

// Engine is a fake [measure.Engine]. Stopping one of its sessions reports a
// synthetic count instead of reading hardware.
//
// Sessions follow the same ownership rules as real ones: Start consumes a
// ready session, Stop consumes a running session, and misuse is reported with
// the errors of package eventset.
type Engine struct {
	// Counts maps each known event to the count every session reports.
	Counts map[string]int64

	// PerSession, if non-nil, accepts any event and computes the count
	// reported by the seq'th started session (counting from 0).
	PerSession func(event string, seq int) int64

	// Shape, if non-nil, overrides the sample shape of opened sessions.
	Shape []string

	// Injected failures.
	OpenErr  error
	CloneErr error
	StartErr error
	StopErr  error

	// Empty makes Stop produce a sample with no values.
	Empty bool

	mu      sync.Mutex
	seq     int
	live    int
	running int
}

var _ measure.Engine = (*Engine)(nil)

// New returns an Engine where each named event counts a fixed amount per
// session.
func New(counts map[string]int64) *Engine {
	return &Engine{Counts: counts}
}

func (e *Engine) Open(event string) (measure.ReadySession, error) {
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	if _, ok := e.Counts[event]; !ok && e.PerSession == nil {
		return nil, fmt.Errorf("unknown event %q", event)
	}
	shape := e.Shape
	if shape == nil {
		shape = []string{event}
	}
	e.mu.Lock()
	e.live++
	e.mu.Unlock()
	return &ready{e: e, event: event, shape: shape}, nil
}

// Live returns the number of sessions that have been opened or cloned and
// not yet closed or stopped.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

// Running returns the number of started sessions that have not been stopped.
func (e *Engine) Running() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) count(event string, seq int) int64 {
	if e.PerSession != nil {
		return e.PerSession(event, seq)
	}
	return e.Counts[event]
}

type ready struct {
	e       *Engine
	event   string
	shape   []string
	started bool
	closed  bool
}

func (r *ready) check() error {
	if r.closed {
		return eventset.ErrClosed
	}
	if r.started {
		return eventset.ErrStarted
	}
	return nil
}

func (r *ready) TryClone() (measure.ReadySession, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if r.e.CloneErr != nil {
		return nil, r.e.CloneErr
	}
	r.e.mu.Lock()
	r.e.live++
	r.e.mu.Unlock()
	return &ready{e: r.e, event: r.event, shape: r.shape}, nil
}

func (r *ready) InitSample(s *eventset.Sample) error {
	if r.closed {
		return eventset.ErrClosed
	}
	s.Init(r.shape)
	return nil
}

func (r *ready) Start() (measure.RunningSession, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if r.e.StartErr != nil {
		return nil, r.e.StartErr
	}
	r.started = true
	r.e.mu.Lock()
	seq := r.e.seq
	r.e.seq++
	r.e.running++
	r.e.mu.Unlock()
	return &running{r: r, seq: seq}, nil
}

func (r *ready) Close() error {
	if r.closed || r.started {
		return nil
	}
	r.closed = true
	r.e.mu.Lock()
	r.e.live--
	r.e.mu.Unlock()
	return nil
}

type running struct {
	r       *ready
	seq     int
	stopped bool
}

func (run *running) Stop(s *eventset.Sample) error {
	if run == nil || run.stopped {
		return eventset.ErrStopped
	}
	run.stopped = true
	e := run.r.e
	e.mu.Lock()
	e.running--
	e.live--
	e.mu.Unlock()

	if e.StopErr != nil {
		return e.StopErr
	}
	if e.Empty {
		s.Init(nil)
		return nil
	}
	if s.Len() == 0 {
		s.Init(run.r.shape)
	}
	v := e.count(run.r.event, run.seq)
	for _, name := range s.Names() {
		if err := s.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}
