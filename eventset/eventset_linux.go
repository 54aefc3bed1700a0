// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package eventset

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/perfmeasure/perfmeasure/events"
	"github.com/perfmeasure/perfmeasure/perf"
)

// A Builder collects the events of a new event set.
type Builder struct {
	target perf.Target
	events []events.Event
	err    error
}

// NewBuilder returns a Builder for an event set that counts events of the
// calling goroutine.
func NewBuilder() *Builder {
	return &Builder{target: perf.TargetThisGoroutine}
}

// Target sets what the event set counts.
func (b *Builder) Target(t perf.Target) *Builder {
	b.target = t
	return b
}

// AddByName resolves an event name with [events.ParseEvent] and adds it to
// the set. Resolution errors are reported by Build.
func (b *Builder) AddByName(name string) *Builder {
	if b.err != nil {
		return b
	}
	ev, err := events.ParseEvent(name)
	if err != nil {
		b.err = err
		return b
	}
	return b.Add(ev)
}

// Add adds an event to the set.
func (b *Builder) Add(ev events.Event) *Builder {
	b.events = append(b.events, ev)
	return b
}

// Build opens the events as one counter group and returns a Ready session
// for it. The counters are not running.
func (b *Builder) Build() (*Ready, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.events) == 0 {
		return nil, ErrNoEvents
	}
	c, err := perf.OpenCounter(b.target, b.events...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(b.events))
	for i, ev := range b.events {
		names[i] = ev.String()
	}
	g := &group{counter: c, names: names, refs: 1}
	return &Ready{g: g}, nil
}

// group is the counter group shared by all sessions cloned from one Build.
type group struct {
	names []string // Immutable

	mu      sync.Mutex
	counter *perf.Counter // nil once closed
	refs    int           // Open Ready and Running handles
	running int           // Running handles
}

// releaseLocked drops one reference and closes the counters with the last
// one. g.mu must be held.
func (g *group) releaseLocked() {
	g.refs--
	if g.refs == 0 {
		g.counter.Close()
		g.counter = nil
	}
}

func (g *group) read() ([]perf.Count, error) {
	counts := make([]perf.Count, len(g.names))
	if err := g.counter.ReadGroup(counts); err != nil {
		return nil, err
	}
	return counts, nil
}

type readyState uint8

const (
	readyOpen readyState = iota
	readyStarted
	readyClosed
)

// A Ready session is a prepared event set whose counters are not running on
// its behalf.
type Ready struct {
	g     *group
	state readyState
}

func (r *Ready) check() error {
	switch r.state {
	case readyStarted:
		return ErrStarted
	case readyClosed:
		return ErrClosed
	}
	return nil
}

// Names returns the event names of r, in the order they were added.
func (r *Ready) Names() []string {
	return slices.Clone(r.g.names)
}

// TryClone returns a new Ready session for the same counters. It fails if r
// has been started or closed, or if the counters are closed.
func (r *Ready) TryClone() (*Ready, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counter == nil {
		return nil, ErrClosed
	}
	g.refs++
	return &Ready{g: g}, nil
}

// InitSample sets s to the shape of this event set, with all values zero.
func (r *Ready) InitSample(s *Sample) error {
	if r.state == readyClosed {
		return ErrClosed
	}
	s.Init(r.g.names)
	return nil
}

// Start starts counting and returns the Running session. Start consumes r:
// after a successful Start, r can no longer be used.
func (r *Ready) Start() (*Running, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	g := r.g
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counter == nil {
		return nil, ErrClosed
	}
	if g.running == 0 {
		if err := g.counter.Start(); err != nil {
			return nil, err
		}
	}
	base, err := g.read()
	if err != nil {
		if g.running == 0 {
			g.counter.Stop()
		}
		return nil, err
	}
	g.running++
	// r's reference moves to the Running session.
	r.state = readyStarted
	return &Running{g: g, base: base}, nil
}

// Close releases r. The counters are closed once every session sharing them
// is closed or stopped. Closing a started or closed Ready does nothing.
func (r *Ready) Close() error {
	if r.state != readyOpen {
		return nil
	}
	r.state = readyClosed
	r.g.mu.Lock()
	defer r.g.mu.Unlock()
	r.g.releaseLocked()
	return nil
}

// A Running session is an event set counting on behalf of one Start.
type Running struct {
	g       *group
	base    []perf.Count
	stopped bool
}

// Stop stops this session and writes the events counted since it started
// into s. If s is empty, Stop initializes it to the event set's shape;
// otherwise s must already have that shape. Counts are scaled to account for
// multiplexing and rounded to integers.
//
// Stop consumes r. Stopping it again returns [ErrStopped].
func (r *Running) Stop(s *Sample) error {
	if r == nil || r.g == nil || r.stopped {
		return ErrStopped
	}
	r.stopped = true

	g := r.g
	g.mu.Lock()
	end, readErr := g.read()
	g.running--
	var stopErr error
	if g.running == 0 {
		stopErr = g.counter.Stop()
	}
	g.releaseLocked()
	g.mu.Unlock()

	if readErr != nil {
		return readErr
	}
	if stopErr != nil {
		return stopErr
	}

	if s.Len() == 0 {
		s.Init(g.names)
	} else if !slices.Equal(s.names, g.names) {
		return fmt.Errorf("sample has events %v, event set has %v", s.names, g.names)
	}
	for i := range end {
		v, _ := end[i].Sub(r.base[i]).Value()
		s.values[i] = int64(math.Round(v))
	}
	return nil
}
