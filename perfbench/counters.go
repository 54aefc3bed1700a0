// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package perfbench

import (
	"fmt"
	"os"
	"sync"

	"github.com/perfmeasure/perfmeasure/bench"
	"github.com/perfmeasure/perfmeasure/measure"
)

// engine opens the counters. Tests replace it.
var engine = measure.PerfEngine()

type counter struct {
	m     *measure.Counter // nil if the counter couldn't be opened
	run   measure.RunningSession
	total int64
}

type counterSet struct {
	b  testingB
	bN int

	counters []counter
}

var unitsPrinted sync.Map

// printUnits prints unit metadata for events the first time each is used.
func printUnits(events []string) {
	var units []string
	for _, ev := range events {
		if _, prev := unitsPrinted.LoadOrStore(ev, true); !prev {
			units = append(units, ev)
		}
	}
	bench.WriteUnits(os.Stdout, units)
}

// testingB is the *testing.B interface needed by Counters. Used for testing.
type testingB interface {
	ReportMetric(n float64, unit string)
	Logf(format string, args ...any)
	Fatalf(format string, args ...any)
	Cleanup(func())
}

var openErrors sync.Map

func open(b testingB, bN int, events []string) *Counters {
	cs := &Counters{counterSet{
		b:        b,
		bN:       bN,
		counters: make([]counter, len(events)),
	}}

	for i, event := range events {
		m, err := measure.New(engine, event)
		if err != nil {
			// Only report each error once, to avoid flooding benchmark log.
			msg := fmt.Sprintf("error opening counter %s: %v", event, err)
			if _, prev := openErrors.Swap(msg, true); !prev {
				b.Logf("%s", msg)
			}
			continue
		}
		cs.counters[i].m = m
	}

	b.Cleanup(cs.close)

	// Start all of the counters.
	cs.Start()

	return cs
}

func (cs *counterSet) start() {
	for i := range cs.counters {
		c := &cs.counters[i]
		if c.m == nil || c.run != nil {
			continue
		}
		run, err := c.m.Start()
		if err != nil {
			cs.b.Fatalf("%v", err)
			return
		}
		c.run = run
	}
}

// end stops c's running session, if any, and returns its count.
func (cs *counterSet) end(c *counter) (int64, bool) {
	if c.run == nil {
		return 0, true
	}
	v, err := c.m.End(c.run)
	c.run = nil
	if err != nil {
		cs.b.Fatalf("%v", err)
		return 0, false
	}
	return v, true
}

func (cs *counterSet) stop() {
	for i := range cs.counters {
		c := &cs.counters[i]
		if c.m == nil {
			continue
		}
		v, ok := cs.end(c)
		if !ok {
			return
		}
		c.total = c.m.Add(c.total, v)
	}
}

func (cs *counterSet) reset() {
	// Sessions can't be rewound, so a running counter is ended and
	// restarted, which also gives it a fresh baseline.
	restart := false
	for i := range cs.counters {
		c := &cs.counters[i]
		if c.m == nil {
			continue
		}
		if c.run != nil {
			restart = true
			if _, ok := cs.end(c); !ok {
				return
			}
		}
		c.total = c.m.Zero()
	}
	if restart {
		cs.start()
	}
}

func (cs *counterSet) total(name string) (float64, bool) {
	for i := range cs.counters {
		c := &cs.counters[i]
		if c.m == nil || c.m.Event() != name {
			continue
		}
		if c.run != nil {
			// Fold the running session into the total and keep counting.
			v, ok := cs.end(c)
			if !ok {
				return 0, false
			}
			c.total = c.m.Add(c.total, v)
			run, err := c.m.Start()
			if err != nil {
				cs.b.Fatalf("%v", err)
				return 0, false
			}
			c.run = run
		}
		return c.m.ToF64(c.total), true
	}
	return 0, false
}

func (cs *counterSet) close() {
	if cs.b == nil {
		return
	}

	cs.stop()
	for _, c := range cs.counters {
		if c.m == nil {
			continue
		}
		cs.b.ReportMetric(c.m.ToF64(c.total)/float64(cs.bN), c.m.Event()+"/op")
		c.m.Close()
	}
	cs.b = nil
}
