// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

// Package events resolves symbolic performance event names into perf_event
// attributes.
package events

import "golang.org/x/sys/unix"

// An Event is something perf can count. Events come from [ParseEvent] or the
// predefined Event variables.
type Event interface {
	// String returns the name of this event, preferably as the name used by
	// "perf stat -e". Counters and samples are keyed by this name.
	String() string

	// SetAttrs sets the attributes for this event in the [unix.PerfEventAttr]
	// struct.
	SetAttrs(*unix.PerfEventAttr) error
}

// An EventScale is an Event that provides a scaling factor and unit to convert
// raw values into meaningful values.
type EventScale interface {
	Event

	// ScaleUnit returns the factor to multiply raw values by to compute a
	// meaningful value, plus the unit of that value. A no-op implementation
	// should return 1.0, "".
	ScaleUnit() (scale float64, unit string)
}

// A fixedEvent is a generalized event with a perf-defined config.
type fixedEvent struct {
	name   string
	typ    uint32
	config uint64
}

func (e fixedEvent) String() string { return e.name }

func (e fixedEvent) SetAttrs(a *unix.PerfEventAttr) error {
	a.Type, a.Config = e.typ, e.config
	return nil
}

func hardware(name string, config uint64) Event {
	return fixedEvent{name, unix.PERF_TYPE_HARDWARE, config}
}

func software(name string, config uint64) Event {
	return fixedEvent{name, unix.PERF_TYPE_SOFTWARE, config}
}

// Generalized hardware events. Not every CPU supports all of them.
var (
	EventCPUCycles       = hardware("cpu-cycles", unix.PERF_COUNT_HW_CPU_CYCLES)
	EventInstructions    = hardware("instructions", unix.PERF_COUNT_HW_INSTRUCTIONS)
	EventCacheReferences = hardware("cache-references", unix.PERF_COUNT_HW_CACHE_REFERENCES)
	EventCacheMisses     = hardware("cache-misses", unix.PERF_COUNT_HW_CACHE_MISSES)
	EventBranches        = hardware("branches", unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS)
	EventBranchMisses    = hardware("branch-misses", unix.PERF_COUNT_HW_BRANCH_MISSES)
	EventBusCycles       = hardware("bus-cycles", unix.PERF_COUNT_HW_BUS_CYCLES)
)

// Software events, counted by the kernel.
var (
	EventCPUClock        = software("cpu-clock", unix.PERF_COUNT_SW_CPU_CLOCK)
	EventTaskClock       = software("task-clock", unix.PERF_COUNT_SW_TASK_CLOCK)
	EventPageFaults      = software("page-faults", unix.PERF_COUNT_SW_PAGE_FAULTS)
	EventContextSwitches = software("context-switches", unix.PERF_COUNT_SW_CONTEXT_SWITCHES)
	EventCPUMigrations   = software("cpu-migrations", unix.PERF_COUNT_SW_CPU_MIGRATIONS)
	EventMinorFaults     = software("minor-faults", unix.PERF_COUNT_SW_PAGE_FAULTS_MIN)
	EventMajorFaults     = software("major-faults", unix.PERF_COUNT_SW_PAGE_FAULTS_MAJ)
)
