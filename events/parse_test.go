// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package events

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/sys/unix"
)

const testPerfList = `[
{
	"Unit": "cpu",
	"Topic": "cache",
	"EventName": "l2_rqsts.all_demand_miss",
	"BriefDescription": "Demand requests that miss L2 cache",
	"Encoding": "cpu/event=0x24,umask=0x27/"
}Error: unable to read something
,
{
	"Unit": "cpu",
	"Topic": "memory",
	"EventName": "mem_load_retired.l3_miss",
	"EventAlias": "l3_load_miss",
	"ScaleUnit": "1ops",
	"Encoding": "cpu/event=0xd1,umask=0x20/"
},
{
	"MetricName": "IPC",
	"BriefDescription": "Instructions per cycle"
}
]`

func init() {
	// Switch to a fake PMU file system so we don't depend on the system.
	pmuDir = "testdata/pmufs"
	pmuFS = fstest.MapFS{
		"cpu/type":                      {Data: []byte("4\n")},
		"cpu/format/event":              {Data: []byte("config:0-7\n")},
		"cpu/format/umask":              {Data: []byte("config:8-15\n")},
		"cpu/format/edge":               {Data: []byte("config:18\n")},
		"cpu/format/ldlat":              {Data: []byte("config1:0-15\n")},
		"cpu/events/mem-loads":          {Data: []byte("event=0xcd,umask=0x1,ldlat=3\n")},
		"cpu/events/mem-loads.unit":     {Data: []byte("loads\n")},
		"power/type":                    {Data: []byte("23\n")},
		"power/format/event":            {Data: []byte("config:0-7\n")},
		"power/events/energy-pkg":       {Data: []byte("event=0x02\n")},
		"power/events/energy-pkg.scale": {Data: []byte("2.3283064365386962890625e-10\n")},
		"power/events/energy-pkg.unit":  {Data: []byte("Joules\n")},
	}

	// Stub the perf command.
	perfListHook = func(outBuf io.Writer) {
		io.WriteString(outBuf, testPerfList)
	}
}

func (e *rawEvent) detail() string {
	return fmt.Sprintf("{pmu=%d config=%#x config1=%#x config2=%#x period=%d scale=%g unit=%q}",
		e.pmu, e.config, e.config1, e.config2, e.period, e.scale, e.unit)
}

func TestParseBuiltin(t *testing.T) {
	const (
		hw    = unix.PERF_TYPE_HARDWARE
		sw    = unix.PERF_TYPE_SOFTWARE
		cache = unix.PERF_TYPE_HW_CACHE
	)
	cacheConfig := func(level, op, result uint64) uint64 {
		return level | op<<8 | result<<16
	}
	tests := []struct {
		name   string
		pmu    uint32
		config uint64
	}{
		{"cycles", hw, unix.PERF_COUNT_HW_CPU_CYCLES},
		{"cpu-cycles", hw, unix.PERF_COUNT_HW_CPU_CYCLES},
		{"cpu/cycles/", hw, unix.PERF_COUNT_HW_CPU_CYCLES},
		// "branches" could be a cache event too, but perf prefers the
		// hardware event.
		{"branches", hw, unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS},
		{"ref-cycles", hw, unix.PERF_COUNT_HW_REF_CPU_CYCLES},
		{"cs", sw, unix.PERF_COUNT_SW_CONTEXT_SWITCHES},
		{"task-clock", sw, unix.PERF_COUNT_SW_TASK_CLOCK},
		{"L1-dcache-loads", cache, cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)},
		{"LLC-store-misses", cache, cacheConfig(unix.PERF_COUNT_HW_CACHE_LL, unix.PERF_COUNT_HW_CACHE_OP_WRITE, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
		{"l1d-misses-prefetch", cache, cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_PREFETCH, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
		{"cpu/dTLB-load-misses/", cache, cacheConfig(unix.PERF_COUNT_HW_CACHE_DTLB, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},

		// Presets.
		{"PAPI_TOT_CYC", hw, unix.PERF_COUNT_HW_CPU_CYCLES},
		{"TOTAL_CYCLES", hw, unix.PERF_COUNT_HW_CPU_CYCLES},
		{"PAPI_TOT_INS", hw, unix.PERF_COUNT_HW_INSTRUCTIONS},
		{"PAPI_L1_DCM", cache, cacheConfig(unix.PERF_COUNT_HW_CACHE_L1D, unix.PERF_COUNT_HW_CACHE_OP_READ, unix.PERF_COUNT_HW_CACHE_RESULT_MISS)},
		{"PAPI_BR_MSP", hw, unix.PERF_COUNT_HW_BRANCH_MISSES},
	}
	for _, tc := range tests {
		ev, err := ParseEvent(tc.name)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
			continue
		}
		got := ev.(*rawEvent)
		want := rawEvent{name: tc.name, pmu: tc.pmu, config: tc.config}
		if *got != want {
			t.Errorf("%s: got %s, want %s", tc.name, got.detail(), want.detail())
		}
	}
}

func TestParseBuiltinBad(t *testing.T) {
	for _, name := range []string{
		"xxx/cycles/",       // Unknown PMU
		"cpu/cs/",           // Software events take no PMU
		"cpu/PAPI_TOT_CYC/", // Presets take no PMU
		"L1-icache-stores",  // Not a valid cache op for L1I
		"LLC-loads-bogus",
		"no-such-event",
	} {
		if ev, err := ParseEvent(name); err == nil {
			t.Errorf("%s: expected error, got %s", name, ev.(*rawEvent).detail())
		}
	}
}

func TestParsePMU(t *testing.T) {
	tests := []struct {
		name string
		want rawEvent
	}{
		{"cpu/event=0x3c/", rawEvent{pmu: 4, config: 0x3c}},
		{"cpu/event=0x24,umask=0x27/", rawEvent{pmu: 4, config: 0x2724}},
		{"cpu/event=1,edge/", rawEvent{pmu: 4, config: 1 | 1<<18}},
		{"cpu/config=0x1234,config1=7/", rawEvent{pmu: 4, config: 0x1234, config1: 7}},
		{"cpu/mem-loads/", rawEvent{pmu: 4, config: 0x1cd, config1: 3, scale: 1, unit: "loads"}},
		// Explicit parameters override the named event's, regardless of
		// order.
		{"cpu/umask=2,mem-loads/", rawEvent{pmu: 4, config: 0x2cd, config1: 3, scale: 1, unit: "loads"}},
		{"power/energy-pkg/", rawEvent{pmu: 23, config: 2, scale: 2.3283064365386962890625e-10, unit: "Joules"}},
	}
	for _, tc := range tests {
		ev, err := ParseEvent(tc.name)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
			continue
		}
		got := ev.(*rawEvent)
		tc.want.name = tc.name
		if *got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got.detail(), tc.want.detail())
		}
	}
}

func TestParsePMUErrors(t *testing.T) {
	tests := []struct {
		name string
		err  string
	}{
		{"cpu/event=0x100/", "not in range"},
		{"cpu/bogus/", `unknown event or parameter "bogus"`},
		{"cpu/event=x/", "not a number"},
		{"cpu/=1/", "missing parameter name"},
		{"nope/event=1/", `unknown PMU "nope"`},
		{"cpu/mem-loads,l2_rqsts.all_demand_miss/", "multiple events"},
	}
	for _, tc := range tests {
		_, err := ParseEvent(tc.name)
		if err == nil {
			t.Errorf("%s: expected error containing %q", tc.name, tc.err)
		} else if !strings.Contains(err.Error(), tc.err) {
			t.Errorf("%s: got error %q, want error containing %q", tc.name, err, tc.err)
		}
	}
}

func TestParsePerfJSON(t *testing.T) {
	ev, err := ParseEvent("l2_rqsts.all_demand_miss")
	if err != nil {
		t.Fatal(err)
	}
	got := ev.(*rawEvent)
	want := rawEvent{name: "l2_rqsts.all_demand_miss", pmu: 4, config: 0x2724, scale: 1}
	if *got != want {
		t.Errorf("got %s, want %s", got.detail(), want.detail())
	}

	// By alias, with a ScaleUnit.
	ev, err = ParseEvent("l3_load_miss")
	if err != nil {
		t.Fatal(err)
	}
	scale, unit := ev.(EventScale).ScaleUnit()
	if scale != 1 || unit != "ops" {
		t.Errorf("got scale %g unit %q, want 1 ops", scale, unit)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if !slices.IsSorted(names) {
		t.Errorf("names not sorted")
	}
	for _, want := range []string{"cycles", "instructions", "cs", "PAPI_TOT_CYC", "TOTAL_CYCLES", "L1-dcache-load-misses", "branch-loads"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing %q", want)
		}
	}
	if slices.Contains(names, "L1-icache-stores") {
		t.Errorf("listed invalid cache event L1-icache-stores")
	}
	for _, name := range names {
		if _, err := ParseEvent(name); err != nil {
			t.Errorf("listed name %q doesn't parse: %v", name, err)
		}
	}
}

func TestExtendedNames(t *testing.T) {
	names, err := ExtendedNames()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"l2_rqsts.all_demand_miss", "l3_load_miss", "mem_load_retired.l3_miss"}
	if !slices.Equal(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}

func TestParseScaleUnit(t *testing.T) {
	tests := []struct {
		in    string
		scale float64
		unit  string
	}{
		{"", 1, ""},
		{"1ops", 1, "ops"},
		{"6.103515625e-5MiB", 6.103515625e-5, "MiB"},
		{"100%", 100, "%"},
		{"1events", 1, "events"},
		{" 2 Joules", 2, "Joules"},
		{"3", 3, ""},
	}
	for _, tc := range tests {
		scale, unit, err := parseScaleUnit(tc.in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
		} else if scale != tc.scale || unit != tc.unit {
			t.Errorf("%q: got %g %q, want %g %q", tc.in, scale, unit, tc.scale, tc.unit)
		}
	}
	if _, _, err := parseScaleUnit("ops"); err == nil {
		t.Errorf("expected error for missing factor")
	}
}

func TestParseFormat(t *testing.T) {
	f, err := parseFormat("split", "config1:0-3,8-11\n")
	if err != nil {
		t.Fatal(err)
	}
	var ev rawEvent
	if err := f.set(&ev, 0xab); err != nil {
		t.Fatal(err)
	}
	if ev.config1 != 0xa0b {
		t.Errorf("got config1 %#x, want 0xa0b", ev.config1)
	}
	if err := f.set(&ev, 0x100); err == nil || !strings.Contains(err.Error(), "not in range 0-255") {
		t.Errorf("got error %v, want range error", err)
	}

	for _, bad := range []string{"config", "config3:0", "config:7-3", "config:x", "config:0-64"} {
		if _, err := parseFormat("bad", bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
