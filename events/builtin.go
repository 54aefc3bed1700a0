// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package events

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

type builtinEvent struct {
	pmu    uint32
	config uint64
}

type cacheName struct {
	name   string
	config uint64
}

// builtinTable holds the event names that correspond to well-known perf event
// configs and thus generally don't appear in /sys.
type builtinTable struct {
	cpu      map[string]builtinEvent // No PMU or cpu/ PMU
	software map[string]builtinEvent // No PMU

	cache       []cacheName // Longest names first
	cacheOp     []cacheName
	cacheResult []cacheName
	// Cache level -> bitmap of allowed cache ops.
	cacheAllowed map[uint64]uint8
}

// presets maps PAPI-style preset names onto the perf event they count. They
// are accepted only without a PMU.
var presets = map[string]string{
	"PAPI_TOT_CYC": "cpu-cycles",
	"TOTAL_CYCLES": "cpu-cycles",
	"PAPI_REF_CYC": "ref-cycles",
	"PAPI_TOT_INS": "instructions",
	"PAPI_L1_DCM":  "L1-dcache-load-misses",
	"PAPI_L1_ICM":  "L1-icache-load-misses",
	"PAPI_L3_TCM":  "cache-misses",
	"PAPI_LLC_TCM": "cache-misses",
	"PAPI_L3_TCA":  "cache-references",
	"PAPI_BR_INS":  "branch-instructions",
	"PAPI_BR_MSP":  "branch-misses",
	"PAPI_TLB_DM":  "dTLB-load-misses",
	"PAPI_TLB_IM":  "iTLB-load-misses",
	"PAPI_STL_ICY": "stalled-cycles-frontend",
}

var builtins = sync.OnceValue(func() *builtinTable {
	t := &builtinTable{
		cpu:      make(map[string]builtinEvent),
		software: make(map[string]builtinEvent),
	}

	// See parse-events.c:event_symbols_hw
	hw := func(config uint64, names ...string) {
		for _, name := range names {
			t.cpu[name] = builtinEvent{unix.PERF_TYPE_HARDWARE, config}
		}
	}
	hw(unix.PERF_COUNT_HW_CPU_CYCLES, "cpu-cycles", "cycles")
	hw(unix.PERF_COUNT_HW_INSTRUCTIONS, "instructions")
	hw(unix.PERF_COUNT_HW_CACHE_REFERENCES, "cache-references")
	hw(unix.PERF_COUNT_HW_CACHE_MISSES, "cache-misses")
	hw(unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS, "branch-instructions", "branches")
	hw(unix.PERF_COUNT_HW_BRANCH_MISSES, "branch-misses")
	hw(unix.PERF_COUNT_HW_BUS_CYCLES, "bus-cycles")
	hw(unix.PERF_COUNT_HW_STALLED_CYCLES_FRONTEND, "stalled-cycles-frontend", "idle-cycles-frontend")
	hw(unix.PERF_COUNT_HW_STALLED_CYCLES_BACKEND, "stalled-cycles-backend", "idle-cycles-backend")
	hw(unix.PERF_COUNT_HW_REF_CPU_CYCLES, "ref-cycles")

	// See parse-events.c:event_symbols_sw
	sw := func(config uint64, names ...string) {
		for _, name := range names {
			t.software[name] = builtinEvent{unix.PERF_TYPE_SOFTWARE, config}
		}
	}
	sw(unix.PERF_COUNT_SW_CPU_CLOCK, "cpu-clock")
	sw(unix.PERF_COUNT_SW_TASK_CLOCK, "task-clock")
	sw(unix.PERF_COUNT_SW_PAGE_FAULTS, "page-faults", "faults")
	sw(unix.PERF_COUNT_SW_CONTEXT_SWITCHES, "context-switches", "cs")
	sw(unix.PERF_COUNT_SW_CPU_MIGRATIONS, "cpu-migrations", "migrations")
	sw(unix.PERF_COUNT_SW_PAGE_FAULTS_MIN, "minor-faults")
	sw(unix.PERF_COUNT_SW_PAGE_FAULTS_MAJ, "major-faults")
	sw(unix.PERF_COUNT_SW_ALIGNMENT_FAULTS, "alignment-faults")
	sw(unix.PERF_COUNT_SW_EMULATION_FAULTS, "emulation-faults")
	sw(unix.PERF_COUNT_SW_DUMMY, "dummy")
	sw(unix.PERF_COUNT_SW_BPF_OUTPUT, "bpf-output")

	names := func(dst *[]cacheName, config uint64, names ...string) {
		for _, name := range names {
			*dst = append(*dst, cacheName{name, config})
		}
	}
	// See evsel.c:evsel__hw_cache
	names(&t.cache, unix.PERF_COUNT_HW_CACHE_L1D, "L1-dcache", "l1-d", "l1d", "L1-data")
	names(&t.cache, unix.PERF_COUNT_HW_CACHE_L1I, "L1-icache", "l1-i", "l1i", "L1-instruction")
	names(&t.cache, unix.PERF_COUNT_HW_CACHE_LL, "LLC", "L2")
	names(&t.cache, unix.PERF_COUNT_HW_CACHE_DTLB, "dTLB", "d-tlb", "Data-TLB")
	names(&t.cache, unix.PERF_COUNT_HW_CACHE_ITLB, "iTLB", "i-tlb", "Instruction-TLB")
	names(&t.cache, unix.PERF_COUNT_HW_CACHE_BPU, "branch", "branches", "bpu", "btb", "bpc")
	names(&t.cache, unix.PERF_COUNT_HW_CACHE_NODE, "node")
	// See evsel.c:evsel__hw_cache_op
	names(&t.cacheOp, unix.PERF_COUNT_HW_CACHE_OP_READ, "load", "loads", "read")
	names(&t.cacheOp, unix.PERF_COUNT_HW_CACHE_OP_WRITE, "store", "stores", "write")
	names(&t.cacheOp, unix.PERF_COUNT_HW_CACHE_OP_PREFETCH, "prefetch", "prefetches", "speculative-read", "speculative-load")
	// See evsel.c:evsel__hw_cache_result
	names(&t.cacheResult, unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS, "refs", "Reference", "ops", "access")
	names(&t.cacheResult, unix.PERF_COUNT_HW_CACHE_RESULT_MISS, "misses", "miss")
	for _, list := range [][]cacheName{t.cache, t.cacheOp, t.cacheResult} {
		// Longer names must match first.
		sort.SliceStable(list, func(i, j int) bool {
			return len(list[i].name) > len(list[j].name)
		})
	}

	r := uint8(1) << unix.PERF_COUNT_HW_CACHE_OP_READ
	w := uint8(1) << unix.PERF_COUNT_HW_CACHE_OP_WRITE
	p := uint8(1) << unix.PERF_COUNT_HW_CACHE_OP_PREFETCH
	t.cacheAllowed = map[uint64]uint8{
		unix.PERF_COUNT_HW_CACHE_L1D:  r | w | p,
		unix.PERF_COUNT_HW_CACHE_L1I:  r | p,
		unix.PERF_COUNT_HW_CACHE_LL:   r | w | p,
		unix.PERF_COUNT_HW_CACHE_DTLB: r | w | p,
		unix.PERF_COUNT_HW_CACHE_ITLB: r,
		unix.PERF_COUNT_HW_CACHE_BPU:  r,
		unix.PERF_COUNT_HW_CACHE_NODE: r | w | p,
	}
	return t
})

func resolveBuiltinEvent(pmu, eventName string) (builtinEvent, bool) {
	t := builtins()

	// All builtin events are either under no PMU or under cpu/.
	if !(pmu == "" || pmu == "cpu") {
		return builtinEvent{}, false
	}

	if pmu == "" {
		if target, ok := presets[eventName]; ok {
			eventName = target
		}
	}

	// CPU events can be used with or without a PMU name.
	if e, ok := t.cpu[eventName]; ok {
		return e, true
	}

	// Software events can only be used with no PMU name.
	if pmu == "" {
		if e, ok := t.software[eventName]; ok {
			return e, true
		}
	}

	return t.resolveCache(eventName)
}

// resolveCache parses a legacy cache event name, which can be used with or
// without a PMU name. See parse-events.c:parse_events__decode_legacy_cache and
// parse-events.l:PE_LEGACY_CACHE.
func (t *builtinTable) resolveCache(eventName string) (builtinEvent, bool) {
	config, s, ok := matchCacheName(eventName, t.cache)
	if !ok {
		return builtinEvent{}, false
	}

	// Perf accepts up to two more fields, op and result, in either order.
	op := uint64(unix.PERF_COUNT_HW_CACHE_OP_READ)
	result := uint64(unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS)
	var haveOp, haveResult bool
	for i := 0; i < 2 && s != ""; i++ {
		if !haveOp {
			if v, rest, ok := matchCacheName(s, t.cacheOp); ok {
				op, s, haveOp = v, rest, true
				continue
			}
		}
		if !haveResult {
			if v, rest, ok := matchCacheName(s, t.cacheResult); ok {
				result, s, haveResult = v, rest, true
				continue
			}
		}
	}
	if s != "" || t.cacheAllowed[config]&(1<<op) == 0 {
		return builtinEvent{}, false
	}
	return builtinEvent{unix.PERF_TYPE_HW_CACHE, config | op<<8 | result<<16}, true
}

// matchCacheName matches a prefix of s against names. It returns the matched
// config and whatever follows the name and its "-" separator.
func matchCacheName(s string, names []cacheName) (uint64, string, bool) {
	for _, n := range names {
		if s == n.name {
			return n.config, "", true
		}
		if strings.HasPrefix(s, n.name) && s[len(n.name)] == '-' {
			return n.config, s[len(n.name)+1:], true
		}
	}
	return 0, "", false
}

// Names returns the symbolic event names that resolve without consulting the
// system: perf's hardware and software event names plus the preset aliases.
// Cache events are listed in their canonical level-op-result form.
func Names() []string {
	t := builtins()
	var out []string
	for name := range t.cpu {
		out = append(out, name)
	}
	for name := range t.software {
		out = append(out, name)
	}
	for name := range presets {
		out = append(out, name)
	}
	ops := [][2]string{{"load", "loads"}, {"store", "stores"}, {"prefetch", "prefetches"}}
	for _, level := range []string{"L1-dcache", "L1-icache", "LLC", "dTLB", "iTLB", "branch", "node"} {
		for _, op := range ops {
			// perf's canonical spellings, e.g. L1-dcache-loads and
			// L1-dcache-load-misses.
			for _, name := range []string{level + "-" + op[1], level + "-" + op[0] + "-misses"} {
				if _, ok := t.resolveCache(name); ok {
					out = append(out, name)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}
