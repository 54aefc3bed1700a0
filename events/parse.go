// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package events

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// rawEvent is a fully resolved event.
type rawEvent struct {
	name    string
	pmu     uint32
	config  uint64
	config1 uint64
	config2 uint64
	period  uint64

	scale float64 // 0 means 1
	unit  string
}

var _ EventScale = (*rawEvent)(nil)

func (e *rawEvent) String() string {
	return e.name
}

func (e *rawEvent) SetAttrs(attr *unix.PerfEventAttr) error {
	attr.Type = e.pmu
	attr.Config = e.config
	attr.Ext1 = e.config1
	attr.Ext2 = e.config2
	attr.Sample = e.period // Union of sample_period and sample_freq
	return nil
}

func (e *rawEvent) ScaleUnit() (float64, string) {
	if e.scale == 0 {
		return 1.0, e.unit
	}
	return e.scale, e.unit
}

// ParseEvent resolves an event name. It accepts the symbolic names understood
// by "perf stat -e" (cycles, L1-dcache-load-misses, ...), PAPI-style preset
// names such as PAPI_TOT_CYC, PMU encodings of the form pmu/k=v,.../, and the
// extended CPU events reported by "perf list -j".
//
// The returned Event's String method returns name unchanged.
func ParseEvent(name string) (Event, error) {
	// TODO: Support raw rNNN events and :u/:k modifiers.
	pmu, params, err := parsePMUEvent(name)
	if errors.Is(err, errNotPMUEvent) {
		// A symbolic name stands alone.
		pmu, params = "", []eventParam{{k: name, v: 1, kOnly: true}}
	} else if err != nil {
		return nil, err
	}
	ev, err := resolveEvent(name, pmu, params)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

var errNotPMUEvent = errors.New("not a PMU format event")

// parsePMUEvent splits an event of the form pmu/k=v,.../ into the PMU name and
// its parameters.
func parsePMUEvent(name string) (pmu string, params []eventParam, err error) {
	pmu, rest, ok := strings.Cut(name, "/")
	if !ok || pmu == "" {
		return "", nil, errNotPMUEvent
	}
	list, ok := strings.CutSuffix(rest, "/")
	if !ok || strings.Contains(list, "/") {
		return "", nil, errNotPMUEvent
	}
	if params, err = parseParamList(list); err != nil {
		return "", nil, fmt.Errorf("event %q: %w", name, err)
	}
	return pmu, params, nil
}

// An eventParam is one k or k=v term of an event description.
type eventParam struct {
	k     string
	v     uint64
	kOnly bool // A lone k: an event name, or a flag meaning k=1
}

// parseParamList parses a comma-separated list of terms. Values may be
// decimal, hex, or octal.
//
// See https://www.kernel.org/doc/Documentation/ABI/testing/sysfs-bus-event_source-devices-events.
func parseParamList(list string) ([]eventParam, error) {
	terms := strings.Split(list, ",")
	params := make([]eventParam, 0, len(terms))
	for _, term := range terms {
		k, vs, hasV := strings.Cut(term, "=")
		if k == "" {
			return nil, fmt.Errorf("parameter list %q: missing parameter name in %q", list, term)
		}
		p := eventParam{k: k, v: 1, kOnly: !hasV}
		if hasV {
			v, err := strconv.ParseUint(vs, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter list %q: parameter %q not a number", list, term)
			}
			p.v = v
		}
		params = append(params, p)
	}
	return params, nil
}

// An eventResolver looks up eventName on pmu and fills in ev. It returns
// errUnknownEvent if it doesn't know the name.
type eventResolver func(pmu *pmuDesc, eventName string, ev *rawEvent) error

var errUnknownEvent = errors.New("unknown event")

var eventResolvers = []eventResolver{
	resolvePMUEvent,
	resolvePerfJsonEvent,
}

// resolveEvent resolves an event in the form pmu/param1=N,.../ or a symbolic
// event. Symbolic events have pmu == "" and a single kOnly param.
func resolveEvent(enc string, pmu string, params []eventParam) (*rawEvent, error) {
	event := &rawEvent{name: enc}

	// Events with perf constants are baked in and don't necessarily appear in
	// /sys. Perf prefers these over the encodings in /sys.
	if len(params) == 1 && params[0].kOnly {
		if ev, ok := resolveBuiltinEvent(pmu, params[0].k); ok {
			event.pmu = ev.pmu
			event.config = ev.config
			return event, nil
		}
	}

	// A symbolic event that isn't builtin implies the CPU PMU.
	symbolic := pmu == ""
	if symbolic {
		pmu = "cpu"
	}

	desc, err := pmus.get(pmu)
	if err != nil {
		if symbolic {
			return nil, fmt.Errorf("unknown event %q", enc)
		}
		return nil, err
	}
	event.pmu = desc.pmu

	// Resolve the event name, if any. Its encoding is applied first so the
	// explicit parameters override it regardless of order.
	named := ""
	var formats []eventParam
Params:
	for _, param := range params {
		if _, ok := desc.getFormat(param.k); ok {
			formats = append(formats, param)
			continue
		}
		if param.kOnly {
			for _, r := range eventResolvers {
				err := r(desc, param.k, event)
				if err == errUnknownEvent {
					continue
				} else if err != nil {
					return nil, err
				}
				if named != "" {
					return nil, fmt.Errorf("event %q: multiple events %q and %q", enc, named, param.k)
				}
				named = param.k
				continue Params
			}
		}
		if symbolic {
			return nil, fmt.Errorf("unknown event %q", enc)
		}
		return nil, fmt.Errorf("event %q: unknown event or parameter %q", enc, param.k)
	}

	for _, param := range formats {
		f, _ := desc.getFormat(param.k)
		if err := f.set(event, param.v); err != nil {
			return nil, fmt.Errorf("event %q: %w", enc, err)
		}
	}
	return event, nil
}
