// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package events

import (
	"fmt"
	"strconv"
	"strings"
)

// attrField names a perf_event_attr field that event parameters write into.
type attrField uint8

const (
	fieldConfig attrField = iota
	fieldConfig1
	fieldConfig2
	fieldPeriod
)

var attrFieldNames = map[string]attrField{
	"config":  fieldConfig,
	"config1": fieldConfig1,
	"config2": fieldConfig2,
}

func (f attrField) of(e *rawEvent) *uint64 {
	switch f {
	case fieldConfig1:
		return &e.config1
	case fieldConfig2:
		return &e.config2
	case fieldPeriod:
		return &e.period
	}
	return &e.config
}

// bitRange is bits lo through hi inclusive.
type bitRange struct {
	lo, hi int
}

func (r bitRange) width() int { return r.hi - r.lo + 1 }

// A paramFormat places a parameter's value into bit ranges of an attr
// field. The value's low bits fill the first range, the next bits the
// second, and so on.
type paramFormat struct {
	name   string
	field  attrField
	ranges []bitRange
}

var wholeField = []bitRange{{0, 63}}

// genericFormats are the parameters every PMU accepts.
//
// TODO: Perf also accepts config3, name, percore, and metric-id.
var genericFormats = map[string]paramFormat{
	"config":  {"config", fieldConfig, wholeField},
	"config1": {"config1", fieldConfig1, wholeField},
	"config2": {"config2", fieldConfig2, wholeField},
	"period":  {"period", fieldPeriod, wholeField},
}

// set writes val into e, replacing whatever the ranges held.
func (f paramFormat) set(e *rawEvent, val uint64) error {
	dst := f.field.of(e)
	rest := val
	width := 0
	for _, r := range f.ranges {
		w := r.width()
		width += w
		mask := uint64(1)<<w - 1 // All ones when w is 64
		*dst = *dst&^(mask<<r.lo) | (rest&mask)<<r.lo
		rest >>= w
	}
	if rest != 0 {
		return fmt.Errorf("parameter %s=%d not in range 0-%d", f.name, val, uint64(1)<<width-1)
	}
	return nil
}

// parseFormat parses a file from /sys/bus/event_source/devices/*/format/,
// such as "config:0-7,32-35". Ranges are used in the order given.
//
// See https://www.kernel.org/doc/Documentation/ABI/testing/sysfs-bus-event_source-devices-format.
func parseFormat(name, s string) (paramFormat, error) {
	s = strings.TrimSpace(s)
	fieldName, list, ok := strings.Cut(s, ":")
	if !ok {
		return paramFormat{}, fmt.Errorf("format %s: missing ':' in %q", name, s)
	}
	field, ok := attrFieldNames[fieldName]
	if !ok {
		return paramFormat{}, fmt.Errorf("format %s: unknown field %q", name, fieldName)
	}
	f := paramFormat{name: name, field: field}
	for _, part := range strings.Split(list, ",") {
		r, err := parseBitRange(part)
		if err != nil {
			return paramFormat{}, fmt.Errorf("format %s: %w", name, err)
		}
		f.ranges = append(f.ranges, r)
	}
	return f, nil
}

func parseBitRange(s string) (bitRange, error) {
	loS, hiS, isRange := strings.Cut(s, "-")
	lo, err := strconv.Atoi(loS)
	if err != nil {
		return bitRange{}, fmt.Errorf("bad bit range %q", s)
	}
	hi := lo
	if isRange {
		if hi, err = strconv.Atoi(hiS); err != nil {
			return bitRange{}, fmt.Errorf("bad bit range %q", s)
		}
	}
	if lo < 0 || hi < lo || hi > 63 {
		return bitRange{}, fmt.Errorf("bad bit range %q", s)
	}
	return bitRange{lo, hi}, nil
}
