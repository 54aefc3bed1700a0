// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package events

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
)

// The event source devices. Tests replace these with a stub file system.
var (
	pmuDir = "/sys/bus/event_source/devices"
	pmuFS  = os.DirFS(pmuDir)
)

// A pmuDesc describes one PMU as published in sysfs.
type pmuDesc struct {
	pmu     uint32                 // perf_event_attr type
	formats map[string]paramFormat // PMU-specific parameters
	events  map[string]*pmuEvent
}

// A pmuEvent is an event alias from a PMU's events directory.
type pmuEvent struct {
	params []eventParam
	scale  float64
	unit   string
}

// getFormat returns how to apply parameter param, such as "event" or "edge"
// in "cpu/event=0x3c,edge/".
func (d *pmuDesc) getFormat(param string) (paramFormat, bool) {
	if f, ok := genericFormats[param]; ok {
		return f, true
	}
	f, ok := d.formats[param]
	return f, ok
}

// resolvePMUEvent resolves an event alias published by the PMU itself.
func resolvePMUEvent(pmu *pmuDesc, eventName string, ev *rawEvent) error {
	alias, ok := pmu.events[eventName]
	if !ok {
		return errUnknownEvent
	}
	for _, param := range alias.params {
		f, ok := pmu.getFormat(param.k)
		if !ok {
			return fmt.Errorf("event %s: unknown parameter %q", eventName, param.k)
		}
		if err := f.set(ev, param.v); err != nil {
			return fmt.Errorf("event %s: %w", eventName, err)
		}
	}
	ev.scale, ev.unit = alias.scale, alias.unit
	return nil
}

// pmus caches the description of each PMU by name.
var pmus = newLazyMap(loadPMU)

func loadPMU(name string) (*pmuDesc, error) {
	typ, err := readPMUType(name)
	if err != nil {
		return nil, err
	}
	d := &pmuDesc{
		pmu:     typ,
		formats: make(map[string]paramFormat),
		events:  make(map[string]*pmuEvent),
	}
	if err := eachFile(path.Join(name, "format"), d.addFormatFile); err != nil {
		return nil, err
	}
	// See https://www.kernel.org/doc/Documentation/ABI/testing/sysfs-bus-event_source-devices-events.
	if err := eachFile(path.Join(name, "events"), d.addEventFile); err != nil {
		return nil, err
	}
	return d, nil
}

func readPMUType(name string) (uint32, error) {
	data, err := fs.ReadFile(pmuFS, path.Join(name, "type"))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("unknown PMU %q", name)
	} else if err != nil {
		return 0, fmt.Errorf("unknown PMU %q: %w", name, err)
	}
	s := strings.TrimSpace(string(data))
	typ, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("PMU %q: bad type %q: %w", name, s, err)
	}
	return uint32(typ), nil
}

func (d *pmuDesc) addFormatFile(name, data string) error {
	f, err := parseFormat(name, data)
	if err != nil {
		return err
	}
	d.formats[name] = f
	return nil
}

// addEventFile records one file from a PMU's events directory. Files arrive
// in name order, so an event is always seen before its .scale and .unit.
func (d *pmuDesc) addEventFile(name, data string) error {
	data = strings.TrimSpace(data)
	base, suffix, _ := strings.Cut(name, ".")
	switch suffix {
	case "":
		params, err := parseParamList(data)
		if err != nil {
			return err
		}
		d.events[name] = &pmuEvent{params: params, scale: 1}
	case "scale":
		if ev := d.events[base]; ev != nil {
			s, err := strconv.ParseFloat(data, 64)
			if err != nil {
				return fmt.Errorf("bad scale %q", data)
			}
			ev.scale = s
		}
	case "unit":
		if ev := d.events[base]; ev != nil {
			ev.unit = data
		}
	}
	// Other suffixes, such as .per-pkg and .snapshot, don't affect counting.
	return nil
}

// eachFile calls f with the name and contents of each file in dir of pmuFS.
// A missing dir has no files.
func eachFile(dir string, f func(name, data string) error) error {
	ents, err := fs.ReadDir(pmuFS, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("reading %s: %w", path.Join(pmuDir, dir), err)
	}
	for _, ent := range ents {
		p := path.Join(dir, ent.Name())
		data, err := fs.ReadFile(pmuFS, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path.Join(pmuDir, p), err)
		}
		if err := f(ent.Name(), string(data)); err != nil {
			return fmt.Errorf("%s: %w", path.Join(pmuDir, p), err)
		}
	}
	return nil
}
