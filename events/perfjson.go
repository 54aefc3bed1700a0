// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// perfEvent is one entry of "perf list -j". Metrics have an empty EventName
// and are dropped.
type perfEvent struct {
	Unit             string
	Topic            string
	EventName        string
	EventAlias       string
	ScaleUnit        string
	BriefDescription string
	Encoding         string
}

// perfList indexes perf's extended events by name and alias.
type perfList map[string]*perfEvent

// perfListHook, if set, writes "perf list -j" output instead of running perf.
var perfListHook func(out io.Writer)

var loadPerfList = sync.OnceValues(func() (perfList, error) {
	var out, stderr bytes.Buffer
	if perfListHook != nil {
		perfListHook(&out)
		return decodePerfList(out.Bytes())
	}
	cmd := exec.Command("perf", "list", "-j")
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, perfListError(err, stderr.String())
	}
	return decodePerfList(out.Bytes())
})

func perfListError(err error, stderr string) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return errors.New("perf command not found; cannot enumerate extended events")
	case strings.Contains(stderr, "Error: unknown switch `j'"):
		// JSON output needs perf 6.2 or later.
		return errors.New("perf version must be >= 6.2; cannot enumerate extended events")
	case stderr != "":
		return fmt.Errorf("perf list -j failed:\n%s", strings.TrimSpace(stderr))
	}
	return fmt.Errorf("perf list -j failed: %w", err)
}

// Some perf versions print errors to stdout in the middle of the JSON.
var perfErrRe = regexp.MustCompile(`\}Error: .*`)

func decodePerfList(data []byte) (perfList, error) {
	data = perfErrRe.ReplaceAllLiteral(data, []byte(`}`))
	var entries []*perfEvent
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding perf list -j output: %w", err)
	}
	list := make(perfList)
	for _, ev := range entries {
		if ev.EventName == "" {
			continue
		}
		list[ev.EventName] = ev
		if ev.EventAlias != "" {
			list[ev.EventAlias] = ev
		}
	}
	return list, nil
}

// ExtendedNames returns the names and aliases of the CPU events known to the
// installed perf tool, sorted. These are in addition to [Names].
func ExtendedNames() ([]string, error) {
	list, err := loadPerfList()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list))
	for name := range list {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// resolvePerfJsonEvent resolves a CPU event from perf's own tables. These
// don't appear in /sys.
func resolvePerfJsonEvent(pmu *pmuDesc, eventName string, ev *rawEvent) error {
	if pmu.pmu != unix.PERF_TYPE_RAW {
		return errUnknownEvent
	}
	list, err := loadPerfList()
	if err != nil {
		return err
	}
	pe, ok := list[eventName]
	if !ok {
		return errUnknownEvent
	}
	return pe.apply(pmu, ev)
}

// apply sets ev to pe's encoding, using pmu's formats.
func (pe *perfEvent) apply(pmu *pmuDesc, ev *rawEvent) error {
	if pe.Encoding == "" {
		return fmt.Errorf("unsupported event %q: perf list -j gives no encoding", pe.EventName)
	}
	pmuName, params, err := parsePMUEvent(pe.Encoding)
	if err == nil && pmuName != "cpu" {
		err = fmt.Errorf("PMU %q is not cpu", pmuName)
	}
	if err != nil {
		return fmt.Errorf("event %q: bad encoding %q: %w", pe.EventName, pe.Encoding, err)
	}
	scale, unit, err := parseScaleUnit(pe.ScaleUnit)
	if err != nil {
		return fmt.Errorf("event %q: %w", pe.EventName, err)
	}

	for _, param := range params {
		f, ok := pmu.getFormat(param.k)
		if !ok {
			return fmt.Errorf("event %q: unknown parameter %q in encoding %q", pe.EventName, param.k, pe.Encoding)
		}
		if err := f.set(ev, param.v); err != nil {
			return err
		}
	}
	ev.scale, ev.unit = scale, unit
	return nil
}

// parseScaleUnit splits a perf ScaleUnit such as "6.1e-5MiB" into its factor
// and unit. An empty string means a factor of 1 and no unit.
func parseScaleUnit(s string) (float64, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, "", nil
	}
	// Take the longest numeric prefix.
	for i := len(s); i > 0; i-- {
		if v, err := strconv.ParseFloat(s[:i], 64); err == nil {
			return v, strings.TrimSpace(s[i:]), nil
		}
	}
	return 0, "", fmt.Errorf("bad ScaleUnit %q", s)
}
