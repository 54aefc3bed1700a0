// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perf

import (
	"encoding/binary"
	"fmt"
)

// Count is one reading of a Counter event.
//
// If more events are open than the hardware can count at once, the kernel
// multiplexes them and TimeRunning falls behind TimeEnabled. [Count.Value]
// extrapolates assuming events occur at a steady rate.
type Count struct {
	RawValue    uint64 // Events counted while scheduled on the hardware
	TimeEnabled uint64 // Nanoseconds the event was enabled
	TimeRunning uint64 // Nanoseconds the event was actually counting

	scale scale
}

// scale converts raw counts of an event into its unit.
type scale struct {
	factor float64 // 0 means 1
	unit   string
}

// Value returns the count extrapolated over the whole enabled time and
// multiplied by the event's scale factor, along with the event's unit. The
// unit is "" for plain event counts.
func (c Count) Value() (float64, string) {
	factor := c.scale.factor
	if factor == 0 {
		factor = 1
	}
	switch {
	case c.TimeRunning == c.TimeEnabled:
		return float64(c.RawValue) * factor, c.scale.unit
	case c.TimeRunning == 0:
		// Never scheduled, so there's nothing to extrapolate from.
		return 0, c.scale.unit
	}
	ratio := float64(c.TimeEnabled) / float64(c.TimeRunning)
	return float64(c.RawValue) * ratio * factor, c.scale.unit
}

// Sub returns the difference c - base, as if the counter had been reset when
// base was read. perf can reset a counter's value but not its times, so
// intervals are measured against a baseline instead.
func (c Count) Sub(base Count) Count {
	c.RawValue -= base.RawValue
	c.TimeEnabled -= base.TimeEnabled
	c.TimeRunning -= base.TimeRunning
	return c
}

// groupReadSize is the size of a PERF_FORMAT_GROUP read of n events with
// both times: nr, time_enabled, time_running, then one value per event.
func groupReadSize(n int) int {
	return 8 * (3 + n)
}

// decodeGroup decodes a group read of want events into cs, which may be
// shorter than want.
func decodeGroup(buf []byte, want int, scales []scale, cs []Count) error {
	if len(buf) < groupReadSize(0) {
		return fmt.Errorf("short group read: %d bytes", len(buf))
	}
	nr := binary.NativeEndian.Uint64(buf)
	if nr != uint64(want) {
		return fmt.Errorf("read returned %d events, expected %d", nr, want)
	}
	if len(buf) < groupReadSize(want) {
		return fmt.Errorf("short group read: %d bytes for %d events", len(buf), want)
	}
	enabled := binary.NativeEndian.Uint64(buf[8:])
	running := binary.NativeEndian.Uint64(buf[16:])
	for i := range min(len(cs), want) {
		cs[i] = Count{
			RawValue:    binary.NativeEndian.Uint64(buf[24+8*i:]),
			TimeEnabled: enabled,
			TimeRunning: running,
			scale:       scales[i],
		}
	}
	return nil
}
