// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/perfmeasure/perfmeasure/events"
)

var errClosed = errors.New("counter is closed")

// A Counter reports the number of times a [events.Event] or group of Events
// occurred.
type Counter struct {
	target  Target
	files   []*os.File // Leader first. nil once closed.
	scales  []scale
	running bool
	buf     []byte
}

// OpenCounter returns a new [Counter] that reads values for the given
// [events.Event] or group of Events on the given [Target]. Callers are
// expected to call [Counter.Close] when done with this Counter.
//
// If multiple events are given, they are opened as a group, which means they
// will all be scheduled onto the hardware at the same time. Only user-space
// events are counted.
//
// The counter is initially not running. Call [Counter.Start] to start it.
func OpenCounter(target Target, evs ...events.Event) (_ *Counter, err error) {
	if len(evs) == 0 {
		return nil, errors.New("no events to count")
	}

	c := &Counter{
		target: target,
		scales: make([]scale, len(evs)),
		buf:    make([]byte, groupReadSize(len(evs))),
	}
	for i, ev := range evs {
		c.scales[i] = scale{factor: 1}
		if es, ok := ev.(events.EventScale); ok {
			c.scales[i].factor, c.scales[i].unit = es.ScaleUnit()
		}
	}

	target.acquire()
	defer func() {
		if err != nil {
			for _, f := range c.files {
				f.Close()
			}
			target.release()
		}
	}()

	pid, cpu := target.pidCPU()
	leader := -1
	for i, ev := range evs {
		fd, err := openEvent(ev, pid, cpu, leader)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", ev, err)
		}
		if i == 0 {
			leader = fd
		}
		// Members are read through the leader, but their FDs must stay
		// open to keep them in the group.
		c.files = append(c.files, os.NewFile(uintptr(fd), "<perf-event>"))
	}
	return c, nil
}

// openEvent opens one event. With leader < 0, it opens a disabled group
// leader. Otherwise it opens an enabled member of leader's group, which
// counts whenever the leader does.
func openEvent(ev events.Event, pid, cpu, leader int) (int, error) {
	attr := unix.PerfEventAttr{}
	attr.Size = uint32(unsafe.Sizeof(attr))
	if err := ev.SetAttrs(&attr); err != nil {
		return -1, err
	}
	// Leaving out the kernel lets unprivileged users count when
	// perf_event_paranoid is 2.
	attr.Bits = unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv
	if leader < 0 {
		attr.Bits |= unix.PerfBitDisabled
		attr.Read_format = unix.PERF_FORMAT_GROUP |
			unix.PERF_FORMAT_TOTAL_TIME_ENABLED |
			unix.PERF_FORMAT_TOTAL_TIME_RUNNING
	}
	fd, err := unix.PerfEventOpen(&attr, pid, cpu, leader, unix.PERF_FLAG_FD_CLOEXEC)
	if errors.Is(err, syscall.EACCES) {
		err = paranoidHint(err)
	}
	return fd, err
}

const paranoidPath = "/proc/sys/kernel/perf_event_paranoid"

// paranoidHint adds a suggestion to err unless perf_event_paranoid already
// allows everything.
func paranoidHint(err error) error {
	data, rerr := os.ReadFile(paranoidPath)
	if rerr == nil {
		if v, perr := strconv.Atoi(string(bytes.TrimSpace(data))); perr == nil && v <= 0 {
			return err
		}
	}
	return fmt.Errorf("%w (consider: echo 0 | sudo tee %s)", err, paranoidPath)
}

// Close closes this counter and releases its target. For
// [TargetThisGoroutine], this unlocks the goroutine from its OS thread.
func (c *Counter) Close() {
	if c == nil || c.files == nil {
		return
	}
	for _, f := range c.files {
		f.Close()
	}
	c.files = nil
	c.running = false
	c.target.release()
}

// ioctl applies a PERF_EVENT_IOC request to the group leader.
func (c *Counter) ioctl(req uint) error {
	if c.files == nil {
		return errClosed
	}
	return unix.IoctlSetInt(int(c.files[0].Fd()), req, 0)
}

// Start the counter. Starting a running counter does nothing.
func (c *Counter) Start() error {
	if c == nil || c.running {
		return nil
	}
	if err := c.ioctl(unix.PERF_EVENT_IOC_ENABLE); err != nil {
		return fmt.Errorf("enabling counter: %w", err)
	}
	c.running = true
	return nil
}

// Stop the counter. Stopping a stopped counter does nothing.
func (c *Counter) Stop() error {
	if c == nil || !c.running {
		return nil
	}
	if err := c.ioctl(unix.PERF_EVENT_IOC_DISABLE); err != nil {
		return fmt.Errorf("disabling counter: %w", err)
	}
	c.running = false
	return nil
}

// Running reports whether c is started.
func (c *Counter) Running() bool {
	return c != nil && c.running
}

// NumEvents returns the number of events counted by c.
func (c *Counter) NumEvents() int {
	if c == nil {
		return 0
	}
	return len(c.scales)
}

// ReadOne returns the current value of the first event in c. For counters that
// only have a single Event, this is faster and more ergonomic than
// [Counter.ReadGroup].
func (c *Counter) ReadOne() (Count, error) {
	var cs [1]Count
	err := c.ReadGroup(cs[:])
	return cs[0], err
}

// ReadGroup reads the current value of each event in c into cs. If cs is
// shorter than the group, the remaining events are dropped.
func (c *Counter) ReadGroup(cs []Count) error {
	if c == nil {
		return nil
	}
	if c.files == nil {
		return errClosed
	}
	n, err := c.files[0].Read(c.buf)
	if err != nil {
		return err
	}
	return decodeGroup(c.buf[:n], len(c.scales), c.scales, cs)
}
