// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

// Package perf opens and reads Linux perf_event counters.
package perf

import "runtime"

// Target specifies what goroutine, thread, or CPU a [Counter] should monitor.
type Target interface {
	// pidCPU returns the pid and cpu arguments of perf_event_open.
	pidCPU() (pid, cpu int)

	// acquire and release bracket the lifetime of a Counter.
	acquire()
	release()
}

// TargetThisGoroutine monitors the calling goroutine. Opening a Counter with
// it calls [runtime.LockOSThread], and closing the Counter calls
// [runtime.UnlockOSThread].
var TargetThisGoroutine Target = thisGoroutine{}

type thisGoroutine struct{}

func (thisGoroutine) pidCPU() (pid, cpu int) { return 0, -1 }
func (thisGoroutine) acquire()               { runtime.LockOSThread() }
func (thisGoroutine) release()               { runtime.UnlockOSThread() }
