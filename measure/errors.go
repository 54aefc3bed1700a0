// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"errors"
	"fmt"
)

// A Step identifies what a [Counter] was doing when it failed.
type Step string

const (
	StepSetup     Step = "setup"     // Opening the counter session
	StepDuplicate Step = "duplicate" // Cloning the ready session in Start
	StepStart     Step = "start"     // Starting the cloned session
	StepStop      Step = "stop"      // Stopping the running session in End
	StepSample    Step = "sample"    // Extracting the value from the sample
)

var (
	// ErrNotStarted is returned by End when given a session that Start did
	// not return.
	ErrNotStarted = errors.New("session was not started")

	// ErrEmptySample is returned by End when the stopped session produced no
	// counter values.
	ErrEmptySample = errors.New("sample holds no counter values")

	// ErrSampleShape is returned when a session's sample does not hold
	// exactly the one counter a Counter tracks.
	ErrSampleShape = errors.New("sample does not hold exactly one counter")
)

// Error is a failure of a [Counter].
type Error struct {
	Step  Step
	Event string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("perf counter %q: %s: %v", e.Event, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether e invalidates the measurement in progress. Only setup
// errors can be recovered from, by choosing another event.
func (e *Error) Fatal() bool {
	return e.Step != StepSetup
}

// IsFatal reports whether err's chain contains a fatal [*Error].
func IsFatal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Fatal()
}
