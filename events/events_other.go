// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

// Package events resolves symbolic performance event names into perf_event
// attributes. Only Linux is supported.
package events

import (
	"errors"
	"fmt"
)

// An Event represents a performance event that perf can count.
type Event interface {
	String() string
}

func ParseEvent(name string) (Event, error) {
	return nil, fmt.Errorf("event %q: %w", name, errors.ErrUnsupported)
}

func Names() []string { return nil }

// EventScale is implemented by events whose raw counts need scaling.
type EventScale interface {
	ScaleUnit() (scale float64, unit string)
}

func ExtendedNames() ([]string, error) {
	return nil, fmt.Errorf("extended events: %w", errors.ErrUnsupported)
}
