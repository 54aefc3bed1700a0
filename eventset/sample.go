// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset

import (
	"fmt"
	"slices"
	"strings"
)

// A Sample holds one value for each event of an event set, in the order the
// events were added.
//
// A Sample's shape (its event names) is set by [Ready.InitSample] or
// [Sample.Init] and does not change after that. The zero Sample is empty.
type Sample struct {
	names  []string // Immutable once set, so clones share it
	values []int64
}

// Init gives s the shape names and zeroes its values.
func (s *Sample) Init(names []string) {
	s.names = slices.Clip(slices.Clone(names))
	s.values = make([]int64, len(names))
}

// Len returns the number of events in s.
func (s *Sample) Len() int {
	return len(s.names)
}

// Names returns the event names of s in order. The caller must not modify
// the returned slice.
func (s *Sample) Names() []string {
	return s.names
}

// At returns the name and value of the i'th event in s.
func (s *Sample) At(i int) (name string, value int64) {
	return s.names[i], s.values[i]
}

// Get returns the value of the named event.
func (s *Sample) Get(name string) (int64, bool) {
	i := slices.Index(s.names, name)
	if i < 0 {
		return 0, false
	}
	return s.values[i], true
}

// Set sets the value of the named event. The event must be part of s's shape.
func (s *Sample) Set(name string, value int64) error {
	i := slices.Index(s.names, name)
	if i < 0 {
		return fmt.Errorf("event %q not in sample %v", name, s.names)
	}
	s.values[i] = value
	return nil
}

// Clone returns a copy of s with the same shape. Values of the copy can be
// changed independently of s.
func (s *Sample) Clone() Sample {
	return Sample{names: s.names, values: slices.Clone(s.values)}
}

// SameShape reports whether s and o hold the same events in the same order.
func (s *Sample) SameShape(o *Sample) bool {
	return slices.Equal(s.names, o.names)
}

func (s *Sample) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %d", name, s.values[i])
	}
	sb.WriteByte('}')
	return sb.String()
}
