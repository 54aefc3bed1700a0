// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workload provides small synthetic routines with distinct hardware
// counter profiles, for exercising the measurements from the command line.
package workload

import (
	"fmt"
	"math/rand"
	"slices"
)

// Workload is a routine that can be run a given number of iterations.
type Workload interface {
	// Name returns the workload's type name.
	Name() string

	// Description returns what the workload stresses.
	Description() string

	// Run performs iters iterations.
	Run(iters int)
}

// Type names a workload.
type Type string

const (
	Loop   Type = "loop"
	Alloc  Type = "alloc"
	Stride Type = "stride"
	Branch Type = "branch"
)

var constructors = map[Type]func(seed int64) Workload{
	Loop:   func(int64) Workload { return &loop{} },
	Alloc:  func(int64) Workload { return &alloc{} },
	Stride: func(int64) Workload { return newStride() },
	Branch: newBranch,
}

// Types returns the known workload types in sorted order.
func Types() []Type {
	out := make([]Type, 0, len(constructors))
	for t := range constructors {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// New returns a workload of type t. seed makes randomized workloads
// deterministic.
func New(t Type, seed int64) (Workload, error) {
	c, ok := constructors[t]
	if !ok {
		return nil, fmt.Errorf("unknown workload %q (known: %v)", t, Types())
	}
	return c(seed), nil
}

// sink keeps results alive so the compiler can't drop the work.
var sink uint64

type loop struct{}

func (*loop) Name() string        { return string(Loop) }
func (*loop) Description() string { return "integer adds, almost no memory traffic" }

func (*loop) Run(iters int) {
	var s uint64
	for i := 0; i < iters; i++ {
		s += uint64(i)
	}
	sink += s
}

type alloc struct {
	keep [][]byte
}

func (*alloc) Name() string        { return string(Alloc) }
func (*alloc) Description() string { return "one 64 byte heap allocation per iteration" }

func (a *alloc) Run(iters int) {
	if a.keep == nil {
		a.keep = make([][]byte, 1024)
	}
	for i := 0; i < iters; i++ {
		b := make([]byte, 64)
		b[0] = byte(i)
		a.keep[i%len(a.keep)] = b
	}
}

const (
	strideBuf  = 64 << 20
	strideStep = 4096 + 64 // Page and cache-line hopping
)

type stride struct {
	buf []byte
	pos int
}

func newStride() *stride {
	return &stride{buf: make([]byte, strideBuf)}
}

func (*stride) Name() string        { return string(Stride) }
func (*stride) Description() string { return "one load per iteration across a 64 MiB buffer, missing caches and TLB" }

func (s *stride) Run(iters int) {
	var sum uint64
	pos := s.pos
	for i := 0; i < iters; i++ {
		sum += uint64(s.buf[pos])
		s.buf[pos]++
		pos += strideStep
		if pos >= len(s.buf) {
			pos -= len(s.buf)
		}
	}
	s.pos = pos
	sink += sum
}

type branch struct {
	bits []bool
	pos  int
}

func newBranch(seed int64) Workload {
	rng := rand.New(rand.NewSource(seed))
	bits := make([]bool, 1<<16)
	for i := range bits {
		bits[i] = rng.Intn(2) == 0
	}
	return &branch{bits: bits}
}

func (*branch) Name() string        { return string(Branch) }
func (*branch) Description() string { return "one unpredictable conditional branch per iteration" }

func (b *branch) Run(iters int) {
	var taken uint64
	pos := b.pos
	for i := 0; i < iters; i++ {
		if b.bits[pos] {
			taken++
		} else {
			taken += 3
		}
		pos++
		if pos == len(b.bits) {
			pos = 0
		}
	}
	b.pos = pos
	sink += taken
}
