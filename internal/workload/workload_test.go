// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	assert.Equal(t, []Type{Alloc, Branch, Loop, Stride}, Types())
}

func TestRunAll(t *testing.T) {
	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			w, err := New(typ, 1)
			require.NoError(t, err)
			assert.Equal(t, string(typ), w.Name())
			assert.NotEmpty(t, w.Description())
			w.Run(0)
			w.Run(100000)
		})
	}
}

func TestUnknown(t *testing.T) {
	_, err := New("spin", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown workload "spin"`)
}

func TestStrideWraps(t *testing.T) {
	s := newStride()
	n := strideBuf/strideStep + 10
	s.Run(n)
	assert.Less(t, s.pos, strideBuf)
	assert.Equal(t, (n*strideStep)%strideBuf, s.pos)
}

func TestBranchSeeded(t *testing.T) {
	a := newBranch(7).(*branch)
	b := newBranch(7).(*branch)
	c := newBranch(8).(*branch)
	assert.Equal(t, a.bits, b.bits)
	assert.NotEqual(t, a.bits, c.bits)
}
