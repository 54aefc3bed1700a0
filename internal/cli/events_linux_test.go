// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsList(t *testing.T) {
	out, _, err := execute(t, "events")
	require.NoError(t, err)
	names := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, names, "PAPI_TOT_CYC")
	assert.Contains(t, names, "TOTAL_CYCLES")
	assert.Contains(t, names, "cycles")
	assert.Contains(t, names, "LLC-load-misses")
}

func TestEventsCheck(t *testing.T) {
	out, _, err := execute(t, "events", "--check", "PAPI_TOT_CYC")
	require.NoError(t, err)
	assert.Equal(t, "PAPI_TOT_CYC: ok\n", out)

	_, _, err = execute(t, "events", "--check", "xxx/cycles/")
	assert.Error(t, err)
}
