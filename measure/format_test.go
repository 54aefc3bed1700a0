// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfmeasure/perfmeasure/measure"
)

func TestCountFormatter(t *testing.T) {
	f := measure.CountFormatter("cycles")

	tests := []struct {
		value float64
		want  string
	}{
		{0, "0 cycles"},
		{999, "999 cycles"},
		{1500, "1.5 K cycles"},
		{2500000, "2.5 M cycles"},
		{3e9, "3 G cycles"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, f.Format(tc.value))
	}

	values := []float64{1e6, 2e6, 4e6}
	assert.Equal(t, "M cycles", f.ScaleValues(2e6, values))
	assert.InDeltaSlice(t, []float64{1, 2, 4}, values, 1e-9)

	machine := []float64{1e6, 2e6}
	assert.Equal(t, "cycles", f.ScaleForMachines(machine))
	assert.Equal(t, []float64{1e6, 2e6}, machine)
}

func TestCountFormatterThroughput(t *testing.T) {
	f := measure.CountFormatter("cache-misses")

	values := []float64{400, 800}
	unit := f.ScaleThroughputs(400, measure.Throughput{Bytes: 4}, values)
	assert.Equal(t, "cache-misses/B", unit)
	assert.InDeltaSlice(t, []float64{100, 200}, values, 1e-9)

	assert.Equal(t, "2 K cache-misses/elem", f.FormatThroughput(measure.Throughput{Elements: 10}, 20000))
	// No throughput falls back to plain values.
	assert.Equal(t, "20 K cache-misses", f.FormatThroughput(measure.Throughput{}, 20000))
}

func TestDurationFormatter(t *testing.T) {
	f := measure.DurationFormatter()
	assert.Equal(t, "500 ns", f.Format(500))
	assert.Equal(t, "1.5 µs", f.Format(1500))
	assert.Equal(t, "2 ms", f.Format(2e6))
	assert.Equal(t, "3 s", f.Format(3e9))

	// 1000 bytes per 1µs is 1 GB/s.
	assert.Equal(t, "1 GB/s", f.FormatThroughput(measure.Throughput{Bytes: 1000}, 1000))
	assert.Equal(t, "ns", f.ScaleForMachines(nil))
}

func TestWallTime(t *testing.T) {
	var m measure.WallTime
	start, err := m.Start()
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	d, err := m.End(start)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, time.Millisecond)

	assert.Equal(t, 3*time.Second, m.Add(time.Second, 2*time.Second))
	assert.Equal(t, time.Second, m.Add(m.Zero(), time.Second))
	assert.Equal(t, 1500.0, m.ToF64(1500*time.Nanosecond))
	assert.Equal(t, "ns", m.Formatter().ScaleForMachines(nil))
}
