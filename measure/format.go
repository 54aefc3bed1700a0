// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"fmt"
	"math"
)

// Throughput is the amount of work done by one iteration of a benchmark.
// At most one field should be non-zero.
type Throughput struct {
	Bytes    uint64
	Elements uint64
}

// A ValueFormatter presents measured values to people and programs. It plays
// no part in measuring.
type ValueFormatter interface {
	// Format formats one value with its unit.
	Format(value float64) string

	// FormatThroughput formats the throughput implied by one iteration
	// measuring value.
	FormatThroughput(t Throughput, value float64) string

	// ScaleValues rescales values in place to a unit suitable for typical,
	// which is representative of values, and returns that unit.
	ScaleValues(typical float64, values []float64) string

	// ScaleThroughputs converts per-iteration values in place to
	// throughputs and returns their unit.
	ScaleThroughputs(typical float64, t Throughput, values []float64) string

	// ScaleForMachines rescales values in place to a fixed unit for
	// machine-readable output and returns the unit. The unit contains no
	// spaces.
	ScaleForMachines(values []float64) string
}

func formatOne(f ValueFormatter, value float64) string {
	v := []float64{value}
	unit := f.ScaleValues(value, v)
	return fmt.Sprintf("%.4g %s", v[0], unit)
}

func formatThroughputOne(f ValueFormatter, t Throughput, value float64) string {
	v := []float64{value}
	unit := f.ScaleThroughputs(value, t, v)
	return fmt.Sprintf("%.4g %s", v[0], unit)
}

func scaleAll(values []float64, factor float64) {
	for i := range values {
		values[i] *= factor
	}
}

// siScale returns a decimal factor and prefix for typical.
func siScale(typical float64) (factor float64, prefix string) {
	switch a := math.Abs(typical); {
	case a < 1e3:
		return 1, ""
	case a < 1e6:
		return 1e-3, "K"
	case a < 1e9:
		return 1e-6, "M"
	default:
		return 1e-9, "G"
	}
}

// CountFormatter returns a formatter for counts of the named event, such as
// "1.5 M cycles" or "0.25 cache-misses/B".
func CountFormatter(event string) ValueFormatter {
	return countFormatter{event}
}

type countFormatter struct {
	event string
}

func (f countFormatter) Format(value float64) string {
	return formatOne(f, value)
}

func (f countFormatter) FormatThroughput(t Throughput, value float64) string {
	return formatThroughputOne(f, t, value)
}

func (f countFormatter) unit(prefix string) string {
	if prefix == "" {
		return f.event
	}
	return prefix + " " + f.event
}

func (f countFormatter) ScaleValues(typical float64, values []float64) string {
	factor, prefix := siScale(typical)
	scaleAll(values, factor)
	return f.unit(prefix)
}

func (f countFormatter) ScaleThroughputs(typical float64, t Throughput, values []float64) string {
	var per float64
	var suffix string
	switch {
	case t.Bytes != 0:
		per, suffix = float64(t.Bytes), "/B"
	case t.Elements != 0:
		per, suffix = float64(t.Elements), "/elem"
	default:
		return f.ScaleValues(typical, values)
	}
	// Events per unit of work rather than work per unit of time.
	scaleAll(values, 1/per)
	return f.ScaleValues(typical/per, values) + suffix
}

func (f countFormatter) ScaleForMachines(values []float64) string {
	return f.event
}

// DurationFormatter returns a formatter for durations in nanoseconds.
func DurationFormatter() ValueFormatter {
	return durationFormatter{}
}

type durationFormatter struct{}

func (f durationFormatter) Format(value float64) string {
	return formatOne(f, value)
}

func (f durationFormatter) FormatThroughput(t Throughput, value float64) string {
	return formatThroughputOne(f, t, value)
}

func (durationFormatter) ScaleValues(typical float64, values []float64) string {
	var factor float64
	var unit string
	switch a := math.Abs(typical); {
	case a < 1e3:
		factor, unit = 1, "ns"
	case a < 1e6:
		factor, unit = 1e-3, "µs"
	case a < 1e9:
		factor, unit = 1e-6, "ms"
	default:
		factor, unit = 1e-9, "s"
	}
	scaleAll(values, factor)
	return unit
}

func (f durationFormatter) ScaleThroughputs(typical float64, t Throughput, values []float64) string {
	var per float64
	var base string
	switch {
	case t.Bytes != 0:
		per, base = float64(t.Bytes), "B/s"
	case t.Elements != 0:
		per, base = float64(t.Elements), "elem/s"
	default:
		return f.ScaleValues(typical, values)
	}
	for i, ns := range values {
		if ns == 0 {
			values[i] = math.Inf(1)
			continue
		}
		values[i] = per * 1e9 / ns
	}
	if typical == 0 {
		return base
	}
	factor, prefix := siScale(per * 1e9 / typical)
	scaleAll(values, factor)
	return prefix + base
}

func (durationFormatter) ScaleForMachines(values []float64) string {
	return "ns"
}
