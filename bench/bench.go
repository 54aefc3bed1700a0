// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bench runs benchmarks with a pluggable [measure.Measurement] and
// reports the results.
package bench

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/perfmeasure/perfmeasure/measure"
)

// ErrAborted wraps the error that stopped a benchmark run.
var ErrAborted = errors.New("benchmark aborted")

// Config describes one benchmark run.
type Config struct {
	Name    string // Benchmark name, without the "Benchmark" prefix
	WarmUp  int    // Measured batches to run and discard before sampling
	Samples int    // Measured batches to record
	Iters   int    // Iterations of the routine per batch
}

// Validate reports whether c describes a runnable benchmark.
func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return errors.New("benchmark name is empty")
	case c.WarmUp < 0:
		return fmt.Errorf("warm-up batches %d < 0", c.WarmUp)
	case c.Samples <= 0:
		return fmt.Errorf("samples %d <= 0", c.Samples)
	case c.Iters <= 0:
		return fmt.Errorf("iterations %d <= 0", c.Iters)
	}
	return nil
}

// Result is the outcome of one benchmark run. Values are in Unit, as scaled
// by the measurement's formatter for machines.
type Result struct {
	Name    string    `msgpack:"name"`
	Time    time.Time `msgpack:"time"`
	Unit    string    `msgpack:"unit"`
	Iters   int       `msgpack:"iters"`   // Iterations per sample
	Samples []float64 `msgpack:"samples"` // One value per batch
	Total   float64   `msgpack:"total"`
	PerOp   float64   `msgpack:"per_op"`

	// Summary is the per-iteration value formatted for people.
	Summary string `msgpack:"summary"`
}

// N returns the total number of iterations measured.
func (r *Result) N() int {
	return r.Iters * len(r.Samples)
}

// Run benchmarks routine with m. Each batch calls routine(cfg.Iters) between
// one m.Start and the matching m.End.
//
// Any measurement error aborts the whole run: Run returns an error wrapping
// both [ErrAborted] and the measurement's error, and no partial result.
func Run[I, V any](m measure.Measurement[I, V], cfg Config, log zerolog.Logger, routine func(iters int)) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.With().Str("benchmark", cfg.Name).Logger()

	batch := func() (V, error) {
		i, err := m.Start()
		if err != nil {
			var zero V
			return zero, err
		}
		routine(cfg.Iters)
		return m.End(i)
	}

	start := time.Now()
	for range cfg.WarmUp {
		if _, err := batch(); err != nil {
			return nil, abort(log, cfg.Name, err)
		}
	}

	total := m.Zero()
	samples := make([]float64, 0, cfg.Samples)
	for i := range cfg.Samples {
		v, err := batch()
		if err != nil {
			return nil, abort(log, cfg.Name, err)
		}
		total = m.Add(total, v)
		samples = append(samples, m.ToF64(v))
		log.Debug().Int("sample", i).Float64("value", m.ToF64(v)).Msg("Sample")
	}

	n := float64(cfg.Samples * cfg.Iters)
	f := m.Formatter()
	totals := []float64{m.ToF64(total)}
	res := &Result{
		Name:    cfg.Name,
		Time:    start,
		Iters:   cfg.Iters,
		Samples: slices.Clone(samples),
		Summary: f.Format(totals[0] / n),
	}
	res.Unit = f.ScaleForMachines(res.Samples)
	f.ScaleForMachines(totals)
	res.Total = totals[0]
	res.PerOp = res.Total / n

	log.Info().
		Str("unit", res.Unit).
		Int("n", res.N()).
		Float64("per_op", res.PerOp).
		Str("summary", res.Summary).
		Msg("Benchmark complete")
	return res, nil
}

func abort(log zerolog.Logger, name string, err error) error {
	ev := log.Error().Err(err)
	var merr *measure.Error
	if errors.As(err, &merr) {
		ev = ev.Str("step", string(merr.Step)).Str("event", merr.Event)
	}
	ev.Msg("Measurement failed, aborting run")
	return fmt.Errorf("%w: %s: %w", ErrAborted, name, err)
}
