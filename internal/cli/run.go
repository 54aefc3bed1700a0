// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/perfmeasure/perfmeasure/bench"
	"github.com/perfmeasure/perfmeasure/internal/workload"
	"github.com/perfmeasure/perfmeasure/measure"
)

// wallEvent selects wall-clock time instead of a counter.
const wallEvent = "wall"

// engine opens counters for the run command. Tests replace it.
var engine = measure.PerfEngine()

type runOptions struct {
	events   []string
	workload string
	seed     int64
	warmUp   int
	samples  int
	iters    int
	format   string
	output   string
}

func (o *runOptions) validate() error {
	if len(o.events) == 0 {
		return errors.New("no --event given")
	}
	switch o.format {
	case "text", "msgpack":
	default:
		return fmt.Errorf("unknown --format %q", o.format)
	}
	return nil
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Measure a synthetic workload with one or more events",
		Example: "  perfmeasure run --event PAPI_TOT_CYC --event PAPI_L1_DCM --workload stride\n" +
			"  perfmeasure run --event wall --workload alloc --format msgpack --output alloc.msgpack",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBench(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.events, "event", []string{"cycles"}, "Event to measure, repeatable; 'wall' measures wall-clock time")
	f.StringVar(&opts.workload, "workload", string(workload.Loop), fmt.Sprintf("Workload to run: %v", workload.Types()))
	f.Int64Var(&opts.seed, "seed", 42, "Seed for randomized workloads")
	f.IntVar(&opts.warmUp, "warmup", 1, "Batches to run before sampling")
	f.IntVar(&opts.samples, "samples", 10, "Batches to sample per event")
	f.IntVar(&opts.iters, "iters", 100000, "Workload iterations per batch")
	f.StringVar(&opts.format, "format", "text", "Output format: 'text' or 'msgpack'")
	f.StringVar(&opts.output, "output", "", "Write results to this file instead of stdout")
	return cmd
}

func runBench(stdout io.Writer, opts *runOptions) (err error) {
	if err := opts.validate(); err != nil {
		return err
	}
	w, err := workload.New(workload.Type(opts.workload), opts.seed)
	if err != nil {
		return err
	}

	// Counters only count the OS thread that opened them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log.Info().
		Str("workload", w.Name()).
		Strs("events", opts.events).
		Int("samples", opts.samples).
		Int("iters", opts.iters).
		Msg("Starting run")

	var results []*bench.Result
	for _, event := range opts.events {
		cfg := bench.Config{
			Name:    w.Name() + "/" + event,
			WarmUp:  opts.warmUp,
			Samples: opts.samples,
			Iters:   opts.iters,
		}
		res, err := measureOne(event, cfg, w)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}
	if opts.format == "msgpack" {
		return bench.EncodeMsgpack(out, results)
	}
	return bench.WriteText(out, results)
}

func measureOne(event string, cfg bench.Config, w workload.Workload) (*bench.Result, error) {
	if event == wallEvent {
		return bench.Run(measure.WallTime{}, cfg, log.Logger, w.Run)
	}
	c, err := measure.New(engine, event)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return bench.Run(c, cfg, log.Logger, w.Run)
}
