// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli implements the perfmeasure command.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logFormat string
	logLevel  string
}

// NewRootCmd returns the perfmeasure command with all of its subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "perfmeasure",
		Short:         "Measure code with hardware performance counters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd.ErrOrStderr(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console", "Log format: 'json' or 'console'")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(newRunCmd(), newEventsCmd())
	return cmd
}

// Execute runs the perfmeasure command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("perfmeasure failed")
		os.Exit(1)
	}
}

func setupLogging(w io.Writer, opts *rootOptions) error {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.logLevel))
	if err != nil {
		return fmt.Errorf("bad --log-level: %w", err)
	}
	switch strings.ToLower(opts.logFormat) {
	case "json":
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"})
	default:
		return fmt.Errorf("unknown --log-format %q", opts.logFormat)
	}
	log.Logger = log.Logger.Level(level)
	return nil
}
