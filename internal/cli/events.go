// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perfmeasure/perfmeasure/events"
)

func newEventsCmd() *cobra.Command {
	var (
		check    string
		extended bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List built-in event names or check that one resolves",
		Long: "Without --check, list the event names that resolve on any Linux system,\n" +
			"plus with --extended the CPU events reported by 'perf list'. PMU events\n" +
			"such as cpu/event=0x3c/ are accepted by --check and by run --event.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if check != "" {
				ev, err := events.ParseEvent(check)
				if err != nil {
					return err
				}
				if s, ok := ev.(events.EventScale); ok {
					scale, unit := s.ScaleUnit()
					if unit != "" {
						fmt.Fprintf(out, "%s: ok (scale %g, unit %s)\n", ev, scale, unit)
						return nil
					}
				}
				fmt.Fprintf(out, "%s: ok\n", ev)
				return nil
			}
			names := events.Names()
			if extended {
				more, err := events.ExtendedNames()
				if err != nil {
					return err
				}
				names = append(names, more...)
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&check, "check", "", "Resolve this event name and report whether it is valid")
	cmd.Flags().BoolVar(&extended, "extended", false, "Also list the CPU events known to the installed perf tool")
	return cmd
}
