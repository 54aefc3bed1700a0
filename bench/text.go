// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText writes results in the Go benchmark format understood by benchstat.
// Unit metadata lines for each distinct unit come first.
func WriteText(w io.Writer, results []*Result) error {
	bw := bufio.NewWriter(w)

	units := make([]string, 0, len(results))
	for _, r := range results {
		units = append(units, r.Unit)
	}
	WriteUnits(bw, units)

	for _, r := range results {
		fmt.Fprintf(bw, "Benchmark%s \t%d\t%.6g %s/op\n", benchName(r.Name), r.N(), r.PerOp, r.Unit)
	}
	return bw.Flush()
}

// WriteUnits writes a unit metadata line for each distinct unit, followed by
// a blank line. All counted units are better=lower.
func WriteUnits(w io.Writer, units []string) error {
	seen := make(map[string]bool)
	for _, u := range units {
		if seen[u] {
			continue
		}
		seen[u] = true
		if _, err := fmt.Fprintf(w, "Unit %s/op better=lower\n", u); err != nil {
			return err
		}
	}
	if len(seen) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w)
	return err
}

// benchName makes name a single benchmark-name field.
func benchName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return '_'
		}
		return r
	}, name)
}
