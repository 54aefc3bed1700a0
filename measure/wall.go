// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import "time"

// WallTime measures elapsed wall-clock time. It never fails.
type WallTime struct{}

var _ Measurement[time.Time, time.Duration] = WallTime{}

func (WallTime) Start() (time.Time, error) {
	return time.Now(), nil
}

func (WallTime) End(start time.Time) (time.Duration, error) {
	return time.Since(start), nil
}

func (WallTime) Add(a, b time.Duration) time.Duration {
	return a + b
}

func (WallTime) Zero() time.Duration {
	return 0
}

func (WallTime) ToF64(d time.Duration) float64 {
	return float64(d.Nanoseconds())
}

func (WallTime) Formatter() ValueFormatter {
	return durationFormatter{}
}
