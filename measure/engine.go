// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import "github.com/perfmeasure/perfmeasure/eventset"

// PerfEngine returns an Engine that counts events with the kernel's perf
// events on the calling goroutine. Event names are resolved by
// [events.ParseEvent].
//
// Counters built by this engine count the OS thread of the goroutine that
// calls New, so Start and End should be called on that goroutine too. On
// systems other than Linux, Open always fails with [errors.ErrUnsupported].
//
// [events.ParseEvent]: github.com/perfmeasure/perfmeasure/events.ParseEvent
func PerfEngine() Engine {
	return perfEngine{}
}

type perfEngine struct{}

func (perfEngine) Open(event string) (ReadySession, error) {
	r, err := eventset.NewBuilder().AddByName(event).Build()
	if err != nil {
		return nil, err
	}
	return perfReady{r}, nil
}

type perfReady struct {
	*eventset.Ready
}

func (r perfReady) TryClone() (ReadySession, error) {
	c, err := r.Ready.TryClone()
	if err != nil {
		return nil, err
	}
	return perfReady{c}, nil
}

func (r perfReady) Start() (RunningSession, error) {
	run, err := r.Ready.Start()
	if err != nil {
		return nil, err
	}
	return run, nil
}
