// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package eventset

import (
	"errors"
	"fmt"
)

var errUnsupported = fmt.Errorf("hardware counters: %w", errors.ErrUnsupported)

type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) AddByName(string) *Builder { return b }

func (b *Builder) Build() (*Ready, error) { return nil, errUnsupported }

type Ready struct{}

func (r *Ready) Names() []string { return nil }

func (r *Ready) TryClone() (*Ready, error) { return nil, errUnsupported }

func (r *Ready) InitSample(*Sample) error { return errUnsupported }

func (r *Ready) Start() (*Running, error) { return nil, errUnsupported }

func (r *Ready) Close() error { return nil }

type Running struct{}

func (r *Running) Stop(*Sample) error { return errUnsupported }
