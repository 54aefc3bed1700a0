// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventset

import "testing"

func TestSample(t *testing.T) {
	var s Sample
	if s.Len() != 0 {
		t.Fatalf("zero Sample has Len %d", s.Len())
	}

	names := []string{"cycles", "instructions"}
	s.Init(names)
	names[0] = "mutated"
	if s.Names()[0] != "cycles" {
		t.Fatal("Init didn't copy names")
	}
	if err := s.Set("instructions", 42); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("branches", 1); err == nil {
		t.Error("Set of event outside shape succeeded")
	}
	if v, ok := s.Get("instructions"); !ok || v != 42 {
		t.Errorf("Get(instructions) = %d, %v", v, ok)
	}
	if _, ok := s.Get("branches"); ok {
		t.Error("Get(branches) found a value")
	}
	if name, v := s.At(0); name != "cycles" || v != 0 {
		t.Errorf("At(0) = %s %d", name, v)
	}
	if got, want := s.String(), "{cycles: 0, instructions: 42}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSampleClone(t *testing.T) {
	var proto Sample
	proto.Init([]string{"cycles"})

	a, b := proto.Clone(), proto.Clone()
	a.Set("cycles", 1)
	b.Set("cycles", 2)
	if v, _ := proto.Get("cycles"); v != 0 {
		t.Errorf("prototype changed to %d", v)
	}
	if v, _ := a.Get("cycles"); v != 1 {
		t.Errorf("clone a = %d, want 1", v)
	}
	if !a.SameShape(&proto) || !b.SameShape(&a) {
		t.Error("clones differ in shape")
	}

	var other Sample
	other.Init([]string{"instructions"})
	if other.SameShape(&proto) {
		t.Error("different samples have the same shape")
	}
}
