// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bench

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMsgpack writes results to w as a stream of msgpack maps, one per
// result.
func EncodeMsgpack(w io.Writer, results []*Result) error {
	enc := msgpack.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding %s: %w", r.Name, err)
		}
	}
	return nil
}

// DecodeMsgpack reads a stream written by EncodeMsgpack.
func DecodeMsgpack(r io.Reader) ([]*Result, error) {
	dec := msgpack.NewDecoder(r)
	var out []*Result
	for {
		var res Result
		err := dec.Decode(&res)
		if errors.Is(err, io.EOF) {
			return out, nil
		} else if err != nil {
			return nil, fmt.Errorf("decoding result %d: %w", len(out), err)
		}
		out = append(out, &res)
	}
}
