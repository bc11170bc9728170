// ontflow: a staged workflow for long-read variant calling.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ontflow/blob/master/LICENSE.txt>.

package bgzf

import (
	"bufio"
	"bytes"
	"fmt"
	"io/ioutil"
	"testing"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, -1)
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func largeVcf() []byte {
	var buf bytes.Buffer
	for i := 0; i < 20000; i++ {
		fmt.Fprintf(&buf, "chr1\t%d\t.\tA\tG\t%d\tPASS\tDP=%d\n", i+1, i%60, i%97)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, data := range [][]byte{[]byte("chr1\t1\t.\tA\tC\t50\tPASS\t.\n"), largeVcf()} {
		compressed := compress(t, data)
		in := bufio.NewReader(bytes.NewReader(compressed))
		if ok, err := IsGzip(in); err != nil || !ok {
			t.Fatal("IsGzip failed")
		}
		if !IsBgzf(in) {
			t.Fatal("IsBgzf failed")
		}
		r, err := NewReader(in)
		if err != nil {
			t.Fatal(err)
		}
		result, err := ioutil.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Close(); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(result, data) {
			t.Errorf("round trip of %v bytes failed, got %v bytes", len(data), len(result))
		}
	}
}

func TestMissingEOFMarker(t *testing.T) {
	compressed := compress(t, []byte("chr1\t1\t.\tA\tC\t50\tPASS\t.\n"))
	truncated := compressed[:len(compressed)-len(eofMarker)]
	r, err := NewReader(bufio.NewReader(bytes.NewReader(truncated)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = ioutil.ReadAll(r)
	if err == nil {
		err = r.Close()
	} else {
		_ = r.Close()
	}
	if err == nil {
		t.Error("truncated BGZF file accepted")
	}
}
