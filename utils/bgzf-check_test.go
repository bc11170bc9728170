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

package utils

import (
	"bufio"
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/exascience/ontflow/utils/bgzf"
)

const vcfText = "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\nchr1\t10\t.\tA\tG\t30\tPASS\t.\n"

func readAll(t *testing.T, data []byte) string {
	t.Helper()
	rc, err := HandleGzip(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	result, err := ioutil.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(result)
}

func TestHandleGzipPlain(t *testing.T) {
	if readAll(t, []byte(vcfText)) != vcfText {
		t.Error("HandleGzip plain failed")
	}
	if readAll(t, nil) != "" {
		t.Error("HandleGzip empty failed")
	}
}

func TestHandleGzipMultiMember(t *testing.T) {
	var buf bytes.Buffer
	for _, part := range []string{vcfText[:30], vcfText[30:]} {
		w := gzip.NewWriter(&buf)
		if _, err := w.Write([]byte(part)); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	if bgzf.IsBgzf(bufio.NewReader(bytes.NewReader(buf.Bytes()))) {
		t.Error("plain gzip detected as BGZF")
	}
	if readAll(t, buf.Bytes()) != vcfText {
		t.Error("HandleGzip multi-member gzip failed")
	}
}

func TestHandleGzipBgzf(t *testing.T) {
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, gzip.DefaultCompression)
	if _, err := w.Write([]byte(vcfText)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if !bgzf.IsBgzf(bufio.NewReader(bytes.NewReader(buf.Bytes()))) {
		t.Error("BGZF not detected")
	}
	if readAll(t, buf.Bytes()) != vcfText {
		t.Error("HandleGzip BGZF failed")
	}
}
