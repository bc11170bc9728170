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

package fastq

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
)

func fastqText(names []string, lengths []int) string {
	var sb strings.Builder
	for i, length := range lengths {
		sb.WriteString("@" + names[i] + " runid=abc\n")
		sb.WriteString(strings.Repeat("ACGT", length/4+1)[:length] + "\n+\n")
		sb.WriteString(strings.Repeat("5", length) + "\n")
	}
	return sb.String()
}

func writeFile(t *testing.T, name, contents string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(contents), 0666); err != nil {
		t.Fatal(err)
	}
}

func writeGzip(t *testing.T, name, contents string) {
	t.Helper()
	file, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	w := gzip.NewWriter(file)
	if _, err := w.Write([]byte(contents)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := file.Close(); err != nil {
		t.Fatal(err)
	}
}

func readLengths(t *testing.T, name string) (names []string, lengths []int) {
	t.Helper()
	in, err := Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	for {
		record, err := in.Next()
		if err == io.EOF {
			return
		} else if err != nil {
			t.Fatal(err)
		}
		names = append(names, strings.Fields(record.Name)[0])
		lengths = append(lengths, record.Len())
	}
}

func TestFilterLength(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "minion_pass.fastq")
	output := filepath.Join(dir, "minion_filtered.fastq")
	writeFile(t, input, fastqText([]string{"r1", "r2", "r3", "r4"}, []int{500, 999, 1000, 1500}))
	kept, total, err := FilterLength(input, output, DefaultMinLength)
	if err != nil {
		t.Fatal(err)
	}
	if kept != 2 || total != 4 {
		t.Errorf("FilterLength counts failed: kept %v, total %v", kept, total)
	}
	names, lengths := readLengths(t, output)
	if diff := cmp.Diff([]string{"r3", "r4"}, names); diff != "" {
		t.Errorf("FilterLength names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1000, 1500}, lengths); diff != "" {
		t.Errorf("FilterLength lengths mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterLengthKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.fastq")
	output := filepath.Join(dir, "out.fastq")
	var names []string
	var lengths []int
	var want []string
	for i := 0; i < 5000; i++ {
		name := "read" + strings.Repeat("x", i%7) + string(rune('a'+i%26))
		names = append(names, name)
		length := 900 + (i*37)%300
		lengths = append(lengths, length)
		if length >= 1000 {
			want = append(want, name)
		}
	}
	writeFile(t, input, fastqText(names, lengths))
	kept, total, err := FilterLength(input, output, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5000 || kept != len(want) {
		t.Errorf("FilterLength counts failed: kept %v, total %v", kept, total)
	}
	got, _ := readLengths(t, output)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterLength order mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	part1 := filepath.Join(dir, "part_0.fastq")
	part2 := filepath.Join(dir, "part_1.fastq.gz")
	writeFile(t, part1, fastqText([]string{"a"}, []int{500}))
	writeGzip(t, part2, fastqText([]string{"b", "c"}, []int{1500, 20}))
	output := filepath.Join(dir, "minion_pass.fastq")
	records, err := Merge(output, []string{part1, part2})
	if err != nil {
		t.Fatal(err)
	}
	if records != 3 {
		t.Errorf("Merge wrote %v records", records)
	}
	names, lengths := readLengths(t, output)
	if diff := cmp.Diff([]string{"a", "b", "c"}, names); diff != "" {
		t.Errorf("Merge names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{500, 1500, 20}, lengths); diff != "" {
		t.Errorf("Merge lengths mismatch (-want +got):\n%s", diff)
	}
	if _, err := Merge(output, nil); err == nil {
		t.Error("Merge without parts succeeded")
	}
}

func TestMalformed(t *testing.T) {
	dir := t.TempDir()
	for i, contents := range []string{
		"r1\nACGT\n+\n!!!!\n",
		"@r1\nACGT\n-\n!!!!\n",
		"@r1\nACGT\n+\n!!!\n",
		"@r1\nACGT\n+\n",
	} {
		name := filepath.Join(dir, "bad.fastq")
		writeFile(t, name, contents)
		_, err := Merge(filepath.Join(dir, "out.fastq"), []string{name})
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("malformed input %v not rejected: %v", i, err)
		}
	}
}
