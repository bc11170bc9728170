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

// Package fastq reads, writes, merges and filters FASTQ files of
// long sequencing reads.
//
// FASTQ inputs may be plain text, gzip or BGZF compressed. Filtering
// runs as a pargo pipeline that parses and tests batches of records
// in parallel while writing them out in their original order.
package fastq

import "errors"

// A Record is one FASTQ entry. Name holds the header line without the
// leading '@', Plus the separator line without the leading '+'.
type Record struct {
	Name string
	Seq  []byte
	Plus string
	Qual []byte
}

// Len returns the number of bases in the read.
func (r *Record) Len() int {
	return len(r.Seq)
}

// LongEnough reports whether the read has at least minLength bases.
// The bound is closed: a read of exactly minLength bases is kept.
func LongEnough(r *Record, minLength int) bool {
	return r.Len() >= minLength
}

// ErrMalformed is wrapped by all errors about invalid FASTQ syntax.
var ErrMalformed = errors.New("malformed FASTQ record")

// Format appends the FASTQ representation of r to out.
func (r *Record) Format(out []byte) []byte {
	out = append(out, '@')
	out = append(out, r.Name...)
	out = append(out, '\n')
	out = append(out, r.Seq...)
	out = append(out, '\n', '+')
	out = append(out, r.Plus...)
	out = append(out, '\n')
	out = append(out, r.Qual...)
	return append(out, '\n')
}
