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

// Package fasta reads reference genomes and their samtools FAI indexes.
package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/exascience/ontflow/internal"
	"github.com/exascience/ontflow/utils"
)

// FaiReference represents an entry in an FAI file.
type FaiReference struct {
	Contig    string
	Length    int64
	Offset    int64
	LineBases int32
	LineWidth int32
}

// ErrMalformed is wrapped by all errors that report malformed FASTA or
// FAI input.
var ErrMalformed = errors.New("malformed reference")

// ParseFai parses an FAI file. The entries are returned in file order.
func ParseFai(filename string) (fai []FaiReference, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer internal.CloseWith(f, &err)

	scanner := bufio.NewScanner(f)

	for line := 1; scanner.Scan(); line++ {
		b := bytes.Split(scanner.Bytes(), []byte("\t"))
		if len(b) != 5 {
			return nil, fmt.Errorf("%w: %v line %v: invalid number of entries", ErrMalformed, filename, line)
		}
		var ref FaiReference
		ref.Contig = string(b[0])
		if ref.Length, err = strconv.ParseInt(string(b[1]), 10, 64); err != nil {
			return nil, fmt.Errorf("%w: %v line %v: %v", ErrMalformed, filename, line, err)
		}
		if ref.Offset, err = strconv.ParseInt(string(b[2]), 10, 64); err != nil {
			return nil, fmt.Errorf("%w: %v line %v: %v", ErrMalformed, filename, line, err)
		}
		lineBases, err := strconv.ParseInt(string(b[3]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v line %v: %v", ErrMalformed, filename, line, err)
		}
		lineWidth, err := strconv.ParseInt(string(b[4]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v line %v: %v", ErrMalformed, filename, line, err)
		}
		ref.LineBases, ref.LineWidth = int32(lineBases), int32(lineWidth)
		fai = append(fai, ref)
	}

	return fai, scanner.Err()
}

// TotalLength returns the sum of the contig lengths of fai.
func TotalLength(fai []FaiReference) (total int64) {
	for _, ref := range fai {
		total += ref.Length
	}
	return total
}

func contigFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	if i >= len(b) {
		return ""
	}
	return string(b[i:j])
}

// FirstContig returns the name of the first sequence of a FASTA file.
// Only the first header is read, so this is cheap even for large
// references.
func FirstContig(filename string) (contig string, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer internal.CloseWith(f, &err)

	rc, err := utils.HandleGzip(bufio.NewReader(f))
	if err != nil {
		return "", err
	}
	defer internal.CloseWith(rc, &err)

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		if b[0] != '>' {
			return "", fmt.Errorf("%w: %v: missing first header", ErrMalformed, filename)
		}
		if contig = contigFromHeader(b); contig == "" {
			return "", fmt.Errorf("%w: %v: empty sequence name", ErrMalformed, filename)
		}
		return contig, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: %v: empty fasta file", ErrMalformed, filename)
}
