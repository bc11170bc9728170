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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/exascience/ontflow/utils"
)

// InputFile is a FASTQ file opened for reading. It implements
// pipeline.Source, fetching batches of []*Record.
type InputFile struct {
	name    string
	file    *os.File
	rc      io.ReadCloser
	buf     *bufio.Reader
	records int
	err     error
	data    interface{}
}

// Open opens a FASTQ file for reading, transparently decompressing
// gzip and BGZF input.
func Open(name string) (*InputFile, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	rc, err := utils.HandleGzip(bufio.NewReader(file))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%v: %w", name, err)
	}
	return &InputFile{
		name: name,
		file: file,
		rc:   rc,
		buf:  bufio.NewReader(rc),
	}, nil
}

// Close closes the decompressor and the underlying file.
func (f *InputFile) Close() error {
	err := f.rc.Close()
	if nerr := f.file.Close(); err == nil {
		err = nerr
	}
	return err
}

func (f *InputFile) readLine() (string, error) {
	line, err := f.buf.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

func (f *InputFile) malformed(format string, v ...interface{}) error {
	return fmt.Errorf("%v: record %v: %w: %v", f.name, f.records+1, ErrMalformed, fmt.Sprintf(format, v...))
}

// Next returns the next record, or io.EOF when the file is exhausted.
func (f *InputFile) Next() (*Record, error) {
	var header string
	for {
		line, err := f.readLine()
		if err != nil {
			return nil, err
		}
		if line != "" {
			header = line
			break
		}
	}
	if header[0] != '@' {
		return nil, f.malformed("header line does not start with @")
	}
	var lines [3]string
	for i := range lines {
		line, err := f.readLine()
		if err == io.EOF {
			return nil, f.malformed("truncated record %v", header)
		} else if err != nil {
			return nil, err
		}
		lines[i] = line
	}
	if !strings.HasPrefix(lines[1], "+") {
		return nil, f.malformed("separator line does not start with +")
	}
	if len(lines[0]) != len(lines[2]) {
		return nil, f.malformed("sequence length %v differs from quality length %v", len(lines[0]), len(lines[2]))
	}
	f.records++
	return &Record{
		Name: header[1:],
		Seq:  []byte(lines[0]),
		Plus: lines[1][1:],
		Qual: []byte(lines[2]),
	}, nil
}

// Err implements the method of the pipeline.Source interface.
func (f *InputFile) Err() error {
	return f.err
}

// Prepare implements the method of the pipeline.Source interface.
func (*InputFile) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the method of the pipeline.Source interface.
func (f *InputFile) Fetch(size int) (fetched int) {
	if f.err != nil {
		f.data = nil
		return 0
	}
	records := make([]*Record, 0, size)
	for fetched = 0; fetched < size; fetched++ {
		record, err := f.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			f.err = err
			break
		}
		records = append(records, record)
	}
	f.data = records
	return fetched
}

// Data implements the method of the pipeline.Source interface.
func (f *InputFile) Data() interface{} {
	return f.data
}

// OutputFile is a plain-text FASTQ file opened for writing.
type OutputFile struct {
	file *os.File
	buf  *bufio.Writer
	out  []byte
}

// Create creates or truncates a FASTQ file for writing.
func Create(name string) (*OutputFile, error) {
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	return &OutputFile{file: file, buf: bufio.NewWriter(file)}, nil
}

// Write writes one record.
func (f *OutputFile) Write(r *Record) error {
	f.out = r.Format(f.out[:0])
	_, err := f.buf.Write(f.out)
	return err
}

// Close flushes buffered output and closes the file.
func (f *OutputFile) Close() error {
	err := f.buf.Flush()
	if nerr := f.file.Close(); err == nil {
		err = nerr
	}
	return err
}
