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

package vcf

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/exascience/ontflow/utils"
	"github.com/exascience/ontflow/utils/bgzf"
)

// VCF file extensions.
const (
	VcfExt = ".vcf"
	GzExt  = ".gz"
)

// ErrMalformed is wrapped by all errors about invalid VCF data lines.
var ErrMalformed = errors.New("malformed VCF record")

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	switch {
	case err == nil:
		line = strings.TrimSuffix(line[:len(line)-1], "\r")
	case err == io.EOF && line != "":
		err = nil
	}
	return
}

// InputFile is a VCF file opened for reading. After ParseHeader it
// implements pipeline.Source, fetching batches of data lines as
// []string.
type InputFile struct {
	name  string
	file  *os.File
	rc    io.ReadCloser
	buf   *bufio.Reader
	lines int
	err   error
	data  interface{}
}

// Open opens a VCF file for reading. Plain, gzip and BGZF compressed
// files are all accepted, independent of the file name extension.
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
func (input *InputFile) Close() error {
	err := input.rc.Close()
	if nerr := input.file.Close(); err == nil {
		err = nerr
	}
	return err
}

// ParseHeader reads all leading lines that start with '#'.
func (input *InputFile) ParseHeader() (*Header, error) {
	hdr := &Header{}
	for {
		if data, err := input.buf.Peek(1); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		} else if data[0] != '#' {
			break
		}
		line, err := getLine(input.buf)
		if err != nil {
			return nil, err
		}
		input.lines++
		hdr.Lines = append(hdr.Lines, line)
		if strings.HasPrefix(line, "#CHROM") {
			hdr.Columns = strings.Split(line[1:], "\t")
		}
	}
	if hdr.Columns == nil {
		hdr.Columns = DefaultHeaderColumns
	}
	return hdr, nil
}

// Err implements the method of the pipeline.Source interface.
func (input *InputFile) Err() error {
	if input.err != nil {
		return fmt.Errorf("%v: line %v: %w", input.name, input.lines, input.err)
	}
	return nil
}

// Prepare implements the method of the pipeline.Source interface.
func (*InputFile) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the method of the pipeline.Source interface.
func (input *InputFile) Fetch(size int) (fetched int) {
	if input.err != nil {
		input.data = nil
		return 0
	}
	lines := make([]string, 0, size)
	for fetched = 0; fetched < size; fetched++ {
		line, err := getLine(input.buf)
		if err == io.EOF {
			break
		} else if err != nil {
			input.err = err
			break
		}
		input.lines++
		if line == "" {
			fetched--
			continue
		}
		lines = append(lines, line)
	}
	input.data = lines
	return fetched
}

// Data implements the method of the pipeline.Source interface.
func (input *InputFile) Data() interface{} {
	return input.data
}

func (sc *StringScanner) doList(separator byte) (result []string) {
	field := sc.readField()
	if field == "." {
		return nil
	}
	return strings.Split(field, string(separator))
}

func (sc *StringScanner) doFilter() (result []utils.Symbol) {
	for _, filter := range sc.doList(';') {
		result = append(result, utils.Intern(filter))
	}
	return
}

func (sc *StringScanner) doInfo() (result utils.SmallMap) {
	for _, entry := range sc.doList(';') {
		if entry == "" {
			continue
		}
		if i := strings.IndexByte(entry, '='); i >= 0 {
			result.Set(utils.Intern(entry[:i]), entry[i+1:])
		} else {
			result.Set(utils.Intern(entry), true)
		}
	}
	return
}

// ParseVariant parses one VCF data line.
func (sc *StringScanner) ParseVariant() *Variant {
	v := &Variant{Pos: -1}
	v.Chrom = sc.readField()
	if pos := sc.readField(); pos != "." {
		n, err := strconv.ParseInt(pos, 10, 32)
		if err != nil {
			sc.setErr(fmt.Errorf("%w: invalid POS %q", ErrMalformed, pos))
		}
		v.Pos = int32(n)
	}
	v.ID = sc.doList(';')
	v.Ref = sc.readField()
	v.Alt = sc.doList(',')
	if qual := sc.readField(); qual != "." {
		f, err := strconv.ParseFloat(qual, 64)
		if err != nil {
			sc.setErr(fmt.Errorf("%w: invalid QUAL %q", ErrMalformed, qual))
		}
		v.Qual = f
	}
	if sc.Len() == 0 {
		sc.setErr(fmt.Errorf("%w: missing FILTER column", ErrMalformed))
		return v
	}
	v.Filter = sc.doFilter()
	v.Info = sc.doInfo()
	return v
}

// ParseVariant parses one VCF data line.
func ParseVariant(line string) (*Variant, error) {
	var sc StringScanner
	sc.Reset(line)
	v := sc.ParseVariant()
	return v, sc.Err()
}

// OutputFile is a VCF file opened for writing.
type OutputFile struct {
	file *os.File
	bgzf *bgzf.Writer
	*bufio.Writer
}

// Create creates or truncates a VCF file for writing. If the filename
// extension is .gz, the output is BGZF compressed.
func Create(name string) (*OutputFile, error) {
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(name, GzExt) {
		w := bgzf.NewWriter(file, -1)
		return &OutputFile{file, w, bufio.NewWriter(w)}, nil
	}
	return &OutputFile{file, nil, bufio.NewWriter(file)}, nil
}

// WriteLine writes a line followed by a line terminator.
func (output *OutputFile) WriteLine(line string) error {
	if _, err := output.WriteString(line); err != nil {
		return err
	}
	return output.WriteByte('\n')
}

// Close flushes buffered output and closes the file.
func (output *OutputFile) Close() error {
	err := output.Flush()
	if output.bgzf != nil {
		if nerr := output.bgzf.Close(); err == nil {
			err = nerr
		}
	}
	if nerr := output.file.Close(); err == nil {
		err = nerr
	}
	return err
}
