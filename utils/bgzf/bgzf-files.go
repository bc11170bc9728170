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

// Package bgzf reads and writes BGZF files, the blocked gzip variant
// used for compressed VCF output of variant callers. Blocks are
// inflated and deflated in parallel with a pargo pipeline and
// delivered in strict order.
package bgzf

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/exascience/pargo/pipeline"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// IsGzip determines if the given byte scanner produces a gzip file.
// It uses ReadByte and UnreadByte to check only the initial byte from
// the input.
func IsGzip(scanner io.ByteScanner) (bool, error) {
	b, err := scanner.ReadByte()
	if err != nil {
		return false, err
	}
	if err := scanner.UnreadByte(); err != nil {
		return false, err
	}
	return b == 0x1f, nil
}

// IsBgzf reports whether the buffered input starts with a gzip member
// header carrying the BC extra subfield. It only peeks.
func IsBgzf(buf *bufio.Reader) bool {
	header, err := buf.Peek(14)
	if err != nil {
		return false
	}
	return header[0] == 0x1f && header[1] == 0x8b && header[3]&0x04 != 0 &&
		header[12] == 'B' && header[13] == 'C'
}

// maxBlockSize is the maximum size of a BGZF block.
const maxBlockSize = 65536

var eofMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x1b, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

type (
	// block is one block of BGZF data, compressed or not.
	block struct {
		data  []byte
		crc32 uint32
		size  uint32
	}

	// Reader reads in parallel from a BGZF file.
	Reader struct {
		err     error
		r       flate.Reader
		gz      *gzip.Reader
		p       pipeline.Pipeline
		wait    sync.WaitGroup
		blocks  chan *block
		ctx     context.Context
		cancel  func()
		fetched interface{}
		index   int
		current *block
	}

	readerSource Reader
)

var blockPool = sync.Pool{New: func() interface{} {
	return &block{data: make([]byte, 0, maxBlockSize)}
}}

func (src *readerSource) readBlock() (*block, error) {
	extra := src.gz.Extra
	var slen int
	for i := 0; i+4 <= len(extra); i += 4 + slen {
		slen = int(binary.LittleEndian.Uint16(extra[i+2 : i+4]))
		if extra[i] != 'B' || extra[i+1] != 'C' || slen != 2 {
			continue
		}
		bsize := int(binary.LittleEndian.Uint16(extra[i+4 : i+6]))
		b := blockPool.Get().(*block)
		b.data = b.data[:bsize-len(extra)-19]
		if _, err := io.ReadFull(src.r, b.data); err != nil {
			return nil, err
		}
		var tail [8]byte
		if _, err := io.ReadFull(src.r, tail[:]); err != nil {
			return nil, err
		}
		b.crc32 = binary.LittleEndian.Uint32(tail[0:4])
		b.size = binary.LittleEndian.Uint32(tail[4:8])
		switch err := src.gz.Reset(src.r); {
		case err == io.EOF:
			if len(b.data) != 2 || b.data[0] != 3 || b.data[1] != 0 || b.crc32 != 0 || b.size != 0 {
				return b, errors.New("invalid BGZF file: does not end in proper EOF marker")
			}
			return b, io.EOF
		case err != nil:
			return b, fmt.Errorf("%w while reading BGZF block header", err)
		}
		return b, nil
	}
	return nil, errors.New("missing BC extra subfield in BGZF header")
}

// Err implements the corresponding method of pipeline.Source
func (src *readerSource) Err() error {
	if src.err != io.EOF {
		return src.err
	}
	return nil
}

// Prepare implements the corresponding method of pipeline.Source
func (src *readerSource) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (src *readerSource) Fetch(_ int) int {
	if src.err != nil {
		src.fetched = nil
		return 0
	}
	b, err := src.readBlock()
	src.err = err
	if b == nil || (err != nil && err != io.EOF) {
		src.fetched = nil
		return 0
	}
	src.fetched = b
	return 1
}

// Data implements the corresponding method of pipeline.Source
func (src *readerSource) Data() interface{} {
	return src.fetched
}

var inflaterPool sync.Pool

func inflate(p *pipeline.Pipeline, compressed *block) *block {
	blockReader := bytes.NewReader(compressed.data)
	var inflater io.ReadCloser
	if pooled := inflaterPool.Get(); pooled == nil {
		inflater = flate.NewReader(blockReader)
	} else {
		inflater = pooled.(io.ReadCloser)
		if err := inflater.(flate.Resetter).Reset(blockReader, nil); err != nil {
			inflater = flate.NewReader(blockReader)
		}
	}
	uncompressed := blockPool.Get().(*block)
	uncompressed.data = uncompressed.data[:int(compressed.size)]
	if _, err := io.ReadFull(inflater, uncompressed.data); err == io.EOF {
		p.SetErr(io.ErrUnexpectedEOF)
	} else if err != nil {
		p.SetErr(err)
	} else if crc32.ChecksumIEEE(uncompressed.data) != compressed.crc32 {
		p.SetErr(errors.New("invalid CRC-32 value for a data block in a BGZF file"))
	}
	if err := inflater.Close(); err != nil {
		p.SetErr(err)
	}
	inflaterPool.Put(inflater)
	blockPool.Put(compressed)
	return uncompressed
}

// NewReader returns a Reader for the given flate.Reader, which must
// be positioned at the start of a BGZF file.
func NewReader(r flate.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w in bgzf.NewReader", err)
	}
	gz.Multistream(false)
	ctx, cancel := context.WithCancel(context.Background())
	bgzf := &Reader{
		r:      r,
		gz:     gz,
		blocks: make(chan *block, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	bgzf.p.Source((*readerSource)(bgzf))
	bgzf.p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			return inflate(&bgzf.p, data.(*block))
		})),
		pipeline.StrictOrd(pipeline.ReceiveAndFinalize(func(_ int, data interface{}) interface{} {
			select {
			case <-bgzf.ctx.Done():
			case bgzf.blocks <- data.(*block):
			}
			return nil
		}, func() {
			close(bgzf.blocks)
		})),
	)
	bgzf.wait.Add(1)
	go func() {
		defer bgzf.wait.Done()
		bgzf.p.Run()
	}()
	return bgzf, nil
}

// Close implements the corresponding method of io.Closer
func (bgzf *Reader) Close() error {
	bgzf.cancel()
	bgzf.wait.Wait()
	if err := bgzf.gz.Close(); err != nil {
		return err
	}
	return bgzf.p.Err()
}

func (bgzf *Reader) nextBlock() error {
	select {
	case <-bgzf.ctx.Done():
		return bgzf.ctx.Err()
	case b, ok := <-bgzf.blocks:
		if !ok {
			if err := bgzf.p.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		bgzf.index = 0
		bgzf.current = b
		return nil
	}
}

// Read implements the corresponding method of io.Reader
func (bgzf *Reader) Read(p []byte) (n int, err error) {
	for bgzf.current == nil || bgzf.index == len(bgzf.current.data) {
		if bgzf.current != nil {
			blockPool.Put(bgzf.current)
			bgzf.current = nil
		}
		if err = bgzf.nextBlock(); err != nil {
			return 0, err
		}
	}
	n = copy(p, bgzf.current.data[bgzf.index:])
	bgzf.index += n
	return n, nil
}

type (
	// Writer writes in parallel to a BGZF file.
	Writer struct {
		w       io.Writer
		p       pipeline.Pipeline
		wait    sync.WaitGroup
		pending *block
		blocks  chan *block
		fetched interface{}
	}

	writerSource Writer
)

func (*writerSource) Err() error {
	return nil
}

func (src *writerSource) Prepare(_ context.Context) int {
	return -1
}

func (src *writerSource) Fetch(_ int) int {
	if b, ok := <-src.blocks; ok {
		src.fetched = b
		return 1
	}
	src.fetched = nil
	return 0
}

func (src *writerSource) Data() interface{} {
	return src.fetched
}

var deflaterPool sync.Pool

func deflate(p *pipeline.Pipeline, level int, uncompressed *block) *block {
	compressed := blockPool.Get().(*block)
	buf := bytes.NewBuffer(compressed.data[:0])
	buf.Write([]byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
		0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
		0x42, 0x43, 0x02, 0x00, 0x00, 0x00,
	})
	var deflater *flate.Writer
	if pooled := deflaterPool.Get(); pooled != nil {
		deflater = pooled.(*flate.Writer)
		deflater.Reset(buf)
	} else {
		var err error
		if deflater, err = flate.NewWriter(buf, level); err != nil {
			p.SetErr(err)
			return compressed
		}
	}
	if _, err := deflater.Write(uncompressed.data); err != nil {
		p.SetErr(err)
	} else if err := deflater.Close(); err != nil {
		p.SetErr(err)
	}
	var tail [8]byte
	binary.LittleEndian.PutUint32(tail[0:4], crc32.ChecksumIEEE(uncompressed.data))
	binary.LittleEndian.PutUint32(tail[4:8], uint32(len(uncompressed.data)))
	buf.Write(tail[:])
	compressed.data = buf.Bytes()
	binary.LittleEndian.PutUint16(compressed.data[16:18], uint16(len(compressed.data)-1))
	uncompressed.data = uncompressed.data[:0]
	blockPool.Put(uncompressed)
	deflaterPool.Put(deflater)
	return compressed
}

// NewWriter returns a Writer for the given io.Writer. Levels follow
// the flate package.
func NewWriter(w io.Writer, level int) *Writer {
	bgzf := &Writer{
		w:       w,
		pending: blockPool.Get().(*block),
		blocks:  make(chan *block, 1),
	}
	bgzf.pending.data = bgzf.pending.data[:0]
	bgzf.p.Source((*writerSource)(bgzf))
	bgzf.p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			return deflate(&bgzf.p, level, data.(*block))
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			compressed := data.(*block)
			if _, err := w.Write(compressed.data); err != nil {
				bgzf.p.SetErr(err)
			}
			compressed.data = compressed.data[:0]
			blockPool.Put(compressed)
			return nil
		})),
	)
	bgzf.wait.Add(1)
	go func() {
		defer bgzf.wait.Done()
		bgzf.p.Run()
	}()
	return bgzf
}

// Write implements the corresponding method of io.Writer.
func (bgzf *Writer) Write(p []byte) (n int, err error) {
	n = len(p)
	for len(p) > 0 {
		start := len(bgzf.pending.data)
		room := maxBlockSize - 1024 - start
		if len(p) < room {
			bgzf.pending.data = append(bgzf.pending.data, p...)
			return n, nil
		}
		bgzf.pending.data = append(bgzf.pending.data, p[:room]...)
		p = p[room:]
		bgzf.blocks <- bgzf.pending
		bgzf.pending = blockPool.Get().(*block)
		bgzf.pending.data = bgzf.pending.data[:0]
	}
	return n, nil
}

// Close flushes pending data, waits for all blocks to be written and
// appends the BGZF end-of-file marker.
func (bgzf *Writer) Close() error {
	if len(bgzf.pending.data) > 0 {
		bgzf.blocks <- bgzf.pending
		bgzf.pending = nil
	}
	close(bgzf.blocks)
	bgzf.wait.Wait()
	if err := bgzf.p.Err(); err != nil {
		return err
	}
	_, err := bgzf.w.Write(eofMarker)
	return err
}
