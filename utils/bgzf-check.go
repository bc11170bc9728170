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
	"io"
	"io/ioutil"

	"github.com/klauspost/compress/gzip"

	"github.com/exascience/ontflow/utils/bgzf"
)

// HandleGzip checks if the given reader produces a gzip stream by
// looking at its initial bytes. BGZF streams get a parallel
// bgzf.Reader, other gzip streams a multi-member gzip.Reader, and
// anything else is returned unchanged.
func HandleGzip(buf *bufio.Reader) (io.ReadCloser, error) {
	ok, err := bgzf.IsGzip(buf)
	if err == io.EOF {
		return ioutil.NopCloser(buf), nil
	} else if err != nil {
		return nil, err
	}
	if !ok {
		return ioutil.NopCloser(buf), nil
	}
	if bgzf.IsBgzf(buf) {
		return bgzf.NewReader(buf)
	}
	return gzip.NewReader(buf)
}
