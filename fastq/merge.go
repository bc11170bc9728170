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

	"github.com/exascience/ontflow/internal"
)

// Merge concatenates the records of all parts, in the given order,
// into a single plain FASTQ file, and returns the number of records
// written. Every part is parsed, so a malformed part fails the merge
// instead of producing a corrupt output.
func Merge(output string, parts []string) (records int, err error) {
	if len(parts) == 0 {
		return 0, errors.New("no FASTQ parts to merge")
	}
	out, err := Create(output)
	if err != nil {
		return 0, err
	}
	defer internal.CloseWith(out, &err)
	for _, part := range parts {
		n, err := copyRecords(out, part)
		records += n
		if err != nil {
			return records, err
		}
	}
	return records, nil
}

func copyRecords(out *OutputFile, part string) (records int, err error) {
	in, err := Open(part)
	if err != nil {
		return 0, err
	}
	defer internal.CloseWith(in, &err)
	for {
		record, err := in.Next()
		if err == io.EOF {
			return records, nil
		} else if err != nil {
			return records, err
		}
		if err := out.Write(record); err != nil {
			return records, err
		}
		records++
	}
}
