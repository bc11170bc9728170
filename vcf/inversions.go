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
	"fmt"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/ontflow/internal"
)

// FilterInversions copies the header of the input VCF file and those of
// its records that are inversions with FILTER PASS to output. Records
// are copied verbatim and in their original order. It returns the
// number of records kept and the number of records seen.
func FilterInversions(input, output string) (kept, total int, err error) {
	in, err := Open(input)
	if err != nil {
		return 0, 0, err
	}
	defer internal.CloseWith(in, &err)
	hdr, err := in.ParseHeader()
	if err != nil {
		return 0, 0, err
	}
	out, err := Create(output)
	if err != nil {
		return 0, 0, err
	}
	defer internal.CloseWith(out, &err)
	for _, line := range hdr.Lines {
		if err = out.WriteLine(line); err != nil {
			return 0, 0, err
		}
	}

	type selection struct {
		lines []string
		total int
	}

	var p pipeline.Pipeline
	p.Source(in)
	p.SetVariableBatchSize(internal.MinBatchSize, internal.MaxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			lines := data.([]string)
			batch := selection{total: len(lines)}
			var sc StringScanner
			for _, line := range lines {
				sc.Reset(line)
				v := sc.ParseVariant()
				if err := sc.Err(); err != nil {
					p.SetErr(fmt.Errorf("%v: %w in %q", input, err, line))
					return batch
				}
				if IsPassInversion(v) {
					batch.lines = append(batch.lines, line)
				}
			}
			return batch
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.(selection)
			total += batch.total
			for _, line := range batch.lines {
				if err := out.WriteLine(line); err != nil {
					p.SetErr(err)
					return nil
				}
				kept++
			}
			return nil
		})),
	)
	err = internal.RunPipeline(&p)
	return kept, total, err
}
