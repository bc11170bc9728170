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
	"io"
	"strconv"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/ontflow/internal"
)

// DefaultMinQual is the QUAL threshold of the workflow's variant
// summary.
const DefaultMinQual = 20

// Summary tallies the variants of a VCF file.
type Summary struct {
	MinQual  float64
	Total    int
	HighQual int // variants with QUAL strictly greater than MinQual
}

// Format writes the summary as two tab-separated lines.
func (s Summary) Format(out io.Writer) error {
	_, err := fmt.Fprintf(out, "total\t%d\nQUAL>%s\t%d\n",
		s.Total, strconv.FormatFloat(s.MinQual, 'f', -1, 64), s.HighQual)
	return err
}

// Summarize counts the variants of the named VCF file, and those among
// them with a QUAL value strictly greater than minQual. The file is
// only read.
func Summarize(name string, minQual float64) (summary Summary, err error) {
	input, err := Open(name)
	if err != nil {
		return summary, err
	}
	defer internal.CloseWith(input, &err)
	if _, err = input.ParseHeader(); err != nil {
		return summary, err
	}
	summary.MinQual = minQual

	var p pipeline.Pipeline
	p.Source(input)
	p.SetVariableBatchSize(internal.MinBatchSize, internal.MaxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			lines := data.([]string)
			batch := Summary{Total: len(lines)}
			var sc StringScanner
			for _, line := range lines {
				sc.Reset(line)
				v := sc.ParseVariant()
				if err := sc.Err(); err != nil {
					p.SetErr(fmt.Errorf("%v: %w in %q", name, err, line))
					return batch
				}
				if v.QualAbove(minQual) {
					batch.HighQual++
				}
			}
			return batch
		})),
		pipeline.Seq(pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.(Summary)
			summary.Total += batch.Total
			summary.HighQual += batch.HighQual
			return nil
		})),
	)
	err = internal.RunPipeline(&p)
	return summary, err
}
