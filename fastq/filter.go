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
	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/ontflow/internal"
)

// DefaultMinLength is the minimum read length kept by the workflow's
// filter stage.
const DefaultMinLength = 1000

type filteredBatch struct {
	kept  []*Record
	total int
}

// FilterLength copies the reads of input that have at least minLength
// bases to output, preserving their order. It returns the number of
// reads kept and the number of reads seen.
func FilterLength(input, output string, minLength int) (kept, total int, err error) {
	in, err := Open(input)
	if err != nil {
		return 0, 0, err
	}
	defer internal.CloseWith(in, &err)
	out, err := Create(output)
	if err != nil {
		return 0, 0, err
	}
	defer internal.CloseWith(out, &err)

	var p pipeline.Pipeline
	p.Source(in)
	p.SetVariableBatchSize(internal.MinBatchSize, internal.MaxBatchSize)
	p.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			records := data.([]*Record)
			batch := filteredBatch{total: len(records)}
			for _, record := range records {
				if LongEnough(record, minLength) {
					batch.kept = append(batch.kept, record)
				}
			}
			return batch
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			batch := data.(filteredBatch)
			total += batch.total
			for _, record := range batch.kept {
				if err := out.Write(record); err != nil {
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
