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

package internal

import "github.com/exascience/pargo/pipeline"

// RunPipeline runs p and returns the first error any of its nodes
// reported.
func RunPipeline(p *pipeline.Pipeline) error {
	p.Run()
	return p.Err()
}

// Batch sizes used by the text pipelines.
const (
	MinBatchSize = 1024
	MaxBatchSize = 65536
)
