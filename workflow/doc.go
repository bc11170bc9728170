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

// Package workflow runs the fixed chain of long-read analysis stages.
//
// A Catalog lists the stages in order. Each Stage declares the
// commands it runs, the artifacts it requires from the RunContext or
// from strictly earlier stages, and the artifacts it produces. The
// Driver walks the catalog one stage at a time: it checks the stage's
// inputs, removes stale files at its output paths, runs it through a
// StageRunner, and records its outputs in an ArtifactStore, which only
// succeeds when every declared output exists and is not empty. Any failure ends the run in the FAILED state; stages
// are never retried and never run concurrently.
//
// The ProcessRunner executes stage commands as child processes in the
// working directory, one process group per command, and collects their
// output in a log file per stage. Tests substitute their own
// StageRunner that writes stub artifacts.
package workflow
