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

package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/ontflow/workflow"
)

func TestCreateLogFilename(t *testing.T) {
	name := createLogFilename("1234")
	if !strings.HasPrefix(name, "logs/ontflow/ontflow-") || !strings.HasSuffix(name, "-1234.log") {
		t.Error("createLogFilename failed:", name)
	}
}

func TestCheckCreate(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sub", "out.txt")
	if !checkCreate("", name) {
		t.Error("checkCreate failed")
	}
	if checkExist("", name) {
		t.Error("checkCreate left a file behind")
	}
	if checkCreate("", "") {
		t.Error("checkCreate empty failed")
	}
}

func TestRunFailure(t *testing.T) {
	cause := &workflow.ExternalToolError{Stage: workflow.StageAlign, Tool: "minimap2", ExitCode: 2, Log: "logs/stages/03-align.log"}
	run := &workflow.PipelineRun{
		Status: workflow.Failed,
		Index:  3,
		Failed: workflow.StageAlign,
		Err:    cause,
		Results: []workflow.StageResult{
			{Stage: workflow.StageReferenceIndex},
			{Stage: workflow.StageAlign, ExitCode: 2, Log: "logs/stages/03-align.log"},
		},
	}
	err := runFailure(nil, run)
	var toolErr *workflow.ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Errorf("runFailure failed: %v", err)
	}
	for _, s := range []string{"stage 3 (align)", "exit code 2", "logs/stages/03-align.log"} {
		if !strings.Contains(err.Error(), s) {
			t.Errorf("runFailure failed: %q does not mention %q", err, s)
		}
	}
}
