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

package workflow

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func shellStage(script string, outputs ...Artifact) *Stage {
	return &Stage{
		ID:       "shell",
		Commands: []Command{{Tool: "sh", Args: []string{"-c", script}}},
		Outputs:  outputs,
	}
}

func TestProcessRunnerSuccess(t *testing.T) {
	rc := newTestContext(t)
	stage := shellStage("mkdir -p sub && echo hello > sub/out.txt && echo progress >&2", Artifact{"out", "sub/out.txt"})
	stage.Dirs = []string{"other"}
	store := NewArtifactStore(rc.WorkDir(), Catalog{stage})
	result, err := ProcessRunner{}.Run(context.Background(), stage, rc, store)
	if err != nil {
		t.Fatal("Run failed:", err)
	}
	if result.ExitCode != 0 || result.Stage != "shell" || result.Log != rc.StageLog(stage) {
		t.Errorf("Run failed: %+v", result)
	}
	if data, err := os.ReadFile(rc.Path("sub/out.txt")); err != nil || string(data) != "hello\n" {
		t.Errorf("Run failed: output %q %v", data, err)
	}
	if info, err := os.Stat(rc.Path("other")); err != nil || !info.IsDir() {
		t.Error("Run failed to create directory")
	}
	log, err := os.ReadFile(result.Log)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "Executing command: sh -c") || !strings.Contains(string(log), "progress\n") {
		t.Errorf("Run failed: log %q", log)
	}
	if err := store.Record(stage.ID, stage.Outputs); err != nil {
		t.Error("Record failed:", err)
	}
}

func TestProcessRunnerExitCode(t *testing.T) {
	rc := newTestContext(t)
	stage := shellStage("echo before; exit 3")
	stage.Commands = append(stage.Commands, Command{Tool: "sh", Args: []string{"-c", "echo never > never.txt"}})
	result, err := ProcessRunner{}.Run(context.Background(), stage, rc, NewArtifactStore(rc.WorkDir(), Catalog{stage}))
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Run failed: expected ExternalToolError, got %v", err)
	}
	if toolErr.ExitCode != 3 || result.ExitCode != 3 || toolErr.Tool != "sh" || toolErr.Stage != "shell" || toolErr.Log != result.Log {
		t.Errorf("Run failed: %+v %+v", toolErr, result)
	}
	if _, err := os.Stat(rc.Path("never.txt")); err == nil {
		t.Error("Run continued after failing command")
	}
}

func TestProcessRunnerStdout(t *testing.T) {
	rc := newTestContext(t)
	stage := shellStage("printf 're%s\\n' directed; echo diagnostics >&2", Artifact{"result", "result.txt"})
	stage.Commands[0].Stdout = "{out:result}"
	result, err := ProcessRunner{}.Run(context.Background(), stage, rc, NewArtifactStore(rc.WorkDir(), Catalog{stage}))
	if err != nil {
		t.Fatal("Run failed:", err)
	}
	if data, err := os.ReadFile(rc.Path("result.txt")); err != nil || string(data) != "redirected\n" {
		t.Errorf("Run failed: stdout %q %v", data, err)
	}
	log, err := os.ReadFile(result.Log)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(log), "redirected") || !strings.Contains(string(log), "diagnostics") {
		t.Errorf("Run failed: log %q", log)
	}
}

func TestProcessRunnerMissingTool(t *testing.T) {
	rc := newTestContext(t)
	stage := shellStage("true")
	stage.Commands[0].Tool = "/nonexistent/ontflow-tool"
	result, err := ProcessRunner{}.Run(context.Background(), stage, rc, NewArtifactStore(rc.WorkDir(), Catalog{stage}))
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) || toolErr.ExitCode != -1 || result.ExitCode != -1 {
		t.Errorf("Run failed: %v", err)
	}
}

func TestProcessRunnerCancel(t *testing.T) {
	rc := newTestContext(t)
	stage := shellStage("sleep 30 & wait")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	result, err := ProcessRunner{GracePeriod: time.Second}.Run(ctx, stage, rc, NewArtifactStore(rc.WorkDir(), Catalog{stage}))
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Run failed: cancellation took %v", elapsed)
	}
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) || toolErr.ExitCode != -1 || result.ExitCode != -1 {
		t.Errorf("Run failed: %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run failed: expected deadline exceeded, got %v", err)
	}
}

func TestProcessRunnerUnresolved(t *testing.T) {
	rc := newTestContext(t)
	c := DefaultCatalog()
	_, err := ProcessRunner{}.Run(context.Background(), c[1], rc, NewArtifactStore(rc.WorkDir(), c))
	var unresolved *UnresolvedArtifactError
	if !errors.As(err, &unresolved) {
		t.Errorf("Run failed: %v", err)
	}
}
