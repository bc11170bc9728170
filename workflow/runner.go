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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/exascience/ontflow/internal"
)

// StageResult describes one execution of a stage.
type StageResult struct {
	Stage    string
	ExitCode int
	Duration time.Duration
	Log      string
}

// StageRunner executes the commands of a single stage. Run returns when
// all child processes have exited. A non-nil error is always returned
// together with a result when the stage was started.
type StageRunner interface {
	Run(ctx context.Context, stage *Stage, rc *RunContext, store *ArtifactStore) (*StageResult, error)
}

// DefaultGracePeriod is the time a cancelled stage is given to exit
// after SIGTERM before its process group is killed.
const DefaultGracePeriod = 10 * time.Second

// ProcessRunner runs stage commands as child processes in the working
// directory, one after the other, each in its own process group.
type ProcessRunner struct {
	GracePeriod time.Duration
}

func (runner ProcessRunner) gracePeriod() time.Duration {
	if runner.GracePeriod > 0 {
		return runner.GracePeriod
	}
	return DefaultGracePeriod
}

// Run implements StageRunner.
func (runner ProcessRunner) Run(ctx context.Context, stage *Stage, rc *RunContext, store *ArtifactStore) (result *StageResult, err error) {
	start := time.Now()
	result = &StageResult{Stage: stage.ID, ExitCode: -1, Log: rc.StageLog(stage)}
	defer func() {
		result.Duration = time.Since(start)
	}()
	commands := make([]ExpandedCommand, 0, len(stage.Commands))
	for _, cmd := range stage.Commands {
		expanded, err := cmd.Expand(rc, store, stage)
		if err != nil {
			return result, err
		}
		commands = append(commands, expanded)
	}
	for _, dir := range stage.Dirs {
		if err := os.MkdirAll(rc.Path(dir), 0755); err != nil {
			return result, &ExternalToolError{Stage: stage.ID, Tool: commands[0].Tool, ExitCode: -1, Log: result.Log, Err: err}
		}
	}
	if err := os.MkdirAll(filepath.Dir(result.Log), 0700); err != nil {
		return result, &ExternalToolError{Stage: stage.ID, Tool: commands[0].Tool, ExitCode: -1, Log: result.Log, Err: err}
	}
	logFile, err := os.Create(result.Log)
	if err != nil {
		return result, &ExternalToolError{Stage: stage.ID, Tool: commands[0].Tool, ExitCode: -1, Log: result.Log, Err: err}
	}
	defer internal.CloseWith(logFile, &err)
	for _, cmd := range commands {
		fmt.Fprintln(logFile, "Executing command:", cmd)
		exitCode, runErr := runner.runCommand(ctx, cmd, rc.WorkDir(), logFile)
		result.ExitCode = exitCode
		if runErr != nil {
			return result, &ExternalToolError{Stage: stage.ID, Tool: cmd.Tool, ExitCode: exitCode, Log: result.Log, Err: runErr}
		}
	}
	return result, nil
}

// runCommand returns the exit status of cmd, or -1 when it could not be
// started or did not exit normally.
func (runner ProcessRunner) runCommand(ctx context.Context, cmd ExpandedCommand, dir string, logFile *os.File) (exitCode int, err error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	child := exec.CommandContext(ctx, cmd.Tool, cmd.Args...)
	child.Dir = dir
	child.Stdout = logFile
	child.Stderr = logFile
	if cmd.Stdout != "" {
		var out *os.File
		if out, err = os.Create(cmd.Stdout); err != nil {
			return -1, err
		}
		defer internal.CloseWith(out, &err)
		child.Stdout = out
	}
	child.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	var kill *time.Timer
	grace := runner.gracePeriod()
	child.Cancel = func() error {
		pgid := -child.Process.Pid
		kill = time.AfterFunc(grace, func() {
			_ = unix.Kill(pgid, unix.SIGKILL)
		})
		return unix.Kill(pgid, unix.SIGTERM)
	}
	child.WaitDelay = 2 * grace
	err = child.Run()
	if kill != nil {
		kill.Stop()
	}
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, fmt.Errorf("%w: %v", ctxErr, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}
	return -1, err
}
