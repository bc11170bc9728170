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

import "fmt"

// ConfigError reports an invalid RunContext configuration, such as a
// missing input directory or a glob that matches no files.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "configuration error: " + e.Reason
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExternalToolError reports a stage command that could not be started,
// exited with a non-zero status, or was interrupted. ExitCode is -1
// when the process did not exit normally.
type ExternalToolError struct {
	Stage    string
	Tool     string
	ExitCode int
	Log      string
	Err      error
}

func (e *ExternalToolError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("stage %v: %v exited with status %v (log: %v)", e.Stage, e.Tool, e.ExitCode, e.Log)
	}
	return fmt.Sprintf("stage %v: %v failed: %v (log: %v)", e.Stage, e.Tool, e.Err, e.Log)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// ArtifactValidationError reports a declared artifact that is missing
// or empty. Stage is the stage that was running or about to run when
// the problem was detected.
type ArtifactValidationError struct {
	Stage    string
	Artifact string
	Path     string
	Reason   string
}

func (e *ArtifactValidationError) Error() string {
	return fmt.Sprintf("stage %v: artifact %v (%v) is %v", e.Stage, e.Artifact, e.Path, e.Reason)
}

// UnresolvedArtifactError reports a request for an artifact of a stage
// that has not completed, or that does not declare the artifact. It
// indicates a defect in the stage catalog, not in the data.
type UnresolvedArtifactError struct {
	Stage    string
	Producer string
	Artifact string
	Reason   string
}

func (e *UnresolvedArtifactError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("unresolved artifact %v:%v: %v", e.Producer, e.Artifact, e.Reason)
	}
	return fmt.Sprintf("stage %v: unresolved artifact %v:%v: %v", e.Stage, e.Producer, e.Artifact, e.Reason)
}
