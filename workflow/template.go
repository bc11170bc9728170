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
	"errors"
	"fmt"
	"strings"
)

// forEachPlaceholder calls f for every {key} in s, in order, and returns
// s with every placeholder replaced by the result of f.
func forEachPlaceholder(s string, f func(key string) (string, error)) (string, error) {
	var result strings.Builder
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			result.WriteString(s)
			return result.String(), nil
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", s)
		}
		value, err := f(s[open+1 : open+end])
		if err != nil {
			return "", err
		}
		result.WriteString(s[:open])
		result.WriteString(value)
		s = s[open+end+1:]
	}
}

func splitKey(key string) (prefix, name string, qualified bool) {
	if colon := strings.IndexByte(key, ':'); colon >= 0 {
		return key[:colon], key[colon+1:], true
	}
	return "", key, false
}

var paramProbe RunContext

// check verifies that every placeholder of cmd is known and refers only
// to declared inputs and outputs of stage.
func (cmd Command) check(stage *Stage) error {
	checkKey := func(key string) (string, error) {
		prefix, name, qualified := splitKey(key)
		switch {
		case qualified && prefix == "out":
			if _, found := stage.Output(name); !found {
				return "", fmt.Errorf("stage %v: {%v} names an undeclared output", stage.ID, key)
			}
		case qualified:
			if !stage.requires(Ref{prefix, name}) {
				return "", fmt.Errorf("stage %v: {%v} names an undeclared input", stage.ID, key)
			}
		case name == InputReads:
			return "", fmt.Errorf("stage %v: {%v} must be a whole argument", stage.ID, key)
		case name == InputReference:
			if !stage.requires(Ref{"", name}) {
				return "", fmt.Errorf("stage %v: {%v} names an undeclared input", stage.ID, key)
			}
		default:
			if _, known := paramProbe.param(name); !known {
				return "", fmt.Errorf("stage %v: unknown placeholder {%v}", stage.ID, key)
			}
		}
		return "", nil
	}
	if _, err := forEachPlaceholder(cmd.Tool, checkKey); err != nil {
		return err
	}
	if cmd.Tool == "" {
		return fmt.Errorf("stage %v: command without tool", stage.ID)
	}
	for _, arg := range cmd.Args {
		if arg == "{"+InputReads+"}" {
			if !stage.requires(Ref{"", InputReads}) {
				return fmt.Errorf("stage %v: {%v} names an undeclared input", stage.ID, InputReads)
			}
			continue
		}
		if _, err := forEachPlaceholder(arg, checkKey); err != nil {
			return err
		}
	}
	_, err := forEachPlaceholder(cmd.Stdout, checkKey)
	return err
}

// ExpandedCommand is a command with all placeholders replaced by
// concrete values.
type ExpandedCommand struct {
	Tool   string
	Args   []string
	Stdout string // absolute path, or "" for the stage log
}

func (cmd ExpandedCommand) String() string {
	var line strings.Builder
	line.WriteString(cmd.Tool)
	for _, arg := range cmd.Args {
		line.WriteByte(' ')
		line.WriteString(arg)
	}
	if cmd.Stdout != "" {
		line.WriteString(" > ")
		line.WriteString(cmd.Stdout)
	}
	return line.String()
}

// Expand replaces the placeholders of cmd for the given stage. Artifacts
// of earlier stages are resolved through store, so a stage can only see
// outputs that have been recorded.
func (cmd Command) Expand(rc *RunContext, store *ArtifactStore, stage *Stage) (ExpandedCommand, error) {
	expandKey := func(key string) (string, error) {
		prefix, name, qualified := splitKey(key)
		switch {
		case qualified && prefix == "out":
			output, found := stage.Output(name)
			if !found {
				return "", &UnresolvedArtifactError{Stage: stage.ID, Producer: stage.ID, Artifact: name, Reason: "not declared"}
			}
			return rc.Path(output.Path), nil
		case qualified:
			path, err := store.ResolveArtifact(prefix, name)
			var unresolved *UnresolvedArtifactError
			if errors.As(err, &unresolved) {
				unresolved.Stage = stage.ID
			}
			return path, err
		case name == InputReference:
			return rc.Reference(), nil
		}
		if value, known := rc.param(name); known {
			return value, nil
		}
		return "", fmt.Errorf("stage %v: unknown placeholder {%v}", stage.ID, key)
	}
	var result ExpandedCommand
	var err error
	if result.Tool, err = forEachPlaceholder(cmd.Tool, expandKey); err != nil {
		return result, err
	}
	for _, arg := range cmd.Args {
		if arg == "{"+InputReads+"}" {
			result.Args = append(result.Args, rc.RawReads()...)
			continue
		}
		expanded, err := forEachPlaceholder(arg, expandKey)
		if err != nil {
			return result, err
		}
		result.Args = append(result.Args, expanded)
	}
	if cmd.Stdout != "" {
		if result.Stdout, err = forEachPlaceholder(cmd.Stdout, expandKey); err != nil {
			return result, err
		}
	}
	return result, nil
}
