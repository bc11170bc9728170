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
	"os"
	"path/filepath"

	"github.com/bits-and-blooms/bitset"
)

// ArtifactStore records the validated outputs of completed stages and
// hands them to later stages. Only the driver goroutine uses it.
type ArtifactStore struct {
	root      string
	ordinals  map[string]uint
	completed bitset.BitSet
	outputs   map[string][]Artifact
}

// NewArtifactStore creates an empty store for the stages of catalog.
// Relative artifact paths are resolved against root.
func NewArtifactStore(root string, catalog Catalog) *ArtifactStore {
	store := &ArtifactStore{
		root:     root,
		ordinals: make(map[string]uint, len(catalog)),
		outputs:  make(map[string][]Artifact, len(catalog)),
	}
	for _, stage := range catalog {
		store.ordinals[stage.ID] = uint(stage.Ordinal)
	}
	return store
}

func (store *ArtifactStore) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(store.root, name)
}

// Verify checks that the file at path exists, is a regular file, and is
// not empty.
func (store *ArtifactStore) Verify(stageID, artifact, path string) error {
	path = store.path(path)
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return &ArtifactValidationError{Stage: stageID, Artifact: artifact, Path: path, Reason: "missing"}
	case !info.Mode().IsRegular():
		return &ArtifactValidationError{Stage: stageID, Artifact: artifact, Path: path, Reason: "not a regular file"}
	case info.Size() == 0:
		return &ArtifactValidationError{Stage: stageID, Artifact: artifact, Path: path, Reason: "empty"}
	}
	return nil
}

// Discard removes files left at the declared output paths of a stage
// that is about to run, so that Record only accepts outputs the stage
// wrote itself.
func (store *ArtifactStore) Discard(stageID string, outputs []Artifact) error {
	for _, output := range outputs {
		path := store.path(output.Path)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &ArtifactValidationError{Stage: stageID, Artifact: output.Name, Path: path, Reason: "stale and cannot be removed: " + err.Error()}
		}
	}
	return nil
}

// Record validates the declared outputs of a stage that exited
// successfully and marks the stage complete. Nothing is recorded when
// any output fails validation.
func (store *ArtifactStore) Record(stageID string, outputs []Artifact) error {
	ordinal, found := store.ordinals[stageID]
	if !found {
		return &UnresolvedArtifactError{Producer: stageID, Reason: "unknown stage"}
	}
	for _, output := range outputs {
		if err := store.Verify(stageID, output.Name, output.Path); err != nil {
			return err
		}
	}
	store.outputs[stageID] = append([]Artifact(nil), outputs...)
	store.completed.Set(ordinal)
	return nil
}

// Completed reports whether the stage has been recorded.
func (store *ArtifactStore) Completed(stageID string) bool {
	ordinal, found := store.ordinals[stageID]
	return found && store.completed.Test(ordinal)
}

// CompletedCount returns the number of recorded stages.
func (store *ArtifactStore) CompletedCount() int {
	return int(store.completed.Count())
}

// Resolve returns the absolute paths of the recorded outputs of a
// completed stage, in declaration order.
func (store *ArtifactStore) Resolve(stageID string) ([]string, error) {
	if !store.Completed(stageID) {
		return nil, &UnresolvedArtifactError{Producer: stageID, Reason: "stage has not completed"}
	}
	outputs := store.outputs[stageID]
	paths := make([]string, len(outputs))
	for i, output := range outputs {
		paths[i] = store.path(output.Path)
	}
	return paths, nil
}

// ResolveArtifact returns the absolute path of one named output of a
// completed stage.
func (store *ArtifactStore) ResolveArtifact(stageID, name string) (string, error) {
	if !store.Completed(stageID) {
		return "", &UnresolvedArtifactError{Producer: stageID, Artifact: name, Reason: "stage has not completed"}
	}
	for _, output := range store.outputs[stageID] {
		if output.Name == name {
			return store.path(output.Path), nil
		}
	}
	return "", &UnresolvedArtifactError{Producer: stageID, Artifact: name, Reason: "stage does not declare the artifact"}
}
