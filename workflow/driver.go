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
	"fmt"
	"log"
	"time"
)

// Status is the state of a pipeline run.
type Status int

const (
	// Init means no stage has started yet.
	Init Status = iota
	// Running means the stage at PipelineRun.Index is executing.
	Running
	// Failed means the stage at PipelineRun.Index failed. Failed is
	// terminal.
	Failed
	// Complete means every stage completed. Complete is terminal.
	Complete
)

func (s Status) String() string {
	switch s {
	case Init:
		return "INIT"
	case Running:
		return "RUNNING"
	case Failed:
		return "FAILED"
	case Complete:
		return "COMPLETE"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// PipelineRun is the outcome of Driver.Run.
type PipelineRun struct {
	Status  Status
	Index   int           // current or failed stage
	Failed  string        // identifier of the failed stage
	Err     error         // cause of the failure
	Results []StageResult // one entry per started stage
}

func (run *PipelineRun) String() string {
	switch run.Status {
	case Running:
		return fmt.Sprintf("RUNNING(%d)", run.Index)
	case Failed:
		return fmt.Sprintf("FAILED(%d, %v)", run.Index, run.Err)
	}
	return run.Status.String()
}

// Driver executes the stages of a catalog strictly in order, stopping
// at the first failure.
type Driver struct {
	// OnStageStart, when not nil, is called before the inputs of a
	// stage are verified.
	OnStageStart func(stage *Stage)

	rc      *RunContext
	catalog Catalog
	runner  StageRunner
	store   *ArtifactStore
}

// NewDriver validates catalog and returns a driver for it.
func NewDriver(rc *RunContext, catalog Catalog, runner StageRunner) (*Driver, error) {
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	return &Driver{
		rc:      rc,
		catalog: catalog,
		runner:  runner,
		store:   NewArtifactStore(rc.WorkDir(), catalog),
	}, nil
}

// Store returns the artifact store of the driver.
func (d *Driver) Store() *ArtifactStore {
	return d.store
}

// verifyInputs re-checks the inputs of stage on disk.
func (d *Driver) verifyInputs(stage *Stage) error {
	for _, input := range stage.Inputs {
		switch {
		case input.Stage != "":
			path, err := d.store.ResolveArtifact(input.Stage, input.Artifact)
			if err != nil {
				return err
			}
			if err := d.store.Verify(stage.ID, input.String(), path); err != nil {
				return err
			}
		case input.Artifact == InputReads:
			for _, part := range d.rc.RawReads() {
				if err := d.store.Verify(stage.ID, input.Artifact, part); err != nil {
					return err
				}
			}
		case input.Artifact == InputReference:
			if err := d.store.Verify(stage.ID, input.Artifact, d.rc.Reference()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes the stages. The driver must not be reused.
func (d *Driver) Run(ctx context.Context) *PipelineRun {
	run := &PipelineRun{Status: Init}
	log.Printf("Run %v: %v\n", d.rc.RunID(), run)
	fail := func(stage *Stage, err error) *PipelineRun {
		run.Status, run.Failed, run.Err = Failed, stage.ID, err
		log.Printf("Run %v: %v\n", d.rc.RunID(), run)
		return run
	}
	for i, stage := range d.catalog {
		run.Status, run.Index = Running, i
		log.Printf("Run %v: %v %v\n", d.rc.RunID(), run, stage.ID)
		if d.OnStageStart != nil {
			d.OnStageStart(stage)
		}
		if err := ctx.Err(); err != nil {
			return fail(stage, err)
		}
		if err := d.verifyInputs(stage); err != nil {
			return fail(stage, err)
		}
		if err := d.store.Discard(stage.ID, stage.Outputs); err != nil {
			return fail(stage, err)
		}
		start := time.Now()
		result, err := d.runner.Run(ctx, stage, d.rc, d.store)
		if result != nil {
			run.Results = append(run.Results, *result)
		}
		if err != nil {
			return fail(stage, err)
		}
		if err := d.store.Record(stage.ID, stage.Outputs); err != nil {
			return fail(stage, err)
		}
		log.Printf("Stage %v elapsed time: %v\n", stage.ID, time.Since(start))
	}
	run.Status = Complete
	log.Printf("Run %v: %v\n", d.rc.RunID(), run)
	return run
}
