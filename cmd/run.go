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
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/exascience/ontflow/fasta"
	"github.com/exascience/ontflow/workflow"
)

// RunHelp is the help string for this command.
const RunHelp = "\nrun parameters:\n" +
	"ontflow [run]\n" +
	"[--workdir path]\n" +
	"[--input-glob pattern]\n" +
	"[--threads n]\n" +
	"[--sort-memory size]\n" +
	"[--model-path path]\n" +
	"[--grace-period duration]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Run implements the ontflow run command. It runs every stage of the
// workflow in order and fails at the first stage that does not
// complete.
func Run(args []string) error {
	var (
		profile string
		timed   bool
		runner  workflow.ProcessRunner
	)

	config := workflow.DefaultConfig()

	var flags flag.FlagSet

	flags.StringVar(&config.WorkDir, "workdir", config.WorkDir, "working directory for inputs and artifacts")
	flags.StringVar(&config.InputGlob, "input-glob", config.InputGlob, "pattern for the raw read parts, relative to the working directory")
	flags.IntVar(&config.Threads, "threads", config.Threads, "number of threads passed to external tools")
	flags.StringVar(&config.SortMemory, "sort-memory", config.SortMemory, "memory per samtools sort thread")
	flags.StringVar(&config.ModelPath, "model-path", config.ModelPath, "Clair3 model directory")
	flags.DurationVar(&runner.GracePeriod, "grace-period", workflow.DefaultGracePeriod, "time between SIGTERM and SIGKILL on interruption")
	flags.BoolVar(&timed, "timed", true, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file")
	flags.StringVar(&config.LogPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, args, 0, RunHelp)

	// sanity checks

	var sanityChecksFailed bool

	if config.Threads <= 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid threads: ", config.Threads)
	}
	if config.SortMemory == "" {
		sanityChecksFailed = true
		log.Println("Error: Missing sort memory.")
	}
	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, RunHelp)
		os.Exit(1)
	}

	rc, err := workflow.NewRunContext(config)
	if err != nil {
		return err
	}

	setLogOutput(rc.LogPath(), rc.RunID())

	log.Println("Working directory:", rc.WorkDir())
	log.Println("Raw read parts:", rc.RawReads())
	log.Println("Threads:", rc.Threads())

	catalog := workflow.DefaultCatalog()
	driver, err := workflow.NewDriver(rc, catalog, runner)
	if err != nil {
		return err
	}
	driver.OnStageStart = func(stage *workflow.Stage) {
		log.Printf("Stage %v/%v: %v (log: %v)\n", stage.Ordinal+1, len(catalog), stage.ID, rc.StageLog(stage))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var run *workflow.PipelineRun
	timedRun(timed, profile, "Running workflow.", func() {
		run = driver.Run(ctx)
	})

	if run.Status != workflow.Complete {
		return runFailure(rc, run)
	}
	log.Println("Workflow complete.")
	if fai, err := fasta.ParseFai(rc.Path(workflow.ReferenceIndex)); err != nil {
		log.Println("Warning: cannot read reference index:", err)
	} else {
		log.Printf("Reference: %v contigs, %v bases.\n", len(fai), fasta.TotalLength(fai))
	}
	return nil
}

func runFailure(rc *workflow.RunContext, run *workflow.PipelineRun) error {
	exitCode := -1
	stageLog := ""
	if n := len(run.Results); n > 0 && run.Results[n-1].Stage == run.Failed {
		exitCode = run.Results[n-1].ExitCode
		stageLog = run.Results[n-1].Log
	} else if stage, found := workflow.DefaultCatalog().Lookup(run.Failed); found {
		stageLog = rc.StageLog(stage)
	}
	return fmt.Errorf("workflow failed at stage %v (%v), exit code %v, log %v: %w", run.Index, run.Failed, exitCode, stageLog, run.Err)
}
