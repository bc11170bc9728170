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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/exascience/ontflow/fasta"
	"github.com/exascience/ontflow/fastq"
	"github.com/exascience/ontflow/internal"
	"github.com/exascience/ontflow/vcf"
)

// Fixed artifact file names, relative to the working directory.
// Downstream consumers rely on these names.
const (
	ReferenceFasta       = "reference.fasta"
	ReferenceIndex       = "reference.fasta.fai"
	MergedReads          = "minion_pass.fastq"
	FilteredReads        = "minion_filtered.fastq"
	UnsortedAlignment    = "minion_aligned.sam"
	SortedAlignment      = "minion_sorted.bam"
	SortedAlignmentIndex = "minion_sorted.bam.bai"
	CoverageDir          = "minion_mosdepth"
	CoveragePrefix       = "minion_mosdepth/minion_depth"
	CoverageRegions      = "minion_mosdepth/minion_depth.regions.bed.gz"
	CoverageSummary      = "minion_mosdepth/minion_depth.mosdepth.summary.txt"
	SmallVariantDir      = "clair3_output"
	SmallVariants        = "clair3_output/merge_output.vcf.gz"
	VariantSummary       = "variant_summary.txt"
	StructuralVariants   = "minion_inversion_results.vcf"
	PassInversions       = "inversions_PASS.vcf"
)

// Tools names the external executables. Names without a path separator
// are looked up in PATH.
type Tools struct {
	Samtools string
	Minimap2 string
	Mosdepth string
	Clair3   string
	Sniffles string
}

// Config holds the values a RunContext is built from.
type Config struct {
	WorkDir       string
	InputGlob     string // relative to WorkDir
	Threads       int
	SortMemory    string // per sort thread
	DepthWindow   int
	MinReadLength int
	MinQual       float64
	Platform      string
	ModelPath     string
	Tools         Tools
	Executable    string // "" for the running executable
	LogPath       string // "" for WorkDir
}

// DefaultConfig returns the built-in configuration of the workflow.
func DefaultConfig() Config {
	return Config{
		WorkDir:       ".",
		InputGlob:     "fastq_pass/*.fastq*",
		Threads:       runtime.GOMAXPROCS(0),
		SortMemory:    "2G",
		DepthWindow:   500,
		MinReadLength: fastq.DefaultMinLength,
		MinQual:       vcf.DefaultMinQual,
		Platform:      "ont",
		ModelPath:     "/opt/models/r941_prom_sup_g5014",
		Tools: Tools{
			Samtools: "samtools",
			Minimap2: "minimap2",
			Mosdepth: "mosdepth",
			Clair3:   "run_clair3.sh",
			Sniffles: "sniffles",
		},
	}
}

// RunContext is the immutable configuration of one run. All stages of
// a run read the same RunContext.
type RunContext struct {
	config   Config
	workDir  string
	logPath  string
	rawReads []string
	runID    string
}

// NewRunContext validates config and builds a RunContext from it. The
// input glob is expanded once; the resulting list of raw read parts is
// fixed for the lifetime of the run.
func NewRunContext(config Config) (*RunContext, error) {
	if config.Threads <= 0 {
		return nil, &ConfigError{Reason: "thread count must be positive: " + strconv.Itoa(config.Threads)}
	}
	if config.DepthWindow <= 0 {
		return nil, &ConfigError{Reason: "depth window must be positive: " + strconv.Itoa(config.DepthWindow)}
	}
	workDir, err := internal.FullPathname(config.WorkDir)
	if err != nil {
		return nil, &ConfigError{Path: config.WorkDir, Reason: "invalid working directory", Err: err}
	}
	workDir = filepath.Clean(workDir)
	if !internal.IsDirectory(workDir) {
		return nil, &ConfigError{Path: workDir, Reason: "working directory does not exist"}
	}
	pattern := filepath.Join(workDir, config.InputGlob)
	if inputDir := filepath.Dir(pattern); !internal.IsDirectory(inputDir) {
		return nil, &ConfigError{Path: inputDir, Reason: "input directory does not exist"}
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &ConfigError{Path: pattern, Reason: "invalid input glob", Err: err}
	}
	var rawReads []string
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && info.Mode().IsRegular() {
			rawReads = append(rawReads, match)
		}
	}
	if len(rawReads) == 0 {
		return nil, &ConfigError{Path: pattern, Reason: "no input files match"}
	}
	sort.Strings(rawReads)
	reference := filepath.Join(workDir, ReferenceFasta)
	if size, err := internal.FileSize(reference); err != nil {
		return nil, &ConfigError{Path: reference, Reason: "reference genome not available", Err: err}
	} else if size == 0 {
		return nil, &ConfigError{Path: reference, Reason: "reference genome is empty"}
	}
	if _, err := fasta.FirstContig(reference); err != nil {
		return nil, &ConfigError{Path: reference, Reason: "invalid reference genome", Err: err}
	}
	if config.Executable == "" {
		if config.Executable, err = os.Executable(); err != nil {
			return nil, &ConfigError{Reason: "cannot determine executable", Err: err}
		}
	}
	logPath := workDir
	if config.LogPath != "" {
		if logPath, err = internal.FullPathname(config.LogPath); err != nil {
			return nil, &ConfigError{Path: config.LogPath, Reason: "invalid log path", Err: err}
		}
	}
	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return &RunContext{
		config:   config,
		workDir:  workDir,
		logPath:  logPath,
		rawReads: rawReads,
		runID:    runID.String(),
	}, nil
}

// WorkDir returns the absolute working directory.
func (rc *RunContext) WorkDir() string { return rc.workDir }

// InputGlob returns the configured input glob.
func (rc *RunContext) InputGlob() string { return rc.config.InputGlob }

// RawReads returns the absolute paths of the raw read parts, sorted.
func (rc *RunContext) RawReads() []string {
	return append([]string(nil), rc.rawReads...)
}

// Threads returns the thread count passed to external tools.
func (rc *RunContext) Threads() int { return rc.config.Threads }

// Reference returns the absolute path of the reference genome.
func (rc *RunContext) Reference() string { return rc.Path(ReferenceFasta) }

// Tools returns the external executables.
func (rc *RunContext) Tools() Tools { return rc.config.Tools }

// Executable returns the path of the ontflow binary used for the
// built-in stages.
func (rc *RunContext) Executable() string { return rc.config.Executable }

// RunID returns the unique identifier of this run.
func (rc *RunContext) RunID() string { return rc.runID }

// Config returns a copy of the configuration the RunContext was built
// from.
func (rc *RunContext) Config() Config { return rc.config }

// Path resolves a path relative to the working directory.
func (rc *RunContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(rc.workDir, name)
}

// LogPath returns the directory under which logs/ is created.
func (rc *RunContext) LogPath() string { return rc.logPath }

// StageLog returns the log file of the given stage.
func (rc *RunContext) StageLog(stage *Stage) string {
	return filepath.Join(rc.logPath, "logs", "stages", fmt.Sprintf("%02d-%v.log", stage.Ordinal, stage.ID))
}

// param returns the value of a scalar command template parameter.
func (rc *RunContext) param(key string) (string, bool) {
	switch key {
	case "workdir":
		return rc.workDir, true
	case "threads":
		return strconv.Itoa(rc.config.Threads), true
	case "sort-memory":
		return rc.config.SortMemory, true
	case "depth-window":
		return strconv.Itoa(rc.config.DepthWindow), true
	case "min-length":
		return strconv.Itoa(rc.config.MinReadLength), true
	case "min-qual":
		return strconv.FormatFloat(rc.config.MinQual, 'f', -1, 64), true
	case "platform":
		return rc.config.Platform, true
	case "model":
		return rc.config.ModelPath, true
	case "self":
		return rc.config.Executable, true
	case "samtools":
		return rc.config.Tools.Samtools, true
	case "minimap2":
		return rc.config.Tools.Minimap2, true
	case "mosdepth":
		return rc.config.Tools.Mosdepth, true
	case "clair3":
		return rc.config.Tools.Clair3, true
	case "sniffles":
		return rc.config.Tools.Sniffles, true
	}
	return "", false
}
