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

// Stage identifiers, in catalog order.
const (
	StageMerge                  = "merge"
	StageFilter                 = "filter"
	StageReferenceIndex         = "reference-index"
	StageAlign                  = "align"
	StageSortIndex              = "sort-index"
	StageDepth                  = "depth"
	StageCallSmallVariants      = "call-small-variants"
	StageSummarizeVariants      = "summarize-variants"
	StageCallStructuralVariants = "call-structural-variants"
	StageFilterInversions       = "filter-inversions"
)

// Context inputs are provided by the RunContext rather than by a stage.
const (
	InputReads     = "reads"
	InputReference = "reference"
)

type (
	// Artifact is a file a stage produces, named for reference by later
	// stages. Path is relative to the working directory.
	Artifact struct {
		Name string
		Path string
	}

	// Ref names a required input: the artifact Artifact of stage Stage,
	// or the context input Artifact when Stage is empty.
	Ref struct {
		Stage    string
		Artifact string
	}

	// Command is a command template. Tool, every element of Args, and
	// Stdout may contain placeholders:
	//
	//   {param}           a RunContext value such as {threads} or {samtools}
	//   {reads}           the raw read parts, only as a whole argument
	//   {reference}       the reference genome
	//   {stage:artifact}  an artifact of an earlier stage
	//   {out:artifact}    an artifact of the stage itself
	//
	// When Stdout is not empty, the standard output of the command is
	// written to that file instead of to the stage log.
	Command struct {
		Tool   string
		Args   []string
		Stdout string
	}

	// Stage is one step of the workflow.
	Stage struct {
		ID       string
		Ordinal  int
		Commands []Command
		Inputs   []Ref
		Outputs  []Artifact
		Dirs     []string // created before the commands run
	}

	// Catalog is the ordered list of stages of a workflow.
	Catalog []*Stage
)

func (ref Ref) String() string {
	if ref.Stage == "" {
		return ref.Artifact
	}
	return ref.Stage + ":" + ref.Artifact
}

// Output returns the declared output with the given name.
func (stage *Stage) Output(name string) (Artifact, bool) {
	for _, output := range stage.Outputs {
		if output.Name == name {
			return output, true
		}
	}
	return Artifact{}, false
}

func (stage *Stage) requires(ref Ref) bool {
	for _, input := range stage.Inputs {
		if input == ref {
			return true
		}
	}
	return false
}

// Lookup returns the stage with the given identifier.
func (c Catalog) Lookup(id string) (*Stage, bool) {
	for _, stage := range c {
		if stage.ID == id {
			return stage, true
		}
	}
	return nil, false
}

// DefaultCatalog returns the stages of the long-read variant calling
// workflow.
func DefaultCatalog() Catalog {
	c := Catalog{
		{
			ID: StageMerge,
			Commands: []Command{{
				Tool: "{self}",
				Args: []string{"merge-reads", "--output", "{out:merged-reads}", "{reads}"},
			}},
			Inputs:  []Ref{{"", InputReads}},
			Outputs: []Artifact{{"merged-reads", MergedReads}},
		},
		{
			ID: StageFilter,
			Commands: []Command{{
				Tool: "{self}",
				Args: []string{"filter-length", "--min-length", "{min-length}", "{merge:merged-reads}", "{out:filtered-reads}"},
			}},
			Inputs:  []Ref{{StageMerge, "merged-reads"}},
			Outputs: []Artifact{{"filtered-reads", FilteredReads}},
		},
		{
			ID: StageReferenceIndex,
			Commands: []Command{{
				Tool: "{samtools}",
				Args: []string{"faidx", "{reference}"},
			}},
			Inputs:  []Ref{{"", InputReference}},
			Outputs: []Artifact{{"reference-index", ReferenceIndex}},
		},
		{
			ID: StageAlign,
			Commands: []Command{{
				Tool:   "{minimap2}",
				Args:   []string{"-ax", "map-ont", "--secondary=no", "-t", "{threads}", "{reference}", "{filter:filtered-reads}"},
				Stdout: "{out:alignment}",
			}},
			Inputs: []Ref{
				{"", InputReference},
				{StageFilter, "filtered-reads"},
			},
			Outputs: []Artifact{{"alignment", UnsortedAlignment}},
		},
		{
			ID: StageSortIndex,
			Commands: []Command{
				{
					Tool: "{samtools}",
					Args: []string{"sort", "-@", "{threads}", "-m", "{sort-memory}", "-o", "{out:sorted-alignment}", "{align:alignment}"},
				},
				{
					Tool: "{samtools}",
					Args: []string{"index", "-@", "{threads}", "{out:sorted-alignment}"},
				},
			},
			Inputs: []Ref{{StageAlign, "alignment"}},
			Outputs: []Artifact{
				{"sorted-alignment", SortedAlignment},
				{"alignment-index", SortedAlignmentIndex},
			},
		},
		{
			ID: StageDepth,
			Commands: []Command{{
				Tool: "{mosdepth}",
				Args: []string{"-t", "{threads}", "--by", "{depth-window}", "{workdir}/" + CoveragePrefix, "{sort-index:sorted-alignment}"},
			}},
			Inputs: []Ref{
				{StageSortIndex, "sorted-alignment"},
				{StageSortIndex, "alignment-index"},
			},
			Outputs: []Artifact{
				{"coverage", CoverageRegions},
				{"coverage-summary", CoverageSummary},
			},
			Dirs: []string{CoverageDir},
		},
		{
			ID: StageCallSmallVariants,
			Commands: []Command{{
				Tool: "{clair3}",
				Args: []string{
					"--bam_fn={sort-index:sorted-alignment}",
					"--ref_fn={reference}",
					"--threads={threads}",
					"--platform={platform}",
					"--model_path={model}",
					"--output={workdir}/" + SmallVariantDir,
				},
			}},
			Inputs: []Ref{
				{"", InputReference},
				{StageReferenceIndex, "reference-index"},
				{StageSortIndex, "sorted-alignment"},
				{StageSortIndex, "alignment-index"},
			},
			Outputs: []Artifact{{"small-variants", SmallVariants}},
			Dirs:    []string{SmallVariantDir},
		},
		{
			ID: StageSummarizeVariants,
			Commands: []Command{{
				Tool: "{self}",
				Args: []string{"summarize-variants", "--min-qual", "{min-qual}", "--output", "{out:variant-summary}", "{call-small-variants:small-variants}"},
			}},
			Inputs:  []Ref{{StageCallSmallVariants, "small-variants"}},
			Outputs: []Artifact{{"variant-summary", VariantSummary}},
		},
		{
			ID: StageCallStructuralVariants,
			Commands: []Command{{
				Tool: "{sniffles}",
				Args: []string{"--input", "{sort-index:sorted-alignment}", "--reference", "{reference}", "--vcf", "{out:structural-variants}", "--threads", "{threads}"},
			}},
			Inputs: []Ref{
				{"", InputReference},
				{StageSortIndex, "sorted-alignment"},
				{StageSortIndex, "alignment-index"},
			},
			Outputs: []Artifact{{"structural-variants", StructuralVariants}},
		},
		{
			ID: StageFilterInversions,
			Commands: []Command{{
				Tool: "{self}",
				Args: []string{"filter-inversions", "{call-structural-variants:structural-variants}", "{out:pass-inversions}"},
			}},
			Inputs:  []Ref{{StageCallStructuralVariants, "structural-variants"}},
			Outputs: []Artifact{{"pass-inversions", PassInversions}},
		},
	}
	for i, stage := range c {
		stage.Ordinal = i
	}
	return c
}

func isContextInput(name string) bool {
	return name == InputReads || name == InputReference
}

// ValidateCatalog checks the static invariants of a catalog: ordinals
// match positions, identifiers and outputs are unique, every input is a
// context input or an output of a strictly earlier stage, and every
// placeholder in a command template is known and declared.
func ValidateCatalog(c Catalog) error {
	if len(c) == 0 {
		return fmt.Errorf("empty stage catalog")
	}
	ordinals := make(map[string]int)
	paths := make(map[string]string)
	for i, stage := range c {
		if stage.Ordinal != i {
			return fmt.Errorf("stage %v has ordinal %v at position %v", stage.ID, stage.Ordinal, i)
		}
		if _, found := ordinals[stage.ID]; found || stage.ID == "" || stage.ID == "out" {
			return fmt.Errorf("invalid or duplicate stage identifier %q", stage.ID)
		}
		if len(stage.Commands) == 0 {
			return fmt.Errorf("stage %v has no commands", stage.ID)
		}
		if len(stage.Outputs) == 0 {
			return fmt.Errorf("stage %v declares no outputs", stage.ID)
		}
		names := make(map[string]bool)
		for _, output := range stage.Outputs {
			if names[output.Name] {
				return fmt.Errorf("stage %v declares output %v twice", stage.ID, output.Name)
			}
			names[output.Name] = true
			if producer, found := paths[output.Path]; found {
				return fmt.Errorf("stages %v and %v both produce %v", producer, stage.ID, output.Path)
			}
			paths[output.Path] = stage.ID
		}
		for _, input := range stage.Inputs {
			if err := checkInput(c, ordinals, stage, input); err != nil {
				return err
			}
		}
		ordinals[stage.ID] = i
		for _, cmd := range stage.Commands {
			if err := cmd.check(stage); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkInput expects ordinals to hold only the stages before stage.
func checkInput(c Catalog, ordinals map[string]int, stage *Stage, input Ref) error {
	if input.Stage == "" {
		if !isContextInput(input.Artifact) {
			return &UnresolvedArtifactError{Stage: stage.ID, Artifact: input.Artifact, Reason: "unknown context input"}
		}
		return nil
	}
	ordinal, found := ordinals[input.Stage]
	if !found {
		return &UnresolvedArtifactError{Stage: stage.ID, Producer: input.Stage, Artifact: input.Artifact, Reason: "producer does not precede the stage"}
	}
	if _, declared := c[ordinal].Output(input.Artifact); !declared {
		return &UnresolvedArtifactError{Stage: stage.ID, Producer: input.Stage, Artifact: input.Artifact, Reason: "producer does not declare the artifact"}
	}
	return nil
}
