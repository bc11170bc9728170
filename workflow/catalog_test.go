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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if err := ValidateCatalog(c); err != nil {
		t.Fatal("ValidateCatalog failed:", err)
	}
	var ids []string
	for _, stage := range c {
		ids = append(ids, stage.ID)
	}
	expected := []string{
		"merge", "filter", "reference-index", "align", "sort-index", "depth",
		"call-small-variants", "summarize-variants", "call-structural-variants", "filter-inversions",
	}
	if diff := cmp.Diff(expected, ids); diff != "" {
		t.Errorf("DefaultCatalog order failed (-want +got):\n%v", diff)
	}
	stage, found := c.Lookup(StageSortIndex)
	if !found || stage.Ordinal != 4 {
		t.Error("Lookup failed")
	}
	if _, found := c.Lookup("bogus"); found {
		t.Error("Lookup bogus failed")
	}
	var paths []string
	for _, stage := range c {
		for _, output := range stage.Outputs {
			paths = append(paths, output.Path)
		}
	}
	expected = []string{
		"minion_pass.fastq", "minion_filtered.fastq", "reference.fasta.fai", "minion_aligned.sam",
		"minion_sorted.bam", "minion_sorted.bam.bai",
		"minion_mosdepth/minion_depth.regions.bed.gz", "minion_mosdepth/minion_depth.mosdepth.summary.txt",
		"clair3_output/merge_output.vcf.gz", "variant_summary.txt",
		"minion_inversion_results.vcf", "inversions_PASS.vcf",
	}
	if diff := cmp.Diff(expected, paths); diff != "" {
		t.Errorf("DefaultCatalog outputs failed (-want +got):\n%v", diff)
	}
}

func TestValidateCatalogErrors(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(c Catalog) Catalog
		unresolved bool
	}{
		{"empty", func(Catalog) Catalog { return nil }, false},
		{"ordinal", func(c Catalog) Catalog {
			c[0], c[1] = c[1], c[0]
			return c
		}, false},
		{"duplicate id", func(c Catalog) Catalog {
			c[3].ID = StageMerge
			return c
		}, false},
		{"duplicate output path", func(c Catalog) Catalog {
			c[2].Outputs[0].Path = MergedReads
			return c
		}, false},
		{"forward input", func(c Catalog) Catalog {
			c[1].Inputs = append(c[1].Inputs, Ref{StageAlign, "alignment"})
			return c
		}, true},
		{"self input", func(c Catalog) Catalog {
			c[1].Inputs = append(c[1].Inputs, Ref{StageFilter, "filtered-reads"})
			return c
		}, true},
		{"undeclared producer output", func(c Catalog) Catalog {
			c[1].Inputs = append(c[1].Inputs, Ref{StageMerge, "bogus"})
			return c
		}, true},
		{"unknown context input", func(c Catalog) Catalog {
			c[1].Inputs = append(c[1].Inputs, Ref{"", "bogus"})
			return c
		}, true},
		{"unknown placeholder", func(c Catalog) Catalog {
			c[0].Commands[0].Args = append(c[0].Commands[0].Args, "{bogus}")
			return c
		}, false},
		{"undeclared input placeholder", func(c Catalog) Catalog {
			c[5].Commands[0].Args = append(c[5].Commands[0].Args, "{align:alignment}")
			return c
		}, false},
		{"undeclared output placeholder", func(c Catalog) Catalog {
			c[0].Commands[0].Stdout = "{out:bogus}"
			return c
		}, false},
		{"embedded reads", func(c Catalog) Catalog {
			c[0].Commands[0].Args = append(c[0].Commands[0].Args, "--reads={reads}")
			return c
		}, false},
		{"undeclared reference", func(c Catalog) Catalog {
			c[1].Commands[0].Args = append(c[1].Commands[0].Args, "{reference}")
			return c
		}, false},
		{"unterminated placeholder", func(c Catalog) Catalog {
			c[1].Commands[0].Args = append(c[1].Commands[0].Args, "{threads")
			return c
		}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ValidateCatalog(test.modify(DefaultCatalog()))
			if err == nil {
				t.Fatal("ValidateCatalog failed: expected error")
			}
			var unresolved *UnresolvedArtifactError
			if errors.As(err, &unresolved) != test.unresolved {
				t.Errorf("ValidateCatalog failed: unexpected error type %T", err)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	rc := newTestContext(t)
	c := DefaultCatalog()
	store := NewArtifactStore(rc.WorkDir(), c)

	merge, err := c[0].Commands[0].Expand(rc, store, c[0])
	if err != nil {
		t.Fatal(err)
	}
	expected := ExpandedCommand{
		Tool: "/usr/local/bin/ontflow",
		Args: append([]string{"merge-reads", "--output", rc.Path(MergedReads)}, rc.RawReads()...),
	}
	if diff := cmp.Diff(expected, merge); diff != "" {
		t.Errorf("Expand merge failed (-want +got):\n%v", diff)
	}

	var unresolved *UnresolvedArtifactError
	if _, err := c[1].Commands[0].Expand(rc, store, c[1]); !errors.As(err, &unresolved) {
		t.Errorf("Expand filter before merge failed: %v", err)
	}

	writeFile(t, rc.Path(MergedReads), fastqRecord("r1", 10))
	if err := store.Record(StageMerge, c[0].Outputs); err != nil {
		t.Fatal(err)
	}
	filter, err := c[1].Commands[0].Expand(rc, store, c[1])
	if err != nil {
		t.Fatal(err)
	}
	expected = ExpandedCommand{
		Tool: "/usr/local/bin/ontflow",
		Args: []string{"filter-length", "--min-length", "1000", rc.Path(MergedReads), rc.Path(FilteredReads)},
	}
	if diff := cmp.Diff(expected, filter); diff != "" {
		t.Errorf("Expand filter failed (-want +got):\n%v", diff)
	}

	writeFile(t, rc.Path(FilteredReads), fastqRecord("r1", 10))
	if err := store.Record(StageFilter, c[1].Outputs); err != nil {
		t.Fatal(err)
	}
	align, err := c[3].Commands[0].Expand(rc, store, c[3])
	if err != nil {
		t.Fatal(err)
	}
	expected = ExpandedCommand{
		Tool:   "minimap2",
		Args:   []string{"-ax", "map-ont", "--secondary=no", "-t", "4", rc.Reference(), rc.Path(FilteredReads)},
		Stdout: rc.Path(UnsortedAlignment),
	}
	if diff := cmp.Diff(expected, align); diff != "" {
		t.Errorf("Expand align failed (-want +got):\n%v", diff)
	}
	if got, want := align.String(), "minimap2 -ax map-ont --secondary=no -t 4 "+rc.Reference()+" "+rc.Path(FilteredReads)+" > "+rc.Path(UnsortedAlignment); got != want {
		t.Errorf("ExpandedCommand.String failed: %v", got)
	}

	if _, err := c[6].Commands[0].Expand(rc, store, c[6]); !errors.As(err, &unresolved) {
		t.Errorf("Expand call-small-variants before sort-index failed: %v", err)
	}
	writeFile(t, rc.Path(SortedAlignment), "bam")
	writeFile(t, rc.Path(SortedAlignmentIndex), "bai")
	if err := store.Record(StageSortIndex, c[4].Outputs); err != nil {
		t.Fatal(err)
	}
	clair3, err := c[6].Commands[0].Expand(rc, store, c[6])
	if err != nil {
		t.Fatal(err)
	}
	expected = ExpandedCommand{
		Tool: "run_clair3.sh",
		Args: []string{
			"--bam_fn=" + rc.Path(SortedAlignment),
			"--ref_fn=" + rc.Reference(),
			"--threads=4",
			"--platform=ont",
			"--model_path=/opt/models/r941_prom_sup_g5014",
			"--output=" + rc.WorkDir() + "/clair3_output",
		},
	}
	if diff := cmp.Diff(expected, clair3); diff != "" {
		t.Errorf("Expand call-small-variants failed (-want +got):\n%v", diff)
	}
}
