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
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/ontflow/fastq"
	"github.com/exascience/ontflow/internal"
	"github.com/exascience/ontflow/vcf"
)

// MergeReadsHelp is the help string for this command.
const MergeReadsHelp = "\nmerge-reads parameters:\n" +
	"ontflow merge-reads --output fastq-output-file fastq-input-file [fastq-input-file ...]\n"

// MergeReads implements the ontflow merge-reads command.
func MergeReads(args []string) error {
	var output string

	var flags flag.FlagSet

	flags.StringVar(&output, "output", "", "merged FASTQ file")

	parts := parseFlags(&flags, args, -1, MergeReadsHelp)

	// sanity checks

	var sanityChecksFailed bool

	for _, part := range parts {
		if !checkExist("", part) {
			sanityChecksFailed = true
		}
	}
	if !checkCreate("--output", output) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, MergeReadsHelp)
		os.Exit(1)
	}

	records, err := fastq.Merge(output, parts)
	if err != nil {
		return err
	}
	log.Printf("Merged %v reads from %v parts into %v.\n", records, len(parts), output)
	return nil
}

// FilterLengthHelp is the help string for this command.
const FilterLengthHelp = "\nfilter-length parameters:\n" +
	"ontflow filter-length [--min-length n] fastq-input-file fastq-output-file\n"

// FilterLength implements the ontflow filter-length command.
func FilterLength(args []string) error {
	var minLength int

	var flags flag.FlagSet

	flags.IntVar(&minLength, "min-length", fastq.DefaultMinLength, "minimum read length to keep")

	files := parseFlags(&flags, args, 2, FilterLengthHelp)
	input, output := files[0], files[1]

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if minLength < 0 {
		sanityChecksFailed = true
		log.Println("Error: Invalid min-length: ", minLength)
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, FilterLengthHelp)
		os.Exit(1)
	}

	kept, total, err := fastq.FilterLength(input, output, minLength)
	if err != nil {
		return err
	}
	log.Printf("Kept %v of %v reads with at least %v bases.\n", kept, total, minLength)
	return nil
}

// SummarizeVariantsHelp is the help string for this command.
const SummarizeVariantsHelp = "\nsummarize-variants parameters:\n" +
	"ontflow summarize-variants [--min-qual q] [--output summary-file] vcf-input-file\n"

// SummarizeVariants implements the ontflow summarize-variants command.
func SummarizeVariants(args []string) (err error) {
	var (
		minQual float64
		output  string
	)

	var flags flag.FlagSet

	flags.Float64Var(&minQual, "min-qual", vcf.DefaultMinQual, "count variants with QUAL strictly above this value")
	flags.StringVar(&output, "output", "", "summary file (default standard output)")

	input := parseFlags(&flags, args, 1, SummarizeVariantsHelp)[0]

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if output != "" && !checkCreate("--output", output) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, SummarizeVariantsHelp)
		os.Exit(1)
	}

	summary, err := vcf.Summarize(input, minQual)
	if err != nil {
		return err
	}
	if output == "" {
		return summary.Format(os.Stdout)
	}
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer internal.CloseWith(out, &err)
	return summary.Format(out)
}

// FilterInversionsHelp is the help string for this command.
const FilterInversionsHelp = "\nfilter-inversions parameters:\n" +
	"ontflow filter-inversions vcf-input-file vcf-output-file\n"

// FilterInversions implements the ontflow filter-inversions command.
func FilterInversions(args []string) error {
	var flags flag.FlagSet

	files := parseFlags(&flags, args, 2, FilterInversionsHelp)
	input, output := files[0], files[1]

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, FilterInversionsHelp)
		os.Exit(1)
	}

	kept, total, err := vcf.FilterInversions(input, output)
	if err != nil {
		return err
	}
	log.Printf("Kept %v of %v structural variants as PASS inversions.\n", kept, total)
	return nil
}
