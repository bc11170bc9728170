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

// ontflow runs a fixed, linear workflow for long-read variant calling:
// raw nanopore reads are merged, length-filtered, aligned, sorted and
// indexed; coverage, small variants and structural variants are then
// computed, and the variant calls are reduced to a summary and a set of
// PASS inversions.
//
// Without arguments, ontflow runs the workflow in the current directory
// with the built-in configuration. The merge-reads, filter-length,
// summarize-variants and filter-inversions commands are the built-in
// tools that the workflow invokes for its text processing stages.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/ontflow/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: run, stages, merge-reads, filter-length, summarize-variants, filter-inversions")
	fmt.Fprint(os.Stderr, "\n", cmd.RunHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.StagesHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.MergeReadsHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FilterLengthHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.SummarizeVariantsHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FilterInversionsHelp)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
		if err := cmd.Run(nil); err != nil {
			log.Fatal(err)
		}
		return
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "run":
		fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
		err = cmd.Run(args)
	case "stages":
		err = cmd.Stages(args)
	case "merge-reads":
		err = cmd.MergeReads(args)
	case "filter-length":
		err = cmd.FilterLength(args)
	case "summarize-variants":
		err = cmd.SummarizeVariants(args)
	case "filter-inversions":
		err = cmd.FilterInversions(args)
	case "help", "-help", "--help", "-h", "--h":
		fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
		printHelp()
	default:
		log.Println("Unknown command:", os.Args[1])
		fmt.Fprintln(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
