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
	"os"
	"strings"
	"text/tabwriter"

	"github.com/exascience/ontflow/workflow"
)

// StagesHelp is the help string for this command.
const StagesHelp = "\nstages parameters:\n" +
	"ontflow stages\n"

// Stages implements the ontflow stages command. It prints the command
// templates and artifacts of every stage.
func Stages(args []string) error {
	var flags flag.FlagSet

	parseFlags(&flags, args, 0, StagesHelp)

	catalog := workflow.DefaultCatalog()
	if err := workflow.ValidateCatalog(catalog); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, stage := range catalog {
		for i, cmd := range stage.Commands {
			id := ""
			if i == 0 {
				id = fmt.Sprintf("%02d %v", stage.Ordinal, stage.ID)
			}
			line := cmd.Tool + " " + strings.Join(cmd.Args, " ")
			if cmd.Stdout != "" {
				line += " > " + cmd.Stdout
			}
			fmt.Fprintf(w, "%v\t%v\n", id, line)
		}
		var outputs []string
		for _, output := range stage.Outputs {
			outputs = append(outputs, output.Path)
		}
		fmt.Fprintf(w, "\t-> %v\n", strings.Join(outputs, ", "))
	}
	return w.Flush()
}
