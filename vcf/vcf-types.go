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

package vcf

import "github.com/exascience/ontflow/utils"

// DefaultHeaderColumns for VCF files.
var DefaultHeaderColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// Commonly used VCF entries.
var (
	PASS   = utils.Intern("PASS")
	SVTYPE = utils.Intern("SVTYPE")
)

// INV is the SVTYPE value of inversions.
const INV = "INV"

type (
	// Header holds the meta-information and column header lines of a
	// VCF file, verbatim and without line terminators.
	Header struct {
		Lines   []string
		Columns []string
	}

	// Variant is a data line in a VCF file. Genotype columns are not
	// interpreted.
	Variant struct {
		Chrom  string
		Pos    int32          // < 0 if unknown
		ID     []string       // nil if missing
		Ref    string
		Alt    []string       // nil if missing
		Qual   interface{}    // float64, or nil if missing
		Filter []utils.Symbol // nil if missing
		Info   utils.SmallMap // values are string, or true for flags
	}
)

// QualAbove reports whether the variant has a QUAL value strictly
// greater than threshold. Variants without QUAL never qualify.
func (v *Variant) QualAbove(threshold float64) bool {
	qual, ok := v.Qual.(float64)
	return ok && qual > threshold
}

// Passed reports whether the FILTER column is exactly PASS.
func (v *Variant) Passed() bool {
	return len(v.Filter) == 1 && v.Filter[0] == PASS
}

// SVType returns the value of the SVTYPE INFO entry, or "" if there is
// none.
func (v *Variant) SVType() string {
	if value, ok := v.Info.Get(SVTYPE); ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return ""
}

// IsPassInversion reports whether the variant is an inversion that
// passed all filters. Both conditions must hold on the same record.
func IsPassInversion(v *Variant) bool {
	return v.SVType() == INV && v.Passed()
}
