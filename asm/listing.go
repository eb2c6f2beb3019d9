// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"
)

// A Record is one annotated listing line for an assembled statement.
type Record struct {
	Address  uint16
	Bytes    []byte
	Label    string
	Mnemonic string
	Operand  string
	Comment  string
}

// String renders the record as a listing line. The byte column is
// truncated to ten hex characters, the way EDTASM prints it.
func (r Record) String() string {
	b := strings.ToUpper(fmt.Sprintf("%x", r.Bytes))
	if len(b) > 10 {
		b = b[:10]
	}
	line := fmt.Sprintf("%04X %-10s %-10s %-6s %-20s", r.Address, b, r.Label, r.Mnemonic, r.Operand)
	if r.Comment != "" {
		line += "; " + r.Comment
	}
	return strings.TrimRight(line, " ")
}

// records builds the listing for all parsed statements.
func (a *assembler) records() []Record {
	recs := make([]Record, 0, len(a.statements))
	for _, s := range a.statements {
		r := Record{
			Address: uint16(s.addr),
			Bytes:   s.bytes,
			Label:   s.label.str,
			Comment: s.comment,
		}
		if s.hasMnemonic() {
			r.Mnemonic = strings.ToUpper(s.mnemonic.str)
			r.Operand = s.operandText.str
		}
		recs = append(recs, r)
	}
	return recs
}

// SymbolLine renders one symbol-table entry.
func SymbolLine(s Symbol) string {
	kind := "label"
	if s.Kind == SymEquate {
		kind = "equate"
	}
	return fmt.Sprintf("$%04X %-6s %s", s.Value, kind, s.Name)
}
