// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass assembler for the Motorola 6809,
// source-compatible at the statement level with EDTASM+.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cocotools/go6809/cpu"
)

var errParse = errors.New("parse error")

// An ErrorKind classifies an assembly error.
type ErrorKind byte

// Error kinds.
const (
	LexError ErrorKind = iota
	SyntaxError
	UnresolvedSymbol
	DuplicateSymbol
	ValueOutOfRange
	IllegalAddressingMode
	IllegalIndexedCombination
	DirectPageMismatch
	IncludeCycle
	IOError
)

var errorKindName = []string{
	"lex error", "syntax error", "unresolved symbol", "duplicate symbol",
	"value out of range", "illegal addressing mode",
	"illegal indexed combination", "direct page mismatch",
	"include cycle", "i/o error",
}

func (k ErrorKind) String() string {
	return errorKindName[k]
}

// An asmerror is used to keep track of errors encountered during
// assembly.
type asmerror struct {
	line fstring
	kind ErrorKind
	msg  string
}

// A SymbolKind distinguishes address labels from equates.
type SymbolKind byte

// Symbol kinds.
const (
	SymAddress SymbolKind = iota
	SymEquate
)

// A Symbol is a named 16-bit value defined during pass 1. Symbols are
// case-preserving but unique by uppercased name, and immutable once
// defined.
type Symbol struct {
	Name  string
	Value uint16
	Kind  SymbolKind
}

type symbolTable struct {
	syms  map[string]*Symbol // keyed by uppercased name
	order []string
}

func (st *symbolTable) find(name string) (*Symbol, bool) {
	s, ok := st.syms[strings.ToUpper(name)]
	return s, ok
}

func (st *symbolTable) define(name string, value uint16, kind SymbolKind) error {
	key := strings.ToUpper(name)
	if _, found := st.syms[key]; found {
		return errParse
	}
	if st.syms == nil {
		st.syms = make(map[string]*Symbol)
	}
	st.syms[key] = &Symbol{Name: name, Value: value, Kind: kind}
	st.order = append(st.order, key)
	return nil
}

// A pseudoKind identifies an assembler directive.
type pseudoKind byte

const (
	pseudoNone pseudoKind = iota
	pseudoOrg
	pseudoEqu
	pseudoNam
	pseudoEnd
	pseudoSetDP
	pseudoFCB
	pseudoFDB
	pseudoFCC
	pseudoRMB
	pseudoInclude
)

var pseudoOps = map[string]pseudoKind{
	"ORG":     pseudoOrg,
	"EQU":     pseudoEqu,
	"NAM":     pseudoNam,
	"END":     pseudoEnd,
	"SETDP":   pseudoSetDP,
	"FCB":     pseudoFCB,
	"FDB":     pseudoFDB,
	"FCC":     pseudoFCC,
	"RMB":     pseudoRMB,
	"INCLUDE": pseudoInclude,
}

// A statement is one logical line of the source, with the addressing
// and encoding state attached to it by the two passes.
type statement struct {
	line        fstring // the full source line
	label       fstring
	mnemonic    fstring
	operandText fstring
	comment     string
	commentOnly bool

	inst    *cpu.Instruction
	pseudo  pseudoKind
	operand operand
	exprs   []*expr // FCB/FDB element expressions
	str     []byte  // FCC string bytes
	name    string  // NAM operand

	dp    byte // direct page in effect at this statement
	addr  int
	size  int
	plan  encPlan
	bytes []byte
}

func (s *statement) hasMnemonic() bool {
	return s.inst != nil || s.pseudo != pseudoNone
}

// The assembler is the state object used while assembling machine code
// from 6809 assembly source.
type assembler struct {
	origin     int // address of the first ORG (or 0)
	originSet  bool
	pc         int  // the program counter
	dp         byte // current direct page
	execAddr   int
	execExpr   *expr
	name       string // program name from NAM
	files      []string
	statements []*statement
	symbols    symbolTable
	exprParser exprParser
	out        io.Writer // output used for verbose logging
	verbose    bool
	errors     []asmerror
	warnings   []asmerror
}

// A Segment is a contiguous run of emitted code.
type Segment struct {
	Addr uint16
	Data []byte
}

// An Assembly is the result of assembling a source file: the emitted
// image, the symbol table, and the listing records.
type Assembly struct {
	Name     string
	Origin   uint16
	ExecAddr uint16
	Segments []Segment
	Records  []Record
	Symbols  []Symbol
	Errors   []string
	Warnings []string
}

// Code returns the emitted image in address order with gaps between
// segments omitted.
func (a *Assembly) Code() []byte {
	segs := append([]Segment(nil), a.Segments...)
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Addr < segs[j].Addr })
	var code []byte
	for _, s := range segs {
		code = append(code, s.Data...)
	}
	return code
}

// Option type used by the Assemble function.
type Option uint

// Options for the Assemble function.
const (
	Verbose Option = 1 << iota // verbose output during assembly
)

// AssembleFile reads a file containing 6809 assembly code and
// assembles it. INCLUDEd files are resolved relative to the file's
// directory.
func AssembleFile(path string, options Option, out io.Writer) (*Assembly, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Assemble(f, path, options, out)
}

// Assemble reads 6809 assembly code from the provided stream and
// assembles it into machine code.
func Assemble(r io.Reader, filename string, options Option, out io.Writer) (*Assembly, error) {
	if out == nil {
		out = os.Stdout
	}

	a := &assembler{
		pc:      -1,
		files:   []string{filename},
		out:     out,
		verbose: (options & Verbose) != 0,
	}

	lines, err := a.readSource(r, filename, map[string]bool{cleanPath(filename): true})
	if err == nil {
		steps := []func(*assembler) error{
			func(a *assembler) error { return a.parse(lines) },
			(*assembler).passOne,
			(*assembler).passTwo,
		}
		for _, step := range steps {
			err = step(a)
			if err != nil {
				break
			}
			if len(a.errors) > 0 {
				err = errParse
				break
			}
		}
	}

	result := &Assembly{
		Name:     a.name,
		Origin:   uint16(a.origin),
		ExecAddr: uint16(a.execAddr),
		Errors:   a.formatErrors(a.errors),
		Warnings: a.formatErrors(a.warnings),
	}
	if err == nil {
		result.Segments = a.segments()
		result.Records = a.records()
		result.Symbols = a.symbolList()
	}
	return result, err
}

//
// source reader
//

// readSource reads the lines of a source stream, expanding INCLUDE
// directives in place. Cycles are detected by cleaned path identity
// along the active include chain.
func (a *assembler) readSource(r io.Reader, path string, active map[string]bool) ([]fstring, error) {
	fileIndex := len(a.files) - 1

	var lines []fstring
	scanner := bufio.NewScanner(r)
	row := 1
	for scanner.Scan() {
		line := newFstring(fileIndex, row, scanner.Text())
		row++

		if incPath, ok := includeTarget(line); ok {
			resolved := incPath
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(filepath.Dir(path), incPath)
			}
			clean := cleanPath(resolved)
			if active[clean] {
				a.addError(line, IncludeCycle, "include cycle through '%s'", incPath)
				return nil, errParse
			}

			f, err := os.Open(resolved)
			if err != nil {
				a.addError(line, IOError, "unable to open '%s'", incPath)
				return nil, errParse
			}

			a.files = append(a.files, resolved)
			active[clean] = true
			included, err := a.readSource(f, resolved, active)
			delete(active, clean)
			f.Close()
			if err != nil {
				return nil, err
			}
			lines = append(lines, included...)
			continue
		}

		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}

// includeTarget reports whether a source line is an INCLUDE directive,
// and if so returns its target path with any surrounding quotes
// removed.
func includeTarget(line fstring) (string, bool) {
	if line.startsWith(func(c byte) bool { return c == ';' || c == '*' || c == '#' }) {
		return "", false
	}
	fields := strings.Fields(line.str)
	switch {
	case len(fields) >= 2 && strings.EqualFold(fields[0], "INCLUDE"):
		return strings.Trim(fields[1], `"`), true
	case len(fields) >= 3 && strings.EqualFold(fields[1], "INCLUDE"):
		return strings.Trim(fields[2], `"`), true
	}
	return "", false
}

//
// statement parser
//

// parse splits every source line into its label, mnemonic, operand and
// comment columns, classifies the operand, and records a statement.
func (a *assembler) parse(lines []fstring) error {
	a.logSection("Parsing assembly code")
	for _, line := range lines {
		a.parseLine(line)
	}
	return nil
}

// parseLine parses a single line of assembly code.
func (a *assembler) parseLine(line fstring) {
	trimmed := line.consumeWhitespace()
	if trimmed.isEmpty() {
		return
	}

	// Comment-only lines are kept so they appear in the listing.
	if trimmed.startsWithChar(';') ||
		(line.startsWithChar('*') || line.startsWithChar('#')) {
		comment := strings.TrimLeft(trimmed.str, ";*# \t")
		a.statements = append(a.statements, &statement{line: line, comment: comment, commentOnly: true})
		return
	}

	s := &statement{line: line}

	// A token starting in column 1 is a label.
	remain := line
	if !line.startsWith(whitespace) {
		if !line.startsWith(labelStartChar) {
			bad, _ := line.consumeUntil(whitespace)
			a.addError(line, LexError, "invalid label '%s'", bad.str)
			return
		}
		s.label, remain = line.consumeWhile(labelChar)
		if !remain.isEmpty() && !remain.startsWith(whitespace) {
			bad, _ := remain.consumeUntil(whitespace)
			a.addError(remain, LexError, "invalid label '%s%s'", s.label.str, bad.str)
			return
		}
	}
	remain = remain.consumeWhitespace()

	if remain.isEmpty() {
		// Label-only line.
		a.statements = append(a.statements, s)
		return
	}

	s.mnemonic, remain = remain.consumeWhile(wordChar)
	remain = remain.consumeWhitespace()

	// A comment may directly follow the mnemonic.
	if remain.startsWithChar(';') {
		s.setComment(remain)
		remain = remain.trunc(0)
	}

	if kind, ok := pseudoOps[strings.ToUpper(s.mnemonic.str)]; ok {
		s.pseudo = kind
		a.parsePseudoOperand(s, remain)
		return
	}

	s.inst = cpu.Lookup(s.mnemonic.str)
	if s.inst == nil {
		a.addError(s.mnemonic, SyntaxError, "unknown mnemonic '%s'", s.mnemonic.str)
		return
	}

	s.operandText, remain = remain.consumeWhile(wordChar)
	s.setComment(remain)

	operand, err := a.parseOperand(s.inst, s.operandText)
	if err != nil {
		return
	}
	s.operand = operand

	a.logLine(s.mnemonic, "op=%s mode=%s", s.inst.Name, s.operand.mode)
	a.statements = append(a.statements, s)
}

// parsePseudoOperand parses the operand column of a directive.
func (a *assembler) parsePseudoOperand(s *statement, remain fstring) {
	var err error
	switch s.pseudo {

	case pseudoOrg, pseudoEqu, pseudoSetDP, pseudoRMB:
		s.operandText, remain = remain.consumeWhile(wordChar)
		if s.operandText.isEmpty() {
			a.addError(s.mnemonic, SyntaxError, "%s requires an operand", strings.ToUpper(s.mnemonic.str))
			return
		}
		s.operand.expr, _, err = a.exprParser.parse(s.operandText)
		if err != nil {
			a.addExprErrors()
			return
		}
		s.setComment(remain)

	case pseudoEnd:
		s.operandText, remain = remain.consumeWhile(wordChar)
		if !s.operandText.isEmpty() {
			s.operand.expr, _, err = a.exprParser.parse(s.operandText)
			if err != nil {
				a.addExprErrors()
				return
			}
		}
		s.setComment(remain)

	case pseudoNam:
		s.operandText, remain = remain.consumeWhile(wordChar)
		if s.operandText.isEmpty() {
			a.addError(s.mnemonic, SyntaxError, "NAM requires a name")
			return
		}
		s.name = s.operandText.str
		s.setComment(remain)

	case pseudoFCB, pseudoFDB:
		s.operandText, remain = remain.consumeWhile(wordChar)
		if s.operandText.isEmpty() {
			a.addError(s.mnemonic, SyntaxError, "%s requires at least one value", strings.ToUpper(s.mnemonic.str))
			return
		}
		for _, field := range splitExprList(s.operandText) {
			e, _, err := a.exprParser.parse(field)
			if err != nil {
				a.addExprErrors()
				return
			}
			s.exprs = append(s.exprs, e)
		}
		s.setComment(remain)

	case pseudoFCC:
		if remain.isEmpty() {
			a.addError(s.mnemonic, SyntaxError, "FCC requires a string")
			return
		}
		delim := remain.str[0]
		body := remain.consume(1)
		n := body.scanUntilChar(delim)
		if n == len(body.str) {
			a.addError(remain, LexError, "unterminated FCC string")
			return
		}
		s.operandText = remain.trunc(n + 2)
		s.str = []byte(body.trunc(n).str)
		s.setComment(body.consume(n + 1))

	case pseudoInclude:
		// The source reader expands INCLUDE before parsing; reaching
		// here means it was malformed.
		a.addError(s.mnemonic, SyntaxError, "INCLUDE requires a file name")
		return
	}

	a.statements = append(a.statements, s)
}

// setComment fills the statement's comment column unless an earlier
// column already claimed it.
func (s *statement) setComment(remain fstring) {
	if s.comment == "" {
		s.comment = trailingComment(remain)
	}
}

// trailingComment extracts the comment column, stripping a leading
// semicolon.
func trailingComment(remain fstring) string {
	c := strings.TrimLeft(remain.str, " \t")
	c = strings.TrimPrefix(c, ";")
	return strings.TrimSpace(c)
}

// splitExprList splits an FCB/FDB operand on commas. Character
// literals are a quote plus exactly one character, so a comma directly
// after a quote belongs to the literal.
func splitExprList(field fstring) []fstring {
	var out []fstring
	for {
		i := 0
		for ; i < len(field.str); i++ {
			if field.str[i] == '\'' {
				i++
				continue
			}
			if field.str[i] == ',' {
				break
			}
		}
		if i >= len(field.str) {
			out = append(out, field)
			return out
		}
		out = append(out, field.trunc(i))
		field = field.consume(i + 1)
	}
}

//
// pass 1
//

// passOne assigns an address and size to every statement and records
// symbol definitions. Sizes are pessimistic upper bounds when they
// depend on unresolved forward references.
func (a *assembler) passOne() error {
	a.logSection("Pass 1")

	a.pc = 0
	a.dp = 0

	active := a.statements[:0:0]
	for _, s := range a.statements {
		active = append(active, s)
		if s.commentOnly {
			continue
		}

		s.dp = a.dp
		s.addr = a.pc

		switch s.pseudo {
		case pseudoOrg:
			v, ok := a.resolveNow(s)
			if !ok {
				continue
			}
			a.pc = int(uint16(v))
			s.addr = a.pc
			if !a.originSet {
				a.origin, a.originSet = a.pc, true
			}
			a.defineLabel(s, SymAddress, uint16(a.pc))

		case pseudoEqu:
			if s.label.isEmpty() {
				a.addError(s.mnemonic, SyntaxError, "EQU requires a label")
				continue
			}
			v, ok := a.resolveNow(s)
			if !ok {
				continue
			}
			a.defineLabel(s, SymEquate, uint16(v))

		case pseudoSetDP:
			v, ok := a.resolveNow(s)
			if !ok {
				continue
			}
			a.dp = byte(v)
			a.defineLabel(s, SymEquate, uint16(a.dp))

		case pseudoNam:
			a.name = s.name
			a.defineLabel(s, SymAddress, uint16(a.pc))

		case pseudoEnd:
			a.defineLabel(s, SymAddress, uint16(a.pc))
			a.execExpr = s.operand.expr
			a.statements = active
			return nil

		case pseudoFCB:
			a.defineLabel(s, SymAddress, uint16(a.pc))
			s.size = len(s.exprs)
			for _, e := range s.exprs {
				e.eval(&a.symbols)
			}

		case pseudoFDB:
			a.defineLabel(s, SymAddress, uint16(a.pc))
			s.size = 2 * len(s.exprs)
			for _, e := range s.exprs {
				e.eval(&a.symbols)
			}

		case pseudoFCC:
			a.defineLabel(s, SymAddress, uint16(a.pc))
			s.size = len(s.str)

		case pseudoRMB:
			a.defineLabel(s, SymAddress, uint16(a.pc))
			v, ok := a.resolveNow(s)
			if !ok {
				continue
			}
			if v < 0 {
				a.addError(s.operandText, ValueOutOfRange, "RMB count cannot be negative")
				continue
			}
			s.size = int(v)

		case pseudoNone:
			a.defineLabel(s, SymAddress, uint16(a.pc))
			if s.inst != nil {
				if err := a.planInstruction(s); err != nil {
					continue
				}
				s.size = s.plan.size
			}
		}

		if a.pc+s.size > 0x10000 {
			a.addError(s.line, ValueOutOfRange, "program counter overflows $FFFF")
			return errParse
		}

		if s.hasMnemonic() {
			a.log("%04X  %-8s size=%d", s.addr, strings.ToUpper(s.mnemonic.str), s.size)
		}
		a.pc += s.size
	}

	return nil
}

// resolveNow evaluates a directive expression that must not contain
// forward references.
func (a *assembler) resolveNow(s *statement) (int32, bool) {
	if s.operand.expr == nil {
		return 0, false
	}
	if !s.operand.expr.eval(&a.symbols) {
		id, _ := s.operand.expr.firstUnresolved()
		a.addError(id, UnresolvedSymbol,
			"%s operand must resolve in pass 1: '%s' undefined", strings.ToUpper(s.mnemonic.str), id.str)
		return 0, false
	}
	return s.operand.expr.number, true
}

// defineLabel records the statement's label, if any.
func (a *assembler) defineLabel(s *statement, kind SymbolKind, value uint16) {
	if s.label.isEmpty() {
		return
	}
	if err := a.symbols.define(s.label.str, value, kind); err != nil {
		a.addError(s.label, DuplicateSymbol, "symbol '%s' already defined", s.label.str)
		return
	}
	a.logLine(s.label, "label=%s val=$%04X", s.label.str, value)
}

//
// pass 2
//

// passTwo finalizes every encoding with the complete symbol table and
// emits bytes. Unlike pass 1, it stops at the first error.
func (a *assembler) passTwo() error {
	a.logSection("Pass 2")

	a.execAddr = a.origin

	for _, s := range a.statements {
		if s.commentOnly {
			continue
		}

		switch s.pseudo {
		case pseudoOrg, pseudoEqu, pseudoNam, pseudoSetDP:
			// no emission

		case pseudoEnd:
			if a.execExpr != nil {
				if !a.execExpr.eval(&a.symbols) {
					id, _ := a.execExpr.firstUnresolved()
					a.addError(id, UnresolvedSymbol, "unresolved symbol '%s'", id.str)
					return errParse
				}
				a.execAddr = int(uint16(a.execExpr.number))
			}

		case pseudoFCB:
			for _, e := range s.exprs {
				if !e.eval(&a.symbols) {
					return a.unresolved(e)
				}
				a.checkWidth(s, e.number, 1)
				s.bytes = append(s.bytes, byte(e.number))
			}

		case pseudoFDB:
			for _, e := range s.exprs {
				if !e.eval(&a.symbols) {
					return a.unresolved(e)
				}
				a.checkWidth(s, e.number, 2)
				s.bytes = append(s.bytes, toBytes(2, int(e.number))...)
			}

		case pseudoFCC:
			s.bytes = s.str

		case pseudoRMB:
			s.bytes = make([]byte, s.size)

		case pseudoNone:
			if s.inst == nil {
				continue
			}
			if err := a.encodeInstruction(s); err != nil {
				return err
			}
		}

		if len(s.bytes) != s.size {
			a.addError(s.line, ValueOutOfRange,
				"internal: emitted %d bytes for a %d byte statement", len(s.bytes), s.size)
			return errParse
		}
		if s.size > 0 {
			a.logBytes(s.addr, s.bytes)
		}
	}

	return nil
}

func (a *assembler) unresolved(e *expr) error {
	id, _ := e.firstUnresolved()
	a.addError(id, UnresolvedSymbol, "unresolved symbol '%s'", id.str)
	return errParse
}

//
// results
//

// segments groups the emitted statements into contiguous runs of
// code, in address order of appearance.
func (a *assembler) segments() []Segment {
	var segs []Segment
	for _, s := range a.statements {
		if s.size == 0 || len(s.bytes) == 0 {
			continue
		}
		if n := len(segs); n > 0 && segs[n-1].Addr+uint16(len(segs[n-1].Data)) == uint16(s.addr) {
			segs[n-1].Data = append(segs[n-1].Data, s.bytes...)
		} else {
			segs = append(segs, Segment{Addr: uint16(s.addr), Data: append([]byte(nil), s.bytes...)})
		}
	}
	return segs
}

func (a *assembler) symbolList() []Symbol {
	keys := append([]string(nil), a.symbols.order...)
	sort.Strings(keys)
	out := make([]Symbol, 0, len(keys))
	for _, k := range keys {
		out = append(out, *a.symbols.syms[k])
	}
	return out
}

//
// diagnostics
//

// addError appends an error to the assembler's error state.
func (a *assembler) addError(l fstring, kind ErrorKind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.errors = append(a.errors, asmerror{l, kind, msg})
	if a.verbose {
		fmt.Fprintln(a.out, a.formatError(asmerror{l, kind, msg}))
		fmt.Fprintln(a.out, l.full)
		for i := 0; i < l.column; i++ {
			fmt.Fprintf(a.out, "-")
		}
		fmt.Fprintln(a.out, "^")
	}
}

func (a *assembler) addWarning(l fstring, format string, args ...any) {
	a.warnings = append(a.warnings, asmerror{l, ValueOutOfRange, fmt.Sprintf(format, args...)})
}

// addExprErrors appends the expression parser's errors to the
// assembler's error state.
func (a *assembler) addExprErrors() {
	for _, e := range a.exprParser.errors {
		a.addError(e.line, e.kind, "%s", e.msg)
	}
}

func (a *assembler) formatError(e asmerror) string {
	if e.line.fileIndex > 0 && e.line.fileIndex < len(a.files) {
		return fmt.Sprintf("%s line %d: %s", filepath.Base(a.files[e.line.fileIndex]), e.line.row, e.msg)
	}
	return fmt.Sprintf("line %d: %s", e.line.row, e.msg)
}

func (a *assembler) formatErrors(errs []asmerror) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, a.formatError(e))
	}
	return out
}

//
// verbose logging
//

// In verbose mode, log a string to the output writer.
func (a *assembler) log(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(a.out, format, args...)
		fmt.Fprintf(a.out, "\n")
	}
}

// In verbose mode, log a string and its associated line of assembly
// code.
func (a *assembler) logLine(line fstring, format string, args ...any) {
	if a.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(a.out, "%-3d %-3d | %-20s | %s\n", line.row, line.column+1, detail, line.str)
	}
}

// In verbose mode, log a series of bytes with starting address.
func (a *assembler) logBytes(addr int, b []byte) {
	if a.verbose {
		for i, n := 0, len(b); i < n; i += 4 {
			j := i + 4
			if j > n {
				j = n
			}
			a.log("%04X-  %s", addr+i, byteString(b[i:j]))
		}
	}
}

// In verbose mode, log a section header.
func (a *assembler) logSection(name string) {
	if a.verbose {
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.out, "-- %s --\n", name)
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
	}
}
