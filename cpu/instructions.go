// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu holds the static description of the Motorola 6809
// instruction set: the opcode assigned to each mnemonic in each of its
// legal addressing-mode families, immediate operand widths, branch
// classes, and the register and post-byte encodings shared by the
// assembler and the disassembler.
package cpu

import "strings"

// An AddrMode identifies one of the 6809's addressing-mode families.
type AddrMode byte

// Addressing-mode families.
const (
	INH AddrMode = iota // inherent
	IMM                 // immediate
	DIR                 // direct page
	IDX                 // indexed (post-byte)
	EXT                 // extended
	REL                 // relative (branch displacement)
)

var modeName = []string{"INH", "IMM", "DIR", "IDX", "EXT", "REL"}

func (m AddrMode) String() string {
	return modeName[m]
}

// A modeMask records which addressing-mode families a mnemonic accepts.
// Validity lives in the mask rather than in an opcode sentinel because
// $00 (NEG direct) is itself a legal opcode.
type modeMask byte

const (
	mINH modeMask = 1 << iota
	mIMM
	mDIR
	mIDX
	mEXT
	mREL
)

var modeBit = []modeMask{mINH, mIMM, mDIR, mIDX, mEXT, mREL}

// An OperandClass distinguishes mnemonics whose "immediate" byte is
// really a register post-byte.
type OperandClass byte

// Operand classes.
const (
	ClassNormal  OperandClass = iota
	ClassRegList              // PSHS, PSHU, PULS, PULU
	ClassRegPair              // TFR, EXG
)

// A BranchClass identifies relative-branch mnemonics by displacement
// width.
type BranchClass byte

// Branch classes.
const (
	BranchNone  BranchClass = iota
	BranchShort             // 8-bit displacement
	BranchLong              // 16-bit displacement
)

// An Instruction describes a single 6809 mnemonic. Opcode values above
// $FF carry a $10 or $11 page prefix in their high byte.
type Instruction struct {
	Name     string
	modes    modeMask
	inh      uint16
	imm      uint16
	dir      uint16
	idx      uint16
	ext      uint16
	rel      uint16
	ImmWidth int // immediate operand bytes (1 or 2)
	Class    OperandClass
	Branch   BranchClass
}

// Has reports whether the mnemonic supports the addressing-mode family.
func (i *Instruction) Has(m AddrMode) bool {
	return i.modes&modeBit[m] != 0
}

// Opcode returns the opcode value for the addressing-mode family. The
// result is meaningful only when Has(m) is true.
func (i *Instruction) Opcode(m AddrMode) uint16 {
	switch m {
	case INH:
		return i.inh
	case IMM:
		return i.imm
	case DIR:
		return i.dir
	case IDX:
		return i.idx
	case EXT:
		return i.ext
	default:
		return i.rel
	}
}

// OpcodeLen returns the number of opcode bytes: 2 for page-prefixed
// opcodes, otherwise 1.
func OpcodeLen(op uint16) int {
	if op > 0xFF {
		return 2
	}
	return 1
}

// OpcodeBytes returns the opcode in emission order.
func OpcodeBytes(op uint16) []byte {
	if op > 0xFF {
		return []byte{byte(op >> 8), byte(op)}
	}
	return []byte{byte(op)}
}

// The instruction table. One row per mnemonic; columns give the opcode
// per addressing-mode family. Values follow the Motorola data sheet.
var instructions = []Instruction{
	{Name: "ABX", modes: mINH, inh: 0x3A},
	{Name: "ADCA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x89, dir: 0x99, idx: 0xA9, ext: 0xB9, ImmWidth: 1},
	{Name: "ADCB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC9, dir: 0xD9, idx: 0xE9, ext: 0xF9, ImmWidth: 1},
	{Name: "ADDA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x8B, dir: 0x9B, idx: 0xAB, ext: 0xBB, ImmWidth: 1},
	{Name: "ADDB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xCB, dir: 0xDB, idx: 0xEB, ext: 0xFB, ImmWidth: 1},
	{Name: "ADDD", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC3, dir: 0xD3, idx: 0xE3, ext: 0xF3, ImmWidth: 2},
	{Name: "ANDA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x84, dir: 0x94, idx: 0xA4, ext: 0xB4, ImmWidth: 1},
	{Name: "ANDB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC4, dir: 0xD4, idx: 0xE4, ext: 0xF4, ImmWidth: 1},
	{Name: "ANDCC", modes: mIMM, imm: 0x1C, ImmWidth: 1},
	{Name: "ASL", modes: mDIR | mIDX | mEXT, dir: 0x08, idx: 0x68, ext: 0x78},
	{Name: "ASLA", modes: mINH, inh: 0x48},
	{Name: "ASLB", modes: mINH, inh: 0x58},
	{Name: "ASR", modes: mDIR | mIDX | mEXT, dir: 0x07, idx: 0x67, ext: 0x77},
	{Name: "ASRA", modes: mINH, inh: 0x47},
	{Name: "ASRB", modes: mINH, inh: 0x57},
	{Name: "BITA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x85, dir: 0x95, idx: 0xA5, ext: 0xB5, ImmWidth: 1},
	{Name: "BITB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC5, dir: 0xD5, idx: 0xE5, ext: 0xF5, ImmWidth: 1},
	{Name: "CLR", modes: mDIR | mIDX | mEXT, dir: 0x0F, idx: 0x6F, ext: 0x7F},
	{Name: "CLRA", modes: mINH, inh: 0x4F},
	{Name: "CLRB", modes: mINH, inh: 0x5F},
	{Name: "CMPA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x81, dir: 0x91, idx: 0xA1, ext: 0xB1, ImmWidth: 1},
	{Name: "CMPB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC1, dir: 0xD1, idx: 0xE1, ext: 0xF1, ImmWidth: 1},
	{Name: "CMPD", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x1083, dir: 0x1093, idx: 0x10A3, ext: 0x10B3, ImmWidth: 2},
	{Name: "CMPS", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x118C, dir: 0x119C, idx: 0x11AC, ext: 0x11BC, ImmWidth: 2},
	{Name: "CMPU", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x1183, dir: 0x1193, idx: 0x11A3, ext: 0x11B3, ImmWidth: 2},
	{Name: "CMPX", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x8C, dir: 0x9C, idx: 0xAC, ext: 0xBC, ImmWidth: 2},
	{Name: "CMPY", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x108C, dir: 0x109C, idx: 0x10AC, ext: 0x10BC, ImmWidth: 2},
	{Name: "COM", modes: mDIR | mIDX | mEXT, dir: 0x03, idx: 0x63, ext: 0x73},
	{Name: "COMA", modes: mINH, inh: 0x43},
	{Name: "COMB", modes: mINH, inh: 0x53},
	{Name: "CWAI", modes: mIMM, imm: 0x3C, ImmWidth: 1},
	{Name: "DAA", modes: mINH, inh: 0x19},
	{Name: "DEC", modes: mDIR | mIDX | mEXT, dir: 0x0A, idx: 0x6A, ext: 0x7A},
	{Name: "DECA", modes: mINH, inh: 0x4A},
	{Name: "DECB", modes: mINH, inh: 0x5A},
	{Name: "EORA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x88, dir: 0x98, idx: 0xA8, ext: 0xB8, ImmWidth: 1},
	{Name: "EORB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC8, dir: 0xD8, idx: 0xE8, ext: 0xF8, ImmWidth: 1},
	{Name: "EXG", modes: mIMM, imm: 0x1E, ImmWidth: 1, Class: ClassRegPair},
	{Name: "INC", modes: mDIR | mIDX | mEXT, dir: 0x0C, idx: 0x6C, ext: 0x7C},
	{Name: "INCA", modes: mINH, inh: 0x4C},
	{Name: "INCB", modes: mINH, inh: 0x5C},
	{Name: "JMP", modes: mDIR | mIDX | mEXT, dir: 0x0E, idx: 0x6E, ext: 0x7E},
	{Name: "JSR", modes: mDIR | mIDX | mEXT, dir: 0x9D, idx: 0xAD, ext: 0xBD},
	{Name: "LDA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x86, dir: 0x96, idx: 0xA6, ext: 0xB6, ImmWidth: 1},
	{Name: "LDB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC6, dir: 0xD6, idx: 0xE6, ext: 0xF6, ImmWidth: 1},
	{Name: "LDD", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xCC, dir: 0xDC, idx: 0xEC, ext: 0xFC, ImmWidth: 2},
	{Name: "LDS", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x10CE, dir: 0x10DE, idx: 0x10EE, ext: 0x10FE, ImmWidth: 2},
	{Name: "LDU", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xCE, dir: 0xDE, idx: 0xEE, ext: 0xFE, ImmWidth: 2},
	{Name: "LDX", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x8E, dir: 0x9E, idx: 0xAE, ext: 0xBE, ImmWidth: 2},
	{Name: "LDY", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x108E, dir: 0x109E, idx: 0x10AE, ext: 0x10BE, ImmWidth: 2},
	{Name: "LEAS", modes: mIDX, idx: 0x32},
	{Name: "LEAU", modes: mIDX, idx: 0x33},
	{Name: "LEAX", modes: mIDX, idx: 0x30},
	{Name: "LEAY", modes: mIDX, idx: 0x31},
	{Name: "LSL", modes: mDIR | mIDX | mEXT, dir: 0x08, idx: 0x68, ext: 0x78},
	{Name: "LSLA", modes: mINH, inh: 0x48},
	{Name: "LSLB", modes: mINH, inh: 0x58},
	{Name: "LSR", modes: mDIR | mIDX | mEXT, dir: 0x04, idx: 0x64, ext: 0x74},
	{Name: "LSRA", modes: mINH, inh: 0x44},
	{Name: "LSRB", modes: mINH, inh: 0x54},
	{Name: "MUL", modes: mINH, inh: 0x3D},
	{Name: "NEG", modes: mDIR | mIDX | mEXT, dir: 0x00, idx: 0x60, ext: 0x70},
	{Name: "NEGA", modes: mINH, inh: 0x40},
	{Name: "NEGB", modes: mINH, inh: 0x50},
	{Name: "NOP", modes: mINH, inh: 0x12},
	{Name: "ORA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x8A, dir: 0x9A, idx: 0xAA, ext: 0xBA, ImmWidth: 1},
	{Name: "ORB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xCA, dir: 0xDA, idx: 0xEA, ext: 0xFA, ImmWidth: 1},
	{Name: "ORCC", modes: mIMM, imm: 0x1A, ImmWidth: 1},
	{Name: "PSHS", modes: mIMM, imm: 0x34, ImmWidth: 1, Class: ClassRegList},
	{Name: "PSHU", modes: mIMM, imm: 0x36, ImmWidth: 1, Class: ClassRegList},
	{Name: "PULS", modes: mIMM, imm: 0x35, ImmWidth: 1, Class: ClassRegList},
	{Name: "PULU", modes: mIMM, imm: 0x37, ImmWidth: 1, Class: ClassRegList},
	{Name: "ROL", modes: mDIR | mIDX | mEXT, dir: 0x09, idx: 0x69, ext: 0x79},
	{Name: "ROLA", modes: mINH, inh: 0x49},
	{Name: "ROLB", modes: mINH, inh: 0x59},
	{Name: "ROR", modes: mDIR | mIDX | mEXT, dir: 0x06, idx: 0x66, ext: 0x76},
	{Name: "RORA", modes: mINH, inh: 0x46},
	{Name: "RORB", modes: mINH, inh: 0x56},
	{Name: "RTI", modes: mINH, inh: 0x3B},
	{Name: "RTS", modes: mINH, inh: 0x39},
	{Name: "SBCA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x82, dir: 0x92, idx: 0xA2, ext: 0xB2, ImmWidth: 1},
	{Name: "SBCB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC2, dir: 0xD2, idx: 0xE2, ext: 0xF2, ImmWidth: 1},
	{Name: "SEX", modes: mINH, inh: 0x1D},
	{Name: "STA", modes: mDIR | mIDX | mEXT, dir: 0x97, idx: 0xA7, ext: 0xB7},
	{Name: "STB", modes: mDIR | mIDX | mEXT, dir: 0xD7, idx: 0xE7, ext: 0xF7},
	{Name: "STD", modes: mDIR | mIDX | mEXT, dir: 0xDD, idx: 0xED, ext: 0xFD},
	{Name: "STS", modes: mDIR | mIDX | mEXT, dir: 0x10DF, idx: 0x10EF, ext: 0x10FF},
	{Name: "STU", modes: mDIR | mIDX | mEXT, dir: 0xDF, idx: 0xEF, ext: 0xFF},
	{Name: "STX", modes: mDIR | mIDX | mEXT, dir: 0x9F, idx: 0xAF, ext: 0xBF},
	{Name: "STY", modes: mDIR | mIDX | mEXT, dir: 0x109F, idx: 0x10AF, ext: 0x10BF},
	{Name: "SUBA", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x80, dir: 0x90, idx: 0xA0, ext: 0xB0, ImmWidth: 1},
	{Name: "SUBB", modes: mIMM | mDIR | mIDX | mEXT, imm: 0xC0, dir: 0xD0, idx: 0xE0, ext: 0xF0, ImmWidth: 1},
	{Name: "SUBD", modes: mIMM | mDIR | mIDX | mEXT, imm: 0x83, dir: 0x93, idx: 0xA3, ext: 0xB3, ImmWidth: 2},
	{Name: "SWI", modes: mINH, inh: 0x3F},
	{Name: "SWI2", modes: mINH, inh: 0x103F},
	{Name: "SWI3", modes: mINH, inh: 0x113F},
	{Name: "SYNC", modes: mINH, inh: 0x13},
	{Name: "TFR", modes: mIMM, imm: 0x1F, ImmWidth: 1, Class: ClassRegPair},
	{Name: "TST", modes: mDIR | mIDX | mEXT, dir: 0x0D, idx: 0x6D, ext: 0x7D},
	{Name: "TSTA", modes: mINH, inh: 0x4D},
	{Name: "TSTB", modes: mINH, inh: 0x5D},

	// Short branches
	{Name: "BCC", modes: mREL, rel: 0x24, Branch: BranchShort},
	{Name: "BCS", modes: mREL, rel: 0x25, Branch: BranchShort},
	{Name: "BEQ", modes: mREL, rel: 0x27, Branch: BranchShort},
	{Name: "BGE", modes: mREL, rel: 0x2C, Branch: BranchShort},
	{Name: "BGT", modes: mREL, rel: 0x2E, Branch: BranchShort},
	{Name: "BHI", modes: mREL, rel: 0x22, Branch: BranchShort},
	{Name: "BHS", modes: mREL, rel: 0x24, Branch: BranchShort},
	{Name: "BLE", modes: mREL, rel: 0x2F, Branch: BranchShort},
	{Name: "BLO", modes: mREL, rel: 0x25, Branch: BranchShort},
	{Name: "BLS", modes: mREL, rel: 0x23, Branch: BranchShort},
	{Name: "BLT", modes: mREL, rel: 0x2D, Branch: BranchShort},
	{Name: "BMI", modes: mREL, rel: 0x2B, Branch: BranchShort},
	{Name: "BNE", modes: mREL, rel: 0x26, Branch: BranchShort},
	{Name: "BPL", modes: mREL, rel: 0x2A, Branch: BranchShort},
	{Name: "BRA", modes: mREL, rel: 0x20, Branch: BranchShort},
	{Name: "BRN", modes: mREL, rel: 0x21, Branch: BranchShort},
	{Name: "BSR", modes: mREL, rel: 0x8D, Branch: BranchShort},
	{Name: "BVC", modes: mREL, rel: 0x28, Branch: BranchShort},
	{Name: "BVS", modes: mREL, rel: 0x29, Branch: BranchShort},

	// Long branches
	{Name: "LBCC", modes: mREL, rel: 0x1024, Branch: BranchLong},
	{Name: "LBCS", modes: mREL, rel: 0x1025, Branch: BranchLong},
	{Name: "LBEQ", modes: mREL, rel: 0x1027, Branch: BranchLong},
	{Name: "LBGE", modes: mREL, rel: 0x102C, Branch: BranchLong},
	{Name: "LBGT", modes: mREL, rel: 0x102E, Branch: BranchLong},
	{Name: "LBHI", modes: mREL, rel: 0x1022, Branch: BranchLong},
	{Name: "LBHS", modes: mREL, rel: 0x1024, Branch: BranchLong},
	{Name: "LBLE", modes: mREL, rel: 0x102F, Branch: BranchLong},
	{Name: "LBLO", modes: mREL, rel: 0x1025, Branch: BranchLong},
	{Name: "LBLS", modes: mREL, rel: 0x1023, Branch: BranchLong},
	{Name: "LBLT", modes: mREL, rel: 0x102D, Branch: BranchLong},
	{Name: "LBMI", modes: mREL, rel: 0x102B, Branch: BranchLong},
	{Name: "LBNE", modes: mREL, rel: 0x1026, Branch: BranchLong},
	{Name: "LBPL", modes: mREL, rel: 0x102A, Branch: BranchLong},
	{Name: "LBRA", modes: mREL, rel: 0x16, Branch: BranchLong},
	{Name: "LBRN", modes: mREL, rel: 0x1021, Branch: BranchLong},
	{Name: "LBSR", modes: mREL, rel: 0x17, Branch: BranchLong},
	{Name: "LBVC", modes: mREL, rel: 0x1028, Branch: BranchLong},
	{Name: "LBVS", modes: mREL, rel: 0x1029, Branch: BranchLong},
}

var lookup map[string]*Instruction

func init() {
	lookup = make(map[string]*Instruction, len(instructions))
	for i := range instructions {
		lookup[instructions[i].Name] = &instructions[i]
	}
}

// Lookup finds the instruction for a mnemonic. Mnemonics are
// case-insensitive. Returns nil when the mnemonic is unknown.
func Lookup(mnemonic string) *Instruction {
	return lookup[strings.ToUpper(mnemonic)]
}

// Instructions returns the full instruction table in table order: the
// non-branch mnemonics alphabetically, then the short branches, then
// the long branches.
func Instructions() []Instruction {
	return instructions
}
