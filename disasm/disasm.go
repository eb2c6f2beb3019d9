// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6809 instruction set disassembler. Its
// indexed post-byte decoder doubles as the reference decoder for the
// assembler's encoder tests.
package disasm

import (
	"errors"
	"fmt"

	"github.com/cocotools/go6809/cpu"
)

// ErrBadPostByte is returned when an indexed post-byte has no legal
// interpretation.
var ErrBadPostByte = errors.New("illegal indexed post-byte")

// An IndexForm is the offset sub-form encoded in an indexed post-byte.
type IndexForm byte

// Index forms.
const (
	Zero IndexForm = iota
	Const5
	Const8
	Const16
	AccA
	AccB
	AccD
	PostInc1
	PostInc2
	PreDec1
	PreDec2
	PCR8
	PCR16
	ExtendedIndirect
)

var indexFormName = []string{
	"zero", "const5", "const8", "const16", "A", "B", "D",
	"inc1", "inc2", "dec1", "dec2", "pcr8", "pcr16", "extended indirect",
}

func (f IndexForm) String() string {
	return indexFormName[f]
}

// OffsetBytes returns how many operand bytes follow a post-byte of
// this form.
func (f IndexForm) OffsetBytes() int {
	switch f {
	case Const8, PCR8:
		return 1
	case Const16, PCR16, ExtendedIndirect:
		return 2
	}
	return 0
}

// An IndexedMode is the decoded meaning of an indexed post-byte.
type IndexedMode struct {
	Register cpu.Register
	Form     IndexForm
	Indirect bool
	Offset   int // meaningful for Const5 only
}

// DecodePostByte decodes an indexed-addressing post-byte into its
// register, form, and indirection flag.
func DecodePostByte(pb byte) (IndexedMode, error) {
	m := IndexedMode{Register: cpu.IndexRegisterFromBits(pb)}

	if pb&0x80 == 0 {
		m.Form = Const5
		m.Offset = int(pb & 0x1F)
		if m.Offset > 15 {
			m.Offset -= 32
		}
		return m, nil
	}

	m.Indirect = pb&cpu.IndirectBit != 0

	switch pb & 0x0F {
	case 0x00:
		m.Form = PostInc1
	case 0x01:
		m.Form = PostInc2
	case 0x02:
		m.Form = PreDec1
	case 0x03:
		m.Form = PreDec2
	case 0x04:
		m.Form = Zero
	case 0x05:
		m.Form = AccB
	case 0x06:
		m.Form = AccA
	case 0x08:
		m.Form = Const8
	case 0x09:
		m.Form = Const16
	case 0x0B:
		m.Form = AccD
	case 0x0C:
		m.Form = PCR8
	case 0x0D:
		m.Form = PCR16
	case 0x0F:
		if pb != 0x9F {
			return m, ErrBadPostByte
		}
		m.Form, m.Indirect, m.Register = ExtendedIndirect, true, cpu.RegNone
	default:
		return m, ErrBadPostByte
	}

	if m.Indirect && (m.Form == PostInc1 || m.Form == PreDec1) {
		return m, ErrBadPostByte
	}
	return m, nil
}

// reverse opcode lookup, built once from the instruction table
type opEntry struct {
	inst *cpu.Instruction
	mode cpu.AddrMode
}

var opcodes map[uint16]opEntry

func init() {
	opcodes = make(map[uint16]opEntry)
	for _, inst := range cpu.Instructions() {
		i := inst
		for _, m := range []cpu.AddrMode{cpu.INH, cpu.IMM, cpu.DIR, cpu.IDX, cpu.EXT, cpu.REL} {
			if !i.Has(m) {
				continue
			}
			op := i.Opcode(m)
			if _, taken := opcodes[op]; !taken {
				opcodes[op] = opEntry{&i, m}
			}
		}
	}
}

// Disassemble decodes the instruction at the start of code, assumed to
// be located at addr. It returns the rendered instruction and the
// number of bytes consumed. Undecodable bytes are rendered as an FCB
// and consume one byte.
func Disassemble(code []byte, addr uint16) (line string, length int) {
	if len(code) == 0 {
		return "", 0
	}

	op := uint16(code[0])
	length = 1
	if op == 0x10 || op == 0x11 {
		if len(code) < 2 {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		op = op<<8 | uint16(code[1])
		length = 2
	}

	entry, ok := opcodes[op]
	if !ok {
		return fmt.Sprintf("FCB $%02X", code[0]), 1
	}
	inst := entry.inst

	operand := func(n int) (int, bool) {
		if len(code) < length+n {
			return 0, false
		}
		v := 0
		for i := 0; i < n; i++ {
			v = v<<8 | int(code[length+i])
		}
		length += n
		return v, true
	}

	switch entry.mode {
	case cpu.INH:
		return inst.Name, length

	case cpu.IMM:
		width := inst.ImmWidth
		v, ok := operand(width)
		if !ok {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		switch inst.Class {
		case cpu.ClassRegList, cpu.ClassRegPair:
			return fmt.Sprintf("%s #$%02X", inst.Name, v), length
		}
		return fmt.Sprintf("%s #$%0*X", inst.Name, width*2, v), length

	case cpu.DIR:
		v, ok := operand(1)
		if !ok {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		return fmt.Sprintf("%s <$%02X", inst.Name, v), length

	case cpu.EXT:
		v, ok := operand(2)
		if !ok {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		return fmt.Sprintf("%s $%04X", inst.Name, v), length

	case cpu.IDX:
		pb, ok := operand(1)
		if !ok {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		m, err := DecodePostByte(byte(pb))
		if err != nil {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		off, ok := operand(m.Form.OffsetBytes())
		if !ok {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		return fmt.Sprintf("%s %s", inst.Name, formatIndexed(m, off, addr, length)), length

	default: // cpu.REL
		width := 1
		if inst.Branch == cpu.BranchLong {
			width = 2
		}
		v, ok := operand(width)
		if !ok {
			return fmt.Sprintf("FCB $%02X", code[0]), 1
		}
		disp := signExtend(v, width)
		target := uint16(int(addr) + length + disp)
		return fmt.Sprintf("%s $%04X", inst.Name, target), length
	}
}

func signExtend(v, width int) int {
	if width == 1 && v > 0x7F {
		return v - 0x100
	}
	if width == 2 && v > 0x7FFF {
		return v - 0x10000
	}
	return v
}

func formatIndexed(m IndexedMode, off int, addr uint16, length int) string {
	var s string
	switch m.Form {
	case Zero:
		s = fmt.Sprintf(",%s", m.Register)
	case Const5:
		s = fmt.Sprintf("%d,%s", m.Offset, m.Register)
	case Const8:
		s = fmt.Sprintf("%d,%s", signExtend(off, 1), m.Register)
	case Const16:
		s = fmt.Sprintf("%d,%s", signExtend(off, 2), m.Register)
	case AccA, AccB, AccD:
		s = fmt.Sprintf("%s,%s", m.Form, m.Register)
	case PostInc1:
		s = fmt.Sprintf(",%s+", m.Register)
	case PostInc2:
		s = fmt.Sprintf(",%s++", m.Register)
	case PreDec1:
		s = fmt.Sprintf(",-%s", m.Register)
	case PreDec2:
		s = fmt.Sprintf(",--%s", m.Register)
	case PCR8:
		s = fmt.Sprintf("$%04X,PCR", uint16(int(addr)+length+signExtend(off, 1)))
	case PCR16:
		s = fmt.Sprintf("$%04X,PCR", uint16(int(addr)+length+signExtend(off, 2)))
	case ExtendedIndirect:
		return fmt.Sprintf("[$%04X]", off)
	}
	if m.Indirect {
		return "[" + s + "]"
	}
	return s
}
