// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"

	"github.com/cocotools/go6809/cpu"
)

// An AddrMode is the assembler's syntactic classification of an
// operand. The encoder validates it against the mnemonic and narrows
// plain absolute operands to direct or extended form.
type AddrMode byte

// Operand classifications.
const (
	ModeInherent AddrMode = iota
	ModeImmediate
	ModeAbsolute // plain/forced expression: direct vs extended
	ModeExtendedIndirect
	ModeIndexed
	ModeRelative
	ModeRegisterList
	ModeRegisterPair
)

var addrModeName = []string{
	"inherent", "immediate", "absolute", "extended indirect",
	"indexed", "relative", "register list", "register pair",
}

func (m AddrMode) String() string {
	return addrModeName[m]
}

// An idxForm is the offset sub-form of an indexed operand.
type idxForm byte

const (
	idxConst idxForm = iota // n,R (n possibly 0 or absent)
	idxAccA                 // A,R
	idxAccB                 // B,R
	idxAccD                 // D,R
	idxInc1                 // ,R+
	idxInc2                 // ,R++
	idxDec1                 // ,-R
	idxDec2                 // ,--R
	idxPCR                  // n,PCR
)

// An operand holds the parsed form of an instruction's operand field.
type operand struct {
	mode     AddrMode
	expr     *expr // offset, address, or immediate expression
	forceDir bool  // '<' prefix
	forceExt bool  // '>' prefix
	indirect bool  // bracketed indexed form
	idxReg   cpu.Register
	idxForm  idxForm
	postByte byte // register list or register pair post-byte
}

// parseOperand classifies the operand field of an instruction
// statement. Classification is syntactic except that push/pull and
// transfer/exchange mnemonics claim the register forms up front, and a
// plain expression after a branch mnemonic is classified as relative.
func (a *assembler) parseOperand(inst *cpu.Instruction, field fstring) (o operand, err error) {
	switch {
	case field.isEmpty():
		o.mode = ModeInherent
		return

	case inst.Class == cpu.ClassRegList:
		return a.parseRegisterList(inst, field)

	case inst.Class == cpu.ClassRegPair:
		return a.parseRegisterPair(inst, field)

	case field.startsWithChar('#'):
		o.mode = ModeImmediate
		o.expr, _, err = a.exprParser.parse(field.consume(1))
		if err != nil {
			a.addExprErrors()
			return
		}

	case field.startsWithChar('['):
		return a.parseIndirect(field)

	case strings.ContainsRune(field.str, ','):
		return a.parseIndexed(field, false)

	case inst.Branch != cpu.BranchNone:
		o.mode = ModeRelative
		o.expr, _, err = a.exprParser.parse(field)
		if err != nil {
			a.addExprErrors()
			return
		}

	default:
		o.mode = ModeAbsolute
		switch {
		case field.startsWithChar('<'):
			o.forceDir = true
			field = field.consume(1)
		case field.startsWithChar('>'):
			o.forceExt = true
			field = field.consume(1)
		}
		o.expr, _, err = a.exprParser.parse(field)
		if err != nil {
			a.addExprErrors()
			return
		}
	}
	return
}

// parseIndirect handles the bracketed forms: [expr] is extended
// indirect, [offset,R] is indexed indirect.
func (a *assembler) parseIndirect(field fstring) (o operand, err error) {
	if !field.endsWithChar(']') {
		a.addError(field, SyntaxError, "unterminated indirect operand")
		return o, errParse
	}
	inner := field.consume(1).trunc(len(field.str) - 2)

	if !strings.ContainsRune(inner.str, ',') {
		o.mode = ModeExtendedIndirect
		o.indirect = true
		o.expr, _, err = a.exprParser.parse(inner)
		if err != nil {
			a.addExprErrors()
		}
		return
	}
	return a.parseIndexed(inner, true)
}

// parseIndexed handles the comma forms: n,R  ,R+  ,R++  ,-R  ,--R
// A,R  B,R  D,R  and n,PCR.
func (a *assembler) parseIndexed(field fstring, indirect bool) (o operand, err error) {
	o.mode = ModeIndexed
	o.indirect = indirect

	left, right := field.consumeUntilChar(',')
	right = right.consume(1)
	if right.isEmpty() {
		a.addError(field, SyntaxError, "missing index register")
		return o, errParse
	}

	reg, form, err := parseIndexRegister(right.str)
	if err != nil {
		a.addError(right, SyntaxError, "bad index register '%s'", right.str)
		return o, errParse
	}
	o.idxReg, o.idxForm = reg, form

	switch form {
	case idxInc1, idxInc2, idxDec1, idxDec2:
		if !left.isEmpty() {
			a.addError(left, IllegalIndexedCombination, "offset not allowed with auto increment/decrement")
			return o, errParse
		}
		if indirect && (form == idxInc1 || form == idxDec1) {
			a.addError(right, IllegalIndexedCombination, "indirect auto increment/decrement must be by 2")
			return o, errParse
		}
		return o, nil
	}

	// Accumulator offsets.
	switch strings.ToUpper(left.str) {
	case "A":
		o.idxForm = idxAccA
		return o, nil
	case "B":
		o.idxForm = idxAccB
		return o, nil
	case "D":
		o.idxForm = idxAccD
		return o, nil
	}

	if left.startsWithChar('<') || left.startsWithChar('>') {
		a.addError(left, SyntaxError, "width prefix not allowed in indexed operand")
		return o, errParse
	}

	if left.isEmpty() {
		o.expr = &expr{line: field, op: opNumber, number: 0, evaluated: true}
		return o, nil
	}

	o.expr, _, err = a.exprParser.parse(left)
	if err != nil {
		a.addExprErrors()
	}
	return
}

// parseIndexRegister decodes the register side of an indexed operand,
// including the auto increment/decrement decorations and PCR.
func parseIndexRegister(s string) (cpu.Register, idxForm, error) {
	u := strings.ToUpper(strings.TrimSpace(s))

	form := idxConst
	switch {
	case strings.HasSuffix(u, "++"):
		form, u = idxInc2, u[:len(u)-2]
	case strings.HasSuffix(u, "+"):
		form, u = idxInc1, u[:len(u)-1]
	case strings.HasPrefix(u, "--"):
		form, u = idxDec2, u[2:]
	case strings.HasPrefix(u, "-"):
		form, u = idxDec1, u[1:]
	}

	if u == "PCR" {
		if form != idxConst {
			return cpu.RegNone, form, errParse
		}
		return cpu.RegPC, idxPCR, nil
	}

	reg, ok := cpu.RegisterByName(u)
	if !ok || (reg != cpu.RegX && reg != cpu.RegY && reg != cpu.RegU && reg != cpu.RegS) {
		return cpu.RegNone, form, errParse
	}
	return reg, form, nil
}

// parseRegisterList builds the PSHS/PSHU/PULS/PULU post-byte.
func (a *assembler) parseRegisterList(inst *cpu.Instruction, field fstring) (o operand, err error) {
	o.mode = ModeRegisterList

	stack := cpu.RegS
	if inst.Name == "PSHU" || inst.Name == "PULU" {
		stack = cpu.RegU
	}

	for _, name := range strings.Split(field.str, ",") {
		reg, ok := cpu.RegisterByName(strings.TrimSpace(name))
		if !ok {
			a.addError(field, SyntaxError, "unknown register '%s'", strings.TrimSpace(name))
			return o, errParse
		}
		bit, ok := cpu.StackBit(reg, stack)
		if !ok {
			a.addError(field, IllegalAddressingMode, "register %s cannot be stacked by %s", reg, inst.Name)
			return o, errParse
		}
		o.postByte |= bit
	}
	return o, nil
}

// parseRegisterPair builds the TFR/EXG post-byte. Mixing 8- and 16-bit
// registers is rejected.
func (a *assembler) parseRegisterPair(inst *cpu.Instruction, field fstring) (o operand, err error) {
	o.mode = ModeRegisterPair

	names := strings.Split(field.str, ",")
	if len(names) != 2 {
		a.addError(field, SyntaxError, "%s requires exactly 2 registers", inst.Name)
		return o, errParse
	}

	src, ok := cpu.RegisterByName(strings.TrimSpace(names[0]))
	if !ok {
		a.addError(field, SyntaxError, "unknown register '%s'", strings.TrimSpace(names[0]))
		return o, errParse
	}
	dst, ok := cpu.RegisterByName(strings.TrimSpace(names[1]))
	if !ok {
		a.addError(field, SyntaxError, "unknown register '%s'", strings.TrimSpace(names[1]))
		return o, errParse
	}
	if src.Is16Bit() != dst.Is16Bit() {
		a.addError(field, IllegalAddressingMode, "%s cannot mix 8-bit and 16-bit registers", inst.Name)
		return o, errParse
	}

	o.postByte = cpu.InterRegisterCode(src)<<4 | cpu.InterRegisterCode(dst)
	return o, nil
}

// An encPlan is the encoding decision fixed during pass 1. Pass 2
// honors the plan even when a smaller form would fit by then, so that
// pass-1 addresses remain valid.
type encPlan struct {
	family   cpu.AddrMode
	postByte byte // indexed post-byte with offset bits unresolved consts left 0
	const5   bool // offset embedded in the post-byte
	extra    int  // operand bytes following opcode (and post-byte)
	size     int  // total instruction length
}

// planInstruction chooses the instruction's encoding and total size
// from the mnemonic, the classified operand, and whatever symbol values
// have been defined so far. Unresolved expressions take the larger
// form: extended over direct, 16-bit over 8- or 5-bit constants.
func (a *assembler) planInstruction(s *statement) error {
	inst, o := s.inst, &s.operand

	require := func(m cpu.AddrMode) bool {
		if !inst.Has(m) {
			a.addError(s.mnemonic, IllegalAddressingMode, "%s does not support %s addressing", inst.Name, o.mode)
			return false
		}
		return true
	}

	switch o.mode {
	case ModeInherent:
		if !require(cpu.INH) {
			return errParse
		}
		s.plan = encPlan{family: cpu.INH, size: cpu.OpcodeLen(inst.Opcode(cpu.INH))}

	case ModeImmediate:
		if !require(cpu.IMM) {
			return errParse
		}
		o.expr.eval(&a.symbols)
		s.plan = encPlan{family: cpu.IMM, extra: inst.ImmWidth}
		s.plan.size = cpu.OpcodeLen(inst.Opcode(cpu.IMM)) + s.plan.extra

	case ModeRegisterList, ModeRegisterPair:
		s.plan = encPlan{family: cpu.IMM, postByte: o.postByte}
		s.plan.size = cpu.OpcodeLen(inst.Opcode(cpu.IMM)) + 1

	case ModeRelative:
		if !require(cpu.REL) {
			return errParse
		}
		o.expr.eval(&a.symbols)
		extra := 1
		if inst.Branch == cpu.BranchLong {
			extra = 2
		}
		s.plan = encPlan{family: cpu.REL, extra: extra}
		s.plan.size = cpu.OpcodeLen(inst.Opcode(cpu.REL)) + extra

	case ModeAbsolute:
		resolved := o.expr.eval(&a.symbols)
		useDir := o.forceDir
		if !o.forceDir && !o.forceExt && resolved {
			useDir = byte(uint16(o.expr.number)>>8) == s.dp
		}
		if useDir {
			if !require(cpu.DIR) {
				return errParse
			}
			s.plan = encPlan{family: cpu.DIR, extra: 1}
			s.plan.size = cpu.OpcodeLen(inst.Opcode(cpu.DIR)) + 1
		} else {
			if !require(cpu.EXT) {
				return errParse
			}
			s.plan = encPlan{family: cpu.EXT, extra: 2}
			s.plan.size = cpu.OpcodeLen(inst.Opcode(cpu.EXT)) + 2
		}

	case ModeExtendedIndirect:
		if !require(cpu.IDX) {
			return errParse
		}
		o.expr.eval(&a.symbols)
		s.plan = encPlan{family: cpu.IDX, postByte: cpu.ExtendedIndirect, extra: 2}
		s.plan.size = cpu.OpcodeLen(inst.Opcode(cpu.IDX)) + 3

	case ModeIndexed:
		if !require(cpu.IDX) {
			return errParse
		}
		if err := a.planIndexed(s); err != nil {
			return err
		}
	}

	return nil
}

// planIndexed constructs the indexed post-byte and decides how many
// offset bytes follow it.
func (a *assembler) planIndexed(s *statement) error {
	inst, o := s.inst, &s.operand
	oplen := cpu.OpcodeLen(inst.Opcode(cpu.IDX))
	reg := cpu.IndexRegisterBits(o.idxReg)

	var pb byte
	var extra int
	var const5 bool

	switch o.idxForm {
	case idxInc1:
		pb = cpu.PostInc1 | reg
	case idxInc2:
		pb = cpu.PostInc2 | reg
	case idxDec1:
		pb = cpu.PreDec1 | reg
	case idxDec2:
		pb = cpu.PreDec2 | reg
	case idxAccA:
		pb = cpu.AccAOffset | reg
	case idxAccB:
		pb = cpu.AccBOffset | reg
	case idxAccD:
		pb = cpu.AccDOffset | reg

	case idxPCR:
		resolved := o.expr.eval(&a.symbols)
		if resolved {
			// Displacement is target - (address + size); try the
			// 8-bit form first.
			disp := int(o.expr.number) - (s.addr + oplen + 2)
			if disp >= -128 && disp <= 127 {
				pb, extra = cpu.PCRelative8, 1
			} else {
				pb, extra = cpu.PCRelative16, 2
			}
		} else {
			pb, extra = cpu.PCRelative16, 2
		}

	default: // idxConst
		resolved := o.expr.eval(&a.symbols)
		switch {
		case !resolved:
			pb, extra = cpu.Offset16|reg, 2
		case o.expr.number == 0:
			pb = cpu.ZeroOffset | reg
		case o.expr.number >= -16 && o.expr.number <= 15 && !o.indirect:
			pb = reg | (byte(o.expr.number) & 0x1F)
			const5 = true
		case o.expr.number >= -128 && o.expr.number <= 127:
			pb, extra = cpu.Offset8|reg, 1
		default:
			pb, extra = cpu.Offset16|reg, 2
		}
	}

	if o.indirect {
		pb |= cpu.IndirectBit
	}

	s.plan = encPlan{family: cpu.IDX, postByte: pb, const5: const5, extra: extra}
	s.plan.size = oplen + 1 + extra
	return nil
}

// encodeInstruction emits the final bytes for an instruction statement,
// honoring the pass-1 plan. Called only in pass 2, with the symbol
// table complete.
func (a *assembler) encodeInstruction(s *statement) error {
	inst, o, plan := s.inst, &s.operand, &s.plan
	op := inst.Opcode(plan.family)

	if o.expr != nil && !o.expr.eval(&a.symbols) {
		id, _ := o.expr.firstUnresolved()
		a.addError(id, UnresolvedSymbol, "unresolved symbol '%s'", id.str)
		return errParse
	}

	code := cpu.OpcodeBytes(op)

	switch plan.family {
	case cpu.INH:
		// opcode only

	case cpu.IMM:
		switch o.mode {
		case ModeRegisterList, ModeRegisterPair:
			code = append(code, plan.postByte)
		default:
			v := o.expr.number
			a.checkWidth(s, v, plan.extra)
			code = append(code, toBytes(plan.extra, int(v))...)
		}

	case cpu.DIR:
		v := uint16(o.expr.number)
		if byte(v>>8) != s.dp {
			a.addError(s.mnemonic, DirectPageMismatch, "address $%04X not in direct page $%02X", v, s.dp)
			return errParse
		}
		code = append(code, byte(v))

	case cpu.EXT:
		code = append(code, toBytes(2, int(o.expr.number))...)

	case cpu.IDX:
		var err error
		code, err = a.encodeIndexed(s, code)
		if err != nil {
			return err
		}

	case cpu.REL:
		target := int(uint16(o.expr.number))
		disp := target - (s.addr + plan.size)
		if inst.Branch == cpu.BranchShort {
			if disp < -128 || disp > 127 {
				a.addError(s.mnemonic, ValueOutOfRange, "branch displacement %d out of range; use L%s", disp, inst.Name)
				return errParse
			}
			code = append(code, byte(disp))
		} else {
			if disp < -32768 || disp > 32767 {
				a.addError(s.mnemonic, ValueOutOfRange, "long branch target out of range")
				return errParse
			}
			code = append(code, toBytes(2, disp)...)
		}
	}

	s.bytes = code
	return nil
}

// encodeIndexed appends the post-byte and offset bytes of an indexed
// operand.
func (a *assembler) encodeIndexed(s *statement, code []byte) ([]byte, error) {
	o, plan := &s.operand, &s.plan

	pb := plan.postByte

	if o.mode == ModeExtendedIndirect {
		code = append(code, pb)
		return append(code, toBytes(2, int(o.expr.number))...), nil
	}

	switch o.idxForm {
	case idxPCR:
		target := int(uint16(o.expr.number))
		disp := target - (s.addr + plan.size)
		if plan.extra == 1 {
			if disp < -128 || disp > 127 {
				a.addError(s.mnemonic, ValueOutOfRange, "PC-relative displacement %d does not fit 8 bits", disp)
				return code, errParse
			}
			return append(code, pb, byte(disp)), nil
		}
		if disp < -32768 || disp > 32767 {
			a.addError(s.mnemonic, ValueOutOfRange, "PC-relative displacement out of range")
			return code, errParse
		}
		code = append(code, pb)
		return append(code, toBytes(2, disp)...), nil

	case idxConst:
		v := o.expr.number
		switch {
		case plan.const5:
			pb = (pb &^ 0x1F) | (byte(v) & 0x1F)
			return append(code, pb), nil
		case plan.extra == 0:
			return append(code, pb), nil
		case plan.extra == 1:
			if v < -128 || v > 127 {
				a.addError(s.mnemonic, ValueOutOfRange, "indexed offset %d does not fit 8 bits", v)
				return code, errParse
			}
			return append(code, pb, byte(v)), nil
		default:
			code = append(code, pb)
			return append(code, toBytes(2, int(v))...), nil
		}

	default:
		return append(code, pb), nil
	}
}

// checkWidth warns when a value fits the operand width neither as an
// unsigned nor as a two's-complement quantity.
func (a *assembler) checkWidth(s *statement, v int32, width int) {
	var lo, hi int32
	switch width {
	case 1:
		lo, hi = -128, 255
	default:
		lo, hi = -32768, 65535
	}
	if v < lo || v > hi {
		a.addWarning(s.mnemonic, "value %d truncated to %d byte(s)", v, width)
	}
}
