// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "strings"

// A Register identifies one of the 6809's programmer-visible registers.
type Register byte

// Registers.
const (
	RegD Register = iota
	RegX
	RegY
	RegU
	RegS
	RegPC
	RegA
	RegB
	RegCC
	RegDP
	RegNone
)

var registerName = []string{"D", "X", "Y", "U", "S", "PC", "A", "B", "CC", "DP", "?"}

func (r Register) String() string {
	return registerName[r]
}

// Is16Bit reports whether the register is 16 bits wide.
func (r Register) Is16Bit() bool {
	return r <= RegPC
}

// RegisterByName resolves a register name, case-insensitively. "CCR"
// and "DPR" are accepted as aliases for CC and DP.
func RegisterByName(name string) (Register, bool) {
	switch strings.ToUpper(name) {
	case "D":
		return RegD, true
	case "X":
		return RegX, true
	case "Y":
		return RegY, true
	case "U":
		return RegU, true
	case "S":
		return RegS, true
	case "PC":
		return RegPC, true
	case "A":
		return RegA, true
	case "B":
		return RegB, true
	case "CC", "CCR":
		return RegCC, true
	case "DP", "DPR":
		return RegDP, true
	}
	return RegNone, false
}

// InterRegisterCode returns the TFR/EXG nibble for a register:
// D=0 X=1 Y=2 U=3 S=4 PC=5 A=8 B=9 CC=$A DP=$B.
func InterRegisterCode(r Register) byte {
	switch r {
	case RegD:
		return 0x0
	case RegX:
		return 0x1
	case RegY:
		return 0x2
	case RegU:
		return 0x3
	case RegS:
		return 0x4
	case RegPC:
		return 0x5
	case RegA:
		return 0x8
	case RegB:
		return 0x9
	case RegCC:
		return 0xA
	default: // RegDP
		return 0xB
	}
}

// StackBit returns the PSH/PUL post-byte bit(s) for a register pushed
// onto the given stack (RegS for PSHS/PULS, RegU for PSHU/PULU). D sets
// both accumulator bits. The stack pointer itself cannot be pushed onto
// its own stack; the other stack pointer occupies bit $40.
func StackBit(r, stack Register) (byte, bool) {
	switch r {
	case RegCC:
		return 0x01, true
	case RegA:
		return 0x02, true
	case RegB:
		return 0x04, true
	case RegD:
		return 0x06, true
	case RegDP:
		return 0x08, true
	case RegX:
		return 0x10, true
	case RegY:
		return 0x20, true
	case RegU:
		if stack == RegU {
			return 0, false
		}
		return 0x40, true
	case RegS:
		if stack == RegS {
			return 0, false
		}
		return 0x40, true
	case RegPC:
		return 0x80, true
	}
	return 0, false
}

// Indexed-addressing post-byte forms. The register field occupies bits
// 5-6; bit 4 is the indirect flag on the $80-and-up forms.
const (
	PostInc1         = 0x80 // ,R+
	PostInc2         = 0x81 // ,R++
	PreDec1          = 0x82 // ,-R
	PreDec2          = 0x83 // ,--R
	ZeroOffset       = 0x84 // ,R
	AccBOffset       = 0x85 // B,R
	AccAOffset       = 0x86 // A,R
	Offset8          = 0x88 // n,R  (8-bit n)
	Offset16         = 0x89 // n,R  (16-bit n)
	AccDOffset       = 0x8B // D,R
	PCRelative8      = 0x8C // n,PCR (8-bit displacement)
	PCRelative16     = 0x8D // n,PCR (16-bit displacement)
	ExtendedIndirect = 0x9F // [n]
	IndirectBit      = 0x10
)

// IndexRegisterBits returns the post-byte register field for an index
// register: X=$00 Y=$20 U=$40 S=$60.
func IndexRegisterBits(r Register) byte {
	switch r {
	case RegX:
		return 0x00
	case RegY:
		return 0x20
	case RegU:
		return 0x40
	default: // RegS
		return 0x60
	}
}

// IndexRegisterFromBits is the inverse of IndexRegisterBits, decoding
// bits 5-6 of a post-byte.
func IndexRegisterFromBits(pb byte) Register {
	switch pb & 0x60 {
	case 0x00:
		return RegX
	case 0x20:
		return RegY
	case 0x40:
		return RegU
	default:
		return RegS
	}
}
