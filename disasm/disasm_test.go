// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocotools/go6809/cpu"
)

func TestDecodePostByte(t *testing.T) {
	tests := []struct {
		pb       byte
		register cpu.Register
		form     IndexForm
		indirect bool
	}{
		{0x84, cpu.RegX, Zero, false},
		{0xA4, cpu.RegY, Zero, false},
		{0x05, cpu.RegX, Const5, false},
		{0x10, cpu.RegX, Const5, false}, // -16
		{0x88, cpu.RegX, Const8, false},
		{0xE9, cpu.RegS, Const16, false},
		{0x86, cpu.RegX, AccA, false},
		{0xA5, cpu.RegY, AccB, false},
		{0xCB, cpu.RegU, AccD, false},
		{0x80, cpu.RegX, PostInc1, false},
		{0x81, cpu.RegX, PostInc2, false},
		{0x82, cpu.RegX, PreDec1, false},
		{0x83, cpu.RegX, PreDec2, false},
		{0x8C, cpu.RegX, PCR8, false},
		{0x8D, cpu.RegX, PCR16, false},
		{0x94, cpu.RegX, Zero, true},
		{0x98, cpu.RegX, Const8, true},
		{0xD1, cpu.RegU, PostInc2, true},
		{0x9F, cpu.RegNone, ExtendedIndirect, true},
	}

	for _, test := range tests {
		m, err := DecodePostByte(test.pb)
		require.NoError(t, err, "post-byte $%02X", test.pb)
		assert.Equal(t, test.register, m.Register, "register of $%02X", test.pb)
		assert.Equal(t, test.form, m.Form, "form of $%02X", test.pb)
		assert.Equal(t, test.indirect, m.Indirect, "indirect flag of $%02X", test.pb)
	}
}

func TestDecodePostByteConst5Offsets(t *testing.T) {
	m, err := DecodePostByte(0x05)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Offset)

	m, err = DecodePostByte(0x1B)
	require.NoError(t, err)
	assert.Equal(t, -5, m.Offset)

	m, err = DecodePostByte(0x10)
	require.NoError(t, err)
	assert.Equal(t, -16, m.Offset)
}

func TestDecodePostByteIllegal(t *testing.T) {
	// Indirect auto increment/decrement by one, and undefined forms.
	for _, pb := range []byte{0x90, 0x92, 0x87, 0x8A, 0x8E, 0xBF} {
		_, err := DecodePostByte(pb)
		assert.Error(t, err, "post-byte $%02X", pb)
	}
}

func TestOffsetBytes(t *testing.T) {
	assert.Equal(t, 0, Zero.OffsetBytes())
	assert.Equal(t, 0, Const5.OffsetBytes())
	assert.Equal(t, 1, Const8.OffsetBytes())
	assert.Equal(t, 2, Const16.OffsetBytes())
	assert.Equal(t, 1, PCR8.OffsetBytes())
	assert.Equal(t, 2, PCR16.OffsetBytes())
	assert.Equal(t, 2, ExtendedIndirect.OffsetBytes())
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		code   []byte
		addr   uint16
		line   string
		length int
	}{
		{[]byte{0x12}, 0, "NOP", 1},
		{[]byte{0x86, 0x41}, 0, "LDA #$41", 2},
		{[]byte{0x96, 0x41}, 0, "LDA <$41", 2},
		{[]byte{0x7E, 0x0E, 0x00}, 0, "JMP $0E00", 3},
		{[]byte{0x8E, 0x12, 0x34}, 0, "LDX #$1234", 3},
		{[]byte{0x10, 0x83, 0x12, 0x34}, 0, "CMPD #$1234", 4},
		{[]byte{0xA6, 0x84}, 0, "LDA ,X", 2},
		{[]byte{0xA6, 0x9F, 0x12, 0x34}, 0, "LDA [$1234]", 4},
		{[]byte{0x30, 0x8C, 0xFC}, 0x1001, "LEAX $1000,PCR", 3},
		{[]byte{0x27, 0xFD}, 0x1000, "BEQ $0FFF", 2},
		{[]byte{0x10, 0x27, 0x00, 0xC8}, 0x1000, "LBEQ $10CC", 4},
		{[]byte{0x3A}, 0, "ABX", 1},
		{[]byte{0x05}, 0, "FCB $05", 1},
	}

	for _, test := range tests {
		line, length := Disassemble(test.code, test.addr)
		assert.Equal(t, test.line, line, "disassembly at $%04X", test.addr)
		assert.Equal(t, test.length, length, "length of %q", test.line)
	}
}

func TestDisassembleIndexedForms(t *testing.T) {
	tests := []struct {
		code []byte
		line string
	}{
		{[]byte{0xA6, 0x05}, "LDA 5,X"},
		{[]byte{0xA6, 0x1B}, "LDA -5,X"},
		{[]byte{0xA6, 0x88, 0x64}, "LDA 100,X"},
		{[]byte{0xA6, 0x89, 0x03, 0xE8}, "LDA 1000,X"},
		{[]byte{0xA6, 0x80}, "LDA ,X+"},
		{[]byte{0xA6, 0xA1}, "LDA ,Y++"},
		{[]byte{0xA6, 0xC2}, "LDA ,-U"},
		{[]byte{0xA6, 0xE3}, "LDA ,--S"},
		{[]byte{0xA6, 0x86}, "LDA A,X"},
		{[]byte{0xA6, 0x94}, "LDA [,X]"},
		{[]byte{0xA6, 0x98, 0x0A}, "LDA [10,X]"},
	}

	for _, test := range tests {
		line, _ := Disassemble(test.code, 0)
		assert.Equal(t, test.line, line)
	}
}
