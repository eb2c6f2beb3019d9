// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(code string) (*Assembly, error) {
	return Assemble(strings.NewReader(code), "test.asm", 0, os.Stdout)
}

func checkASM(t *testing.T, source, expected string) *Assembly {
	t.Helper()
	a, err := assemble(source)
	if err != nil {
		t.Fatalf("assembly failed: %v\n%s", err, strings.Join(a.Errors, "\n"))
	}
	got := fmt.Sprintf("%X", a.Code())
	if got != expected {
		t.Errorf("code doesn't match expected")
		t.Errorf("got: %s", got)
		t.Errorf("exp: %s", expected)
	}
	return a
}

func checkASMError(t *testing.T, source, errSubstring string) {
	t.Helper()
	a, err := assemble(source)
	if err == nil {
		t.Fatalf("expected error on %q, didn't get one", source)
	}
	for _, e := range a.Errors {
		if strings.Contains(e, errSubstring) {
			return
		}
	}
	t.Errorf("expected an error containing %q, got %v", errSubstring, a.Errors)
}

func TestSeedProgram(t *testing.T) {
	source := `	ORG $0E00
START	LDX #$1234
	JMP START
	END START`

	a := checkASM(t, source, "8E12347E0E00")
	assert.Equal(t, uint16(0x0E00), a.Origin)
	assert.Equal(t, uint16(0x0E00), a.ExecAddr)

	require.Len(t, a.Symbols, 1)
	assert.Equal(t, "START", a.Symbols[0].Name)
	assert.Equal(t, uint16(0x0E00), a.Symbols[0].Value)
	assert.Equal(t, SymAddress, a.Symbols[0].Kind)
}

func TestImmediateDirectExtended(t *testing.T) {
	source := `	ORG $100
	LDA #65
	LDA 65
	LDA >65`

	checkASM(t, source, "86419641B60041")
}

func TestForcedDirect(t *testing.T) {
	checkASM(t, "\tLDA <65", "9641")
	checkASMError(t, "\tLDA <$2055", "direct page")
}

func TestDirectPageOptimization(t *testing.T) {
	source := `	ORG $100
	SETDP $20
	LDA $2055
	LDA $55`

	checkASM(t, source, "9655B60055")
}

func TestDataDirectives(t *testing.T) {
	checkASM(t, "\tORG $100\n\tFCC \"AB\"", "4142")
	checkASM(t, "\tFDB $1234,$5678", "12345678")
	checkASM(t, "\tFCB $01,'A,%10,@10,255", "01410208FF")
	checkASM(t, "\tFCC /A;B/", "413B42")
}

func TestFCBValues(t *testing.T) {
	checkASM(t, "\tFCB 1,2,3", "010203")
	checkASM(t, "\tFCB 'A,'B", "4142")
	checkASM(t, "\tFCB $FF", "FF")
}

func TestRMB(t *testing.T) {
	source := `	ORG $100
	RMB 3
	FCB 1`

	a := checkASM(t, source, "00000001")
	require.Len(t, a.Segments, 1)
	assert.Equal(t, uint16(0x100), a.Segments[0].Addr)
}

func TestInherent(t *testing.T) {
	checkASM(t, "\tNOP\n\tRTS\n\tMUL\n\tSWI2\n\tSWI3", "12393D103F113F")
}

func TestShortBranch(t *testing.T) {
	source := `	ORG $1000
LOOP	NOP
	BNE LOOP`

	checkASM(t, source, "1226FD")
}

func TestShortBranchOutOfRange(t *testing.T) {
	source := `	ORG $1000
	BEQ FAR
	RMB 200
FAR	RTS`

	checkASMError(t, source, "out of range")
}

func TestLongBranch(t *testing.T) {
	source := `	ORG $1000
	LBEQ FAR
	RMB 200
FAR	RTS`

	checkASM(t, source, "102700C8"+strings.Repeat("00", 200)+"39")
}

func TestLBSR(t *testing.T) {
	source := `	ORG $1000
SUB	RTS
	LBSR SUB`

	// LBSR is the page-0 long branch: disp = $1000 - ($1001+3)
	checkASM(t, source, "3917FFFC")
}

func TestPCRelativeBackward(t *testing.T) {
	source := `	ORG $1000
TARG	FCB 0
	LEAX TARG,PCR`

	checkASM(t, source, "00308CFC")
}

func TestPCRelativeForward(t *testing.T) {
	// Forward references assume the 16-bit form, and pass 2 honors it.
	source := `	ORG $1000
	LEAX TARG,PCR
TARG	FCB $55`

	checkASM(t, source, "308D000055")
}

func TestIndexedModes(t *testing.T) {
	tests := []struct {
		operand string
		code    string
	}{
		{",X", "A684"},
		{"0,X", "A684"},
		{",X+", "A680"},
		{",X++", "A681"},
		{",-X", "A682"},
		{",--X", "A683"},
		{"A,X", "A686"},
		{"B,Y", "A6A5"},
		{"D,U", "A6CB"},
		{"5,X", "A605"},
		{"15,X", "A60F"},
		{"-5,X", "A61B"},
		{"-16,X", "A610"},
		{"16,X", "A68810"},
		{"100,X", "A68864"},
		{"-100,X", "A6889C"},
		{"1000,X", "A68903E8"},
		{",Y", "A6A4"},
		{",U", "A6C4"},
		{",S", "A6E4"},
		{"[,X]", "A694"},
		{"[5,X]", "A69805"},
		{"[,X++]", "A691"},
		{"[,--S]", "A6F3"},
		{"[D,Y]", "A6BB"},
		{"[$1234]", "A69F1234"},
	}

	for _, test := range tests {
		checkASM(t, "\tLDA "+test.operand, test.code)
	}
}

func TestIllegalIndexed(t *testing.T) {
	checkASMError(t, "\tLDA 5,X+", "auto increment")
	checkASMError(t, "\tLDA [,X+]", "must be by 2")
	checkASMError(t, "\tLDA [,-X]", "must be by 2")
	checkASMError(t, "\tLDA <5,X", "width prefix")
	checkASMError(t, "\tLDA 5,W", "bad index register")
}

func TestRegisterLists(t *testing.T) {
	checkASM(t, "\tPSHS A,B,X", "3416")
	checkASM(t, "\tPSHS D,CC", "3407")
	checkASM(t, "\tPULS PC,U", "35C0")
	checkASM(t, "\tPSHU S,Y", "3660")
	checkASM(t, "\tPULU X", "3710")
	checkASMError(t, "\tPSHS S", "cannot be stacked")
	checkASMError(t, "\tPSHS A,Q", "unknown register")
}

func TestRegisterPairs(t *testing.T) {
	checkASM(t, "\tTFR A,B", "1F89")
	checkASM(t, "\tTFR X,Y", "1F12")
	checkASM(t, "\tEXG D,PC", "1E05")
	checkASM(t, "\tTFR CC,DP", "1FAB")
	checkASMError(t, "\tTFR A,X", "cannot mix")
	checkASMError(t, "\tTFR A", "exactly 2")
}

func TestPagePrefixedOpcodes(t *testing.T) {
	source := `	CMPD #$1234
	LDY #$5678
	CMPS #$0001`

	checkASM(t, source, "10831234108E5678118C0001")
}

func TestAddressAssignment(t *testing.T) {
	source := `	ORG $0E00
	LDX #$1234
	JMP $0E00`

	a, err := assemble(source)
	require.NoError(t, err)

	var addrs []uint16
	var sizes []int
	for _, r := range a.Records {
		if len(r.Bytes) > 0 {
			addrs = append(addrs, r.Address)
			sizes = append(sizes, len(r.Bytes))
		}
	}
	require.Equal(t, []uint16{0x0E00, 0x0E03}, addrs)
	require.Equal(t, []int{3, 3}, sizes)
}

func TestMultipleOrigins(t *testing.T) {
	source := `	ORG $100
	FCB 1
	ORG $200
	FCB 2`

	a := checkASM(t, source, "0102")
	require.Len(t, a.Segments, 2)
	assert.Equal(t, uint16(0x100), a.Segments[0].Addr)
	assert.Equal(t, uint16(0x200), a.Segments[1].Addr)
}

func TestPassOrderIdempotence(t *testing.T) {
	forward := `	ORG $200
	BRA SKIP
	NOP
SKIP	RTS`

	backward := `SKIP	EQU $203
	ORG $200
	BRA SKIP
	NOP
	RTS`

	a1, err := assemble(forward)
	require.NoError(t, err)
	a2, err := assemble(backward)
	require.NoError(t, err)
	assert.Equal(t, a1.Code(), a2.Code())
}

func TestEqu(t *testing.T) {
	source := `VALUE	EQU $41
	LDA #VALUE
	LDB #VALUE+1`

	a := checkASM(t, source, "8641C642")
	require.Len(t, a.Symbols, 1)
	assert.Equal(t, SymEquate, a.Symbols[0].Kind)
}

func TestEquRequiresLabel(t *testing.T) {
	checkASMError(t, "\tEQU 5", "requires a label")
}

func TestEquForwardReference(t *testing.T) {
	source := `VAL	EQU LATER
LATER	EQU 5`

	checkASMError(t, source, "must resolve in pass 1")
}

func TestDuplicateSymbol(t *testing.T) {
	source := `CAT	FCB 1
cat	FCB 2`

	checkASMError(t, source, "already defined")
}

func TestUnresolvedSymbol(t *testing.T) {
	checkASMError(t, "\tJMP NOWHERE", "unresolved symbol")
}

func TestUnknownMnemonic(t *testing.T) {
	checkASMError(t, "\tFROB #1", "unknown mnemonic")
}

func TestIllegalAddressingMode(t *testing.T) {
	checkASMError(t, "\tLEAX #5", "does not support")
	checkASMError(t, "\tNEG", "does not support")
}

func TestNamAndEnd(t *testing.T) {
	source := `	NAM DEMO
	ORG $300
START	RTS
	END START`

	a := checkASM(t, source, "39")
	assert.Equal(t, "DEMO", a.Name)
	assert.Equal(t, uint16(0x300), a.ExecAddr)
}

func TestEndWithoutOperand(t *testing.T) {
	source := `	ORG $400
	RTS
	END
	FCB 99`

	// END stops assembly; the trailing FCB emits nothing.
	a := checkASM(t, source, "39")
	assert.Equal(t, uint16(0x400), a.ExecAddr)
}

func TestTruncationWarning(t *testing.T) {
	a, err := assemble("\tFCB 300")
	require.NoError(t, err)
	require.Len(t, a.Warnings, 1)
	assert.Contains(t, a.Warnings[0], "truncated")
	assert.Equal(t, []byte{0x2C}, a.Code())
}

func TestCommentHandling(t *testing.T) {
	source := `; full line comment
* another full line comment
	NOP	; trailing comment
	LDA #1	load the accumulator`

	a := checkASM(t, source, "128601")
	var comments []string
	for _, r := range a.Records {
		if r.Comment != "" {
			comments = append(comments, r.Comment)
		}
	}
	assert.Equal(t, []string{
		"full line comment",
		"another full line comment",
		"trailing comment",
		"load the accumulator",
	}, comments)
}

func TestCaseInsensitiveMnemonics(t *testing.T) {
	checkASM(t, "\tlda #65\n\tRtS", "864139")
}

func TestListingRecords(t *testing.T) {
	source := `	ORG $0E00
START	LDX #$1234	; load X`

	a, err := assemble(source)
	require.NoError(t, err)
	require.Len(t, a.Records, 2)

	r := a.Records[1]
	assert.Equal(t, uint16(0x0E00), r.Address)
	assert.Equal(t, []byte{0x8E, 0x12, 0x34}, r.Bytes)
	assert.Equal(t, "START", r.Label)
	assert.Equal(t, "LDX", r.Mnemonic)
	assert.Equal(t, "#$1234", r.Operand)
	assert.Equal(t, "load X", r.Comment)
	assert.True(t, strings.HasPrefix(r.String(), "0E00 8E1234"))
	assert.True(t, strings.HasSuffix(r.String(), "; load X"))
}

func TestInclude(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub.asm")
	main := filepath.Join(dir, "main.asm")
	require.NoError(t, os.WriteFile(sub, []byte("\tNOP\n"), 0600))
	require.NoError(t, os.WriteFile(main, []byte("\tINCLUDE sub.asm\n\tRTS\n"), 0600))

	a, err := AssembleFile(main, 0, os.Stdout)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x39}, a.Code())
}

func TestIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.asm")
	fileB := filepath.Join(dir, "b.asm")
	require.NoError(t, os.WriteFile(fileA, []byte("\tINCLUDE b.asm\n"), 0600))
	require.NoError(t, os.WriteFile(fileB, []byte("\tINCLUDE a.asm\n"), 0600))

	a, err := AssembleFile(fileA, 0, os.Stdout)
	require.Error(t, err)
	require.NotEmpty(t, a.Errors)
	assert.Contains(t, a.Errors[0], "include cycle")
}

func TestSizeMatchesEmittedBytes(t *testing.T) {
	source := `	ORG $1000
	LDA #1
	LDX 5,Y
	FDB $AAAA,$BBBB
	FCC /HI/
	RMB 4
	CLRA`

	a, err := assemble(source)
	require.NoError(t, err)

	// Addresses must advance by exactly the emitted byte count.
	addr := uint16(0x1000)
	for _, r := range a.Records[1:] {
		assert.Equal(t, addr, r.Address)
		addr += uint16(len(r.Bytes))
	}
}

func TestProgramCounterOverflow(t *testing.T) {
	source := `	ORG $FFFF
	FDB $1234`

	checkASMError(t, source, "overflows")
}
