// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package container

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFile(name string, size int) *File {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	return &File{
		Name:     name,
		Ext:      "BIN",
		Type:     TypeObject,
		ASCII:    DataBinary,
		LoadAddr: 0x0E00,
		ExecAddr: 0x0E00,
		Data:     data,
	}
}

func TestCassetteRoundTrip(t *testing.T) {
	cas := NewCassette()
	cas.AddFile(testFile("HELLO", 300))

	files, err := cas.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, "HELLO", f.Name)
	assert.Equal(t, TypeObject, f.Type)
	assert.Equal(t, uint16(0x0E00), f.LoadAddr)
	assert.Equal(t, uint16(0x0E00), f.ExecAddr)
	assert.Equal(t, testFile("HELLO", 300).Data, f.Data)
}

func TestCassetteAppend(t *testing.T) {
	cas := NewCassette()
	cas.AddFile(testFile("FIRST", 100))
	cas.AddFile(testFile("SECOND", 600))

	files, err := cas.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "FIRST", files[0].Name)
	assert.Equal(t, "SECOND", files[1].Name)
	assert.Len(t, files[0].Data, 100)
	assert.Equal(t, testFile("SECOND", 600).Data, files[1].Data)
}

// Every block's length field must match its payload and its checksum
// must satisfy checksum = (type + length + sum(payload)) mod 256.
func TestCassetteBlockChecksums(t *testing.T) {
	cas := NewCassette()
	cas.AddFile(testFile("SUMS", 700))

	blocks := 0
	p := 0
	for {
		p = cas.skipToSync(p)
		if p < 0 {
			break
		}
		typ := cas.buf[p]
		length := int(cas.buf[p+1])
		payload := cas.buf[p+2 : p+2+length]

		sum := typ + byte(length)
		for _, b := range payload {
			sum += b
		}
		assert.Equal(t, sum, cas.buf[p+2+length], "checksum of block %d", blocks)

		p += 2 + length + 1
		blocks++
	}

	// Namefile, three data blocks (255+255+190), EOF.
	assert.Equal(t, 5, blocks)
}

func TestCassetteNamePadding(t *testing.T) {
	cas := NewCassette()
	cas.AddFile(testFile("hi", 1))

	p := cas.skipToSync(0)
	require.GreaterOrEqual(t, p, 0)
	// Uppercased, space-padded to 8 characters.
	assert.Equal(t, []byte("HI      "), cas.buf[p+2:p+10])
}

func TestCassetteSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.cas")

	cas := NewCassette()
	cas.AddFile(testFile("SAVED", 64))
	require.NoError(t, cas.Save(path))

	loaded, err := LoadCassette(path)
	require.NoError(t, err)
	require.True(t, bytes.Equal(cas.Bytes(), loaded.Bytes()))

	// Appending to the loaded image keeps the original file intact.
	loaded.AddFile(testFile("EXTRA", 32))
	files, err := loaded.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "SAVED", files[0].Name)
	assert.Equal(t, "EXTRA", files[1].Name)
}

func TestCassetteCorruptChecksum(t *testing.T) {
	cas := NewCassette()
	cas.AddFile(testFile("BAD", 10))

	p := cas.skipToSync(0)
	require.GreaterOrEqual(t, p, 0)
	cas.buf[p+3] ^= 0xFF // flip a payload byte

	_, err := cas.Files()
	assert.Error(t, err)
}

func TestCassetteEmpty(t *testing.T) {
	files, err := NewCassette().Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}
