// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package container

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskRoundTrip(t *testing.T) {
	dsk := NewDisk()
	require.NoError(t, dsk.AddFile(testFile("HELLO", 300)))

	files, err := dsk.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)

	f := files[0]
	assert.Equal(t, "HELLO", f.Name)
	assert.Equal(t, "BIN", f.Ext)
	assert.Equal(t, TypeObject, f.Type)
	assert.Equal(t, uint16(0x0E00), f.LoadAddr)
	assert.Equal(t, uint16(0x0E00), f.ExecAddr)
	assert.Equal(t, testFile("HELLO", 300).Data, f.Data)
}

func TestDiskMultiGranuleFile(t *testing.T) {
	// Larger than one granule, so the FAT chain matters.
	dsk := NewDisk()
	require.NoError(t, dsk.AddFile(testFile("BIG", 6000)))

	files, err := dsk.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, testFile("BIG", 6000).Data, files[0].Data)
}

func TestDiskTwoFiles(t *testing.T) {
	dsk := NewDisk()
	require.NoError(t, dsk.AddFile(testFile("ONE", 100)))
	require.NoError(t, dsk.AddFile(testFile("TWO", 5000)))

	files, err := dsk.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)

	// No two directory entries may share a first granule.
	g1 := dsk.image[diskDirOffset+13]
	g2 := dsk.image[diskDirOffset+diskDirEntrySize+13]
	assert.NotEqual(t, g1, g2)

	assert.Equal(t, testFile("ONE", 100).Data, files[0].Data)
	assert.Equal(t, testFile("TWO", 5000).Data, files[1].Data)
}

// Every FAT chain must terminate at a $C0-$C9 byte recording the
// sector count of the final granule.
func TestDiskFATChainTermination(t *testing.T) {
	dsk := NewDisk()
	require.NoError(t, dsk.AddFile(testFile("CHAIN", 6000)))

	fat := dsk.fat()
	g := int(dsk.image[diskDirOffset+13])
	steps := 0
	for {
		require.Less(t, steps, diskTotalGranules, "unterminated FAT chain")
		entry := fat[g]
		if entry&0xC0 == 0xC0 {
			assert.GreaterOrEqual(t, entry, fatLastBase+1)
			assert.LessOrEqual(t, entry, fatLastBase+9)
			break
		}
		g = int(entry)
		steps++
	}

	// 6000 bytes + 10 bytes of preamble/postamble = 2 full granules
	// plus 1402 bytes = 6 sectors in the last granule.
	assert.Equal(t, 2, steps)
	assert.Equal(t, fatLastBase+6, fat[g])
}

func TestDiskDirectoryEntryLayout(t *testing.T) {
	dsk := NewDisk()
	require.NoError(t, dsk.AddFile(testFile("prog", 100)))

	p := diskDirOffset
	assert.Equal(t, []byte("PROG    "), dsk.image[p:p+8])
	assert.Equal(t, []byte("BIN"), dsk.image[p+8:p+11])
	assert.Equal(t, byte(TypeObject), dsk.image[p+11])
	assert.Equal(t, DataBinary, dsk.image[p+12])
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(0), dsk.image[p+16+i], "reserved byte %d", i)
	}
}

func TestDiskImageSize(t *testing.T) {
	dsk := NewDisk()
	assert.Len(t, dsk.Bytes(), 161280)
}

func TestDiskContainerFull(t *testing.T) {
	dsk := NewDisk()
	require.NoError(t, dsk.AddFile(testFile("HOG", 150000)))

	err := dsk.AddFile(testFile("MORE", 10000))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContainerFull)
}

func TestDiskSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dsk")

	dsk := NewDisk()
	require.NoError(t, dsk.AddFile(testFile("SAVED", 500)))
	require.NoError(t, dsk.Save(path))

	loaded, err := LoadDisk(path)
	require.NoError(t, err)

	// Append to the loaded image.
	require.NoError(t, loaded.AddFile(testFile("EXTRA", 200)))
	files, err := loaded.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "SAVED", files[0].Name)
	assert.Equal(t, "EXTRA", files[1].Name)
	assert.Equal(t, testFile("EXTRA", 200).Data, files[1].Data)
}

func TestDiskRejectsBadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dsk")
	require.NoError(t, WriteBinary(path, make([]byte, 1000)))

	_, err := LoadDisk(path)
	assert.Error(t, err)
}
