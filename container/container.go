// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package container packages an assembled image into the byte layouts
// loadable by a Color Computer: raw binary, cassette image (.CAS), and
// sectored disk image (.DSK). Existing containers can be read back,
// listed, and appended to.
package container

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// A FileType is the container-level type byte of a stored file.
type FileType byte

// File types.
const (
	TypeBASIC  FileType = 0x00
	TypeData   FileType = 0x01
	TypeObject FileType = 0x02
	TypeText   FileType = 0x03
)

func (t FileType) String() string {
	switch t {
	case TypeBASIC:
		return "BASIC"
	case TypeData:
		return "Data"
	case TypeObject:
		return "Object"
	default:
		return "Text"
	}
}

// Data-type flag values.
const (
	DataBinary byte = 0x00
	DataASCII  byte = 0xFF
)

// ErrContainerFull is returned when a disk image has no free directory
// slot or granule left.
var ErrContainerFull = errors.New("container full")

// A File is one named program or data file stored in (or destined for)
// a container.
type File struct {
	Name     string
	Ext      string
	Type     FileType
	ASCII    byte // DataBinary or DataASCII
	Gaps     byte
	LoadAddr uint16
	ExecAddr uint16
	Data     []byte
}

// String renders the file's metadata for directory listings.
func (f *File) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Filename:   %s\n", f.Name)
	if f.Ext != "" {
		fmt.Fprintf(&sb, "Extension:  %s\n", f.Ext)
	}
	fmt.Fprintf(&sb, "File Type:  %s\n", f.Type)
	if f.ASCII == DataASCII {
		fmt.Fprintf(&sb, "Data Type:  ASCII\n")
	} else {
		fmt.Fprintf(&sb, "Data Type:  Binary\n")
	}
	if f.Type == TypeObject {
		fmt.Fprintf(&sb, "Load Addr:  $%04X\n", f.LoadAddr)
		fmt.Fprintf(&sb, "Exec Addr:  $%04X\n", f.ExecAddr)
	}
	fmt.Fprintf(&sb, "Data Len:   %d bytes", len(f.Data))
	return sb.String()
}

// paddedName returns the name space-padded and uppercased to n
// characters.
func paddedName(name string, n int) []byte {
	out := make([]byte, n)
	name = strings.ToUpper(name)
	for i := 0; i < n; i++ {
		if i < len(name) {
			out[i] = name[i]
		} else {
			out[i] = ' '
		}
	}
	return out
}

// writeAtomic writes data to path through a temporary file and rename,
// so a failed write leaves the target absent or unchanged.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("container write: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("container write: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("container write: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("container write: %w", err)
	}
	return nil
}

// WriteBinary writes the raw image bytes: the concatenation of the
// emitted code in address order with no header.
func WriteBinary(path string, data []byte) error {
	return writeAtomic(path, data)
}
