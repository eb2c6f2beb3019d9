// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package container

import (
	"fmt"
	"os"
)

// Cassette block framing.
const (
	casLeaderByte = 0x55
	casLeaderLen  = 128
	casSyncByte   = 0x3C

	casBlockName byte = 0x00
	casBlockData byte = 0x01
	casBlockEOF  byte = 0xFF

	casMaxData = 255
)

// A Cassette is a sequential cassette image: a stream of blocks, each
// framed as leader, sync, type, length, payload, checksum. A stored
// file is a namefile block, one or more data blocks, and an EOF block.
type Cassette struct {
	buf []byte
}

// NewCassette returns an empty cassette image.
func NewCassette() *Cassette {
	return &Cassette{}
}

// LoadCassette reads an existing cassette image from disk.
func LoadCassette(path string) (*Cassette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cassette read: %w", err)
	}
	return &Cassette{buf: data}, nil
}

// Bytes returns the raw image.
func (c *Cassette) Bytes() []byte {
	return c.buf
}

// Save writes the image to disk atomically.
func (c *Cassette) Save(path string) error {
	return writeAtomic(path, c.buf)
}

// appendBlock frames and appends a single block. The checksum is the
// sum of the type, length and payload bytes, modulo 256.
func (c *Cassette) appendBlock(typ byte, payload []byte) {
	for i := 0; i < casLeaderLen; i++ {
		c.buf = append(c.buf, casLeaderByte)
	}
	c.buf = append(c.buf, casSyncByte, typ, byte(len(payload)))
	checksum := typ + byte(len(payload))
	for _, b := range payload {
		c.buf = append(c.buf, b)
		checksum += b
	}
	c.buf = append(c.buf, checksum)
}

// AddFile appends a file to the cassette as a namefile block, data
// blocks of up to 255 bytes, and an EOF block.
func (c *Cassette) AddFile(f *File) {
	payload := make([]byte, 0, 15)
	payload = append(payload, paddedName(f.Name, 8)...)
	payload = append(payload,
		byte(f.Type), f.ASCII, f.Gaps,
		byte(f.ExecAddr>>8), byte(f.ExecAddr),
		byte(f.LoadAddr>>8), byte(f.LoadAddr))
	c.appendBlock(casBlockName, payload)

	for data := f.Data; len(data) > 0; {
		n := len(data)
		if n > casMaxData {
			n = casMaxData
		}
		c.appendBlock(casBlockData, data[:n])
		data = data[n:]
	}

	c.appendBlock(casBlockEOF, nil)
}

// skipToSync scans forward for a leader byte followed by the sync
// byte, returning the offset just past the sync, or -1.
func (c *Cassette) skipToSync(from int) int {
	for i := from; i+1 < len(c.buf); i++ {
		if c.buf[i] == casLeaderByte && c.buf[i+1] == casSyncByte {
			return i + 2
		}
	}
	return -1
}

// readBlock reads and verifies the block at p (which points just past
// the sync byte). Returns the block type, payload, and the offset past
// the block.
func (c *Cassette) readBlock(p int) (typ byte, payload []byte, next int, err error) {
	if p+2 > len(c.buf) {
		return 0, nil, 0, fmt.Errorf("cassette: truncated block header")
	}
	typ = c.buf[p]
	length := int(c.buf[p+1])
	p += 2
	if p+length+1 > len(c.buf) {
		return 0, nil, 0, fmt.Errorf("cassette: truncated block payload")
	}
	payload = c.buf[p : p+length]

	checksum := typ + byte(length)
	for _, b := range payload {
		checksum += b
	}
	if checksum != c.buf[p+length] {
		return 0, nil, 0, fmt.Errorf("cassette: bad block checksum")
	}
	return typ, payload, p + length + 1, nil
}

// Files parses the cassette and returns every stored file.
func (c *Cassette) Files() ([]File, error) {
	var files []File
	p := 0
	for {
		p = c.skipToSync(p)
		if p < 0 {
			return files, nil
		}

		typ, payload, next, err := c.readBlock(p)
		if err != nil {
			return files, err
		}
		p = next
		if typ != casBlockName {
			continue
		}
		if len(payload) < 15 {
			return files, fmt.Errorf("cassette: short namefile block")
		}

		f := File{
			Name:     trimName(payload[:8]),
			Ext:      "BIN",
			Type:     FileType(payload[8]),
			ASCII:    payload[9],
			Gaps:     payload[10],
			ExecAddr: uint16(payload[11])<<8 | uint16(payload[12]),
			LoadAddr: uint16(payload[13])<<8 | uint16(payload[14]),
		}
		if f.Type == TypeBASIC {
			f.Ext = "BAS"
		}

		// Consume data blocks through the EOF marker.
		for {
			p = c.skipToSync(p)
			if p < 0 {
				return files, fmt.Errorf("cassette: missing EOF block for '%s'", f.Name)
			}
			typ, payload, next, err = c.readBlock(p)
			if err != nil {
				return files, err
			}
			p = next
			if typ == casBlockEOF {
				break
			}
			if typ != casBlockData {
				return files, fmt.Errorf("cassette: unexpected block type $%02X", typ)
			}
			f.Data = append(f.Data, payload...)
		}

		files = append(files, f)
	}
}

func trimName(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}
