// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

var hex = "0123456789ABCDEF"

// Return a big-endian representation of the value using the requested
// number of bytes. The 6809 is a big-endian machine.
func toBytes(bytes, value int) []byte {
	switch bytes {
	case 1:
		return []byte{byte(value)}
	default:
		return []byte{byte(value >> 8), byte(value)}
	}
}

// Return a hexadecimal string representation of a byte slice.
func byteString(b []byte) string {
	if len(b) < 1 {
		return ""
	}

	s := make([]byte, len(b)*3-1)
	i, j := 0, 0
	for n := len(b) - 1; i < n; i, j = i+1, j+3 {
		s[j+0] = hex[(b[i] >> 4)]
		s[j+1] = hex[(b[i] & 0x0f)]
		s[j+2] = ' '
	}
	s[j+0] = hex[(b[i] >> 4)]
	s[j+1] = hex[(b[i] & 0x0f)]
	return string(s)
}
