// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

type settings struct {
	HexMode      bool `doc:"hexadecimal input mode"`
	Verbose      bool `doc:"verbose assembler output"`
	MemDumpBytes int  `doc:"default number of memory bytes to dump"`
	DisasmLines  int  `doc:"default number of lines to disassemble"`
	ListLines    int  `doc:"default number of listing lines to display"`
}

func newSettings() *settings {
	return &settings{
		HexMode:      false,
		Verbose:      false,
		MemDumpBytes: 64,
		DisasmLines:  10,
		ListLines:    16,
	}
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	settingsType := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, settingsType.NumField())
	for i := 0; i < len(settingsFields); i++ {
		f := settingsType.Field(i)
		doc, _ := f.Tag.Lookup("doc")
		settingsFields[i] = settingsField{
			name:  f.Name,
			index: i,
			kind:  f.Type.Kind(),
			typ:   f.Type,
			doc:   doc,
		}
		settingsTree.Add(strings.ToLower(f.Name), &settingsFields[i])
	}
}

func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for i, f := range settingsFields {
		v := value.Field(i)
		line := fmt.Sprintf("    %-16s %v", f.name, v)
		fmt.Fprintf(w, "%-28s (%s)\n", line, f.doc)
	}
}

func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.kind
}

func (s *settings) Set(key string, value any) error {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return err
	}

	vIn := reflect.ValueOf(value)
	if !vIn.Type().ConvertibleTo(f.typ) {
		return errors.New("invalid type")
	}

	vOut := reflect.ValueOf(s).Elem().Field(f.index).Addr().Elem()
	vOut.Set(vIn.Convert(f.typ))
	return nil
}
