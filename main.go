// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cocotools/go6809/asm"
	"github.com/cocotools/go6809/container"
	"github.com/cocotools/go6809/host"
)

var (
	printListing bool
	printSymbols bool
	toBin        string
	toCas        string
	toDsk        string
	name         string
	appendFile   bool
	interactive  bool
	verbose      bool
)

func init() {
	flag.BoolVar(&printListing, "print", false, "print the assembled statements when finished")
	flag.BoolVar(&printSymbols, "symbols", false, "print the symbol table")
	flag.StringVar(&toBin, "to_bin", "", "store the assembled program in a raw binary file")
	flag.StringVar(&toCas, "to_cas", "", "store the assembled program in a cassette image")
	flag.StringVar(&toDsk, "to_dsk", "", "store the assembled program in a disk image")
	flag.StringVar(&name, "name", "", "the name of the file to create on the cassette or disk image")
	flag.BoolVar(&appendFile, "append", false, "append to an existing cassette or disk image")
	flag.BoolVar(&interactive, "i", false, "start an interactive shell")
	flag.BoolVar(&verbose, "v", false, "verbose assembler output")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: go6809 [options] <file.asm>\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if interactive {
		h := host.New()
		h.RunCommands(os.Stdin, os.Stdout, true)
		return
	}

	if flag.NArg() != 1 {
		flag.CommandLine.Usage()
		os.Exit(2)
	}

	var options asm.Option
	if verbose {
		options |= asm.Verbose
	}

	assembly, err := asm.AssembleFile(flag.Arg(0), options, os.Stdout)
	if assembly != nil {
		for _, w := range assembly.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		for _, e := range assembly.Errors {
			fmt.Fprintln(os.Stderr, e)
		}
	}
	if err != nil {
		if assembly == nil || len(assembly.Errors) == 0 {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if printSymbols {
		fmt.Println("-- Symbol Table --")
		for _, sym := range assembly.Symbols {
			fmt.Println(asm.SymbolLine(sym))
		}
	}

	if printListing {
		fmt.Println("-- Assembled Statements --")
		for _, r := range assembly.Records {
			fmt.Println(r.String())
		}
	}

	if toBin != "" {
		if err := container.WriteBinary(toBin, assembly.Code()); err != nil {
			exitOnError(err)
		}
	}

	if toCas != "" {
		if err := writeCassette(assembly); err != nil {
			exitOnError(err)
		}
	}

	if toDsk != "" {
		if err := writeDisk(assembly); err != nil {
			exitOnError(err)
		}
	}
}

// programFile wraps the assembled image as a container file. The name
// comes from --name, falling back to the source's NAM directive.
func programFile(assembly *asm.Assembly) (*container.File, error) {
	fileName := name
	if fileName == "" {
		fileName = assembly.Name
	}
	if fileName == "" {
		return nil, fmt.Errorf("no program name: use --name or a NAM directive")
	}
	return &container.File{
		Name:     fileName,
		Ext:      "BIN",
		Type:     container.TypeObject,
		ASCII:    container.DataBinary,
		LoadAddr: assembly.Origin,
		ExecAddr: assembly.ExecAddr,
		Data:     assembly.Code(),
	}, nil
}

func writeCassette(assembly *asm.Assembly) error {
	f, err := programFile(assembly)
	if err != nil {
		return err
	}

	cas := container.NewCassette()
	switch _, statErr := os.Stat(toCas); {
	case statErr == nil && !appendFile:
		return fmt.Errorf("'%s' exists: use --append to add to it", toCas)
	case statErr == nil:
		if cas, err = container.LoadCassette(toCas); err != nil {
			return err
		}
	}

	cas.AddFile(f)
	return cas.Save(toCas)
}

func writeDisk(assembly *asm.Assembly) error {
	f, err := programFile(assembly)
	if err != nil {
		return err
	}

	dsk := container.NewDisk()
	switch _, statErr := os.Stat(toDsk); {
	case statErr == nil && !appendFile:
		return fmt.Errorf("'%s' exists: use --append to add to it", toDsk)
	case statErr == nil:
		if dsk, err = container.LoadDisk(toDsk); err != nil {
			return err
		}
	}

	if err = dsk.AddFile(f); err != nil {
		return err
	}
	return dsk.Save(toDsk)
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
