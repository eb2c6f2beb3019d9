// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host provides an interactive shell around the 6809
// assembler: assemble files, inspect symbols and listings, dump and
// disassemble the assembled image, and list the contents of cassette
// and disk containers.
package host

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/cmd"

	"github.com/cocotools/go6809/asm"
	"github.com/cocotools/go6809/container"
	"github.com/cocotools/go6809/disasm"
)

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "go6809"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "assemble",
		Brief: "Assemble a source file",
		Description: "Run the assembler on the specified file. The" +
			" assembled image is kept in memory for the dump, unassemble," +
			" listing and symbols commands.",
		Usage: "assemble <filename>",
		Data:  (*Host).cmdAssemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "symbols",
		Brief:       "Display the symbol table",
		Description: "Display the symbol table of the last assembly.",
		Usage:       "symbols",
		Data:        (*Host).cmdSymbols,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "listing",
		Brief:       "Display listing lines",
		Description: "Display annotated listing records from the last assembly.",
		Usage:       "listing [<first> [<count>]]",
		Data:        (*Host).cmdListing,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory at address",
		Description: "Dump the contents of the assembled image starting" +
			" from the specified address. The number of bytes to dump may" +
			" be specified as an option.",
		Usage: "dump <address> [<bytes>]",
		Data:  (*Host).cmdDump,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "unassemble",
		Brief: "Disassemble memory at address",
		Description: "Disassemble the contents of the assembled image" +
			" starting from the specified address. The number of" +
			" instructions may be specified as an option.",
		Usage: "unassemble <address> [<count>]",
		Data:  (*Host).cmdUnassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "eval",
		Brief:       "Evaluate an expression",
		Description: "Evaluate a mathematical expression. Symbols from the last assembly may be used.",
		Usage:       "eval <expression>",
		Data:        (*Host).cmdEval,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "files",
		Brief: "List the files in a container",
		Description: "Parse a cassette (.cas) or disk (.dsk) image and" +
			" display the name, type and addresses of every file stored in it.",
		Usage: "files <filename>",
		Data:  (*Host).cmdFiles,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. Type the" +
			" set command without arguments to display current values.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})

	cmds = root
}

// A Host holds the shell's state: the most recent assembly and the
// 64K image built from it.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *cmd.Selection
	settings    *settings
	assembly    *asm.Assembly
	mem         [0x10000]byte
}

// New creates a new shell host.
func New() *Host {
	return &Host{
		settings: newSettings(),
	}
}

// RunCommands accepts commands from a reader and writes results to a
// writer. If interactive, a prompt is displayed while the host waits
// for the next command.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.Command.Data.(func(*Host, cmd.Selection) error)
		err = handler(h, c)
		if err != nil {
			break
		}
	}

	h.flush()
}

func (h *Host) getLine() (string, error) {
	if !h.input.Scan() {
		return "", io.EOF
	}
	return strings.TrimSpace(h.input.Text()), nil
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

// parseAddr interprets a numeric argument: $ or 0x prefix for hex, a
// bare number per the HexMode setting, or a symbol from the last
// assembly.
func (h *Host) parseAddr(s string) (int, error) {
	if h.assembly != nil {
		for _, sym := range h.assembly.Symbols {
			if strings.EqualFold(sym.Name, s) {
				return int(sym.Value), nil
			}
		}
	}

	base := 10
	if h.settings.HexMode {
		base = 16
	}
	switch {
	case strings.HasPrefix(s, "$"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address '%s'", s)
	}
	return int(v), nil
}

//
// command handlers
//

var helpLines = [][2]string{
	{"assemble <file>", "Assemble a source file"},
	{"symbols", "Display the symbol table"},
	{"listing [first [count]]", "Display listing lines"},
	{"dump <addr> [bytes]", "Dump memory at address"},
	{"unassemble <addr> [count]", "Disassemble memory at address"},
	{"eval <expression>", "Evaluate an expression"},
	{"files <file>", "List the files in a container"},
	{"set [var value]", "Set a configuration variable"},
	{"quit", "Quit the program"},
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	h.println("Commands:")
	for _, l := range helpLines {
		h.printf("    %-28s %s\n", l[0], l[1])
	}
	return nil
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.println("Usage: assemble <filename>")
		return nil
	}
	filename := c.Args[0]

	var options asm.Option
	if h.settings.Verbose {
		options |= asm.Verbose
	}

	assembly, err := asm.AssembleFile(filename, options, h.output)
	if assembly != nil {
		for _, w := range assembly.Warnings {
			h.printf("warning: %s\n", w)
		}
		for _, e := range assembly.Errors {
			h.println(e)
		}
	}
	if err != nil {
		h.printf("Failed to assemble '%s'.\n", filepath.Base(filename))
		return nil
	}

	h.assembly = assembly
	for i := range h.mem {
		h.mem[i] = 0
	}
	for _, seg := range assembly.Segments {
		copy(h.mem[seg.Addr:], seg.Data)
	}

	h.printf("Assembled '%s': origin $%04X, exec $%04X, %d byte(s).\n",
		filepath.Base(filename), assembly.Origin, assembly.ExecAddr, len(assembly.Code()))
	return nil
}

func (h *Host) cmdSymbols(c cmd.Selection) error {
	if h.assembly == nil {
		h.println("Nothing assembled yet.")
		return nil
	}
	for _, sym := range h.assembly.Symbols {
		h.println(asm.SymbolLine(sym))
	}
	return nil
}

func (h *Host) cmdListing(c cmd.Selection) error {
	if h.assembly == nil {
		h.println("Nothing assembled yet.")
		return nil
	}

	first, count := 0, h.settings.ListLines
	var err error
	if len(c.Args) > 0 {
		if first, err = strconv.Atoi(c.Args[0]); err != nil || first < 1 {
			h.printf("Bad line number '%s'.\n", c.Args[0])
			return nil
		}
		first--
	}
	if len(c.Args) > 1 {
		if count, err = strconv.Atoi(c.Args[1]); err != nil {
			h.printf("Bad count '%s'.\n", c.Args[1])
			return nil
		}
	}

	records := h.assembly.Records
	for i := first; i < len(records) && i < first+count; i++ {
		h.println(records[i].String())
	}
	return nil
}

func (h *Host) cmdDump(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.println("Usage: dump <address> [<bytes>]")
		return nil
	}
	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.println(err.Error())
		return nil
	}

	bytes := h.settings.MemDumpBytes
	if len(c.Args) >= 2 {
		if bytes, err = h.parseAddr(c.Args[1]); err != nil {
			h.println(err.Error())
			return nil
		}
	}

	for i := 0; i < bytes; i += 8 {
		h.printf("%04X-", addr+i)
		for j := 0; j < 8 && i+j < bytes; j++ {
			h.printf(" %02X", h.mem[(addr+i+j)&0xFFFF])
		}
		h.println()
	}
	return nil
}

func (h *Host) cmdUnassemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.println("Usage: unassemble <address> [<count>]")
		return nil
	}
	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.println(err.Error())
		return nil
	}

	count := h.settings.DisasmLines
	if len(c.Args) >= 2 {
		if count, err = strconv.Atoi(c.Args[1]); err != nil {
			h.printf("Bad count '%s'.\n", c.Args[1])
			return nil
		}
	}

	for i := 0; i < count; i++ {
		line, length := disasm.Disassemble(h.mem[addr&0xFFFF:], uint16(addr))
		if length == 0 {
			break
		}
		h.printf("%04X-  %s\n", addr, line)
		addr += length
	}
	return nil
}

func (h *Host) cmdEval(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.println("Usage: eval <expression>")
		return nil
	}

	var syms []asm.Symbol
	if h.assembly != nil {
		syms = h.assembly.Symbols
	}

	v, err := asm.Eval(strings.Join(c.Args, " "), syms)
	if err != nil {
		h.printf("Unable to evaluate: %v\n", err)
		return nil
	}

	h.printf("$%04X (%d)\n", uint16(v), v)
	return nil
}

func (h *Host) cmdFiles(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.println("Usage: files <filename>")
		return nil
	}
	filename := c.Args[0]

	var files []container.File
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".dsk":
		var d *container.Disk
		if d, err = container.LoadDisk(filename); err == nil {
			files, err = d.Files()
		}
	default:
		var cas *container.Cassette
		if cas, err = container.LoadCassette(filename); err == nil {
			files, err = cas.Files()
		}
	}
	if err != nil {
		h.println(err.Error())
		return nil
	}

	if len(files) == 0 {
		h.println("No files found.")
		return nil
	}
	for i := range files {
		h.println("--------------------")
		h.println(files[i].String())
	}
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()
	case 2:
		key, value := c.Args[0], c.Args[1]

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("unknown variable '%s'", key)
		case reflect.Bool:
			var b bool
			if b, err = strconv.ParseBool(value); err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			var n int
			if n, err = h.parseAddr(value); err == nil {
				err = h.settings.Set(key, n)
			}
		}
		if err != nil {
			h.printf("Unable to set: %v\n", err)
		}
	default:
		h.println("Usage: set [<var> <value>]")
	}
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return io.EOF
}
