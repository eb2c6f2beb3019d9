// Copyright 2026 The go6809 Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"
)

//
// exprOp
//

type exprOp byte

const (
	// operators in descending order of precedence

	// unary operations
	opUnaryMinus exprOp = iota
	opUnaryPlus

	// binary operations
	opMultiply
	opDivide
	opAdd
	opSubtract

	// value "operations"
	opNumber
	opIdentifier

	// pseudo-operations (used only during parsing but not stored in expr's)
	opLeftParen
	opRightParen
)

type opdata struct {
	precedence      byte
	binary          bool
	leftAssociative bool
	symbol          string
	eval            func(a, b int32) int32
}

var ops = []opdata{
	// unary and binary operations
	{3, false, false, "-", func(a, b int32) int32 { return -a }},  // uminus
	{3, false, false, "+", func(a, b int32) int32 { return a }},   // uplus
	{2, true, true, "*", func(a, b int32) int32 { return a * b }}, // multiply
	{2, true, true, "/", func(a, b int32) int32 {
		if b == 0 {
			return 0
		}
		return a / b
	}}, // divide
	{1, true, true, "+", func(a, b int32) int32 { return a + b }}, // add
	{1, true, true, "-", func(a, b int32) int32 { return a - b }}, // subtract

	// value operations
	{0, false, false, "", nil}, // number
	{0, false, false, "", nil}, // identifier

	// pseudo-operations
	{0, false, false, "", nil}, // lparen
	{0, false, false, "", nil}, // rparen
}

func (op exprOp) isBinary() bool {
	return ops[op].binary
}

func (op exprOp) eval(a, b int32) int32 {
	return ops[op].eval(a, b)
}

func (op exprOp) symbol() string {
	return ops[op].symbol
}

func (op exprOp) isCollapsible() bool {
	return ops[op].precedence > 0
}

// Compare the precedence and associativity of 'op' to 'other'. Return
// true if the shunting yard algorithm should cause an expression node
// collapse.
func (op exprOp) collapses(other exprOp) bool {
	if ops[op].leftAssociative {
		return ops[op].precedence <= ops[other].precedence
	}
	return ops[op].precedence < ops[other].precedence
}

//
// expr
//

// An expr represents a single node in a binary expression tree. The
// root node represents an entire expression. Arithmetic is performed in
// 32-bit signed integers; the encoder truncates to the operand width.
type expr struct {
	line       fstring
	number     int32
	identifier fstring
	op         exprOp
	evaluated  bool
	child0     *expr
	child1     *expr
}

// Return the expression as a postfix notation string.
func (e *expr) String() string {
	switch {
	case e.op == opNumber:
		return fmt.Sprintf("%d", e.number)
	case e.op == opIdentifier:
		return e.identifier.str
	case e.op.isBinary():
		return fmt.Sprintf("%s %s %s", e.child0.String(), e.child1.String(), e.op.symbol())
	default:
		return fmt.Sprintf("%s [%s]", e.child0.String(), e.op.symbol())
	}
}

// Evaluate the expression tree against the symbol table. Returns true
// if every symbol reference resolved.
func (e *expr) eval(syms *symbolTable) bool {
	if !e.evaluated {
		switch {
		case e.op == opNumber:
			e.evaluated = true
		case e.op == opIdentifier:
			if sym, ok := syms.find(e.identifier.str); ok {
				e.number = int32(sym.Value)
				e.evaluated = true
			}
		case e.op.isBinary():
			e.child0.eval(syms)
			e.child1.eval(syms)
			if e.child0.evaluated && e.child1.evaluated {
				e.number = e.op.eval(e.child0.number, e.child1.number)
				e.evaluated = true
			}
		default:
			e.child0.eval(syms)
			if e.child0.evaluated {
				e.number = e.op.eval(e.child0.number, 0)
				e.evaluated = true
			}
		}
	}
	return e.evaluated
}

// firstUnresolved returns the identifier of the first symbol reference
// that failed to resolve, for diagnostics.
func (e *expr) firstUnresolved() (fstring, bool) {
	if e.evaluated {
		return fstring{}, false
	}
	switch {
	case e.op == opIdentifier:
		return e.identifier, true
	case e.op.isBinary():
		if id, ok := e.child0.firstUnresolved(); ok {
			return id, true
		}
		return e.child1.firstUnresolved()
	case e.child0 != nil:
		return e.child0.firstUnresolved()
	}
	return fstring{}, false
}

// Eval parses and evaluates an integer expression against an optional
// set of symbols. It is the entry point used by tools outside the
// assembler, such as the interactive shell.
func Eval(s string, syms []Symbol) (int32, error) {
	var st symbolTable
	for _, sym := range syms {
		if err := st.define(sym.Name, sym.Value, sym.Kind); err != nil {
			return 0, fmt.Errorf("duplicate symbol '%s'", sym.Name)
		}
	}

	var p exprParser
	e, _, err := p.parse(newFstring(0, 1, s))
	if err != nil {
		if len(p.errors) > 0 {
			return 0, fmt.Errorf("%s", p.errors[0].msg)
		}
		return 0, err
	}

	if !e.eval(&st) {
		id, _ := e.firstUnresolved()
		return 0, fmt.Errorf("unresolved symbol '%s'", id.str)
	}
	return e.number, nil
}

//
// token
//

type tokentype byte

const (
	tokenNil tokentype = iota
	tokenOp
	tokenNumber
	tokenIdentifier
	tokenLeftParen
	tokenRightParen
)

func (tt tokentype) isValue() bool {
	return tt == tokenNumber || tt == tokenIdentifier
}

type token struct {
	tt         tokentype
	number     int32
	identifier fstring
	op         exprOp
}

//
// exprParser
//

type exprParser struct {
	operandStack  exprStack
	operatorStack opStack
	parenCounter  int
	prevToken     token
	errors        []asmerror
}

// Parse an expression from the line until it is exhausted.
func (p *exprParser) parse(line fstring) (e *expr, out fstring, err error) {
	p.errors = nil
	p.prevToken = token{}
	orig := line

	// Process the expression using Dijkstra's shunting-yard algorithm.
	for err == nil {
		var token token
		token, out, err = p.parseToken(line)
		if err != nil {
			break
		}

		if token.tt == tokenNil {
			break
		}

		switch token.tt {

		case tokenNumber:
			p.operandStack.push(&expr{line: orig, op: opNumber, number: token.number, evaluated: true})

		case tokenIdentifier:
			p.operandStack.push(&expr{line: orig, op: opIdentifier, identifier: token.identifier})

		case tokenOp:
			for err == nil && !p.operatorStack.empty() && token.op.collapses(p.operatorStack.peek()) {
				err = p.operandStack.collapse(orig, p.operatorStack.pop())
				if err != nil {
					p.addError(line, "expression syntax error")
				}
			}
			p.operatorStack.push(token.op)

		case tokenLeftParen:
			p.operatorStack.push(opLeftParen)

		case tokenRightParen:
			for err == nil {
				if p.operatorStack.empty() {
					p.addError(line, "mismatched parentheses")
					err = errParse
					break
				}
				op := p.operatorStack.pop()
				if op == opLeftParen {
					break
				}
				err = p.operandStack.collapse(orig, op)
				if err != nil {
					p.addError(line, "expression syntax error")
				}
			}
		}
		line = out
	}

	// Collapse any operators (and operands) remaining on the stack.
	for err == nil && !p.operatorStack.empty() {
		err = p.operandStack.collapse(orig, p.operatorStack.pop())
		if err != nil {
			p.addError(line, "expression syntax error")
			err = errParse
		}
	}

	if err == nil {
		e = p.operandStack.peek()
		if e == nil {
			p.addError(orig, "missing expression")
			err = errParse
		}
	}
	p.reset()
	return
}

// Attempt to parse the next token from the line.
func (p *exprParser) parseToken(line fstring) (t token, out fstring, err error) {
	if line.isEmpty() {
		t.tt, out = tokenNil, line
		return
	}
	switch {

	case line.startsWith(decimal) || line.startsWithChar('$') ||
		line.startsWithChar('%') || line.startsWithChar('@') || line.startsWithChar('\''):
		t.number, out, err = p.parseNumber(line)
		t.tt = tokenNumber
		if p.prevToken.tt.isValue() || p.prevToken.tt == tokenRightParen {
			p.addError(line, "expression syntax error")
			err = errParse
		}

	case line.startsWithChar('('):
		p.parenCounter++
		t.tt, t.op = tokenLeftParen, opLeftParen
		out = line.consume(1)

	case line.startsWithChar(')'):
		if p.parenCounter == 0 {
			p.addError(line, "mismatched parentheses")
			err = errParse
			out = line.consume(1)
		} else {
			p.parenCounter--
			t.tt, t.op, out = tokenRightParen, opRightParen, line.consume(1)
		}

	case line.startsWith(labelStartChar):
		t.tt = tokenIdentifier
		t.identifier, out = line.consumeWhile(labelChar)
		if p.prevToken.tt.isValue() || p.prevToken.tt == tokenRightParen {
			p.addError(line, "expression syntax error")
			err = errParse
		}

	default:
		for i, o := range ops {
			if o.symbol != "" && line.startsWithChar(o.symbol[0]) {
				if o.binary || (!o.binary && !p.prevToken.tt.isValue() && p.prevToken.tt != tokenRightParen) {
					t.tt, t.op, out = tokenOp, exprOp(i), line.consume(1)
					break
				}
			}
		}
		if t.tt != tokenOp {
			p.addError(line, "bad expression character")
			err = errParse
		}
	}

	p.prevToken = t
	out = out.consumeWhitespace()
	return
}

// Parse a numeric literal from the line. The accepted formats:
//
//	[0-9]+          decimal
//	$[0-9a-fA-F]+   hexadecimal
//	%[01]+          binary
//	@[0-7]+         octal
//	'c              character literal
func (p *exprParser) parseNumber(line fstring) (value int32, remain fstring, err error) {
	if line.startsWithChar('\'') {
		line = line.consume(1)
		if line.isEmpty() {
			p.addError(line, "missing character literal")
			return 0, line, errParse
		}
		return int32(line.str[0]), line.consume(1), nil
	}

	base, fn := 10, decimal
	switch {
	case line.startsWithChar('$'):
		line = line.consume(1)
		base, fn = 16, hexadecimal
	case line.startsWithChar('%'):
		line = line.consume(1)
		base, fn = 2, binarynum
	case line.startsWithChar('@'):
		line = line.consume(1)
		base, fn = 8, octalnum
	}

	numstr, remain := line.consumeWhile(fn)
	num64, converr := strconv.ParseInt(numstr.str, base, 32)
	if converr != nil {
		p.addError(numstr, "failed to parse integer")
		err = errParse
	}
	value = int32(num64)
	return
}

func (p *exprParser) addError(line fstring, msg string) {
	p.errors = append(p.errors, asmerror{line, SyntaxError, msg})
}

func (p *exprParser) reset() {
	p.operandStack.data, p.operatorStack.data = nil, nil
	p.parenCounter = 0
}

//
// exprStack
//

type exprStack struct {
	data []*expr
}

func (s *exprStack) empty() bool {
	return len(s.data) == 0
}

func (s *exprStack) push(e *expr) {
	s.data = append(s.data, e)
}

func (s *exprStack) pop() *expr {
	l := len(s.data)
	e := s.data[l-1]
	s.data = s.data[:l-1]
	return e
}

func (s *exprStack) peek() *expr {
	if len(s.data) == 0 {
		return nil
	}
	return s.data[len(s.data)-1]
}

// Collapse one or more expression nodes on the top of the stack into a
// combined expression node, and push the combined node back onto the
// stack.
func (s *exprStack) collapse(line fstring, op exprOp) error {
	switch {
	case !op.isCollapsible():
		return errParse
	case op.isBinary():
		if len(s.data) < 2 {
			return errParse
		}
		child1, child0 := s.pop(), s.pop()
		s.push(&expr{line: line, op: op, child0: child0, child1: child1})
	default:
		if s.empty() {
			return errParse
		}
		s.push(&expr{line: line, op: op, child0: s.pop()})
	}
	return nil
}

//
// opStack
//

type opStack struct {
	data []exprOp
}

func (s *opStack) push(op exprOp) {
	s.data = append(s.data, op)
}

func (s *opStack) pop() exprOp {
	op := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return op
}

func (s *opStack) empty() bool {
	return len(s.data) == 0
}

func (s *opStack) peek() exprOp {
	return s.data[len(s.data)-1]
}
