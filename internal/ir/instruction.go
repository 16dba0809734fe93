// Package ir lowers integer-only programs to a flat register instruction
// list and writes that list out as NASM x86-64 assembly.
package ir

import "fmt"

type Opcode int

const (
	MOV Opcode = iota
	ADD
	SUB
	MUL
	DIV
	PRINT
)

var opcodeNames = [...]string{"MOV", "ADD", "SUB", "MUL", "DIV", "PRINT"}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("Opcode(%d)", int(o))
}

// Instruction is either a two-operand op (Dest, Src) or PRINT of Operand.
// Operands are virtual register names (R0..R7), variable names or integer
// literal text.
type Instruction struct {
	Op      Opcode
	Dest    string
	Src     string
	Operand string
}

func Mov(dest, src string) Instruction { return Instruction{Op: MOV, Dest: dest, Src: src} }
func Add(dest, src string) Instruction { return Instruction{Op: ADD, Dest: dest, Src: src} }
func Sub(dest, src string) Instruction { return Instruction{Op: SUB, Dest: dest, Src: src} }
func Mul(dest, src string) Instruction { return Instruction{Op: MUL, Dest: dest, Src: src} }
func Div(dest, src string) Instruction { return Instruction{Op: DIV, Dest: dest, Src: src} }
func Print(operand string) Instruction { return Instruction{Op: PRINT, Operand: operand} }

func (i Instruction) String() string {
	if i.Op == PRINT {
		return "PRINT " + i.Operand
	}
	return fmt.Sprintf("%s %s, %s", i.Op, i.Dest, i.Src)
}

// NumRegisters is the number of virtual registers; expression nesting
// deeper than this cannot be lowered.
const NumRegisters = 8

func Register(n int) string {
	return fmt.Sprintf("R%d", n)
}

// IsRegister reports whether operand names a virtual register.
func IsRegister(operand string) bool {
	_, ok := registerIndex(operand)
	return ok
}

func registerIndex(operand string) (int, bool) {
	var n int
	if len(operand) < 2 || operand[0] != 'R' {
		return 0, false
	}
	for _, c := range operand[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, n < NumRegisters
}
