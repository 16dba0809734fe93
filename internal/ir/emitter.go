package ir

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Virtual registers map onto r8..r15. rax, rbx, rcx, rdx, rsi and rdi stay
// free for division, printing and system calls.
var physical = [NumRegisters]string{"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}

const msgBufSize = 32

// printInt writes the signed integer in rax followed by a newline to stdout.
// syscall clobbers rcx and r11, and r11 backs R3, so it is saved around the
// write.
const printInt = `print_int:
    lea rsi, [rel msg_buf + %d]
    mov byte [rsi], 10
    mov rcx, 1
    xor rdi, rdi
    test rax, rax
    jns .digits
    neg rax
    mov rdi, 1
.digits:
    mov rbx, 10
.next_digit:
    xor rdx, rdx
    div rbx
    add dl, '0'
    dec rsi
    mov [rsi], dl
    inc rcx
    test rax, rax
    jnz .next_digit
    test rdi, rdi
    jz .write
    dec rsi
    mov byte [rsi], '-'
    inc rcx
.write:
    push r11
    mov rax, 1
    mov rdi, 1
    mov rdx, rcx
    syscall
    pop r11
    ret
`

type emitter struct {
	w        *bufio.Writer
	slots    []string          // distinct non-register operands in first-use order
	labels   map[string]string // operand -> data label
	literals int
}

// Emit writes instrs as a NASM x86-64 program: a .data section with one
// 8-byte slot per distinct non-register operand plus the print buffer, a
// .text section entered at _start, and an exit system call.
func Emit(out io.Writer, instrs []Instruction) error {
	e := &emitter{
		w:      bufio.NewWriter(out),
		labels: make(map[string]string),
	}

	for _, in := range instrs {
		for _, operand := range []string{in.Dest, in.Src, in.Operand} {
			if err := e.collect(operand); err != nil {
				return err
			}
		}
	}

	e.line("; generated by calru")
	e.line("global _start")
	e.line("")
	e.line("section .data")
	for _, operand := range e.slots {
		value := "0"
		if isLiteral(operand) {
			value = operand
		}
		e.line("    %s: dq %s", e.labels[operand], value)
	}
	e.line("    msg_buf: times %d db 0", msgBufSize)
	e.line("")
	e.line("section .text")
	e.line("_start:")

	for _, in := range instrs {
		e.line("    ; %s", in)
		if err := e.instruction(in); err != nil {
			return err
		}
	}

	e.line("    mov rax, 60")
	e.line("    xor rdi, rdi")
	e.line("    syscall")
	e.line("")
	fmt.Fprintf(e.w, printInt, msgBufSize-1)

	return e.w.Flush()
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(e.w, format, args...)
	e.w.WriteByte('\n')
}

func (e *emitter) collect(operand string) error {
	if operand == "" || IsRegister(operand) {
		return nil
	}
	if _, seen := e.labels[operand]; seen {
		return nil
	}
	var label string
	switch {
	case isLiteral(operand):
		label = fmt.Sprintf("lit_%d", e.literals)
		e.literals++
	case isIdentifier(operand):
		label = "var_" + operand
	default:
		return fmt.Errorf("invalid operand %q", operand)
	}
	e.labels[operand] = label
	e.slots = append(e.slots, operand)
	return nil
}

// operand renders a register or a memory reference to its data slot.
func (e *emitter) operand(op string) string {
	if n, ok := registerIndex(op); ok {
		return physical[n]
	}
	return "qword [rel " + e.labels[op] + "]"
}

func (e *emitter) instruction(in Instruction) error {
	switch {
	case in.Op == PRINT && in.Operand == "":
		return fmt.Errorf("%s: missing operand", in)
	case in.Op != PRINT && (in.Dest == "" || in.Src == ""):
		return fmt.Errorf("%s: missing operand", in)
	case in.Op != PRINT && isLiteral(in.Dest):
		return fmt.Errorf("%s: destination cannot be a literal", in)
	}

	switch in.Op {
	case MOV:
		d, s := e.operand(in.Dest), e.operand(in.Src)
		if isMemory(d) && isMemory(s) {
			e.line("    mov rax, %s", s)
			e.line("    mov %s, rax", d)
			return nil
		}
		e.line("    mov %s, %s", d, s)

	case ADD, SUB:
		mnemonic := strings.ToLower(in.Op.String())
		d, s := e.operand(in.Dest), e.operand(in.Src)
		if isMemory(d) && isMemory(s) {
			e.line("    mov rax, %s", s)
			s = "rax"
		}
		e.line("    %s %s, %s", mnemonic, d, s)

	case MUL:
		d, s := e.operand(in.Dest), e.operand(in.Src)
		if isMemory(d) {
			e.line("    mov rax, %s", d)
			e.line("    imul rax, %s", s)
			e.line("    mov %s, rax", d)
			return nil
		}
		e.line("    imul %s, %s", d, s)

	case DIV:
		d, s := e.operand(in.Dest), e.operand(in.Src)
		e.line("    mov rax, %s", d)
		e.line("    cqo")
		e.line("    idiv %s", s)
		e.line("    mov %s, rax", d)

	case PRINT:
		e.line("    mov rax, %s", e.operand(in.Operand))
		e.line("    call print_int")

	default:
		return fmt.Errorf("unknown opcode %s", in.Op)
	}
	return nil
}

func isMemory(rendered string) bool {
	return strings.HasPrefix(rendered, "qword")
}

func isLiteral(operand string) bool {
	_, err := strconv.ParseInt(operand, 10, 64)
	return err == nil
}

func isIdentifier(operand string) bool {
	for i, c := range operand {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return operand != ""
}
