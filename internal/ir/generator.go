package ir

import (
	"errors"
	"fmt"
	"strconv"

	"calru/internal/ast"
	"calru/internal/object"
	"calru/internal/token"
)

var ErrUnsupported = errors.New("not supported by the assembly backend")

func unsupported(pos token.Position, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", pos, fmt.Sprintf(format, args...), ErrUnsupported)
}

// Generator lowers statements to instructions. The result of an expression
// at nesting depth d lives in register Rd, so a binary operation computes
// its left side into Rd, its right side into Rd+1 and combines them into Rd.
type Generator struct {
	instructions []Instruction
	ints         map[string]bool
}

func NewGenerator() *Generator {
	return &Generator{ints: make(map[string]bool)}
}

// Generate lowers a whole program. Only Int declarations, assignments,
// prints and arithmetic are supported; anything else is reported with its
// position.
func Generate(program *ast.Program) ([]Instruction, error) {
	g := NewGenerator()
	for _, stmt := range program.Statements {
		if err := g.Statement(stmt); err != nil {
			return nil, err
		}
	}
	return g.Instructions(), nil
}

func (g *Generator) Instructions() []Instruction {
	return g.instructions
}

func (g *Generator) emit(i Instruction) {
	g.instructions = append(g.instructions, i)
}

func (g *Generator) Statement(stmt ast.Statement) error {
	switch stmt := stmt.(type) {
	case *ast.AssignStatement:
		name := stmt.Name.Value
		if IsRegister(name) {
			return unsupported(stmt.Pos(), "variable name '%s' collides with a register", name)
		}
		if stmt.Declare {
			if !stmt.Type.Equal(object.IntType) {
				return unsupported(stmt.Pos(), "cannot lower '%s' of type %s, only Int is supported", name, stmt.Type)
			}
			g.ints[name] = true
		} else if !g.ints[name] {
			return unsupported(stmt.Pos(), "cannot lower assignment to '%s': not an Int variable", name)
		}
		if err := g.expression(stmt.Value, 0); err != nil {
			return err
		}
		g.emit(Mov(name, Register(0)))
		return nil

	case *ast.PrintStatement:
		if err := g.expression(stmt.Value, 0); err != nil {
			return err
		}
		g.emit(Print(Register(0)))
		return nil
	}

	return unsupported(stmt.Pos(), "cannot lower %s statements", stmt.TokenLiteral())
}

func (g *Generator) expression(expr ast.Expression, depth int) error {
	if depth >= NumRegisters {
		return unsupported(expr.Pos(), "expression nests deeper than %d registers", NumRegisters)
	}
	dest := Register(depth)

	switch expr := expr.(type) {
	case *ast.IntegerLiteral:
		g.emit(Mov(dest, strconv.FormatInt(expr.Value, 10)))
		return nil

	case *ast.Identifier:
		if !g.ints[expr.Value] {
			return unsupported(expr.Pos(), "cannot lower '%s': not an Int variable", expr.Value)
		}
		g.emit(Mov(dest, expr.Value))
		return nil

	case *ast.BinaryExpression:
		var op func(string, string) Instruction
		switch expr.Operator {
		case "+":
			op = Add
		case "-":
			op = Sub
		case "*":
			op = Mul
		case "/":
			op = Div
		default:
			return unsupported(expr.Pos(), "cannot lower operator %s", expr.Operator)
		}
		if err := g.expression(expr.Left, depth); err != nil {
			return err
		}
		if err := g.expression(expr.Right, depth+1); err != nil {
			return err
		}
		g.emit(op(dest, Register(depth+1)))
		return nil
	}

	return unsupported(expr.Pos(), "cannot lower expression %s", expr)
}
