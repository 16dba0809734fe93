package evaluator

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"calru/internal/ast"
	"calru/internal/diag"
	"calru/internal/object"
	"calru/internal/token"
)

// Outcome is the control result of executing a statement. Failures are
// reported through the error return, never as an Outcome.
type Outcome int

const (
	Completed Outcome = iota
	BrokeOut
)

func (o Outcome) String() string {
	if o == BrokeOut {
		return "broke-out"
	}
	return "completed"
}

type Option func(*Interpreter)

// WithOutput redirects stdout(...) statements; the default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// Interpreter executes parsed statements against the environment the parser
// populated.
type Interpreter struct {
	env *object.Environment
	out io.Writer
}

func New(env *object.Environment, opts ...Option) *Interpreter {
	in := &Interpreter{env: env, out: os.Stdout}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func (in *Interpreter) Environment() *object.Environment {
	return in.env
}

// Run executes every top-level statement in order and stops at the first
// failure. A break that escapes to the top level is a runtime error.
func (in *Interpreter) Run(program *ast.Program) error {
	for _, stmt := range program.Statements {
		outcome, err := in.Exec(stmt)
		if err != nil {
			return err
		}
		if outcome == BrokeOut {
			return diag.Runtimef(stmt.Pos(), "break outside of a loop")
		}
	}
	return nil
}

func (in *Interpreter) Exec(stmt ast.Statement) (Outcome, error) {
	switch stmt := stmt.(type) {

	case *ast.AssignStatement:
		return Completed, in.execAssign(stmt)

	case *ast.PrintStatement:
		val, err := Eval(stmt.Value, in.env)
		if err != nil {
			return Completed, err
		}
		if _, err := fmt.Fprintln(in.out, val.Inspect()); err != nil {
			return Completed, diag.Wrap(diag.Runtime, stmt.Pos(), err)
		}
		return Completed, nil

	case *ast.IfStatement:
		return in.execIf(stmt)

	case *ast.LoopStatement:
		return in.execLoop(stmt)

	case *ast.BreakStatement:
		return BrokeOut, nil

	case *ast.BlockStatement:
		return in.execBlock(stmt)

	case *ast.PushStatement:
		val, err := Eval(stmt.Value, in.env)
		if err != nil {
			return Completed, err
		}
		if err := in.env.PushToList(stmt.List.Value, val); err != nil {
			return Completed, diag.Wrap(diag.Runtime, stmt.Pos(), err)
		}
		return Completed, nil

	case *ast.PopStatement:
		if _, err := in.env.PopFromList(stmt.List.Value); err != nil {
			return Completed, diag.Wrap(diag.Runtime, stmt.Pos(), err)
		}
		return Completed, nil

	case nil:
		return Completed, diag.Runtimef(token.Position{}, "missing statement")
	}

	return Completed, diag.Runtimef(stmt.Pos(), "cannot execute %T", stmt)
}

func (in *Interpreter) execAssign(stmt *ast.AssignStatement) error {
	val, err := Eval(stmt.Value, in.env)
	if err != nil {
		return err
	}

	if !stmt.Declare {
		if err := in.env.Assign(stmt.Name.Value, val); err != nil {
			return diag.Wrap(diag.Runtime, stmt.Pos(), err)
		}
		return nil
	}

	if !stmt.Type.Equal(val.Type()) {
		return diag.Runtimef(stmt.Pos(), "cannot assign %s to '%s' declared as %s", val.Type(), stmt.Name.Value, stmt.Type)
	}
	// The parser already declared top-level names; Bind updates those and
	// declares names whose scope is only entered at run time.
	if err := in.env.Bind(stmt.Name.Value, stmt.Type, val); err != nil {
		return diag.Wrap(diag.Runtime, stmt.Pos(), err)
	}
	return nil
}

func (in *Interpreter) execIf(stmt *ast.IfStatement) (Outcome, error) {
	cond, err := Eval(stmt.Condition, in.env)
	if err != nil {
		return Completed, err
	}
	b, ok := cond.(object.Boolean)
	if !ok {
		return Completed, diag.Runtimef(stmt.Condition.Pos(), "condition must be Boolean, got %s", cond.Type())
	}

	switch {
	case b.Value:
		return in.execBlock(stmt.Consequence)
	case stmt.Alternative != nil:
		return in.execBlock(stmt.Alternative)
	}
	return Completed, nil
}

// execLoop runs the body in a fresh scope per iteration until it breaks out.
func (in *Interpreter) execLoop(stmt *ast.LoopStatement) (Outcome, error) {
	for iteration := 1; ; iteration++ {
		outcome, err := in.execBlock(stmt.Body)
		if err != nil {
			return Completed, err
		}
		if outcome == BrokeOut {
			slog.Debug("loop exited", slog.Int("iterations", iteration))
			return Completed, nil
		}
	}
}

func (in *Interpreter) execBlock(block *ast.BlockStatement) (outcome Outcome, err error) {
	in.env.EnterScope()
	defer func() {
		if exitErr := in.env.ExitScope(); exitErr != nil && err == nil {
			err = diag.Wrap(diag.Runtime, block.Pos(), exitErr)
		}
	}()

	for _, s := range block.Statements {
		outcome, err = in.Exec(s)
		if err != nil || outcome == BrokeOut {
			return outcome, err
		}
	}
	return Completed, nil
}
