package repl

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"calru/internal/diag"
	"calru/internal/object"
)

func TestSessionKeepsBindings(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	lines := []string{
		"let x:int := 2;",
		"let L:[int] := [x];",
		"x := x * 10;",
		"L.push(x);",
		"stdout(L);",
		"stdout(x + L.len());",
	}
	for _, line := range lines {
		if err := s.Eval(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	if out.String() != "[2, 20]\n22\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSessionRecoversFromErrors(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	if err := s.Eval("let x:int := 1;"); err != nil {
		t.Fatalf("let: %v", err)
	}

	tests := []struct {
		line string
		kind diag.Kind
	}{
		{"let y:int := 1 $ 2;", diag.Lexical},
		{"stdout(x;", diag.Parse},
		{"let x:int := 3;", diag.Type},
		{"x := true;", diag.Type},
		{"stdout(x / 0);", diag.Runtime},
	}
	for _, tt := range tests {
		err := s.Eval(tt.line)
		if kind, ok := diag.KindOf(err); !ok || kind != tt.kind {
			t.Errorf("%s: expected a %s error, got %v", tt.line, tt.kind, err)
		}
	}

	if s.Environment().Depth() != 1 {
		t.Errorf("scopes leaked: depth %d", s.Environment().Depth())
	}
	if err := s.Eval("stdout(x);"); err != nil {
		t.Fatalf("stdout: %v", err)
	}
	if out.String() != "1\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestFailedLineLeavesNoBindings(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	if err := s.Eval("let a:int := 1;"); err != nil {
		t.Fatalf("let: %v", err)
	}

	failing := []string{
		"let z:int := 10 / 0;",
		"let b:int := 2; stdout(c);",
		"a := 7; let L:[int] := [1]; L.pop(); L.pop();",
	}
	for _, line := range failing {
		if err := s.Eval(line); err == nil {
			t.Fatalf("%s: expected an error", line)
		}
	}

	for _, name := range []string{"z", "b", "L"} {
		err := s.Eval("stdout(" + name + ");")
		if !errors.Is(err, object.ErrNotFound) {
			t.Errorf("%s: expected not declared, got %v", name, err)
		}
	}
	if err := s.Eval("stdout(a);"); err != nil {
		t.Fatalf("stdout(a): %v", err)
	}
	if err := s.Eval("let z:int := 5; stdout(z);"); err != nil {
		t.Fatalf("redeclare z: %v", err)
	}
	if out.String() != "1\n5\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSessionEchoesAST(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out, WithAST("text"))
	if err := s.Eval("stdout(1 + 2);"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !strings.Contains(out.String(), `BinaryOp("+"`) || !strings.HasSuffix(out.String(), "3\n") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestSessionBlockScopes(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)
	if err := s.Eval("if (true) then let t:int := 1; stdout(t); end"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := s.Environment().Lookup("t"); !errors.Is(err, object.ErrNotFound) {
		t.Errorf("branch declaration leaked: %v", err)
	}
}
