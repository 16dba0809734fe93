package parser

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"calru/internal/ast"
	"calru/internal/diag"
	"calru/internal/lexer"
	"calru/internal/object"
	"calru/internal/token"
)

func parse(t *testing.T, input string) (*ast.Program, *Parser) {
	t.Helper()
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		t.Fatalf("lexing %q failed: %v", input, err)
	}
	p := New(tokens)
	program, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parsing %q failed: %v", input, err)
	}
	return program, p
}

func parseErr(t *testing.T, input string) *diag.Error {
	t.Helper()
	_, _, err := ParseSource(input)
	if err == nil {
		t.Fatalf("expected an error for %q", input)
	}
	var d *diag.Error
	if !errors.As(err, &d) {
		t.Fatalf("expected *diag.Error for %q, got %T: %v", input, err, err)
	}
	return d
}

func TestLetStatementDump(t *testing.T) {
	program, p := parse(t, "let x:int := 1 + 2;")

	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	stmt, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("expected *ast.AssignStatement, got %T", program.Statements[0])
	}
	if !stmt.Declare || stmt.Name.Value != "x" || !stmt.Type.Equal(object.IntType) {
		t.Errorf("unexpected declaration: %s", stmt)
	}
	if got := RenderASTAsText(stmt.Value, 0); got != `BinaryOp("+", Int(1), Int(2))` {
		t.Errorf("unexpected dump: %s", got)
	}

	// eager evaluation populated the environment
	sym, err := p.Environment().Lookup("x")
	if err != nil {
		t.Fatalf("x not declared: %v", err)
	}
	if !object.Equal(sym.Value, object.Integer{Value: 3}) {
		t.Errorf("expected x = 3, got %s", sym.Value.Inspect())
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", `BinaryOp("+", Int(1), BinaryOp("*", Int(2), Int(3)))`},
		{"1 * 2 + 3", `BinaryOp("+", BinaryOp("*", Int(1), Int(2)), Int(3))`},
		{"1 - 2 - 3", `BinaryOp("-", BinaryOp("-", Int(1), Int(2)), Int(3))`},
		{"8 / 4 / 2", `BinaryOp("/", BinaryOp("/", Int(8), Int(4)), Int(2))`},
		{"(1 + 2) * 3", `BinaryOp("*", BinaryOp("+", Int(1), Int(2)), Int(3))`},
		{"1 + 2 == 3", `BinaryOp("==", BinaryOp("+", Int(1), Int(2)), Int(3))`},
		{"1 < 2 == true", `BinaryOp("==", BinaryOp("<", Int(1), Int(2)), Boolean(true))`},
		{"true && false || true", `BinaryOp("||", BinaryOp("&&", Boolean(true), Boolean(false)), Boolean(true))`},
		{"2.5 * 2.0", `BinaryOp("*", Float(2.5), Float(2))`},
		{"[1, 2]", `List([Int(1), Int(2)])`},
	}

	for _, tt := range tests {
		program, _ := parse(t, "stdout("+tt.input+");")
		stmt := program.Statements[0].(*ast.PrintStatement)
		if got := RenderASTAsText(stmt.Value, 0); got != tt.expected {
			t.Errorf("%s: expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestStatementForms(t *testing.T) {
	input := `
let L:[int] := [1, 2, 3];
let n:int := 0;
n := L.len();
L.push(4);
L.pop();
stdout(L.fetch(0));
if (n > 2) then stdout(n); else stdout(0); end
loop { break; }
`
	program, _ := parse(t, input)

	expected := []string{
		`Let("L", List(Int), List([Int(1), Int(2), Int(3)]))`,
		`Let("n", Int, Int(0))`,
		`Assign("n", Len(Ident("L")))`,
		`Push(Ident("L"), Int(4))`,
		`Pop(Ident("L"))`,
		`Print(Fetch(Ident("L"), Int(0)))`,
		"If(BinaryOp(\">\", Ident(\"n\"), Int(2)), [\n  Print(Ident(\"n\"))\n], [\n  Print(Int(0))\n])",
		"Loop([\n  Break\n])",
	}

	if len(program.Statements) != len(expected) {
		t.Fatalf("expected %d statements, got %d", len(expected), len(program.Statements))
	}
	for i, want := range expected {
		if got := RenderASTAsText(program.Statements[i], 0); got != want {
			t.Errorf("statement %d: expected\n%s\ngot\n%s", i, want, got)
		}
	}
}

func TestTypeOf(t *testing.T) {
	program, p := parse(t, "let L:[float] := [1.5]; L.pop(); stdout(L.fetch(0) > 1.0);")

	tests := []struct {
		node ast.Node
		want object.SymbolType
	}{
		{program.Statements[0], object.ListOf(object.FloatType)},
		{program.Statements[1], object.FloatType},
		{program.Statements[2], object.BoolType},
		{program.Statements[2].(*ast.PrintStatement).Value, object.BoolType},
	}
	for _, tt := range tests {
		got, ok := p.TypeOf(tt.node)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("TypeOf(%s) = %s (%t), want %s", tt.node, got, ok, tt.want)
		}
	}
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		input    string
		contains []string
	}{
		{"let x:int := 1.5;", []string{"Float", "Int"}},
		{"let x:float := 1 + 2.0;", []string{"same numeric type", "Int", "Float"}},
		{"let b:bool := 1 < 2.0;", []string{"same numeric type"}},
		{"let b:bool := true < false;", []string{"same numeric type"}},
		{"let b:bool := 1 == true;", []string{"cannot compare Int with Boolean"}},
		{"let b:bool := 1 && true;", []string{"requires Boolean operands"}},
		{"let L:[int] := [];", []string{"empty list"}},
		{"let L:[int] := [1, 2.0];", []string{"share one type"}},
		{"let L:[int] := [1.0];", []string{"List(Float)", "List(Int)"}},
		{"stdout(y);", []string{"'y'", "not declared"}},
		{"y := 1;", []string{"'y'", "not declared"}},
		{"let x:int := 1; x := true;", []string{"Boolean", "Int"}},
		{"if (1) then stdout(1); end", []string{"condition must be Boolean"}},
		{"if (true) then stdout(1); else stdout(1.0); end", []string{"different types", "Int", "Float"}},
		{"let x:int := 1; x.push(2);", []string{"not a list"}},
		{"let L:[int] := [1]; L.push(true);", []string{"cannot push Boolean"}},
		{"let x:int := 1; stdout(x.len());", []string{"not a list"}},
		{"let L:[int] := [1]; stdout(L.fetch(true));", []string{"index must be Int"}},
		{"let L:[bool] := [true]; let y:int := L.fetch(0);", []string{"Boolean", "Int"}},
	}

	for _, tt := range tests {
		d := parseErr(t, tt.input)
		if d.Kind != diag.Type {
			t.Errorf("%s: expected a type error, got %s: %v", tt.input, d.Kind, d)
		}
		for _, want := range tt.contains {
			if !strings.Contains(d.Error(), want) {
				t.Errorf("%s: expected %q in %q", tt.input, want, d.Error())
			}
		}
	}
}

func TestDuplicateDeclarationAnyType(t *testing.T) {
	pairs := []string{
		"let x:int := 1; let x:int := 2;",
		"let x:int := 1; let x:float := 2.0;",
		"let x:bool := true; let x:[int] := [1];",
	}
	for _, input := range pairs {
		d := parseErr(t, input)
		if !errors.Is(d, object.ErrAlreadyDeclared) {
			t.Errorf("%s: expected ErrAlreadyDeclared, got %v", input, d)
		}
		if !strings.Contains(d.Error(), "already declared") {
			t.Errorf("%s: expected 'already declared' in %q", input, d.Error())
		}
		if d.Kind != diag.Type {
			t.Errorf("%s: expected a type error, got %s", input, d.Kind)
		}
	}
}

func TestShadowingInBranches(t *testing.T) {
	input := "let x:int := 1; if (true) then let x:float := 2.0; stdout(x > 1.0); end stdout(x + 1);"
	_, p := parse(t, input)

	sym, err := p.Environment().Lookup("x")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !sym.Type.Equal(object.IntType) {
		t.Errorf("branch declaration leaked: x is %s", sym.Type)
	}
	if p.Environment().Depth() != 1 {
		t.Errorf("expected only the global scope after parsing, got depth %d", p.Environment().Depth())
	}
}

func TestBranchDeclarationsAreScoped(t *testing.T) {
	d := parseErr(t, "if (true) then let y:int := 1; end stdout(y);")
	if !errors.Is(d, object.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", d)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		contains string
		line     int
		col      int
	}{
		{"let x:int := 1", "expected ';', got end of input", 1, 15},
		{"let := 1;", "expected identifier", 1, 5},
		{"let x := 1;", "type annotation", 1, 7},
		{"stdout 1;", "expected '('", 1, 8},
		{"break;", "break outside of a loop", 1, 1},
		{"if (true) then break; end", "break outside of a loop", 1, 16},
		{"loop { stdout(1);", "expected '}'", 1, 18},
		{"if (true) then stdout(1);", "expected 'end'", 1, 26},
		{"x;", "':=' or '.'", 1, 2},
		{"let L:[int] := [1]; stdout(L.push(2));", "push() is a statement", 1, 30},
		{"let L:[int] := [1]; stdout(L.pop());", "pop() is a statement", 1, 30},
		{"let L:[int] := [1]; L.len();", "len() is an expression", 1, 23},
		{"let L:[int] := [1]; L.foo();", "after '.'", 1, 23},
		{"stdout(+);", "expected an expression", 1, 8},
		{"then", "expected a statement", 1, 1},
		{"stdout(99999999999999999999);", "could not parse", 1, 8},
	}

	for _, tt := range tests {
		d := parseErr(t, tt.input)
		if d.Kind != diag.Parse {
			t.Errorf("%s: expected a parse error, got %s: %v", tt.input, d.Kind, d)
		}
		if !strings.Contains(d.Msg, tt.contains) {
			t.Errorf("%s: expected %q in %q", tt.input, tt.contains, d.Msg)
		}
		if d.Pos.Line != tt.line || d.Pos.Column != tt.col {
			t.Errorf("%s: expected position %d:%d, got %s", tt.input, tt.line, tt.col, d.Pos)
		}
	}
}

func TestBreakInsideNestedIf(t *testing.T) {
	parse(t, "loop { if (true) then break; end }")
}

func TestVoidBranchAgreesWithAnyType(t *testing.T) {
	tests := []struct {
		input    string
		expected object.SymbolType
	}{
		{"let i:int := 0; loop { if (i == 3) then break; else i := i + 1; end }", object.VoidType},
		{"let L:[int] := [1]; if (true) then L.push(2); else stdout(1); end", object.VoidType},
		{"if (false) then stdout(1); else end", object.VoidType},
		{"if (true) then stdout(1); else stdout(2); end", object.IntType},
	}
	for _, tt := range tests {
		program, p := parse(t, tt.input)
		stmt := program.Statements[len(program.Statements)-1]
		if loop, ok := stmt.(*ast.LoopStatement); ok {
			stmt = loop.Body.Statements[0]
		}
		if typ, _ := p.TypeOf(stmt); !typ.Equal(tt.expected) {
			t.Errorf("%s: expected %s, got %s", tt.input, tt.expected, typ)
		}
	}
}

func TestStatementSequenceInBranch(t *testing.T) {
	program, p := parse(t, "if (true) then stdout(1); stdout(2.0); else stdout(3.0); end")
	stmt := program.Statements[0].(*ast.IfStatement)
	if len(stmt.Consequence.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmt.Consequence.Statements))
	}
	if typ, _ := p.TypeOf(stmt); !typ.Equal(object.FloatType) {
		t.Errorf("expected branch type Float, got %s", typ)
	}
}

func TestEagerEvaluationFallsBackToZero(t *testing.T) {
	_, p := parse(t, "let d:int := 0; let q:int := 10 / d;")
	sym, err := p.Environment().Lookup("q")
	if err != nil {
		t.Fatalf("q not declared: %v", err)
	}
	if !object.Equal(sym.Value, object.Integer{Value: 0}) {
		t.Errorf("expected zero value, got %s", sym.Value.Inspect())
	}
}

func TestParserContinuesWithEnvironment(t *testing.T) {
	_, first := parse(t, "let x:int := 41;")

	tokens, _ := lexer.Tokenize("let y:int := x + 1;")
	p := New(tokens, WithEnvironment(first.Environment()))
	if _, err := p.ParseProgram(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sym, _ := p.Environment().Lookup("y")
	if !object.Equal(sym.Value, object.Integer{Value: 42}) {
		t.Errorf("expected 42, got %s", sym.Value.Inspect())
	}
}

func TestNewAppendsMissingEOF(t *testing.T) {
	tokens := []token.Token{
		{Type: token.STDOUT, Literal: "stdout", Position: token.Position{Line: 1, Column: 1}},
		{Type: token.LPAREN, Literal: "(", Position: token.Position{Line: 1, Column: 7}},
		{Type: token.INT, Literal: "1", Position: token.Position{Line: 1, Column: 8}},
		{Type: token.RPAREN, Literal: ")", Position: token.Position{Line: 1, Column: 9}},
		{Type: token.SEMICOLON, Literal: ";", Position: token.Position{Line: 1, Column: 10}},
	}
	program, err := New(tokens).ParseProgram()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(program.Statements) != 1 {
		t.Errorf("expected 1 statement, got %d", len(program.Statements))
	}
}

func TestRenderJSONAndYAML(t *testing.T) {
	program, _ := parse(t, "let x:int := 1 + 2;")

	out, err := RenderASTAsJSON(program)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	stmts := decoded["statements"].([]interface{})
	first := stmts[0].(map[string]interface{})
	if first["type"] != "AssignStatement" || first["declaredType"] != "Int" {
		t.Errorf("unexpected JSON statement: %v", first)
	}
	if first["value"].(map[string]interface{})["operator"] != "+" {
		t.Errorf("unexpected JSON value: %v", first["value"])
	}

	out, err = Render(program, "yaml")
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var fromYAML map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &fromYAML); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if fromYAML["type"] != "Program" {
		t.Errorf("unexpected YAML root: %v", fromYAML)
	}

	if _, err := Render(program, "xml"); err == nil {
		t.Errorf("expected an error for an unknown format")
	}
}
