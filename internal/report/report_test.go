package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"calru/internal/diag"
	"calru/internal/object"
	"calru/internal/token"
)

func TestFormatPositionedError(t *testing.T) {
	src := "let x:int := 1;\nstdout(x + true);\n"
	err := diag.Typef(token.Position{Line: 2, Column: 12}, "operator + requires operands of the same numeric type, got Int and Boolean")

	got := New(nil, false).Format("main.calru", src, err)

	for _, want := range []string{
		"type error in main.calru:2:12: operator +",
		"  >    2 | stdout(x + true);",
		"^ here",
		"       1 | let x:int := 1;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFormatWithCause(t *testing.T) {
	err := diag.Wrap(diag.Runtime, token.Position{Line: 1, Column: 3}, object.ErrEmptyList)
	err.Msg = "cannot pop from L"

	got := New(nil, false).Format("", "L.pop();", err)
	if !strings.Contains(got, "runtime error in <input>:1:3") {
		t.Errorf("unexpected header:\n%s", got)
	}
	if !strings.Contains(got, "caused by: "+object.ErrEmptyList.Error()) {
		t.Errorf("expected the cause in:\n%s", got)
	}
}

func TestReportPlainError(t *testing.T) {
	var out bytes.Buffer
	New(&out, false).Report("x.calru", "", errors.New("open x.calru: no such file"))
	if out.String() != "error: open x.calru: no such file\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}
