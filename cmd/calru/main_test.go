package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProgram(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root, a := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--color=false"))
	err := root.Execute()
	a.close()
	return stdout.String(), stderr.String(), err
}

func TestRunProgram(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALRU_HOME", dir)
	path := writeProgram(t, dir, "sum.calru", `
let L:[int] := [1, 2, 3];
let total:int := 0;
let i:int := 0;
loop {
  total := total + L.fetch(i);
  i := i + 1;
  if (i == L.len()) then break; end
}
stdout(total);
`)

	stdout, stderr, err := execute(t, "run", path)
	if err != nil {
		t.Fatalf("run: %v (%s)", err, stderr)
	}
	if stdout != "6\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestRunReportsErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALRU_HOME", dir)

	tests := []struct {
		src      string
		expected string
	}{
		{"let x:int := 1;\nstdout(x + 1.5);\n", "type error in"},
		{"stdout(1 / 0);\n", "runtime error in"},
		{"let x:int := ;\n", "parse error in"},
		{"stdout(1 # 2);\n", "lexical error in"},
	}
	for i, tt := range tests {
		path := writeProgram(t, dir, "bad.calru", tt.src)
		_, stderr, err := execute(t, "run", path)
		if !errors.Is(err, errReported) {
			t.Errorf("case %d: expected a reported error, got %v", i, err)
		}
		if !strings.Contains(stderr, tt.expected) || !strings.Contains(stderr, "^ here") {
			t.Errorf("case %d: unexpected diagnostics:\n%s", i, stderr)
		}
	}
}

func TestRunPrintsTokensAndAST(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALRU_HOME", dir)
	path := writeProgram(t, dir, "p.calru", "stdout(1 + 2);")

	stdout, _, err := execute(t, "run", path, "--tokens", "--ast", "json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"STDOUT", `"type": "BinaryExpression"`, "3\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in:\n%s", want, stdout)
		}
	}
}

func TestRunRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALRU_HOME", dir)
	ok := writeProgram(t, dir, "ok.calru", "stdout(42);")
	bad := writeProgram(t, dir, "bad.calru", "let L:[int] := [1];\nL.pop();\nL.pop();\n")

	if _, _, err := execute(t, "run", "--history", ok); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, _, err := execute(t, "run", "--history", bad); err == nil {
		t.Fatalf("expected the second run to fail")
	}

	stdout, stderr, err := execute(t, "history")
	if err != nil {
		t.Fatalf("history: %v (%s)", err, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 runs, got:\n%s", stdout)
	}
	if !strings.Contains(lines[0], "runtime error") || !strings.Contains(lines[0], "let L:[int] := [1]; ...") {
		t.Errorf("unexpected newest entry %q", lines[0])
	}
	if !strings.Contains(lines[1], "ok") || !strings.Contains(lines[1], "stdout(42);") {
		t.Errorf("unexpected oldest entry %q", lines[1])
	}

	id := strings.Fields(lines[1])[0]
	stdout, _, err = execute(t, "history", "--show", id)
	if err != nil {
		t.Fatalf("history --show: %v", err)
	}
	if !strings.Contains(stdout, "--- output\n42\n") {
		t.Errorf("unexpected run details:\n%s", stdout)
	}
}

func TestAsm(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALRU_HOME", dir)
	src := writeProgram(t, dir, "p.calru", "let x:int := 6; stdout(x * 7);")
	out := filepath.Join(dir, "p.asm")

	if _, stderr, err := execute(t, "asm", src, "-o", out); err != nil {
		t.Fatalf("asm: %v (%s)", err, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "_start:") || !strings.Contains(string(data), "imul") {
		t.Errorf("unexpected assembly:\n%s", data)
	}

	floats := writeProgram(t, dir, "f.calru", "stdout(1.5);")
	if _, stderr, err := execute(t, "asm", floats); err == nil || !strings.Contains(stderr, "not supported") {
		t.Errorf("expected an unsupported error, got %v:\n%s", err, stderr)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALRU_HOME", dir)
	cfg := writeProgram(t, dir, "calru.yaml", "ast_format: text\nlog_level: debug\nlog_file: "+filepath.Join(dir, "logs", "calru.log")+"\n")
	path := writeProgram(t, dir, "p.calru", "stdout(true);")

	stdout, _, err := execute(t, "run", path, "--config", cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout, "Print(Boolean(true))") {
		t.Errorf("expected the AST from the config file, got:\n%s", stdout)
	}
	data, err := os.ReadFile(filepath.Join(dir, "logs", "calru.log"))
	if err != nil || !strings.Contains(string(data), `"msg":"run completed"`) {
		t.Errorf("expected a JSON log entry, got %q (%v)", data, err)
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("CALRU_HOME", t.TempDir())
	stdout, _, err := execute(t, "version")
	if err != nil || !strings.HasPrefix(stdout, "calru version 'vdev'") {
		t.Errorf("unexpected version output %q (%v)", stdout, err)
	}
}

func TestLogFileClosedAfterFailedRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CALRU_HOME", dir)
	logFile := filepath.Join(dir, "calru.log")
	path := writeProgram(t, dir, "bad.calru", "stdout(1 / 0);")

	root, a := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", path, "--log-level", "info", "--log-file", logFile})

	if err := root.Execute(); !errors.Is(err, errReported) {
		t.Fatalf("expected a reported error, got %v", err)
	}
	if a.logWriter == nil {
		t.Fatalf("expected an open log writer after a failed run")
	}
	a.close()
	if a.logWriter != nil {
		t.Errorf("expected the log writer to be released")
	}

	data, err := os.ReadFile(logFile)
	if err != nil || !strings.Contains(string(data), `"msg":"run failed"`) {
		t.Errorf("expected the failure in the log, got %q (%v)", data, err)
	}
}
