package repl

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"calru/internal/evaluator"
	"calru/internal/lexer"
	"calru/internal/object"
	"calru/internal/parser"
	"calru/internal/report"
)

const PROMPT = ">> "

// Session evaluates console input line by line. Bindings declared on one
// line stay visible to the following ones.
type Session struct {
	env       *object.Environment
	in        *evaluator.Interpreter
	out       io.Writer
	astFormat string
}

type Option func(*Session)

// WithAST echoes each line's AST in the given format before running it.
func WithAST(format string) Option {
	return func(s *Session) {
		s.astFormat = format
	}
}

func NewSession(out io.Writer, opts ...Option) *Session {
	s := &Session{
		env: object.NewEnvironment(),
		out: out,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.in = evaluator.New(s.env, evaluator.WithOutput(out))
	return s
}

func (s *Session) Environment() *object.Environment {
	return s.env
}

// Eval lexes, checks and runs one line of input. A line that fails leaves
// the bindings as they were before it.
func (s *Session) Eval(line string) error {
	cp := s.env.Checkpoint()
	if err := s.eval(line); err != nil {
		s.env.Rollback(cp)
		return err
	}
	return nil
}

func (s *Session) eval(line string) error {
	tokens, err := lexer.Tokenize(line)
	if err != nil {
		return err
	}
	program, err := parser.New(tokens, parser.WithEnvironment(s.env)).ParseProgram()
	if err != nil {
		return err
	}
	if s.astFormat != "" {
		rendered, err := parser.Render(program, s.astFormat)
		if err != nil {
			return err
		}
		io.WriteString(s.out, strings.TrimRight(rendered, "\n")+"\n")
	}
	return s.in.Run(program)
}

type Config struct {
	HistoryFile string
	ASTFormat   string
	Color       bool
}

// Start runs the console on the terminal until an empty line, EOF or ^C.
func Start(cfg Config, out io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o755); err != nil {
				slog.Warn("could not create history directory", slog.Any("error", err))
				return
			}
			if f, err := os.Create(cfg.HistoryFile); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	var opts []Option
	if cfg.ASTFormat != "" {
		opts = append(opts, WithAST(cfg.ASTFormat))
	}
	session := NewSession(out, opts...)
	reporter := report.New(out, cfg.Color)

	for {
		line, err := ln.Prompt(PROMPT)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			return nil
		}
		ln.AppendHistory(line)

		if err := session.Eval(line); err != nil {
			reporter.Report("", line, err)
		}
	}
}
