package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"calru/internal/diag"
	"calru/internal/evaluator"
	"calru/internal/history"
	"calru/internal/lexer"
	"calru/internal/parser"
	"calru/internal/report"
	"calru/internal/util"
)

type runOptions struct {
	tokens  bool
	ast     string
	history bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Check and run a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ast") {
				opts.ast = a.cfg.ASTFormat
			}
			return a.execute(cmd.Context(), args[0], string(src), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&opts.tokens, "tokens", false, "Print the token stream before running")
	cmd.Flags().StringVar(&opts.ast, "ast", "", "Print the AST before running: text, json or yaml")
	cmd.Flags().BoolVar(&opts.history, "history", false, "Record the run in the history database")
	return cmd
}

func (a *app) execute(ctx context.Context, file, src string, opts *runOptions, stdout, stderr io.Writer) error {
	runID := uuid.NewString()
	logger := slog.With(slog.String("run_id", runID), slog.String("file", file))
	logger.Info("run started")

	var output bytes.Buffer
	err := a.interpret(src, opts, io.MultiWriter(stdout, &output), stdout)

	if opts.history || a.cfg.History.Driver != "" {
		run := &history.Run{ID: runID, Source: src, Outcome: outcome(err), Output: output.String()}
		if err != nil {
			run.Error = err.Error()
		}
		if herr := a.record(ctx, run); herr != nil {
			logger.Warn("could not record run", slog.Any("error", herr))
			fmt.Fprintf(stderr, "warning: %v\n", herr)
		}
	}

	if err != nil {
		logger.Info("run failed", slog.Any("error", err))
		report.New(stderr, a.cfg.Color).Report(file, src, err)
		return errReported
	}
	logger.Info("run completed")
	return nil
}

func (a *app) interpret(src string, opts *runOptions, out, debug io.Writer) error {
	tokens, err := lexer.Tokenize(src)
	if opts.tokens {
		for _, tok := range tokens {
			fmt.Fprintln(debug, tok)
		}
	}
	if err != nil {
		return err
	}

	p := parser.New(tokens)
	program, err := p.ParseProgram()
	if err != nil {
		return err
	}
	if opts.ast != "" {
		rendered, err := parser.Render(program, opts.ast)
		if err != nil {
			return err
		}
		fmt.Fprintln(debug, rendered)
	}

	return evaluator.New(p.Environment(), evaluator.WithOutput(out)).Run(program)
}

func (a *app) openHistory(ctx context.Context) (*history.Store, error) {
	driver, dsn := a.cfg.History.Driver, a.cfg.History.DSN
	if driver == "" {
		driver = "sqlite3"
	}
	if dsn == "" && driver == "sqlite3" {
		dsn = filepath.Join(util.ConfigDir(), "history.db")
	}
	return history.Open(ctx, driver, dsn)
}

func (a *app) record(ctx context.Context, run *history.Run) error {
	store, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, run)
}

func outcome(err error) string {
	if err == nil {
		return history.OutcomeOK
	}
	kind, ok := diag.KindOf(err)
	if !ok {
		return "error"
	}
	switch kind {
	case diag.Lexical:
		return history.OutcomeLexicalError
	case diag.Parse:
		return history.OutcomeParseError
	case diag.Type:
		return history.OutcomeTypeError
	default:
		return history.OutcomeRuntimeError
	}
}
