package main

import (
	"os"

	"github.com/spf13/cobra"

	"calru/internal/ir"
	"calru/internal/parser"
	"calru/internal/report"
)

func newAsmCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "asm FILE",
		Short: "Compile the integer subset of a program to NASM x86-64 assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			src := string(data)

			program, _, err := parser.ParseSource(src)
			if err == nil {
				var instrs []ir.Instruction
				if instrs, err = ir.Generate(program); err == nil {
					err = writeAsm(cmd, output, instrs)
				}
			}
			if err != nil {
				report.New(cmd.ErrOrStderr(), a.cfg.Color).Report(args[0], src, err)
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the assembly to this file instead of stdout")
	return cmd
}

func writeAsm(cmd *cobra.Command, path string, instrs []ir.Instruction) error {
	if path == "" {
		return ir.Emit(cmd.OutOrStdout(), instrs)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ir.Emit(f, instrs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
