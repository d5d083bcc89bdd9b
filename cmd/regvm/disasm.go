package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm PATTERN",
		Short: "Print the bytecode listing of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := a.compile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := re.Disassemble(out); err != nil {
				return err
			}
			fmt.Fprintf(out, "; %s instructions, %s captures, structure %s\n",
				humanize.Comma(int64(re.Instructions())), humanize.Comma(int64(re.NumCaptures())), re.CaptureStructure())
			return nil
		},
	}
}
