package main

import (
	"bufio"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) replaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace PATTERN TEMPLATE [INPUT...]",
		Short: "Replace every match of a pattern",
		Long: `Replace every match of PATTERN in each INPUT with TEMPLATE and print the
result. $0 is the whole match, $1 or ${1} a group by number, $name or
${name} a group by name and $$ a literal dollar sign. Without INPUT
arguments every line of standard input is rewritten.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, err := a.compile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			run := func(input string) error {
				replaced, err := re.ReplaceAll(input, args[1])
				if err != nil {
					return errors.Wrapf(err, "replacing in %q", input)
				}
				fmt.Fprintln(out, replaced)
				return nil
			}
			if len(args) > 2 {
				for _, input := range args[2:] {
					if err := run(input); err != nil {
						return err
					}
				}
				return nil
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				if err := run(scanner.Text()); err != nil {
					return err
				}
			}
			return errors.Wrap(scanner.Err(), "reading input")
		},
	}
	cmd.Flags().Int("step-limit", 0, "Abort a match after this many VM steps (0 = unlimited)")
	return cmd
}
