package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/KromDaniel/regvm/internal/codegen"
	"github.com/KromDaniel/regvm/internal/syntax"
)

func (a *app) genCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen PATTERN",
		Short: "Generate Go source declaring a compiled pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.matchingOptions()
			if err != nil {
				return err
			}
			tree, err := syntax.Parse(args[0], opts)
			if err != nil {
				return err
			}
			config := codegen.Config{
				Pattern: args[0],
				Name:    a.conf.GetString("name"),
				Package: a.conf.GetString("package"),
				Options: opts,
				Tree:    tree,
			}
			if output := a.conf.GetString("output"); output != "" {
				return codegen.Save(config, output)
			}
			return errors.Wrap(codegen.Render(config, cmd.OutOrStdout()), "generating code")
		},
	}
	flags := cmd.Flags()
	flags.String("name", "", "Name of the generated variable (required)")
	flags.String("package", "main", "Package name of the generated file")
	flags.StringP("output", "o", "", "Output file (default stdout)")
	return cmd
}
