package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/KromDaniel/regvm/pkg/regvm"
)

func (a *app) analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze PATTERN",
		Short: "Report pattern features and engine labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.regexOptions()
			if err != nil {
				return err
			}
			result, err := regvm.Analyze(args[0], opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.conf.GetBool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return errors.Wrap(enc.Encode(result), "encoding analysis")
			}
			fmt.Fprintf(out, "features:     %s\n", strings.Join(result.FeatureLabels, ", "))
			fmt.Fprintf(out, "engine:       %s\n", strings.Join(result.EngineLabels, ", "))
			fmt.Fprintf(out, "captures:     %s\n", result.CaptureStructure)
			fmt.Fprintf(out, "match length: %s\n", lengthRange(result.MinMatchLen, result.MaxMatchLen))
			fmt.Fprintf(out, "instructions: %d\n", result.Instructions)
			if result.HasCatastrophicRisk {
				fmt.Fprintln(out, "warning:      nested unbounded quantifiers may backtrack exponentially")
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the analysis as JSON")
	return cmd
}

func lengthRange(min, max int) string {
	if max < 0 {
		return fmt.Sprintf("%d.. bytes", min)
	}
	return fmt.Sprintf("%d..%d bytes", min, max)
}
