package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/KromDaniel/regvm/pkg/regvm"
)

func (a *app) matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match PATTERN [INPUT...]",
		Short: "Match inputs against a pattern",
		Long: `Match each INPUT against PATTERN. Without INPUT arguments every line of
standard input is matched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runMatch,
	}
	flags := cmd.Flags()
	flags.String("mode", "first", "Match mode, one of [first, all, prefix, whole]")
	flags.Int("step-limit", 0, "Abort a match after this many VM steps (0 = unlimited)")
	flags.Bool("trace", false, "Log every VM step")
	flags.Bool("stats", false, "Print a summary after matching")
	return cmd
}

type matchStats struct {
	inputs  int64
	bytes   uint64
	matched int64
	matches int64
}

func (a *app) runMatch(cmd *cobra.Command, args []string) error {
	re, err := a.compile(args[0])
	if err != nil {
		return err
	}
	find, err := finder(re, a.conf.GetString("mode"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var stats matchStats
	run := func(input string) error {
		matches, err := find(input)
		if err != nil {
			return errors.Wrapf(err, "matching %q", input)
		}
		stats.inputs++
		stats.bytes += uint64(len(input))
		if len(matches) > 0 {
			stats.matched++
		}
		stats.matches += int64(len(matches))
		printMatches(out, input, matches)
		return nil
	}

	if len(args) > 1 {
		for _, input := range args[1:] {
			if err := run(input); err != nil {
				return err
			}
		}
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if err := run(scanner.Text()); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrap(err, "reading input")
		}
	}

	if a.conf.GetBool("stats") {
		fmt.Fprintf(out, "%s inputs (%s), %s matched, %s matches\n",
			humanize.Comma(stats.inputs), humanize.Bytes(stats.bytes),
			humanize.Comma(stats.matched), humanize.Comma(stats.matches))
	}
	return nil
}

type findFunc func(input string) ([]*regvm.Match, error)

func finder(re *regvm.Regex, mode string) (findFunc, error) {
	one := func(f func(string) (*regvm.Match, error)) findFunc {
		return func(input string) ([]*regvm.Match, error) {
			m, err := f(input)
			if m == nil || err != nil {
				return nil, err
			}
			return []*regvm.Match{m}, nil
		}
	}
	switch mode {
	case "first":
		return one(re.FirstMatch), nil
	case "prefix":
		return one(re.PrefixMatch), nil
	case "whole":
		return one(re.WholeMatch), nil
	case "all":
		return func(input string) ([]*regvm.Match, error) {
			return re.FindAll(input, -1)
		}, nil
	}
	return nil, errors.Errorf("unknown mode %q", mode)
}

func printMatches(w io.Writer, input string, matches []*regvm.Match) {
	if len(matches) == 0 {
		fmt.Fprintf(w, "%s: no match\n", strconv.Quote(input))
		return
	}
	for _, m := range matches {
		fmt.Fprintf(w, "%s: %s %s captures=%s\n", strconv.Quote(input), m.Range, strconv.Quote(m.String()), m.Captures)
	}
}
