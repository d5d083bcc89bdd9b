package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/KromDaniel/regvm/pkg/ast"
	"github.com/KromDaniel/regvm/pkg/regvm"
)

// EnvPrefix prefixes environment variables that override flags, e.g.
// REGVM_SEMANTICS=scalar.
const EnvPrefix = "REGVM"

type app struct {
	conf   *viper.Viper
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{conf: viper.New()}
	root := &cobra.Command{
		Use:   "regvm",
		Short: "Backtracking regex bytecode engine",
		Long: `
regvm compiles regular expressions into bytecode for a backtracking virtual
machine. Patterns use Go regexp syntax; matching follows grapheme cluster
semantics unless --semantics=scalar is given.
`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	addGlobalFlags(root.PersistentFlags())
	root.AddCommand(a.matchCmd(), a.replaceCmd(), a.disasmCmd(), a.analyzeCmd(), a.genCmd())
	return root
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden by environment variables and flags.")
	semantics := semanticsFlag(ast.GraphemeCluster)
	flags.Var(&semantics, "semantics", "Character semantics, one of [grapheme, scalar]")
	flags.BoolP("case-insensitive", "i", false, "Match case-insensitively")
	flags.BoolP("multiline", "m", false, "^ and $ match at line boundaries")
	flags.BoolP("dotall", "s", false, ". matches newlines")
	flags.Bool("ascii", false, "Restrict builtin classes to ASCII")
	flags.BoolP("verbose", "v", false, "Log compile decisions")
}

// semanticsFlag is a pflag.Value accepting "grapheme" or "scalar".
type semanticsFlag ast.SemanticLevel

func (f *semanticsFlag) String() string {
	return ast.SemanticLevel(*f).String()
}

func (f *semanticsFlag) Set(value string) error {
	level, ok := ast.ParseSemanticLevel(value)
	if !ok {
		return errors.Errorf("unknown semantics %q, want grapheme or scalar", value)
	}
	*f = semanticsFlag(level)
	return nil
}

func (f *semanticsFlag) Type() string {
	return "semantics"
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.conf.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	a.conf.SetEnvPrefix(EnvPrefix)
	a.conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.conf.AutomaticEnv()
	if cfg := a.conf.GetString("config"); cfg != "" {
		a.conf.SetConfigFile(cfg)
		if err := a.conf.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config %s", cfg)
		}
	}

	var err error
	if a.conf.GetBool("verbose") || a.conf.GetBool("trace") {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	return errors.Wrap(err, "creating logger")
}

func (a *app) matchingOptions() (ast.MatchingOptions, error) {
	level, ok := ast.ParseSemanticLevel(a.conf.GetString("semantics"))
	if !ok {
		return ast.MatchingOptions{}, errors.Errorf("unknown semantics %q", a.conf.GetString("semantics"))
	}
	return ast.MatchingOptions{
		SemanticLevel:     level,
		CaseInsensitive:   a.conf.GetBool("case-insensitive"),
		StrictASCII:       a.conf.GetBool("ascii"),
		DotMatchesNewline: a.conf.GetBool("dotall"),
		Multiline:         a.conf.GetBool("multiline"),
	}, nil
}

func (a *app) regexOptions() ([]regvm.Option, error) {
	o, err := a.matchingOptions()
	if err != nil {
		return nil, err
	}
	return []regvm.Option{
		regvm.WithOptions(o),
		regvm.WithLogger(a.logger),
		regvm.WithVerbose(a.conf.GetBool("verbose")),
		regvm.WithTracing(a.conf.GetBool("trace")),
		regvm.WithStepLimit(a.conf.GetInt("step-limit")),
	}, nil
}

func (a *app) compile(pattern string) (*regvm.Regex, error) {
	opts, err := a.regexOptions()
	if err != nil {
		return nil, err
	}
	return regvm.Compile(pattern, opts...)
}
