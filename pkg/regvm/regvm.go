// Package regvm compiles regular expressions into bytecode programs and
// runs them on a backtracking virtual machine.
//
// Patterns written in Go's regexp syntax are compiled with Compile. Trees
// built directly with package ast can use every engine feature, including
// lookaround, atomic groups, possessive quantifiers, backreferences and
// custom matchers, and are compiled with CompileTree.
package regvm

import (
	"io"
	"iter"
	"strings"

	"github.com/pkg/errors"

	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/KromDaniel/regvm/internal/executor"
	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/internal/replace"
	"github.com/KromDaniel/regvm/internal/syntax"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// Errors reported by compilation and matching.
var (
	ErrUncapturedReference = program.ErrUncapturedReference
	ErrInvalidReference    = program.ErrInvalidReference
	ErrUnsupported         = program.ErrUnsupported
	ErrStepLimit           = program.ErrStepLimit
	ErrTemplateReference   = replace.ErrReference
)

// AbortError is returned when a match is aborted by an abort node or by an
// error from a custom function.
type AbortError = program.AbortError

// Match is one successful match.
type Match = executor.Match

// Regex is a compiled pattern. It is safe for concurrent use.
type Regex struct {
	pattern string
	prog    *program.Program
	exec    *executor.Executor
}

// Compile parses pattern in Go regexp syntax and compiles it.
func Compile(pattern string, opts ...Option) (*Regex, error) {
	cfg := newConfig(opts)
	tree, err := syntax.Parse(pattern, cfg.options)
	if err != nil {
		return nil, err
	}
	return compileTree(pattern, tree, cfg)
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, opts ...Option) *Regex {
	re, err := Compile(pattern, opts...)
	if err != nil {
		panic(`regvm: Compile(` + pattern + `): ` + err.Error())
	}
	return re
}

// CompileTree compiles a pattern tree.
func CompileTree(tree ast.Node, opts ...Option) (*Regex, error) {
	return compileTree("", tree, newConfig(opts))
}

// MustCompileTree is like CompileTree but panics on error. Generated code
// uses it to declare package-level patterns.
func MustCompileTree(tree ast.Node, opts ...Option) *Regex {
	re, err := CompileTree(tree, opts...)
	if err != nil {
		panic("regvm: CompileTree: " + err.Error())
	}
	return re
}

func compileTree(pattern string, tree ast.Node, cfg config) (*Regex, error) {
	prog, err := compiler.Compile(tree, compilerConfig(pattern, cfg))
	if err != nil {
		return nil, errors.Wrap(err, "compiling pattern")
	}
	return newRegex(pattern, prog, cfg), nil
}

func compilerConfig(pattern string, cfg config) compiler.Config {
	return compiler.Config{
		Pattern:       pattern,
		Options:       cfg.options,
		EnableTracing: cfg.tracing,
		Verbose:       cfg.verbose,
		Logger:        cfg.logger,
	}
}

func newRegex(pattern string, prog *program.Program, cfg config) *Regex {
	var opts []executor.Option
	if cfg.stepLimit > 0 {
		opts = append(opts, executor.WithStepLimit(cfg.stepLimit))
	}
	if cfg.logger != nil {
		opts = append(opts, executor.WithLogger(cfg.logger))
	}
	return &Regex{pattern: pattern, prog: prog, exec: executor.New(prog, opts...)}
}

func whole(input string) program.Range {
	return program.Range{Lo: 0, Hi: len(input)}
}

// PrefixMatch matches at the start of input. The match may end anywhere.
// It returns nil when there is no match.
func (r *Regex) PrefixMatch(input string) (*Match, error) {
	return r.exec.PrefixMatch(input, whole(input), whole(input))
}

// WholeMatch matches only if the pattern consumes all of input.
func (r *Regex) WholeMatch(input string) (*Match, error) {
	return r.exec.WholeMatch(input, whole(input), whole(input))
}

// FirstMatch returns the leftmost match in input.
func (r *Regex) FirstMatch(input string) (*Match, error) {
	return r.exec.FirstMatch(input, whole(input), whole(input))
}

// FirstMatchIn returns the leftmost match within search. Anchors and
// lookbehind still see all of input.
func (r *Regex) FirstMatchIn(input string, search ast.Range) (*Match, error) {
	if search.Lo < 0 || search.Hi > len(input) || search.Lo > search.Hi {
		return nil, errors.Errorf("search range %s outside 0..<%d", search, len(input))
	}
	return r.exec.FirstMatch(input, whole(input), search)
}

// AllMatches iterates over successive non-overlapping matches.
func (r *Regex) AllMatches(input string) iter.Seq2[*Match, error] {
	return r.exec.AllMatches(input, whole(input), whole(input))
}

// FindAll collects up to n matches; n < 0 means all.
func (r *Regex) FindAll(input string, n int) ([]*Match, error) {
	var out []*Match
	if n == 0 {
		return out, nil
	}
	for m, err := range r.AllMatches(input) {
		if err != nil {
			return out, err
		}
		out = append(out, m)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out, nil
}

// MatchString reports whether input contains a match.
func (r *Regex) MatchString(input string) (bool, error) {
	m, err := r.FirstMatch(input)
	return m != nil, err
}

// ReplaceAll returns a copy of input with every match replaced by template.
// In the template $0 is the whole match, $1 or ${1} a group by number and
// $name or ${name} a group by name; $$ is a literal dollar sign. Groups that
// did not participate expand to the empty string.
func (r *Regex) ReplaceAll(input, template string) (string, error) {
	tmpl, err := replace.Parse(template)
	if err != nil {
		return "", errors.Wrap(err, "parsing template")
	}
	bound, err := tmpl.Bind(r.prog.CaptureNames)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	last := 0
	for m, err := range r.AllMatches(input) {
		if err != nil {
			return "", err
		}
		b.WriteString(input[last:m.Range.Lo])
		bound.Expand(&b, m)
		last = m.Range.Hi
	}
	b.WriteString(input[last:])
	return b.String(), nil
}

// NumCaptures returns the number of capture groups.
func (r *Regex) NumCaptures() int {
	return r.prog.Registers.Captures
}

// CaptureNames returns the capture group names in group order. Unnamed
// groups have an empty name.
func (r *Regex) CaptureNames() []string {
	return append([]string(nil), r.prog.CaptureNames...)
}

// CaptureStructure describes the shape of Match.Captures, for example
// "tuple(optional(atom), optional(atom))".
func (r *Regex) CaptureStructure() string {
	return r.prog.CaptureStructure.String()
}

// Disassemble writes the program listing to w.
func (r *Regex) Disassemble(w io.Writer) error {
	return r.prog.Disassemble(w)
}

// Instructions returns the program length.
func (r *Regex) Instructions() int {
	return len(r.prog.Instructions)
}

// String returns the source pattern.
func (r *Regex) String() string {
	return r.pattern
}
