package codegen

import (
	"io"

	"github.com/dave/jennifer/jen"
	"github.com/pkg/errors"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// Config holds the configuration for code generation.
type Config struct {
	Pattern string              // Source text, recorded in comments
	Name    string              // Prefix of generated identifiers (e.g. "Email" generates EmailPattern and Email)
	Package string              // Package name of the generated file
	Options ast.MatchingOptions // Options the pattern is compiled with
	Tree    ast.Node            // Pattern tree to embed
}

// Validate checks if the config is valid.
func (c Config) Validate() error {
	if c.Tree == nil {
		return errors.New("pattern tree cannot be nil")
	}
	if !IsExportedName(c.Name) {
		return errors.Errorf("name %q is not a valid identifier", c.Name)
	}
	if c.Package == "" {
		return errors.New("package cannot be empty")
	}
	return nil
}

var multiline = jen.Options{Open: "{", Close: "}", Separator: ",", Multi: true}

var optionFlags = []struct {
	flag ast.OptionFlags
	name string
}{
	{ast.CaseInsensitive, "CaseInsensitive"},
	{ast.StrictASCII, "StrictASCII"},
	{ast.DotMatchesNewline, "DotMatchesNewline"},
	{ast.Multiline, "Multiline"},
	{ast.ScalarSemantics, "ScalarSemantics"},
}

// Generate builds a file declaring the pattern tree and its compiled form.
func Generate(config Config) (*jen.File, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	tree, err := nodeCode(config.Tree)
	if err != nil {
		return nil, err
	}

	name := UpperFirst(config.Name)
	patternName := PatternName(config.Name)

	f := jen.NewFile(config.Package)
	f.HeaderComment("Code generated by regvm gen. DO NOT EDIT.")
	f.ImportName(ASTPath, "ast")
	f.ImportName(RegvmPath, "regvm")

	if config.Pattern != "" {
		f.Commentf("%s is the pattern tree of %q.", patternName, config.Pattern)
	} else {
		f.Commentf("%s is a pattern tree.", patternName)
	}
	f.Var().Id(patternName).Qual(ASTPath, "Node").Op("=").Add(tree)
	f.Line()

	f.Commentf("%s is %s compiled with its matching options.", name, patternName)
	f.Var().Id(name).Op("=").Qual(RegvmPath, "MustCompileTree").Call(
		jen.Id(patternName),
		jen.Qual(RegvmPath, "WithOptions").Call(optionsCode(config.Options)),
	)
	return f, nil
}

// Render writes the generated file to w.
func Render(config Config, w io.Writer) error {
	f, err := Generate(config)
	if err != nil {
		return err
	}
	return errors.Wrap(f.Render(w), "rendering generated code")
}

// Save writes the generated file to path.
func Save(config Config, path string) error {
	f, err := Generate(config)
	if err != nil {
		return err
	}
	return errors.Wrapf(f.Save(path), "saving %s", path)
}

func optionsCode(o ast.MatchingOptions) jen.Code {
	d := jen.Dict{}
	if o.SemanticLevel == ast.UnicodeScalar {
		d[jen.Id("SemanticLevel")] = jen.Qual(ASTPath, "UnicodeScalar")
	}
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"CaseInsensitive", o.CaseInsensitive},
		{"StrictASCII", o.StrictASCII},
		{"DotMatchesNewline", o.DotMatchesNewline},
		{"Multiline", o.Multiline},
	} {
		if f.on {
			d[jen.Id(f.name)] = jen.True()
		}
	}
	return jen.Qual(ASTPath, "MatchingOptions").Values(d)
}

func flagsCode(flags ast.OptionFlags) jen.Code {
	s := &jen.Statement{}
	first := true
	for _, f := range optionFlags {
		if flags&f.flag == 0 {
			continue
		}
		if !first {
			s.Op("|")
		}
		s.Qual(ASTPath, f.name)
		first = false
	}
	return s
}

func astType(name string) *jen.Statement {
	return jen.Qual(ASTPath, name)
}

func nodeCodes(nodes []ast.Node) ([]jen.Code, error) {
	out := make([]jen.Code, 0, len(nodes))
	for _, n := range nodes {
		c, err := nodeCode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// nodeCode renders a composite literal that rebuilds n. Nodes holding Go
// functions cannot be rendered.
func nodeCode(n ast.Node) (jen.Code, error) {
	switch n := n.(type) {
	case ast.Empty:
		return astType("Empty").Values(), nil

	case ast.Any:
		return astType("Any").Values(), nil

	case ast.Concat:
		children, err := nodeCodes(n)
		if err != nil {
			return nil, err
		}
		return astType("Concat").Custom(multiline, children...), nil

	case ast.Alternation:
		children, err := nodeCodes(n)
		if err != nil {
			return nil, err
		}
		return astType("Alternation").Custom(multiline, children...), nil

	case ast.Quantification:
		child, err := nodeCode(n.Child)
		if err != nil {
			return nil, err
		}
		extra := jen.Lit(n.MaxExtra)
		if n.MaxExtra == ast.Unbounded {
			extra = astType("Unbounded")
		}
		return astType("Quantification").Values(jen.Dict{
			jen.Id("Min"):      jen.Lit(n.Min),
			jen.Id("MaxExtra"): extra,
			jen.Id("Kind"):     astType(UpperFirst(n.Kind.String())),
			jen.Id("Child"):    child,
		}), nil

	case ast.Capture:
		if n.Transform != nil {
			return nil, errors.Wrapf(program.ErrUnsupported, "capture %q has a transform function", n.Name)
		}
		child, err := nodeCode(n.Child)
		if err != nil {
			return nil, err
		}
		d := jen.Dict{jen.Id("Child"): child}
		if n.Name != "" {
			d[jen.Id("Name")] = jen.Lit(n.Name)
		}
		return astType("Capture").Values(d), nil

	case ast.Char:
		return astType("Char").Call(jen.Lit(string(n))), nil

	case ast.Literal:
		return astType("Literal").Call(jen.Lit(string(n))), nil

	case ast.CharSet:
		ranges := make([]jen.Code, 0, len(n.Ranges))
		for _, r := range n.Ranges {
			ranges = append(ranges, jen.Values(jen.LitRune(r.Lo), jen.LitRune(r.Hi)))
		}
		d := jen.Dict{jen.Id("Ranges"): jen.Index().Add(astType("RuneRange")).Custom(multiline, ranges...)}
		if n.Inverted {
			d[jen.Id("Inverted")] = jen.True()
		}
		return astType("CharSet").Values(d), nil

	case ast.Builtin:
		d := jen.Dict{jen.Id("Class"): astType(UpperFirst(n.Class.String()))}
		if n.Inverted {
			d[jen.Id("Inverted")] = jen.True()
		}
		return astType("Builtin").Values(d), nil

	case ast.Assertion:
		return astType("Assertion").Values(jen.Dict{
			jen.Id("Kind"): astType(UpperFirst(n.Kind.String())),
		}), nil

	case ast.Backreference:
		return astType("Backreference").Values(jen.Dict{jen.Id("Group"): jen.Lit(n.Group)}), nil

	case ast.Lookaround:
		child, err := nodeCode(n.Child)
		if err != nil {
			return nil, err
		}
		d := jen.Dict{jen.Id("Child"): child}
		if n.Behind {
			d[jen.Id("Behind")] = jen.True()
		}
		if n.Negative {
			d[jen.Id("Negative")] = jen.True()
		}
		return astType("Lookaround").Values(d), nil

	case ast.Atomic:
		child, err := nodeCode(n.Child)
		if err != nil {
			return nil, err
		}
		return astType("Atomic").Values(jen.Dict{jen.Id("Child"): child}), nil

	case ast.Abort:
		return astType("Abort").Values(jen.Dict{jen.Id("Message"): jen.Lit(n.Message)}), nil

	case ast.WithOptions:
		child, err := nodeCode(n.Child)
		if err != nil {
			return nil, err
		}
		d := jen.Dict{jen.Id("Child"): child}
		if n.Enable != 0 {
			d[jen.Id("Enable")] = flagsCode(n.Enable)
		}
		if n.Disable != 0 {
			d[jen.Id("Disable")] = flagsCode(n.Disable)
		}
		return astType("WithOptions").Values(d), nil

	case ast.CustomAssertion:
		return nil, errors.Wrapf(program.ErrUnsupported, "custom assertion %q", n.Name)

	case ast.CustomConsumer:
		return nil, errors.Wrapf(program.ErrUnsupported, "custom consumer %q", n.Name)
	}
	return nil, errors.Wrapf(program.ErrUnsupported, "node %T", n)
}
