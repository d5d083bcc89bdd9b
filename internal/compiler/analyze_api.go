package compiler

import (
	"sort"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// AnalysisResult contains the results of pattern analysis.
type AnalysisResult struct {
	// FeatureLabels are derived from pattern structure (sorted alphabetically)
	FeatureLabels []string `json:"feature_labels"`

	// EngineLabels are derived from the compiled program (sorted alphabetically)
	EngineLabels []string `json:"engine_labels"`

	// Detailed analysis info
	CaptureNames        []string `json:"capture_names"`
	CaptureStructure    string   `json:"capture_structure"`
	HasCaptures         bool     `json:"has_captures"`
	HasRepeatingCapture bool     `json:"has_repeating_capture"`
	HasCatastrophicRisk bool     `json:"has_catastrophic_risk"`
	CanOnlyMatchAtStart bool     `json:"can_only_match_at_start"`
	MinMatchLen         int      `json:"min_match_len"`
	MaxMatchLen         int      `json:"max_match_len"`
	Instructions        int      `json:"instructions"`
}

// AnalyzeTree compiles tree and reports labels and program statistics.
func AnalyzeTree(tree ast.Node, config Config) (*AnalysisResult, error) {
	prog, err := Compile(tree, config)
	if err != nil {
		return nil, err
	}
	lengths := AnalyzeMatchLength(tree, config.Options)
	names := extractCaptureNames(tree)
	return &AnalysisResult{
		FeatureLabels:       deriveFeatureLabels(tree, config.Options),
		EngineLabels:        deriveEngineLabels(prog),
		CaptureNames:        names,
		CaptureStructure:    prog.CaptureStructure.String(),
		HasCaptures:         len(names) > 0,
		HasRepeatingCapture: hasRepeatingCaptures(tree),
		HasCatastrophicRisk: detectNestedQuantifiers(tree),
		CanOnlyMatchAtStart: prog.CanOnlyMatchAtStart,
		MinMatchLen:         lengths.MinMatchLen,
		MaxMatchLen:         lengths.MaxMatchLen,
		Instructions:        len(prog.Instructions),
	}, nil
}

// deriveFeatureLabels extracts feature labels from the pattern structure.
// Labels are sorted alphabetically.
func deriveFeatureLabels(tree ast.Node, opts ast.MatchingOptions) []string {
	set := map[string]bool{}
	ast.Walk(tree, func(n ast.Node) bool {
		switch n := n.(type) {
		case ast.Alternation:
			if len(n) > 1 {
				set["Alternation"] = true
			}
		case ast.Assertion:
			switch n.Kind {
			case ast.WordBoundary, ast.NotWordBoundary:
				set["WordBoundary"] = true
			case ast.TextSegment, ast.NotTextSegment:
				set["GraphemeBoundary"] = true
			default:
				set["Anchored"] = true
			}
		case ast.Atomic:
			set["Atomic"] = true
		case ast.Backreference:
			set["Backreference"] = true
		case ast.Capture:
			set["Captures"] = true
			if n.Transform != nil {
				set["Transform"] = true
			}
		case ast.CharSet:
			set["CharClass"] = true
			for _, r := range n.Ranges {
				if r.Hi >= 0x80 {
					set["UnicodeCharClass"] = true
				}
			}
		case ast.Builtin, ast.Any:
			set["CharClass"] = true
		case ast.Char:
			if !isASCIIOnly(string(n)) {
				set["Multibyte"] = true
			}
		case ast.Literal:
			if !isASCIIOnly(string(n)) {
				set["Multibyte"] = true
			}
		case ast.CustomAssertion, ast.CustomConsumer:
			set["CustomCode"] = true
		case ast.Lookaround:
			set["Lookaround"] = true
		case ast.Quantification:
			set["Quantifiers"] = true
			switch n.Kind {
			case ast.Possessive:
				set["Possessive"] = true
			case ast.Reluctant:
				set["Reluctant"] = true
			}
		case ast.WithOptions:
			set["InlineOptions"] = true
		}
		return true
	})
	if opts.SemanticLevel == ast.UnicodeScalar {
		set["ScalarSemantics"] = true
	}

	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	// Simple: no special features
	if len(labels) == 0 {
		labels = append(labels, "Simple")
	}
	sort.Strings(labels)
	return labels
}

// deriveEngineLabels describes how the program will execute.
// Labels are sorted alphabetically.
func deriveEngineLabels(prog *program.Program) []string {
	labels := []string{"Backtracking"}
	ops := map[program.Opcode]bool{}
	for _, inst := range prog.Instructions {
		ops[inst.Op] = true
	}
	if ops[program.OpQuantify] {
		labels = append(labels, "QuantifyFastPath")
	}
	if ops[program.OpCall] {
		labels = append(labels, "Subroutines")
	}
	if prog.RatchetAddress != program.NoAddress {
		labels = append(labels, "Ratchet")
	}
	if prog.CanOnlyMatchAtStart {
		labels = append(labels, "SingleAttempt")
	}
	sort.Strings(labels)
	return labels
}
