package regvm

import (
	"github.com/KromDaniel/regvm/internal/compiler"
	"github.com/KromDaniel/regvm/internal/syntax"
	"github.com/KromDaniel/regvm/pkg/ast"
)

// AnalysisResult contains the results of pattern analysis.
type AnalysisResult = compiler.AnalysisResult

// Analyze compiles pattern and reports what it uses and how it will run.
//
// The analysis returns:
//   - FeatureLabels: derived from pattern structure (e.g., "Captures", "Multibyte")
//   - EngineLabels: derived from the compiled program (e.g., "QuantifyFastPath")
//
// Both label arrays are sorted alphabetically for deterministic comparison.
//
// Example:
//
//	result, err := regvm.Analyze(`(?P<name>\w+)`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.FeatureLabels) // [Captures CharClass Quantifiers]
//	fmt.Println(result.EngineLabels)  // [Backtracking QuantifyFastPath]
func Analyze(pattern string, opts ...Option) (*AnalysisResult, error) {
	cfg := newConfig(opts)
	tree, err := syntax.Parse(pattern, cfg.options)
	if err != nil {
		return nil, err
	}
	return compiler.AnalyzeTree(tree, compilerConfig(pattern, cfg))
}

// AnalyzeTree analyzes a pattern tree.
func AnalyzeTree(tree ast.Node, opts ...Option) (*AnalysisResult, error) {
	return compiler.AnalyzeTree(tree, compilerConfig("", newConfig(opts)))
}
