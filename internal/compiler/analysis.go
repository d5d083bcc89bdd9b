package compiler

import "github.com/KromDaniel/regvm/pkg/ast"

// extractCaptureNames extracts capture group names in register order.
func extractCaptureNames(tree ast.Node) []string {
	var names []string
	ast.Walk(tree, func(n ast.Node) bool {
		if c, ok := n.(ast.Capture); ok {
			names = append(names, c.Name)
		}
		return true
	})
	return names
}

// hasRepeatingCaptures checks if the pattern has any capture groups in
// repeating context. Such groups keep a history of every repetition.
func hasRepeatingCaptures(tree ast.Node) bool {
	return walkCheckRepeating(tree, false)
}

// walkCheckRepeating recursively walks the tree to detect captures in
// repeating context.
func walkCheckRepeating(n ast.Node, inRepeat bool) bool {
	if _, ok := n.(ast.Capture); ok && inRepeat {
		return true
	}
	isRepeating := false
	if q, ok := n.(ast.Quantification); ok {
		isRepeating = q.MaxExtra == ast.Unbounded || q.Min+q.MaxExtra > 1
	}
	for _, sub := range ast.Children(n) {
		if walkCheckRepeating(sub, inRepeat || isRepeating) {
			return true
		}
	}
	return false
}

// detectNestedQuantifiers reports an unbounded quantifier nested inside
// another unbounded quantifier, the shape behind catastrophic backtracking.
func detectNestedQuantifiers(tree ast.Node) bool {
	var walk func(n ast.Node, inLoop bool) bool
	walk = func(n ast.Node, inLoop bool) bool {
		loop := false
		if q, ok := n.(ast.Quantification); ok {
			loop = q.MaxExtra == ast.Unbounded || q.Min+q.MaxExtra > 1
			if loop && inLoop && q.Kind != ast.Possessive {
				return true
			}
			if q.Kind == ast.Possessive {
				loop = false
			}
		}
		if _, ok := n.(ast.Atomic); ok {
			inLoop = false
		}
		for _, sub := range ast.Children(n) {
			if walk(sub, inLoop || loop) {
				return true
			}
		}
		return false
	}
	return walk(tree, false)
}

// isStartAnchor reports an assertion that only holds at the start of the
// subject or of the search.
func isStartAnchor(kind ast.AssertionKind, opts ast.MatchingOptions) bool {
	switch kind {
	case ast.StartOfSubject, ast.SearchStart:
		return true
	case ast.Caret:
		return !opts.Multiline
	}
	return false
}

// canOnlyMatchAtStart reports whether every match must begin at the start
// position of the search, so a search needs a single attempt.
func canOnlyMatchAtStart(n ast.Node, opts ast.MatchingOptions) bool {
	switch n := n.(type) {
	case ast.Assertion:
		return isStartAnchor(n.Kind, opts)
	case ast.Concat:
		for _, child := range n {
			if canOnlyMatchAtStart(child, opts) {
				return true
			}
			if !isZeroWidth(child) {
				return false
			}
		}
		return false
	case ast.Alternation:
		if len(n) == 0 {
			return false
		}
		for _, child := range n {
			if !canOnlyMatchAtStart(child, opts) {
				return false
			}
		}
		return true
	case ast.Capture:
		return canOnlyMatchAtStart(n.Child, opts)
	case ast.Atomic:
		return canOnlyMatchAtStart(n.Child, opts)
	case ast.Quantification:
		return n.Min > 0 && canOnlyMatchAtStart(n.Child, opts)
	case ast.WithOptions:
		return canOnlyMatchAtStart(n.Child, opts.Apply(n.Enable, n.Disable))
	}
	return false
}

// isZeroWidth reports nodes that never consume input.
func isZeroWidth(n ast.Node) bool {
	switch n := n.(type) {
	case ast.Empty, ast.Assertion, ast.CustomAssertion, ast.Lookaround:
		return true
	case ast.Literal:
		return n == ""
	}
	return false
}
