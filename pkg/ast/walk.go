package ast

// Children returns the direct children of n in match order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case Concat:
		return n
	case Alternation:
		return n
	case Quantification:
		return []Node{n.Child}
	case Capture:
		return []Node{n.Child}
	case Lookaround:
		return []Node{n.Child}
	case Atomic:
		return []Node{n.Child}
	case WithOptions:
		return []Node{n.Child}
	}
	return nil
}

// Walk visits n and its descendants in depth-first pre-order. Returning
// false from fn skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// CountCaptures returns the number of capture groups in n.
func CountCaptures(n Node) int {
	count := 0
	Walk(n, func(n Node) bool {
		if _, ok := n.(Capture); ok {
			count++
		}
		return true
	})
	return count
}
