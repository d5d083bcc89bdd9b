// Package codegen generates Go source that embeds a pattern tree, so a
// pattern can be compiled with regvm without parsing at run time.
package codegen

import "go/token"

// Import paths referenced by generated code.
const (
	ASTPath   = "github.com/KromDaniel/regvm/pkg/ast"
	RegvmPath = "github.com/KromDaniel/regvm/pkg/regvm"
)

// PatternSuffix is appended to the name of the generated tree variable.
const PatternSuffix = "Pattern"

// PatternName returns the tree variable name for name.
func PatternName(name string) string {
	return UpperFirst(name) + PatternSuffix
}

// IsExportedName reports whether name can be used as an exported
// identifier once its first letter is upper-cased.
func IsExportedName(name string) bool {
	if !token.IsIdentifier(name) {
		return false
	}
	c := name[0] | 0x20
	return c >= 'a' && c <= 'z'
}

// UpperFirst converts the first character of a string to uppercase.
func UpperFirst(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
