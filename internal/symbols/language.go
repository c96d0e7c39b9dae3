// Package symbols extracts declared symbol names and imported module names
// from source files using tree-sitter.
package symbols

import "strings"

// Language represents a supported programming language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
)

// Outline is the structural skeleton of one source file.
type Outline struct {
	// Symbols are declared function, method, class and type names in
	// document order, nested declarations included.
	Symbols []string `json:"symbols"`

	// Imports are imported module names in document order.
	Imports []string `json:"imports"`

	// Partial is set when the source contained syntax errors; the outline
	// then holds whatever the error-tolerant parse recovered.
	Partial bool `json:"partial,omitempty"`
}

// LanguageFromExtension maps a file extension (with leading dot) to a Language.
func LanguageFromExtension(ext string) (Language, bool) {
	switch strings.ToLower(ext) {
	case ".go":
		return LangGo, true
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".py", ".pyi":
		return LangPython, true
	default:
		return "", false
	}
}
