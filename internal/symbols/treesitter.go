//go:build cgo

package symbols

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Extractor builds Outlines with tree-sitter. It is safe for concurrent use:
// every call parses with its own sitter.Parser.
type Extractor struct{}

// NewExtractor creates a new outline extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// IsAvailable returns whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return true
}

// ExtractSource extracts an outline from source bytes. Syntax errors do not
// fail the call; they mark the outline Partial.
func (e *Extractor) ExtractSource(ctx context.Context, source []byte, lang Language) (*Outline, error) {
	tsLang, err := getLanguage(lang)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(tsLang)
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	outline := &Outline{
		Symbols: []string{},
		Imports: []string{},
		Partial: root.HasError(),
	}

	walk(root, func(n *sitter.Node) {
		switch lang {
		case LangPython:
			visitPython(n, source, outline)
		case LangGo:
			visitGo(n, source, outline)
		default:
			visitJS(n, source, lang, outline)
		}
	})

	return outline, nil
}

// getLanguage returns the tree-sitter Language for a given language identifier.
func getLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// walk visits nodes in pre-order, which is document order for declarations.
func walk(node *sitter.Node, visit func(*sitter.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), visit)
	}
}

func visitPython(n *sitter.Node, source []byte, out *Outline) {
	switch n.Type() {
	case "function_definition", "class_definition":
		appendName(n, source, &out.Symbols)

	case "import_statement":
		// import a.b, c as d
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				out.Imports = append(out.Imports, child.Content(source))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					out.Imports = append(out.Imports, name.Content(source))
				}
			}
		}

	case "import_from_statement":
		// from x.y import z; relative prefixes are dropped and a bare
		// "from . import z" has no module.
		module := n.ChildByFieldName("module_name")
		if module == nil {
			return
		}
		name := strings.TrimLeft(module.Content(source), ".")
		if name != "" {
			out.Imports = append(out.Imports, name)
		}

	case "future_import_statement":
		out.Imports = append(out.Imports, "__future__")
	}
}

func visitGo(n *sitter.Node, source []byte, out *Outline) {
	switch n.Type() {
	case "function_declaration", "method_declaration", "type_spec":
		appendName(n, source, &out.Symbols)

	case "import_spec":
		if path := n.ChildByFieldName("path"); path != nil {
			if s := unquote(path.Content(source)); s != "" {
				out.Imports = append(out.Imports, s)
			}
		}
	}
}

func visitJS(n *sitter.Node, source []byte, lang Language, out *Outline) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "method_definition":
		appendName(n, source, &out.Symbols)

	case "abstract_class_declaration", "interface_declaration",
		"type_alias_declaration", "enum_declaration":
		if lang != LangJavaScript {
			appendName(n, source, &out.Symbols)
		}

	case "import_statement":
		if src := n.ChildByFieldName("source"); src != nil {
			if s := unquote(src.Content(source)); s != "" {
				out.Imports = append(out.Imports, s)
			}
		}
	}
}

func appendName(n *sitter.Node, source []byte, dst *[]string) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	if s := name.Content(source); s != "" {
		*dst = append(*dst, s)
	}
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
