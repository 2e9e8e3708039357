package parse

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Aman-CERP/codelibrarian/internal/model"
)

// TreeSitterParser is the syntactic-tree back-end for every language other
// than Go: typescript, javascript, rust, python, java, cpp. Grounded on
// original_source/parsers/treesitter_parser.py's three extractor families
// (TS/JS, Rust, generic Java/C++), reimplemented against go-tree-sitter's
// node API and the teacher's tree-wrapping idiom.
type TreeSitterParser struct {
	languages *languageCache
}

// NewTreeSitterParser constructs a tree-sitter back-end with its own
// bounded language cache.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{languages: newLanguageCache()}
}

// Parse implements Parser.
func (p *TreeSitterParser) Parse(filePath, source, moduleName string) (model.ParseResult, error) {
	lang := detectLanguage(strings.ToLower(filepath.Ext(filePath)))
	if lang == "" {
		return emptyResult(), nil
	}
	grammar := p.languages.get(lang)
	if grammar == nil {
		return emptyResult(), nil
	}

	sp := sitter.NewParser()
	sp.SetLanguage(grammar)
	defer sp.Close()

	srcBytes := []byte(source)
	tree, err := sp.ParseCtx(context.Background(), nil, srcBytes)
	if err != nil || tree == nil {
		return emptyResult(), nil
	}
	defer tree.Close()

	switch lang {
	case "typescript", "javascript":
		ex := &tsExtractor{source: srcBytes, moduleName: moduleName}
		ex.walk(tree.RootNode())
		return model.ParseResult{Symbols: ex.symbols, Edges: ex.edges}, nil
	case "rust":
		ex := &rustExtractor{source: srcBytes, moduleName: moduleName}
		ex.walk(tree.RootNode())
		return model.ParseResult{Symbols: ex.symbols, Edges: ex.edges}, nil
	default: // python, java, cpp
		ex := &genericExtractor{source: srcBytes, moduleName: moduleName}
		ex.walk(tree.RootNode())
		return model.ParseResult{Symbols: ex.symbols, Edges: ex.edges}, nil
	}
}

// --------------------------------------------------------------------- //
// node helpers
// --------------------------------------------------------------------- //

func text(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}

func childByType(n *sitter.Node, types ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func childrenByType(n *sitter.Node, nodeType string) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Type() == nodeType {
			out = append(out, c)
		}
	}
	return out
}

// extractDocstring looks for a leading comment child of node, the way the
// Python docstring heuristic does for block/line comments preceding a
// declaration.
func extractDocstring(n *sitter.Node, source []byte) string {
	count := int(n.ChildCount())
	var commentRe = docCommentStrip
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "block_comment", "comment":
			t := strings.TrimSpace(text(c, source))
			t = commentRe.blockOpen.ReplaceAllString(t, "")
			t = commentRe.blockClose.ReplaceAllString(t, "")
			t = commentRe.starPrefix.ReplaceAllString(t, "")
			t = commentRe.slashPrefix.ReplaceAllString(t, "")
			return strings.TrimSpace(t)
		case "string", "string_literal", "expression_statement":
			return ""
		}
	}
	return ""
}

type docCommentPatterns struct {
	blockOpen   *regexp.Regexp
	blockClose  *regexp.Regexp
	starPrefix  *regexp.Regexp
	slashPrefix *regexp.Regexp
}

var docCommentStrip = docCommentPatterns{
	blockOpen:   regexp.MustCompile(`^/\*+\s*`),
	blockClose:  regexp.MustCompile(`\s*\*+/$`),
	starPrefix:  regexp.MustCompile(`(?m)^\s*\*\s?`),
	slashPrefix: regexp.MustCompile(`(?m)^//\s?`),
}

func point(n *sitter.Node) (start, end int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// --------------------------------------------------------------------- //
// TS/JS extractor
// --------------------------------------------------------------------- //

// tsExtractor walks TypeScript/JavaScript trees, grounded on
// original_source's _TSExtractor.
type tsExtractor struct {
	source     []byte
	moduleName string
	symbols    []model.Symbol
	edges      model.GraphEdges
	classStack []string
}

func (e *tsExtractor) qualify(name string) string {
	if len(e.classStack) > 0 {
		return e.classStack[len(e.classStack)-1] + "." + name
	}
	return e.moduleName + "." + name
}

func (e *tsExtractor) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration", "class_expression":
		e.handleClass(n)
	case "function_declaration", "function_expression", "arrow_function",
		"method_definition", "generator_function_declaration":
		e.handleFunction(n)
	case "import_statement":
		e.handleImport(n)
	case "call_expression":
		e.handleCall(n)
	default:
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			e.walk(n.Child(i))
		}
	}
}

func (e *tsExtractor) handleClass(n *sitter.Node) {
	nameNode := childByType(n, "type_identifier", "identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, e.source)
	qualified := e.qualify(name)
	var parentQN string
	if len(e.classStack) > 0 {
		parentQN = e.classStack[len(e.classStack)-1]
	}

	sig := "class " + name
	var bases []string
	if heritage := childByType(n, "class_heritage"); heritage != nil {
		sig = "class " + name + " " + text(heritage, e.source)
		count := int(heritage.ChildCount())
		for i := 0; i < count; i++ {
			hc := heritage.Child(i)
			if hc.Type() != "extends_clause" {
				continue
			}
			hcCount := int(hc.ChildCount())
			for j := 0; j < hcCount; j++ {
				bc := hc.Child(j)
				if bc.Type() == "identifier" || bc.Type() == "member_expression" {
					bases = append(bases, text(bc, e.source))
				}
			}
		}
	}

	start, end := point(n)
	e.symbols = append(e.symbols, model.Symbol{
		Name: name, QualifiedName: qualified, Kind: model.KindClass,
		LineStart: start, LineEnd: end, Signature: sig,
		Docstring: extractDocstring(n, e.source), ParentQualifiedName: parentQN,
	})
	for _, base := range bases {
		e.edges.Inherits = append(e.edges.Inherits, model.Inherit{ChildQualifiedName: qualified, ParentName: base})
	}

	e.classStack = append(e.classStack, qualified)
	if body := childByType(n, "class_body"); body != nil {
		count := int(body.ChildCount())
		for i := 0; i < count; i++ {
			e.walk(body.Child(i))
		}
	}
	e.classStack = e.classStack[:len(e.classStack)-1]
}

func (e *tsExtractor) handleFunction(n *sitter.Node) {
	nameNode := childByType(n, "identifier", "property_identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, e.source)
	if name == "" {
		return
	}

	kind := model.KindFunction
	var parentQN string
	if len(e.classStack) > 0 {
		kind = model.KindMethod
		parentQN = e.classStack[len(e.classStack)-1]
	}
	qualified := e.qualify(name)

	params := e.extractParams(n)
	returnType := e.extractReturnType(n)
	sig := e.buildSig(n, name, params, returnType)

	start, end := point(n)
	e.symbols = append(e.symbols, model.Symbol{
		Name: name, QualifiedName: qualified, Kind: kind,
		LineStart: start, LineEnd: end, Signature: sig,
		Docstring: extractDocstring(n, e.source), Parameters: params,
		ReturnType: returnType, ParentQualifiedName: parentQN,
	})

	if body := childByType(n, "statement_block"); body != nil {
		count := int(body.ChildCount())
		for i := 0; i < count; i++ {
			e.walk(body.Child(i))
		}
	}
}

func (e *tsExtractor) handleImport(n *sitter.Node) {
	srcNode := childByType(n, "string")
	if srcNode == nil {
		return
	}
	module := strings.Trim(text(srcNode, e.source), `'"`)
	clause := childByType(n, "import_clause")
	if clause == nil {
		e.edges.Imports = append(e.edges.Imports, model.Import{FromQualifiedName: e.moduleName, ToModule: module})
		return
	}
	count := int(clause.ChildCount())
	for i := 0; i < count; i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "named_imports":
			specs := childrenByType(child, "import_specifier")
			for _, spec := range specs {
				if spec.NamedChildCount() == 0 {
					continue
				}
				nameNode := spec.NamedChild(0)
				e.edges.Imports = append(e.edges.Imports, model.Import{
					FromQualifiedName: e.moduleName, ToModule: module, ImportName: text(nameNode, e.source),
				})
			}
		case "identifier":
			e.edges.Imports = append(e.edges.Imports, model.Import{
				FromQualifiedName: e.moduleName, ToModule: module, ImportName: text(child, e.source),
			})
		}
	}
}

func (e *tsExtractor) handleCall(n *sitter.Node) {
	funcNode := childByType(n, "identifier", "member_expression")
	if funcNode != nil {
		name := text(funcNode, e.source)
		if len(name) <= 100 {
			parentQN := e.moduleName + ".<top>"
			if len(e.classStack) > 0 {
				parentQN = e.classStack[len(e.classStack)-1]
			}
			e.edges.Calls = append(e.edges.Calls, model.Call{CallerQualifiedName: parentQN, CalleeName: name})
		}
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c.Type() != "identifier" && c.Type() != "member_expression" {
			e.walk(c)
		}
	}
}

func (e *tsExtractor) extractParams(n *sitter.Node) []model.Parameter {
	list := childByType(n, "formal_parameters")
	if list == nil {
		return nil
	}
	var out []model.Parameter
	count := int(list.ChildCount())
	for i := 0; i < count; i++ {
		c := list.Child(i)
		switch c.Type() {
		case "identifier":
			out = append(out, model.Parameter{Name: text(c, e.source)})
		case "required_parameter", "optional_parameter", "rest_pattern", "assignment_pattern":
			if p := e.parseParam(c); p != nil {
				out = append(out, *p)
			}
		}
	}
	return out
}

func (e *tsExtractor) parseParam(n *sitter.Node) *model.Parameter {
	nameNode := childByType(n, "identifier", "rest_pattern")
	if nameNode == nil {
		return nil
	}
	name := text(nameNode, e.source)
	var typeStr *string
	if tn := childByType(n, "type_annotation"); tn != nil {
		typeStr = strPtr(strings.TrimSpace(strings.TrimPrefix(text(tn, e.source), ":")))
	}
	return &model.Parameter{Name: name, Type: typeStr}
}

func (e *tsExtractor) extractReturnType(n *sitter.Node) string {
	if tn := childByType(n, "type_annotation"); tn != nil {
		return strings.TrimSpace(strings.TrimPrefix(text(tn, e.source), ":"))
	}
	return ""
}

func (e *tsExtractor) buildSig(n *sitter.Node, name string, params []model.Parameter, returnType string) string {
	prefix := ""
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if n.Child(i).Type() == "async" {
			prefix = "async "
			break
		}
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s := p.Name
		if p.Type != nil {
			s += ": " + *p.Type
		}
		if p.Default != nil {
			s += " = " + *p.Default
		}
		parts = append(parts, s)
	}
	sig := prefix + "function " + name + "(" + strings.Join(parts, ", ") + ")"
	if returnType != "" {
		sig += ": " + returnType
	}
	return sig
}

// --------------------------------------------------------------------- //
// Rust extractor
// --------------------------------------------------------------------- //

// rustExtractor walks Rust trees, grounded on original_source's
// _RustExtractor: functions, structs/enums/traits, impl blocks, use
// declarations, with "::" qualification instead of ".".
type rustExtractor struct {
	source     []byte
	moduleName string
	symbols    []model.Symbol
	edges      model.GraphEdges
	implStack  []string
}

func (e *rustExtractor) qualify(name string) string {
	if len(e.implStack) > 0 {
		return e.implStack[len(e.implStack)-1] + "::" + name
	}
	return e.moduleName + "::" + name
}

func (e *rustExtractor) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_item":
		e.handleFn(n)
	case "struct_item", "enum_item", "trait_item":
		e.handleType(n)
	case "impl_item":
		e.handleImpl(n)
	case "use_declaration":
		e.handleUse(n)
	default:
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			e.walk(n.Child(i))
		}
	}
}

func (e *rustExtractor) handleFn(n *sitter.Node) {
	nameNode := childByType(n, "identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, e.source)
	qualified := e.qualify(name)
	kind := model.KindFunction
	var parentQN string
	if len(e.implStack) > 0 {
		kind = model.KindMethod
		parentQN = e.implStack[len(e.implStack)-1]
	}

	params := e.extractParams(n)
	returnType := e.extractReturnType(n)
	sig := text(n, e.source)
	if idx := strings.Index(sig, "{"); idx >= 0 {
		sig = sig[:idx]
	}
	sig = strings.TrimSpace(sig)
	if len(sig) > 500 {
		sig = sig[:500]
	}

	start, end := point(n)
	e.symbols = append(e.symbols, model.Symbol{
		Name: name, QualifiedName: qualified, Kind: kind,
		LineStart: start, LineEnd: end, Signature: sig,
		Docstring: e.extractDocComment(n), Parameters: params,
		ReturnType: returnType, ParentQualifiedName: parentQN,
	})

	if body := childByType(n, "block"); body != nil {
		count := int(body.ChildCount())
		for i := 0; i < count; i++ {
			e.walk(body.Child(i))
		}
	}
}

func (e *rustExtractor) handleType(n *sitter.Node) {
	nameNode := childByType(n, "type_identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, e.source)
	qualified := e.moduleName + "::" + name
	sig := strings.TrimSuffix(n.Type(), "_item") + " " + name
	start, end := point(n)
	e.symbols = append(e.symbols, model.Symbol{
		Name: name, QualifiedName: qualified, Kind: model.KindClass,
		LineStart: start, LineEnd: end, Signature: sig, Docstring: e.extractDocComment(n),
	})
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		e.walk(n.Child(i))
	}
}

func (e *rustExtractor) handleImpl(n *sitter.Node) {
	typeNode := childByType(n, "type_identifier")
	if typeNode == nil {
		return
	}
	qualified := e.moduleName + "::" + text(typeNode, e.source)
	e.implStack = append(e.implStack, qualified)
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		e.walk(n.Child(i))
	}
	e.implStack = e.implStack[:len(e.implStack)-1]
}

func (e *rustExtractor) handleUse(n *sitter.Node) {
	t := strings.TrimSpace(text(n, e.source))
	t = strings.TrimSpace(strings.TrimPrefix(t, "use"))
	t = strings.TrimSuffix(t, ";")
	e.edges.Imports = append(e.edges.Imports, model.Import{FromQualifiedName: e.moduleName, ToModule: t})
}

func (e *rustExtractor) extractParams(n *sitter.Node) []model.Parameter {
	list := childByType(n, "parameters")
	if list == nil {
		return nil
	}
	var out []model.Parameter
	count := int(list.ChildCount())
	for i := 0; i < count; i++ {
		c := list.Child(i)
		switch c.Type() {
		case "parameter":
			nameNode := childByType(c, "identifier", "pattern")
			typeNode := childByType(c, "type_identifier", "reference_type", "generic_type", "scoped_type_identifier")
			name := "?"
			if nameNode != nil {
				name = text(nameNode, e.source)
			}
			var typeStr *string
			if typeNode != nil {
				typeStr = strPtr(text(typeNode, e.source))
			}
			out = append(out, model.Parameter{Name: name, Type: typeStr})
		case "self_parameter":
			// The self receiver is elided, like Python's self/cls.
		}
	}
	return out
}

func (e *rustExtractor) extractReturnType(n *sitter.Node) string {
	ret := childByType(n, "return_type")
	if ret == nil {
		return ""
	}
	count := int(ret.ChildCount())
	for i := 0; i < count; i++ {
		c := ret.Child(i)
		if c.Type() != "->" {
			return text(c, e.source)
		}
	}
	return ""
}

func (e *rustExtractor) extractDocComment(n *sitter.Node) string {
	parent := n.Parent()
	if parent == nil {
		return ""
	}
	var lines []string
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		c := parent.Child(i)
		if c == n {
			break
		}
		if c.Type() == "line_comment" {
			t := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text(c, e.source), "/"), "!"))
			lines = append(lines, t)
		} else {
			lines = nil
		}
	}
	return strings.Join(lines, "\n")
}

// --------------------------------------------------------------------- //
// Generic extractor (python, java, cpp)
// --------------------------------------------------------------------- //

// genericExtractor is a minimal classes-and-methods-only walker, grounded
// on original_source's _GenericExtractor, extended with python's
// class_definition node type since Go's native parser (not a tree-sitter
// python backend) is this repository's primary language instead.
type genericExtractor struct {
	source     []byte
	moduleName string
	symbols    []model.Symbol
	edges      model.GraphEdges
	classStack []string
}

func (e *genericExtractor) qualify(name string) string {
	if len(e.classStack) > 0 {
		return e.classStack[len(e.classStack)-1] + "." + name
	}
	return e.moduleName + "." + name
}

func (e *genericExtractor) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_declaration", "interface_declaration", "class_specifier", "struct_specifier", "class_definition":
		e.handleClass(n)
	case "method_declaration", "function_definition", "constructor_declaration":
		e.handleMethod(n)
	default:
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			e.walk(n.Child(i))
		}
	}
}

func (e *genericExtractor) handleClass(n *sitter.Node) {
	nameNode := childByType(n, "identifier", "type_identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, e.source)
	qualified := e.qualify(name)
	start, end := point(n)
	e.symbols = append(e.symbols, model.Symbol{
		Name: name, QualifiedName: qualified, Kind: model.KindClass,
		LineStart: start, LineEnd: end, Signature: "class " + name,
	})
	e.classStack = append(e.classStack, qualified)
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		e.walk(n.Child(i))
	}
	e.classStack = e.classStack[:len(e.classStack)-1]
}

func (e *genericExtractor) handleMethod(n *sitter.Node) {
	nameNode := childByType(n, "identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, e.source)
	kind := model.KindFunction
	var parentQN string
	if len(e.classStack) > 0 {
		kind = model.KindMethod
		parentQN = e.classStack[len(e.classStack)-1]
	}
	qualified := e.qualify(name)
	sig := text(n, e.source)
	if idx := strings.Index(sig, "{"); idx >= 0 {
		sig = sig[:idx]
	}
	sig = strings.TrimSpace(sig)
	if len(sig) > 300 {
		sig = sig[:300]
	}
	start, end := point(n)
	e.symbols = append(e.symbols, model.Symbol{
		Name: name, QualifiedName: qualified, Kind: kind,
		LineStart: start, LineEnd: end, Signature: sig, ParentQualifiedName: parentQN,
	})
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		e.walk(n.Child(i))
	}
}
