package parse

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/Aman-CERP/codelibrarian/internal/model"
)

// GoParser is the native-AST back-end for Go source: it walks the tree
// built by go/parser the way original_source/parsers/python_parser.py
// walks Python's ast module, with go/ast's FuncDecl/TypeSpec standing in
// for Python's function/class defs. A struct's method set plays the role
// of a class's methods; the receiver type is the "class" a method is
// qualified under.
type GoParser struct{}

// NewGoParser constructs the Go-native parser back-end.
func NewGoParser() *GoParser { return &GoParser{} }

// Parse implements Parser.
func (p *GoParser) Parse(filePath, source, moduleName string) (model.ParseResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, source, parser.ParseComments)
	if err != nil {
		return emptyResult(), nil // syntax errors are non-fatal
	}

	v := &goVisitor{
		fset:       fset,
		moduleName: moduleName,
		typeOrder:  map[string]int{},
	}
	v.collectTypes(file)
	v.walkDecls(file)
	return model.ParseResult{Symbols: v.orderedSymbols(), Edges: v.edges}, nil
}

type goVisitor struct {
	fset       *token.FileSet
	moduleName string

	// symbols, kept separate by whether they're classes (struct/interface
	// types) or functions/methods so classes can be emitted before their
	// methods (ParseResult contract: containing classes before methods).
	classSymbols  []model.Symbol
	memberSymbols []model.Symbol
	edges         model.GraphEdges

	typeOrder map[string]int // type name -> index into classSymbols, for method attachment
}

func (v *goVisitor) orderedSymbols() []model.Symbol {
	out := make([]model.Symbol, 0, len(v.classSymbols)+len(v.memberSymbols))
	out = append(out, v.classSymbols...)
	out = append(out, v.memberSymbols...)
	return out
}

func (v *goVisitor) qualify(name string) string {
	return v.moduleName + "." + name
}

// collectTypes registers every top-level struct/interface type as a
// "class" symbol, so method declarations (which appear anywhere in the
// file, not necessarily after their type) can always find their parent.
func (v *goVisitor) collectTypes(file *ast.File) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			switch t := ts.Type.(type) {
			case *ast.StructType, *ast.InterfaceType:
				qualified := v.qualify(ts.Name.Name)
				sym := model.Symbol{
					Name:          ts.Name.Name,
					QualifiedName: qualified,
					Kind:          model.KindClass,
					LineStart:     v.fset.Position(ts.Pos()).Line,
					LineEnd:       v.fset.Position(ts.End()).Line,
					Signature:     typeSignature(ts, t),
					Docstring:     docOf(gd.Doc, ts.Doc),
				}
				if it, ok := t.(*ast.InterfaceType); ok {
					for _, iface := range embeddedInterfaces(it) {
						v.edges.Inherits = append(v.edges.Inherits, model.Inherit{
							ChildQualifiedName: qualified, ParentName: iface,
						})
					}
				}
				v.typeOrder[ts.Name.Name] = len(v.classSymbols)
				v.classSymbols = append(v.classSymbols, sym)
			}
		}
	}
}

func typeSignature(ts *ast.TypeSpec, t ast.Expr) string {
	switch t.(type) {
	case *ast.InterfaceType:
		return "type " + ts.Name.Name + " interface"
	default:
		return "type " + ts.Name.Name + " struct"
	}
}

func embeddedInterfaces(it *ast.InterfaceType) []string {
	var out []string
	if it.Methods == nil {
		return out
	}
	for _, f := range it.Methods.List {
		if len(f.Names) == 0 {
			if name := exprToName(f.Type); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func (v *goVisitor) walkDecls(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok == token.IMPORT {
				for _, spec := range d.Specs {
					is := spec.(*ast.ImportSpec)
					path := strings.Trim(is.Path.Value, `"`)
					name := ""
					if is.Name != nil {
						name = is.Name.Name
					}
					v.edges.Imports = append(v.edges.Imports, model.Import{
						FromQualifiedName: v.moduleName,
						ToModule:          path,
						ImportName:        name,
					})
				}
			}
		case *ast.FuncDecl:
			v.visitFunc(d)
		}
	}
}

func (v *goVisitor) visitFunc(fn *ast.FuncDecl) {
	receiver, isMethod := receiverTypeName(fn)
	kind := model.KindFunction
	qualified := v.qualify(fn.Name.Name)
	var parentQN string
	if isMethod {
		kind = model.KindMethod
		parentQN = v.qualify(receiver)
		qualified = parentQN + "." + fn.Name.Name
	}

	params := extractParams(fn.Type.Params)
	returnType := extractReturnType(fn.Type.Results)
	sig := buildSignature(fn, receiver, params, returnType)

	sym := model.Symbol{
		Name:                fn.Name.Name,
		QualifiedName:       qualified,
		Kind:                kind,
		LineStart:           v.fset.Position(fn.Pos()).Line,
		LineEnd:             v.fset.Position(fn.End()).Line,
		Signature:           sig,
		Docstring:           docOf(fn.Doc, nil),
		Parameters:          params,
		ReturnType:          returnType,
		ParentQualifiedName: parentQN,
	}
	v.memberSymbols = append(v.memberSymbols, sym)

	if fn.Body != nil {
		ce := &goCallExtractor{}
		for _, stmt := range fn.Body.List {
			ce.visitStmt(stmt)
		}
		for _, callee := range ce.calls {
			v.edges.Calls = append(v.edges.Calls, model.Call{
				CallerQualifiedName: qualified, CalleeName: callee,
			})
		}
	}
}

func receiverTypeName(fn *ast.FuncDecl) (string, bool) {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return "", false
	}
	t := fn.Recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	if ident, ok := t.(*ast.Ident); ok {
		return ident.Name, true
	}
	return "", false
}

func extractParams(fields *ast.FieldList) []model.Parameter {
	if fields == nil {
		return nil
	}
	var out []model.Parameter
	for _, f := range fields.List {
		typeStr := exprToString(f.Type)
		if len(f.Names) == 0 {
			out = append(out, model.Parameter{Name: "_", Type: typeStr})
			continue
		}
		for _, n := range f.Names {
			// Go has no receiver elision equivalent to self/cls; every
			// named parameter is kept.
			out = append(out, model.Parameter{Name: n.Name, Type: typeStr})
		}
	}
	return out
}

func extractReturnType(fields *ast.FieldList) string {
	if fields == nil || len(fields.List) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields.List))
	for _, f := range fields.List {
		parts = append(parts, exprToString(f.Type))
	}
	joined := strings.Join(parts, ", ")
	if len(fields.List) > 1 || (len(fields.List) == 1 && len(fields.List[0].Names) > 1) {
		return "(" + joined + ")"
	}
	return joined
}

func buildSignature(fn *ast.FuncDecl, receiver string, params []model.Parameter, returnType string) string {
	var b strings.Builder
	b.WriteString("func ")
	if receiver != "" {
		b.WriteString("(" + receiver + ") ")
	}
	b.WriteString(fn.Name.Name)
	b.WriteString("(")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Type != nil {
			b.WriteString(" " + *p.Type)
		}
	}
	b.WriteString(")")
	if returnType != "" {
		b.WriteString(" " + returnType)
	}
	return b.String()
}

func docOf(docs ...*ast.CommentGroup) string {
	for _, d := range docs {
		if d != nil {
			return strings.TrimSpace(d.Text())
		}
	}
	return ""
}

// goCallExtractor collects call-site callee names from a function body,
// the way original_source's _CallExtractor does: it does not descend into
// nested function literal bodies.
type goCallExtractor struct {
	calls []string
}

func (c *goCallExtractor) visitStmt(stmt ast.Stmt) {
	if stmt == nil {
		return
	}
	ast.Inspect(stmt, func(n ast.Node) bool {
		switch expr := n.(type) {
		case *ast.FuncLit:
			return false // don't descend into nested function literals
		case *ast.CallExpr:
			if name := exprToName(expr.Fun); name != "" {
				c.calls = append(c.calls, name)
			}
		}
		return true
	})
}

func exprToName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		if base := exprToName(t.X); base != "" {
			return base + "." + t.Sel.Name
		}
		return t.Sel.Name
	}
	return ""
}

func exprToString(e ast.Expr) *string {
	s := exprToName(e)
	if s == "" {
		s = rawExprFallback(e)
	}
	return &s
}

// rawExprFallback handles pointer/slice/map/etc type expressions that
// exprToName can't stringify structurally.
func rawExprFallback(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.StarExpr:
		return "*" + exprToName(t.X)
	case *ast.ArrayType:
		return "[]" + exprToName(t.Elt)
	case *ast.MapType:
		return "map[" + exprToName(t.Key) + "]" + exprToName(t.Value)
	case *ast.Ellipsis:
		return "..." + exprToName(t.Elt)
	case *ast.InterfaceType:
		return "interface{}"
	default:
		return ""
	}
}
