// Package mcpserver exposes the searcher and store over the Model
// Context Protocol's stdio transport: the nine tools spec.md §6 names
// (search_code, lookup_symbol, get_callers, get_callees,
// get_file_imports, list_symbols, get_class_hierarchy, count_callers,
// count_callees). Grounded on the teacher's internal/mcp/server.go (tool
// registration via mcp.AddTool, typed input/output structs,
// *mcp.Server/mcp.StdioTransport) and original_source/mcp_server.py's
// tool set and dispatch semantics (JSON results, {"error": "..."} on
// failure rather than a transport-level error).
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/codelibrarian/internal/config"
	"github.com/Aman-CERP/codelibrarian/internal/embedclient"
	"github.com/Aman-CERP/codelibrarian/internal/model"
	"github.com/Aman-CERP/codelibrarian/internal/search"
	"github.com/Aman-CERP/codelibrarian/internal/store"
	"github.com/Aman-CERP/codelibrarian/pkg/version"
)

// Server wraps a Searcher behind the MCP stdio transport.
type Server struct {
	mcp      *mcp.Server
	searcher *search.Searcher
}

// New constructs a Server. embedder may be nil — the searcher then
// skips its semantic leg (full-text results only; a semantic-only search
// returns nothing). cfg is unused beyond
// construction today but kept for parity with the teacher's NewServer
// signature and to give future tools (e.g. root-relative path
// resolution) somewhere to read from.
func New(st *store.Store, embedder *embedclient.Client, cfg *config.Config) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("mcpserver: store is required")
	}
	_ = cfg

	var searchEmbedder search.Embedder
	if embedder != nil {
		searchEmbedder = embedder
	}
	s := &Server{searcher: search.New(st, searchEmbedder)}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "codelibrarian",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s, nil
}

// ServeStdio runs the server until the context is canceled or the client
// disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "search_code",
		Description: "Hybrid semantic + full-text search across all indexed code symbols. " +
			"Returns functions, methods, and classes matching the query with file path and line number.",
	}, s.handleSearchCode)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "lookup_symbol",
		Description: "Look up a code symbol by exact name or qualified name. Returns full " +
			"signature, docstring, parameters, return type, file path and line number.",
	}, s.handleLookupSymbol)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_callers",
		Description: "Find all functions/methods that call the specified symbol.",
	}, s.handleGetCallers)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_callees",
		Description: "Find all functions/methods called by the specified symbol.",
	}, s.handleGetCallees)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_file_imports",
		Description: "Show what modules a file imports and what other files import it.",
	}, s.handleGetFileImports)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "list_symbols",
		Description: "List symbols filtered by kind, name pattern, or file. Useful for " +
			"structural queries like 'all classes in module x'.",
	}, s.handleListSymbols)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_class_hierarchy",
		Description: "Get the inheritance hierarchy for a class: its parent classes and all known subclasses.",
	}, s.handleGetClassHierarchy)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "count_callers",
		Description: "Count how many functions/methods call the specified symbol, without hydrating each one.",
	}, s.handleCountCallers)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "count_callees",
		Description: "Count how many functions/methods are called by the specified symbol, without hydrating each one.",
	}, s.handleCountCallees)
}

// SymbolOutput is the JSON shape returned for a symbol by every tool that
// hydrates full symbol records.
type SymbolOutput struct {
	Name          string        `json:"name"`
	QualifiedName string        `json:"qualified_name"`
	Kind          string        `json:"kind"`
	RelativePath  string        `json:"relative_path"`
	LineStart     int           `json:"line_start"`
	LineEnd       int           `json:"line_end"`
	Signature     string        `json:"signature,omitempty"`
	Docstring     string        `json:"docstring,omitempty"`
	Parameters    []ParamOutput `json:"parameters,omitempty"`
	ReturnType    string        `json:"return_type,omitempty"`
	Decorators    []string      `json:"decorators,omitempty"`
}

// ParamOutput is one parameter in a SymbolOutput.
type ParamOutput struct {
	Name    string  `json:"name"`
	Type    *string `json:"type,omitempty"`
	Default *string `json:"default,omitempty"`
}

func toSymbolOutput(s model.SymbolRecord) SymbolOutput {
	params := make([]ParamOutput, len(s.Parameters))
	for i, p := range s.Parameters {
		params[i] = ParamOutput{Name: p.Name, Type: p.Type, Default: p.Default}
	}
	return SymbolOutput{
		Name:          s.Name,
		QualifiedName: s.QualifiedName,
		Kind:          string(s.Kind),
		RelativePath:  s.RelativePath,
		LineStart:     s.LineStart,
		LineEnd:       s.LineEnd,
		Signature:     s.Signature,
		Docstring:     s.Docstring,
		Parameters:    params,
		ReturnType:    s.ReturnType,
		Decorators:    s.Decorators,
	}
}

func toSymbolOutputs(records []model.SymbolRecord) []SymbolOutput {
	out := make([]SymbolOutput, len(records))
	for i, r := range records {
		out[i] = toSymbolOutput(r)
	}
	return out
}

// SearchResultOutput is one hit from search_code, carrying the retrieval
// score and match mechanism alongside the symbol.
type SearchResultOutput struct {
	Symbol    SymbolOutput `json:"symbol"`
	Score     float64      `json:"score"`
	MatchType string       `json:"match_type"`
}

// --- search_code ---

type SearchCodeInput struct {
	Query string `json:"query" jsonschema:"Natural language or keyword search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results to return,default=10"`
	Mode  string `json:"mode,omitempty" jsonschema:"Search mode: hybrid, semantic, or fulltext,default=hybrid"`
}

type SearchCodeOutput struct {
	Results []SearchResultOutput `json:"results,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func (s *Server) handleSearchCode(ctx context.Context, _ *mcp.CallToolRequest, in SearchCodeInput) (*mcp.CallToolResult, SearchCodeOutput, error) {
	if in.Query == "" {
		return nil, SearchCodeOutput{Error: "query is required"}, nil
	}
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}
	results, err := s.searcher.Search(ctx, in.Query, search.Options{
		Limit:        limit,
		SemanticOnly: in.Mode == "semantic",
		TextOnly:     in.Mode == "fulltext",
	})
	if err != nil {
		return nil, SearchCodeOutput{Error: err.Error()}, nil
	}
	out := SearchCodeOutput{Results: make([]SearchResultOutput, len(results))}
	for i, r := range results {
		out.Results[i] = SearchResultOutput{
			Symbol:    toSymbolOutput(r.Symbol),
			Score:     r.Score,
			MatchType: string(r.MatchType),
		}
	}
	return nil, out, nil
}

// --- lookup_symbol ---

type LookupSymbolInput struct {
	Name string `json:"name" jsonschema:"Symbol name (e.g. 'parseConfig' or 'MyClass.myMethod')"`
}

type LookupSymbolOutput struct {
	Symbols []SymbolOutput `json:"symbols,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) handleLookupSymbol(ctx context.Context, _ *mcp.CallToolRequest, in LookupSymbolInput) (*mcp.CallToolResult, LookupSymbolOutput, error) {
	if in.Name == "" {
		return nil, LookupSymbolOutput{Error: "name is required"}, nil
	}
	symbols, err := s.searcher.LookupSymbol(ctx, in.Name)
	if err != nil {
		return nil, LookupSymbolOutput{Error: err.Error()}, nil
	}
	return nil, LookupSymbolOutput{Symbols: toSymbolOutputs(symbols)}, nil
}

// --- get_callers / get_callees ---

type CallGraphInput struct {
	QualifiedName string `json:"qualified_name" jsonschema:"Qualified name of the symbol"`
	Depth         int    `json:"depth,omitempty" jsonschema:"How many call-graph hops to traverse,default=1"`
}

type CallGraphOutput struct {
	Symbols []SymbolOutput `json:"symbols,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) handleGetCallers(ctx context.Context, _ *mcp.CallToolRequest, in CallGraphInput) (*mcp.CallToolResult, CallGraphOutput, error) {
	return s.callGraphTool(ctx, in, s.searcher.GetCallers)
}

func (s *Server) handleGetCallees(ctx context.Context, _ *mcp.CallToolRequest, in CallGraphInput) (*mcp.CallToolResult, CallGraphOutput, error) {
	return s.callGraphTool(ctx, in, s.searcher.GetCallees)
}

func (s *Server) callGraphTool(ctx context.Context, in CallGraphInput, fn func(context.Context, string, int) ([]model.SymbolRecord, error)) (*mcp.CallToolResult, CallGraphOutput, error) {
	if in.QualifiedName == "" {
		return nil, CallGraphOutput{Error: "qualified_name is required"}, nil
	}
	depth := in.Depth
	if depth <= 0 {
		depth = 1
	}
	symbols, err := fn(ctx, in.QualifiedName, depth)
	if err != nil {
		return nil, CallGraphOutput{Error: err.Error()}, nil
	}
	return nil, CallGraphOutput{Symbols: toSymbolOutputs(symbols)}, nil
}

// --- count_callers / count_callees ---

type CountOutput struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleCountCallers(ctx context.Context, _ *mcp.CallToolRequest, in CallGraphInput) (*mcp.CallToolResult, CountOutput, error) {
	_, out, _ := s.handleGetCallers(ctx, nil, in)
	return nil, CountOutput{Count: len(out.Symbols), Error: out.Error}, nil
}

func (s *Server) handleCountCallees(ctx context.Context, _ *mcp.CallToolRequest, in CallGraphInput) (*mcp.CallToolResult, CountOutput, error) {
	_, out, _ := s.handleGetCallees(ctx, nil, in)
	return nil, CountOutput{Count: len(out.Symbols), Error: out.Error}, nil
}

// --- get_file_imports ---

type FileImportsInput struct {
	FilePath string `json:"file_path" jsonschema:"Path to the file, relative or absolute"`
}

type FileImportOutput struct {
	ToModule     string `json:"to_module"`
	ImportName   string `json:"import_name,omitempty"`
	ResolvedPath string `json:"resolved_path,omitempty"`
}

type FileImportedByOutput struct {
	Path         string `json:"path"`
	RelativePath string `json:"relative_path"`
}

type FileImportsOutput struct {
	Imports    []FileImportOutput     `json:"imports"`
	ImportedBy []FileImportedByOutput `json:"imported_by"`
}

func (s *Server) handleGetFileImports(ctx context.Context, _ *mcp.CallToolRequest, in FileImportsInput) (*mcp.CallToolResult, FileImportsOutput, error) {
	if in.FilePath == "" {
		return nil, FileImportsOutput{}, fmt.Errorf("file_path is required")
	}
	imports, err := s.searcher.GetFileImports(ctx, in.FilePath)
	if err != nil {
		return nil, FileImportsOutput{}, err
	}
	out := FileImportsOutput{
		Imports:    make([]FileImportOutput, len(imports.Imports)),
		ImportedBy: make([]FileImportedByOutput, len(imports.ImportedBy)),
	}
	for i, imp := range imports.Imports {
		out.Imports[i] = FileImportOutput{ToModule: imp.ToModule, ImportName: imp.ImportName, ResolvedPath: imp.ResolvedPath}
	}
	for i, ib := range imports.ImportedBy {
		out.ImportedBy[i] = FileImportedByOutput{Path: ib.Path, RelativePath: ib.RelativePath}
	}
	return nil, out, nil
}

// --- list_symbols ---

type ListSymbolsInput struct {
	Kind     string `json:"kind,omitempty" jsonschema:"Filter by symbol kind: function, method, class, or module"`
	Pattern  string `json:"pattern,omitempty" jsonschema:"SQL LIKE pattern for name filtering (e.g. 'get_%')"`
	FilePath string `json:"file_path,omitempty" jsonschema:"Filter to symbols in this file"`
}

type ListSymbolsOutput struct {
	Symbols []SymbolOutput `json:"symbols"`
}

func (s *Server) handleListSymbols(ctx context.Context, _ *mcp.CallToolRequest, in ListSymbolsInput) (*mcp.CallToolResult, ListSymbolsOutput, error) {
	symbols, err := s.searcher.ListSymbols(ctx, store.ListSymbolsFilter{
		Kind: in.Kind, Pattern: in.Pattern, FilePath: in.FilePath,
	})
	if err != nil {
		return nil, ListSymbolsOutput{}, err
	}
	return nil, ListSymbolsOutput{Symbols: toSymbolOutputs(symbols)}, nil
}

// --- get_class_hierarchy ---

type ClassHierarchyInput struct {
	ClassName string `json:"class_name" jsonschema:"Class name or qualified class name"`
}

type ClassRefOutput struct {
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name"`
	RelativePath  string `json:"relative_path"`
}

type ClassHierarchyOutput struct {
	Class    *ClassRefOutput  `json:"class"`
	Parents  []ClassRefOutput `json:"parents"`
	Children []ClassRefOutput `json:"children"`
}

func (s *Server) handleGetClassHierarchy(ctx context.Context, _ *mcp.CallToolRequest, in ClassHierarchyInput) (*mcp.CallToolResult, ClassHierarchyOutput, error) {
	if in.ClassName == "" {
		return nil, ClassHierarchyOutput{}, fmt.Errorf("class_name is required")
	}
	h, err := s.searcher.GetClassHierarchy(ctx, in.ClassName)
	if err != nil {
		return nil, ClassHierarchyOutput{}, err
	}
	out := ClassHierarchyOutput{
		Parents:  make([]ClassRefOutput, len(h.Parents)),
		Children: make([]ClassRefOutput, len(h.Children)),
	}
	if h.Class != nil {
		out.Class = &ClassRefOutput{Name: h.Class.Name, QualifiedName: h.Class.QualifiedName, RelativePath: h.Class.RelativePath}
	}
	for i, p := range h.Parents {
		out.Parents[i] = ClassRefOutput{Name: p.Name, QualifiedName: p.QualifiedName, RelativePath: p.RelativePath}
	}
	for i, c := range h.Children {
		out.Children[i] = ClassRefOutput{Name: c.Name, QualifiedName: c.QualifiedName, RelativePath: c.RelativePath}
	}
	return nil, out, nil
}
