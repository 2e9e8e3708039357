// Package model holds the data types shared across the indexer, store, and
// searcher: parsed symbols, graph edges, and search results.
package model

import "encoding/json"

// SymbolKind identifies what kind of code symbol a Symbol represents.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindMethod   SymbolKind = "method"
	KindClass    SymbolKind = "class"
	KindModule   SymbolKind = "module"
)

// MatchType identifies how a SearchResult was produced.
type MatchType string

const (
	MatchFulltext MatchType = "fulltext"
	MatchSemantic MatchType = "semantic"
	MatchHybrid   MatchType = "hybrid"
	MatchGraph    MatchType = "graph"
)

// Parameter is a single function/method parameter. Self/cls receivers are
// elided by the parser before a Parameter is ever constructed.
type Parameter struct {
	Name    string  `json:"name"`
	Type    *string `json:"type"`
	Default *string `json:"default"`
}

// Symbol is a parsed code symbol: a function, method, class, or module.
type Symbol struct {
	Name                string
	QualifiedName       string
	Kind                SymbolKind
	FilePath            string
	LineStart           int
	LineEnd             int
	Signature           string
	Docstring           string
	Parameters          []Parameter
	ReturnType          string
	Decorators          []string
	ParentQualifiedName string // qualified name of the containing class, if any
}

// ParametersJSON serializes Parameters the way the store persists them.
func (s *Symbol) ParametersJSON() (string, error) {
	if s.Parameters == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s.Parameters)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecoratorsJSON serializes Decorators the way the store persists them.
func (s *Symbol) DecoratorsJSON() (string, error) {
	if s.Decorators == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s.Decorators)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EmbeddingText returns the signature+docstring text that the embedder
// turns into a vector, truncated to maxChars.
func (s *Symbol) EmbeddingText(maxChars int) string {
	text := s.Signature
	if s.Docstring != "" {
		text += "\n" + s.Docstring
	}
	if len(text) > maxChars {
		return text[:maxChars]
	}
	return text
}

// Import is a single import edge discovered in a file: the importing
// qualified name (usually the module itself), the imported module path,
// and, for "from X import Y" style imports, the imported name.
type Import struct {
	FromQualifiedName string
	ToModule          string
	ImportName        string // empty when the whole module is imported
}

// Call is a single call edge: caller qualified name to the textual name of
// the callee, resolved against known symbols in a later pass.
type Call struct {
	CallerQualifiedName string
	CalleeName          string
}

// Inherit is a single inheritance edge: child class qualified name to the
// textual name of its base class.
type Inherit struct {
	ChildQualifiedName string
	ParentName         string
}

// GraphEdges holds all graph relationships extracted from a single file.
type GraphEdges struct {
	Imports  []Import
	Calls    []Call
	Inherits []Inherit
}

// ParseResult is the output of parsing a single file.
type ParseResult struct {
	Symbols []Symbol
	Edges   GraphEdges
}

// FileRecord is a file row as stored in and retrieved from the database.
type FileRecord struct {
	ID           int64
	Path         string
	RelativePath string
	Language     string
	LastModified float64
	ContentHash  string
}

// SymbolRecord is a symbol as stored in and retrieved from the database.
type SymbolRecord struct {
	ID                  int64
	FileID              int64
	Name                string
	QualifiedName       string
	Kind                SymbolKind
	FilePath            string
	RelativePath        string
	LineStart           int
	LineEnd             int
	Signature           string
	Docstring           string
	Parameters          []Parameter
	ReturnType          string
	Decorators          []string
	ParentID            *int64
}

// SearchResult pairs a stored symbol with a retrieval score and the
// mechanism (fulltext, semantic, hybrid, or graph) that produced it.
type SearchResult struct {
	Symbol    SymbolRecord
	Score     float64
	MatchType MatchType
}
