// Package parse turns source files into model.ParseResult values: the
// symbols and graph edges the indexer persists. Two back-ends exist — a
// native go/ast walker for Go source, and a tree-sitter-backed walker for
// every other configured language — selected by extension at construction
// time.
package parse

import "github.com/Aman-CERP/codelibrarian/internal/model"

// Parser is the single capability every back-end exposes: turn one file's
// source into symbols and edges. Implementations never return an error for
// a syntax error in the source — they return an empty ParseResult; Parse
// only errors for conditions outside the source itself (e.g. an
// unrecognized language).
type Parser interface {
	Parse(filePath, source, moduleName string) (model.ParseResult, error)
}

// emptyResult is returned whenever a back-end hits a syntax error or an
// otherwise unparseable file.
func emptyResult() model.ParseResult {
	return model.ParseResult{Symbols: nil, Edges: model.GraphEdges{}}
}
