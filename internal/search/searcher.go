// Package search answers every read-side query over an index: hybrid
// BM25+vector retrieval with natural-language graph-intent routing, plus
// thin passthroughs to the store's symbol lookup and graph queries.
// Grounded on original_source/searcher.py's Searcher class, restyled as
// a package wrapping internal/store the way the teacher's pkg/searcher
// wraps its own retrieval engine.
package search

import (
	"context"
	"sort"

	"github.com/Aman-CERP/codelibrarian/internal/model"
	"github.com/Aman-CERP/codelibrarian/internal/store"
)

// bm25Scale brings typical BM25 scores into roughly [0, 1] so they're
// comparable to cosine similarity. Ported from the original's
// _BM25_SCALE: BM25 scores for short documents rarely exceed this value.
const bm25Scale = 10.0

// Embedder is the single capability Search needs for the semantic leg.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Searcher answers queries against one Store. embedder may be nil, in
// which case the semantic leg never runs: a search returns full-text
// results only, and a SemanticOnly search returns no results.
type Searcher struct {
	store    *store.Store
	embedder Embedder
}

// New constructs a Searcher.
func New(st *store.Store, embedder Embedder) *Searcher {
	return &Searcher{store: st, embedder: embedder}
}

// Options adjusts how Search blends its two retrieval legs.
type Options struct {
	Limit        int
	SemanticOnly bool
	TextOnly     bool
}

// Search is the primary entry point: first tries to classify the query
// as a graph navigation question ("who calls X", "subclasses of Y"), and
// only falls through to hybrid BM25+vector retrieval if no graph intent
// matched or the named symbol doesn't exist.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]model.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	if kind, symbolName, ok := classifyIntent(query); ok {
		results, matched, err := s.dispatchGraph(ctx, kind, symbolName, limit)
		if err != nil {
			return nil, err
		}
		if matched {
			return results, nil
		}
	}

	return s.hybridSearch(ctx, query, limit, opts.SemanticOnly, opts.TextOnly)
}

func (s *Searcher) hybridSearch(ctx context.Context, query string, limit int, semanticOnly, textOnly bool) ([]model.SearchResult, error) {
	ftsHits := make(map[int64]float64)
	vecHits := make(map[int64]float64)

	if !textOnly && s.embedder != nil {
		queryVec, err := s.embedder.EmbedOne(ctx, query)
		if err != nil {
			return nil, err
		}
		if queryVec != nil {
			hits, err := s.store.VectorSearch(ctx, queryVec, limit*2)
			if err != nil {
				return nil, err
			}
			for _, h := range hits {
				// Cosine distance ranges 0 (identical) to 2 (opposite);
				// convert to a 0-1 similarity score.
				sim := 1.0 - h.Score/2.0
				if sim < 0 {
					sim = 0
				}
				vecHits[h.SymbolID] = sim
			}
		}
	}

	if !semanticOnly {
		if safeQuery := fts5Query(query, false); safeQuery != "" {
			hits, err := s.store.FTSSearch(ctx, safeQuery, limit*2)
			if err != nil {
				return nil, err
			}
			for _, h := range hits {
				ftsHits[h.SymbolID] = minFloat(h.Score/bm25Scale, 1.0)
			}
		}
		// If AND matched nothing, fall back to OR so partial matches surface.
		if len(ftsHits) == 0 {
			if orQuery := fts5Query(query, true); orQuery != "" {
				hits, err := s.store.FTSSearch(ctx, orQuery, limit*2)
				if err != nil {
					return nil, err
				}
				for _, h := range hits {
					ftsHits[h.SymbolID] = minFloat(h.Score/bm25Scale, 1.0)
				}
			}
		}
	}

	type scored struct {
		id        int64
		score     float64
		matchType model.MatchType
	}

	ids := make(map[int64]bool, len(ftsHits)+len(vecHits))
	for id := range ftsHits {
		ids[id] = true
	}
	for id := range vecHits {
		ids[id] = true
	}

	var ranked []scored
	for id := range ids {
		ftsScore := ftsHits[id]
		vecScore := vecHits[id]
		sources := 0
		if ftsScore > 0 {
			sources++
		}
		if vecScore > 0 {
			sources++
		}
		if sources == 0 {
			continue
		}
		combined := (ftsScore + vecScore) / float64(sources)
		matchType := model.MatchSemantic
		switch {
		case ftsScore > 0 && vecScore > 0:
			matchType = model.MatchHybrid
		case ftsScore > 0:
			matchType = model.MatchFulltext
		}
		ranked = append(ranked, scored{id: id, score: combined, matchType: matchType})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]model.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		sym, err := s.store.GetSymbolByID(ctx, r.id)
		if err != nil {
			return nil, err
		}
		if sym == nil {
			continue
		}
		results = append(results, model.SearchResult{Symbol: *sym, Score: r.score, MatchType: r.matchType})
	}
	return results, nil
}

// dispatchGraph resolves a classified intent to a graph query. matched is
// false when the named symbol (or class) doesn't exist, signaling the
// caller to fall back to hybrid retrieval instead.
func (s *Searcher) dispatchGraph(ctx context.Context, kind intentKind, symbolName string, limit int) ([]model.SearchResult, bool, error) {
	switch kind {
	case intentCallers, intentCallees:
		exact, err := s.store.LookupSymbol(ctx, symbolName)
		if err != nil {
			return nil, false, err
		}
		if len(exact) == 0 {
			return nil, false, nil
		}
		var symbols []model.SymbolRecord
		if kind == intentCallers {
			symbols, err = s.store.GetCallers(ctx, symbolName, 1)
		} else {
			symbols, err = s.store.GetCallees(ctx, symbolName, 1)
		}
		if err != nil {
			return nil, false, err
		}
		if len(symbols) > limit {
			symbols = symbols[:limit]
		}
		return graphResults(symbols), true, nil

	case intentHierarchy:
		hierarchy, err := s.store.GetClassHierarchy(ctx, symbolName)
		if err != nil {
			return nil, false, err
		}
		if hierarchy.Class == nil {
			return nil, false, nil
		}
		var results []model.SearchResult
		for _, ref := range append(append([]store.ClassRef{}, hierarchy.Parents...), hierarchy.Children...) {
			syms, err := s.store.LookupSymbol(ctx, ref.QualifiedName)
			if err != nil {
				return nil, false, err
			}
			if len(syms) > 0 {
				results = append(results, model.SearchResult{Symbol: syms[0], Score: 1.0, MatchType: model.MatchGraph})
			}
		}
		if len(results) == 0 {
			return nil, false, nil
		}
		if len(results) > limit {
			results = results[:limit]
		}
		return results, true, nil
	}
	return nil, false, nil
}

func graphResults(symbols []model.SymbolRecord) []model.SearchResult {
	out := make([]model.SearchResult, len(symbols))
	for i, sym := range symbols {
		out[i] = model.SearchResult{Symbol: sym, Score: 1.0, MatchType: model.MatchGraph}
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// LookupSymbol returns exact matches on name/qualified name, falling back
// to a prefix/substring match if nothing matches exactly.
func (s *Searcher) LookupSymbol(ctx context.Context, name string) ([]model.SymbolRecord, error) {
	exact, err := s.store.LookupSymbol(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact, nil
	}
	return s.store.LookupSymbolPrefix(ctx, name)
}

// GetCallers returns symbols (transitively, up to depth hops) calling qname.
func (s *Searcher) GetCallers(ctx context.Context, qname string, depth int) ([]model.SymbolRecord, error) {
	return s.store.GetCallers(ctx, qname, depth)
}

// GetCallees returns symbols (transitively, up to depth hops) called by qname.
func (s *Searcher) GetCallees(ctx context.Context, qname string, depth int) ([]model.SymbolRecord, error) {
	return s.store.GetCallees(ctx, qname, depth)
}

// GetFileImports returns both directions of the import graph for one file.
func (s *Searcher) GetFileImports(ctx context.Context, filePath string) (store.FileImports, error) {
	return s.store.GetFileImports(ctx, filePath)
}

// ListSymbols returns symbols matching the given filter.
func (s *Searcher) ListSymbols(ctx context.Context, filter store.ListSymbolsFilter) ([]model.SymbolRecord, error) {
	return s.store.ListSymbols(ctx, filter)
}

// GetClassHierarchy returns a class's ancestors and descendants.
func (s *Searcher) GetClassHierarchy(ctx context.Context, className string) (store.ClassHierarchy, error) {
	return s.store.GetClassHierarchy(ctx, className)
}
