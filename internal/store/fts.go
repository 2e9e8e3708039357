package store

import "context"

// ScoredID pairs a symbol id with a relevance/similarity score. For
// FTSSearch, higher is better (the raw negative BM25 score is negated
// before it reaches the caller, matching searcher.go's "higher is better"
// convention across both retrieval sources).
type ScoredID struct {
	SymbolID int64
	Score    float64
}

// FTSSearch issues a MATCH against the FTS5 virtual table, ordered by raw
// BM25 ascending (best match first), and returns (symbol_id, -bm25) pairs
// so callers can always treat a larger score as a better match.
func (s *Store) FTSSearch(ctx context.Context, query string, limit int) ([]ScoredID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, bm25(symbols_fts) AS score
		FROM symbols_fts
		WHERE symbols_fts MATCH ?
		ORDER BY score
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoredID
	for rows.Next() {
		var id int64
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		out = append(out, ScoredID{SymbolID: id, Score: -score})
	}
	return out, rows.Err()
}
