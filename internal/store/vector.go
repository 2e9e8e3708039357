package store

import (
	"context"
	"encoding/binary"
	"math"

	cerrors "github.com/Aman-CERP/codelibrarian/internal/errors"
)

// serializeFloat32 packs a float32 slice into the little-endian byte
// layout sqlite-vec expects for a vec0 MATCH/INSERT parameter. Ported
// byte-for-byte from bbiangul-go-reason/store/store.go rather than using
// the sqlite-vec package's own serializer, to match the observed
// teacher-adjacent texture (see DESIGN.md).
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// UpsertEmbedding replaces the stored vector for a symbol. dim must equal
// the store's configured dimension; a mismatch is
// a hard error rather than a silently truncated/padded write.
func (s *Store) UpsertEmbedding(ctx context.Context, symbolID int64, embedding []float32) error {
	if len(embedding) != s.dim {
		return cerrors.DimensionMismatch(len(embedding), s.dim)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO symbol_embeddings (symbol_id, embedding) VALUES (?, ?)
	`, symbolID, serializeFloat32(embedding))
	return err
}

// VectorSearch performs a k-NN lookup over the vec0 table under its native
// (cosine) distance metric, ascending (closest first).
func (s *Store) VectorSearch(ctx context.Context, query []float32, limit int) ([]ScoredID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol_id, distance
		FROM symbol_embeddings
		WHERE embedding MATCH ?
		ORDER BY distance
		LIMIT ?
	`, serializeFloat32(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoredID
	for rows.Next() {
		var id int64
		var dist float64
		if err := rows.Scan(&id, &dist); err != nil {
			return nil, err
		}
		out = append(out, ScoredID{SymbolID: id, Score: dist})
	}
	return out, rows.Err()
}

// RecreateVectorTable drops and recreates the symbol_embeddings table at
// the store's configured dimension, discarding every stored vector. Used
// by a full re-embedding run (the indexer's --reembed path), mirroring
// the original implementation's behavior of rebuilding its vec0 table
// from scratch rather than trying to migrate vectors between dimensions.
func (s *Store) RecreateVectorTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS symbol_embeddings"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, vecTableSQL(s.dim))
	return err
}

// PendingSymbol is one row needing an embedding: just enough text to embed.
type PendingSymbol struct {
	ID        int64
	Signature string
	Docstring string
}

// SymbolsWithoutEmbeddings left-anti-joins symbols against the embedding
// table, returning up to limit rows lacking a vector.
func (s *Store) SymbolsWithoutEmbeddings(ctx context.Context, limit int) ([]PendingSymbol, error) {
	if limit <= 0 {
		limit = EmbedBatchCeiling
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, COALESCE(s.signature, ''), COALESCE(s.docstring, '')
		FROM symbols s
		LEFT JOIN symbol_embeddings e ON s.id = e.symbol_id
		WHERE e.symbol_id IS NULL
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingSymbol
	for rows.Next() {
		var p PendingSymbol
		if err := rows.Scan(&p.ID, &p.Signature, &p.Docstring); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
