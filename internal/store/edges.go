package store

import (
	"context"
	"database/sql"
)

// InsertImport records a raw (unresolved) import edge. Idempotent by its
// natural key (from_file_id, to_module, import_name).
func (s *Store) InsertImport(ctx context.Context, fromFileID int64, toModule, importName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO imports (from_file_id, to_module, import_name)
		VALUES (?, ?, ?)
	`, fromFileID, toModule, importName)
	return err
}

// InsertCall records a raw (unresolved) call edge. Idempotent by its
// natural key (caller_id, callee_name).
func (s *Store) InsertCall(ctx context.Context, callerID int64, calleeName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO calls (caller_id, callee_name) VALUES (?, ?)
	`, callerID, calleeName)
	return err
}

// InsertInherit records a raw (unresolved) inheritance edge. Idempotent by
// its natural key (child_id, parent_name).
func (s *Store) InsertInherit(ctx context.Context, childID int64, parentName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO inherits (child_id, parent_name) VALUES (?, ?)
	`, childID, parentName)
	return err
}

// FileImport is one import edge leaving a file.
type FileImport struct {
	ToModule     string
	ImportName   string
	ResolvedPath string // empty when to_file_id is unresolved
}

type FileImportedBy struct {
	Path         string
	RelativePath string
}

type FileImports struct {
	Imports    []FileImport
	ImportedBy []FileImportedBy
}

// GetFileImports returns both directions of the import graph for one file.
func (s *Store) GetFileImports(ctx context.Context, filePath string) (FileImports, error) {
	var out FileImports
	// filePath may be the absolute or the root-relative path.
	var fileID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM files WHERE path = ? OR relative_path = ? LIMIT 1",
		filePath, filePath).Scan(&fileID)
	if err == sql.ErrNoRows {
		return out, nil
	}
	if err != nil {
		return out, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.to_module, i.import_name, COALESCE(f.relative_path, '')
		FROM imports i
		LEFT JOIN files f ON i.to_file_id = f.id
		WHERE i.from_file_id = ?
		ORDER BY i.to_module
	`, fileID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var fi FileImport
		if err := rows.Scan(&fi.ToModule, &fi.ImportName, &fi.ResolvedPath); err != nil {
			return out, err
		}
		out.Imports = append(out.Imports, fi)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	rows2, err := s.db.QueryContext(ctx, `
		SELECT f.path, f.relative_path
		FROM imports i
		JOIN files f ON i.from_file_id = f.id
		WHERE i.to_file_id = ?
	`, fileID)
	if err != nil {
		return out, err
	}
	defer rows2.Close()
	for rows2.Next() {
		var ib FileImportedBy
		if err := rows2.Scan(&ib.Path, &ib.RelativePath); err != nil {
			return out, err
		}
		out.ImportedBy = append(out.ImportedBy, ib)
	}
	return out, rows2.Err()
}

// ImportEdge is one resolved file-to-file import dependency.
type ImportEdge struct {
	FromPath string
	ToPath   string
}

// GetAllImportEdges returns every import edge whose target file has been
// resolved, as relative-path pairs — the input to the module import-graph
// diagram.
func (s *Store) GetAllImportEdges(ctx context.Context) ([]ImportEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT f1.relative_path, f2.relative_path
		FROM imports i
		JOIN files f1 ON i.from_file_id = f1.id
		JOIN files f2 ON i.to_file_id = f2.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ImportEdge
	for rows.Next() {
		var e ImportEdge
		if err := rows.Scan(&e.FromPath, &e.ToPath); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
