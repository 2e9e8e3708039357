// Package store owns all persistent state for a codelibrarian index: an
// embedded SQLite database holding the files/symbols tables, an FTS5
// virtual table kept in sync via triggers, a sqlite-vec vec0 virtual table
// for embeddings, and the three graph-edge tables (imports/calls/inherits).
//
// The store is the single writer for a given database file;
// callers are expected to serialize mutating calls themselves (see
// internal/index's advisory file lock).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	cerrors "github.com/Aman-CERP/codelibrarian/internal/errors"
	"github.com/Aman-CERP/codelibrarian/internal/model"
)

func init() {
	sqlite_vec.Auto()
}

// Query limits, named rather than inlined, matching original_source/storage/store.py.
const (
	LookupLimit       = 20
	ListLimit         = 200
	EmbedBatchCeiling = 1000
	HierarchyDepth    = 5
)

// Store wraps the SQLite connection backing one repository's index.
type Store struct {
	db     *sql.DB
	dbPath string
	dim    int
	log    *slog.Logger
}

// Open connects to (creating if absent) the SQLite database at dbPath and
// ensures the schema, including the dimension-parametrized vec0 table, is
// present. A database created with a different embedding dimension than
// dim is left untouched by schema creation (CREATE ... IF NOT EXISTS is a
// no-op); dimension mismatches surface later, at embedding write time, as
// a hard error.
func Open(dbPath string, dim int, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeFilePermission, err)
		}
	}

	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeVectorExtension, "opening sqlite database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, cerrors.New(cerrors.ErrCodeVectorExtension, "pinging sqlite database (sqlite-vec extension may have failed to load)", err)
	}

	db.SetMaxOpenConns(1) // single-writer discipline
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, dbPath: dbPath, dim: dim, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return cerrors.StoreIntegrity("creating core schema", err)
	}
	if _, err := s.db.Exec(vecTableSQL(s.dim)); err != nil {
		return cerrors.StoreIntegrity("creating vector index table", err)
	}
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := s.db.Exec("INSERT INTO schema_version VALUES (?)", CurrentSchemaVersion); err != nil {
			return cerrors.StoreIntegrity("recording schema version", err)
		}
		version = CurrentSchemaVersion
	} else if err != nil {
		return cerrors.StoreIntegrity("reading schema version", err)
	}
	if version != CurrentSchemaVersion {
		return cerrors.New(cerrors.ErrCodeSchemaVersion,
			fmt.Sprintf("database schema version %d is not supported by this binary (expected %d)", version, CurrentSchemaVersion), nil)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for callers that need a raw
// connection; the core API above should be
// preferred everywhere else.
func (s *Store) DB() *sql.DB { return s.db }

// Dimension returns the embedding dimension this store was opened with.
func (s *Store) Dimension() int { return s.dim }

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.StoreIntegrity("beginning transaction", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --------------------------------------------------------------------- //
// Files
// --------------------------------------------------------------------- //

// UpsertFile inserts or updates a file row by path, returning its id.
// Idempotent by path: re-indexing an unchanged file is a no-op update.
func (s *Store) UpsertFile(ctx context.Context, path, relativePath, language string, lastModified float64, contentHash string) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			INSERT INTO files (path, relative_path, language, last_modified, content_hash)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				relative_path = excluded.relative_path,
				language      = excluded.language,
				last_modified = excluded.last_modified,
				content_hash  = excluded.content_hash
			RETURNING id
		`, path, relativePath, language, lastModified, contentHash).Scan(&id)
	})
	return id, err
}

// GetFileHash returns the stored content hash for path, or "" if the file
// is not yet indexed.
func (s *Store) GetFileHash(ctx context.Context, path string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT content_hash FROM files WHERE path = ?", path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash.String, nil
}

// GetFileID returns the id of the file at path, or 0 if not indexed.
func (s *Store) GetFileID(ctx context.Context, path string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM files WHERE path = ?", path).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// DeleteFileSymbols removes a file's symbols and their outgoing edges,
// nulling inbound callee/parent references from other files first so the
// self-referencing parent_id column never violates its foreign key
// constraint during the delete.
func (s *Store) DeleteFileSymbols(ctx context.Context, fileID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM imports WHERE from_file_id = ?", fileID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE calls SET callee_id = NULL WHERE callee_id IN
				(SELECT id FROM symbols WHERE file_id = ?)`, fileID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE inherits SET parent_id = NULL WHERE parent_id IN
				(SELECT id FROM symbols WHERE file_id = ?)`, fileID); err != nil {
			return err
		}
		// Children (method rows with parent_id set) must go before their
		// parent class rows, or the parent delete trips the FK.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM symbols WHERE file_id = ? AND parent_id IS NOT NULL", fileID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM symbols WHERE file_id = ?", fileID)
		return err
	})
}

// --------------------------------------------------------------------- //
// Symbols
// --------------------------------------------------------------------- //

// InsertSymbol inserts one symbol row and returns its id. parentID is nil
// for top-level symbols.
func (s *Store) InsertSymbol(ctx context.Context, sym model.Symbol, fileID int64, parentID *int64) (int64, error) {
	paramsJSON, err := sym.ParametersJSON()
	if err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err)
	}
	decJSON, err := sym.DecoratorsJSON()
	if err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO symbols
			(file_id, name, qualified_name, kind, line_start, line_end,
			 signature, docstring, parameters, return_type, decorators, parent_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, fileID, sym.Name, sym.QualifiedName, string(sym.Kind), sym.LineStart, sym.LineEnd,
		sym.Signature, sym.Docstring, paramsJSON, sym.ReturnType, decJSON, parentID)
	if err != nil {
		return 0, cerrors.StoreIntegrity("inserting symbol", err)
	}
	return res.LastInsertId()
}

// symbolSelectColumns is the column list shared by every query hydrating a
// model.SymbolRecord, always joined against files for path/relative_path.
const symbolSelectColumns = `
	s.id, s.file_id, s.name, s.qualified_name, s.kind,
	s.line_start, s.line_end, s.signature, s.docstring,
	s.parameters, s.decorators, s.return_type, s.parent_id,
	f.path, f.relative_path
`

func scanSymbolRecord(rows interface{ Scan(...any) error }) (model.SymbolRecord, error) {
	var r model.SymbolRecord
	var lineStart, lineEnd sql.NullInt64
	var signature, docstring, returnType sql.NullString
	var paramsJSON, decJSON string
	var parentID sql.NullInt64
	err := rows.Scan(
		&r.ID, &r.FileID, &r.Name, &r.QualifiedName, &r.Kind,
		&lineStart, &lineEnd, &signature, &docstring,
		&paramsJSON, &decJSON, &returnType, &parentID,
		&r.FilePath, &r.RelativePath,
	)
	if err != nil {
		return r, err
	}
	r.LineStart = int(lineStart.Int64)
	r.LineEnd = int(lineEnd.Int64)
	r.Signature = signature.String
	r.Docstring = docstring.String
	r.ReturnType = returnType.String
	if parentID.Valid {
		id := parentID.Int64
		r.ParentID = &id
	}
	if err := decodeParameters(paramsJSON, &r.Parameters); err != nil {
		return r, err
	}
	if err := decodeDecorators(decJSON, &r.Decorators); err != nil {
		return r, err
	}
	return r, nil
}

// GetSymbolByID hydrates a single symbol record, or nil if absent.
func (s *Store) GetSymbolByID(ctx context.Context, id int64) (*model.SymbolRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+symbolSelectColumns+`
		FROM symbols s JOIN files f ON s.file_id = f.id
		WHERE s.id = ?
	`, id)
	rec, err := scanSymbolRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetSymbolByQualifiedName hydrates a single symbol record by exact
// qualified name, or nil if absent.
func (s *Store) GetSymbolByQualifiedName(ctx context.Context, qname string) (*model.SymbolRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+symbolSelectColumns+`
		FROM symbols s JOIN files f ON s.file_id = f.id
		WHERE s.qualified_name = ?
	`, qname)
	rec, err := scanSymbolRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) querySymbols(ctx context.Context, query string, args ...any) ([]model.SymbolRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SymbolRecord
	for rows.Next() {
		rec, err := scanSymbolRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LookupSymbol returns exact matches on name or qualified_name, ordered by
// qualified-name length ascending, capped at LookupLimit. Empty (never
// nil-panicking) on no match.
func (s *Store) LookupSymbol(ctx context.Context, name string) ([]model.SymbolRecord, error) {
	return s.querySymbols(ctx, `
		SELECT `+symbolSelectColumns+`
		FROM symbols s JOIN files f ON s.file_id = f.id
		WHERE s.name = ? OR s.qualified_name = ?
		ORDER BY length(s.qualified_name)
		LIMIT ?
	`, name, name, LookupLimit)
}

// LookupSymbolPrefix falls back to a LIKE-based prefix/substring match when
// LookupSymbol finds nothing exact.
func (s *Store) LookupSymbolPrefix(ctx context.Context, name string) ([]model.SymbolRecord, error) {
	return s.querySymbols(ctx, `
		SELECT `+symbolSelectColumns+`
		FROM symbols s JOIN files f ON s.file_id = f.id
		WHERE s.name LIKE ? OR s.qualified_name LIKE ?
		ORDER BY length(s.qualified_name)
		LIMIT ?
	`, name+"%", "%"+name+"%", LookupLimit)
}

// ListSymbolsFilter conjunctively filters ListSymbols; zero-value fields
// are omitted from the WHERE clause.
type ListSymbolsFilter struct {
	Kind     string
	Pattern  string // matched against s.name via LIKE, caller supplies wildcards
	FilePath string
}

// ListSymbols returns symbols matching all set filters, ordered by
// qualified name, capped at ListLimit.
func (s *Store) ListSymbols(ctx context.Context, f ListSymbolsFilter) ([]model.SymbolRecord, error) {
	var conditions []string
	var args []any
	if f.Kind != "" {
		conditions = append(conditions, "s.kind = ?")
		args = append(args, f.Kind)
	}
	if f.Pattern != "" {
		conditions = append(conditions, "s.name LIKE ?")
		args = append(args, f.Pattern)
	}
	if f.FilePath != "" {
		conditions = append(conditions, "f.path = ?")
		args = append(args, f.FilePath)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE "
		for i, c := range conditions {
			if i > 0 {
				where += " AND "
			}
			where += c
		}
	}
	args = append(args, ListLimit)
	return s.querySymbols(ctx, `
		SELECT `+symbolSelectColumns+`
		FROM symbols s JOIN files f ON s.file_id = f.id
		`+where+`
		ORDER BY s.qualified_name
		LIMIT ?
	`, args...)
}

// GetMethodsForClass returns every method symbol whose parent is the class
// identified by its qualified name.
func (s *Store) GetMethodsForClass(ctx context.Context, classQualifiedName string) ([]model.SymbolRecord, error) {
	return s.querySymbols(ctx, `
		SELECT `+symbolSelectColumns+`
		FROM symbols s
		JOIN files f ON s.file_id = f.id
		JOIN symbols parent ON s.parent_id = parent.id
		WHERE parent.qualified_name = ? AND s.kind = 'method'
		ORDER BY s.name
	`, classQualifiedName)
}

// --------------------------------------------------------------------- //
// Stats
// --------------------------------------------------------------------- //

// Stats summarizes the current index state for the CLI "status" command.
type Stats struct {
	Files      int
	Functions  int
	Methods    int
	Classes    int
	Modules    int
	Embeddings int
}

// Stats returns symbol/file/embedding counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM files", &st.Files},
		{"SELECT COUNT(*) FROM symbols WHERE kind = 'function'", &st.Functions},
		{"SELECT COUNT(*) FROM symbols WHERE kind = 'method'", &st.Methods},
		{"SELECT COUNT(*) FROM symbols WHERE kind = 'class'", &st.Classes},
		{"SELECT COUNT(*) FROM symbols WHERE kind = 'module'", &st.Modules},
		{"SELECT COUNT(*) FROM symbol_embeddings", &st.Embeddings},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return st, cerrors.StoreIntegrity("computing stats", err)
		}
	}
	return st, nil
}
