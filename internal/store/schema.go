package store

import "fmt"

// schemaSQL returns the DDL for the core schema: files, symbols (with FTS5
// content-table triggers), and the three graph-edge tables. dim controls
// the dimension of the companion vec0 embedding table, created separately
// since sqlite-vec's virtual table syntax cannot sit inside executescript
// alongside a PRAGMA in every driver.
const schemaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

CREATE TABLE IF NOT EXISTS files (
    id            INTEGER PRIMARY KEY,
    path          TEXT UNIQUE NOT NULL,
    relative_path TEXT NOT NULL,
    language      TEXT,
    last_modified REAL,
    content_hash  TEXT
);

CREATE TABLE IF NOT EXISTS symbols (
    id             INTEGER PRIMARY KEY,
    file_id        INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    name           TEXT NOT NULL,
    qualified_name TEXT NOT NULL,
    kind           TEXT NOT NULL,
    line_start     INTEGER,
    line_end       INTEGER,
    signature      TEXT,
    docstring      TEXT,
    parameters     TEXT DEFAULT '[]',
    return_type    TEXT,
    decorators     TEXT DEFAULT '[]',
    parent_id      INTEGER REFERENCES symbols(id)
);

CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_qualified ON symbols(qualified_name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
    name,
    qualified_name,
    signature,
    docstring,
    content=symbols,
    content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS symbols_ai AFTER INSERT ON symbols BEGIN
    INSERT INTO symbols_fts(rowid, name, qualified_name, signature, docstring)
    VALUES (new.id, new.name, new.qualified_name,
            COALESCE(new.signature, ''), COALESCE(new.docstring, ''));
END;

CREATE TRIGGER IF NOT EXISTS symbols_ad AFTER DELETE ON symbols BEGIN
    INSERT INTO symbols_fts(symbols_fts, rowid, name, qualified_name, signature, docstring)
    VALUES ('delete', old.id, old.name, old.qualified_name,
            COALESCE(old.signature, ''), COALESCE(old.docstring, ''));
END;

CREATE TRIGGER IF NOT EXISTS symbols_au AFTER UPDATE ON symbols BEGIN
    INSERT INTO symbols_fts(symbols_fts, rowid, name, qualified_name, signature, docstring)
    VALUES ('delete', old.id, old.name, old.qualified_name,
            COALESCE(old.signature, ''), COALESCE(old.docstring, ''));
    INSERT INTO symbols_fts(rowid, name, qualified_name, signature, docstring)
    VALUES (new.id, new.name, new.qualified_name,
            COALESCE(new.signature, ''), COALESCE(new.docstring, ''));
END;

CREATE TABLE IF NOT EXISTS imports (
    from_file_id  INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    to_module     TEXT NOT NULL,
    to_file_id    INTEGER REFERENCES files(id),
    import_name   TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (from_file_id, to_module, import_name)
);

CREATE TABLE IF NOT EXISTS calls (
    caller_id   INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
    callee_name TEXT NOT NULL,
    callee_id   INTEGER REFERENCES symbols(id),
    PRIMARY KEY (caller_id, callee_name)
);

CREATE TABLE IF NOT EXISTS inherits (
    child_id    INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
    parent_name TEXT NOT NULL,
    parent_id   INTEGER REFERENCES symbols(id),
    PRIMARY KEY (child_id, parent_name)
);
`

// vecTableSQL returns the DDL for the vec0 virtual table holding one
// embedding row per symbol, parametrized by the schema-wide dimension.
func vecTableSQL(dim int) string {
	return fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS symbol_embeddings USING vec0(\n"+
			"    symbol_id INTEGER PRIMARY KEY,\n"+
			"    embedding float[%d] distance_metric=cosine\n"+
			")", dim)
}

// CurrentSchemaVersion is the schema version this binary understands. A
// store opened against a database with a different recorded version is
// refused rather than silently migrated.
const CurrentSchemaVersion = 1
