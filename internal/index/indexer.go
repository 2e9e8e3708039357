// Package index orchestrates file discovery, parsing, storage, and
// embedding into one indexing run — the engine the CLI's index and watch
// commands drive. Grounded
// on original_source/indexer.py's Indexer class, with file discovery,
// per-file hashing, and the parent-before-child symbol insertion order
// preserved exactly.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/codelibrarian/internal/config"
	"github.com/Aman-CERP/codelibrarian/internal/parse"
	"github.com/Aman-CERP/codelibrarian/internal/store"
)

// Embedder is the capability the embedding pass needs; internal/embedclient.Client
// satisfies it. Kept as an interface so the indexer can run with embeddings
// disabled or under a test double without depending on the HTTP client.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexStats summarizes one indexing run for callers (CLI output, MCP
// tool responses).
type IndexStats struct {
	FilesScanned    int
	FilesIndexed    int
	FilesSkipped    int
	SymbolsAdded    int
	EmbeddingsAdded int
	Errors          []string
}

func (s IndexStats) String() string {
	return fmt.Sprintf(
		"Scanned: %d, Indexed: %d, Skipped (unchanged): %d, Symbols: %d, Embeddings: %d",
		s.FilesScanned, s.FilesIndexed, s.FilesSkipped, s.SymbolsAdded, s.EmbeddingsAdded)
}

// Indexer drives a full or incremental index run against one Store.
type Indexer struct {
	store    *store.Store
	cfg      *config.Config
	embedder Embedder
	log      *slog.Logger

	goParser *parse.GoParser
	tsParser *parse.TreeSitterParser
}

// New constructs an Indexer. embedder may be nil — the embedding pass is
// then skipped regardless of cfg.Embeddings.Enabled.
func New(st *store.Store, cfg *config.Config, embedder Embedder, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{
		store:    st,
		cfg:      cfg,
		embedder: embedder,
		log:      log,
		goParser: parse.NewGoParser(),
		tsParser: parse.NewTreeSitterParser(),
	}
}

// IndexRoot discovers every file under the configured index root and
// indexes it. full forces reparsing of unchanged files; reembed forces
// every symbol's embedding to be recomputed (see embedPending).
func (ix *Indexer) IndexRoot(ctx context.Context, full, reembed bool) (IndexStats, error) {
	root := ix.cfg.IndexRoot()
	files, err := discoverFiles(ix.cfg, root)
	if err != nil {
		return IndexStats{}, fmt.Errorf("discovering files under %s: %w", root, err)
	}
	return ix.indexFiles(ctx, files, root, full, reembed)
}

// IndexFiles indexes an explicit list of files (e.g. from the git
// post-commit/post-merge hooks), skipping any that no longer exist. full forces
// reparsing of unchanged files.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string, full bool) (IndexStats, error) {
	root := ix.cfg.IndexRoot()
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	return ix.indexFiles(ctx, existing, root, full, false)
}

func (ix *Indexer) indexFiles(ctx context.Context, files []string, root string, full, reembed bool) (IndexStats, error) {
	stats := IndexStats{FilesScanned: len(files)}

	// qualifiedToID accumulates across the whole run so a child symbol in
	// one file can resolve a parent inserted while indexing an earlier
	// file (e.g. a method re-indexed independently of its class's file).
	qualifiedToID := make(map[string]int64)

	for _, path := range files {
		count, err := ix.indexSingleFile(ctx, path, root, full, qualifiedToID)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", path, err))
			ix.log.Warn("indexing file failed", "path", path, "error", err)
			continue
		}
		if count < 0 {
			stats.FilesSkipped++
			continue
		}
		stats.FilesIndexed++
		stats.SymbolsAdded += count
	}

	if err := ix.store.ResolveGraphEdges(ctx); err != nil {
		return stats, fmt.Errorf("resolving graph edges: %w", err)
	}

	if ix.embedder != nil && ix.cfg.Embeddings.Enabled {
		added, err := ix.embedPending(ctx, reembed)
		if err != nil {
			return stats, fmt.Errorf("embedding pass: %w", err)
		}
		stats.EmbeddingsAdded = added
	}

	return stats, nil
}

// indexSingleFile indexes one file, returning the number of symbols
// inserted, or -1 if the file was skipped (unchanged, unreadable, or no
// language/parser available).
func (ix *Indexer) indexSingleFile(ctx context.Context, path, root string, full bool, qualifiedToID map[string]int64) (int, error) {
	lang := languageForFile(ix.cfg, path)
	if lang == "" {
		return -1, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return -1, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return -1, nil
	}
	contentHash := fileHash(raw)

	if !full {
		existingHash, err := ix.store.GetFileHash(ctx, path)
		if err != nil {
			return 0, err
		}
		if existingHash == contentHash {
			return -1, nil
		}
	}

	ix.log.Debug("indexing file", "path", path)

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}
	moduleName := deriveModuleName(path, root)

	parser := ix.parserFor(lang)

	result, err := parser.Parse(path, lossyUTF8(raw), moduleName)
	if err != nil {
		return 0, err
	}

	fileID, err := ix.store.UpsertFile(ctx, path, relPath, lang, float64(info.ModTime().Unix()), contentHash)
	if err != nil {
		return 0, err
	}

	if err := ix.store.DeleteFileSymbols(ctx, fileID); err != nil {
		return 0, err
	}

	// parentIDMap resolves parent references within this file before
	// they're visible in the run-wide qualifiedToID map; the parsers
	// emit parents before their children, but a file is
	// still indexed in a single pass over parse_result.Symbols rather
	// than two, so both maps must be consulted.
	parentIDMap := make(map[string]int64)

	for _, sym := range result.Symbols {
		var parentID *int64
		if sym.ParentQualifiedName != "" {
			if id, ok := parentIDMap[sym.ParentQualifiedName]; ok {
				parentID = &id
			} else if id, ok := qualifiedToID[sym.ParentQualifiedName]; ok {
				parentID = &id
			}
		}
		id, err := ix.store.InsertSymbol(ctx, sym, fileID, parentID)
		if err != nil {
			return 0, err
		}
		parentIDMap[sym.QualifiedName] = id
		qualifiedToID[sym.QualifiedName] = id
	}

	for _, imp := range result.Edges.Imports {
		if err := ix.store.InsertImport(ctx, fileID, imp.ToModule, imp.ImportName); err != nil {
			return 0, err
		}
	}

	for _, call := range result.Edges.Calls {
		if noiseFilter(lang, call.CalleeName) {
			continue
		}
		callerID, ok := resolveID(call.CallerQualifiedName, parentIDMap, qualifiedToID)
		if !ok {
			continue
		}
		if err := ix.store.InsertCall(ctx, callerID, call.CalleeName); err != nil {
			return 0, err
		}
	}

	for _, inh := range result.Edges.Inherits {
		childID, ok := resolveID(inh.ChildQualifiedName, parentIDMap, qualifiedToID)
		if !ok {
			continue
		}
		if err := ix.store.InsertInherit(ctx, childID, inh.ParentName); err != nil {
			return 0, err
		}
	}

	return len(result.Symbols), nil
}

// embedPending loops the store's "symbols without an embedding" query
// until it's empty, embedding each batch. On reembed it first drops and
// recreates the vector table so every symbol is re-queued.
func (ix *Indexer) embedPending(ctx context.Context, reembed bool) (int, error) {
	if reembed {
		if err := ix.store.RecreateVectorTable(ctx); err != nil {
			return 0, err
		}
	}

	total := 0
	batchLimit := ix.cfg.Embeddings.BatchSize * 4
	for {
		pending, err := ix.store.SymbolsWithoutEmbeddings(ctx, batchLimit)
		if err != nil {
			return total, err
		}
		if len(pending) == 0 {
			break
		}

		texts := make([]string, len(pending))
		for i, p := range pending {
			texts[i] = joinSignatureDoc(p.Signature, p.Docstring, ix.cfg.Embeddings.MaxChars)
		}

		embeddings, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return total, err
		}
		for i, emb := range embeddings {
			if emb == nil {
				continue
			}
			if err := ix.store.UpsertEmbedding(ctx, pending[i].ID, emb); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func joinSignatureDoc(signature, docstring string, maxChars int) string {
	text := signature
	if docstring != "" {
		text += "\n" + docstring
	}
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}

func resolveID(qname string, parentIDMap map[string]int64, qualifiedToID map[string]int64) (int64, bool) {
	if id, ok := parentIDMap[qname]; ok {
		return id, true
	}
	id, ok := qualifiedToID[qname]
	return id, ok
}

func (ix *Indexer) parserFor(lang string) parse.Parser {
	if lang == "go" {
		return ix.goParser
	}
	return ix.tsParser
}

func noiseFilter(lang, callee string) bool {
	return isNoiseCall(lang, callee)
}

func fileHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// lossyUTF8 mirrors Python's read_text(errors="replace"): invalid byte
// sequences become the Unicode replacement character rather than
// aborting the read. Go's string conversion already does this for any
// []byte, so no extra work is needed — kept as a named step for clarity
// at the call site.
func lossyUTF8(raw []byte) string {
	return string(raw)
}
