package parse

import (
	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageCacheSize bounds the compiled-grammar cache. The full language
// set this binary ever asks for is fixed and small (at most one entry per
// detectLanguage result), so the bound exists to cap memory rather than to
// evict anything in practice.
const languageCacheSize = 16

// languageCache is a bounded cache of compiled tree-sitter Language
// handles, keyed by detected language name. Generalizes the unbounded
// module-level map the original Python parser used into an explicit,
// size-capped cache owned by this package.
type languageCache struct {
	cache *lru.Cache[string, *sitter.Language]
}

func newLanguageCache() *languageCache {
	c, err := lru.New[string, *sitter.Language](languageCacheSize)
	if err != nil {
		panic(err) // only returns an error for a non-positive size
	}
	return &languageCache{cache: c}
}

// get returns the compiled grammar for lang, compiling and caching it on
// first use. Returns nil for a language with no registered grammar.
func (c *languageCache) get(lang string) *sitter.Language {
	if l, ok := c.cache.Get(lang); ok {
		return l
	}
	var l *sitter.Language
	switch lang {
	case "go":
		l = golang.GetLanguage()
	case "typescript":
		l = typescript.GetLanguage()
	case "javascript":
		l = javascript.GetLanguage()
	case "rust":
		l = rust.GetLanguage()
	case "python":
		l = python.GetLanguage()
	case "java":
		l = java.GetLanguage()
	case "cpp":
		l = cpp.GetLanguage()
	default:
		return nil
	}
	c.cache.Add(lang, l)
	return l
}

// detectLanguage maps a file extension (including the leading dot, any
// case) to the language name the cache and extractors key on.
func detectLanguage(ext string) string {
	switch ext {
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".rs":
		return "rust"
	case ".py":
		return "python"
	case ".java":
		return "java"
	case ".cpp", ".cc", ".cxx", ".c", ".h", ".hpp":
		return "cpp"
	default:
		return ""
	}
}
