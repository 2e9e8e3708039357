package index

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/codelibrarian/internal/config"
)

// languageExtensions maps a file extension to the language name the
// config's Languages list and the parser package both key on. Mirrors
// original_source/config.py's LANGUAGE_EXTENSIONS, with .go added since
// this implementation treats Go as a first-class indexed language.
var languageExtensions = map[string]string{
	".go":   "go",
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".rs":   "rust",
	".java": "java",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".c":    "cpp",
	".h":    "cpp",
	".hpp":  "cpp",
}

// languageForFile returns the configured language for path's extension, or
// "" if the extension is unknown or its language isn't enabled in cfg.
func languageForFile(cfg *config.Config, path string) string {
	lang, ok := languageExtensions[strings.ToLower(filepath.Ext(path))]
	if !ok || !cfg.IsLanguageEnabled(lang) {
		return ""
	}
	return lang
}

// isExcluded reports whether path matches one of cfg's exclude patterns,
// using the same two-part test as original_source/config.py's
// is_excluded: a substring-wrapped glob against the full path, or a plain
// glob against the base name.
func isExcluded(cfg *config.Config, path string) bool {
	base := filepath.Base(path)
	for _, pattern := range cfg.Index.Exclude {
		if matched, _ := filepath.Match("*"+pattern+"*", path); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		// filepath.Match has no "**" support and treats "/" literally,
		// unlike fnmatch; fall back to a plain substring test for
		// directory-style patterns ("node_modules/") so they still
		// exclude regardless of path depth.
		if strings.HasSuffix(pattern, "/") && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// ShouldIndex reports whether path is eligible for indexing under cfg: not
// excluded and mapped to an enabled language. Exported so external
// adapters (the fsnotify-backed watch command) can apply the same
// discovery filter to individual changed paths without re-walking the
// tree.
func ShouldIndex(cfg *config.Config, path string) bool {
	return !isExcluded(cfg, path) && languageForFile(cfg, path) != ""
}

// IsDirExcluded reports whether a directory matches cfg's exclude
// patterns, for external adapters (the watch command) deciding whether
// to descend into or register a watch on it.
func IsDirExcluded(cfg *config.Config, path string) bool {
	return isExcluded(cfg, path+"/")
}

// discoverFiles walks root, pruning excluded directories in place (so a
// large excluded tree like node_modules/ is never descended into), and
// returns every file whose extension maps to a language enabled in cfg.
func discoverFiles(cfg *config.Config, root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Walk yields directory paths without a trailing slash; add
			// one so directory-style patterns ("node_modules/") match.
			if path != root && isExcluded(cfg, path+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcluded(cfg, path) {
			return nil
		}
		if languageForFile(cfg, path) != "" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
