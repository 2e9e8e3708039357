package index

import (
	"path/filepath"
	"strings"
)

// deriveModuleName converts a file path to a dot-separated module name
// relative to root, ported from original_source/parsers/base.py's
// BaseParser.derive_module_name. Go has no equivalent of Python's
// __init__.py package-representative file, so every language here
// (including Go) takes the simple path: strip the extension from the
// final path component and join the remaining parts with dots.
func deriveModuleName(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) == 0 {
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	last := parts[len(parts)-1]
	parts[len(parts)-1] = strings.TrimSuffix(last, filepath.Ext(last))

	return strings.Join(parts, ".")
}
