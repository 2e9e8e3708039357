package search

import (
	"regexp"
	"strings"
)

// intentKind is a graph query a free-text question can be routed to
// instead of falling through to hybrid retrieval.
type intentKind string

const (
	intentCallers   intentKind = "callers"
	intentCallees   intentKind = "callees"
	intentHierarchy intentKind = "hierarchy"
)

// intentPattern pairs a regex against a kind; the first capture group
// holds the symbol name. Ported verbatim from original_source/searcher.py's
// _INTENT_PATTERNS — same phrasing, same ordering (first match wins).
type intentPattern struct {
	re   *regexp.Regexp
	kind intentKind
}

var intentPatterns = []intentPattern{
	{regexp.MustCompile(`(?i)(?:what|which\s+\w+)\s+(?:does|did)\s+([\w.]+)\s+call`), intentCallees},
	{regexp.MustCompile(`(?i)(?:functions?|methods?|symbols?)?\s*called\s+by\s+([\w.]+)`), intentCallees},
	{regexp.MustCompile(`(?i)callees?\s+(?:of|for)\s+([\w.]+)`), intentCallees},
	{regexp.MustCompile(`(?i)([\w.]+)\s+calls\s+what`), intentCallees},
	{regexp.MustCompile(`(?i)dependencies\s+of\s+([\w.]+)`), intentCallees},

	{regexp.MustCompile(`(?i)(?:who|what)\s+calls?\s+([\w.]+)`), intentCallers},
	{regexp.MustCompile(`(?i)callers?\s+(?:of|for)\s+([\w.]+)`), intentCallers},
	{regexp.MustCompile(`(?i)where\s+is\s+([\w.]+)\s+(?:used|called|invoked)`), intentCallers},
	{regexp.MustCompile(`(?i)usages?\s+of\s+([\w.]+)`), intentCallers},

	{regexp.MustCompile(`(?i)subclass(?:es)?\s+of\s+([\w.]+)`), intentHierarchy},
	{regexp.MustCompile(`(?i)([\w.]+)\s+inherits?\s+from`), intentHierarchy},
	{regexp.MustCompile(`(?i)parent\s+class(?:es)?\s+of\s+([\w.]+)`), intentHierarchy},
	{regexp.MustCompile(`(?i)children\s+of\s+([\w.]+)`), intentHierarchy},
	{regexp.MustCompile(`(?i)(?:super|base)\s*class(?:es)?\s+of\s+([\w.]+)`), intentHierarchy},
}

// classifyIntent matches query against intentPatterns in order, returning
// the first hit's kind and captured symbol name. ok is false for a plain
// retrieval query.
func classifyIntent(query string) (kind intentKind, symbolName string, ok bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", "", false
	}
	for _, p := range intentPatterns {
		if m := p.re.FindStringSubmatch(query); m != nil {
			return p.kind, m[1], true
		}
	}
	return "", "", false
}
