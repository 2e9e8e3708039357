package index

import "strings"

// noiseFilters lists, per language, callee names that are almost always
// language builtins or stdlib calls rather than edges worth persisting —
// every one of them would otherwise show up as a caller/callee of nearly
// every symbol in the index. Kept per-language rather than universal: a
// name builtin to one language (e.g. Python's "len") is an ordinary
// user-defined symbol in another.
var noiseFilters = map[string]map[string]bool{
	"go": setOf(
		"len", "cap", "append", "make", "new", "copy", "delete", "panic",
		"recover", "print", "println", "close", "complex", "real", "imag",
		"min", "max", "clear", "fmt.Println", "fmt.Printf", "fmt.Sprintf",
		"fmt.Errorf", "errors.New",
	),
	"python": setOf(
		"print", "len", "range", "str", "int", "float", "bool", "list",
		"dict", "set", "tuple", "isinstance", "hasattr", "getattr",
		"setattr", "super", "enumerate", "zip", "map", "filter", "sorted",
		"open", "repr", "format", "max", "min", "any", "all", "sum", "abs",
	),
	"typescript": setOf(
		"console.log", "console.error", "console.warn", "JSON.stringify",
		"JSON.parse", "Object.keys", "Object.values", "Object.entries",
		"Array.from", "parseInt", "parseFloat", "Boolean", "String", "Number",
	),
	"javascript": setOf(
		"console.log", "console.error", "console.warn", "JSON.stringify",
		"JSON.parse", "Object.keys", "Object.values", "Object.entries",
		"Array.from", "parseInt", "parseFloat", "Boolean", "String", "Number",
	),
	"rust": setOf(
		"println!", "print!", "format!", "vec!", "panic!", "assert!",
		"assert_eq!", "unwrap", "expect", "clone", "to_string", "into", "from",
	),
	"java": setOf(
		"System.out.println", "System.out.print", "toString", "equals",
		"hashCode", "getClass",
	),
	"cpp": setOf(
		"std::cout", "std::cerr", "printf", "sprintf", "malloc", "free",
	),
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// isNoiseCall reports whether callee is a filtered builtin/stdlib name for
// lang. Matching is exact on the full callee text and, for dotted (or,
// failing that, "::") calls, also on the final component — so
// "fmt.Println" matches the "go" list as listed and "items.len" matches
// through its final "len".
func isNoiseCall(lang, callee string) bool {
	filters, ok := noiseFilters[lang]
	if !ok {
		return false
	}
	if filters[callee] {
		return true
	}
	if idx := strings.LastIndex(callee, "."); idx >= 0 {
		return filters[callee[idx+1:]]
	}
	if idx := strings.LastIndex(callee, "::"); idx >= 0 {
		return filters[callee[idx+2:]]
	}
	return false
}
