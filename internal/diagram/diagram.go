// Package diagram renders Mermaid diagrams from an index: class
// hierarchies, call graphs, and module import graphs. Grounded on
// original_source/diagrams.py, ported to Go's hash/fnv (the original's
// builtin hash() is not a stable, portable algorithm) and text/template-
// free string building matching the source's plain f-string approach —
// no diagram-rendering library appears anywhere in the example pack.
package diagram

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"

	"github.com/Aman-CERP/codelibrarian/internal/store"
)

var invalidIDChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// sanitizeID converts a qualified name into a valid Mermaid node ID,
// appending a short hash suffix so differently-separated names that
// collapse to the same identifier (e.g. "foo.bar" and "foo_bar") don't
// collide.
func sanitizeID(name string) string {
	base := invalidIDChars.ReplaceAllString(name, "_")
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%s_%04x", base, h.Sum32()&0xFFFF)
}

// shortName extracts the last dotted component of a qualified name.
func shortName(qualifiedName string) string {
	parts := strings.Split(qualifiedName, ".")
	return parts[len(parts)-1]
}

// ClassDiagram generates a Mermaid classDiagram for a class and its
// bounded ancestor/descendant hierarchy. Returns "" if the class is not
// found.
func ClassDiagram(ctx context.Context, st *store.Store, className string) (string, error) {
	hierarchy, err := st.GetClassHierarchy(ctx, className)
	if err != nil {
		return "", err
	}
	if hierarchy.Class == nil {
		return "", nil
	}

	rootQName := hierarchy.Class.QualifiedName
	lines := []string{"classDiagram"}

	allClasses := []string{rootQName}
	for _, p := range hierarchy.Parents {
		allClasses = append(allClasses, p.QualifiedName)
	}
	for _, c := range hierarchy.Children {
		allClasses = append(allClasses, c.QualifiedName)
	}

	classIDs := make(map[string]string, len(allClasses))
	for _, qname := range allClasses {
		classIDs[qname] = sanitizeID(qname)
	}

	for _, qname := range allClasses {
		cid := classIDs[qname]
		short := shortName(qname)
		methods, err := st.GetMethodsForClass(ctx, qname)
		if err != nil {
			return "", err
		}
		if len(methods) > 0 {
			lines = append(lines, fmt.Sprintf("    class %s[\"%s\"] {", cid, short))
			for _, m := range methods {
				params := make([]string, 0, len(m.Parameters))
				for _, p := range m.Parameters {
					if p.Name == "self" || p.Name == "cls" {
						continue
					}
					s := p.Name
					if p.Type != nil {
						s += ": " + *p.Type
					}
					params = append(params, s)
				}
				ret := ""
				if m.ReturnType != "" {
					ret = " " + m.ReturnType
				}
				lines = append(lines, fmt.Sprintf("        +%s(%s)%s", m.Name, strings.Join(params, ", "), ret))
			}
			lines = append(lines, "    }")
		} else {
			lines = append(lines, fmt.Sprintf("    class %s[\"%s\"]", cid, short))
		}
	}

	for _, p := range hierarchy.Parents {
		lines = append(lines, fmt.Sprintf("    %s <|-- %s", classIDs[p.QualifiedName], classIDs[rootQName]))
	}
	for _, c := range hierarchy.Children {
		lines = append(lines, fmt.Sprintf("    %s <|-- %s", classIDs[rootQName], classIDs[c.QualifiedName]))
	}

	return strings.Join(lines, "\n"), nil
}

// CallGraph generates a Mermaid flowchart of call relationships reachable
// from qualifiedName within depth hops in the given direction ("callers"
// or "callees"). Returns "" if there are no edges.
func CallGraph(ctx context.Context, st *store.Store, qualifiedName string, depth int, direction string) (string, error) {
	edges, err := st.GetCallEdges(ctx, qualifiedName, depth, direction)
	if err != nil {
		return "", err
	}
	if len(edges) == 0 {
		return "", nil
	}

	lines := []string{"flowchart LR"}

	nodes := make(map[string]bool)
	for _, e := range edges {
		nodes[e.CallerQualifiedName] = true
		nodes[e.CalleeQualifiedName] = true
	}

	sorted := make([]string, 0, len(nodes))
	for n := range nodes {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	for _, qname := range sorted {
		lines = append(lines, fmt.Sprintf("    %s[\"%s\"]", sanitizeID(qname), shortName(qname)))
	}
	for _, e := range edges {
		lines = append(lines, fmt.Sprintf("    %s --> %s", sanitizeID(e.CallerQualifiedName), sanitizeID(e.CalleeQualifiedName)))
	}

	rootID := sanitizeID(qualifiedName)
	if nodes[qualifiedName] {
		lines = append(lines, fmt.Sprintf("    style %s fill:#f96,stroke:#333,stroke-width:2px", rootID))
	}

	return strings.Join(lines, "\n"), nil
}

// ImportGraph generates a Mermaid flowchart of file-to-file import
// dependencies, optionally filtered to edges touching one file. Files are
// grouped into subgraphs by their top-level directory.
func ImportGraph(ctx context.Context, st *store.Store, filePath string) (string, error) {
	allEdges, err := st.GetAllImportEdges(ctx)
	if err != nil {
		return "", err
	}

	if filePath != "" {
		filtered := allEdges[:0]
		for _, e := range allEdges {
			if e.FromPath == filePath || e.ToPath == filePath {
				filtered = append(filtered, e)
			}
		}
		allEdges = filtered
	}
	if len(allEdges) == 0 {
		return "", nil
	}

	lines := []string{"flowchart LR"}

	dirFiles := make(map[string]map[string]bool)
	allFiles := make(map[string]bool)
	for _, e := range allEdges {
		allFiles[e.FromPath] = true
		allFiles[e.ToPath] = true
	}
	for fp := range allFiles {
		group := "."
		if idx := strings.Index(fp, "/"); idx >= 0 {
			group = fp[:idx]
		}
		if dirFiles[group] == nil {
			dirFiles[group] = make(map[string]bool)
		}
		dirFiles[group][fp] = true
	}

	groups := make([]string, 0, len(dirFiles))
	for g := range dirFiles {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		filesInGroup := make([]string, 0, len(dirFiles[group]))
		for fp := range dirFiles[group] {
			filesInGroup = append(filesInGroup, fp)
		}
		sort.Strings(filesInGroup)

		if group == "." {
			for _, fp := range filesInGroup {
				lines = append(lines, fmt.Sprintf("    %s[\"%s\"]", sanitizeID(fp), fileLabel(fp)))
			}
		} else {
			lines = append(lines, fmt.Sprintf("    subgraph %s[\"%s\"]", sanitizeID(group), group))
			for _, fp := range filesInGroup {
				lines = append(lines, fmt.Sprintf("        %s[\"%s\"]", sanitizeID(fp), fileLabel(fp)))
			}
			lines = append(lines, "    end")
		}
	}

	for _, e := range allEdges {
		lines = append(lines, fmt.Sprintf("    %s --> %s", sanitizeID(e.FromPath), sanitizeID(e.ToPath)))
	}

	return strings.Join(lines, "\n"), nil
}

func fileLabel(relativePath string) string {
	parts := strings.Split(relativePath, "/")
	return parts[len(parts)-1]
}
