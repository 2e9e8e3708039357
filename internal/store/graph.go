package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Aman-CERP/codelibrarian/internal/model"
)

// ResolveGraphEdges runs the three post-parse resolution passes: calls
// (exact then dotted-suffix), inherits, imports. Unresolved rows are left
// null rather than raising.
func (s *Store) ResolveGraphEdges(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE calls SET callee_id = (
				SELECT id FROM symbols
				WHERE qualified_name = calls.callee_name
				   OR name = calls.callee_name
				LIMIT 1
			)
			WHERE callee_id IS NULL
		`); err != nil {
			return err
		}

		if err := resolveDottedCalls(ctx, tx); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE inherits SET parent_id = (
				SELECT id FROM symbols
				WHERE (qualified_name = inherits.parent_name
				    OR name = inherits.parent_name)
				  AND kind = 'class'
				LIMIT 1
			)
			WHERE parent_id IS NULL
		`); err != nil {
			return err
		}

		// NB: a relative-path LIKE '%needle%' test, kept for fidelity with
		// original_source/storage/store.py. This can over-match short
		// module names against unrelated files — a stricter "ends with
		// needle + extension" rule would be safer; see DESIGN.md.
		_, err := tx.ExecContext(ctx, `
			UPDATE imports SET to_file_id = (
				SELECT id FROM files
				WHERE relative_path LIKE '%' || replace(imports.to_module, '.', '/') || '%'
				LIMIT 1
			)
			WHERE to_file_id IS NULL
		`)
		return err
	})
}

// resolveDottedCalls handles attribute-access calls ("obj.method",
// "self.store.method") that pass 1 misses because the receiver prefix
// doesn't appear in either the symbol name or qualified name: it extracts
// the last dotted component and matches it against symbols.name.
func resolveDottedCalls(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT caller_id, callee_name FROM calls
		WHERE callee_id IS NULL AND callee_name LIKE '%.%'
	`)
	if err != nil {
		return err
	}
	type pending struct {
		callerID   int64
		calleeName string
	}
	var all []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.callerID, &p.calleeName); err != nil {
			rows.Close()
			return err
		}
		all = append(all, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, p := range all {
		parts := strings.Split(p.calleeName, ".")
		suffix := parts[len(parts)-1]
		var matchID int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM symbols WHERE name = ? LIMIT 1", suffix).Scan(&matchID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE calls SET callee_id = ? WHERE caller_id = ? AND callee_name = ?",
			matchID, p.callerID, p.calleeName); err != nil {
			return err
		}
	}
	return nil
}

// GetCallers returns all symbols that (transitively, up to depth hops)
// call the symbol identified by qname. Cycle-safe: the recursive CTE
// stops at the depth bound, and SELECT DISTINCT collapses an id reached
// at several depths into one row.
func (s *Store) GetCallers(ctx context.Context, qname string, depth int) ([]model.SymbolRecord, error) {
	return s.querySymbols(ctx, `
		WITH RECURSIVE caller_tree(id, depth) AS (
			SELECT c.caller_id, 1
			FROM calls c
			JOIN symbols s ON c.callee_id = s.id
			WHERE s.qualified_name = ? OR s.name = ?
			UNION
			SELECT c2.caller_id, ct.depth + 1
			FROM calls c2
			JOIN caller_tree ct ON c2.callee_id = ct.id
			WHERE ct.depth < ?
		)
		SELECT DISTINCT `+symbolSelectColumns+`
		FROM caller_tree ct
		JOIN symbols s ON ct.id = s.id
		JOIN files f ON s.file_id = f.id
	`, qname, qname, depth)
}

// GetCallees returns all symbols (transitively, up to depth hops) called
// by the symbol identified by qname.
func (s *Store) GetCallees(ctx context.Context, qname string, depth int) ([]model.SymbolRecord, error) {
	return s.querySymbols(ctx, `
		WITH RECURSIVE callee_tree(id, depth) AS (
			SELECT c.callee_id, 1
			FROM calls c
			JOIN symbols s ON c.caller_id = s.id
			WHERE s.qualified_name = ? OR s.name = ?
			UNION
			SELECT c2.callee_id, ct.depth + 1
			FROM calls c2
			JOIN callee_tree ct ON c2.caller_id = ct.id
			WHERE ct.depth < ?
		)
		SELECT DISTINCT `+symbolSelectColumns+`
		FROM callee_tree ct
		JOIN symbols s ON ct.id = s.id
		JOIN files f ON s.file_id = f.id
		WHERE s.id IS NOT NULL
	`, qname, qname, depth)
}

// CallEdge is one directed (caller, callee) qualified-name pair, confined
// to the node set reachable within depth hops of the requested direction.
type CallEdge struct {
	CallerQualifiedName string
	CalleeQualifiedName string
}

// GetCallEdges returns every call edge whose endpoints both fall inside
// the depth-bounded reachable set from qname, in the given direction
// ("callees" or "callers"). The depth bound comes from a CTE that
// collects reachable node ids (terminating on cycles at the depth bound) before
// the edge join, so the result is always cycle-safe.
func (s *Store) GetCallEdges(ctx context.Context, qname string, depth int, direction string) ([]CallEdge, error) {
	var query string
	if direction == "callers" {
		query = `
			WITH RECURSIVE reachable(id, d) AS (
				SELECT s.id, 0
				FROM symbols s
				WHERE s.qualified_name = ? OR s.name = ?
				UNION
				SELECT c.caller_id, r.d + 1
				FROM calls c
				JOIN reachable r ON c.callee_id = r.id
				WHERE r.d < ? AND c.caller_id IS NOT NULL
			)
			SELECT DISTINCT s1.qualified_name, s2.qualified_name
			FROM calls c
			JOIN reachable r1 ON c.caller_id = r1.id
			JOIN reachable r2 ON c.callee_id = r2.id
			JOIN symbols s1 ON c.caller_id = s1.id
			JOIN symbols s2 ON c.callee_id = s2.id
			WHERE c.caller_id IS NOT NULL
		`
	} else {
		query = `
			WITH RECURSIVE reachable(id, d) AS (
				SELECT s.id, 0
				FROM symbols s
				WHERE s.qualified_name = ? OR s.name = ?
				UNION
				SELECT c.callee_id, r.d + 1
				FROM calls c
				JOIN reachable r ON c.caller_id = r.id
				WHERE r.d < ? AND c.callee_id IS NOT NULL
			)
			SELECT DISTINCT s1.qualified_name, s2.qualified_name
			FROM calls c
			JOIN reachable r1 ON c.caller_id = r1.id
			JOIN reachable r2 ON c.callee_id = r2.id
			JOIN symbols s1 ON c.caller_id = s1.id
			JOIN symbols s2 ON c.callee_id = s2.id
			WHERE c.callee_id IS NOT NULL
		`
	}
	rows, err := s.db.QueryContext(ctx, query, qname, qname, depth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CallEdge
	for rows.Next() {
		var e CallEdge
		if err := rows.Scan(&e.CallerQualifiedName, &e.CalleeQualifiedName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClassRef names a class symbol inside a hierarchy result, without the
// full symbol payload.
type ClassRef struct {
	Name          string
	QualifiedName string
	RelativePath  string
}

// ClassHierarchy is the target class plus its bounded ancestor and
// descendant sets (depth HierarchyDepth by default).
type ClassHierarchy struct {
	Class    *ClassRef
	Parents  []ClassRef
	Children []ClassRef
}

// GetClassHierarchy resolves a class by name or qualified name and
// returns its ancestors and descendants via the inherits edge table,
// bounded to HierarchyDepth hops.
func (s *Store) GetClassHierarchy(ctx context.Context, className string) (ClassHierarchy, error) {
	var h ClassHierarchy
	var id int64
	var ref ClassRef
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.qualified_name, f.relative_path
		FROM symbols s JOIN files f ON s.file_id = f.id
		WHERE (s.name = ? OR s.qualified_name = ?) AND s.kind = 'class'
		LIMIT 1
	`, className, className).Scan(&id, &ref.Name, &ref.QualifiedName, &ref.RelativePath)
	if err == sql.ErrNoRows {
		return h, nil
	}
	if err != nil {
		return h, err
	}
	h.Class = &ref

	parents, err := queryClassRefs(ctx, s.db, `
		WITH RECURSIVE ancestor(id, depth) AS (
			SELECT i.parent_id, 1
			FROM inherits i
			WHERE i.child_id = ? AND i.parent_id IS NOT NULL
			UNION
			SELECT i2.parent_id, a.depth + 1
			FROM inherits i2
			JOIN ancestor a ON i2.child_id = a.id
			WHERE a.depth < ? AND i2.parent_id IS NOT NULL
		)
		SELECT DISTINCT s.name, s.qualified_name, f.relative_path
		FROM ancestor a
		JOIN symbols s ON a.id = s.id
		JOIN files f ON s.file_id = f.id
	`, id, HierarchyDepth)
	if err != nil {
		return h, err
	}
	h.Parents = parents

	children, err := queryClassRefs(ctx, s.db, `
		WITH RECURSIVE descendant(id, depth) AS (
			SELECT i.child_id, 1
			FROM inherits i
			WHERE i.parent_id = ?
			UNION
			SELECT i2.child_id, d.depth + 1
			FROM inherits i2
			JOIN descendant d ON i2.parent_id = d.id
			WHERE d.depth < ?
		)
		SELECT DISTINCT s.name, s.qualified_name, f.relative_path
		FROM descendant d
		JOIN symbols s ON d.id = s.id
		JOIN files f ON s.file_id = f.id
	`, id, HierarchyDepth)
	if err != nil {
		return h, err
	}
	h.Children = children
	return h, nil
}

func queryClassRefs(ctx context.Context, db dbQuerier, query string, args ...any) ([]ClassRef, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ClassRef
	for rows.Next() {
		var r ClassRef
		if err := rows.Scan(&r.Name, &r.QualifiedName, &r.RelativePath); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// dbQuerier is satisfied by both *sql.DB and *sql.Tx.
type dbQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
