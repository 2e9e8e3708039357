package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codelibrarian/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath, 4, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertFile_IsIdempotentByPath(t *testing.T) {
	// Given: an empty store
	s := newTestStore(t)
	ctx := context.Background()

	// When: the same path is upserted twice with different hashes
	id1, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 1.0, "hash1")
	require.NoError(t, err)
	id2, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 2.0, "hash2")
	require.NoError(t, err)

	// Then: both calls return the same row id, and the hash reflects the
	// latest write.
	assert.Equal(t, id1, id2)
	hash, err := s.GetFileHash(ctx, "/repo/a.go")
	require.NoError(t, err)
	assert.Equal(t, "hash2", hash)
}

func TestUpsertFile_ReturnsCorrectIDWhenUpdateFollowsAnotherInsert(t *testing.T) {
	// Given: file A is indexed, then a symbol insert advances sqlite's
	// last-insert-rowid to a value belonging to a different table.
	s := newTestStore(t)
	ctx := context.Background()
	fileAID, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 1.0, "hash1")
	require.NoError(t, err)
	_, err = s.InsertSymbol(ctx, model.Symbol{
		Name: "F", QualifiedName: "a.F", Kind: model.KindFunction, LineStart: 1, LineEnd: 1,
	}, fileAID, nil)
	require.NoError(t, err)

	// When: file A is re-indexed (its row already exists, so this upsert
	// takes the ON CONFLICT DO UPDATE branch rather than inserting).
	reindexedID, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 2.0, "hash2")
	require.NoError(t, err)

	// Then: the returned id is still file A's id, not the symbol's rowid
	// that last_insert_rowid() would report after an UPDATE.
	assert.Equal(t, fileAID, reindexedID)
}

func TestDeleteFileSymbols_RemovesChildrenBeforeParents(t *testing.T) {
	// Given: a file with a class and a method referencing it as parent
	s := newTestStore(t)
	ctx := context.Background()

	fileID, err := s.UpsertFile(ctx, "/repo/models.go", "models.go", "go", 1.0, "h1")
	require.NoError(t, err)

	classID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "Animal", QualifiedName: "models.Animal", Kind: model.KindClass,
		LineStart: 1, LineEnd: 10,
	}, fileID, nil)
	require.NoError(t, err)

	_, err = s.InsertSymbol(ctx, model.Symbol{
		Name: "Speak", QualifiedName: "models.Animal.Speak", Kind: model.KindMethod,
		LineStart: 2, LineEnd: 4,
	}, fileID, &classID)
	require.NoError(t, err)

	// When: the file's symbols are deleted
	require.NoError(t, s.DeleteFileSymbols(ctx, fileID))

	// Then: both the class and its method are gone.
	recs, err := s.LookupSymbol(ctx, "Animal")
	require.NoError(t, err)
	assert.Empty(t, recs)
	methods, err := s.GetMethodsForClass(ctx, "models.Animal")
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestLookupSymbol_ExactThenPrefixFallback(t *testing.T) {
	// Given: one symbol named "find_oldest"
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/models.go", "models.go", "go", 1.0, "h1")
	require.NoError(t, err)
	_, err = s.InsertSymbol(ctx, model.Symbol{
		Name: "find_oldest", QualifiedName: "models.find_oldest", Kind: model.KindFunction,
		LineStart: 1, LineEnd: 5,
	}, fileID, nil)
	require.NoError(t, err)

	// Then: an exact lookup finds it.
	exact, err := s.LookupSymbol(ctx, "find_oldest")
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "models.find_oldest", exact[0].QualifiedName)

	// And: a non-matching exact lookup is empty, but the prefix fallback
	// finds it by substring.
	miss, err := s.LookupSymbol(ctx, "oldest")
	require.NoError(t, err)
	assert.Empty(t, miss)

	prefix, err := s.LookupSymbolPrefix(ctx, "oldest")
	require.NoError(t, err)
	require.Len(t, prefix, 1)
	assert.Equal(t, "find_oldest", prefix[0].Name)
}

func TestResolveGraphEdges_ClassHierarchy(t *testing.T) {
	// Given: classes Animal, Dog(Animal), Cat(Animal)
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/models.go", "models.go", "go", 1.0, "h1")
	require.NoError(t, err)

	animalID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "Animal", QualifiedName: "models.Animal", Kind: model.KindClass,
		LineStart: 1, LineEnd: 2,
	}, fileID, nil)
	require.NoError(t, err)
	dogID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "Dog", QualifiedName: "models.Dog", Kind: model.KindClass,
		LineStart: 3, LineEnd: 4,
	}, fileID, nil)
	require.NoError(t, err)
	catID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "Cat", QualifiedName: "models.Cat", Kind: model.KindClass,
		LineStart: 5, LineEnd: 6,
	}, fileID, nil)
	require.NoError(t, err)

	require.NoError(t, s.InsertInherit(ctx, dogID, "Animal"))
	require.NoError(t, s.InsertInherit(ctx, catID, "Animal"))

	// When: graph edges are resolved
	require.NoError(t, s.ResolveGraphEdges(ctx))

	// Then: lookup("Animal") returns exactly one class record.
	recs, err := s.LookupSymbol(ctx, "Animal")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.KindClass, recs[0].Kind)
	assert.Equal(t, animalID, recs[0].ID)

	// And: the hierarchy shows both children under Animal.
	hierarchy, err := s.GetClassHierarchy(ctx, "Animal")
	require.NoError(t, err)
	require.NotNil(t, hierarchy.Class)
	var names []string
	for _, c := range hierarchy.Children {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Dog", "Cat"}, names)
}

func TestResolveGraphEdges_NoiseFilteredCallNeverRecorded(t *testing.T) {
	// Given: a caller that only has a noise-filtered call edge inserted by
	// the indexer's filter (the store itself has no opinion on noise — this
	// test asserts that an edge simply never inserted resolves to an empty
	// callee set, i.e. the store doesn't need the callee to exist to stay
	// well-formed).
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/models.go", "models.go", "go", 1.0, "h1")
	require.NoError(t, err)
	callerID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "find_oldest", QualifiedName: "models.find_oldest", Kind: model.KindFunction,
		LineStart: 1, LineEnd: 3,
	}, fileID, nil)
	require.NoError(t, err)
	require.NoError(t, s.ResolveGraphEdges(ctx))

	callees, err := s.GetCallees(ctx, "models.find_oldest", 3)
	require.NoError(t, err)
	assert.Empty(t, callees)
	_ = callerID
}

func TestResolveGraphEdges_DottedCallResolvesToMethod(t *testing.T) {
	// Given: a caller whose body calls obj.do_work(), and a method
	// SomeClass.do_work in the index.
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/models.go", "models.go", "go", 1.0, "h1")
	require.NoError(t, err)

	classID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "SomeClass", QualifiedName: "models.SomeClass", Kind: model.KindClass,
		LineStart: 1, LineEnd: 2,
	}, fileID, nil)
	require.NoError(t, err)
	_, err = s.InsertSymbol(ctx, model.Symbol{
		Name: "do_work", QualifiedName: "models.SomeClass.do_work", Kind: model.KindMethod,
		LineStart: 2, LineEnd: 3,
	}, fileID, &classID)
	require.NoError(t, err)
	callerID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "caller", QualifiedName: "models.caller", Kind: model.KindFunction,
		LineStart: 4, LineEnd: 6,
	}, fileID, nil)
	require.NoError(t, err)

	require.NoError(t, s.InsertCall(ctx, callerID, "obj.do_work"))

	// When: graph edges are resolved
	require.NoError(t, s.ResolveGraphEdges(ctx))

	// Then: the dotted call resolves to the method via its name suffix.
	callees, err := s.GetCallees(ctx, "models.caller", 2)
	require.NoError(t, err)
	var names []string
	for _, c := range callees {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "do_work")
}

func TestGetCallees_CyclicGraphTerminates(t *testing.T) {
	// Given: a cyclic call graph A -> B -> A
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/cyc.go", "cyc.go", "go", 1.0, "h1")
	require.NoError(t, err)

	aID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "A", QualifiedName: "cyc.A", Kind: model.KindFunction, LineStart: 1, LineEnd: 2,
	}, fileID, nil)
	require.NoError(t, err)
	bID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "B", QualifiedName: "cyc.B", Kind: model.KindFunction, LineStart: 3, LineEnd: 4,
	}, fileID, nil)
	require.NoError(t, err)

	require.NoError(t, s.InsertCall(ctx, aID, "cyc.B"))
	require.NoError(t, s.InsertCall(ctx, bID, "cyc.A"))
	require.NoError(t, s.ResolveGraphEdges(ctx))

	// When: callees are traversed at depth 5, starting from A
	callees, err := s.GetCallees(ctx, "cyc.A", 5)
	require.NoError(t, err)

	// Then: it terminates and returns exactly {A, B}.
	var names []string
	for _, c := range callees {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"A", "B"}, names)
}

func TestFTSSearch_RemovedAfterDeleteFileSymbols(t *testing.T) {
	// Given: a symbol indexed into FTS
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/auth.go", "auth.go", "go", 1.0, "h1")
	require.NoError(t, err)
	_, err = s.InsertSymbol(ctx, model.Symbol{
		Name: "Authenticate", QualifiedName: "auth.Authenticate", Kind: model.KindFunction,
		Signature: "func Authenticate(user string) bool", Docstring: "checks credentials",
		LineStart: 1, LineEnd: 5,
	}, fileID, nil)
	require.NoError(t, err)

	results, err := s.FTSSearch(ctx, `"Authenticate"`, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	// When: the file's symbols are deleted
	require.NoError(t, s.DeleteFileSymbols(ctx, fileID))

	// Then: the FTS row is gone too (triggers keep it in sync).
	after, err := s.FTSSearch(ctx, `"Authenticate"`, 10)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestUpsertEmbedding_DimensionMismatchIsHardError(t *testing.T) {
	// Given: a store opened with dimension 4
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 1.0, "h1")
	require.NoError(t, err)
	symID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "F", QualifiedName: "a.F", Kind: model.KindFunction, LineStart: 1, LineEnd: 1,
	}, fileID, nil)
	require.NoError(t, err)

	// When/Then: writing a 3-dimensional vector is a hard error, not a
	// silently accepted write.
	err = s.UpsertEmbedding(ctx, symID, []float32{1, 2, 3})
	require.Error(t, err)
}

func TestVectorSearch_NearestFirst(t *testing.T) {
	// Given: three embedded symbols
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 1.0, "h1")
	require.NoError(t, err)

	ids := make([]int64, 3)
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.9, 0.1, 0, 0},
	}
	for i, v := range vectors {
		id, err := s.InsertSymbol(ctx, model.Symbol{
			Name: "sym", QualifiedName: "a.sym" + string(rune('A'+i)), Kind: model.KindFunction,
			LineStart: i + 1, LineEnd: i + 1,
		}, fileID, nil)
		require.NoError(t, err)
		require.NoError(t, s.UpsertEmbedding(ctx, id, v))
		ids[i] = id
	}

	// When: searching near [1,0,0,0]
	results, err := s.VectorSearch(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)

	// Then: the exact match comes first, the near-match second.
	require.Len(t, results, 2)
	assert.Equal(t, ids[0], results[0].SymbolID)
	assert.Equal(t, ids[2], results[1].SymbolID)
}

func TestSymbolsWithoutEmbeddings(t *testing.T) {
	// Given: two symbols, one already embedded
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 1.0, "h1")
	require.NoError(t, err)
	embeddedID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "Embedded", QualifiedName: "a.Embedded", Kind: model.KindFunction, LineStart: 1, LineEnd: 1,
	}, fileID, nil)
	require.NoError(t, err)
	require.NoError(t, s.UpsertEmbedding(ctx, embeddedID, []float32{0, 0, 0, 1}))
	pendingID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "Pending", QualifiedName: "a.Pending", Kind: model.KindFunction, LineStart: 2, LineEnd: 2,
	}, fileID, nil)
	require.NoError(t, err)

	// When: the pending query runs
	pending, err := s.SymbolsWithoutEmbeddings(ctx, 100)
	require.NoError(t, err)

	// Then: only the un-embedded symbol comes back.
	require.Len(t, pending, 1)
	assert.Equal(t, pendingID, pending[0].ID)
}
