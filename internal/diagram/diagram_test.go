package diagram

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codelibrarian/internal/model"
	"github.com/Aman-CERP/codelibrarian/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 4, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestClassDiagram_RendersParentAndChildEdges(t *testing.T) {
	// Given: Animal, with Dog and Cat both inheriting from it
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/models.go", "models.go", "go", 1, "h1")
	require.NoError(t, err)

	_, err = s.InsertSymbol(ctx, model.Symbol{
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
	require.NoError(t, s.ResolveGraphEdges(ctx))

	// When: the class diagram for Animal is rendered
	diagram, err := ClassDiagram(ctx, s, "Animal")
	require.NoError(t, err)

	// Then: it opens with the classDiagram header and draws both
	// inheritance arrows pointing from the subclass to Animal.
	assert.Contains(t, diagram, "classDiagram")
	assert.Contains(t, diagram, "<|--")
	require.Equal(t, 2, countOccurrences(diagram, "<|--"))
}

func TestClassDiagram_UnknownClassReturnsEmptyString(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	diagram, err := ClassDiagram(ctx, s, "DoesNotExist")
	require.NoError(t, err)
	assert.Empty(t, diagram)
}

func TestClassDiagram_ElidesSelfAndClsParameters(t *testing.T) {
	// Given: a class with a method whose first parameter is the "self"
	// receiver
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/models.py", "models.py", "python", 1, "h1")
	require.NoError(t, err)
	classID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "Animal", QualifiedName: "models.Animal", Kind: model.KindClass,
		LineStart: 1, LineEnd: 5,
	}, fileID, nil)
	require.NoError(t, err)
	name := "name"
	typ := "str"
	_, err = s.InsertSymbol(ctx, model.Symbol{
		Name: "speak", QualifiedName: "models.Animal.speak", Kind: model.KindMethod,
		Parameters: []model.Parameter{
			{Name: "self"},
			{Name: name, Type: &typ},
		},
		LineStart: 2, LineEnd: 3,
	}, fileID, &classID)
	require.NoError(t, err)
	require.NoError(t, s.ResolveGraphEdges(ctx))

	diagram, err := ClassDiagram(ctx, s, "Animal")
	require.NoError(t, err)

	assert.Contains(t, diagram, "+speak(name: str)")
	assert.NotContains(t, diagram, "self")
}

func TestCallGraph_RendersReachableCallees(t *testing.T) {
	// Given: main calling find_oldest
	s := newTestStore(t)
	ctx := context.Background()
	fileID, err := s.UpsertFile(ctx, "/repo/a.go", "a.go", "go", 1, "h1")
	require.NoError(t, err)
	_, err = s.InsertSymbol(ctx, model.Symbol{
		Name: "find_oldest", QualifiedName: "models.find_oldest", Kind: model.KindFunction,
		LineStart: 1, LineEnd: 2,
	}, fileID, nil)
	require.NoError(t, err)
	callerID, err := s.InsertSymbol(ctx, model.Symbol{
		Name: "main", QualifiedName: "models.main", Kind: model.KindFunction,
		LineStart: 3, LineEnd: 4,
	}, fileID, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertCall(ctx, callerID, "find_oldest"))
	require.NoError(t, s.ResolveGraphEdges(ctx))

	diagram, err := CallGraph(ctx, s, "models.main", 3, "callees")
	require.NoError(t, err)

	assert.Contains(t, diagram, "flowchart LR")
	assert.Contains(t, diagram, "-->")
	assert.Contains(t, diagram, "style")
}

func TestCallGraph_NoEdgesReturnsEmptyString(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	diagram, err := CallGraph(ctx, s, "nothing.here", 2, "callees")
	require.NoError(t, err)
	assert.Empty(t, diagram)
}

func TestImportGraph_GroupsFilesByTopLevelDirectory(t *testing.T) {
	// Given: pkg/utils.go imported by main.go
	s := newTestStore(t)
	ctx := context.Background()
	mainID, err := s.UpsertFile(ctx, "/repo/main.go", "main.go", "go", 1, "h1")
	require.NoError(t, err)
	_, err = s.UpsertFile(ctx, "/repo/pkg/utils.go", "pkg/utils.go", "go", 1, "h2")
	require.NoError(t, err)
	require.NoError(t, s.InsertImport(ctx, mainID, "pkg.utils", "utils"))
	require.NoError(t, s.ResolveGraphEdges(ctx))

	diagram, err := ImportGraph(ctx, s, "")
	require.NoError(t, err)

	assert.Contains(t, diagram, "flowchart LR")
	assert.Contains(t, diagram, "subgraph")
	assert.Contains(t, diagram, "-->")
}

func TestImportGraph_NoEdgesReturnsEmptyString(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	diagram, err := ImportGraph(ctx, s, "")
	require.NoError(t, err)
	assert.Empty(t, diagram)
}

func TestSanitizeID_DistinguishesCollidingNames(t *testing.T) {
	a := sanitizeID("foo.bar")
	b := sanitizeID("foo_bar")
	assert.NotEqual(t, a, b)
}

func TestShortName_ReturnsLastDottedComponent(t *testing.T) {
	assert.Equal(t, "Speak", shortName("models.Animal.Speak"))
	assert.Equal(t, "find_oldest", shortName("find_oldest"))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
