package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codelibrarian/internal/model"
)

const animalsSource = `package models

// Animal is the base type every pet embeds.
type Animal struct {
	Name string
}

// Speak returns a generic noise.
func (a *Animal) Speak() string {
	return "..."
}

type Dog struct {
	Animal
}

func (d *Dog) Speak() string {
	return "Woof"
}

// FindOldest returns the oldest animal by calling the builtin max helper
// and Dog.Speak via an attribute-access call.
func FindOldest(animals []*Animal, d *Dog) *Animal {
	d.Speak()
	return max(animals[0], animals[1])
}
`

func parseAnimals(t *testing.T) model.ParseResult {
	t.Helper()
	p := NewGoParser()
	result, err := p.Parse("models.go", animalsSource, "models")
	require.NoError(t, err)
	return result
}

func TestGoParser_ClassesBeforeMethods(t *testing.T) {
	// Given: a file with two structs and their methods, in file order.
	result := parseAnimals(t)

	// Then: every symbol of kind class precedes every method (the
	// ParseResult contract the indexer's parent-id resolution depends on).
	lastClassIdx := -1
	firstMethodIdx := -1
	for i, sym := range result.Symbols {
		if sym.Kind == model.KindClass {
			lastClassIdx = i
		}
		if sym.Kind == model.KindMethod && firstMethodIdx == -1 {
			firstMethodIdx = i
		}
	}
	require.NotEqual(t, -1, lastClassIdx)
	require.NotEqual(t, -1, firstMethodIdx)
	assert.Less(t, lastClassIdx, firstMethodIdx)
}

func TestGoParser_MethodQualifiedNameIncludesReceiver(t *testing.T) {
	result := parseAnimals(t)

	var speak *model.Symbol
	for i := range result.Symbols {
		if result.Symbols[i].Name == "Speak" && result.Symbols[i].ParentQualifiedName == "models.Animal" {
			speak = &result.Symbols[i]
		}
	}
	require.NotNil(t, speak)
	assert.Equal(t, "models.Animal.Speak", speak.QualifiedName)
	assert.Equal(t, model.KindMethod, speak.Kind)
}

func TestGoParser_CallExtractor_CapturesDottedAndPlainCalls(t *testing.T) {
	result := parseAnimals(t)

	var callees []string
	for _, c := range result.Edges.Calls {
		if c.CallerQualifiedName == "models.FindOldest" {
			callees = append(callees, c.CalleeName)
		}
	}
	assert.Contains(t, callees, "d.Speak")
	assert.Contains(t, callees, "max")
}

func TestGoParser_SyntaxErrorReturnsEmptyResult(t *testing.T) {
	// Given: source with a syntax error
	p := NewGoParser()

	// When: it's parsed
	result, err := p.Parse("broken.go", "package models\nfunc ( {", "models")

	// Then: the error is non-fatal; an empty ParseResult comes back.
	require.NoError(t, err)
	assert.Empty(t, result.Symbols)
	assert.Empty(t, result.Edges.Calls)
}

func TestGoParser_DoesNotDescendIntoNestedFunctionLiterals(t *testing.T) {
	const src = `package models

func Outer() {
	fn := func() {
		helperCalledInsideLiteral()
	}
	fn()
	directCall()
}
`
	p := NewGoParser()
	result, err := p.Parse("outer.go", src, "models")
	require.NoError(t, err)

	var callees []string
	for _, c := range result.Edges.Calls {
		callees = append(callees, c.CalleeName)
	}
	assert.Contains(t, callees, "directCall")
	assert.Contains(t, callees, "fn")
	assert.NotContains(t, callees, "helperCalledInsideLiteral")
}
