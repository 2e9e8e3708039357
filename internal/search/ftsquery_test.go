package search

import "testing"

func TestFTS5Query_StripsStopWordsAndQuotesTokens(t *testing.T) {
	got := fts5Query("how does the authentication work", false)
	want := `"authentication" "work"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFTS5Query_OrJoinsTokens(t *testing.T) {
	got := fts5Query("find oldest animal", true)
	want := `"find" OR "oldest" OR "animal"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFTS5Query_AllStopWordsFallsBackToRawQuoted(t *testing.T) {
	got := fts5Query("the is a", false)
	want := `"the is a"`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFTS5Query_EmptyInput(t *testing.T) {
	if got := fts5Query("   ", false); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}
