package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer returns an embedding of length dim for every input text, with
// the indices deliberately reversed in the response body so EmbedBatch's
// sort-by-index step is actually exercised.
func echoServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		items := make([]embedResponseItem, len(req.Input))
		for i, text := range req.Input {
			vec := make([]float32, dim)
			vec[0] = float32(len(text))
			// reversed on purpose
			items[len(req.Input)-1-i] = embedResponseItem{Embedding: vec, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embedResponse{Data: items})
	}))
}

func TestNew_NormalizesAPIURLWithEmbeddingsSuffix(t *testing.T) {
	c := New("http://localhost:11434/v1", "m", 4, 8, 100, nil)
	assert.Equal(t, "http://localhost:11434/v1/embeddings", c.apiURL)

	c2 := New("http://localhost:11434/v1/embeddings/", "m", 4, 8, 100, nil)
	assert.Equal(t, "http://localhost:11434/v1/embeddings", c2.apiURL)
}

func TestEmbedBatch_ReordersResultsByIndex(t *testing.T) {
	// Given: a server that deliberately returns embeddings out of order
	srv := echoServer(t, 4)
	defer srv.Close()
	c := New(srv.URL, "m", 4, 8, 100, nil)

	// When: a batch of distinctly-sized texts is embedded
	out, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	// Then: the results line up with the input order, not the response
	// order.
	require.Len(t, out, 3)
	assert.Equal(t, float32(1), out[0][0])
	assert.Equal(t, float32(2), out[1][0])
	assert.Equal(t, float32(3), out[2][0])
}

func TestEmbedBatch_TruncatesTextLongerThanMaxChars(t *testing.T) {
	var gotInput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotInput = req.Input[0]
		_ = json.NewEncoder(w).Encode(embedResponse{Data: []embedResponseItem{
			{Embedding: []float32{0, 0}, Index: 0},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, "m", 2, 8, 5, nil)
	_, err := c.EmbedBatch(context.Background(), []string{"this text is far longer than five chars"})
	require.NoError(t, err)
	assert.Len(t, gotInput, 5)
}

func TestEmbedBatch_NonOKStatusReturnsNilNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "m", 4, 8, 100, nil)
	out, err := c.EmbedBatch(context.Background(), []string{"x"})

	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedBatch_UnreachableServerReturnsNilNotError(t *testing.T) {
	c := New("http://127.0.0.1:0", "m", 4, 8, 100, nil)
	out, err := c.EmbedBatch(context.Background(), []string{"x"})

	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedTexts_BatchesAtConfiguredSize(t *testing.T) {
	var batchSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		batchSizes = append(batchSizes, len(req.Input))
		items := make([]embedResponseItem, len(req.Input))
		for i := range req.Input {
			items[i] = embedResponseItem{Embedding: []float32{1}, Index: i}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Data: items})
	}))
	defer srv.Close()

	c := New(srv.URL, "m", 1, 2, 100, nil)
	texts := []string{"a", "b", "c", "d", "e"}
	out, err := c.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)

	assert.Len(t, out, 5)
	assert.Equal(t, []int{2, 2, 1}, batchSizes)
}

func TestEmbedTexts_FailedBatchYieldsNilEntriesNotAbort(t *testing.T) {
	call := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call++
		if call == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		items := make([]embedResponseItem, len(req.Input))
		for i := range req.Input {
			items[i] = embedResponseItem{Embedding: []float32{1}, Index: i}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Data: items})
	}))
	defer srv.Close()

	c := New(srv.URL, "m", 1, 1, 100, nil)
	out, err := c.EmbedTexts(context.Background(), []string{"fails", "succeeds"})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Nil(t, out[0])
	assert.NotNil(t, out[1])
}

func TestEmbedOne_ReturnsSingleVector(t *testing.T) {
	srv := echoServer(t, 3)
	defer srv.Close()
	c := New(srv.URL, "m", 3, 8, 100, nil)

	vec, err := c.EmbedOne(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, vec, 3)
}

func TestCheckConnection_SucceedsWhenDimensionsMatch(t *testing.T) {
	srv := echoServer(t, 4)
	defer srv.Close()
	c := New(srv.URL, "m", 4, 8, 100, nil)

	ok, msg := c.CheckConnection(context.Background())
	assert.True(t, ok)
	assert.Contains(t, msg, "OK")
}

func TestCheckConnection_FailsOnDimensionMismatch(t *testing.T) {
	// echoServer always returns a 4-wide vector for "test"; configure the
	// client to expect a different width.
	srv := echoServer(t, 4)
	defer srv.Close()
	c := New(srv.URL, "m", 99, 8, 100, nil)

	ok, msg := c.CheckConnection(context.Background())
	assert.False(t, ok)
	assert.True(t, strings.Contains(msg, "dimension mismatch"))
}

func TestCheckConnection_FailsWhenUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:0", "m", 4, 8, 100, nil)

	ok, msg := c.CheckConnection(context.Background())
	assert.False(t, ok)
	assert.Contains(t, msg, "could not reach")
}
