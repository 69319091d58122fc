package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeChroma(t *testing.T, query func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/collections/website_knowledge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "col-123", "name": "website_knowledge"})
	})
	mux.HandleFunc("POST /api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "col-123", "name": "website_knowledge"})
	})
	if query != nil {
		mux.HandleFunc("POST /api/v1/collections/col-123/query", query)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestQueryReturnsDocuments(t *testing.T) {
	var gotBody map[string]any
	srv := newFakeChroma(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"documents": [][]string{{"first chunk", "second chunk"}},
		})
	})

	c := New(Config{URL: srv.URL, Collection: "website_knowledge"})
	docs, err := c.Query(context.Background(), []float32{0.1, 0.2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"first chunk", "second chunk"}, docs)
	assert.Equal(t, float64(2), gotBody["n_results"])
}

func TestQueryNoMatches(t *testing.T) {
	srv := newFakeChroma(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"documents": [][]string{}})
	})

	c := New(Config{URL: srv.URL, Collection: "website_knowledge"})
	docs, err := c.Query(context.Background(), []float32{0.1}, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueryServerError(t *testing.T) {
	srv := newFakeChroma(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := New(Config{URL: srv.URL, Collection: "website_knowledge"})
	_, err := c.Query(context.Background(), []float32{0.1}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chroma query failed")
}

func TestConnectUnknownCollection(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(Config{URL: srv.URL, Collection: "missing"})
	err := c.Connect(context.Background())
	require.Error(t, err)
}

func TestAdd(t *testing.T) {
	var added map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "col-123"})
	})
	mux.HandleFunc("POST /api/v1/collections/col-123/add", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&added))
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(Config{URL: srv.URL, Collection: "website_knowledge"})
	err := c.Add(context.Background(),
		[]string{"c1"},
		[][]float32{{0.5}},
		[]string{"some text"},
		[]map[string]any{{"src_url": "https://example.com"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []any{"c1"}, added["ids"])
	assert.Equal(t, []any{"some text"}, added["documents"])
}

func TestAddLengthMismatch(t *testing.T) {
	c := New(Config{URL: "http://localhost:1", Collection: "x"})
	err := c.Add(context.Background(), []string{"a", "b"}, [][]float32{{0.1}}, []string{"t"}, nil)
	require.Error(t, err)
}
