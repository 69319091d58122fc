package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Chroma is a minimal REST client to a ChromaDB server. The collection is
// addressed by name and resolved to its server-side id once.
type Chroma struct {
	http         *resty.Client
	collection   string
	collectionID string
}

// Config contains connection details for the Chroma vector store.
type Config struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

type collectionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// New builds the client. Call Connect or EnsureCollection before querying.
func New(cfg Config) *Chroma {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Chroma{
		http:       resty.New().SetBaseURL(cfg.URL).SetTimeout(timeout),
		collection: cfg.Collection,
	}
}

// Connect resolves the collection name to its id. The collection must
// already exist.
func (c *Chroma) Connect(ctx context.Context) error {
	var info collectionInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&info).
		Get(fmt.Sprintf("/api/v1/collections/%s", c.collection))
	if err != nil {
		return fmt.Errorf("failed to reach chroma: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chroma collection lookup failed: %s", resp.Status())
	}
	c.collectionID = info.ID
	return nil
}

// EnsureCollection resolves the collection, creating it when missing. Used by
// the knowledge loader.
func (c *Chroma) EnsureCollection(ctx context.Context) error {
	var info collectionInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"name": c.collection, "get_or_create": true}).
		SetResult(&info).
		Post("/api/v1/collections")
	if err != nil {
		return fmt.Errorf("failed to reach chroma: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chroma collection create failed: %s", resp.Status())
	}
	c.collectionID = info.ID
	return nil
}

// Query returns the texts of the top-K documents nearest to the given vector,
// nearest first. No matches yields an empty slice.
func (c *Chroma) Query(ctx context.Context, vector []float32, k int) ([]string, error) {
	if c.collectionID == "" {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}
	var out struct {
		Documents [][]string `json:"documents"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"query_embeddings": [][]float32{vector},
			"n_results":        k,
			"include":          []string{"documents"},
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/api/v1/collections/%s/query", c.collectionID))
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chroma query failed: %s", resp.Status())
	}
	if len(out.Documents) == 0 {
		return []string{}, nil
	}
	return out.Documents[0], nil
}

// Add upserts a batch of documents with their embeddings and metadata.
func (c *Chroma) Add(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) {
		return fmt.Errorf("ids, vectors and documents length mismatch")
	}
	if c.collectionID == "" {
		if err := c.EnsureCollection(ctx); err != nil {
			return err
		}
	}
	body := map[string]any{
		"ids":        ids,
		"embeddings": vectors,
		"documents":  documents,
	}
	if metadatas != nil {
		body["metadatas"] = metadatas
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/api/v1/collections/%s/add", c.collectionID))
	if err != nil {
		return fmt.Errorf("failed to add documents to chroma: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chroma add failed: %s", resp.Status())
	}
	return nil
}
