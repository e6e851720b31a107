package rag

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "documents"

// VectorStore indexes documents in a chromem collection.
type VectorStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

type storeOptions struct {
	dir        string
	compress   bool
	collection string
}

// StoreOption configures NewVectorStore.
type StoreOption func(*storeOptions)

// WithPersistDir keeps the database in dir instead of memory.
func WithPersistDir(dir string, compress bool) StoreOption {
	return func(o *storeOptions) {
		o.dir = dir
		o.compress = compress
	}
}

// WithCollection sets the collection name.
func WithCollection(name string) StoreOption {
	return func(o *storeOptions) {
		o.collection = name
	}
}

// NewVectorStore opens a store that embeds documents and queries with embed.
func NewVectorStore(embed chromem.EmbeddingFunc, opts ...StoreOption) (*VectorStore, error) {
	o := &storeOptions{collection: DefaultCollection}
	for _, opt := range opts {
		opt(o)
	}

	db := chromem.NewDB()
	if o.dir != "" {
		var err error
		db, err = chromem.NewPersistentDB(o.dir, o.compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector db at %s: %w", o.dir, err)
		}
	}

	col, err := db.GetOrCreateCollection(o.collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", o.collection, err)
	}
	return &VectorStore{db: db, collection: col}, nil
}

// AddDocuments embeds and stores docs. Documents with an existing ID are replaced.
func (s *VectorStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	cdocs := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		cdocs = append(cdocs, chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: cloneMetadata(d.Metadata),
		})
	}
	return s.collection.AddDocuments(ctx, cdocs, runtime.NumCPU())
}

// Count returns the number of stored documents.
func (s *VectorStore) Count() int {
	return s.collection.Count()
}

// SearchResult is a document with its cosine similarity to the query.
type SearchResult struct {
	Document
	Score float32
}

// Search returns the k documents most similar to query, best first.
// k is clamped to the number of stored documents.
func (s *VectorStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	k = min(k, s.collection.Count())
	if k <= 0 {
		return nil, nil
	}
	res, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(res))
	for _, r := range res {
		out = append(out, SearchResult{
			Document: Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata},
			Score:    r.Similarity,
		})
	}
	return out, nil
}
