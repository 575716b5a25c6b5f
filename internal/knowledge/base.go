// Package knowledge is a small vector index over a static finance concept
// corpus, queried by the finance Q&A agent.
package knowledge

import (
	"context"
	"runtime"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

const collectionPrefix = "finance_knowledge"

// DefaultTopK is the number of passages returned by Search.
const DefaultTopK = 3

// Config configures the knowledge base.
type Config struct {
	// Path is the persistence directory; empty keeps the index in memory.
	Path string
	TopK int

	// Embedder names Embed and keys the collection, so indexes built with
	// different embedders never mix.
	Embedder string
	Embed    chromem.EmbeddingFunc
}

// Passage is one search hit.
type Passage struct {
	ID         string
	Title      string
	Category   string
	Content    string
	Similarity float32
}

// Searcher is the lookup surface used by the education tools.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Passage, error)
}

// Base is a chromem-go collection of corpus entries.
type Base struct {
	db         *chromem.DB
	collection *chromem.Collection
	topK       int
	log        *logger.Logger
}

var _ Searcher = (*Base)(nil)

// Open loads the collection from cfg.Path, building it from the embedded
// corpus when it is empty.
func Open(ctx context.Context, cfg Config) (*Base, error) {
	if cfg.Embed == nil {
		cfg.Embed = HashEmbedding()
		cfg.Embedder = "hash"
	}
	if cfg.Embedder == "" {
		cfg.Embedder = "custom"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	log := logger.Get().With("component", "knowledge")

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, errors.Wrapf(err, "open knowledge base at %s", cfg.Path)
		}
	} else {
		db = chromem.NewDB()
	}

	name := collectionPrefix + "_" + cfg.Embedder
	collection, err := db.GetOrCreateCollection(name, map[string]string{"embedder": cfg.Embedder}, cfg.Embed)
	if err != nil {
		return nil, errors.Wrap(err, "create knowledge collection")
	}

	b := &Base{db: db, collection: collection, topK: cfg.TopK, log: log}

	if collection.Count() == 0 {
		if err := b.build(ctx); err != nil {
			return nil, err
		}
	}

	log.Infow("Knowledge base ready",
		"documents", collection.Count(),
		"embedder", cfg.Embedder,
		"persistent", cfg.Path != "",
	)
	return b, nil
}

func (b *Base) build(ctx context.Context) error {
	entries, err := Corpus()
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:       e.ID,
			Content:  e.Content,
			Metadata: map[string]string{"title": e.Title, "category": e.Category},
		}
	}

	if err := b.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return errors.Wrap(err, "index corpus")
	}
	b.log.Infow("Indexed finance corpus", "documents", len(docs))
	return nil
}

// Count returns the number of indexed passages.
func (b *Base) Count() int {
	return b.collection.Count()
}

// Search returns the passages most similar to query, best first.
func (b *Base) Search(ctx context.Context, query string) ([]Passage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "empty query")
	}

	n := min(b.topK, b.collection.Count())
	if n == 0 {
		return nil, nil
	}

	results, err := b.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "query knowledge base")
	}

	out := make([]Passage, 0, len(results))
	for _, r := range results {
		out = append(out, Passage{
			ID:         r.ID,
			Title:      r.Metadata["title"],
			Category:   r.Metadata["category"],
			Content:    r.Content,
			Similarity: r.Similarity,
		})
	}
	return out, nil
}
