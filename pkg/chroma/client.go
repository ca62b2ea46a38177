package chroma

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	"go.uber.org/zap"
)

const maxDocumentLength = 10000

type Config struct {
	APIKey       string
	Tenant       string
	Database     string
	GeminiAPIKey string
	Collection   string
}

// ChromaClient stores documents in one Chroma Cloud collection embedded
// with Gemini.
type ChromaClient struct {
	client     chroma.Client
	collection chroma.Collection
	log        *zap.SugaredLogger
}

func NewChromaClient(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*ChromaClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for embeddings")
	}
	if cfg.Collection == "" {
		cfg.Collection = "tasks"
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithAPIKey(cfg.GeminiAPIKey),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	opts := []chroma.ClientOption{
		chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
		chroma.WithCloudAPIKey(cfg.APIKey),
	}
	switch {
	case cfg.Database != "" && cfg.Tenant != "":
		opts = append(opts, chroma.WithDatabaseAndTenant(cfg.Database, cfg.Tenant))
	case cfg.Tenant != "":
		opts = append(opts, chroma.WithTenant(cfg.Tenant))
	}

	client, err := chroma.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(ctx, cfg.Collection,
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log = log.Named("chroma")
	log.Infow("initialized Chroma client", "collection", cfg.Collection)

	return &ChromaClient{
		client:     client,
		collection: collection,
		log:        log,
	}, nil
}

// Upsert stores text under id, replacing any previous version
func (c *ChromaClient) Upsert(ctx context.Context, id, text string, meta map[string]interface{}) error {
	if len(text) > maxDocumentLength {
		// embedding models have token limits
		text = text[:maxDocumentLength]
	}

	metadata, err := chroma.NewDocumentMetadataFromMap(meta)
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = c.collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(id)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(text),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", id, err)
	}
	return nil
}

func (c *ChromaClient) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	docIDs := make([]chroma.DocumentID, len(ids))
	for i, id := range ids {
		docIDs[i] = chroma.DocumentID(id)
	}
	if err := c.collection.Delete(ctx, chroma.WithIDsDelete(docIDs...)); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// Query returns document ids ranked by similarity to text
func (c *ChromaClient) Query(ctx context.Context, text string, limit int) ([]string, error) {
	results, err := c.collection.Query(
		ctx,
		chroma.WithQueryTexts(text),
		chroma.WithNResults(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	if results == nil || results.CountGroups() == 0 {
		return []string{}, nil
	}

	idGroups := results.GetIDGroups()
	if len(idGroups) == 0 {
		return []string{}, nil
	}

	ids := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		ids = append(ids, string(id))
	}
	c.log.Debugw("query completed", "query", text, "results", len(ids))
	return ids, nil
}

func (c *ChromaClient) Close() error {
	return c.client.Close()
}
