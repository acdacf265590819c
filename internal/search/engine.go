package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"docsearch/internal/contextutil"
	"docsearch/internal/embeddings"
	"docsearch/internal/service"
	"docsearch/internal/vectorstore"
)

// rerankPoolFactor widens the candidate pool when reranking.
const rerankPoolFactor = 3

// Engine answers semantic search queries over indexed chunks.
type Engine struct {
	embedder    embeddings.Embedder
	vectorStore vectorstore.VectorStore
	collection  string
}

// NewEngine creates a new search engine.
func NewEngine(embedder embeddings.Embedder, vectorStore vectorstore.VectorStore, collection string) *Engine {
	return &Engine{
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
	}
}

// Search embeds the query and returns the most similar chunks, best first.
// Invalid queries return a *service.ValidationError.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return nil, &service.ValidationError{Field: "query", Message: "query cannot be empty"}
	}
	if q.TopK == 0 {
		q.TopK = DefaultTopK
	}
	if q.TopK < 1 || q.TopK > MaxTopK {
		return nil, &service.ValidationError{Field: "top_k", Message: fmt.Sprintf("top_k must be between 1 and %d", MaxTopK)}
	}

	vector, err := e.embedder.EmbedText(ctx, q.Text)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return nil, fmt.Errorf("%w: failed to embed query: %w", service.ErrExternalService, err)
	}

	var filters map[string]any
	if q.Filename != "" {
		filters = map[string]any{vectorstore.FieldFilename: q.Filename}
	}

	k := q.TopK
	if q.Rerank {
		k = min(q.TopK*rerankPoolFactor, MaxTopK)
	}

	hits, err := e.vectorStore.Search(ctx, e.collection, vector, k, filters)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "error", err)
		return nil, fmt.Errorf("%w: failed to search vectors: %w", service.ErrExternalService, err)
	}

	results := make([]Result, 0, len(hits))
	ranking := make([]float32, 0, len(hits))
	for _, hit := range hits {
		r := resultFromHit(hit)
		score := hit.Score
		if q.Rerank {
			lex := lexicalScore(q.Text, r.ChunkText, r.Header)
			r.LexicalScore = round4(float64(lex))
			score = blend(hit.Score, lex)
		}
		results = append(results, r)
		ranking = append(ranking, score)
	}

	if q.Rerank {
		sort.Stable(byScore{results: results, scores: ranking})
	}
	if len(results) > q.TopK {
		results = results[:q.TopK]
	}

	logger.InfoContext(ctx, "search completed", "top_k", q.TopK, "results", len(results), "rerank", q.Rerank)
	return results, nil
}

// resultFromHit maps a vector store payload onto a Result.
func resultFromHit(hit vectorstore.SearchResult) Result {
	r := Result{Similarity: round4(float64(hit.Score))}
	r.DocumentName, _ = hit.Meta[vectorstore.FieldFilename].(string)
	r.ChunkText, _ = hit.Meta[vectorstore.FieldText].(string)
	r.Header, _ = hit.Meta[vectorstore.FieldHeader].(string)
	r.ChunkType, _ = hit.Meta[vectorstore.FieldChunkType].(string)
	r.IsPartial, _ = hit.Meta[vectorstore.FieldIsPartial].(bool)
	r.ChunkIndex = intValue(hit.Meta[vectorstore.FieldChunkIndex])
	r.HeaderLevel = intValue(hit.Meta[vectorstore.FieldHeaderLevel])
	return r
}

// intValue accepts the integer shapes payload values arrive in.
func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

type byScore struct {
	results []Result
	scores  []float32
}

func (s byScore) Len() int           { return len(s.results) }
func (s byScore) Less(i, j int) bool { return s.scores[i] > s.scores[j] }
func (s byScore) Swap(i, j int) {
	s.results[i], s.results[j] = s.results[j], s.results[i]
	s.scores[i], s.scores[j] = s.scores[j], s.scores[i]
}
