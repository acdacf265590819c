package embeddings

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docsearch/internal/embeddings Embedder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"docsearch/internal/contextutil"
)

// DefaultBatchSize is the number of texts sent per embeddings request.
const DefaultBatchSize = 32

// ErrDimensionMismatch is returned when the server produces vectors of the wrong size.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder turns text into dense vectors.
type Embedder interface {
	// EmbedTexts returns one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedText returns the vector for a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Options configures a Client.
type Options struct {
	BaseURL    string // Server root, e.g. http://localhost:8081; /v1 is appended
	APIKey     string
	Model      string
	Dimension  int // Expected vector size, every response is validated against it
	MaxRetries int
	RetryDelay time.Duration
	BatchSize  int
	HTTPClient *http.Client
}

// Client talks to an OpenAI-compatible embeddings endpoint.
// It implements the Embedder interface.
type Client struct {
	client     *openai.Client
	model      string
	dimension  int
	maxRetries int
	retryDelay time.Duration
	batchSize  int
}

// NewClient creates a new embeddings client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("embeddings base URL is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("embeddings model is required")
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be greater than 0")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/") + "/v1"
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Client{
		client:     openai.NewClientWithConfig(cfg),
		model:      opts.Model,
		dimension:  opts.Dimension,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		batchSize:  batchSize,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// EmbedText returns the vector for a single text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts generates embeddings for the given texts in batches.
// Returns a slice of float32 vectors, one per input text.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vecs, err := c.embedBatchWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vecs...)
	}
	return result, nil
}

func (c *Client) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(c.retryDelay, attempt)
			logger.WarnContext(ctx, "retrying embeddings request", "attempt", attempt+1, "delay", delay, "error", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("embeddings request cancelled: %w", err)
			}
		}

		vecs, err := c.embedBatch(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}

	return nil, fmt.Errorf("failed to generate embeddings: %w", lastErr)
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	result := make([][]float32, len(texts))
	for i, data := range resp.Data {
		pos := i
		if data.Index >= 0 && data.Index < len(texts) {
			pos = data.Index
		}
		if len(data.Embedding) != c.dimension {
			return nil, fmt.Errorf("%w: embedding %d has size %d, expected %d", ErrDimensionMismatch, pos, len(data.Embedding), c.dimension)
		}
		result[pos] = data.Embedding
	}

	for i, vec := range result {
		if vec == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	return result, nil
}

// retryable reports whether a failed request is worth repeating.
// Client errors other than rate limiting are final, as are dimension mismatches.
func retryable(err error) bool {
	if errors.Is(err, ErrDimensionMismatch) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}
	return status == 0
}
