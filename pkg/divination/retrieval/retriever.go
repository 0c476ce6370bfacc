package retrieval

import (
	"context"
	"log"
	"strings"
	"time"

	"ai-divination-be/pkg/embedding"
)

// Chunk is one retrieved knowledge passage.
type Chunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// ChunkStore is the vector-search collaborator. Implementations return
// chunks in descending similarity order.
type ChunkStore interface {
	SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64) ([]Chunk, error)
}

// Config bounds one retrieval call.
type Config struct {
	TopK           int
	ScoreThreshold float64
	Timeout        time.Duration
	MaxChunkChars  int
}

func DefaultConfig() Config {
	return Config{
		TopK:           5,
		ScoreThreshold: 0.7,
		Timeout:        10 * time.Second,
		MaxChunkChars:  800,
	}
}

// Retriever performs timeout-bounded similarity search. Failure of any
// kind resolves to an empty result: no error ever reaches the caller
// through this path, and no partial result is mixed with a timeout.
type Retriever struct {
	embedder embedding.EmbeddingProvider
	chunks   ChunkStore
	cfg      Config
	logger   *log.Logger
}

func NewRetriever(embedder embedding.EmbeddingProvider, chunks ChunkStore, cfg Config, logger *log.Logger) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = DefaultConfig().MaxChunkChars
	}
	return &Retriever{
		embedder: embedder,
		chunks:   chunks,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search embeds the joined terms and runs the similarity query. The
// whole call races the configured timeout as one unit.
func (r *Retriever) Search(ctx context.Context, terms []string) []Chunk {
	query := strings.TrimSpace(strings.Join(terms, " "))
	if query == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	type outcome struct {
		chunks []Chunk
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := r.embedder.Generate(query, "RETRIEVAL_QUERY")
		if err != nil {
			done <- outcome{err: err}
			return
		}
		chunks, err := r.chunks.SearchSimilar(callCtx, res.Embedding.Values, r.cfg.TopK, r.cfg.ScoreThreshold)
		done <- outcome{chunks: chunks, err: err}
	}()

	select {
	case <-callCtx.Done():
		r.logger.Printf("[WARN] Retrieval timed out after %s, degrading to empty context", r.cfg.Timeout)
		return nil
	case out := <-done:
		if out.err != nil {
			r.logger.Printf("[WARN] Retrieval failed, degrading to empty context: %v", out.err)
			return nil
		}
		return r.trim(out.chunks)
	}
}

func (r *Retriever) trim(chunks []Chunk) []Chunk {
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		runes := []rune(c.Text)
		if len(runes) > r.cfg.MaxChunkChars {
			c.Text = string(runes[:r.cfg.MaxChunkChars])
		}
		out = append(out, c)
	}
	return out
}
