package retrieval

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"ai-divination-be/pkg/embedding"
)

type stubEmbedder struct {
	err   error
	delay time.Duration
}

func (s *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

type stubChunkStore struct {
	chunks    []Chunk
	err       error
	gotLimit  int
	gotThresh float64
}

func (s *stubChunkStore) SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64) ([]Chunk, error) {
	s.gotLimit = limit
	s.gotThresh = threshold
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

func newTestRetriever(embedder embedding.EmbeddingProvider, chunks ChunkStore, cfg Config) *Retriever {
	return NewRetriever(embedder, chunks, cfg, log.New(io.Discard, "", 0))
}

func TestSearchReturnsChunks(t *testing.T) {
	store := &stubChunkStore{chunks: []Chunk{
		{Text: "大安者，身不动时。", Source: "六宫释义", Score: 0.92},
		{Text: "官鬼主事业压力。", Source: "六亲释义", Score: 0.81},
	}}
	retriever := newTestRetriever(&stubEmbedder{}, store, Config{TopK: 5, ScoreThreshold: 0.7, Timeout: time.Second})

	chunks := retriever.Search(context.Background(), []string{"今年能升职吗", "career"})

	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if store.gotLimit != 5 || store.gotThresh != 0.7 {
		t.Errorf("query params = %d/%.2f, want 5/0.70", store.gotLimit, store.gotThresh)
	}
	if chunks[0].Source != "六宫释义" {
		t.Errorf("order not preserved: %+v", chunks)
	}
}

func TestSearchEmptyTermsShortCircuits(t *testing.T) {
	retriever := newTestRetriever(&stubEmbedder{}, &stubChunkStore{}, Config{Timeout: time.Second})

	if got := retriever.Search(context.Background(), nil); got != nil {
		t.Errorf("Search(nil) = %v, want nil", got)
	}
	if got := retriever.Search(context.Background(), []string{"  ", ""}); got != nil {
		t.Errorf("Search(blank) = %v, want nil", got)
	}
}

func TestSearchEmbedderFailureDegradesToEmpty(t *testing.T) {
	retriever := newTestRetriever(
		&stubEmbedder{err: errors.New("stub: embedding down")},
		&stubChunkStore{chunks: []Chunk{{Text: "x"}}},
		Config{Timeout: time.Second},
	)

	if got := retriever.Search(context.Background(), []string{"问题"}); got != nil {
		t.Errorf("Search = %v, want nil on embedder failure", got)
	}
}

func TestSearchStoreFailureDegradesToEmpty(t *testing.T) {
	retriever := newTestRetriever(
		&stubEmbedder{},
		&stubChunkStore{err: errors.New("stub: store down")},
		Config{Timeout: time.Second},
	)

	if got := retriever.Search(context.Background(), []string{"问题"}); got != nil {
		t.Errorf("Search = %v, want nil on store failure", got)
	}
}

func TestSearchTimeoutDegradesToEmpty(t *testing.T) {
	retriever := newTestRetriever(
		&stubEmbedder{delay: 200 * time.Millisecond},
		&stubChunkStore{chunks: []Chunk{{Text: "x"}}},
		Config{Timeout: 20 * time.Millisecond},
	)

	start := time.Now()
	got := retriever.Search(context.Background(), []string{"问题"})
	elapsed := time.Since(start)

	if got != nil {
		t.Errorf("Search = %v, want nil on timeout", got)
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("Search blocked %s past its timeout", elapsed)
	}
}

func TestSearchTrimsOversizedChunks(t *testing.T) {
	long := strings.Repeat("卦", 50)
	retriever := newTestRetriever(
		&stubEmbedder{},
		&stubChunkStore{chunks: []Chunk{{Text: long, Source: "典籍", Score: 0.9}}},
		Config{Timeout: time.Second, MaxChunkChars: 10},
	)

	chunks := retriever.Search(context.Background(), []string{"问题"})
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if got := len([]rune(chunks[0].Text)); got != 10 {
		t.Errorf("trimmed length = %d runes, want 10", got)
	}
}

func TestSearchDefaultsAppliedFromConfig(t *testing.T) {
	store := &stubChunkStore{}
	retriever := newTestRetriever(&stubEmbedder{}, store, Config{})

	retriever.Search(context.Background(), []string{"问题"})
	if store.gotLimit != DefaultConfig().TopK {
		t.Errorf("limit = %d, want default %d", store.gotLimit, DefaultConfig().TopK)
	}
}
