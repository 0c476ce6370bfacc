package embedding

import (
	"net/http"
	"time"
)

// EmbeddingProvider turns corpus chunks and query text into vectors.
// taskType follows the Gemini vocabulary ("RETRIEVAL_DOCUMENT",
// "RETRIEVAL_QUERY"); backends without the notion ignore it.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// httpClient is shared by the HTTP-backed providers. Retrieval applies
// its own shorter deadline on top; this is the hard ceiling.
var httpClient = &http.Client{Timeout: 30 * time.Second}
