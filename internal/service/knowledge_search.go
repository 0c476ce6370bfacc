package service

import (
	"context"

	"ai-divination-be/internal/repository/unitofwork"
	"ai-divination-be/pkg/divination/retrieval"
)

// knowledgeSearch bridges the retriever to the pgvector-backed corpus.
type knowledgeSearch struct {
	uowFactory unitofwork.RepositoryFactory
}

// Ensure knowledgeSearch implements ChunkStore
var _ retrieval.ChunkStore = &knowledgeSearch{}

func NewKnowledgeSearch(uowFactory unitofwork.RepositoryFactory) retrieval.ChunkStore {
	return &knowledgeSearch{uowFactory: uowFactory}
}

func (k *knowledgeSearch) SearchSimilar(ctx context.Context, vector []float32, limit int, threshold float64) ([]retrieval.Chunk, error) {
	uow := k.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.KnowledgeChunkRepository().SearchSimilarWithScore(ctx, vector, limit, threshold)
	if err != nil {
		return nil, err
	}

	chunks := make([]retrieval.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = retrieval.Chunk{
			Text:   s.Chunk.Content,
			Source: s.Chunk.Source,
			Score:  s.Score,
		}
	}
	return chunks, nil
}
