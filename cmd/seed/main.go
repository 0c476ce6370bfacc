package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/repository/implementation"
	"ai-divination-be/internal/repository/specification"
	"ai-divination-be/pkg/database"
	"ai-divination-be/pkg/divination/liuren"
	"ai-divination-be/pkg/embedding"
	"ai-divination-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds the knowledge corpus from the canonical divination tables, one
// embedded chunk per passage.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("Error: GOOGLE_GEMINI_API_KEY is not set")
	}
	embedder := embedding.NewGeminiProvider(apiKey)

	repo := implementation.NewKnowledgeChunkRepository(db)
	ctx := context.Background()

	color.Cyan("🚀 Seeding divination knowledge corpus\n")

	type passage struct {
		source   string
		category string
		text     string
	}
	var passages []passage

	for _, p := range liuren.Palaces {
		passages = append(passages, passage{
			source:   "六宫释义",
			category: "palace",
			text: fmt.Sprintf("%s宫，第%d位，属%s，%s。%s宜向%s。建议：%s",
				p.Name, p.Position, p.Element, p.Nature, p.Meaning, p.Direction, p.Advice),
		})
	}
	for _, b := range liuren.Branches {
		passages = append(passages, passage{
			source:   "十二地支",
			category: "branch",
			text:     fmt.Sprintf("地支%s，第%d位，属%s。%s", b.Name, b.Order, b.Element, b.Meaning),
		})
	}
	for _, b := range liuren.Beasts {
		passages = append(passages, passage{
			source:   "六兽释义",
			category: "beast",
			text: fmt.Sprintf("%s，属%s，起于%s、%s。性情：%s。%s",
				b.Name, b.Element, b.Anchors[0], b.Anchors[1], b.Traits, b.Meaning),
		})
	}
	for _, r := range liuren.AllRelatives {
		passages = append(passages, passage{
			source:   "六亲释义",
			category: "relative",
			text:     fmt.Sprintf("六亲%s：%s", r, liuren.RelativeMeanings[r]),
		})
	}
	for _, t := range liuren.QuestionTypes() {
		passages = append(passages, passage{
			source:   "问题类型",
			category: "question_type",
			text:     fmt.Sprintf("问题类型%s（%s）的解读侧重其对应用神的旺衰与所落之宫的吉凶。", liuren.QuestionTypeLabel(t), t),
		})
	}

	// Re-seeding replaces each source wholesale
	sources := map[string]bool{}
	for _, p := range passages {
		if sources[p.source] {
			continue
		}
		sources[p.source] = true
		if err := repo.DeleteBySource(ctx, p.source); err != nil {
			color.Red("Failed to clear source %s: %v", p.source, err)
		}
	}

	seeded := 0
	for _, p := range passages {
		// Long passages get split so each chunk stays retrievable
		for _, text := range utils.SplitText(p.text, 600, 50) {
			res, err := embedder.Generate(text, "RETRIEVAL_DOCUMENT")
			if err != nil {
				color.Red("Failed to embed passage from %s: %v", p.source, err)
				continue
			}

			chunk := &entity.KnowledgeChunk{
				Id:       uuid.New(),
				Source:   p.source,
				Category: p.category,
				Content:  text,
			}
			if err := repo.Create(ctx, chunk, res.Embedding.Values); err != nil {
				color.Red("Failed to store chunk from %s: %v", p.source, err)
				continue
			}
			seeded++

			// Stay under the embedding API rate limit
			time.Sleep(200 * time.Millisecond)
		}
	}

	color.Green("✅ Seeded %d knowledge chunks", seeded)

	for _, category := range []string{"palace", "branch", "beast", "relative", "question_type"} {
		n, err := repo.Count(ctx, specification.ByCategory{Category: category})
		if err != nil {
			continue
		}
		color.White("   %s: %d chunks", category, n)
	}
}
