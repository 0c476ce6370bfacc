package utils

// sentence terminators for the corpus, which is mostly Chinese prose.
var sentenceEnds = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true,
	'.': true, '!': true, '?': true, '\n': true,
}

// SplitText splits a long string into chunks of at most chunkSize runes,
// carrying 'overlap' runes of trailing context into the next chunk.
// Chunk boundaries snap back to the nearest sentence terminator when one
// falls within the final quarter of the chunk, so embeddings are not fed
// half sentences.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := end
		for i := end - 1; i > end-chunkSize/4; i-- {
			if sentenceEnds[runes[i]] {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			next = start + step
		}
		start = next
	}

	return chunks
}
