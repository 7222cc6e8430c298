package ingest

import (
	"strings"

	"github.com/samber/lo"
)

// Section is a run of text sharing one page and heading path.
type Section struct {
	Page    int
	Headers []string
	Text    string
}

type Chunk struct {
	ChunkIndex int
	PageIndex  int
	Headers    []string
	Content    string
}

// BuildChunks makes ~token-sized chunks with overlap from sections.
// Token approximation: ~4 chars per token.
func BuildChunks(sections []Section, targetTokens int, overlapTokens int) []Chunk {
	if targetTokens <= 0 {
		targetTokens = 600
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	targetChars := targetTokens * 4
	overlapChars := overlapTokens * 4

	chunks := make([]Chunk, 0, 128)
	chunkIdx := 0
	for _, sec := range sections {
		text := strings.TrimSpace(sec.Text)
		if text == "" {
			continue
		}
		runes := []rune(text)
		for startRune := 0; startRune < len(runes); {
			endRune := startRune + targetChars
			if endRune > len(runes) {
				endRune = len(runes)
			}
			chunks = append(chunks, Chunk{
				ChunkIndex: chunkIdx,
				PageIndex:  sec.Page,
				Headers:    sec.Headers,
				Content:    string(runes[startRune:endRune]),
			})
			chunkIdx++
			if endRune == len(runes) {
				break
			}
			// Advance with overlap (by runes)
			nextStartRune := endRune - overlapChars
			if nextStartRune <= startRune {
				nextStartRune = endRune
			}
			startRune = nextStartRune
		}
	}
	return chunks
}

// SplitMarkdown cuts text at ATX headings, tracking the heading path of every section.
func SplitMarkdown(text string) []Section {
	var (
		sections []Section
		path     []string
		body     strings.Builder
		inFence  bool
	)
	flush := func() {
		if strings.TrimSpace(body.String()) != "" {
			sections = append(sections, Section{
				Page:    1,
				Headers: append([]string(nil), path...),
				Text:    body.String(),
			})
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		level, title := heading(trimmed)
		if inFence || level == 0 {
			body.WriteString(line)
			body.WriteByte('\n')
			continue
		}
		flush()
		if level-1 < len(path) {
			path = path[:level-1]
		}
		for len(path) < level-1 {
			path = append(path, "")
		}
		path = append(path, title)
	}
	flush()

	for i := range sections {
		sections[i].Headers = lo.Compact(sections[i].Headers)
	}
	return sections
}

func heading(line string) (int, string) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(strings.TrimRight(line[level:], "#"))
}
