// Package chunker splits parsed documents into section-sized text chunks
// for the search index.
package chunker

import (
	"strings"

	"github.com/dgallion1/guides/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // target chunk size in tokens
	ChunkOverlap int // overlap between consecutive chunks of one section
	MinChunk     int // smallest chunk worth indexing
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    500,
		ChunkOverlap: 50,
		MinChunk:     1,
	}
}

// ChunkDocument walks the sections of doc and emits one or more chunks per
// section. Text before the first title is chunked with an empty breadcrumb
// and no anchor.
func ChunkDocument(doc *doctree.Document, cfg Config) []doctree.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 1
	}

	w := &walker{file: doc.Path, cfg: cfg}
	w.nodes(doc.Nodes, nil, "")
	return w.chunks
}

type walker struct {
	file   string
	cfg    Config
	chunks []doctree.Chunk
}

// nodes chunks the text of the non-section nodes, then recurses into the
// sections.
func (w *walker) nodes(nodes []doctree.Node, breadcrumb []string, anchor string) {
	var parts []string
	for _, n := range nodes {
		if _, ok := n.(*doctree.Section); ok {
			continue
		}
		if t := strings.TrimSpace(doctree.PlainText(n)); t != "" {
			parts = append(parts, t)
		}
	}
	w.emit(strings.Join(parts, "\n\n"), breadcrumb, anchor)

	for _, n := range nodes {
		sec, ok := n.(*doctree.Section)
		if !ok {
			continue
		}
		bc := append(copyBreadcrumb(breadcrumb), doctree.PlainText(sec.Title))
		w.nodes(sec.Nodes, bc, sec.Title.ID)
	}
}

func (w *walker) emit(text string, breadcrumb []string, anchor string) {
	if text == "" {
		return
	}
	parts := []string{text}
	if EstimateTokens(text) > w.cfg.ChunkSize {
		parts = splitText(text, w.cfg.ChunkSize, w.cfg.ChunkOverlap)
	}
	for _, part := range parts {
		tokens := EstimateTokens(part)
		if tokens < w.cfg.MinChunk {
			continue
		}
		w.chunks = append(w.chunks, doctree.Chunk{
			File:       w.file,
			Anchor:     anchor,
			Text:       part,
			Index:      len(w.chunks),
			Breadcrumb: copyBreadcrumb(breadcrumb),
			Tokens:     tokens,
		})
	}
}

// splitText breaks text into chunks of approximately targetTokens, with overlap.
func splitText(text string, targetTokens, overlapTokens int) []string {
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		if paraTokens > targetTokens {
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			subParts := splitBySentences(para, targetTokens, overlapTokens)
			result = append(result, subParts...)
			continue
		}

		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	sentences := splitSentences(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}

// getOverlapText extracts the last N tokens worth of text for overlap.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
