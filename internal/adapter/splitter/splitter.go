package splitter

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

// separators is the boundary hierarchy tried in order: paragraph, line,
// sentence, word, and finally an arbitrary character split.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts document text into chunks of at most chunkSize characters,
// preferring the cheapest boundary that fits the size budget. When no
// boundary exists within the budget it falls back to fixed windows that
// overlap by exactly the configured amount. Lengths are measured in runes.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New validates the chunking parameters. overlap must be smaller than
// chunkSize or adjacent windows would never advance.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split chunks every document, copying its metadata onto each chunk.
// Identical input always yields an identical, identically ordered output.
func (s *Splitter) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		for _, text := range s.splitText(doc.Text) {
			chunks = append(chunks, domain.Chunk{
				Text:     text,
				Metadata: doc.Metadata,
			})
		}
	}
	return chunks
}

func (s *Splitter) splitText(text string) []string {
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return s.window(text)
	}

	parts := splitKeep(text, sep)

	var out []string
	var cur []string
	curLen := 0

	flush := func() {
		if curLen > 0 {
			merged := strings.Join(cur, "")
			if strings.TrimSpace(merged) != "" {
				out = append(out, merged)
			}
		}
	}

	for _, p := range parts {
		pLen := runeLen(p)

		// A part too large for any chunk is split again at the next
		// cheaper boundary.
		if pLen > s.chunkSize {
			flush()
			cur, curLen = nil, 0
			out = append(out, s.split(p, rest)...)
			continue
		}

		if curLen > 0 && curLen+pLen > s.chunkSize {
			flush()
			// Carry trailing parts into the next chunk as overlap.
			cur, curLen = carryTail(cur, s.overlap)
			for curLen > 0 && curLen+pLen > s.chunkSize {
				curLen -= runeLen(cur[0])
				cur = cur[1:]
			}
		}

		cur = append(cur, p)
		curLen += pLen
	}
	flush()

	return out
}

// window splits text into fixed chunkSize windows stepping by
// chunkSize-overlap, so each full window shares exactly overlap runes
// with its successor.
func (s *Splitter) window(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.overlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

// pickSeparator returns the first separator in the hierarchy that occurs
// in text, and the remaining (cheaper) separators after it.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	return "", nil
}

// splitKeep splits text by sep, keeping the separator attached to the end
// of each piece so joining pieces reproduces the original text.
func splitKeep(text, sep string) []string {
	raw := strings.Split(text, sep)
	parts := make([]string, 0, len(raw))
	for i, p := range raw {
		if i < len(raw)-1 {
			p += sep
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// carryTail returns the longest suffix of parts whose total length does
// not exceed maxLen, with that total.
func carryTail(parts []string, maxLen int) ([]string, int) {
	if maxLen == 0 {
		return nil, 0
	}
	total := 0
	i := len(parts)
	for i > 0 {
		l := runeLen(parts[i-1])
		if total+l > maxLen {
			break
		}
		total += l
		i--
	}
	tail := make([]string, len(parts)-i)
	copy(tail, parts[i:])
	return tail, total
}

func runeLen(s string) int {
	return len([]rune(s))
}
