package loader

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"docqa/internal/domain"
)

// loadURL fetches the page and reduces it to visible body text.
func (l *Loader) loadURL(url string) (domain.Document, error) {
	resp, err := l.client.Get(url)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return domain.Document{}, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse %s: %w", url, err)
	}

	doc.Find("script, style, noscript").Remove()
	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		return domain.Document{}, fmt.Errorf("parse %s: no text content", url)
	}

	return domain.Document{
		Text:     text,
		Metadata: domain.Metadata{Source: url},
	}, nil
}

// collapseWhitespace trims each line and drops runs of blank lines so that
// page furniture does not dominate the chunker's separator hierarchy.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
