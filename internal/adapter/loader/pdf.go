package loader

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// loadPDF extracts one document per page. Page numbers in metadata are
// zero-based. The pdf package panics on malformed input, so extraction
// runs behind a recover.
func (l *Loader) loadPDF(path string) (docs []domain.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("extract %s: %v", path, r)
		}
	}()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			l.logger.Warn("failed to extract page text", "path", path, "page", i, "error", err)
			text = ""
		}
		text = strings.TrimSpace(text)

		hasImages := false
		imageCount := 0
		if l.extractImages {
			images := describePageImages(page)
			imageCount = len(images)
			hasImages = imageCount > 0
			if hasImages {
				block := "--- Images on this page ---\n" + strings.Join(images, "\n")
				if text == "" {
					text = block
				} else {
					text += "\n\n" + block
				}
			}
		}

		// One document per page, even when the page yields no text.
		pageNum := i - 1
		docs = append(docs, domain.Document{
			Text: text,
			Metadata: domain.Metadata{
				Source:     path,
				Page:       &pageNum,
				HasImages:  hasImages,
				ImageCount: imageCount,
			},
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("extract %s: no pages", path)
	}
	return docs, nil
}

// describePageImages inventories the raster images among the page's
// XObject resources. A failure inspecting one page's resources yields no
// descriptions rather than failing the page.
func describePageImages(page pdf.Page) (images []string) {
	defer func() {
		if recover() != nil {
			images = nil
		}
	}()

	xobjects := page.V.Key("Resources").Key("XObject")
	if xobjects.Kind() != pdf.Dict && xobjects.Kind() != pdf.Stream {
		return nil
	}

	for _, name := range xobjects.Keys() {
		obj := xobjects.Key(name)
		if obj.Kind() != pdf.Stream || obj.Key("Subtype").Name() != "Image" {
			continue
		}

		width := obj.Key("Width").Int64()
		height := obj.Key("Height").Int64()
		size := obj.Key("Length").Int64()
		format := imageFormat(obj.Key("Filter"))

		images = append(images, fmt.Sprintf("[Image %d: %s format, %dx%d pixels, %.1f KB]",
			len(images)+1, format, width, height, float64(size)/1024))
	}
	return images
}

// imageFormat maps a stream's Filter entry to the familiar image format
// name. Filter may be a single name or an array of names applied in order;
// the last one determines the encoding.
func imageFormat(filter pdf.Value) string {
	name := ""
	switch filter.Kind() {
	case pdf.Name:
		name = filter.Name()
	case pdf.Array:
		if n := filter.Len(); n > 0 {
			name = filter.Index(n - 1).Name()
		}
	}

	switch name {
	case "DCTDecode":
		return "JPEG"
	case "JPXDecode":
		return "JP2"
	case "CCITTFaxDecode":
		return "TIFF"
	case "FlateDecode":
		return "PNG"
	default:
		return "UNKNOWN"
	}
}
