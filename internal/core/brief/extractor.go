package brief

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/audiencelab-io/audiencelab/internal/core"
)

// DocconvExtractor pulls plain text out of uploaded marketing briefs
// (PDF, DOCX, HTML, ...) so the text can seed an audience description.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// Extract converts the document and returns its text with blank lines
// collapsed. The contentType hint picks docconv's parsing strategy.
func (e *DocconvExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: extract %q: %w", contentType, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if res.Body == "" {
		return "", fmt.Errorf("docconv: no text extracted from %q", contentType)
	}

	var b strings.Builder
	for _, line := range strings.Split(res.Body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

var _ core.TextExtractor = (*DocconvExtractor)(nil)
