package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DocumentExtractor turns an uploaded attachment into text the engine can
// classify and solve against. The real extraction service lives outside
// this module; the engine consumes only the extracted text.
type DocumentExtractor interface {
	Extract(buffer []byte, filename, mimeType string) (string, error)
}

// PlainTextExtractor handles the formats that are already text. Anything
// else is declined so the caller can route it to a richer service.
type PlainTextExtractor struct{}

var textualMimePrefixes = []string{"text/", "application/json", "application/csv", "application/xml"}

func (PlainTextExtractor) Extract(buffer []byte, filename, mimeType string) (string, error) {
	textual := false
	for _, prefix := range textualMimePrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			textual = true
			break
		}
	}
	if !textual || !utf8.Valid(buffer) {
		return "", fmt.Errorf("cannot extract text from %s (%s)", filename, mimeType)
	}
	return string(buffer), nil
}
