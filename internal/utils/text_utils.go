package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const truncationMarker = "\n[... content truncated ...]"

// TextProcessor prepares email bodies for the analysis request: bounded
// size, valid UTF-8
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{logger: logger}
}

// Excerpt returns text capped at maxSize bytes without splitting a UTF-8
// sequence, with invalid sequences stripped. maxSize <= 0 means no cap.
func (tp *TextProcessor) Excerpt(text string, maxSize int) string {
	sanitized := tp.sanitizeUTF8(text)
	if maxSize <= 0 || len(sanitized) <= maxSize {
		return sanitized
	}

	truncated := sanitized[:maxSize]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Email body truncated for analysis",
		zap.Int("original_size", len(sanitized)),
		zap.Int("excerpt_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + truncationMarker
}

func (tp *TextProcessor) sanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
