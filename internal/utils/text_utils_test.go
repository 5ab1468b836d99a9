package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExcerptShortTextPassesThrough(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "hello", tp.Excerpt("hello", 100))
}

func TestExcerptNoCapWhenMaxSizeZero(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	long := strings.Repeat("a", 10000)

	assert.Equal(t, long, tp.Excerpt(long, 0))
}

func TestExcerptTruncatesWithMarker(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	long := strings.Repeat("a", 200)

	out := tp.Excerpt(long, 50)

	assert.True(t, strings.HasSuffix(out, "[... content truncated ...]"))
	assert.Equal(t, strings.Repeat("a", 50), strings.TrimSuffix(out, "\n[... content truncated ...]"))
}

func TestExcerptDoesNotSplitMultibyteRune(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())
	// 3-byte runes; a 10-byte cap falls mid-rune
	text := strings.Repeat("€", 20)

	out := tp.Excerpt(text, 10)

	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "€€€"))
}

func TestExcerptStripsInvalidUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.Excerpt("ok\xffok", 0)

	assert.Equal(t, "okok", out)
	assert.True(t, utf8.ValidString(out))
}
