package ingestion_engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct joins chunks dropping the overlapping prefix of each.
func reconstruct(chunks []Chunk) string {
	var b strings.Builder
	prevEnd := 0
	for _, ch := range chunks {
		r := []rune(ch.Text)
		b.WriteString(string(r[prevEnd-ch.Start:]))
		prevEnd = ch.End
	}
	return b.String()
}

func sampleTexts() map[string]string {
	return map[string]string{
		"single word":  "hello",
		"short":        "The quick brown fox jumps over the lazy dog.",
		"paragraphs":   strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit.\n\n", 60),
		"lines":        strings.Repeat("line of text that keeps going\n", 100),
		"no spaces":    strings.Repeat("x", 3500),
		"unicode":      strings.Repeat("Größe naïve café 日本語のテキスト ", 120),
		"mixed spaces": strings.Repeat("a  b\t\tc \n d ", 400),
	}
}

func TestChunker_Reconstruction(t *testing.T) {
	c := NewChunker(200, 20)
	for name, text := range sampleTexts() {
		t.Run(name, func(t *testing.T) {
			chunks := c.Split(text)
			require.NotEmpty(t, chunks)
			assert.Equal(t, text, reconstruct(chunks))
		})
	}
}

func TestChunker_CountIndexAndBounds(t *testing.T) {
	c := NewChunker(150, 30)
	for name, text := range sampleTexts() {
		t.Run(name, func(t *testing.T) {
			chunks := c.Split(text)
			for i, ch := range chunks {
				assert.Equal(t, i, ch.Index)
				assert.Equal(t, len(chunks), ch.Count)
				assert.NotEmpty(t, ch.Text)
				assert.LessOrEqual(t, len([]rune(ch.Text)), 150)
				assert.Equal(t, ch.End-ch.Start, len([]rune(ch.Text)))
				assert.Equal(t, approxTokens(ch.Text), ch.TokenCount)
			}
			assert.Equal(t, 0, chunks[0].Start)
			assert.Equal(t, len([]rune(text)), chunks[len(chunks)-1].End)
		})
	}
}

func TestChunker_OverlapIsBounded(t *testing.T) {
	const overlap = 25
	c := NewChunker(120, overlap)
	for name, text := range sampleTexts() {
		t.Run(name, func(t *testing.T) {
			chunks := c.Split(text)
			for i := 1; i < len(chunks); i++ {
				prev, cur := chunks[i-1], chunks[i]
				assert.Greater(t, cur.Start, prev.Start, "chunks must advance")
				assert.LessOrEqual(t, cur.Start, prev.End, "chunks must not leave gaps")
				assert.LessOrEqual(t, prev.End-cur.Start, overlap)
			}
		})
	}
}

func TestChunker_PrefersParagraphBreaks(t *testing.T) {
	para := strings.Repeat("word ", 30) + "\n\n"
	text := strings.Repeat(para, 5)
	chunks := NewChunker(200, 0).Split(text)

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(ch.Text, "\n\n"), "chunk %d should end on a paragraph break", ch.Index)
	}
}

func TestChunker_OverlapStartsOnWord(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 40)
	chunks := NewChunker(100, 30).Split(text)

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks[1:] {
		runes := []rune(text)
		assert.Equal(t, ' ', runes[ch.Start-1], "chunk %d should start after a space", ch.Index)
	}
}

func TestChunker_ShortAndEmpty(t *testing.T) {
	c := NewChunker(1000, 100)

	assert.Empty(t, c.Split(""))

	chunks := c.Split("tiny document")
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny document", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Count)
}

func TestChunker_InvalidUTF8(t *testing.T) {
	text := "caf\xe9 menu " + strings.Repeat("plat du jour \xff\xfe ", 40)
	want := strings.ToValidUTF8(text, "\uFFFD")

	chunks := NewChunker(50, 10).Split(text)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch.Text), "chunk %d is not valid UTF-8", ch.Index)
	}
	assert.Equal(t, want, reconstruct(chunks))
	assert.True(t, strings.HasPrefix(chunks[0].Text, "caf\uFFFD menu"))
}

func TestNewChunker_Clamps(t *testing.T) {
	c := NewChunker(0, 5)
	assert.Equal(t, 1, c.size)
	assert.Equal(t, 0, c.overlap)

	c = NewChunker(10, 50)
	assert.Equal(t, 9, c.overlap)
}
