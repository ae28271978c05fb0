package ingestion_engine

import (
	"strings"
	"unicode"
)

// Chunk is one window of a document's text.
//
// Start and End are rune offsets into the sanitized source text (see Split); consecutive chunks may
// overlap, so Start of chunk i+1 can be lower than End of chunk i.
type Chunk struct {
	Index      int
	Count      int
	Start      int
	End        int
	Text       string
	TokenCount int
}

// Chunker splits text into fixed-size windows with a bounded overlap.
// Sizes are measured in runes.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker returns a chunker with the given window size and overlap.
// Invalid values are clamped: size to at least 1, overlap to [0, size).
func NewChunker(size, overlap int) *Chunker {
	if size < 1 {
		size = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts text into ordered chunks covering all of it. Boundaries prefer a
// paragraph break, then a line break, then a space in the second half of the
// window, and fall back to a hard cut. Empty text yields no chunks.
//
// Invalid UTF-8 sequences are replaced with U+FFFD first, so the chunks
// reconstruct strings.ToValidUTF8(text, "\uFFFD") exactly.
func (c *Chunker) Split(text string) []Chunk {
	text = strings.ToValidUTF8(text, string(unicode.ReplacementChar))
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < n {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.boundary(runes, start, end)
		}

		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == n {
			break
		}
		start = c.nextStart(runes, start, end)
	}

	if len(chunks) == 0 {
		chunks = []Chunk{{Start: 0, End: n, Text: text}}
	}
	for i := range chunks {
		chunks[i].Count = len(chunks)
		chunks[i].TokenCount = approxTokens(chunks[i].Text)
	}
	return chunks
}

// boundary picks the cut position for the window [start, end).
func (c *Chunker) boundary(runes []rune, start, end int) int {
	floor := start + c.size/2
	if floor <= start {
		floor = start + 1
	}
	for _, isSep := range separators {
		for p := end; p > floor; p-- {
			if isSep(runes, p) {
				return p
			}
		}
	}
	return end
}

// nextStart backs up from end by at most the overlap, then moves forward to the
// next word start so the overlap never splits a word.
func (c *Chunker) nextStart(runes []rune, start, end int) int {
	if c.overlap == 0 {
		return end
	}
	next := end - c.overlap
	if next <= start {
		next = start + 1
	}
	for next < end && !unicode.IsSpace(runes[next-1]) {
		next++
	}
	return next
}

// separators report whether a cut at p lands right after the separator.
var separators = []func(runes []rune, p int) bool{
	func(r []rune, p int) bool { return p >= 2 && r[p-1] == '\n' && r[p-2] == '\n' },
	func(r []rune, p int) bool { return r[p-1] == '\n' },
	func(r []rune, p int) bool { return unicode.IsSpace(r[p-1]) },
}

// approxTokens is a cheap token estimator (~4 chars ≈ 1 token).
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
