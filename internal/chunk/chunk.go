// Package chunk splits long source text into bounded segments that can be
// prompted independently.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxSize is the chunk budget, in characters, used for generation.
const DefaultMaxSize = 8000

const (
	paragraphSep = "\n\n"
	sentenceSep  = ". "
)

// Split partitions text into chunks of at most maxSize characters.
//
// Text that already fits is returned as a single chunk. Longer text is split
// on blank lines and paragraphs are packed greedily; a paragraph that alone
// exceeds maxSize is split on ". " and its sentences are packed the same way.
// A single sentence longer than maxSize is emitted intact. Every returned
// chunk is trimmed and non-empty. Blank text yields no chunks.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if runeLen(text) <= maxSize {
		return []string{text}
	}

	p := &packer{max: maxSize}
	for _, para := range strings.Split(text, paragraphSep) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= maxSize {
			p.add(para, paragraphSep)
			continue
		}

		// Oversized paragraph: start it on a fresh chunk, then pack sentences.
		p.flush()
		sentences := strings.Split(para, sentenceSep)
		for i, s := range sentences {
			if i < len(sentences)-1 {
				s += "."
			}
			p.add(s, " ")
		}
	}
	p.flush()
	return p.chunks
}

// packer accumulates pieces into a buffer and flushes it as a chunk whenever
// the next piece would push it over max.
type packer struct {
	max    int
	chunks []string
	buf    strings.Builder
	n      int
}

func (p *packer) add(piece, sep string) {
	size := runeLen(piece)
	if p.n > 0 && p.n+runeLen(sep)+size > p.max {
		p.flush()
	}
	if p.n > 0 {
		p.buf.WriteString(sep)
		p.n += runeLen(sep)
	}
	p.buf.WriteString(piece)
	p.n += size
}

func (p *packer) flush() {
	if s := strings.TrimSpace(p.buf.String()); s != "" {
		p.chunks = append(p.chunks, s)
	}
	p.buf.Reset()
	p.n = 0
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
