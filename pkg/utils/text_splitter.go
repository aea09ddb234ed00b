package utils

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultSeparators orders split points from strongest to weakest: paragraph
// breaks, line breaks, sentence ends, words, then single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// LengthFunc measures a piece of text for chunk budgeting. RuneLength counts
// runes; a TokenCounter measures model tokens instead.
type LengthFunc func(string) int

func RuneLength(s string) int {
	return len([]rune(s))
}

// RecursiveSplitter splits text hierarchically: it tries the strongest
// separator first and only descends to weaker ones for pieces that are still
// over budget. Adjacent chunks share an overlap window so context survives
// the boundary.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	length       LengthFunc
}

func NewRecursiveSplitter(chunkSize int, chunkOverlap int, length LengthFunc) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	if length == nil {
		length = RuneLength
	}
	return &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
		length:       length,
	}
}

func (s *RecursiveSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	// Pick the strongest separator that actually occurs in this text.
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			remaining = nil
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var final []string
	var fitting []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if s.length(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			final = append(final, s.mergePieces(fitting)...)
			fitting = nil
		}
		if len(remaining) == 0 {
			// No weaker separator left; emit oversized piece as-is.
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, remaining)...)
		}
	}
	if len(fitting) > 0 {
		final = append(final, s.mergePieces(fitting)...)
	}
	return final
}

// mergePieces packs consecutive pieces into chunks up to chunkSize, then
// slides the window back so the next chunk starts with up to chunkOverlap of
// trailing context.
func (s *RecursiveSplitter) mergePieces(pieces []string) []string {
	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		n := s.length(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= s.length(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitKeepingSeparator splits on sep, keeping the separator as a prefix of
// the following piece so nothing is lost when pieces are rejoined. An empty
// separator degrades to per-rune pieces.
func splitKeepingSeparator(text string, sep string) []string {
	if sep == "" {
		runes := []rune(text)
		pieces := make([]string, len(runes))
		for i, r := range runes {
			pieces[i] = string(r)
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			part = sep + part
		}
		if part != "" {
			pieces = append(pieces, part)
		}
	}
	return pieces
}

// SplitText splits text into rune-budgeted chunks with the default
// separators.
func SplitText(text string, chunkSize int, overlap int) []string {
	return NewRecursiveSplitter(chunkSize, overlap, RuneLength).Split(text)
}

// TokenCounter measures text in model tokens using the cl100k_base encoding.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenCounter() (*TokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TokenCounter{encoding: encoding}, nil
}

func (t *TokenCounter) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}
