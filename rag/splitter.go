package rag

import (
	"fmt"
	"strconv"
	"strings"
)

// RecursiveCharacterTextSplitter splits text on the first separator that
// occurs in it and recurses with the next separators into pieces that are
// still too long. Adjacent pieces are merged back up to the chunk size,
// carrying up to the overlap from the end of one chunk into the next.
type RecursiveCharacterTextSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
	lengthFunc   func(string) int
}

// SplitterOption configures a RecursiveCharacterTextSplitter.
type SplitterOption func(*RecursiveCharacterTextSplitter)

// WithChunkSize sets the maximum chunk length.
func WithChunkSize(size int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets how much text consecutive chunks may share.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators replaces the separator list. "" splits into characters.
func WithSeparators(separators ...string) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.separators = separators
	}
}

// WithLengthFunction sets how text length is measured. Defaults to bytes.
func WithLengthFunction(fn func(string) int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.lengthFunc = fn
	}
}

// NewRecursiveCharacterTextSplitter creates a splitter with chunk size 1000,
// overlap 200 and the separators "\n\n", "\n", " " and "".
func NewRecursiveCharacterTextSplitter(opts ...SplitterOption) *RecursiveCharacterTextSplitter {
	s := &RecursiveCharacterTextSplitter{
		separators:   []string{"\n\n", "\n", " ", ""},
		chunkSize:    1000,
		chunkOverlap: 200,
		lengthFunc:   func(s string) int { return len(s) },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkSize <= 0 {
		s.chunkSize = 1000
	}
	if s.chunkOverlap < 0 || s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = 0
	}
	return s
}

// SplitText splits text into chunks.
func (s *RecursiveCharacterTextSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

// SplitDocuments splits every document. Chunks inherit the metadata of their
// parent and record their position in chunk_index.
func (s *RecursiveCharacterTextSplitter) SplitDocuments(docs []Document) []Document {
	var chunks []Document
	for _, doc := range docs {
		for i, chunk := range s.SplitText(doc.Content) {
			metadata := cloneMetadata(doc.Metadata)
			metadata["chunk_index"] = strconv.Itoa(i)
			metadata["parent_id"] = doc.ID
			chunks = append(chunks, Document{
				ID:       fmt.Sprintf("%s_chunk_%d", doc.ID, i),
				Content:  chunk,
				Metadata: metadata,
			})
		}
	}
	return chunks
}

func (s *RecursiveCharacterTextSplitter) split(text string, separators []string) []string {
	separator := ""
	var rest []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, separator)
	}

	var final, good []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if s.lengthFunc(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge joins pieces into chunks no longer than the chunk size.
func (s *RecursiveCharacterTextSplitter) merge(pieces []string, separator string) []string {
	sepLen := s.lengthFunc(separator)
	var chunks, current []string
	total := 0

	joinedLen := func(n int) int {
		if len(current) > 0 {
			return total + n + sepLen
		}
		return total + n
	}

	for _, piece := range pieces {
		n := s.lengthFunc(piece)
		if joinedLen(n) > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.chunkOverlap || (total > 0 && joinedLen(n) > s.chunkSize) {
				total -= s.lengthFunc(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, piece)
		if len(current) > 1 {
			total += sepLen
		}
		total += n
	}
	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
