package index

import (
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/retrievit/core"
)

// BM25 parameters. Standard values from the literature; the corpus sizes
// this engine targets don't warrant tuning them.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Sparse is a BM25 keyword index over chunk text.
//
// It supports full rebuilds only: document frequency and average length are
// global statistics, cheap to recompute at the hundreds-to-low-thousands of
// chunks this engine targets, so incremental maintenance is not worth its
// complexity. Any membership change requires Build from the full current
// chunk set.
//
// Like Dense, a built index is immutable and safe for concurrent reads.
type Sparse struct {
	tokenizer Tokenizer
	docs      []sparseDoc
	docFreq   map[string]int
	avgLen    float64
}

type sparseDoc struct {
	chunk  *core.Chunk
	counts map[string]int
	length int
}

// SparseOption configures a Sparse index.
type SparseOption func(*Sparse)

// WithTokenizer sets a custom tokenizer. Default is DefaultTokenizer.
func WithTokenizer(tokenizer Tokenizer) SparseOption {
	return func(s *Sparse) {
		if tokenizer == nil {
			tokenizer = DefaultTokenizer{}
		}
		s.tokenizer = tokenizer
	}
}

// NewSparse creates an empty sparse index.
func NewSparse(opts ...SparseOption) *Sparse {
	s := &Sparse{
		tokenizer: DefaultTokenizer{},
		docFreq:   map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build tokenizes all chunk texts and computes the ranking statistics.
func (s *Sparse) Build(chunks []*core.Chunk) {
	docs := make([]sparseDoc, 0, len(chunks))
	docFreq := make(map[string]int)
	totalLen := 0

	for _, chunk := range chunks {
		terms := s.tokenizer.Tokenize(chunk.Text)
		counts := make(map[string]int, len(terms))
		for _, term := range terms {
			counts[term]++
		}
		for term := range counts {
			docFreq[term]++
		}
		totalLen += len(terms)
		docs = append(docs, sparseDoc{
			chunk:  chunk,
			counts: counts,
			length: len(terms),
		})
	}

	s.docs = docs
	s.docFreq = docFreq
	s.avgLen = 0
	if len(docs) > 0 {
		s.avgLen = float64(totalLen) / float64(len(docs))
	}
}

// Len returns the number of indexed chunks.
func (s *Sparse) Len() int {
	return len(s.docs)
}

// Search scores all documents against the query terms with BM25 and returns
// the top-k by descending score. An empty index or a query with no indexable
// terms returns an empty result, not an error.
func (s *Sparse) Search(query string, k int) ([]*core.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidTopK, k)
	}

	terms := s.tokenizer.Tokenize(query)
	if len(s.docs) == 0 || len(terms) == 0 {
		return []*core.SearchResult{}, nil
	}

	var results []*core.SearchResult
	for i := range s.docs {
		score := s.scoreDoc(&s.docs[i], terms)
		if score > 0 {
			results = append(results, &core.SearchResult{
				Chunk: s.docs[i].chunk,
				Score: score,
			})
		}
	}

	// Sort by score descending, ties by chunk ID ascending for reproducible
	// ordering
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Chunk.Id < b.Chunk.Id {
			return -1
		}
		if a.Chunk.Id > b.Chunk.Id {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// scoreDoc computes the BM25 score of one document for the query terms.
func (s *Sparse) scoreDoc(doc *sparseDoc, terms []string) float64 {
	var score float64
	n := float64(len(s.docs))

	for _, term := range terms {
		tf := float64(doc.counts[term])
		if tf == 0 {
			continue
		}
		df := float64(s.docFreq[term])

		// The +1 inside the log keeps the IDF positive even for terms that
		// appear in most documents.
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		norm := 1 - bm25B + bm25B*float64(doc.length)/s.avgLen
		score += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
	}

	return score
}
