package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Embedder is a TF-IDF vectorizer. It must be prepared over the chunk corpus
// before embedding; the vocabulary size fixes the vector dimension. Vectors
// are L2-normalized.
type Embedder struct {
	vocab    map[string]int
	idf      []float64
	dim      int
	prepared bool

	tokenRe   *regexp.Regexp
	stopwords map[string]struct{}
}

func NewEmbedder() *Embedder {
	return &Embedder{
		tokenRe:   regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords: stopwords(),
	}
}

func (e *Embedder) Name() string { return "tfidf" }

func (e *Embedder) Dimension() int { return e.dim }

// Prepare builds the vocabulary and smoothed IDF weights from the corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for tfidf prepare")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("no tokens found in corpus")
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	e.vocab = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	docs := float64(len(corpus))
	for i, term := range terms {
		e.vocab[term] = i
		e.idf[i] = math.Log((1+docs)/(1+float64(df[term]))) + 1
	}
	e.dim = len(terms)
	e.prepared = true
	return nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	vec := make([]float64, e.dim)
	counts := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if i, ok := e.vocab[tok]; ok {
			counts[i]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for i, n := range counts {
		vec[i] = float64(n) / float64(total) * e.idf[i]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if norm = math.Sqrt(norm); norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, skip := e.stopwords[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "how", "when", "where", "did", "does", "do", "has", "have", "had",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
