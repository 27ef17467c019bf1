package extractive

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
)

// Generator answers prompts without a model by picking the context sentence
// that best matches the question. Sentences are scored by frequency-weighted
// token overlap with the question; ties keep context order. It understands
// the pipeline's fixed prompt shape and is the no-API default.
type Generator struct {
	tokenRe    *regexp.Regexp
	sentenceRe *regexp.Regexp
	stopwords  map[string]struct{}
}

func NewGenerator() *Generator {
	return &Generator{
		tokenRe:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentenceRe: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:  stopwords(),
	}
}

func (g *Generator) Name() string { return "extractive" }

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	contextText, question := splitPrompt(prompt)
	sentences := g.sentenceRe.FindAllString(contextText, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(contextText)
		if trimmed == "" {
			return "", errors.New("no context to answer from")
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	// term frequencies over the whole context, normalized to [0,1]
	freq := map[string]float64{}
	for _, sentence := range sentences {
		for _, tok := range g.tokens(sentence) {
			freq[tok]++
		}
	}
	maxFreq := 0.0
	for _, f := range freq {
		if f > maxFreq {
			maxFreq = f
		}
	}
	if maxFreq > 0 {
		for tok, f := range freq {
			freq[tok] = f / maxFreq
		}
	}

	questionTokens := map[string]struct{}{}
	for _, tok := range g.tokens(question) {
		questionTokens[tok] = struct{}{}
	}

	best, bestScore := 0, 0.0
	for i, sentence := range sentences {
		toks := g.tokens(sentence)
		score := 0.0
		for _, tok := range toks {
			if _, ok := questionTokens[tok]; ok {
				score += freq[tok]
			}
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	// no overlap at all: fall back to the leading context sentence
	return sentences[best], nil
}

// splitPrompt recovers the context and question sections from the pipeline
// prompt. Unstructured prompts are treated as all context.
func splitPrompt(prompt string) (contextText, question string) {
	contextText = prompt
	if i := strings.Index(contextText, "Context:"); i >= 0 {
		contextText = contextText[i+len("Context:"):]
	}
	if i := strings.Index(contextText, "Question:"); i >= 0 {
		question = contextText[i+len("Question:"):]
		contextText = contextText[:i]
	}
	if i := strings.Index(question, "Answer:"); i >= 0 {
		question = question[:i]
	}
	return strings.TrimSpace(contextText), strings.TrimSpace(question)
}

func (g *Generator) tokens(text string) []string {
	raw := g.tokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, skip := g.stopwords[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "it", "this", "that", "these", "those", "from", "what", "which", "who", "how", "when", "where", "why", "did", "does", "do", "has", "have", "had",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
