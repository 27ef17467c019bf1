package qa

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/logger"
)

// FallbackNoContext is returned verbatim when retrieval finds nothing; the
// generator is not invoked in that case.
const FallbackNoContext = "No relevant information found."

// answerCue is the literal the prompt ends with and answer extraction keys
// on. The two must stay in sync bit for bit.
const answerCue = "Answer:"

const errorPrefix = "Error generating answer: "

const (
	defaultTopK           = 5
	defaultMinAnswerChars = 10
	defaultWorkers        = 4
)

// Options tunes the orchestrator. Zero values select the defaults.
type Options struct {
	// TopK is the number of chunks retrieved per question.
	TopK int
	// MinAnswerChars flags extracted answers shorter than this as low
	// confidence. They are still returned.
	MinAnswerChars int
}

// Orchestrator answers questions by retrieving context, prompting the
// generator, and extracting the answer from its output. Failures along the
// way degrade to an answer string; Answer never fails.
type Orchestrator struct {
	retriever      domain.Retriever
	generator      domain.Generator
	topK           int
	minAnswerChars int
}

func New(retriever domain.Retriever, generator domain.Generator, opts Options) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.MinAnswerChars <= 0 {
		opts.MinAnswerChars = defaultMinAnswerChars
	}
	return &Orchestrator{
		retriever:      retriever,
		generator:      generator,
		topK:           opts.TopK,
		minAnswerChars: opts.MinAnswerChars,
	}
}

// Answer returns the answer string for one question. Retrieval or generation
// failures are rendered as "Error generating answer: …" rather than
// propagated, so one bad question cannot abort a batch.
func (o *Orchestrator) Answer(ctx context.Context, question string) string {
	answer, err := o.answerOne(ctx, question)
	if err != nil {
		logger.Warn("question %q failed: %v", question, err)
		return errorPrefix + err.Error()
	}
	return answer
}

// answerOne is the typed-result core of Answer.
func (o *Orchestrator) answerOne(ctx context.Context, question string) (string, error) {
	chunks, err := o.retriever.Retrieve(ctx, question, o.topK)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return FallbackNoContext, nil
	}
	prompt := BuildPrompt(strings.Join(chunks, " "), question)
	output, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	answer := ExtractAnswer(output)
	if len(answer) < o.minAnswerChars {
		logger.Warn("low-confidence short answer (%d chars) for question %q", len(answer), question)
	}
	return answer, nil
}

// AnswerAll answers every question with a bounded worker pool. Answers come
// back in question order regardless of completion order.
func (o *Orchestrator) AnswerAll(ctx context.Context, questions []string, workers int) []string {
	if workers <= 0 {
		workers = defaultWorkers
	}
	answers := make([]string, len(questions))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, question := range questions {
		i, question := i, question
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			answers[i] = o.Answer(ctx, question)
		}()
	}
	wg.Wait()
	return answers
}

// BuildPrompt assembles the fixed-shape prompt. The surrounding literals are
// part of the contract with ExtractAnswer and must not change.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s\n\n%s", contextText, question, answerCue)
}

// ExtractAnswer takes everything after the last "Answer:" cue in the
// generated text, trimmed. Output without the cue is returned whole.
func ExtractAnswer(generated string) string {
	if i := strings.LastIndex(generated, answerCue); i >= 0 {
		return strings.TrimSpace(generated[i+len(answerCue):])
	}
	return strings.TrimSpace(generated)
}
