package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	embopenai "docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/generation/extractive"
	genopenai "docqa/internal/generation/openai"
	"docqa/internal/ingest"
	"docqa/internal/logger"
	"docqa/internal/qa"
	"docqa/internal/retriever"
	"docqa/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, source, questionsPath, outPath string
	var verbose bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.StringVar(&source, "source", "", "Document URL or local text file to answer questions about")
	flag.StringVar(&questionsPath, "questions", "questions.txt", "File with one question per line")
	flag.StringVar(&outPath, "out", "responses.txt", "File to write answers to")
	flag.BoolVar(&verbose, "verbose", false, "Print pipeline diagnostics to stderr")
	flag.Parse()
	if source == "" {
		fmt.Println("Usage: docqa [--config=config.yaml] --source=<url|file.txt> [--questions=questions.txt] [--out=responses.txt]")
		os.Exit(1)
	}
	logger.SetVerbose(verbose)

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	log.Printf("Starting document QA over %s", source)

	doc, err := acquire(ctx, cfg, source)
	if err != nil {
		log.Fatalf("failed to acquire document: %v", err)
	}
	log.Printf("Acquired %d words of content", len(strings.Fields(doc.Content)))

	emb := buildEmbedder(cfg)
	retr := retriever.New(chunker.NewSentenceChunker(cfg.Chunker.MaxChunkChars), emb, memory.NewIndex(emb))
	if err := retr.Store(ctx, doc.Content); err != nil {
		log.Fatalf("indexing failed: %v", err)
	}

	orch := qa.New(retr, buildGenerator(cfg), qa.Options{
		TopK:           cfg.QA.TopK,
		MinAnswerChars: cfg.QA.MinAnswerChars,
	})

	questions, err := loadQuestions(questionsPath)
	if err != nil {
		log.Fatalf("failed to read questions: %v", err)
	}
	if len(questions) == 0 {
		log.Fatalf("no questions found in %s", questionsPath)
	}
	log.Printf("Processing %d questions...", len(questions))

	answers := orch.AnswerAll(ctx, questions, cfg.QA.Workers)
	if err := saveAnswers(outPath, questions, answers); err != nil {
		log.Fatalf("failed to save answers: %v", err)
	}
	log.Printf("Answers saved to %s", outPath)
}

func acquire(ctx context.Context, cfg *config.AppConfig, source string) (domain.Document, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		fetcher := ingest.NewFetcher(ingest.Config{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
		})
		return fetcher.CachedFetch(ctx, source, cfg.Fetch.CacheFile)
	}
	return ingest.LoadFile(source)
}

func buildEmbedder(cfg *config.AppConfig) domain.Embedder {
	switch cfg.Embedder.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := embopenai.NewClient(embopenai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
		return nil
	}
}

func buildGenerator(cfg *config.AppConfig) domain.Generator {
	switch cfg.Generator.Type {
	case "extractive", "":
		return extractive.NewGenerator()
	case "openai":
		if cfg.Generator.OpenAI == nil {
			log.Fatalf("openai generator config missing")
		}
		client, err := genopenai.NewClient(genopenai.Config{
			BaseURL:       cfg.Generator.OpenAI.BaseURL,
			APIKeyEnv:     cfg.Generator.OpenAI.APIKeyEnv,
			Model:         cfg.Generator.OpenAI.Model,
			Temperature:   cfg.Generator.Temperature,
			MaxTokens:     cfg.Generator.MaxTokens,
			Deterministic: cfg.Generator.Deterministic,
			Timeout:       time.Duration(cfg.Generator.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai generator init failed: %v", err)
		}
		return client
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
		return nil
	}
}

func loadQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			questions = append(questions, line)
		}
	}
	return questions, scanner.Err()
}

func saveAnswers(path string, questions, answers []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for i, q := range questions {
		fmt.Fprintf(w, "Q: %s\nA: %s\n\n", q, answers[i])
	}
	return w.Flush()
}
