package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	embopenai "docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/generation/extractive"
	genopenai "docqa/internal/generation/openai"
	"docqa/internal/ingest"
	"docqa/internal/qa"
	"docqa/internal/retriever"
	"docqa/internal/tui"
	"docqa/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docqa/config.yaml if not provided)")
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		fmt.Println("Usage: docqa-tui [--config=config.yaml] <url|file.txt>")
		os.Exit(1)
	}
	source := args[0]

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
	var doc domain.Document
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		fetcher := ingest.NewFetcher(ingest.Config{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Fetch.MaxRetries,
		})
		doc, err = fetcher.CachedFetch(ctx, source, cfg.Fetch.CacheFile)
	} else {
		doc, err = ingest.LoadFile(source)
	}
	if err != nil {
		log.Fatalf("failed to acquire document: %v", err)
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		emb, err = embopenai.NewClient(embopenai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var gen domain.Generator
	switch cfg.Generator.Type {
	case "extractive", "":
		gen = extractive.NewGenerator()
	case "openai":
		if cfg.Generator.OpenAI == nil {
			log.Fatalf("openai generator config missing")
		}
		gen, err = genopenai.NewClient(genopenai.Config{
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
	default:
		log.Fatalf("unknown generator: %s", cfg.Generator.Type)
	}

	retr := retriever.New(chunker.NewSentenceChunker(cfg.Chunker.MaxChunkChars), emb, memory.NewIndex(emb))
	if err := retr.Store(ctx, doc.Content); err != nil {
		log.Fatalf("indexing failed: %v", err)
	}
	orch := qa.New(retr, gen, qa.Options{TopK: cfg.QA.TopK, MinAnswerChars: cfg.QA.MinAnswerChars})

	m := tui.New(orch, retr, doc.Source)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
