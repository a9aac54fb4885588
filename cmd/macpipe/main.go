package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"macgpt/internal/config"
	"macgpt/internal/domain"
	embgemini "macgpt/internal/embedding/gemini"
	embopenai "macgpt/internal/embedding/openai"
	"macgpt/internal/logger"
	"macgpt/internal/pipeline"
	"macgpt/internal/store"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		apiKey  string
		inPath  string
		topicID string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file")
	flag.StringVar(&apiKey, "api-key", "", "API key (overrides GEMINI_API_KEY / GOOGLE_API_KEY)")
	flag.StringVar(&inPath, "in", "", "Input file with extracted records (.json or .csv)")
	flag.StringVar(&topicID, "topic", "", "Topic id for the resulting store")
	flag.Parse()

	if inPath == "" || topicID == "" {
		fmt.Println("Usage: macpipe -in records.json -topic olap_plan_de_estudios [-config config.yaml]")
		os.Exit(1)
	}

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

	zl, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()

	key := apiKey
	if key == "" {
		for _, env := range config.APIKeyEnvVars {
			if v := os.Getenv(env); v != "" {
				key = v
				break
			}
		}
	}
	if key == "" {
		log.Fatal("no API key: pass -api-key or set GEMINI_API_KEY / GOOGLE_API_KEY")
	}

	var embedder domain.Embedder
	switch cfg.Provider.Type {
	case "gemini", "":
		g := cfg.Provider.Gemini
		embedder = embgemini.NewClient(embgemini.Config{
			BaseURL: g.BaseURL,
			APIKey:  key,
			Model:   g.EmbeddingModel,
			Timeout: time.Duration(g.TimeoutSecs) * time.Second,
		})
	case "openai":
		o := cfg.Provider.OpenAI
		embedder = embopenai.NewClient(embopenai.Config{
			BaseURL: o.BaseURL,
			APIKey:  key,
			Model:   o.EmbeddingModel,
		})
	default:
		log.Fatalf("unknown provider: %s", cfg.Provider.Type)
	}

	enricher := pipeline.NewEnricher(embedder, store.NewLoader(cfg.Store.Dir), zl)
	res, err := enricher.EnrichStore(context.Background(), inPath, topicID)
	if err != nil {
		log.Fatalf("enrichment failed: %v", err)
	}
	fmt.Printf("Store '%s' written: %d records, %d embedded\n", topicID, res.Total, res.Embedded)
}
