// Package session owns the end-to-end question pipeline: provider
// configuration, topic warm-up, classification, retrieval and generation.
// It is the boundary past which no internal failure type leaks; every
// outcome of Ask is a user-readable string.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"macgpt/internal/config"
	"macgpt/internal/domain"
	embgemini "macgpt/internal/embedding/gemini"
	embopenai "macgpt/internal/embedding/openai"
	"macgpt/internal/generator"
	gengemini "macgpt/internal/generator/gemini"
	genopenai "macgpt/internal/generator/openai"
	"macgpt/internal/retriever"
	"macgpt/internal/store"
	"macgpt/internal/topics"
)

// placeholderKey is a common placeholder people leave in .env files; it is
// rejected the same as a missing key.
const placeholderKey = "YOUR_GOOGLE_API_KEY_HERE"

// StoreLoader is the session-facing store contract: loading plus a cheap
// existence probe for status reporting.
type StoreLoader interface {
	domain.StoreLoader
	Exists(topicID string) bool
}

// Options configures a Session. Embedder and Generator, when set, override
// the providers otherwise built from Config on first use; tests inject fakes
// through them.
type Options struct {
	Config    *config.AppConfig
	APIKey    string // explicit key; takes precedence over environment variables
	Logger    *zap.Logger
	Embedder  domain.Embedder
	Generator domain.Generator
	Loader    StoreLoader
}

// Session is the public entry point of the assistant. Construct it once and
// share it; Ask is safe for concurrent use.
type Session struct {
	cfg    *config.AppConfig
	apiKey string
	log    *zap.Logger
	loader StoreLoader

	mu         sync.Mutex
	configured bool
	index      *topics.Index
	retr       *retriever.Retriever
	gen        *generator.Generator

	embedder domain.Embedder
	backend  domain.Generator
}

// New creates a session. Providers are not contacted until the first Ask.
func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg, _ = config.Load("")
	}
	loader := opts.Loader
	if loader == nil {
		loader = store.NewLoader(cfg.Store.Dir)
	}
	return &Session{
		cfg:      cfg,
		apiKey:   opts.APIKey,
		log:      log,
		loader:   loader,
		embedder: opts.Embedder,
		backend:  opts.Generator,
	}
}

// Ask answers one question. It always returns a string: configuration
// failures, store failures, provider errors and safety blocks all surface as
// descriptive text, never as an error or a panic.
func (s *Session) Ask(ctx context.Context, question string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic recovered in Ask", zap.Any("panic", r))
			answer = fmt.Sprintf("MAC-GPT: Ocurrió un error interno inesperado: %v", r)
		}
	}()

	if strings.TrimSpace(question) == "" {
		return "MAC-GPT: Parece que no hubo una pregunta para procesar."
	}

	if err := s.ensureConfigured(); err != nil {
		s.log.Error("provider configuration failed", zap.Error(err))
		return "No se pudo inicializar el chatbot MAC-GPT. La clave de API no está configurada o es inválida."
	}
	if !s.index.InitEmbeddings(ctx) {
		return "No se pudo inicializar el chatbot MAC-GPT. No se pudieron generar los embeddings de las descripciones de temas."
	}

	topicID := s.index.Classify(ctx, question)
	if topicID == "" {
		// Degrade to generation with the classification-failed placeholder;
		// the prompt asks the user to rephrase.
		return s.gen.Generate(ctx, question, "", nil)
	}

	records, err := s.retr.Retrieve(ctx, question, topicID, s.cfg.Retrieval.TopK)
	if err != nil {
		s.log.Error("retrieval failed", zap.String("topic", topicID), zap.Error(err))
		switch {
		case errors.Is(err, store.ErrStoreNotFound):
			return fmt.Sprintf("Error: el archivo de conocimiento del tema '%s' no fue encontrado.", topicID)
		case errors.Is(err, store.ErrStoreEmpty):
			return fmt.Sprintf("Error: el archivo de conocimiento del tema '%s' está vacío.", topicID)
		case errors.Is(err, store.ErrMissingEmbeddingField):
			return fmt.Sprintf("Error: el archivo de conocimiento del tema '%s' no contiene embeddings.", topicID)
		default:
			return fmt.Sprintf("Error al recuperar contexto del tema '%s': %v", topicID, err)
		}
	}

	return s.gen.Generate(ctx, question, topicID, records)
}

// Configured reports whether the provider has been configured successfully.
func (s *Session) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

// HasStores reports whether at least one topic has a store file on disk.
func (s *Session) HasStores() bool {
	for _, t := range topics.Catalog() {
		if s.loader.Exists(t.ID) {
			return true
		}
	}
	return false
}

// ensureConfigured resolves the API key, builds the provider clients and the
// pipeline components. Once successful it is a no-op; a failed attempt may be
// retried on the next question.
func (s *Session) ensureConfigured() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configured {
		return nil
	}

	if s.embedder == nil || s.backend == nil {
		key := s.resolveAPIKey()
		if key == "" || key == placeholderKey {
			return errors.New("API key not provided, not in GEMINI_API_KEY/GOOGLE_API_KEY, or is a placeholder")
		}
		if err := s.buildProviders(key); err != nil {
			return err
		}
	}

	s.index = topics.NewIndex(topics.Catalog(), s.embedder, s.log)
	s.retr = retriever.New(s.embedder, s.loader, s.log)
	s.gen = generator.New(s.backend, s.log)
	s.configured = true
	s.log.Info("session configured", zap.String("provider", s.cfg.Provider.Type))
	return nil
}

func (s *Session) resolveAPIKey() string {
	if s.apiKey != "" {
		return s.apiKey
	}
	for _, env := range config.APIKeyEnvVars {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

func (s *Session) buildProviders(key string) error {
	switch s.cfg.Provider.Type {
	case "gemini", "":
		g := s.cfg.Provider.Gemini
		if g == nil {
			g = &config.GeminiConfig{}
		}
		timeout := time.Duration(g.TimeoutSecs) * time.Second
		if s.embedder == nil {
			s.embedder = embgemini.NewClient(embgemini.Config{
				BaseURL: g.BaseURL,
				APIKey:  key,
				Model:   g.EmbeddingModel,
				Timeout: timeout,
			})
		}
		if s.backend == nil {
			s.backend = gengemini.NewClient(gengemini.Config{
				BaseURL: g.BaseURL,
				APIKey:  key,
				Model:   g.ChatModel,
				Timeout: timeout,
			})
		}
	case "openai":
		o := s.cfg.Provider.OpenAI
		if o == nil {
			o = &config.OpenAIConfig{}
		}
		if s.embedder == nil {
			s.embedder = embopenai.NewClient(embopenai.Config{
				BaseURL: o.BaseURL,
				APIKey:  key,
				Model:   o.EmbeddingModel,
			})
		}
		if s.backend == nil {
			s.backend = genopenai.NewClient(genopenai.Config{
				BaseURL: o.BaseURL,
				APIKey:  key,
				Model:   o.ChatModel,
			})
		}
	default:
		return fmt.Errorf("unknown provider: %s", s.cfg.Provider.Type)
	}
	return nil
}
