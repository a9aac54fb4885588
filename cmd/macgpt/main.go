package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"macgpt/internal/config"
	"macgpt/internal/logger"
	"macgpt/internal/session"
	"macgpt/internal/tui"
	"macgpt/internal/web"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath  string
		apiKey   string
		question string
		serve    bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/macgpt/config.yaml if not provided)")
	flag.StringVar(&apiKey, "api-key", "", "API key (overrides GEMINI_API_KEY / GOOGLE_API_KEY)")
	flag.StringVar(&question, "q", "", "Ask a single question and exit")
	flag.BoolVar(&serve, "serve", false, "Run the HTTP chat server instead of the TUI")
	flag.Parse()

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

	sess := session.New(session.Options{
		Config: cfg,
		APIKey: apiKey,
		Logger: zl,
	})

	switch {
	case question != "":
		fmt.Println(sess.Ask(context.Background(), question))
	case serve:
		srv := web.New(sess, zl)
		if err := srv.Listen(cfg.Web.Addr); err != nil {
			log.Fatalf("http server failed: %v", err)
		}
	default:
		m := tui.New(sess)
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			log.Fatal(err)
		}
	}
}
