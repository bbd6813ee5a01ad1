package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ai_article_writer/config"
	"ai_article_writer/gemini"
	"ai_article_writer/pipeline"
	"ai_article_writer/publish"
	"ai_article_writer/search"
	"ai_article_writer/server"
	"ai_article_writer/storage"
)

var verbose bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config.json", "path to config.json")
	prompt := flag.String("prompt", "", "pipeline request (overrides config.prompt)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	hours := flag.Bool("hours", false, "only run between 09:00 and 18:00 local time")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	// Credentials live in .env during development; a missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *prompt != "" {
		cfg.Prompt = *prompt
	}

	pub, files, err := buildPublisher(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Web server mode
	if *serve {
		srv, err := server.New(pub, files, cfg.Prompt)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if listen == "" {
			listen = ":8080"
		}
		log.Printf("Starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *hours {
		if h := time.Now().Hour(); h < 9 || h > 18 {
			log.Printf("[cli] outside business hours (current hour: %d), skipping run", h)
			return
		}
	}

	log.Printf("[cli] generating one article, prompt=%q", cfg.Prompt)
	report, err := pub.PublishOnce(context.Background(), cfg.Prompt)
	if err != nil {
		log.Printf("[cli] run failed: %v", err)
		os.Exit(1)
	}
	log.Printf("[cli] done run=%s title=%q path=%s db=%s", report.RunID, report.Title, report.Path, report.DBStatus)
	fmt.Println(report.Path)
}

func buildPublisher(cfg config.Config) (*publish.Publisher, *storage.FileStore, error) {
	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, nil, err
	}

	gen := gemini.New(os.Getenv("GEMINI_API_KEY"))
	if len(cfg.GenerationModels) > 0 {
		var models []gemini.ModelConfig
		for _, m := range cfg.GenerationModels {
			models = append(models, gemini.ModelConfig{
				Name:              m.Name,
				Timeout:           m.Timeout(),
				MaxOutputTokens:   m.MaxOutputTokens,
				SupportsGrounding: m.Grounding,
			})
		}
		gen.Models = models
	}

	files := storage.NewFileStore(cfg.ArticlesDir)
	titles := storage.NewTitleStore(storage.DBConfigFromEnv())

	pipe, err := pipeline.New(llm, gen, search.NewClient(), titles)
	if err != nil {
		return nil, nil, err
	}
	if !verbose {
		pipe.SetLogger(log.New(io.Discard, "", 0))
	}

	pub, err := publish.New(pipe, files, titles, log.Default())
	if err != nil {
		return nil, nil, err
	}
	return pub, files, nil
}

func buildLLM(cfg config.Config) (pipeline.LLMClient, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	switch cfg.LLM.Provider {
	case "mock":
		return pipeline.MockLLM{}, nil
	case "openai", "deepseek":
		// DeepSeek exposes an OpenAI-compatible API but needs an explicit base_url.
		if cfg.LLM.Provider == "deepseek" && cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		apiKey := cfg.LLM.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return pipeline.NewOpenAILLMFromConfig(&pipeline.LLMSettings{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   apiKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}
