package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/database/postgres"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/schema"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("askdb")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, postgres.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	repo := postgres.NewRepository(db)
	schemaCache := schema.NewCache(repo, schema.CacheConfig{
		TTL:           cfg.Schema.CacheTTL,
		SampleRows:    cfg.Schema.SampleRows,
		AllowedTables: cfg.Schema.AllowedTables,
		Logger:        logger,
	})

	llmClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize llm client", slog.Any("error", err))
		os.Exit(1)
	}

	runner := pipeline.New(schemaCache, llmClient, repo, logger, pipeline.Config{
		LLMTimeout:   cfg.Pipeline.LLMTimeout,
		QueryTimeout: cfg.Pipeline.QueryTimeout,
	})

	logger.Info("askdb ready",
		slog.Int("allowed_tables", len(schemaCache.AllowedTables())),
		slog.String("model", cfg.AI.Model))

	repl(ctx, runner, schemaCache, os.Stdin, os.Stdout)
}

func repl(ctx context.Context, runner *pipeline.Pipeline, schemaCache *schema.Cache, in *os.File, out *os.File) {
	fmt.Fprintln(out, "Ask questions about your database in English or Hinglish.")
	fmt.Fprintln(out, "Commands: \\tables  \\allow <table>  \\deny <table>  exit")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			fmt.Fprintln(out, "Bye.")
			return
		case line == `\tables`:
			for _, table := range schemaCache.AllowedTables() {
				fmt.Fprintln(out, " -", table)
			}
			continue
		case strings.HasPrefix(line, `\allow `):
			name := strings.TrimSpace(strings.TrimPrefix(line, `\allow `))
			if schemaCache.AddAllowedTable(ctx, name) {
				fmt.Fprintf(out, "Added %s to the allowlist.\n", name)
			} else {
				fmt.Fprintf(out, "Could not add %s (missing table or already allowed).\n", name)
			}
			continue
		case strings.HasPrefix(line, `\deny `):
			name := strings.TrimSpace(strings.TrimPrefix(line, `\deny `))
			if schemaCache.RemoveAllowedTable(name) {
				fmt.Fprintf(out, "Removed %s from the allowlist.\n", name)
			} else {
				fmt.Fprintf(out, "%s is not on the allowlist.\n", name)
			}
			continue
		}

		result := runner.Run(observability.ContextWithRequestID(ctx, newRequestID()), line)
		if result.SafeSQL != "" {
			fmt.Fprintf(out, "\n[sql] %s\n", result.SafeSQL)
		}
		fmt.Fprintf(out, "\nBot: %s\n", result.Answer)
	}
}

func newRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf[:])
}
