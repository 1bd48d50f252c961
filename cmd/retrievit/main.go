// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/config"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
	"github.com/poiesic/retrievit/search"
)

func main() {
	app := &cli.App{
		Name:  "retrievit",
		Usage: "Hybrid retrieval engine over document chunks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a document into the collection",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "session",
						Aliases: []string{"s"},
						Usage:   "Session ID to store the document under (generated if empty)",
					},
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Override the content type inferred from the file extension",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Retrieve the chunks most relevant to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   5,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Retrieval mode (hybrid, semantic, keyword); overrides config",
					},
					&cli.StringSliceFlag{
						Name:  "file",
						Usage: "Restrict results to the named file (repeatable)",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored sessions with their files and chunk counts",
				Action: listCommand,
			},
			{
				Name:      "delete",
				Usage:     "Delete a session and all its chunks",
				ArgsUsage: "<session-id>",
				Action:    deleteCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate all chunk vectors with the configured embedding model",
				Action: reembedCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	// Missing .env is fine; the config names which variables it reads.
	_ = godotenv.Load()
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

func openEngine(ctx context.Context, cfg *config.Config) (*retrievit.Engine, error) {
	mode, err := search.ParseMode(cfg.Retriever.Mode)
	if err != nil {
		return nil, err
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(cfg.Embedder.Host),
		ai.WithEmbeddingModel(cfg.Embedder.Model),
		ai.WithAPIToken(os.Getenv(cfg.Embedder.APIKeyEnv)),
		ai.WithCacheSize(cfg.Embedder.CacheSize),
	)

	return retrievit.NewEngine(ctx, cfg.DatabasePath,
		retrievit.WithAIConfig(aiConfig),
		retrievit.WithRetrieverConfig(search.Config{
			Mode:            mode,
			DenseWeight:     cfg.Retriever.DenseWeight,
			SparseWeight:    cfg.Retriever.SparseWeight,
			OverfetchFactor: cfg.Retriever.Overfetch,
		}),
		retrievit.WithSplitter(ingestion.NewSplitter(cfg.Splitter.ChunkSize, cfg.Splitter.ChunkOverlap)),
	)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}

	contentType := c.String("content-type")
	if contentType == "" {
		contentType = contentTypeFromExtension(path)
	}

	ctx := context.Background()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	sessionID, chunks, err := engine.Ingest(ctx, filepath.Base(path), content, contentType, c.String("session"))
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %s: %d chunks under session %s\n", filepath.Base(path), chunks, sessionID)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a query argument")
	}
	query := strings.Join(c.Args().Slice(), " ")

	ctx := context.Background()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if modeFlag := c.String("mode"); modeFlag != "" {
		cfg.Retriever.Mode = modeFlag
	}
	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	var result *search.Result
	if files := c.StringSlice("file"); len(files) > 0 {
		result, err = engine.RetrieveFiltered(ctx, query, files, c.Int("top-k"))
	} else if strings.EqualFold(c.String("log-level"), "debug") {
		result, err = engine.RetrieveWithMonitor(ctx, query, c.Int("top-k"), &slogMonitor{})
	} else {
		result, err = engine.Retrieve(ctx, query, c.Int("top-k"))
	}
	if err != nil {
		return err
	}

	if result.Degraded {
		fmt.Fprintln(os.Stderr, "warning: embedding service unavailable, keyword-only results")
	}
	if len(result.Chunks) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, sr := range result.Chunks {
		fmt.Printf("%2d. [%.4f] %s (session %s)\n", i+1, sr.Score, sr.Chunk.FileName, sr.Chunk.SessionID)
		fmt.Printf("    %s\n", summarize(sr.Chunk.Text, 160))
	}
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	sessions, err := engine.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	for _, s := range sessions {
		names := make([]string, len(s.Files))
		for i, f := range s.Files {
			names[i] = fmt.Sprintf("%s (%s, %s)", f.Name, f.ContentType, f.UploadedAt.Format("2006-01-02 15:04"))
		}
		fmt.Printf("%s: %d chunks from %s\n", s.ID, s.ChunkCount, strings.Join(names, ", "))
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one session-id argument")
	}
	sessionID := c.Args().First()

	ctx := context.Background()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	n, err := engine.DeleteSession(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d chunks from session %s\n", n, sessionID)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	n, err := engine.Reembed(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Re-embedded %d chunks\n", n)
	return nil
}

// slogMonitor logs intermediate rankings through the default logger at
// debug level.
type slogMonitor struct{}

func (m *slogMonitor) Start(query string) {
	slog.Debug("retrieval started", "query", query)
}

func (m *slogMonitor) AfterDenseSearch(results []*core.SearchResult) {
	slog.Debug("dense search complete", "candidates", len(results))
}

func (m *slogMonitor) AfterSparseSearch(results []*core.SearchResult) {
	slog.Debug("sparse search complete", "candidates", len(results))
}

func (m *slogMonitor) Degraded(err error) {
	slog.Debug("retrieval degraded", "error", err)
}

func (m *slogMonitor) Finish(result *search.Result) {
	slog.Debug("retrieval finished", "results", len(result.Chunks), "degraded", result.Degraded)
}

func contentTypeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return ingestion.ContentTypeMarkdown
	case ".pdf":
		return ingestion.ContentTypePDF
	default:
		return ingestion.ContentTypeText
	}
}

func summarize(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
