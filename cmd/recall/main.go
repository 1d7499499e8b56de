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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/reindex"
	"github.com/poiesic/recall/schema"
	"github.com/poiesic/recall/search"
)

func main() {
	app := &cli.App{
		Name:  "recall",
		Usage: "Contextual retrieval engine for workspace documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a document into the database",
				ArgsUsage: "<content-file>",
				Action:    ingestCommand,
				Flags: append(databaseFlags(), aiFlags(
					&cli.StringFlag{
						Name:     "collection",
						Usage:    "Source collection the document belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "External document id (defaults to the content file path)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title",
					},
					&cli.StringFlag{
						Name:  "props",
						Usage: "Path to a JSON file of raw source properties",
					},
				)...),
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(databaseFlags(), aiFlags(
					&cli.StringSliceFlag{
						Name:  "collection",
						Usage: "Restrict hits to a collection (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Metadata equality filter as field=value (repeatable)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: search.DefaultLimit,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Similarity score floor",
						Value: search.DefaultMinSimilarity,
					},
				)...),
			},
			{
				Name:      "status",
				Usage:     "Report the pipeline state of a submitted document",
				ArgsUsage: "<external-id>",
				Action:    statusCommand,
				Flags:     databaseFlags(),
			},
			{
				Name:   "reindex",
				Usage:  "Regenerate every stored embedding with the configured model",
				Action: reindexCommand,
				Flags: aiFlags(append(databaseFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				)...),
			},
			{
				Name:      "config-check",
				Usage:     "Validate a field configuration file",
				ArgsUsage: "<config-file>",
				Action:    configCheckCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to the TOML field configuration file",
		},
	}
}

func aiFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "generator-host",
			Usage: "Generative service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Generative model name for enrichment and summarization",
			Value: "qwen2.5:3b",
		},
	)
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	generatorHost := c.String("generator-host")
	if generatorHost == "" {
		generatorHost = c.String("embedding-host")
	}

	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorHost(generatorHost),
		ai.WithGeneratorModel(c.String("generator-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openDatabase(c *cli.Context) (*recall.Database, error) {
	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}

	opts := []recall.DatabaseOption{recall.WithAIConfig(aiConfig)}
	if configPath := c.String("config"); configPath != "" {
		opts = append(opts, recall.WithConfigFile(configPath))
	}

	return recall.NewDatabase(c.String("db"), opts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one content file argument")
	}
	contentPath := c.Args().First()

	content, err := os.ReadFile(contentPath)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}

	externalId := c.String("id")
	if externalId == "" {
		externalId = contentPath
	}

	var properties map[string]any
	if propsPath := c.String("props"); propsPath != "" {
		raw, err := os.ReadFile(propsPath)
		if err != nil {
			return fmt.Errorf("failed to read properties file: %w", err)
		}
		if err := json.Unmarshal(raw, &properties); err != nil {
			return fmt.Errorf("failed to parse properties file: %w", err)
		}
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	now := time.Now()
	id, err := pipeline.Process(context.Background(), ingestion.SubmitRequest{
		ExternalId:   externalId,
		CollectionId: c.String("collection"),
		Title:        c.String("title"),
		Content:      string(content),
		CreatedAt:    now,
		ModifiedAt:   now,
		Properties:   properties,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %s as document %d\n", externalId, id)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}

	filters, err := parseFilters(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	response, err := searcher.Search(context.Background(), search.Request{
		QueryText:     c.Args().First(),
		CollectionIDs: c.StringSlice("collection"),
		Filters:       filters,
		Limit:         c.Int("limit"),
		MinSimilarity: float32(c.Float64("min-similarity")),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if response.Partial {
		fmt.Fprintln(os.Stderr, "warning: some similarity signals missed their deadline; results may be incomplete")
	}
	if len(response.Hits) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, hit := range response.Hits {
		location := "document"
		if hit.Kind == core.KindChunk {
			location = fmt.Sprintf("chunk %d", hit.Seq)
			if hit.HasAdjacentContext {
				location += ", more context available"
			}
		}
		fmt.Printf("%2d. [%.3f] %s (%s, signal: %s)\n", i+1, hit.Score, hit.Title, location, hit.Signal)
		if hit.Snippet != "" {
			fmt.Printf("    %s\n", hit.Snippet)
		}
	}
	return nil
}

// parseFilters turns field=value pairs into equality predicates.
func parseFilters(pairs []string) ([]search.Predicate, error) {
	filters := make([]search.Predicate, 0, len(pairs))
	for _, pair := range pairs {
		field, value, found := strings.Cut(pair, "=")
		if !found || field == "" {
			return nil, fmt.Errorf("invalid filter %q: expected field=value", pair)
		}
		filters = append(filters, search.Predicate{
			Field: field,
			Op:    search.OpEquals,
			Value: value,
		})
	}
	return filters, nil
}

func statusCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one external-id argument")
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	state, reason, err := pipeline.Status(context.Background(), c.Args().First())
	if err != nil {
		return fmt.Errorf("status lookup failed: %w", err)
	}

	if reason != "" {
		fmt.Printf("%s (%s)\n", state, reason)
	} else {
		fmt.Println(state)
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	reindexer := db.NewReindexer(reindexConfig, os.Stderr)
	if err := reindexer.Run(context.Background()); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func configCheckCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one config file argument")
	}
	path := c.Args().First()

	registry, err := schema.LoadFile(path)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	ids := registry.CollectionIDs()
	fmt.Printf("Configuration valid: %d collection(s)\n", len(ids))
	for _, id := range ids {
		cfg, _ := registry.Collection(id)
		fmt.Printf("  %s: %d field(s)\n", id, len(cfg.Fields))
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
