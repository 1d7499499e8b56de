package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/ingestion"
)

// seedDocument mirrors the JSON shape of a seed file entry.
type seedDocument struct {
	ExternalId string         `json:"external_id"`
	Collection string         `json:"collection"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Properties map[string]any `json:"properties"`
}

var samples = []seedDocument{
	{
		ExternalId: "seed-retrieval-notes",
		Collection: "notes",
		Title:      "Retrieval Planning Notes",
		Content: `# Retrieval Planning Notes

We agreed to split long pages into chunks of roughly a thousand tokens,
with a hundred tokens of overlap so sentences near boundaries stay
searchable. Headings become section labels on each chunk.

## Enrichment

Each chunk gets a short generated blurb saying where it sits in the
document. The blurb is prefixed to the chunk before embedding, which
makes pronoun-heavy passages findable by topic.

## Open items

Rate limits on the embedding host need tuning once the corpus grows
past a few thousand pages.`,
		Properties: map[string]any{
			"Status": map[string]any{"name": "Published"},
			"Author": "dana",
		},
	},
	{
		ExternalId: "seed-oncall-runbook",
		Collection: "notes",
		Title:      "On-call Runbook",
		Content: `# On-call Runbook

When the embedding host stops responding, ingestion marks documents as
failed with a retryable reason. Re-submit them once the host is back;
unchanged content is detected by hash and skips re-embedding.

## Reindexing

After an embedding model upgrade, run the reindex command. It walks
every persisted document and regenerates vectors in batches while
leaving chunk boundaries and metadata untouched.`,
		Properties: map[string]any{
			"Status": map[string]any{"name": "Published"},
			"Author": "sam",
		},
	},
	{
		ExternalId: "seed-quarterly-summary",
		Collection: "notes",
		Title:      "Quarterly Summary",
		Content: `The quarter closed with search latency holding under budget even as
the document count doubled. Contextual embeddings improved recall on
ambiguous queries, and the metadata filters carried most of the
navigational traffic. Next quarter focuses on adjacent-chunk expansion
in the answer pipeline.`,
		Properties: map[string]any{
			"Status": map[string]any{"name": "Draft"},
			"Author": "dana",
		},
	},
}

var (
	seedFileName = flag.String("src", "", "JSON file of seed documents")
	dbPath       = flag.String("db", "./recall_db", "path to the database directory")
	configPath   = flag.String("config", "", "path to the TOML field configuration")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// documentsFromFile loads seed documents from a JSON array file.
func documentsFromFile(filename string) ([]seedDocument, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var docs []seedDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return docs, nil
}

func main() {
	opts := []recall.DatabaseOption{}
	if *configPath != "" {
		opts = append(opts, recall.WithConfigFile(*configPath))
	}

	db, err := recall.NewDatabase(*dbPath, opts...)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	docs := samples
	if *seedFileName != "" {
		docs, err = documentsFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	}

	ctx := context.Background()
	now := time.Now()
	for _, doc := range docs {
		id, err := pipeline.Process(ctx, ingestion.SubmitRequest{
			ExternalId:   doc.ExternalId,
			CollectionId: doc.Collection,
			Title:        doc.Title,
			Content:      doc.Content,
			CreatedAt:    now,
			ModifiedAt:   now,
			Properties:   doc.Properties,
		})
		if err != nil {
			slog.Error("failed to ingest seed document", "externalId", doc.ExternalId, "err", err)
			continue
		}
		slog.Info("seeded document", "externalId", doc.ExternalId, "documentId", id)
	}
}
