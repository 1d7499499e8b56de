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

package recall

import (
	"io"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/reindex"
	"github.com/poiesic/recall/schema"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

// Database wires the storage backend, repositories, AI provider, and
// field configuration into one handle the pipeline and searcher are
// built from.
type Database struct {
	backend      *badger.Backend
	documentRepo storage.DocumentRepository
	chunkRepo    storage.ChunkRepository
	metadataRepo storage.MetadataRepository
	provider     ai.AIProvider
	watcher      *schema.Watcher
	configs      ingestion.ConfigSource
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig   *ai.Config
	provider   ai.AIProvider
	configPath string
	registry   *schema.Registry
	inMemory   bool
}

// WithAIConfig sets the AI host configuration used to build the
// default provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a pre-built AI provider, bypassing the default
// openai-compatible one. Useful for tests.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithConfigFile loads the field configuration from a TOML file and
// watches it for changes.
func WithConfigFile(path string) DatabaseOption {
	return func(o *databaseOptions) {
		o.configPath = path
	}
}

// WithRegistry supplies a static field configuration registry instead
// of a watched file.
func WithRegistry(registry *schema.Registry) DatabaseOption {
	return func(o *databaseOptions) {
		o.registry = registry
	}
}

// WithInMemory opens the backend without touching disk. Useful for tests.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	metadataRepo, err := badger.NewMetadataRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	db := &Database{
		backend:      backend,
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		metadataRepo: metadataRepo,
		provider:     provider,
		logger:       slog.Default(),
	}

	switch {
	case options.configPath != "":
		watcher, err := schema.NewWatcher(options.configPath)
		if err != nil {
			provider.Close()
			backend.Close()
			return nil, err
		}
		db.watcher = watcher
		db.configs = watcher
	case options.registry != nil:
		db.configs = options.registry
	}

	return db, nil
}

func (db *Database) Close() error {
	if db.watcher != nil {
		if err := db.watcher.Close(); err != nil {
			db.logger.Error("error closing config watcher", "err", err)
		}
	}

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documentRepo
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) MetadataRepository() storage.MetadataRepository {
	return db.metadataRepo
}

// Registry returns the active field configuration registry, or nil when
// none was configured.
func (db *Database) Registry() *schema.Registry {
	if db.configs == nil {
		return nil
	}
	return db.configs.Registry()
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.documentRepo, db.metadataRepo, db.provider, db.configs, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.documentRepo, db.chunkRepo, db.metadataRepo, db.provider, opts...)
}

// NewReindexer builds a reindexer that regenerates every stored
// embedding, reporting progress to the given writer.
func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(db.documentRepo, db.chunkRepo, db.metadataRepo, db.provider.Embedder(), config, progress)
}
