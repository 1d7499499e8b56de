package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/chunk"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/schema"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultTokenCeiling is the document size above which the content
	// embedding covers only the truncated head and a generated summary
	// is embedded alongside it.
	DefaultTokenCeiling = 8000

	// DefaultHeadTokens is the size of the document opening passed to
	// the contextualizer with each chunk.
	DefaultHeadTokens = 500
)

// ConfigSource supplies the active field configuration registry.
// Both a static *schema.Registry and a *schema.Watcher satisfy it.
type ConfigSource interface {
	Registry() *schema.Registry
}

// Pipeline orchestrates document ingestion: chunking, enrichment, dual
// embedding, metadata extraction, and atomic persistence. Submissions
// for the same document are serialized; distinct documents process
// concurrently on a bounded worker pool.
type Pipeline struct {
	documents    storage.DocumentRepository
	metadata     storage.MetadataRepository
	provider     ai.AIProvider
	configs      ConfigSource
	chunker      *chunk.Chunker
	extractor    *schema.Extractor
	counter      chunk.TokenCounter
	batch        *BatchEmbedder
	batchOpts    []BatchEmbedderOption
	pool         *ants.Pool
	locks        *documentLocks
	tokenCeiling int
	headTokens   int
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker overrides the chunker.
func WithChunker(chunker *chunk.Chunker) Option {
	return func(p *Pipeline) error {
		p.chunker = chunker
		return nil
	}
}

// WithTokenCounter overrides the token counter used for document budgets.
func WithTokenCounter(counter chunk.TokenCounter) Option {
	return func(p *Pipeline) error {
		p.counter = counter
		return nil
	}
}

// WithTokenCeiling sets the document size above which summarization kicks in.
func WithTokenCeiling(ceiling int) Option {
	return func(p *Pipeline) error {
		if ceiling > 0 {
			p.tokenCeiling = ceiling
		}
		return nil
	}
}

// WithEmbedderOptions passes options through to the batch embedder.
func WithEmbedderOptions(opts ...BatchEmbedderOption) Option {
	return func(p *Pipeline) error {
		p.batchOpts = append(p.batchOpts, opts...)
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline. configs may be nil when
// no field configuration is in force; extraction then yields empty
// records for every collection.
func NewPipeline(
	documents storage.DocumentRepository,
	metadata storage.MetadataRepository,
	provider ai.AIProvider,
	configs ConfigSource,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if metadata == nil {
		return nil, ErrMetadataRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:    documents,
		metadata:     metadata,
		provider:     provider,
		configs:      configs,
		counter:      chunk.HeuristicCounter{},
		pool:         pool,
		locks:        newDocumentLocks(),
		tokenCeiling: DefaultTokenCeiling,
		headTokens:   DefaultHeadTokens,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Dependent defaults after options so overrides take effect.
	if p.chunker == nil {
		p.chunker = chunk.NewChunker(chunk.WithTokenCounter(p.counter), chunk.WithChunkerLogger(p.logger))
	}
	p.extractor = schema.NewExtractor(schema.WithLogger(p.logger))
	p.batch = NewBatchEmbedder(provider.Embedder(), append([]BatchEmbedderOption{WithEmbedderLogger(p.logger)}, p.batchOpts...)...)

	return p, nil
}

// SubmitRequest carries one document submission from a source connector.
type SubmitRequest struct {
	// ExternalId is the stable id assigned by the workspace source.
	ExternalId string

	// CollectionId names the source collection the document belongs to.
	CollectionId string

	Title   string
	Content string

	// ContentType may be left zero to auto-detect from the content.
	ContentType core.ContentType

	// CreatedAt and ModifiedAt are the source's authored timestamps.
	CreatedAt  time.Time
	ModifiedAt time.Time

	// Properties is the raw source property map metadata is extracted from.
	Properties map[string]any

	// MediaRefs are placeholder references to non-text blocks.
	MediaRefs []string
}

// Submit validates and accepts a document, then processes it
// asynchronously on the worker pool. A document never seen before is
// visible in StateReceived as soon as Submit returns; a known document
// keeps its stored record until the worker reprocesses it, so the
// unchanged-content skip in run still sees the persisted generation.
// Processing errors are logged and recorded on the document, not
// returned here.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (core.ID, error) {
	doc, err := p.newDocument(req)
	if err != nil {
		return 0, err
	}

	if _, err := p.documents.GetDocument(ctx, doc.Id); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return 0, err
		}
		if _, err := p.documents.PutDocument(ctx, doc); err != nil {
			return 0, err
		}
	}

	err = p.pool.Submit(func() {
		if _, procErr := p.Process(context.Background(), req); procErr != nil {
			p.logger.Error("error processing document",
				"documentId", doc.Id, "externalId", req.ExternalId, "err", procErr)
		}
	})
	if err != nil {
		return 0, err
	}

	return doc.Id, nil
}

// Process runs the full ingestion state machine synchronously and
// returns the document ID. Concurrent calls for the same document are
// serialized; the later submission reprocesses whatever state the
// earlier one left behind.
func (p *Pipeline) Process(ctx context.Context, req SubmitRequest) (core.ID, error) {
	doc, err := p.newDocument(req)
	if err != nil {
		return 0, err
	}

	release := p.locks.acquire(doc.Id)
	defer release()

	return doc.Id, p.run(ctx, doc, req)
}

// Status reports the pipeline state of a previously submitted document.
func (p *Pipeline) Status(ctx context.Context, externalId string) (core.DocumentState, string, error) {
	doc, err := p.documents.GetDocument(ctx, core.IDFromContent(externalId))
	if err != nil {
		return 0, "", err
	}
	return doc.State, doc.StateReason, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// newDocument builds the StateReceived document for a submission.
func (p *Pipeline) newDocument(req SubmitRequest) (*core.Document, error) {
	doc := &core.Document{
		Id:           core.IDFromContent(req.ExternalId),
		ExternalId:   req.ExternalId,
		CollectionId: req.CollectionId,
		Title:        req.Title,
		Content:      req.Content,
		ContentType:  req.ContentType,
		CreatedAt:    req.CreatedAt,
		ModifiedAt:   req.ModifiedAt,
		MediaRefs:    req.MediaRefs,
		ContentHash:  core.HashContent(req.Content),
		State:        core.StateReceived,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// run executes the state machine for one locked document.
func (p *Pipeline) run(ctx context.Context, doc *core.Document, req SubmitRequest) error {
	existing, err := p.documents.GetDocument(ctx, doc.Id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	// Unchanged content on a fully persisted document keeps its vectors
	// and chunks wholesale; only metadata is re-extracted since the
	// field configuration may have moved on.
	if existing != nil && existing.State == core.StatePersisted && existing.ContentHash == doc.ContentHash {
		p.logger.Debug("content hash unchanged, reusing embeddings",
			"documentId", doc.Id, "externalId", doc.ExternalId)
		return p.refreshMetadata(ctx, existing, req)
	}

	if _, err := p.documents.PutDocument(ctx, doc); err != nil {
		return err
	}

	// Chunking
	if err := p.setState(ctx, doc, core.StateChunking); err != nil {
		return err
	}
	if doc.ContentType == 0 {
		doc.ContentType = chunk.DetectContentType(doc.Content)
	}
	doc.TokenCount = p.counter.Count(doc.Content)

	chunks, err := p.chunker.Split(doc.Id, doc.Content, doc.ContentType)
	if err != nil {
		if errors.Is(err, chunk.ErrEmptyContent) {
			return p.fail(ctx, doc, ReasonEmptyContent, err)
		}
		return err
	}
	p.logger.Info("document chunked", "documentId", doc.Id, "chunks", len(chunks), "tokens", doc.TokenCount)

	// Embedding
	if err := p.setState(ctx, doc, core.StateEmbedding); err != nil {
		return err
	}
	if err := p.embed(ctx, doc, chunks); err != nil {
		return p.fail(ctx, doc, ReasonEmbeddingFailed, err)
	}

	// MetadataExtraction
	if err := p.setState(ctx, doc, core.StateMetadataExtraction); err != nil {
		return err
	}
	record := p.extract(doc, req.Properties)

	// Persisted: document, chunks, and metadata commit together.
	if err := core.ValidateTransition(doc.State, core.StatePersisted); err != nil {
		return err
	}
	doc.State = core.StatePersisted
	doc.StateReason = ""
	if err := p.documents.ReplaceDocument(ctx, doc, chunks, record); err != nil {
		return p.fail(ctx, doc, ReasonPersistFailed, err)
	}
	p.recordConfigSnapshot(ctx, doc.CollectionId)

	p.logger.Info("document persisted",
		"documentId", doc.Id, "externalId", doc.ExternalId, "chunks", len(chunks))
	return nil
}

// embed generates every vector the document needs: the document content
// vector (over the truncated head for oversized documents), an optional
// summary vector, and plain plus contextual vectors per chunk. Any
// embedding failure aborts the whole document; no partial vector set is
// ever persisted.
func (p *Pipeline) embed(ctx context.Context, doc *core.Document, chunks []core.Chunk) error {
	contentText := doc.Content
	if doc.TokenCount > p.tokenCeiling {
		contentText = truncateTokens(doc.Content, p.tokenCeiling, p.counter)

		summary, err := p.provider.Summarizer().Summarize(ctx, doc.Title, contentText)
		if err != nil {
			// The content vector still covers the head; losing the
			// summary signal degrades recall but not correctness.
			p.logger.Warn("summarization failed, continuing without summary",
				"documentId", doc.Id, "err", err)
		} else {
			doc.Summary = summary
		}
	}

	p.enrich(ctx, doc, chunks)

	texts := make([]string, 0, 2+2*len(chunks))
	texts = append(texts, contentText)
	if doc.Summary != "" {
		texts = append(texts, doc.Summary)
	}
	for i := range chunks {
		texts = append(texts, chunks[i].Text)
	}
	contextualIdx := make([]int, 0, len(chunks))
	for i := range chunks {
		if chunks[i].Enriched {
			texts = append(texts, contextualText(&chunks[i]))
			contextualIdx = append(contextualIdx, i)
		}
	}

	vectors, err := p.batch.EmbedAll(ctx, texts)
	if err != nil {
		return err
	}

	pos := 0
	doc.ContentVector = vectors[pos]
	pos++
	if doc.Summary != "" {
		doc.SummaryVector = vectors[pos]
		pos++
	}
	for i := range chunks {
		chunks[i].ContentVector = vectors[pos]
		pos++
	}
	for _, i := range contextualIdx {
		chunks[i].ContextVector = vectors[pos]
		pos++
	}
	return nil
}

// enrich situates each chunk within the document. Enrichment is
// best-effort: a failed chunk keeps Enriched=false and is embedded on
// its plain text alone.
func (p *Pipeline) enrich(ctx context.Context, doc *core.Document, chunks []core.Chunk) {
	if len(chunks) == 0 {
		return
	}

	head := truncateTokens(doc.Content, p.headTokens, p.counter)
	for i := range chunks {
		blurb, err := p.provider.Contextualizer().Situate(ctx, ai.ChunkContext{
			Title:        doc.Title,
			Section:      chunks[i].Section,
			DocumentHead: head,
			ChunkText:    chunks[i].Text,
		})
		if err != nil || blurb == "" {
			p.logger.Debug("chunk enrichment failed, falling back to plain embedding",
				"documentId", doc.Id, "seq", chunks[i].Seq, "err", err)
			continue
		}
		chunks[i].Context = blurb
		chunks[i].Enriched = true
	}
}

// extract builds the metadata record for a document from its raw source
// properties and the active field configuration.
func (p *Pipeline) extract(doc *core.Document, properties map[string]any) *core.MetadataRecord {
	var cfg *schema.CollectionConfig
	if p.configs != nil {
		if registry := p.configs.Registry(); registry != nil {
			cfg, _ = registry.Collection(doc.CollectionId)
		}
	}
	return p.extractor.Extract(doc.Id, doc.CollectionId, properties, cfg)
}

// refreshMetadata handles the hash-skip path: vectors and chunks are
// reused, metadata is re-extracted under the current configuration.
func (p *Pipeline) refreshMetadata(ctx context.Context, doc *core.Document, req SubmitRequest) error {
	doc.Title = req.Title
	doc.CollectionId = req.CollectionId
	doc.ModifiedAt = req.ModifiedAt
	doc.MediaRefs = req.MediaRefs

	record := p.extract(doc, req.Properties)
	if _, err := p.metadata.PutMetadata(ctx, record); err != nil {
		return err
	}
	if _, err := p.documents.PutDocument(ctx, doc); err != nil {
		return err
	}
	p.recordConfigSnapshot(ctx, doc.CollectionId)
	return nil
}

// setState advances the document state and persists it so Status
// reflects pipeline progress.
func (p *Pipeline) setState(ctx context.Context, doc *core.Document, next core.DocumentState) error {
	if err := core.ValidateTransition(doc.State, next); err != nil {
		return err
	}
	doc.State = next
	_, err := p.documents.PutDocument(ctx, doc)
	return err
}

// fail records the failure state and reason on the document, then
// returns the wrapped cause.
func (p *Pipeline) fail(ctx context.Context, doc *core.Document, reason string, cause error) error {
	doc.State = core.StateFailed
	doc.StateReason = reason
	if _, err := p.documents.PutDocument(ctx, doc); err != nil {
		p.logger.Error("failed to record failure state", "documentId", doc.Id, "err", err)
	}
	return fmt.Errorf("document %d failed (%s): %w", doc.Id, reason, cause)
}

// recordConfigSnapshot persists the configuration fingerprint metadata
// was extracted under. Best-effort; drift detection degrades without it
// but ingestion stays correct.
func (p *Pipeline) recordConfigSnapshot(ctx context.Context, collectionId string) {
	if p.configs == nil {
		return
	}
	registry := p.configs.Registry()
	if registry == nil {
		return
	}
	snapshot, ok := registry.Snapshot(collectionId)
	if !ok {
		return
	}
	if err := p.metadata.PutConfigSnapshot(ctx, *snapshot); err != nil {
		p.logger.Warn("failed to persist config snapshot", "collection", collectionId, "err", err)
	}
}

// contextualText is the text the contextual embedding covers: the
// synthesized blurb prefixed to the chunk body.
func contextualText(c *core.Chunk) string {
	return c.Context + "\n\n" + c.Text
}

// truncateTokens returns the longest word-aligned prefix of text within
// the token budget.
func truncateTokens(text string, budget int, counter chunk.TokenCounter) string {
	if counter.Count(text) <= budget {
		return text
	}

	words := strings.Fields(text)
	total := 0
	end := 0
	for i, word := range words {
		wt := counter.Count(word)
		if wt == 0 {
			wt = 1
		}
		if total+wt > budget {
			break
		}
		total += wt
		end = i + 1
	}
	return strings.Join(words[:end], " ")
}
