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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/recall/ai"
)

const (
	// DefaultEmbedBatchSize is the number of texts per embedding request.
	DefaultEmbedBatchSize = 32
	// DefaultEmbedRateLimit is the sustained embedding-request rate per second.
	DefaultEmbedRateLimit = 4
	// DefaultMaxRetries is the attempt ceiling per batch.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the base backoff delay.
	DefaultRetryDelay = 1 * time.Second
)

// BatchEmbedder drives an ai.Embedder in rate-limited, retried batches.
// When a whole batch keeps failing it falls back to embedding the batch
// one text at a time, so a single poisoned text is isolated before the
// batch is declared failed. All texts succeed or the call errors: the
// caller never receives a partial vector set.
type BatchEmbedder struct {
	embedder   ai.Embedder
	batchSize  int
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// BatchEmbedderOption configures a BatchEmbedder.
type BatchEmbedderOption func(*BatchEmbedder)

// WithBatchSize sets the number of texts per embedding request.
func WithBatchSize(size int) BatchEmbedderOption {
	return func(b *BatchEmbedder) {
		if size > 0 {
			b.batchSize = size
		}
	}
}

// WithRateLimit sets the sustained request rate per second.
func WithRateLimit(perSecond float64) BatchEmbedderOption {
	return func(b *BatchEmbedder) {
		if perSecond > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRetry sets the attempt ceiling and base backoff delay.
func WithRetry(maxRetries int, baseDelay time.Duration) BatchEmbedderOption {
	return func(b *BatchEmbedder) {
		if maxRetries > 0 {
			b.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			b.retryDelay = baseDelay
		}
	}
}

// WithEmbedderLogger sets the logger.
func WithEmbedderLogger(logger *slog.Logger) BatchEmbedderOption {
	return func(b *BatchEmbedder) {
		b.logger = logger.With("component", "batch-embedder")
	}
}

// NewBatchEmbedder creates a BatchEmbedder with default batching,
// rate limiting, and retry settings unless overridden.
func NewBatchEmbedder(embedder ai.Embedder, opts ...BatchEmbedderOption) *BatchEmbedder {
	b := &BatchEmbedder{
		embedder:   embedder,
		batchSize:  DefaultEmbedBatchSize,
		limiter:    rate.NewLimiter(rate.Limit(DefaultEmbedRateLimit), 1),
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default().With("component", "batch-embedder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EmbedAll generates normalized embeddings for every text, in order.
// Returns ErrEmbeddingService (wrapped) when any text cannot be embedded.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := b.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	for i := range vectors {
		vectors[i] = NormalizeVector(vectors[i])
	}
	return vectors, nil
}

// embedBatch embeds one batch, retrying the whole batch first and
// splitting into single texts when that keeps failing.
func (b *BatchEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = b.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, b.maxRetries, b.retryDelay)

	if err == nil {
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(texts), len(vectors))
		}
		return vectors, nil
	}

	if len(texts) == 1 {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingService, err)
	}

	b.logger.Warn("batch embedding failed, splitting into single texts",
		"batch", len(texts), "err", err)

	vectors = make([][]float32, len(texts))
	for i, text := range texts {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var vector []float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vector, embedErr = b.embedder.EmbedText(ctx, text)
			return embedErr
		}, b.maxRetries, b.retryDelay)
		if err != nil {
			return nil, fmt.Errorf("%w: text %d of split batch: %w", ErrEmbeddingService, i, err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}
