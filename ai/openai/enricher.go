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

package openai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/recall/ai"
)

// Enricher implements ai.Contextualizer and ai.Summarizer using
// OpenAI-compatible chat APIs. Both operations share one client since
// they talk to the same generator model.
type Enricher struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newEnricher is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEnricher(config *ai.Config) (*Enricher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that
	// don't require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken("none"),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &Enricher{
		client:  client,
		timeout: config.RequestTimeout,
		logger:  slog.Default().With("component", "openai-enricher"),
	}, nil
}

// NewContextualizer creates a new contextualizer using the provided
// configuration.
//
// Returns ai.Contextualizer interface to enforce abstraction.
func NewContextualizer(config *ai.Config) (ai.Contextualizer, error) {
	return newEnricher(config)
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newEnricher(config)
}

// Situate generates a short context blurb placing the chunk within its
// document.
func (e *Enricher) Situate(ctx context.Context, chunk ai.ChunkContext) (string, error) {
	blurb, err := e.generate(ctx, situatePromptTemplate, buildSituateUserPrompt(chunk))
	if err != nil {
		e.logger.Error("failed to situate chunk", "section", chunk.Section, "err", err)
		return "", err
	}
	return blurb, nil
}

// Summarize produces a compact abstract of the document content.
func (e *Enricher) Summarize(ctx context.Context, title, content string) (string, error) {
	summary, err := e.generate(ctx, summarizePromptTemplate, buildSummarizeUserPrompt(title, content))
	if err != nil {
		e.logger.Error("failed to summarize document", "title", title, "err", err)
		return "", err
	}
	return summary, nil
}

func (e *Enricher) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}

	response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", errors.New("generator returned no choices")
	}

	text := cleanResponse(response.Choices[0].Content)
	if text == "" {
		return "", errors.New("generator returned empty content")
	}
	return text, nil
}
