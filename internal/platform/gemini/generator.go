// Package gemini implements the generation.Generator interface using
// Google's Gemini API.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"google.golang.org/genai"

	"github.com/yayaysya/sixu-recall/internal/config"
	"github.com/yayaysya/sixu-recall/internal/generation"
)

// systemPrompt instructs the model to act as a flashcard author and reply
// with the exact JSON shape the parser validates.
const systemPrompt = `You are a flashcard author for a spaced-repetition system.
Given study material, produce question/answer flashcards that test understanding,
not verbatim recall. Respond with a single JSON object of the form
{"cards":[{"question":"...","answer":"...","sourceSection":"...","tags":["..."]}]}
and nothing else.`

// userPromptTemplate renders the per-request prompt.
const userPromptTemplate = `Create exactly {{.Count}} flashcards from the material below.
{{- if .SectionHint}}
The material comes from the section "{{.SectionHint}}"; set sourceSection accordingly.
{{- end}}

Material:
{{.Text}}`

// Generator calls the Gemini API to produce card candidates. Retry across
// transient failures is the batch processor's job; a Generator call is a
// single attempt with error classification.
type Generator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
}

// interface guard
var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed generator from LLM configuration.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger,
		config:         cfg,
		promptTemplate: template.Must(template.New("cards").Parse(userPromptTemplate)),
		client:         client,
	}, nil
}

// GenerateCards implements generation.Generator.
func (g *Generator) GenerateCards(
	ctx context.Context,
	req generation.CardRequest,
) ([]generation.CandidateCard, error) {
	prompt, err := g.buildPrompt(req)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "calling gemini",
		"model", g.config.ModelName,
		"prompt_length", len(prompt),
		"target_count", req.Count)

	genCfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.config.Temperature),
		MaxOutputTokens:   g.config.MaxOutputTokens,
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.ModelName, genai.Text(prompt), genCfg)
	if err != nil {
		// API-level failures are assumed transient; the caller's retry
		// policy decides whether to try again.
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w", generation.ErrContentBlocked)
	}

	candidates, err := generation.ParseResponse(resp.Text())
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "gemini call succeeded",
		"model", g.config.ModelName,
		"card_count", len(candidates))

	return candidates, nil
}

// buildPrompt renders the user prompt for a request.
func (g *Generator) buildPrompt(req generation.CardRequest) (string, error) {
	if req.Text == "" {
		return "", generation.ErrEmptyText
	}

	count := req.Count
	if count < 1 {
		count = 1
	}

	var buf bytes.Buffer
	err := g.promptTemplate.Execute(&buf, struct {
		Count       int
		SectionHint string
		Text        string
	}{count, req.SectionHint, req.Text})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return buf.String(), nil
}
