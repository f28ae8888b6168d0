package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calderw/studydeck-api/internal/config"
	"github.com/calderw/studydeck-api/internal/generation"
	"google.golang.org/genai"
)

// Caller implements generation.ModelCaller against Google's Gemini API.
// It performs exactly one remote call per Generate invocation; retries and
// credential selection belong to the generation executor.
type Caller struct {
	model  string
	logger *slog.Logger
}

// NewCaller creates a Caller for the configured model.
func NewCaller(cfg config.LLMConfig, logger *slog.Logger) (*Caller, error) {
	if cfg.ModelName == "" {
		return nil, errors.New("model name cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Caller{
		model:  cfg.ModelName,
		logger: logger.With(slog.String("component", "gemini_caller")),
	}, nil
}

// Ensure Caller implements the generation.ModelCaller interface
var _ generation.ModelCaller = (*Caller)(nil)

// Generate executes one generation request with the given credential and
// returns the raw response text.
//
// The client is constructed per call because the credential changes on
// every attempt; genai clients are lightweight wrappers over a shared
// HTTP transport, so this costs no connection churn.
func (c *Caller) Generate(ctx context.Context, credential string, req *generation.Request) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, p := range req.Parts {
		parts = append(parts, toGenaiPart(p))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    req.Schema,
		MaxOutputTokens:   req.MaxOutputTokens,
	}

	c.logger.DebugContext(ctx, "calling Gemini",
		"model", c.model,
		"parts", len(parts),
		"max_output_tokens", req.MaxOutputTokens)

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", mapRemoteError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", generation.ErrEmptyResponse
	}

	return text, nil
}

// toGenaiPart converts a content part into the transport representation.
// Text parts pass through verbatim, prefixed with their filename when one
// was supplied; image parts carry raw bytes and their MIME type.
func toGenaiPart(p generation.ContentPart) *genai.Part {
	if p.IsImage() {
		return genai.NewPartFromBytes(p.Data, p.MIMEType)
	}

	if p.Filename != "" {
		return genai.NewPartFromText(fmt.Sprintf("[%s]\n%s", p.Filename, p.Text))
	}
	return genai.NewPartFromText(p.Text)
}

// mapRemoteError converts provider API errors into
// *generation.RemoteError so the retry classifier can inspect the status
// code without importing provider types. Non-API errors (transport
// failures, context cancellation) pass through unchanged.
func mapRemoteError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generation.RemoteError{
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	return err
}
