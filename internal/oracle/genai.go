package oracle

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/thiagoisdead/sustento-back/internal/logging"
)

const defaultGenAIModel = "gemini-2.0-flash"

// GenAI calls Gemini through the Google GenAI SDK in JSON mode.
type GenAI struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGenAI(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = defaultGenAIModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{
		client: client,
		model:  model,
		logger: logging.OrNop(logger).Named("oracle.genai"),
	}, nil
}

func (g *GenAI) Complete(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(req.Temperature),
		MaxOutputTokens:  int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), cfg)
	if err != nil {
		return "", fmt.Errorf("genai completion failed: %w", err)
	}

	text := resp.Text()
	g.logger.Debug("completion",
		zap.String("model", g.model),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))

	return ExtractJSON(text)
}
