// Package oracle wraps the generative models that propose food concepts and
// meal plans. Every implementation returns a single JSON object as text.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/config"
)

// ErrNoJSONObject is returned when a completion holds no JSON object.
var ErrNoJSONObject = errors.New("completion contains no JSON object")

// Request is one completion call.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Oracle produces a JSON document for a prompt.
type Oracle interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the oracle named by cfg.Provider.
func New(ctx context.Context, cfg config.OracleConfig, timeout time.Duration, logger *zap.Logger) (Oracle, error) {
	switch cfg.Provider {
	case "genai", "":
		return NewGenAI(ctx, cfg.APIKey, cfg.Model, timeout, logger)
	case "gateway":
		return NewGateway(cfg.BaseURL, cfg.APIKey, cfg.Model, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider: %q", cfg.Provider)
	}
}

// ExtractJSON returns the text between the first "{" and the last "}".
// Models often wrap the document in prose or code fences.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", ErrNoJSONObject
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}
