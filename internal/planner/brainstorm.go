package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/logging"
	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/oracle"
)

// Brainstormer asks the oracle for food concepts to search for.
type Brainstormer struct {
	oracle oracle.Oracle
	opts   Options
	logger *zap.Logger
}

func NewBrainstormer(o oracle.Oracle, opts Options, logger *zap.Logger) *Brainstormer {
	return &Brainstormer{oracle: o, opts: opts, logger: logging.OrNop(logger).Named("brainstorm")}
}

// Concepts returns the proposed food names in oracle order. Non-string
// entries are dropped. An unusable answer fails with ErrNoCandidateFoods.
func (b *Brainstormer) Concepts(ctx context.Context, targets models.NutrientTargets, restrictions models.RestrictionSet, objective models.Objective) ([]string, error) {
	text, err := b.oracle.Complete(ctx, oracle.Request{
		System:      conceptSystemPrompt,
		User:        conceptPrompt(b.opts.ConceptCount, targets, restrictions, objective),
		Temperature: b.opts.ConceptTemperature,
		MaxTokens:   b.opts.ConceptMaxTokens,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: concept brainstorm: %w", models.ErrUpstream, err)
	}

	var doc struct {
		Foods []interface{} `json:"foods"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: unreadable concept list: %v", models.ErrNoCandidateFoods, err)
	}

	var concepts []string
	for _, f := range doc.Foods {
		s, ok := f.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			concepts = append(concepts, s)
		}
	}
	if len(concepts) == 0 {
		return nil, fmt.Errorf("%w: oracle proposed no food concepts", models.ErrNoCandidateFoods)
	}

	b.logger.Debug("concepts", zap.Strings("foods", concepts))
	return concepts, nil
}
