// Package planner turns a user's targets into a persisted meal plan. It
// brainstorms food concepts, resolves them into candidate foods, drives the
// bounded generation loop against the oracle and reconciles the result.
package planner

import "github.com/thiagoisdead/sustento-back/internal/config"

// Options tune the oracle requests of a generation run.
type Options struct {
	ConceptCount       int
	ConceptTemperature float32
	ConceptMaxTokens   int
	PlanTemperature    float32
	PlanMaxTokens      int
	SearchMaxResults   int
}

func DefaultOptions() Options {
	return Options{
		ConceptCount:       10,
		ConceptTemperature: 0.8,
		ConceptMaxTokens:   600,
		PlanTemperature:    0.2,
		PlanMaxTokens:      3000,
		SearchMaxResults:   10,
	}
}

// OptionsFromConfig fills Options from configuration, keeping defaults for
// unset values.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	g := cfg.Generation
	if g.ConceptCount > 0 {
		opts.ConceptCount = g.ConceptCount
	}
	if g.ConceptTemperature > 0 {
		opts.ConceptTemperature = g.ConceptTemperature
	}
	if g.ConceptMaxTokens > 0 {
		opts.ConceptMaxTokens = g.ConceptMaxTokens
	}
	if g.PlanTemperature > 0 {
		opts.PlanTemperature = g.PlanTemperature
	}
	if g.PlanMaxTokens > 0 {
		opts.PlanMaxTokens = g.PlanMaxTokens
	}
	if cfg.FoodSearch.MaxResults > 0 {
		opts.SearchMaxResults = cfg.FoodSearch.MaxResults
	}
	return opts
}
