package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

func TestConcepts(t *testing.T) {
	o := newScriptedOracle(reply{text: `{"foods": ["Arroz integral", 42, " Feijão ", "", null, "Ovo"]}`})
	b := NewBrainstormer(o, DefaultOptions(), nil)

	got, err := b.Concepts(context.Background(), testTargets, models.NewRestrictionSet(), models.GainMuscle)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arroz integral", "Feijão", "Ovo"}, got)

	req := o.requests[0]
	assert.Equal(t, float32(0.8), req.Temperature)
	assert.Equal(t, 600, req.MaxTokens)
	assert.Contains(t, req.User, "suggest 10 essential")
	assert.Contains(t, req.User, "MANDATORY FOODS (OMNIVORE)")
	assert.NotContains(t, req.User, "CRITICAL RESTRICTION")
}

func TestConcepts_PlantBased(t *testing.T) {
	o := newScriptedOracle(reply{text: `{"foods": ["Tofu"]}`})
	b := NewBrainstormer(o, DefaultOptions(), nil)

	_, err := b.Concepts(context.Background(), testTargets, models.NewRestrictionSet(models.Vegetarian), models.Maintenance)
	require.NoError(t, err)
	assert.Contains(t, o.requests[0].User, "MANDATORY FOODS (PLANT-BASED)")
	assert.Contains(t, o.requests[0].User, "[VEGETARIAN]")
}

func TestConcepts_Errors(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
		want  error
	}{
		{"transport", reply{err: errors.New("quota exceeded")}, models.ErrUpstream},
		{"not json", reply{text: "Arroz, Feijão"}, models.ErrNoCandidateFoods},
		{"no strings", reply{text: `{"foods": [1, 2]}`}, models.ErrNoCandidateFoods},
		{"missing key", reply{text: `{"items": ["Arroz"]}`}, models.ErrNoCandidateFoods},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBrainstormer(newScriptedOracle(tt.reply), DefaultOptions(), nil)
			_, err := b.Concepts(context.Background(), testTargets, nil, models.Maintenance)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
