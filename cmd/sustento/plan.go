package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/nutrition"
	"github.com/thiagoisdead/sustento-back/internal/planner"
	"github.com/thiagoisdead/sustento-back/internal/storage"
)

var biometrics models.Biometrics

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Calculate daily calorie and macro targets",
	Example: `  sustento targets --gender M --height 180 --weight 80 --age 30 --activity ACTIVE`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := biometrics
		b.Gender = models.Gender(strings.ToUpper(string(b.Gender)))
		b.ActivityLevel = models.ActivityLevel(strings.ToUpper(string(b.ActivityLevel)))

		targets, err := nutrition.CalculateTargets(b)
		if err != nil {
			return err
		}
		return printJSON(cmd, targets)
	},
}

var suggestReq planner.SuggestRequest

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate and save a meal plan for a stored user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := storage.NewSQLiteStorage(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer store.Close()

		suggester, err := newSuggester(ctx, store)
		if err != nil {
			return err
		}
		suggestion, err := suggester.Suggest(ctx, suggestReq)
		if err != nil {
			return err
		}
		return printJSON(cmd, suggestion)
	},
}

func init() {
	f := targetsCmd.Flags()
	f.StringVar((*string)(&biometrics.Gender), "gender", "", "M or F")
	f.Float64Var(&biometrics.HeightCm, "height", 0, "Height in centimetres")
	f.Float64Var(&biometrics.WeightKg, "weight", 0, "Weight in kilograms")
	f.IntVar(&biometrics.Age, "age", 0, "Age in years")
	f.StringVar((*string)(&biometrics.ActivityLevel), "activity", "", "SEDENTARY, LIGHTLY_ACTIVE, MODERATELY_ACTIVE, ACTIVE or VERY_ACTIVE")

	s := suggestCmd.Flags()
	s.Int64Var(&suggestReq.UserID, "user-id", 0, "User receiving the plan (required)")
	s.Int64Var(&suggestReq.PlanID, "plan-id", 0, "Existing plan to fill with the remaining targets")
	s.StringVar(&suggestReq.PlanName, "plan-name", "", "Name of a newly created plan")
	_ = suggestCmd.MarkFlagRequired("user-id")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
