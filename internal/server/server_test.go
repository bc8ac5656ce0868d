package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagoisdead/sustento-back/internal/config"
	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/planner"
	"github.com/thiagoisdead/sustento-back/internal/storage"
)

type fakeSuggester struct {
	got  []planner.SuggestRequest
	resp *planner.Suggestion
	err  error
}

func (f *fakeSuggester) Suggest(_ context.Context, req planner.SuggestRequest) (*planner.Suggestion, error) {
	f.got = append(f.got, req)
	return f.resp, f.err
}

type testServer struct {
	*Server
	store     *storage.SQLiteStorage
	suggester *fakeSuggester
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sug := &fakeSuggester{}
	srv := New(config.DefaultConfig(), store, sug, nil)
	return &testServer{Server: srv, store: store, suggester: sug}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

var athlete = models.Biometrics{
	Gender: models.Male, HeightCm: 180, WeightKg: 80, Age: 30, ActivityLevel: models.Active,
}

func (ts *testServer) createUser(t *testing.T) models.User {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/users", models.User{
		Name:         "Bruno",
		Email:        "bruno@example.com",
		Biometrics:   athlete,
		Objective:    models.GainMuscle,
		Restrictions: []models.Restriction{"lactose_free"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u models.User
	decode(t, rec, &u)
	return u
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCalculateTargets(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/targets", athlete)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.NutrientTargets
	decode(t, rec, &got)
	assert.Equal(t, models.NutrientTargets{Calories: 3070, ProteinG: 153, FatG: 102, CarbsG: 391}, got)

	incomplete := athlete
	incomplete.Age = 0
	rec = ts.do(t, http.MethodPost, "/api/targets", incomplete)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/targets", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsers(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t)
	assert.NotZero(t, u.ID)
	assert.Equal(t, []models.Restriction{models.LactoseFree}, u.Restrictions)

	rec := ts.do(t, http.MethodGet, "/api/users/1/targets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var targets models.NutrientTargets
	decode(t, rec, &targets)
	assert.Equal(t, 3070, targets.Calories)

	u.Biometrics.WeightKg = 75
	rec = ts.do(t, http.MethodPut, "/api/users/1", u)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.User
	decode(t, rec, &updated)
	assert.Equal(t, 75.0, updated.Biometrics.WeightKg)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/users/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/users/abc", nil).Code)

	bad := u
	bad.Restrictions = []models.Restriction{"KETO"}
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/users/1", bad).Code)

	bad = u
	bad.Email = " "
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/users", bad).Code)
}

func TestPlans(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	u := ts.createUser(t)

	rice := &models.FoodRecord{Name: "Arroz", Per100g: models.Macros{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}}
	require.NoError(t, ts.store.CreateFood(ctx, rice))

	rec := ts.do(t, http.MethodPost, "/api/meal-plans", map[string]interface{}{
		"user_id":   u.ID,
		"plan_name": "Manual",
		"meals": []map[string]interface{}{{
			"meal_name": "Lunch",
			"meal_type": "FIXED",
			"items": []map[string]interface{}{
				{"food_id": rice.ID, "quantity": 200, "measurement_unit": "g"},
			},
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var plan models.PlanRecord
	decode(t, rec, &plan)
	assert.Equal(t, models.ManualPlan, plan.Source)
	assert.True(t, plan.Active)
	assert.Equal(t, 3070.0, plan.TargetCalories)
	assert.Equal(t, 153.0, plan.TargetProtein)
	require.Len(t, plan.Meals, 1)
	require.Len(t, plan.Meals[0].Items, 1)
	assert.Equal(t, models.Grams, plan.Meals[0].Items[0].Unit)

	rec = ts.do(t, http.MethodGet, "/api/meal-plans/1/totals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var totals models.PlanTotals
	decode(t, rec, &totals)
	assert.Equal(t, models.PlanTotals{TotalCalories: 260, TotalProtein: 5.4, TotalCarbs: 56, TotalFat: 0.6}, totals)

	rec = ts.do(t, http.MethodGet, "/api/meal-plans?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plans []models.PlanRecord
	decode(t, rec, &plans)
	assert.Len(t, plans, 1)

	rec = ts.do(t, http.MethodPut, "/api/meal-plans/1", map[string]interface{}{"plan_name": "Renamed", "active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &plan)
	assert.Equal(t, "Renamed", plan.Name)
	assert.False(t, plan.Active)

	rec = ts.do(t, http.MethodGet, "/api/meal-plans/1/meals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var meals []models.Meal
	decode(t, rec, &meals)
	assert.Len(t, meals, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/meal-plans/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/meal-plans/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/meal-plans/1/totals", nil).Code)

	rec = ts.do(t, http.MethodPost, "/api/meal-plans", map[string]interface{}{"user_id": 42, "plan_name": "Orphan"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/meal-plans", map[string]interface{}{"user_id": u.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePlan_RejectsUnknownFood(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t)

	rec := ts.do(t, http.MethodPost, "/api/meal-plans", map[string]interface{}{
		"user_id":   u.ID,
		"plan_name": "Manual",
		"meals": []map[string]interface{}{{
			"meal_name": "Lunch",
			"items":     []map[string]interface{}{{"food_id": 404, "quantity": 100, "measurement_unit": "G"}},
		}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "unknown food_id 404")

	rec = ts.do(t, http.MethodGet, "/api/meal-plans?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListPlans_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/meal-plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSuggestPlan(t *testing.T) {
	ts := newTestServer(t)
	ts.suggester.resp = &planner.Suggestion{
		Plan:     &models.PlanRecord{ID: 7, Name: "Personalized Nutrition Plan", Source: models.AutomaticPlan},
		Attempts: 2,
	}

	rec := ts.do(t, http.MethodPost, "/api/meal-plans/suggest", planner.SuggestRequest{UserID: 3, PlanID: 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got planner.Suggestion
	decode(t, rec, &got)
	assert.Equal(t, int64(7), got.Plan.ID)
	assert.Equal(t, 2, got.Attempts)
	assert.Equal(t, []planner.SuggestRequest{{UserID: 3, PlanID: 5}}, ts.suggester.got)

	rec = ts.do(t, http.MethodPost, "/api/meal-plans/suggest", planner.SuggestRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, ts.suggester.got, 1)
}

func TestSuggestPlan_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrGenerationIncomplete, http.StatusBadGateway},
		{models.ErrNoCandidateFoods, http.StatusBadGateway},
		{models.ErrUpstream, http.StatusBadGateway},
		{models.ErrIncompleteProfile, http.StatusUnprocessableEntity},
		{models.ErrNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ts := newTestServer(t)
			ts.suggester.err = tt.err
			rec := ts.do(t, http.MethodPost, "/api/meal-plans/suggest", planner.SuggestRequest{UserID: 1})
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.err.Error())
		})
	}
}

func (ts *testServer) createMeal(t *testing.T, userID int64) models.Meal {
	t.Helper()
	ctx := context.Background()
	plan := &models.PlanRecord{UserID: userID, Name: "Plan", Active: true,
		Meals: []models.Meal{{Name: "Breakfast", Type: models.FixedMeal}}}
	require.NoError(t, ts.store.CreatePlan(ctx, plan))
	meals, err := ts.store.ListMeals(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	return meals[0]
}

func TestMealRecords(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t)
	meal := ts.createMeal(t, u.ID)

	rec := ts.do(t, http.MethodPost, "/api/meal-records", models.ConsumptionRecord{
		MealID: meal.ID, UserID: u.ID, MealDate: "2025-03-14", MealMoment: "08:15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.ConsumptionRecord
	decode(t, rec, &created)
	assert.NotZero(t, created.ID)

	rec = ts.do(t, http.MethodGet, "/api/meal-records/meal/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var today []models.ConsumptionRecord
	decode(t, rec, &today)
	require.Len(t, today, 1)
	assert.Equal(t, created.ID, today[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/meal-records/meal/1?date=2001-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = ts.do(t, http.MethodPut, "/api/meal-records/1", map[string]string{"notes": "half portion"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.ConsumptionRecord
	decode(t, rec, &updated)
	assert.Equal(t, "half portion", updated.Notes)
	assert.Equal(t, "08:15", updated.MealMoment)

	rec = ts.do(t, http.MethodPut, "/api/meal-records/1", map[string]string{"meal_moment": "25:99"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/meal-records?user_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.ConsumptionRecord
	decode(t, rec, &all)
	assert.Len(t, all, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/meal-records/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/meal-records/1", nil).Code)
}

func TestCreateRecord_Validation(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name string
		rec  models.ConsumptionRecord
	}{
		{"missing meal", models.ConsumptionRecord{UserID: 1}},
		{"missing user", models.ConsumptionRecord{MealID: 1}},
		{"bad date", models.ConsumptionRecord{MealID: 1, UserID: 1, MealDate: "14/03/2025"}},
		{"bad moment", models.ConsumptionRecord{MealID: 1, UserID: 1, MealMoment: "8h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/meal-records", tt.rec).Code)
		})
	}
}

func toolText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	decode(t, rec, &result)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result.Content[0].Text
}

func TestMCP_ListTools(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/mcp/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tools []tool `json:"tools"`
	}
	decode(t, rec, &body)
	var names []string
	for _, tl := range body.Tools {
		names = append(names, tl.Name)
		assert.NotEmpty(t, tl.Description)
	}
	assert.Equal(t, []string{
		"calculate_targets", "get_meal_plan", "get_meal_records",
		"list_meal_plans", "log_meal_record", "suggest_meal_plan",
	}, names)
}

func TestMCP_CalculateTargets(t *testing.T) {
	ts := newTestServer(t)
	u := ts.createUser(t)

	rec := ts.do(t, http.MethodPost, "/mcp", protocol.CallToolRequest{
		Name:      "calculate_targets",
		Arguments: map[string]interface{}{"user_id": u.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var targets models.NutrientTargets
	require.NoError(t, json.Unmarshal([]byte(toolText(t, rec)), &targets))
	assert.Equal(t, 3070, targets.Calories)
}

func TestMCP_SuggestAndLog(t *testing.T) {
	ts := newTestServer(t)
	ts.now = func() time.Time { return time.Date(2025, 3, 14, 7, 45, 0, 0, time.UTC) }
	ts.suggester.resp = &planner.Suggestion{Plan: &models.PlanRecord{ID: 1}, Attempts: 1}
	u := ts.createUser(t)
	meal := ts.createMeal(t, u.ID)

	rec := ts.do(t, http.MethodPost, "/mcp", protocol.CallToolRequest{
		Name:      "suggest_meal_plan",
		Arguments: map[string]interface{}{"user_id": u.ID, "plan_name": " Cutting "},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []planner.SuggestRequest{{UserID: u.ID, PlanName: "Cutting"}}, ts.suggester.got)

	rec = ts.do(t, http.MethodPost, "/mcp", protocol.CallToolRequest{
		Name:      "log_meal_record",
		Arguments: map[string]interface{}{"user_id": u.ID, "meal_id": meal.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var logged models.ConsumptionRecord
	require.NoError(t, json.Unmarshal([]byte(toolText(t, rec)), &logged))
	assert.Equal(t, "2025-03-14", logged.MealDate)
	assert.Equal(t, "07:45", logged.MealMoment)

	rec = ts.do(t, http.MethodPost, "/mcp", protocol.CallToolRequest{
		Name:      "get_meal_records",
		Arguments: map[string]interface{}{"user_id": u.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.ConsumptionRecord
	require.NoError(t, json.Unmarshal([]byte(toolText(t, rec)), &records))
	assert.Len(t, records, 1)
}

func TestMCP_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/mcp", protocol.CallToolRequest{Name: "log_meal"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/mcp", protocol.CallToolRequest{Name: "get_meal_plan"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/mcp", protocol.CallToolRequest{
		Name:      "get_meal_plan",
		Arguments: map[string]interface{}{"meal_plan_id": "seven"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
