// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/nutrition"
	"github.com/thiagoisdead/sustento-back/internal/planner"
)

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	handler     toolHandler
}

type CalculateTargetsParams struct {
	UserID     int64             `json:"user_id,omitempty" description:"Stored user whose biometrics to use"`
	Biometrics models.Biometrics `json:"biometrics,omitempty" description:"Biometrics to use when no user_id is given"`
}

type SuggestMealPlanParams struct {
	UserID   int64  `json:"user_id" description:"User receiving the plan"`
	PlanID   int64  `json:"meal_plan_id,omitempty" description:"Existing plan to fill with the remaining targets"`
	PlanName string `json:"plan_name,omitempty" description:"Name of a newly created plan"`
}

type GetMealPlanParams struct {
	PlanID int64 `json:"meal_plan_id" description:"Plan to fetch"`
}

type ListMealPlansParams struct {
	UserID int64 `json:"user_id,omitempty" description:"Only plans of this user"`
}

type LogMealRecordParams struct {
	UserID     int64  `json:"user_id" description:"User who ate the meal"`
	MealID     int64  `json:"meal_id" description:"Planned meal that was eaten"`
	MealDate   string `json:"meal_date,omitempty" description:"Date eaten (YYYY-MM-DD)"`
	MealMoment string `json:"meal_moment,omitempty" description:"Time eaten (HH:MM)"`
	Notes      string `json:"notes,omitempty" description:"Free-form notes"`
}

type GetMealRecordsParams struct {
	UserID int64 `json:"user_id,omitempty" description:"Only records of this user"`
	MealID int64 `json:"meal_id,omitempty" description:"Only today's records of this meal"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return badRequest("failed to marshal arguments: %v", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return badRequest("failed to unmarshal parameters: %v", err)
	}
	return nil
}

func createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}

func (s *Server) registerTools() {
	s.tools = make(map[string]tool)
	for _, t := range []tool{
		{"calculate_targets", "Calculate daily calorie and macro targets from biometrics", s.toolCalculateTargets},
		{"suggest_meal_plan", "Generate and save a meal plan that meets the user's targets", s.toolSuggestMealPlan},
		{"get_meal_plan", "Fetch a meal plan with its meals and items", s.toolGetMealPlan},
		{"list_meal_plans", "List meal plans, optionally for one user", s.toolListMealPlans},
		{"log_meal_record", "Record that a planned meal was eaten", s.toolLogMealRecord},
		{"get_meal_records", "List consumption records by user or by meal", s.toolGetMealRecords},
	} {
		s.tools[t.Name] = t
		s.logger.Debug("registered tool", zap.String("tool", t.Name))
	}
}

func (s *Server) handleListTools(c *gin.Context) {
	list := make([]tool, 0, len(s.tools))
	for _, t := range s.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	c.JSON(http.StatusOK, gin.H{"tools": list})
}

// handleMCP dispatches a tools/call request to the named tool.
func (s *Server) handleMCP(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		s.writeError(c, badRequest("invalid JSON: %v", err))
		return
	}

	t, ok := s.tools[request.Name]
	if !ok {
		s.writeError(c, fmt.Errorf("tool %q: %w", request.Name, models.ErrNotFound))
		return
	}

	result, err := t.handler(c.Request.Context(), &request)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) toolCalculateTargets(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params CalculateTargetsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	b := params.Biometrics
	if params.UserID > 0 {
		user, err := s.store.GetUser(ctx, params.UserID)
		if err != nil {
			return nil, err
		}
		b = user.Biometrics
	}

	targets, err := nutrition.CalculateTargets(b)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(targets)
}

func (s *Server) toolSuggestMealPlan(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SuggestMealPlanParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.UserID <= 0 {
		return nil, badRequest("user_id is required")
	}

	suggestion, err := s.suggester.Suggest(ctx, planner.SuggestRequest{
		UserID:   params.UserID,
		PlanID:   params.PlanID,
		PlanName: strings.TrimSpace(params.PlanName),
	})
	if err != nil {
		return nil, err
	}
	return createJSONResponse(suggestion)
}

func (s *Server) toolGetMealPlan(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMealPlanParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.PlanID <= 0 {
		return nil, badRequest("meal_plan_id is required")
	}

	plan, err := s.store.GetPlan(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(plan)
}

func (s *Server) toolListMealPlans(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ListMealPlansParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	plans, err := s.store.ListPlans(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(nonNil(plans))
}

func (s *Server) toolLogMealRecord(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LogMealRecordParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	rec := &models.ConsumptionRecord{
		UserID:     params.UserID,
		MealID:     params.MealID,
		MealDate:   params.MealDate,
		MealMoment: params.MealMoment,
		Notes:      params.Notes,
	}
	if rec.MealDate == "" {
		rec.MealDate = s.now().Format(dateLayout)
	}
	if rec.MealMoment == "" {
		rec.MealMoment = s.now().Format(momentLayout)
	}
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}
	return createJSONResponse(rec)
}

func (s *Server) toolGetMealRecords(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMealRecordsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	var (
		records []*models.ConsumptionRecord
		err     error
	)
	if params.MealID > 0 {
		records, err = s.store.ListRecordsByMealOn(ctx, params.MealID, s.now())
	} else {
		records, err = s.store.ListRecords(ctx, params.UserID)
	}
	if err != nil {
		return nil, err
	}
	return createJSONResponse(nonNil(records))
}
