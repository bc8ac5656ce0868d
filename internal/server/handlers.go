package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/nutrition"
	"github.com/thiagoisdead/sustento-back/internal/planner"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func queryID(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, badRequest("invalid %s %q", key, raw)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// Targets

func (s *Server) handleCalculateTargets(c *gin.Context) {
	var b models.Biometrics
	if err := bindJSON(c, &b); err != nil {
		s.writeError(c, err)
		return
	}
	targets, err := nutrition.CalculateTargets(b)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, targets)
}

func (s *Server) handleUserTargets(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	targets, err := nutrition.CalculateTargets(user.Biometrics)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, targets)
}

// Users

func validateUser(u *models.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" || u.Email == "" {
		return badRequest("name and email are required")
	}
	for _, r := range u.Restrictions {
		if _, ok := knownRestrictions[models.Restriction(strings.ToUpper(strings.TrimSpace(string(r))))]; !ok {
			return badRequest("unknown restriction %q", r)
		}
	}
	return nil
}

var knownRestrictions = map[models.Restriction]struct{}{
	models.GlutenFree:  {},
	models.LactoseFree: {},
	models.Vegan:       {},
	models.Vegetarian:  {},
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var user models.User
	if err := bindJSON(c, &user); err != nil {
		s.writeError(c, err)
		return
	}
	if err := validateUser(&user); err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.store.CreateUser(c.Request.Context(), &user); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	user, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var user models.User
	if err := bindJSON(c, &user); err != nil {
		s.writeError(c, err)
		return
	}
	if err := validateUser(&user); err != nil {
		s.writeError(c, err)
		return
	}
	user.ID = id
	if err := s.store.UpdateUser(c.Request.Context(), &user); err != nil {
		s.writeError(c, err)
		return
	}
	updated, err := s.store.GetUser(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Foods

func (s *Server) handleListFoods(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	foods, err := s.store.ListFoods(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(foods))
}

// Plans

type planRequest struct {
	UserID         int64             `json:"user_id"`
	Name           string            `json:"plan_name"`
	Source         models.PlanSource `json:"source"`
	Active         *bool             `json:"active"`
	TargetCalories float64           `json:"target_calories"`
	TargetProtein  float64           `json:"target_protein"`
	TargetCarbs    float64           `json:"target_carbs"`
	TargetFat      float64           `json:"target_fat"`
	Meals          []models.Meal     `json:"meals"`
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	var req planRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}
	if req.UserID <= 0 || strings.TrimSpace(req.Name) == "" {
		s.writeError(c, badRequest("user_id and plan_name are required"))
		return
	}
	ctx := c.Request.Context()
	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// Manual plans without explicit targets aim at the user's daily targets.
	if req.TargetCalories == 0 && req.TargetProtein == 0 && req.TargetCarbs == 0 && req.TargetFat == 0 {
		targets, err := nutrition.CalculateTargets(user.Biometrics)
		if err != nil {
			s.writeError(c, err)
			return
		}
		req.TargetCalories = float64(targets.Calories)
		req.TargetProtein = float64(targets.ProteinG)
		req.TargetCarbs = float64(targets.CarbsG)
		req.TargetFat = float64(targets.FatG)
	}

	plan := &models.PlanRecord{
		UserID:         req.UserID,
		Name:           strings.TrimSpace(req.Name),
		Source:         req.Source,
		Active:         req.Active == nil || *req.Active,
		TargetCalories: req.TargetCalories,
		TargetProtein:  req.TargetProtein,
		TargetCarbs:    req.TargetCarbs,
		TargetFat:      req.TargetFat,
	}
	if plan.Source == "" {
		plan.Source = models.ManualPlan
	}
	if err := s.checkMeals(ctx, req.Meals); err != nil {
		s.writeError(c, err)
		return
	}
	for i := range req.Meals {
		req.Meals[i].Position = i
	}
	plan.Meals = req.Meals
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		s.writeError(c, err)
		return
	}

	created, err := s.store.GetPlan(ctx, plan.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// checkMeals rejects items that reference unknown foods or carry no quantity.
func (s *Server) checkMeals(ctx context.Context, meals []models.Meal) error {
	known := make(map[int64]bool)
	for _, meal := range meals {
		if strings.TrimSpace(meal.Name) == "" {
			return badRequest("meal_name is required")
		}
		for _, item := range meal.Items {
			if item.Quantity <= 0 {
				return badRequest("quantity of food %d must be positive", item.FoodID)
			}
			if known[item.FoodID] {
				continue
			}
			if _, err := s.store.GetFood(ctx, item.FoodID); err != nil {
				if errors.Is(err, models.ErrNotFound) {
					return badRequest("unknown food_id %d", item.FoodID)
				}
				return err
			}
			known[item.FoodID] = true
		}
	}
	return nil
}

func (s *Server) handleListPlans(c *gin.Context) {
	userID, err := queryID(c, "user_id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	plans, err := s.store.ListPlans(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(plans))
}

func (s *Server) handleGetPlan(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	plan, err := s.store.GetPlan(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleUpdatePlan(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	var req planRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		plan.Name = name
	}
	if req.Source != "" {
		plan.Source = req.Source
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}
	if err := s.store.UpdatePlan(ctx, plan); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.store.DeletePlan(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListMeals(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := s.store.GetPlan(ctx, id); err != nil {
		s.writeError(c, err)
		return
	}
	meals, err := s.store.ListMeals(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(meals))
}

// handlePlanTotals recomputes a plan's totals from its stored items.
func (s *Server) handlePlanTotals(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := s.store.GetPlan(ctx, id); err != nil {
		s.writeError(c, err)
		return
	}
	portions, err := s.store.PlanPortions(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nutrition.Aggregate(portions))
}

func (s *Server) handleSuggestPlan(c *gin.Context) {
	var req planner.SuggestRequest
	if err := bindJSON(c, &req); err != nil {
		s.writeError(c, err)
		return
	}
	if req.UserID <= 0 {
		s.writeError(c, badRequest("user_id is required"))
		return
	}
	suggestion, err := s.suggester.Suggest(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suggestion)
}

// Meal records

const (
	dateLayout   = "2006-01-02"
	momentLayout = "15:04"
)

func validateRecord(rec *models.ConsumptionRecord) error {
	if rec.MealID <= 0 || rec.UserID <= 0 {
		return badRequest("meal_id and user_id are required")
	}
	if rec.MealDate != "" {
		if _, err := time.Parse(dateLayout, rec.MealDate); err != nil {
			return badRequest("meal_date must be YYYY-MM-DD")
		}
	}
	if rec.MealMoment != "" {
		if _, err := time.Parse(momentLayout, rec.MealMoment); err != nil {
			return badRequest("meal_moment must be HH:MM")
		}
	}
	return nil
}

func (s *Server) handleCreateRecord(c *gin.Context) {
	var rec models.ConsumptionRecord
	if err := bindJSON(c, &rec); err != nil {
		s.writeError(c, err)
		return
	}
	if err := validateRecord(&rec); err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.store.CreateRecord(c.Request.Context(), &rec); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleListRecords(c *gin.Context) {
	userID, err := queryID(c, "user_id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	records, err := s.store.ListRecords(c.Request.Context(), userID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(records))
}

// handleRecordsByMeal lists a meal's records created today, or on ?date=.
func (s *Server) handleRecordsByMeal(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	day := s.now()
	if raw := c.Query("date"); raw != "" {
		if day, err = time.ParseInLocation(dateLayout, raw, day.Location()); err != nil {
			s.writeError(c, badRequest("date must be YYYY-MM-DD"))
			return
		}
	}
	records, err := s.store.ListRecordsByMealOn(c.Request.Context(), id, day)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(records))
}

func (s *Server) handleGetRecord(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	rec, err := s.store.GetRecord(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleUpdateRecord(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var patch struct {
		MealDate   *string `json:"meal_date"`
		MealMoment *string `json:"meal_moment"`
		Notes      *string `json:"notes"`
	}
	if err := bindJSON(c, &patch); err != nil {
		s.writeError(c, err)
		return
	}
	if patch.MealDate != nil {
		rec.MealDate = *patch.MealDate
	}
	if patch.MealMoment != nil {
		rec.MealMoment = *patch.MealMoment
	}
	if patch.Notes != nil {
		rec.Notes = *patch.Notes
	}
	if err := validateRecord(rec); err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.store.UpdateRecord(ctx, rec); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.store.DeleteRecord(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// nonNil renders empty lists as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
