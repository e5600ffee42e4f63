package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poibms/next-meal/internal/metrics"
	"github.com/poibms/next-meal/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	MinCalories = 500
	MaxCalories = 15000
	MinDays     = 1
	MaxDays     = 14
	DefaultDays = 7
)

var (
	ErrInvalidRequest = errors.New("invalid meal plan request")
	ErrBadResponse    = errors.New("meal plan response could not be parsed")
)

const systemPrompt = `You are a professional nutritionist. Respond with JSON only, shaped as
{"days":[{"day":"Monday","breakfast":"...","lunch":"...","dinner":"...","snacks":"..."}]}.
Each meal names the dish and its approximate calories. Omit "snacks" when snacks are not requested.`

type Generator struct {
	client   AIClient
	recorder metrics.Recorder
}

func NewGenerator(client AIClient, recorder metrics.Recorder) *Generator {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Generator{client: client, recorder: recorder}
}

// Validate normalizes req in place and rejects out-of-range values.
func Validate(req *models.MealPlanRequest) error {
	req.DietType = strings.TrimSpace(req.DietType)
	req.Allergies = strings.TrimSpace(req.Allergies)
	req.Cuisine = strings.TrimSpace(req.Cuisine)

	if req.DietType == "" {
		return fmt.Errorf("%w: dietType is required", ErrInvalidRequest)
	}
	if req.Calories < MinCalories || req.Calories > MaxCalories {
		return fmt.Errorf("%w: calories must be between %d and %d", ErrInvalidRequest, MinCalories, MaxCalories)
	}
	if req.Days == 0 {
		req.Days = DefaultDays
	}
	if req.Days < MinDays || req.Days > MaxDays {
		return fmt.Errorf("%w: days must be between %d and %d", ErrInvalidRequest, MinDays, MaxDays)
	}
	return nil
}

func (g *Generator) Generate(ctx context.Context, req models.MealPlanRequest) (*models.MealPlan, error) {
	if err := Validate(&req); err != nil {
		return nil, err
	}

	start := time.Now()
	plan, err := g.generate(ctx, req)
	g.recorder.RecordMealPlanLatency(time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("diet_type", req.DietType).
		Int("days", len(plan.Days)).
		Dur("duration", time.Since(start)).
		Msg("meal plan generated")
	return plan, nil
}

func (g *Generator) generate(ctx context.Context, req models.MealPlanRequest) (*models.MealPlan, error) {
	content, err := g.client.GenerateJSON(ctx, systemPrompt, buildPrompt(req))
	if err != nil {
		return nil, err
	}

	var plan models.MealPlan
	if err := json.Unmarshal([]byte(cleanJSONMarkdown(content)), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(plan.Days) == 0 {
		return nil, fmt.Errorf("%w: no days returned", ErrBadResponse)
	}
	if !req.Snacks {
		for i := range plan.Days {
			plan.Days[i].Snacks = ""
		}
	}
	return &plan, nil
}

func buildPrompt(req models.MealPlanRequest) string {
	allergies := req.Allergies
	if allergies == "" {
		allergies = "none"
	}
	cuisine := req.Cuisine
	if cuisine == "" {
		cuisine = "no preference"
	}
	snacks := "Do not include snacks."
	if req.Snacks {
		snacks = "Include snacks."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a %d-day meal plan for a %s diet targeting about %d calories per day.\n",
		req.Days, req.DietType, req.Calories)
	fmt.Fprintf(&sb, "Allergies or restrictions: %s.\n", allergies)
	fmt.Fprintf(&sb, "Preferred cuisine: %s.\n", cuisine)
	sb.WriteString(snacks)
	return sb.String()
}
