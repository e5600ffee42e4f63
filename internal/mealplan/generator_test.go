package mealplan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poibms/next-meal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAIClient struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeAIClient) GenerateJSON(ctx context.Context, systemPrompt, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.response, f.err
}

func validRequest() models.MealPlanRequest {
	return models.MealPlanRequest{
		DietType:  "vegetarian",
		Calories:  2000,
		Allergies: "nuts",
		Cuisine:   "Italian",
		Snacks:    true,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.MealPlanRequest)
		wantErr bool
	}{
		{"valid", func(r *models.MealPlanRequest) {}, false},
		{"missing diet", func(r *models.MealPlanRequest) { r.DietType = "  " }, true},
		{"calories too low", func(r *models.MealPlanRequest) { r.Calories = 499 }, true},
		{"calories lower bound", func(r *models.MealPlanRequest) { r.Calories = 500 }, false},
		{"calories upper bound", func(r *models.MealPlanRequest) { r.Calories = 15000 }, false},
		{"calories too high", func(r *models.MealPlanRequest) { r.Calories = 15001 }, true},
		{"days too many", func(r *models.MealPlanRequest) { r.Days = 15 }, true},
		{"days negative", func(r *models.MealPlanRequest) { r.Days = -1 }, true},
		{"days max", func(r *models.MealPlanRequest) { r.Days = 14 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := Validate(&req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_DefaultsDays(t *testing.T) {
	req := validRequest()
	require.NoError(t, Validate(&req))
	assert.Equal(t, DefaultDays, req.Days)
}

func TestGenerate(t *testing.T) {
	client := &fakeAIClient{response: "```json\n{\"days\":[{\"day\":\"Monday\",\"breakfast\":\"Oats\",\"lunch\":\"Salad\",\"dinner\":\"Pasta\",\"snacks\":\"Apple\"}]}\n```"}
	g := NewGenerator(client, nil)

	plan, err := g.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, "Monday", plan.Days[0].Day)
	assert.Equal(t, "Apple", plan.Days[0].Snacks)

	assert.Contains(t, client.prompt, "7-day meal plan")
	assert.Contains(t, client.prompt, "vegetarian")
	assert.Contains(t, client.prompt, "2000 calories")
	assert.Contains(t, client.prompt, "nuts")
	assert.Contains(t, client.prompt, "Include snacks.")
}

func TestGenerate_DropsSnacksWhenNotRequested(t *testing.T) {
	client := &fakeAIClient{response: `{"days":[{"day":"Monday","breakfast":"a","lunch":"b","dinner":"c","snacks":"d"}]}`}
	req := validRequest()
	req.Snacks = false

	plan, err := NewGenerator(client, nil).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, plan.Days[0].Snacks)
	assert.True(t, strings.Contains(client.prompt, "Do not include snacks."))
}

func TestGenerate_InvalidRequestSkipsClient(t *testing.T) {
	client := &fakeAIClient{}
	req := validRequest()
	req.Calories = 10

	_, err := NewGenerator(client, nil).Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, client.calls)
}

func TestGenerate_BadResponse(t *testing.T) {
	for _, response := range []string{"not json", `{"days":[]}`} {
		client := &fakeAIClient{response: response}
		_, err := NewGenerator(client, nil).Generate(context.Background(), validRequest())
		assert.ErrorIs(t, err, ErrBadResponse, response)
	}
}

func TestGenerate_ClientError(t *testing.T) {
	client := &fakeAIClient{err: errors.New("quota exceeded")}
	_, err := NewGenerator(client, nil).Generate(context.Background(), validRequest())
	assert.EqualError(t, err, "quota exceeded")
}

func TestCleanJSONMarkdown(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSONMarkdown("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSONMarkdown("```JSON{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, cleanJSONMarkdown("  {\"a\":1}  "))
}
