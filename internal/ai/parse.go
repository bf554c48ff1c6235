// internal/ai/parse.go
package ai

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/mibgheda/fitbud-bot/internal/models"
)

// extractJSON pulls the outermost JSON object out of a completion, since
// some models wrap the payload in prose or code fences despite the prompt.
func extractJSON(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// foodPayload mirrors the provider contract with pointers so that missing
// required fields are detectable instead of silently zeroed.
type foodPayload struct {
	FoodName    *string  `json:"food_name"`
	Calories    *float64 `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fats        *float64 `json:"fats"`
	MealType    string   `json:"meal_type"`
	Confidence  *float64 `json:"confidence"`
	Notes       string   `json:"notes"`
	Items       []string `json:"items"`
	PortionSize string   `json:"portion_size"`
}

// parseFoodCandidate converts raw model output into a typed candidate.
// food_name and calories are required; protein/fats/carbs default to zero
// when absent, which is the only defaulting the contract allows.
func parseFoodCandidate(content string) (*models.FoodCandidate, error) {
	jsonStr, ok := extractJSON(content)
	if !ok {
		return nil, &ExtractionError{Op: "parse food", Cause: "no JSON object in response"}
	}

	var p foodPayload
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return nil, &ExtractionError{Op: "parse food", Cause: "invalid JSON", Err: err}
	}
	if p.FoodName == nil || strings.TrimSpace(*p.FoodName) == "" {
		return nil, &ExtractionError{Op: "parse food", Cause: "missing food_name"}
	}
	if p.Calories == nil {
		return nil, &ExtractionError{Op: "parse food", Cause: "missing calories"}
	}

	slot := models.Snack
	if models.ValidMealSlot(p.MealType) {
		slot = models.MealSlot(p.MealType)
	}

	c := &models.FoodCandidate{
		Name:        strings.TrimSpace(*p.FoodName),
		Calories:    int(math.Round(*p.Calories)),
		MealSlot:    slot,
		Confidence:  clampConfidence(p.Confidence),
		Notes:       p.Notes,
		Items:       p.Items,
		PortionSize: p.PortionSize,
	}
	if p.Protein != nil {
		c.ProteinG = *p.Protein
	}
	if p.Fats != nil {
		c.FatG = *p.Fats
	}
	if p.Carbs != nil {
		c.CarbsG = *p.Carbs
	}
	return c, nil
}

type workoutPayload struct {
	WorkoutType    *string  `json:"workout_type"`
	Duration       *float64 `json:"duration"`
	CaloriesBurned *float64 `json:"calories_burned"`
	Intensity      string   `json:"intensity"`
	Distance       *float64 `json:"distance"`
	Pace           *string  `json:"pace"`
	Notes          string   `json:"notes"`
	Confidence     *float64 `json:"confidence"`
}

// parseWorkoutCandidate converts raw model output into a typed candidate.
// workout_type is required; a missing or zero duration means the provider
// could not determine it and the controller will ask the user.
func parseWorkoutCandidate(content string) (*models.WorkoutCandidate, error) {
	jsonStr, ok := extractJSON(content)
	if !ok {
		return nil, &ExtractionError{Op: "parse workout", Cause: "no JSON object in response"}
	}

	var p workoutPayload
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return nil, &ExtractionError{Op: "parse workout", Cause: "invalid JSON", Err: err}
	}
	if p.WorkoutType == nil || strings.TrimSpace(*p.WorkoutType) == "" {
		return nil, &ExtractionError{Op: "parse workout", Cause: "missing workout_type"}
	}

	c := &models.WorkoutCandidate{
		Activity:   strings.TrimSpace(*p.WorkoutType),
		Confidence: clampConfidence(p.Confidence),
		Notes:      p.Notes,
		DistanceKm: p.Distance,
	}
	if p.Duration != nil && *p.Duration > 0 {
		c.DurationMin = int(math.Round(*p.Duration))
	}
	if p.CaloriesBurned != nil && *p.CaloriesBurned > 0 {
		c.CaloriesBurned = int(math.Round(*p.CaloriesBurned))
	}
	switch models.Intensity(p.Intensity) {
	case models.LowIntensity, models.MediumIntensity, models.HighIntensity:
		c.Intensity = models.Intensity(p.Intensity)
	}
	if p.Pace != nil {
		c.Pace = *p.Pace
	}
	return c, nil
}

func clampConfidence(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return &c
}
