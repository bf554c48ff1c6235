// internal/ai/parse_test.go
package ai

import (
	"errors"
	"testing"
)

func TestParseFoodCandidate(t *testing.T) {
	content := `{
  "food_name": "Овсяная каша",
  "calories": 350,
  "protein": 12.5,
  "carbs": 60.0,
  "fats": 8.0,
  "meal_type": "breakfast",
  "confidence": 0.9,
  "notes": "standard portion"
}`
	c, err := parseFoodCandidate(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Name != "Овсяная каша" || c.Calories != 350 {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.ProteinG != 12.5 || c.CarbsG != 60 || c.FatG != 8 {
		t.Errorf("unexpected macros: %+v", c)
	}
	if c.MealSlot != "breakfast" {
		t.Errorf("meal slot = %s, want breakfast", c.MealSlot)
	}
	if c.Confidence == nil || *c.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", c.Confidence)
	}
}

func TestParseFoodCandidateDefaultsOptionalMacros(t *testing.T) {
	c, err := parseFoodCandidate(`{"food_name": "чай", "calories": 5}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.ProteinG != 0 || c.FatG != 0 || c.CarbsG != 0 {
		t.Errorf("absent macros must default to zero: %+v", c)
	}
	if c.MealSlot != "snack" {
		t.Errorf("meal slot = %s, want snack default", c.MealSlot)
	}
	if c.Confidence != nil {
		t.Errorf("absent confidence must stay absent, got %v", *c.Confidence)
	}
}

func TestParseFoodCandidateRejectsMissingRequired(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing name", `{"calories": 200}`},
		{"empty name", `{"food_name": "  ", "calories": 200}`},
		{"missing calories", `{"food_name": "суп"}`},
		{"non-numeric calories", `{"food_name": "суп", "calories": "many"}`},
		{"no json at all", `I could not analyze that meal, sorry.`},
	}
	for _, tc := range cases {
		_, err := parseFoodCandidate(tc.content)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		var ee *ExtractionError
		if !errors.As(err, &ee) {
			t.Errorf("%s: error type %T, want *ExtractionError", tc.name, err)
		}
	}
}

func TestParseFoodCandidateUnwrapsFencedJSON(t *testing.T) {
	content := "Here is the analysis:\n```json\n{\"food_name\": \"борщ\", \"calories\": 280, \"meal_type\": \"lunch\"}\n```"
	c, err := parseFoodCandidate(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Name != "борщ" || c.Calories != 280 {
		t.Errorf("unexpected candidate: %+v", c)
	}
}

func TestParseWorkoutCandidate(t *testing.T) {
	content := `{
  "workout_type": "running",
  "duration": 30,
  "calories_burned": 310,
  "intensity": "medium",
  "distance": 5.0,
  "pace": "6:00/km",
  "confidence": 0.85
}`
	c, err := parseWorkoutCandidate(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Activity != "running" || c.DurationMin != 30 || c.CaloriesBurned != 310 {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if c.DistanceKm == nil || *c.DistanceKm != 5.0 {
		t.Errorf("distance = %v, want 5.0", c.DistanceKm)
	}
	if c.Pace != "6:00/km" {
		t.Errorf("pace = %q", c.Pace)
	}
}

func TestParseWorkoutCandidateZeroDurationIsValid(t *testing.T) {
	c, err := parseWorkoutCandidate(`{"workout_type": "running", "duration": 0, "distance": null, "pace": null}`)
	if err != nil {
		t.Fatalf("duration 0 must parse, got %v", err)
	}
	if c.DurationMin != 0 {
		t.Errorf("duration = %d, want 0", c.DurationMin)
	}
	if c.DistanceKm != nil {
		t.Errorf("null distance must stay nil")
	}
}

func TestParseWorkoutCandidateRejectsMissingType(t *testing.T) {
	if _, err := parseWorkoutCandidate(`{"duration": 30}`); err == nil {
		t.Fatal("expected error for missing workout_type")
	}
}

func TestParseWorkoutCandidateIgnoresUnknownIntensity(t *testing.T) {
	c, err := parseWorkoutCandidate(`{"workout_type": "yoga", "duration": 45, "intensity": "extreme"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Intensity != "" {
		t.Errorf("intensity = %q, want empty for unknown label", c.Intensity)
	}
}

func TestClampConfidence(t *testing.T) {
	over := 1.5
	c, err := parseFoodCandidate(`{"food_name": "x", "calories": 100, "confidence": 1.5}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Confidence == nil || *c.Confidence != 1.0 {
		t.Errorf("confidence %v not clamped to 1.0 (input %v)", c.Confidence, over)
	}
}
