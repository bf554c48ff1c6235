// internal/models/models.go
package models

import (
	"time"
)

// Provenance records how a journal entry originated.
type Provenance string

const (
	SourceManual Provenance = "manual"
	SourceVoice  Provenance = "voice"
	SourcePhoto  Provenance = "photo"
	SourceTextAI Provenance = "text_ai"
	SourcePlan   Provenance = "plan"
)

type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
	Snack     MealSlot = "snack"
)

func ValidMealSlot(s string) bool {
	switch MealSlot(s) {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

type Intensity string

const (
	LowIntensity    Intensity = "low"
	MediumIntensity Intensity = "medium"
	HighIntensity   Intensity = "high"
)

// FoodEntry is an immutable committed meal record. Rows are only ever
// inserted and aggregated, never updated.
type FoodEntry struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Name         string     `json:"name"`
	Calories     int        `json:"calories"`
	ProteinG     float64    `json:"protein_g"`
	FatG         float64    `json:"fat_g"`
	CarbsG       float64    `json:"carbs_g"`
	MealSlot     MealSlot   `json:"meal_slot"`
	Source       Provenance `json:"source"`
	OriginalText string     `json:"original_text,omitempty"`
	FilePath     string     `json:"file_path,omitempty"`
	Confidence   *float64   `json:"confidence,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// WorkoutEntry is an immutable committed workout record.
type WorkoutEntry struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Activity       string     `json:"activity"`
	DurationMin    int        `json:"duration_min"`
	CaloriesBurned int        `json:"calories_burned"`
	Intensity      Intensity  `json:"intensity,omitempty"`
	DistanceKm     *float64   `json:"distance_km,omitempty"`
	Pace           string     `json:"pace,omitempty"`
	Source         Provenance `json:"source"`
	OriginalText   string     `json:"original_text,omitempty"`
	Confidence     *float64   `json:"confidence,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// InteractionKind classifies what an AI call was for.
type InteractionKind string

const (
	FoodAnalysis    InteractionKind = "food_analysis"
	WorkoutAnalysis InteractionKind = "workout_analysis"
	Consultation    InteractionKind = "consultation"
)

// InputKind is the raw shape of what the user sent.
type InputKind string

const (
	VoiceInput InputKind = "voice"
	PhotoInput InputKind = "photo"
	TextInput  InputKind = "text"
)

// InteractionLog is the audit record for one AI extraction call. When the
// call produced a journal entry, CreatedEntryKind/CreatedEntryID point at
// it; both are written in the same transaction as the entry itself.
type InteractionLog struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	Kind             InteractionKind `json:"kind"`
	InputKind        InputKind       `json:"input_kind"`
	InputText        string          `json:"input_text,omitempty"`
	InputFilePath    string          `json:"input_file_path,omitempty"`
	RawResponse      string          `json:"raw_response"`
	Model            string          `json:"model"`
	Confidence       *float64        `json:"confidence,omitempty"`
	CreatedEntryKind string          `json:"created_entry_kind,omitempty"`
	CreatedEntryID   *int64          `json:"created_entry_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// FoodCandidate is the AI's structured guess for a meal, not yet validated
// or committed.
type FoodCandidate struct {
	Name        string   `json:"food_name"`
	Calories    int      `json:"calories"`
	ProteinG    float64  `json:"protein"`
	FatG        float64  `json:"fats"`
	CarbsG      float64  `json:"carbs"`
	MealSlot    MealSlot `json:"meal_type"`
	Confidence  *float64 `json:"confidence"`
	Notes       string   `json:"notes"`
	Items       []string `json:"items,omitempty"`
	PortionSize string   `json:"portion_size,omitempty"`
}

// WorkoutCandidate is the AI's structured guess for a workout. A duration
// of 0 means the provider could not determine it, not an error.
type WorkoutCandidate struct {
	Activity       string    `json:"workout_type"`
	DurationMin    int       `json:"duration"`
	CaloriesBurned int       `json:"calories_burned"`
	Intensity      Intensity `json:"intensity"`
	DistanceKm     *float64  `json:"distance"`
	Pace           string    `json:"pace"`
	Notes          string    `json:"notes"`
	Confidence     *float64  `json:"confidence"`
}

// UserProfile is the collaborator-owned profile, consumed read-only.
// DayStartOverride, when set and later than the last midnight, replaces
// midnight as the start of the current accounting day.
type UserProfile struct {
	UserID           int64
	DailyTarget      int
	Goal             string
	DayStartOverride *time.Time
}

// WorkoutStats aggregates workouts over a window.
type WorkoutStats struct {
	Count            int `json:"count"`
	TotalDurationMin int `json:"total_duration_min"`
	TotalBurned      int `json:"total_burned"`
}

// FoodStats aggregates food entries over a window.
type FoodStats struct {
	Meals       int `json:"meals"`
	AvgCalories int `json:"avg_calories"`
}
