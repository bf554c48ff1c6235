// internal/validate/validate.go
package validate

import (
	"fmt"

	"github.com/mibgheda/fitbud-bot/internal/models"
)

// Violation means an extracted candidate failed a plausibility ceiling.
// The extractor is untrusted; a violation blocks staging outright, there is
// no clamping or partial acceptance.
type Violation struct {
	Field  string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("implausible %s: %s", v.Field, v.Reason)
}

const (
	MinCalories    = 1
	MaxCalories    = 5000
	MaxProteinG    = 300
	MaxFatG        = 300
	MaxCarbsG      = 500
	MaxDurationMin = 600
	MaxBurned      = 5000
)

// Food checks a food candidate against hard physiological ceilings.
func Food(c *models.FoodCandidate) *Violation {
	if c.Calories < MinCalories {
		return &Violation{Field: "calories", Reason: "below minimum"}
	}
	if c.Calories > MaxCalories {
		return &Violation{Field: "calories", Reason: fmt.Sprintf("%d kcal is implausible for a single meal", c.Calories)}
	}
	if c.ProteinG > MaxProteinG {
		return &Violation{Field: "protein", Reason: fmt.Sprintf("%.0f g exceeds %d g", c.ProteinG, MaxProteinG)}
	}
	if c.FatG > MaxFatG {
		return &Violation{Field: "fat", Reason: fmt.Sprintf("%.0f g exceeds %d g", c.FatG, MaxFatG)}
	}
	if c.CarbsG > MaxCarbsG {
		return &Violation{Field: "carbs", Reason: fmt.Sprintf("%.0f g exceeds %d g", c.CarbsG, MaxCarbsG)}
	}
	return nil
}

// Workout checks a workout candidate. Duration 0 is the "undetermined"
// signal and passes here; the controller handles it with an extra turn.
func Workout(c *models.WorkoutCandidate) *Violation {
	if c.DurationMin > MaxDurationMin {
		return &Violation{Field: "duration", Reason: fmt.Sprintf("%d minutes exceeds %d", c.DurationMin, MaxDurationMin)}
	}
	if c.CaloriesBurned > MaxBurned {
		return &Violation{Field: "calories_burned", Reason: fmt.Sprintf("%d kcal exceeds %d", c.CaloriesBurned, MaxBurned)}
	}
	return nil
}
