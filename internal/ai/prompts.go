// internal/ai/prompts.go
package ai

import (
	"fmt"
	"strings"

	"github.com/mibgheda/fitbud-bot/internal/models"
)

const foodSystemPrompt = `You are a precise dietitian-calculator. You respond ONLY with valid JSON.`

const workoutSystemPrompt = `You are a fitness coach analyst. You respond ONLY with valid JSON.`

const advisorSystemPrompt = `You are a personal nutrition and fitness coach with a medical background. ` +
	`Give specific, evidence-based recommendations: numbers, portions, exercises. No generic filler. ` +
	`Answer in the language of the question.`

func profileContext(profile *models.UserProfile) string {
	if profile == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nUser context:\n")
	if profile.Goal != "" {
		fmt.Fprintf(&b, "- Goal: %s\n", profile.Goal)
	}
	if profile.DailyTarget > 0 {
		fmt.Fprintf(&b, "- Daily calorie target: %d kcal\n", profile.DailyTarget)
	}
	return b.String()
}

func foodUserPrompt(text string, profile *models.UserProfile) string {
	return fmt.Sprintf(`Analyze this meal description and return the data as JSON.
%s
Meal description: %q

Return ONLY JSON in this exact format:
{
    "food_name": "name of the dish or product",
    "calories": integer calorie count,
    "protein": grams of protein (number),
    "carbs": grams of carbohydrates (number),
    "fats": grams of fat (number),
    "meal_type": "breakfast/lunch/dinner/snack",
    "confidence": confidence in the estimate 0-1,
    "notes": "additional remarks or warnings"
}

Rules:
- If no portion is given, assume a standard one
- Be as accurate as possible in the math
- Pick meal_type from the time of day or the context
- If unsure, say so in notes`, profileContext(profile), text)
}

func photoUserPrompt(profile *models.UserProfile) string {
	return fmt.Sprintf(`Analyze this photo of food and estimate its contents.%s
Return ONLY JSON in this exact format:
{
    "food_name": "detailed description of everything on the photo",
    "calories": estimated total calories (integer),
    "protein": grams of protein (number),
    "carbs": grams of carbohydrates (number),
    "fats": grams of fat (number),
    "meal_type": "breakfast/lunch/dinner/snack",
    "portion_size": "small/medium/large",
    "confidence": confidence 0-1,
    "items": ["every dish or product visible"],
    "notes": "recommendations or remarks"
}

Be as accurate as possible about portion sizes and calorie counts.`, profileContext(profile))
}

func workoutUserPrompt(text string) string {
	return fmt.Sprintf(`Analyze this workout description and return the data as JSON.

Description: %q

Return ONLY JSON:
{
    "workout_type": "kind of workout (running/gym/cycling/yoga/swimming/other)",
    "duration": duration in minutes (integer, 0 if it cannot be determined),
    "calories_burned": estimated calories burned,
    "intensity": "low/medium/high",
    "distance": distance in km if applicable (or null),
    "pace": pace if applicable (or null),
    "notes": "short summary and recommendations",
    "confidence": confidence 0-1
}

Rules:
- Estimate calories for an average 70 kg body weight
- With little data, fall back to standard metrics
- Be conservative with calorie estimates`, text)
}

func advisorUserPrompt(question string, profile *models.UserProfile, food *models.FoodStats, workouts *models.WorkoutStats) string {
	var b strings.Builder
	b.WriteString("User data:\n")
	if profile != nil {
		if profile.Goal != "" {
			fmt.Fprintf(&b, "- Goal: %s\n", profile.Goal)
		}
		if profile.DailyTarget > 0 {
			fmt.Fprintf(&b, "- Daily calorie target: %d kcal\n", profile.DailyTarget)
		}
	}
	if food != nil {
		fmt.Fprintf(&b, "- Meals in the last 7 days: %d, average %d kcal\n", food.Meals, food.AvgCalories)
	}
	if workouts != nil {
		fmt.Fprintf(&b, "- Workouts in the last 7 days: %d, %d min total, ~%d kcal burned\n",
			workouts.Count, workouts.TotalDurationMin, workouts.TotalBurned)
	}
	fmt.Fprintf(&b, "\nQuestion: %q\n", question)
	b.WriteString("\nGive a practical answer that accounts for progress toward the goal, nutrient balance and fitness level.")
	return b.String()
}
