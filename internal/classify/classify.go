// internal/classify/classify.go
package classify

import (
	"strings"
)

// Kind is the routing decision for a freeform message. No AI call happens
// here; classification only picks which extraction prompt to use.
type Kind int

const (
	Unrecognized Kind = iota
	Food
	Workout
	Question
)

func (k Kind) String() string {
	switch k {
	case Food:
		return "food"
	case Workout:
		return "workout"
	case Question:
		return "question"
	}
	return "unrecognized"
}

// Keyword vocabularies. Matching is substring containment on the
// lower-cased text, so word stems cover their inflections
// ("калори" matches "калории", "калорий", ...).
var foodKeywords = []string{
	"съел", "съела", "поел", "поела", "перекусил", "позавтракал", "пообедал", "поужинал",
	"завтрак", "обед", "ужин", "перекус", "калори", "еда", "блюдо", "порци",
	"каша", "суп", "борщ", "салат", "котлет", "курица", "рыба", "творог", "йогурт",
	"ate", "eaten", "breakfast", "lunch", "dinner", "snack", "meal", "calorie",
	"sandwich", "salad", "pizza", "burger", "pasta", "oatmeal", "yogurt",
}

var workoutKeywords = []string{
	"тренировка", "тренировался", "тренировалась", "пробежал", "пробежала", "пробежка",
	"зал", "качалка", "бег", "бегал", "плавал", "плавание", "йога", "велосипед",
	"отжимани", "приседани", "подтягивани", "штанга", "гантел", "кардио", "растяжка",
	"workout", "trained", "training", "ran", "running", "jog", "gym", "swim",
	"yoga", "cycling", "pushup", "squat", "deadlift", "cardio", "pilates", "hiit",
}

var questionKeywords = []string{
	"что", "как", "почему", "сколько", "посоветуй", "рекомендуй", "помоги", "скажи",
	"what", "how", "why", "should", "recommend", "advise", "help", "tell me",
	"?",
}

// Classify routes text to food, workout, question or unrecognized.
// Precedence on multiple matches: food, then workout, then question.
// Empty or whitespace-only text is unrecognized without further checks.
func Classify(text string) Kind {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Unrecognized
	}
	if containsAny(t, foodKeywords) {
		return Food
	}
	if containsAny(t, workoutKeywords) {
		return Workout
	}
	if containsAny(t, questionKeywords) {
		return Question
	}
	return Unrecognized
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
