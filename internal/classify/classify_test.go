// internal/classify/classify_test.go
package classify

import (
	"testing"
)

func TestClassifyFood(t *testing.T) {
	cases := []string{
		"Съел овсянку, 350 калорий",
		"на завтрак была каша с бананом",
		"ate a chicken sandwich for lunch",
		"поел борщ и котлету",
	}
	for _, c := range cases {
		if got := Classify(c); got != Food {
			t.Errorf("Classify(%q) = %v, want Food", c, got)
		}
	}
}

func TestClassifyWorkout(t *testing.T) {
	cases := []string{
		"Пробежал 5 км",
		"час в зале, качалка",
		"did a 45 minute yoga session",
		"плавал в бассейне",
	}
	for _, c := range cases {
		if got := Classify(c); got != Workout {
			t.Errorf("Classify(%q) = %v, want Workout", c, got)
		}
	}
}

func TestClassifyQuestion(t *testing.T) {
	cases := []string{
		"посоветуй, как набрать форму",
		"should I eat more protein?",
	}
	for _, c := range cases {
		if got := Classify(c); got != Question {
			t.Errorf("Classify(%q) = %v, want Question", c, got)
		}
	}
}

func TestClassifyFoodWinsOverWorkout(t *testing.T) {
	// Contains both food and workout keywords; food check runs first.
	text := "съел банан после тренировки"
	if got := Classify(text); got != Food {
		t.Errorf("Classify(%q) = %v, want Food", text, got)
	}
}

func TestClassifyUnrecognized(t *testing.T) {
	cases := []string{"", "   ", "\n\t", "asdfgh"}
	for _, c := range cases {
		if got := Classify(c); got != Unrecognized {
			t.Errorf("Classify(%q) = %v, want Unrecognized", c, got)
		}
	}
}
