// internal/storage/sqlite_test.go
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mibgheda/fitbud-bot/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fitbud.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func countRows(t *testing.T, s *Storage, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestCommitFoodWritesEntryAndAuditLogTogether(t *testing.T) {
	s := newTestStorage(t)

	conf := 0.9
	entryID, err := s.CommitFood(FoodCommit{
		UserID: 42,
		Candidate: &models.FoodCandidate{
			Name: "Овсяная каша", Calories: 350, ProteinG: 12, FatG: 8, CarbsG: 60,
			MealSlot: models.Breakfast, Confidence: &conf,
		},
		Source:       models.SourceTextAI,
		InputKind:    models.TextInput,
		OriginalText: "Съел овсянку, 350 калорий",
		RawResponse:  `{"food_name":"Овсяная каша","calories":350}`,
		Model:        "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("commit food: %v", err)
	}
	if entryID == 0 {
		t.Fatal("entry id not assigned")
	}

	if n := countRows(t, s, "calorie_entries"); n != 1 {
		t.Errorf("calorie_entries rows = %d, want 1", n)
	}
	if n := countRows(t, s, "ai_interactions"); n != 1 {
		t.Errorf("ai_interactions rows = %d, want 1", n)
	}

	var kind string
	var linkedID int64
	err = s.db.QueryRow(`SELECT created_entry_type, created_entry_id FROM ai_interactions`).Scan(&kind, &linkedID)
	if err != nil {
		t.Fatalf("read interaction: %v", err)
	}
	if kind != "calorie_entry" || linkedID != entryID {
		t.Errorf("interaction links (%s, %d), want (calorie_entry, %d)", kind, linkedID, entryID)
	}
}

func TestCommitWorkout(t *testing.T) {
	s := newTestStorage(t)

	dist := 5.0
	entryID, err := s.CommitWorkout(WorkoutCommit{
		UserID: 42,
		Candidate: &models.WorkoutCandidate{
			Activity: "running", DurationMin: 30, CaloriesBurned: 150,
			Intensity: models.MediumIntensity, DistanceKm: &dist,
		},
		Source:       models.SourceTextAI,
		InputKind:    models.TextInput,
		OriginalText: "Пробежал 5 км",
		RawResponse:  `{"workout_type":"running"}`,
		Model:        "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("commit workout: %v", err)
	}

	var duration, burned int
	var distance float64
	err = s.db.QueryRow(`SELECT duration, calories_burned, distance FROM workout_entries WHERE id = ?`, entryID).
		Scan(&duration, &burned, &distance)
	if err != nil {
		t.Fatalf("read workout: %v", err)
	}
	if duration != 30 || burned != 150 || distance != 5.0 {
		t.Errorf("stored (%d min, %d kcal, %.1f km)", duration, burned, distance)
	}
	if n := countRows(t, s, "ai_interactions"); n != 1 {
		t.Errorf("ai_interactions rows = %d, want 1", n)
	}
}

func TestSumCaloriesSinceIsScopedByUserAndTime(t *testing.T) {
	s := newTestStorage(t)

	commit := func(userID int64, cal int) {
		t.Helper()
		_, err := s.CommitFood(FoodCommit{
			UserID:    userID,
			Candidate: &models.FoodCandidate{Name: "x", Calories: cal, MealSlot: models.Snack},
			Source:    models.SourceTextAI,
			InputKind: models.TextInput,
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	commit(1, 350)
	commit(1, 200)
	commit(2, 999)

	total, err := s.SumCaloriesSince(1, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != 550 {
		t.Errorf("total = %d, want 550", total)
	}

	future, err := s.SumCaloriesSince(1, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if future != 0 {
		t.Errorf("future-window total = %d, want 0", future)
	}
}

func TestTimeFormatOrdersAcrossWholeSeconds(t *testing.T) {
	whole := time.Date(2025, 3, 10, 1, 2, 16, 0, time.UTC)
	later := whole.Add(923 * time.Millisecond)
	if formatTime(whole) >= formatTime(later) {
		t.Errorf("%q must sort before %q", formatTime(whole), formatTime(later))
	}
	earlier := whole.Add(-100 * time.Millisecond)
	if formatTime(earlier) >= formatTime(whole) {
		t.Errorf("%q must sort before %q", formatTime(earlier), formatTime(whole))
	}
}

func TestSumCaloriesSinceWholeSecondBoundary(t *testing.T) {
	s := newTestStorage(t)

	// A whole-second window start, as TodayStart produces at midnight, must
	// not drop entries committed later within the same second.
	since := time.Now().Truncate(time.Second)
	_, err := s.CommitFood(FoodCommit{
		UserID:    9,
		Candidate: &models.FoodCandidate{Name: "x", Calories: 350, MealSlot: models.Snack},
		Source:    models.SourceTextAI,
		InputKind: models.TextInput,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	total, err := s.SumCaloriesSince(9, since)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != 350 {
		t.Errorf("total = %d, want 350", total)
	}
}

func TestAggregateWorkouts(t *testing.T) {
	s := newTestStorage(t)

	for _, w := range []struct{ dur, burn int }{{30, 150}, {45, 300}} {
		_, err := s.CommitWorkout(WorkoutCommit{
			UserID:    7,
			Candidate: &models.WorkoutCandidate{Activity: "gym", DurationMin: w.dur, CaloriesBurned: w.burn},
			Source:    models.SourceVoice,
			InputKind: models.VoiceInput,
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	stats, err := s.AggregateWorkouts(7, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if stats.Count != 2 || stats.TotalDurationMin != 75 || stats.TotalBurned != 450 {
		t.Errorf("stats = %+v, want {2 75 450}", stats)
	}

	empty, err := s.AggregateWorkouts(8, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("aggregate empty: %v", err)
	}
	if empty.Count != 0 || empty.TotalDurationMin != 0 || empty.TotalBurned != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestProfileDefaultsAndRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	p, err := s.Profile(5)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.DailyTarget != 2000 {
		t.Errorf("default target = %d, want 2000", p.DailyTarget)
	}

	override := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	if err := s.SaveProfile(&models.UserProfile{
		UserID: 5, DailyTarget: 1800, Goal: "lose_weight", DayStartOverride: &override,
	}); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	p, err = s.Profile(5)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.DailyTarget != 1800 || p.Goal != "lose_weight" {
		t.Errorf("profile = %+v", p)
	}
	if p.DayStartOverride == nil || !p.DayStartOverride.Equal(override) {
		t.Errorf("override = %v, want %v", p.DayStartOverride, override)
	}
}

func TestTodayStart(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.Local)
	midnight := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)

	if got := TodayStart(nil, now); !got.Equal(midnight) {
		t.Errorf("no profile: got %v, want midnight", got)
	}

	past := midnight.Add(-5 * time.Hour)
	p := &models.UserProfile{DayStartOverride: &past}
	if got := TodayStart(p, now); !got.Equal(midnight) {
		t.Errorf("stale override: got %v, want midnight", got)
	}

	fresh := midnight.Add(9 * time.Hour)
	p.DayStartOverride = &fresh
	if got := TodayStart(p, now); !got.Equal(fresh) {
		t.Errorf("fresh override: got %v, want %v", got, fresh)
	}
}

func TestLogInteractionWithoutEntry(t *testing.T) {
	s := newTestStorage(t)

	err := s.LogInteraction(3, models.Consultation, models.TextInput, "посоветуй, как питаться", "ешь больше белка", "gpt-4o")
	if err != nil {
		t.Fatalf("log interaction: %v", err)
	}

	var kind string
	var entryID *int64
	if err := s.db.QueryRow(`SELECT interaction_type, created_entry_id FROM ai_interactions`).Scan(&kind, &entryID); err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != "consultation" {
		t.Errorf("kind = %s", kind)
	}
	if entryID != nil {
		t.Errorf("consultation must not link an entry, got %d", *entryID)
	}
}
