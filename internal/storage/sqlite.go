// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mibgheda/fitbud-bot/internal/models"
)

// Storage is the only component of the core that touches durable state.
// Journal entries are insert-only; the paired interaction log is written in
// the same transaction as the entry it documents.
type Storage struct {
	db *sql.DB
}

func Open(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        user_id INTEGER PRIMARY KEY,
        daily_calorie_target INTEGER NOT NULL DEFAULT 2000,
        goal TEXT NOT NULL DEFAULT '',
        day_start_override TEXT
    );

    CREATE TABLE IF NOT EXISTS calorie_entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        food_name TEXT NOT NULL,
        calories INTEGER NOT NULL CHECK(calories >= 0),
        protein REAL NOT NULL DEFAULT 0,
        fats REAL NOT NULL DEFAULT 0,
        carbs REAL NOT NULL DEFAULT 0,
        meal_type TEXT NOT NULL,
        source_type TEXT NOT NULL,
        original_text TEXT,
        file_path TEXT,
        ai_confidence REAL,
        notes TEXT,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS workout_entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        workout_type TEXT NOT NULL,
        duration INTEGER NOT NULL CHECK(duration >= 0),
        calories_burned INTEGER NOT NULL DEFAULT 0,
        intensity TEXT,
        distance REAL,
        pace TEXT,
        source_type TEXT NOT NULL,
        original_text TEXT,
        ai_confidence REAL,
        notes TEXT,
        created_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS ai_interactions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        interaction_type TEXT NOT NULL,
        input_type TEXT,
        input_data TEXT,
        input_file_path TEXT,
        ai_response TEXT,
        ai_model TEXT,
        ai_confidence REAL,
        created_entry_type TEXT,
        created_entry_id INTEGER,
        created_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_calorie_entries_user_created ON calorie_entries(user_id, created_at);
    CREATE INDEX IF NOT EXISTS idx_workout_entries_user_created ON workout_entries(user_id, created_at);
    CREATE INDEX IF NOT EXISTS idx_ai_interactions_user_id ON ai_interactions(user_id);
    CREATE INDEX IF NOT EXISTS idx_ai_interactions_type ON ai_interactions(interaction_type);
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// timeLayout is fixed width, nine fractional digits always present.
// RFC3339Nano trims trailing zeros, which breaks the invariant that string
// comparison of stored timestamps matches chronological order
// ("...T01:02:16Z" sorts after "...T01:02:16.9Z").
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamps are stored as UTC fixed-width text so that string comparison
// in SQL matches chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// FoodCommit is everything needed to persist one confirmed food candidate
// together with its audit record.
type FoodCommit struct {
	UserID       int64
	Candidate    *models.FoodCandidate
	Source       models.Provenance
	InputKind    models.InputKind
	OriginalText string
	FilePath     string
	RawResponse  string
	Model        string
}

// CommitFood inserts the journal entry and its interaction log atomically
// and returns the new entry id.
func (s *Storage) CommitFood(fc FoodCommit) (int64, error) {
	c := fc.Candidate
	now := formatTime(time.Now())

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        INSERT INTO calorie_entries (user_id, food_name, calories, protein, fats, carbs, meal_type, source_type, original_text, file_path, ai_confidence, notes, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fc.UserID, c.Name, c.Calories, c.ProteinG, c.FatG, c.CarbsG, string(c.MealSlot),
		string(fc.Source), fc.OriginalText, fc.FilePath, c.Confidence, c.Notes, now)
	if err != nil {
		return 0, fmt.Errorf("insert food entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve food entry id: %w", err)
	}

	_, err = tx.Exec(`
        INSERT INTO ai_interactions (user_id, interaction_type, input_type, input_data, input_file_path, ai_response, ai_model, ai_confidence, created_entry_type, created_entry_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fc.UserID, string(models.FoodAnalysis), string(fc.InputKind), fc.OriginalText, fc.FilePath,
		fc.RawResponse, fc.Model, c.Confidence, "calorie_entry", entryID, now)
	if err != nil {
		return 0, fmt.Errorf("insert interaction log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit food entry: %w", err)
	}
	return entryID, nil
}

type WorkoutCommit struct {
	UserID       int64
	Candidate    *models.WorkoutCandidate
	Source       models.Provenance
	InputKind    models.InputKind
	OriginalText string
	RawResponse  string
	Model        string
}

// CommitWorkout is the workout counterpart of CommitFood.
func (s *Storage) CommitWorkout(wc WorkoutCommit) (int64, error) {
	c := wc.Candidate
	now := formatTime(time.Now())

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var intensity interface{}
	if c.Intensity != "" {
		intensity = string(c.Intensity)
	}
	res, err := tx.Exec(`
        INSERT INTO workout_entries (user_id, workout_type, duration, calories_burned, intensity, distance, pace, source_type, original_text, ai_confidence, notes, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wc.UserID, c.Activity, c.DurationMin, c.CaloriesBurned, intensity, c.DistanceKm, c.Pace,
		string(wc.Source), wc.OriginalText, c.Confidence, c.Notes, now)
	if err != nil {
		return 0, fmt.Errorf("insert workout entry: %w", err)
	}
	entryID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve workout entry id: %w", err)
	}

	_, err = tx.Exec(`
        INSERT INTO ai_interactions (user_id, interaction_type, input_type, input_data, ai_response, ai_model, ai_confidence, created_entry_type, created_entry_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wc.UserID, string(models.WorkoutAnalysis), string(wc.InputKind), wc.OriginalText,
		wc.RawResponse, wc.Model, c.Confidence, "workout_entry", entryID, now)
	if err != nil {
		return 0, fmt.Errorf("insert interaction log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit workout entry: %w", err)
	}
	return entryID, nil
}

// LogInteraction records an AI call that did not produce a journal entry
// (consultations).
func (s *Storage) LogInteraction(userID int64, kind models.InteractionKind, input models.InputKind, inputText, response, model string) error {
	_, err := s.db.Exec(`
        INSERT INTO ai_interactions (user_id, interaction_type, input_type, input_data, ai_response, ai_model, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, string(kind), string(input), inputText, response, model, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert interaction log: %w", err)
	}
	return nil
}

// RecentInteractions returns the newest audit records for a user, newest
// first.
func (s *Storage) RecentInteractions(userID int64, limit int) ([]models.InteractionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
        SELECT id, user_id, interaction_type, IFNULL(input_type, ''), IFNULL(input_data, ''), IFNULL(input_file_path, ''),
               IFNULL(ai_response, ''), IFNULL(ai_model, ''), ai_confidence, IFNULL(created_entry_type, ''), created_entry_id, created_at
        FROM ai_interactions
        WHERE user_id = ?
        ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var logs []models.InteractionLog
	for rows.Next() {
		var l models.InteractionLog
		var createdAt string
		if err := rows.Scan(&l.ID, &l.UserID, &l.Kind, &l.InputKind, &l.InputText, &l.InputFilePath,
			&l.RawResponse, &l.Model, &l.Confidence, &l.CreatedEntryKind, &l.CreatedEntryID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		if l.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse interaction created_at: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SumCaloriesSince returns the user's total intake since the given instant.
func (s *Storage) SumCaloriesSince(userID int64, since time.Time) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`
        SELECT SUM(calories) FROM calorie_entries
        WHERE user_id = ? AND created_at >= ?`,
		userID, formatTime(since)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum calories: %w", err)
	}
	return int(total.Int64), nil
}

// AggregateWorkouts returns count, total duration and total burn since the
// given instant.
func (s *Storage) AggregateWorkouts(userID int64, since time.Time) (models.WorkoutStats, error) {
	var stats models.WorkoutStats
	var duration, burned sql.NullInt64
	err := s.db.QueryRow(`
        SELECT COUNT(id), SUM(duration), SUM(calories_burned) FROM workout_entries
        WHERE user_id = ? AND created_at >= ?`,
		userID, formatTime(since)).Scan(&stats.Count, &duration, &burned)
	if err != nil {
		return stats, fmt.Errorf("aggregate workouts: %w", err)
	}
	stats.TotalDurationMin = int(duration.Int64)
	stats.TotalBurned = int(burned.Int64)
	return stats, nil
}

// FoodStatsSince returns meal count and average calories per entry since
// the given instant.
func (s *Storage) FoodStatsSince(userID int64, since time.Time) (models.FoodStats, error) {
	var stats models.FoodStats
	var avg sql.NullFloat64
	err := s.db.QueryRow(`
        SELECT COUNT(id), AVG(calories) FROM calorie_entries
        WHERE user_id = ? AND created_at >= ?`,
		userID, formatTime(since)).Scan(&stats.Meals, &avg)
	if err != nil {
		return stats, fmt.Errorf("food stats: %w", err)
	}
	stats.AvgCalories = int(avg.Float64)
	return stats, nil
}

// Profile reads the collaborator-owned profile row. Users without a row get
// the default 2000 kcal target.
func (s *Storage) Profile(userID int64) (*models.UserProfile, error) {
	p := &models.UserProfile{UserID: userID, DailyTarget: 2000}
	var override sql.NullString
	err := s.db.QueryRow(`
        SELECT daily_calorie_target, goal, day_start_override FROM users WHERE user_id = ?`,
		userID).Scan(&p.DailyTarget, &p.Goal, &override)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if override.Valid {
		t, err := time.Parse(timeLayout, override.String)
		if err != nil {
			return nil, fmt.Errorf("parse day start override: %w", err)
		}
		p.DayStartOverride = &t
	}
	return p, nil
}

// SaveProfile upserts a profile row. Profile ownership is a collaborator
// concern; this exists for wiring and tests.
func (s *Storage) SaveProfile(p *models.UserProfile) error {
	var override interface{}
	if p.DayStartOverride != nil {
		override = formatTime(*p.DayStartOverride)
	}
	_, err := s.db.Exec(`
        INSERT INTO users (user_id, daily_calorie_target, goal, day_start_override)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            daily_calorie_target = excluded.daily_calorie_target,
            goal = excluded.goal,
            day_start_override = excluded.day_start_override`,
		p.UserID, p.DailyTarget, p.Goal, override)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// TodayStart computes the start of the user's current accounting day: local
// midnight, unless the profile's day-start override is later than midnight,
// in which case the override wins (the user started a "new day" mid-date).
func TodayStart(p *models.UserProfile, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if p != nil && p.DayStartOverride != nil && p.DayStartOverride.After(midnight) {
		return *p.DayStartOverride
	}
	return midnight
}
