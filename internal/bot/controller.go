// internal/bot/controller.go
package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mibgheda/fitbud-bot/internal/ai"
	"github.com/mibgheda/fitbud-bot/internal/classify"
	"github.com/mibgheda/fitbud-bot/internal/models"
	"github.com/mibgheda/fitbud-bot/internal/session"
	"github.com/mibgheda/fitbud-bot/internal/storage"
	"github.com/mibgheda/fitbud-bot/internal/validate"
)

// ErrStaleSession is returned in a rejection when a confirm or edit action
// arrives with no matching pending candidate (restart or supersession).
var ErrStaleSession = errors.New("nothing pending to confirm, please describe the meal or workout again")

// Gateway is the external AI capability the controller drives. One blocking
// round trip per call; failures surface as typed errors and are never
// retried here.
type Gateway interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	ExtractFoodFromText(ctx context.Context, text string, profile *models.UserProfile) (*ai.FoodResult, error)
	ExtractFoodFromImage(ctx context.Context, image []byte, profile *models.UserProfile) (*ai.FoodResult, error)
	ExtractWorkoutFromText(ctx context.Context, text string) (*ai.WorkoutResult, error)
	Recommend(ctx context.Context, question string, profile *models.UserProfile, food *models.FoodStats, workouts *models.WorkoutStats) (string, string, error)
}

// Store is the persistence facade the controller commits through.
type Store interface {
	CommitFood(storage.FoodCommit) (int64, error)
	CommitWorkout(storage.WorkoutCommit) (int64, error)
	LogInteraction(userID int64, kind models.InteractionKind, input models.InputKind, inputText, response, model string) error
	SumCaloriesSince(userID int64, since time.Time) (int, error)
	AggregateWorkouts(userID int64, since time.Time) (models.WorkoutStats, error)
	FoodStatsSince(userID int64, since time.Time) (models.FoodStats, error)
	Profile(userID int64) (*models.UserProfile, error)
}

// Media owns temp files for voice/photo payloads.
type Media interface {
	SaveVoice(userID int64, data []byte) (string, error)
	SavePhoto(userID int64, data []byte) (string, error)
	Remove(path string) error
}

// menuButtons is the presentation layer's reply-keyboard vocabulary; these
// must bypass the state machine untouched.
var menuButtons = map[string]bool{
	"📊 Добавить калории":    true,
	"🏃 Добавить тренировку": true,
	"📈 Моя статистика":      true,
	"👤 Мой профиль":         true,
	"⚖️ Записать вес":        true,
	"❓ Помощь":               true,
}

// Bypasses reports whether text is a command or menu button owned by other
// collaborators.
func Bypasses(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "/") || menuButtons[t]
}

const unrecognizedGuidance = "I did not quite get that. Try:\n" +
	"- describe what you ate: \"Съел борщ и котлету\"\n" +
	"- describe a workout: \"Пробежал 5 км за 30 минут\"\n" +
	"- ask a question: \"Что мне съесть на ужин?\"\n" +
	"- or send a photo of your food"

const askDuration = "How many minutes did the workout last? Send a number from 1 to 600."

// Controller is the conversation state machine. Events for one user are
// serialized by the session store's per-user lock; users are independent.
type Controller struct {
	gateway  Gateway
	store    Store
	sessions *session.Store
	media    Media
}

func NewController(gateway Gateway, store Store, sessions *session.Store, media Media) *Controller {
	return &Controller{
		gateway:  gateway,
		store:    store,
		sessions: sessions,
		media:    media,
	}
}

// HandleText processes a freeform text message according to the current
// conversation state.
func (c *Controller) HandleText(ctx context.Context, userID int64, text string) Outcome {
	if Bypasses(text) {
		return Outcome{Kind: OutcomeIgnored}
	}

	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	switch c.sessions.State(userID) {
	case session.AwaitingWorkoutDuration:
		return c.fillDuration(userID, text)
	case session.AwaitingFoodEdit:
		return c.reextractFood(ctx, userID, text)
	case session.AwaitingWorkoutEdit:
		return c.reextractWorkout(ctx, userID, text)
	}

	switch classify.Classify(text) {
	case classify.Food:
		return c.extractFood(ctx, userID, text, models.SourceTextAI, models.TextInput, "", true)
	case classify.Workout:
		return c.extractWorkout(ctx, userID, text, models.SourceTextAI, models.TextInput)
	case classify.Question:
		return c.consult(ctx, userID, text)
	default:
		return prompt(unrecognizedGuidance)
	}
}

// HandleVoice transcribes the audio and routes the transcript the same way
// a text message would be routed.
func (c *Controller) HandleVoice(ctx context.Context, userID int64, audio []byte) Outcome {
	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	filePath, err := c.media.SaveVoice(userID, audio)
	if err != nil {
		return failure(err)
	}

	transcript, err := c.gateway.Transcribe(ctx, audio, filePath)
	if err != nil {
		c.cleanup(filePath)
		return failure(err)
	}

	switch classify.Classify(transcript) {
	case classify.Food:
		return c.extractFood(ctx, userID, transcript, models.SourceVoice, models.VoiceInput, filePath, true)
	case classify.Workout:
		c.cleanup(filePath)
		return c.extractWorkout(ctx, userID, transcript, models.SourceVoice, models.VoiceInput)
	case classify.Question:
		c.cleanup(filePath)
		return c.consult(ctx, userID, transcript)
	default:
		c.cleanup(filePath)
		return prompt(unrecognizedGuidance)
	}
}

// HandlePhoto runs the vision extraction path. A failed or implausible
// extraction removes the downloaded file.
func (c *Controller) HandlePhoto(ctx context.Context, userID int64, image []byte) Outcome {
	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	filePath, err := c.media.SavePhoto(userID, image)
	if err != nil {
		return failure(err)
	}

	profile, err := c.store.Profile(userID)
	if err != nil {
		c.cleanup(filePath)
		return failure(err)
	}

	res, err := c.gateway.ExtractFoodFromImage(ctx, image, profile)
	if err != nil {
		c.cleanup(filePath)
		return failure(err)
	}
	if v := validate.Food(res.Candidate); v != nil {
		c.cleanup(filePath)
		return rejected(v.Error())
	}

	token := c.sessions.Stage(userID, &session.Pending{
		Food:        res.Candidate,
		Source:      models.SourcePhoto,
		InputKind:   models.PhotoInput,
		FilePath:    filePath,
		RawResponse: res.Raw,
		Model:       res.Model,
	})
	c.sessions.SetState(userID, session.Idle)
	return Outcome{
		Kind:      OutcomeStaged,
		Message:   "Confirm or edit the analyzed meal.",
		Candidate: &CandidateSummary{Token: token, Food: res.Candidate},
	}
}

// ConfirmFood commits the staged food candidate and reports today's running
// total against the target. A non-empty token must match the staged
// candidate's token; a mismatch means the candidate the caller saw was
// superseded.
func (c *Controller) ConfirmFood(ctx context.Context, userID int64, token string) Outcome {
	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	p := c.sessions.Pending(userID)
	if p == nil || p.Food == nil {
		return rejected(ErrStaleSession.Error())
	}
	if token != "" && token != p.Token {
		return rejected(ErrStaleSession.Error())
	}

	entryID, err := c.store.CommitFood(storage.FoodCommit{
		UserID:       userID,
		Candidate:    p.Food,
		Source:       p.Source,
		InputKind:    p.InputKind,
		OriginalText: p.OriginalText,
		FilePath:     p.FilePath,
		RawResponse:  p.RawResponse,
		Model:        p.Model,
	})
	if err != nil {
		// Pending stays; the user may retry the confirmation.
		return failure(err)
	}

	summary := &CommitSummary{EntryKind: "food", EntryID: entryID, Food: p.Food}
	if profile, err := c.store.Profile(userID); err == nil {
		if total, err := c.store.SumCaloriesSince(userID, storage.TodayStart(profile, time.Now())); err == nil {
			summary.TodayCalories = total
			summary.DailyTarget = profile.DailyTarget
			summary.Remaining = profile.DailyTarget - total
		}
	}

	c.sessions.Clear(userID)
	return Outcome{Kind: OutcomeCommitted, Committed: summary}
}

// ConfirmWorkout commits the staged workout candidate and reports the last
// seven days of training. Token semantics match ConfirmFood.
func (c *Controller) ConfirmWorkout(ctx context.Context, userID int64, token string) Outcome {
	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	// A candidate parked for the duration turn is incomplete and was never
	// offered for confirmation; keep asking for the minutes.
	if c.sessions.State(userID) == session.AwaitingWorkoutDuration {
		return prompt(askDuration)
	}

	p := c.sessions.Pending(userID)
	if p == nil || p.Workout == nil || p.Workout.DurationMin == 0 {
		return rejected(ErrStaleSession.Error())
	}
	if token != "" && token != p.Token {
		return rejected(ErrStaleSession.Error())
	}

	entryID, err := c.store.CommitWorkout(storage.WorkoutCommit{
		UserID:       userID,
		Candidate:    p.Workout,
		Source:       p.Source,
		InputKind:    p.InputKind,
		OriginalText: p.OriginalText,
		RawResponse:  p.RawResponse,
		Model:        p.Model,
	})
	if err != nil {
		return failure(err)
	}

	summary := &CommitSummary{EntryKind: "workout", EntryID: entryID, Workout: p.Workout}
	if stats, err := c.store.AggregateWorkouts(userID, time.Now().AddDate(0, 0, -7)); err == nil {
		summary.WeekWorkouts = &stats
	}

	c.sessions.Clear(userID)
	return Outcome{Kind: OutcomeCommitted, Committed: summary}
}

// EditFood switches to the food-edit state; the candidate's provenance and
// any file reference survive for the re-extraction.
func (c *Controller) EditFood(ctx context.Context, userID int64) Outcome {
	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	p := c.sessions.Pending(userID)
	if p == nil || p.Food == nil {
		return rejected(ErrStaleSession.Error())
	}
	c.sessions.SetState(userID, session.AwaitingFoodEdit)
	return prompt("Send the corrected meal description.")
}

func (c *Controller) EditWorkout(ctx context.Context, userID int64) Outcome {
	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	p := c.sessions.Pending(userID)
	if p == nil || p.Workout == nil {
		return rejected(ErrStaleSession.Error())
	}
	c.sessions.SetState(userID, session.AwaitingWorkoutEdit)
	return prompt("Send the corrected workout description.")
}

// Cancel drops whatever is pending.
func (c *Controller) Cancel(ctx context.Context, userID int64) Outcome {
	c.sessions.Lock(userID)
	defer c.sessions.Unlock(userID)

	c.sessions.Clear(userID)
	return prompt("Cancelled.")
}

// Stats answers an explicit stats request: today's total against the
// target plus 7-day food and workout aggregates.
func (c *Controller) Stats(ctx context.Context, userID int64) (*StatsReport, error) {
	profile, err := c.store.Profile(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	today, err := c.store.SumCaloriesSince(userID, storage.TodayStart(profile, now))
	if err != nil {
		return nil, err
	}
	weekFood, err := c.store.FoodStatsSince(userID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	weekWorkouts, err := c.store.AggregateWorkouts(userID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	return &StatsReport{
		TodayCalories: today,
		DailyTarget:   profile.DailyTarget,
		Remaining:     profile.DailyTarget - today,
		WeekFood:      weekFood,
		WeekWorkouts:  weekWorkouts,
	}, nil
}

// extractFood runs the text extraction path. ownsFile says whether filePath
// was created for this attempt: on failure only an owned file is removed,
// since a carried-forward file still belongs to the surviving pending
// candidate. A validation rejection removes the file either way, because
// the candidate referencing it is dropped.
func (c *Controller) extractFood(ctx context.Context, userID int64, text string, source models.Provenance, input models.InputKind, filePath string, ownsFile bool) Outcome {
	profile, err := c.store.Profile(userID)
	if err != nil {
		if ownsFile {
			c.cleanup(filePath)
		}
		return failure(err)
	}
	res, err := c.gateway.ExtractFoodFromText(ctx, text, profile)
	if err != nil {
		if ownsFile {
			c.cleanup(filePath)
		}
		return failure(err)
	}
	if v := validate.Food(res.Candidate); v != nil {
		c.cleanup(filePath)
		return rejected(v.Error())
	}

	token := c.sessions.Stage(userID, &session.Pending{
		Food:         res.Candidate,
		Source:       source,
		InputKind:    input,
		FilePath:     filePath,
		OriginalText: text,
		RawResponse:  res.Raw,
		Model:        res.Model,
	})
	c.sessions.SetState(userID, session.Idle)
	return Outcome{
		Kind:      OutcomeStaged,
		Message:   "Confirm or edit the analyzed meal.",
		Candidate: &CandidateSummary{Token: token, Food: res.Candidate},
	}
}

func (c *Controller) extractWorkout(ctx context.Context, userID int64, text string, source models.Provenance, input models.InputKind) Outcome {
	res, err := c.gateway.ExtractWorkoutFromText(ctx, text)
	if err != nil {
		return failure(err)
	}

	pending := &session.Pending{
		Workout:      res.Candidate,
		Source:       source,
		InputKind:    input,
		OriginalText: text,
		RawResponse:  res.Raw,
		Model:        res.Model,
	}

	// Zero duration is the one path that costs an extra turn: stage the
	// partial candidate and ask for minutes before offering confirmation.
	if res.Candidate.DurationMin == 0 {
		c.sessions.Stage(userID, pending)
		c.sessions.SetState(userID, session.AwaitingWorkoutDuration)
		return prompt(askDuration)
	}

	if v := validate.Workout(res.Candidate); v != nil {
		return rejected(v.Error())
	}
	token := c.sessions.Stage(userID, pending)
	c.sessions.SetState(userID, session.Idle)
	return Outcome{
		Kind:      OutcomeStaged,
		Message:   "Confirm or edit the analyzed workout.",
		Candidate: &CandidateSummary{Token: token, Workout: res.Candidate},
	}
}

// fillDuration completes a workout candidate whose duration the extractor
// could not determine. Out-of-range or non-numeric input re-prompts without
// touching state.
func (c *Controller) fillDuration(userID int64, text string) Outcome {
	minutes, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || minutes < 1 || minutes > validate.MaxDurationMin {
		return prompt(askDuration)
	}

	p := c.sessions.Pending(userID)
	if p == nil || p.Workout == nil {
		c.sessions.Clear(userID)
		return rejected(ErrStaleSession.Error())
	}

	p.Workout.DurationMin = minutes
	if p.Workout.CaloriesBurned == 0 {
		p.Workout.CaloriesBurned = minutes * 5
	}
	if v := validate.Workout(p.Workout); v != nil {
		c.sessions.Clear(userID)
		return rejected(v.Error())
	}

	token := c.sessions.Stage(userID, p)
	c.sessions.SetState(userID, session.Idle)
	return Outcome{
		Kind:      OutcomeStaged,
		Message:   "Confirm or edit the analyzed workout.",
		Candidate: &CandidateSummary{Token: token, Workout: p.Workout},
	}
}

// reextractFood re-runs extraction on the corrected description, keeping
// the original provenance and file reference. Validation always runs again;
// a previously rejected candidate is never silently re-accepted.
func (c *Controller) reextractFood(ctx context.Context, userID int64, text string) Outcome {
	p := c.sessions.Pending(userID)
	if p == nil || p.Food == nil {
		c.sessions.Clear(userID)
		return rejected(ErrStaleSession.Error())
	}
	out := c.extractFood(ctx, userID, text, p.Source, p.InputKind, p.FilePath, false)
	if out.Kind == OutcomeRejected {
		c.sessions.Clear(userID)
	}
	return out
}

func (c *Controller) reextractWorkout(ctx context.Context, userID int64, text string) Outcome {
	p := c.sessions.Pending(userID)
	if p == nil || p.Workout == nil {
		c.sessions.Clear(userID)
		return rejected(ErrStaleSession.Error())
	}
	out := c.extractWorkout(ctx, userID, text, p.Source, p.InputKind)
	if out.Kind == OutcomeRejected {
		c.sessions.Clear(userID)
	}
	return out
}

// consult answers a free-form question with profile and recent aggregates
// as context and logs the interaction for the audit trail.
func (c *Controller) consult(ctx context.Context, userID int64, question string) Outcome {
	profile, err := c.store.Profile(userID)
	if err != nil {
		return failure(err)
	}
	week := time.Now().AddDate(0, 0, -7)
	food, _ := c.store.FoodStatsSince(userID, week)
	workouts, _ := c.store.AggregateWorkouts(userID, week)

	answer, model, err := c.gateway.Recommend(ctx, question, profile, &food, &workouts)
	if err != nil {
		return failure(err)
	}
	if err := c.store.LogInteraction(userID, models.Consultation, models.TextInput, question, answer, model); err != nil {
		log.Printf("log consultation for user %d: %v", userID, err)
	}
	return prompt(answer)
}

func (c *Controller) cleanup(filePath string) {
	if filePath == "" {
		return
	}
	if err := c.media.Remove(filePath); err != nil {
		log.Printf("remove media file %s: %v", filePath, err)
	}
}
