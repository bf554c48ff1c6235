// internal/server/server_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/mibgheda/fitbud-bot/internal/ai"
	"github.com/mibgheda/fitbud-bot/internal/bot"
	"github.com/mibgheda/fitbud-bot/internal/media"
	"github.com/mibgheda/fitbud-bot/internal/models"
	"github.com/mibgheda/fitbud-bot/internal/session"
	"github.com/mibgheda/fitbud-bot/internal/storage"
)

type stubGateway struct{}

func (stubGateway) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	return "Съел борщ", nil
}

func (stubGateway) ExtractFoodFromText(ctx context.Context, text string, profile *models.UserProfile) (*ai.FoodResult, error) {
	return &ai.FoodResult{
		Candidate: &models.FoodCandidate{Name: "борщ", Calories: 280, MealSlot: models.Lunch},
		Raw:       `{}`,
		Model:     "stub",
	}, nil
}

func (stubGateway) ExtractFoodFromImage(ctx context.Context, image []byte, profile *models.UserProfile) (*ai.FoodResult, error) {
	return &ai.FoodResult{
		Candidate: &models.FoodCandidate{Name: "паста", Calories: 600, MealSlot: models.Dinner},
		Raw:       `{}`,
		Model:     "stub",
	}, nil
}

func (stubGateway) ExtractWorkoutFromText(ctx context.Context, text string) (*ai.WorkoutResult, error) {
	return &ai.WorkoutResult{
		Candidate: &models.WorkoutCandidate{Activity: "running", DurationMin: 30, CaloriesBurned: 150},
		Raw:       `{}`,
		Model:     "stub",
	}, nil
}

func (stubGateway) Recommend(ctx context.Context, question string, profile *models.UserProfile, food *models.FoodStats, workouts *models.WorkoutStats) (string, string, error) {
	return "Пей больше воды.", "stub", nil
}

func newTestServer(t *testing.T) *FitbudServer {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "fitbud.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ms, err := media.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	sessions := session.NewStore(0)
	t.Cleanup(sessions.Close)

	ctrl := bot.NewController(stubGateway{}, st, sessions, ms)
	srv, err := NewFitbudServer(&Config{Host: "127.0.0.1", Port: 0}, ctrl)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func callTool(t *testing.T, srv *FitbudServer, name string, args map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	srv.handleHTTP(rr, req)
	return rr
}

// toolEnvelope mirrors the CallToolResult wire shape with concrete content
// items, since the protocol type holds an interface slice.
type toolEnvelope struct {
	Content []protocol.TextContent `json:"content"`
}

func decodeText(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var result toolEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("content items = %d, want 1", len(result.Content))
	}
	return result.Content[0].Text
}

func decodeOutcome(t *testing.T, rr *httptest.ResponseRecorder) bot.Outcome {
	t.Helper()
	text := decodeText(t, rr)
	var out bot.Outcome
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("decode outcome %q: %v", text, err)
	}
	return out
}

func TestSendTextRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rr := callTool(t, srv, "send_text", map[string]interface{}{
		"user_id": 1,
		"text":    "Съел овсянку, 350 калорий",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	out := decodeOutcome(t, rr)
	if out.Kind != bot.OutcomeStaged {
		t.Fatalf("outcome = %+v, want staged", out)
	}
	if out.Candidate == nil || out.Candidate.Food == nil {
		t.Fatalf("candidate missing: %+v", out)
	}

	rr = callTool(t, srv, "confirm_food", map[string]interface{}{"user_id": 1})
	if rr.Code != http.StatusOK {
		t.Fatalf("confirm status = %d", rr.Code)
	}
	if out := decodeOutcome(t, rr); out.Kind != bot.OutcomeCommitted {
		t.Fatalf("confirm outcome = %+v", out)
	}
}

func TestUnknownToolIs404(t *testing.T) {
	srv := newTestServer(t)
	rr := callTool(t, srv, "no_such_tool", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestMissingUserIDRejected(t *testing.T) {
	srv := newTestServer(t)
	for _, name := range []string{"send_text", "confirm_food", "get_stats", "send_photo"} {
		rr := callTool(t, srv, name, map[string]interface{}{"text": "привет", "data": "aGk="})
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("%s: status = %d, want 500", name, rr.Code)
		}
	}
}

func TestBadBase64Rejected(t *testing.T) {
	srv := newTestServer(t)
	rr := callTool(t, srv, "send_photo", map[string]interface{}{
		"user_id": 2,
		"data":    "not-base64!!",
	})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestGetStats(t *testing.T) {
	srv := newTestServer(t)
	rr := callTool(t, srv, "get_stats", map[string]interface{}{"user_id": 3})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var report bot.StatsReport
	if err := json.Unmarshal([]byte(decodeText(t, rr)), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.DailyTarget != 2000 {
		t.Errorf("daily target = %d, want default 2000", report.DailyTarget)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	srv.handleHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}
