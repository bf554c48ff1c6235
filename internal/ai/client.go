// internal/ai/client.go
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/mibgheda/fitbud-bot/internal/models"
)

// ExtractionError is any provider failure: transport error, non-2xx status,
// malformed or incomplete structured output. It is always shown to the user
// and never retried here; the user resubmits.
type ExtractionError struct {
	Op    string
	Cause string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Cause, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TranscriptionError is the speech-to-text flavor of a provider failure.
type TranscriptionError struct {
	Cause string
	Err   error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("transcription: %s", e.Cause)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// FoodResult carries the parsed candidate plus the raw provider output and
// model id for the audit log.
type FoodResult struct {
	Candidate *models.FoodCandidate
	Raw       string
	Model     string
}

type WorkoutResult struct {
	Candidate *models.WorkoutCandidate
	Raw       string
	Model     string
}

type Config struct {
	BaseURL         string
	APIKey          string
	Model           string // extraction model
	AdviceModel     string // free-form consultation model
	TranscribeModel string
	Language        string // language hint for speech-to-text
	Timeout         time.Duration
}

// Client talks to an OpenAI-compatible API. One blocking round-trip per
// operation, no internal retries.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.AdviceModel == "" {
		cfg.AdviceModel = "gpt-4o"
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = "whisper-1"
	}
	if cfg.Language == "" {
		cfg.Language = "ru"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// Transcribe sends audio bytes to the speech-to-text endpoint and returns
// the plain transcript.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", &TranscriptionError{Cause: "empty audio"}
	}
	if filename == "" {
		filename = "voice.ogg"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", &TranscriptionError{Cause: "build request", Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &TranscriptionError{Cause: "build request", Err: err}
	}
	w.WriteField("model", c.cfg.TranscribeModel)
	w.WriteField("language", c.cfg.Language)
	if err := w.Close(); err != nil {
		return "", &TranscriptionError{Cause: "build request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", &TranscriptionError{Cause: "build request", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranscriptionError{Cause: "provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &TranscriptionError{Cause: fmt.Sprintf("status %d: %s", resp.StatusCode, string(msg))}
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &TranscriptionError{Cause: "malformed response", Err: err}
	}
	if out.Text == "" {
		return "", &TranscriptionError{Cause: "empty transcript"}
	}
	return out.Text, nil
}

// ExtractFoodFromText asks the model for a structured meal breakdown.
func (c *Client) ExtractFoodFromText(ctx context.Context, text string, profile *models.UserProfile) (*FoodResult, error) {
	content, err := c.chat(ctx, "extract food", chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: foodSystemPrompt},
			{Role: "user", Content: foodUserPrompt(text, profile)},
		},
		Temperature:    0.3,
		ResponseFormat: jsonObjectFormat(),
	})
	if err != nil {
		return nil, err
	}
	candidate, err := parseFoodCandidate(content)
	if err != nil {
		return nil, err
	}
	return &FoodResult{Candidate: candidate, Raw: content, Model: c.cfg.Model}, nil
}

// ExtractFoodFromImage sends a photo through the vision path. The response
// additionally carries an item list and a portion-size label.
func (c *Client) ExtractFoodFromImage(ctx context.Context, image []byte, profile *models.UserProfile) (*FoodResult, error) {
	if len(image) == 0 {
		return nil, &ExtractionError{Op: "extract food from image", Cause: "empty image"}
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	content, err := c.chat(ctx, "extract food from image", chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: photoUserPrompt(profile)},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			}},
		},
		Temperature:    0.3,
		ResponseFormat: jsonObjectFormat(),
	})
	if err != nil {
		return nil, err
	}
	candidate, err := parseFoodCandidate(content)
	if err != nil {
		return nil, err
	}
	return &FoodResult{Candidate: candidate, Raw: content, Model: c.cfg.Model}, nil
}

// ExtractWorkoutFromText asks the model for a structured workout breakdown.
// A duration of 0 in the result is a valid "undetermined" signal.
func (c *Client) ExtractWorkoutFromText(ctx context.Context, text string) (*WorkoutResult, error) {
	content, err := c.chat(ctx, "extract workout", chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: workoutSystemPrompt},
			{Role: "user", Content: workoutUserPrompt(text)},
		},
		Temperature:    0.3,
		ResponseFormat: jsonObjectFormat(),
	})
	if err != nil {
		return nil, err
	}
	candidate, err := parseWorkoutCandidate(content)
	if err != nil {
		return nil, err
	}
	return &WorkoutResult{Candidate: candidate, Raw: content, Model: c.cfg.Model}, nil
}

// Recommend answers a free-form coaching question using the profile and
// recent aggregates as context. Plain text out, no JSON contract.
func (c *Client) Recommend(ctx context.Context, question string, profile *models.UserProfile, food *models.FoodStats, workouts *models.WorkoutStats) (string, string, error) {
	content, err := c.chat(ctx, "recommend", chatRequest{
		Model: c.cfg.AdviceModel,
		Messages: []chatMessage{
			{Role: "system", Content: advisorSystemPrompt},
			{Role: "user", Content: advisorUserPrompt(question, profile, food, workouts)},
		},
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		return "", "", err
	}
	return content, c.cfg.AdviceModel, nil
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat json.RawMessage `json:"response_format,omitempty"`
}

func jsonObjectFormat() json.RawMessage {
	return json.RawMessage(`{"type":"json_object"}`)
}

// chat performs one chat-completion round trip and returns the assistant
// message content.
func (c *Client) chat(ctx context.Context, op string, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ExtractionError{Op: op, Cause: "build request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &ExtractionError{Op: op, Cause: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ExtractionError{Op: op, Cause: "provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ExtractionError{Op: op, Cause: fmt.Sprintf("status %d: %s", resp.StatusCode, string(msg))}
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ExtractionError{Op: op, Cause: "malformed response", Err: err}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", &ExtractionError{Op: op, Cause: "no completion returned"}
	}
	return out.Choices[0].Message.Content, nil
}
