// internal/server/tools.go
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
)

type toolHandler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type SendTextParams struct {
	UserID int64  `json:"user_id" description:"Telegram-style numeric user id"`
	Text   string `json:"text" description:"The user's message text"`
}

type SendMediaParams struct {
	UserID int64  `json:"user_id" description:"Telegram-style numeric user id"`
	Data   string `json:"data" description:"Base64-encoded media payload"`
}

type UserParams struct {
	UserID int64 `json:"user_id" description:"Telegram-style numeric user id"`
}

type ConfirmParams struct {
	UserID int64  `json:"user_id" description:"Telegram-style numeric user id"`
	Token  string `json:"token,omitempty" description:"Candidate token from the staging response; a mismatch is rejected as stale"`
}

// extractParams decodes the request arguments into target.
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("unmarshal parameters: %w", err)
	}
	return nil
}

func (s *FitbudServer) tools() map[string]toolHandler {
	return map[string]toolHandler{
		"send_text":       s.handleSendText,
		"send_voice":      s.handleSendVoice,
		"send_photo":      s.handleSendPhoto,
		"confirm_food":    s.handleConfirmFood,
		"confirm_workout": s.handleConfirmWorkout,
		"edit_food":       s.handleEditFood,
		"edit_workout":    s.handleEditWorkout,
		"cancel":          s.handleCancel,
		"get_stats":       s.handleGetStats,
	}
}

func (s *FitbudServer) handleSendText(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SendTextParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	if params.Text == "" {
		return nil, fmt.Errorf("text is required")
	}
	return s.createJSONResponse(s.controller.HandleText(ctx, params.UserID, params.Text))
}

func (s *FitbudServer) handleSendVoice(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, audio, err := mediaPayload(req)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.controller.HandleVoice(ctx, params.UserID, audio))
}

func (s *FitbudServer) handleSendPhoto(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, image, err := mediaPayload(req)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.controller.HandlePhoto(ctx, params.UserID, image))
}

func mediaPayload(req *protocol.CallToolRequest) (*SendMediaParams, []byte, error) {
	var params SendMediaParams
	if err := extractParams(req, &params); err != nil {
		return nil, nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.UserID == 0 {
		return nil, nil, fmt.Errorf("user_id is required")
	}
	data, err := base64.StdEncoding.DecodeString(params.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode media payload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("media payload is empty")
	}
	return &params, data, nil
}

func (s *FitbudServer) handleConfirmFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, err := confirmParams(req)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.controller.ConfirmFood(ctx, params.UserID, params.Token))
}

func (s *FitbudServer) handleConfirmWorkout(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, err := confirmParams(req)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.controller.ConfirmWorkout(ctx, params.UserID, params.Token))
}

func (s *FitbudServer) handleEditFood(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, err := userParams(req)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.controller.EditFood(ctx, params.UserID))
}

func (s *FitbudServer) handleEditWorkout(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, err := userParams(req)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.controller.EditWorkout(ctx, params.UserID))
}

func (s *FitbudServer) handleCancel(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, err := userParams(req)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.controller.Cancel(ctx, params.UserID))
}

func (s *FitbudServer) handleGetStats(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	params, err := userParams(req)
	if err != nil {
		return nil, err
	}
	report, err := s.controller.Stats(ctx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("build stats: %w", err)
	}
	return s.createJSONResponse(report)
}

func userParams(req *protocol.CallToolRequest) (*UserParams, error) {
	var params UserParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	return &params, nil
}

func confirmParams(req *protocol.CallToolRequest) (*ConfirmParams, error) {
	var params ConfirmParams
	if err := extractParams(req, &params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if params.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	return &params, nil
}
