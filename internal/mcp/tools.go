package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	apperrors "go-video-inspector/internal/errors"
)

const toolNameAnalyzeVideo = "analyze-video"

type toolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type toolCallResult struct {
	Content []toolContentItem `json:"content"`
	IsError bool              `json:"isError,omitempty"`
}

type toolContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

func analyzeVideoTool() toolDefinition {
	return toolDefinition{
		Name: toolNameAnalyzeVideo,
		Description: "Upload a local screen recording of a mobile app bug to the analysis service " +
			"and return a structured report describing what goes wrong in the video.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"videoPath": map[string]any{
					"type":        "string",
					"description": "Absolute path to the video file (mp4, mov, webm, avi, mkv, flv, mpeg, mpg, 3gp, wmv; max 500 MiB)",
				},
				"question": map[string]any{
					"type":        "string",
					"description": "Optional question to focus the analysis on",
				},
			},
			"required": []string{"videoPath"},
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req jsonRPCRequest) *Response {
	var params toolsCallParams
	if len(req.Params) == 0 {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32600, Message: "params is required"},
		}
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32600, Message: "invalid tools/call params"},
		}
	}

	if strings.TrimSpace(params.Name) != toolNameAnalyzeVideo {
		return s.result(req.ID, errorResult(fmt.Sprintf("unknown tool: %s", params.Name)))
	}

	videoPath, err := requiredStringArg(params.Arguments, "videoPath")
	if err != nil {
		return s.result(req.ID, errorResult(err.Error()))
	}
	if !filepath.IsAbs(videoPath) {
		return s.result(req.ID, errorResult(fmt.Sprintf("videoPath must be an absolute path, got %q", videoPath)))
	}
	question, err := optionalStringArg(params.Arguments, "question")
	if err != nil {
		return s.result(req.ID, errorResult(err.Error()))
	}

	// All pipeline failures are caught at this boundary and rendered into
	// the structured error response; nothing propagates as a crash.
	text, err := s.analysis.AnalyzeVideo(ctx, videoPath, question)
	if err != nil {
		s.logger.WithError(err).WithField("video_path", videoPath).Error("Tool invocation failed")
		return s.result(req.ID, errorResult(diagnosis(err)))
	}

	return s.result(req.ID, toolCallResult{
		Content: []toolContentItem{{Type: "text", Text: text}},
	})
}

// diagnosis renders the user-facing message for a pipeline failure.
func diagnosis(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func errorResult(message string) toolCallResult {
	return toolCallResult{
		IsError: true,
		Content: []toolContentItem{
			{Type: "text", Text: "Error: " + message},
		},
	}
}

func requiredStringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return value, nil
}

func optionalStringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return strings.TrimSpace(value), nil
}
