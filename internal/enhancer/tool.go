package enhancer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ToolRequest is the JSON payload handed to the image tool.
type ToolRequest struct {
	File   string `json:"file"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

// ToolResponse is the JSON document the image tool prints on stdout.
type ToolResponse struct {
	OK    bool              `json:"ok"`
	Data  *ToolResponseData `json:"data,omitempty"`
	Error string            `json:"error,omitempty"`
}

// ToolResponseData is the payload of a successful response.
type ToolResponseData struct {
	// Image is a temporary file the tool wrote; the caller takes ownership.
	Image string `json:"image"`
}

// ToolResult is a successful enhancement.
type ToolResult struct {
	Image string
}

// Tool performs one enhancement. Implementations return ErrToolMissing,
// *ToolCrashedError, *MalformedOutputError or *ToolReportedError for the
// failures the batch distinguishes; any other error is unexpected.
type Tool interface {
	Enhance(ctx context.Context, req ToolRequest) (ToolResult, error)
}

// ErrToolMissing means the tool executable is not at its configured path.
var ErrToolMissing = errors.New("image tool not found")

// ToolCrashedError is a non-zero exit from the tool.
type ToolCrashedError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolCrashedError) Error() string {
	return fmt.Sprintf("image tool exited with status %d: %s", e.ExitCode, e.Stderr)
}

// MalformedOutputError means the tool exited 0 but stdout was not a JSON object.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("invalid output from image tool: %v (output: %s)", e.Err, e.Raw)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// ToolReportedError is a well-formed response with ok=false.
type ToolReportedError struct {
	Message string
}

func (e *ToolReportedError) Error() string {
	return "image tool reported error: " + e.Message
}

// ParseResponse interprets the tool's stdout.
func ParseResponse(stdout []byte) (ToolResult, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ToolResult{}, &MalformedOutputError{Raw: string(stdout), Err: errors.New("not a JSON object")}
	}

	var resp ToolResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return ToolResult{}, &MalformedOutputError{Raw: string(stdout), Err: err}
	}

	if !resp.OK {
		return ToolResult{}, &ToolReportedError{Message: resp.Error}
	}
	if resp.Data == nil || resp.Data.Image == "" {
		return ToolResult{}, errors.New("image tool response is missing data.image")
	}
	return ToolResult{Image: resp.Data.Image}, nil
}
