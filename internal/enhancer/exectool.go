package enhancer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// ExecTool runs the image tool as a subprocess:
//
//	<path> edit --json <request>
//
// The call blocks until the tool exits; there is no timeout. Only ctx
// cancellation stops it early.
type ExecTool struct {
	Path string
}

// NewExecTool returns a Tool backed by the executable at path.
func NewExecTool(path string) *ExecTool {
	return &ExecTool{Path: path}
}

// Enhance implements Tool.
func (t *ExecTool) Enhance(ctx context.Context, req ToolRequest) (ToolResult, error) {
	info, err := os.Stat(t.Path)
	if err != nil || info.IsDir() {
		return ToolResult{}, fmt.Errorf("%w at %s", ErrToolMissing, t.Path)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return ToolResult{}, fmt.Errorf("failed to encode tool request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Path, "edit", "--json", string(payload))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().
		Str("tool", t.Path).
		Str("file", req.File).
		Msg("Running image tool")

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ToolResult{}, &ToolCrashedError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return ToolResult{}, fmt.Errorf("failed to run image tool: %w", err)
	}

	log.Debug().
		Str("file", req.File).
		Dur("duration", elapsed).
		Int("stdout_bytes", stdout.Len()).
		Msg("Image tool finished")

	return ParseResponse(stdout.Bytes())
}
