package enhancer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeScriptTool writes an executable shell script standing in for the
// image tool and returns its path.
func writeScriptTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "image-tool")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRequest() ToolRequest {
	return ToolRequest{File: "/photos/a.jpg", Prompt: "make it pop", Size: "auto"}
}

func TestExecTool_Success(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	tool := writeScriptTool(t, `printf '%s\n%s\n%s\n' "$1" "$2" "$3" > `+argsFile+`
echo '{"ok": true, "data": {"image": "/tmp/x.png"}}'`)

	got, err := NewExecTool(tool).Enhance(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if got.Image != "/tmp/x.png" {
		t.Errorf("Enhance() image = %q, want /tmp/x.png", got.Image)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	args := strings.SplitN(strings.TrimRight(string(data), "\n"), "\n", 3)
	if len(args) != 3 || args[0] != "edit" || args[1] != "--json" {
		t.Fatalf("tool args = %q, want edit --json <request>", args)
	}
	var req ToolRequest
	if err := json.Unmarshal([]byte(args[2]), &req); err != nil {
		t.Fatalf("request arg is not JSON: %v (%s)", err, args[2])
	}
	if req != testRequest() {
		t.Errorf("request = %+v, want %+v", req, testRequest())
	}
}

func TestExecTool_NonZeroExit(t *testing.T) {
	tool := writeScriptTool(t, `echo "model weights missing" >&2
exit 3`)

	_, err := NewExecTool(tool).Enhance(context.Background(), testRequest())

	var crashed *ToolCrashedError
	if !errors.As(err, &crashed) {
		t.Fatalf("Enhance() error = %v, want *ToolCrashedError", err)
	}
	if crashed.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", crashed.ExitCode)
	}
	if !strings.Contains(crashed.Stderr, "model weights missing") {
		t.Errorf("Stderr = %q, want tool diagnostic", crashed.Stderr)
	}
}

func TestExecTool_NotJSON(t *testing.T) {
	tool := writeScriptTool(t, `echo "not json"`)

	_, err := NewExecTool(tool).Enhance(context.Background(), testRequest())

	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("Enhance() error = %v, want *MalformedOutputError", err)
	}
	if !strings.Contains(malformed.Raw, "not json") {
		t.Errorf("Raw = %q, want raw stdout", malformed.Raw)
	}
}

func TestExecTool_ReportedError(t *testing.T) {
	tool := writeScriptTool(t, `echo '{"ok": false, "error": "boom"}'`)

	_, err := NewExecTool(tool).Enhance(context.Background(), testRequest())

	var reported *ToolReportedError
	if !errors.As(err, &reported) {
		t.Fatalf("Enhance() error = %v, want *ToolReportedError", err)
	}
	if reported.Message != "boom" {
		t.Errorf("Message = %q, want boom", reported.Message)
	}
}

func TestExecTool_Missing(t *testing.T) {
	dir := t.TempDir()

	for _, path := range []string{filepath.Join(dir, "image-tool"), dir} {
		_, err := NewExecTool(path).Enhance(context.Background(), testRequest())
		if !errors.Is(err, ErrToolMissing) {
			t.Errorf("Enhance(%s) error = %v, want ErrToolMissing", path, err)
		}
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		stdout    string
		wantImage string
		check     func(error) bool
	}{
		{"success", `{"ok": true, "data": {"image": "/tmp/x.png"}}`, "/tmp/x.png", nil},
		{"success with whitespace", "\n  {\"ok\":true,\"data\":{\"image\":\"/tmp/y.png\"}}\n", "/tmp/y.png", nil},
		{"tool error", `{"ok": false, "error": "boom"}`, "", isType[*ToolReportedError]},
		{"plain text", "not json", "", isType[*MalformedOutputError]},
		{"empty", "", "", isType[*MalformedOutputError]},
		{"json null", "null", "", isType[*MalformedOutputError]},
		{"json array", `[1, 2]`, "", isType[*MalformedOutputError]},
		{"truncated", `{"ok": true, "data": {`, "", isType[*MalformedOutputError]},
		{"ok is not a bool", `{"ok": "yes"}`, "", isType[*MalformedOutputError]},
		{"missing image", `{"ok": true, "data": {}}`, "", isUntyped},
		{"missing data", `{"ok": true}`, "", isUntyped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse([]byte(tt.stdout))
			if tt.check == nil {
				if err != nil {
					t.Fatalf("ParseResponse() error = %v", err)
				}
				if got.Image != tt.wantImage {
					t.Errorf("ParseResponse() image = %q, want %q", got.Image, tt.wantImage)
				}
				return
			}
			if err == nil || !tt.check(err) {
				t.Errorf("ParseResponse() error = %v (%T), wrong kind", err, err)
			}
		})
	}
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// isUntyped matches errors the batch treats as unexpected exceptions.
func isUntyped(err error) bool {
	return !isType[*MalformedOutputError](err) && !isType[*ToolReportedError](err) &&
		!isType[*ToolCrashedError](err) && !errors.Is(err, ErrToolMissing)
}
