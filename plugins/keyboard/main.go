// Package main is a keyboard plugin. It sends key presses to the focused
// window via AppleScript on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request mirrors plugin.Request.
type Request struct {
	Action   string          `json:"action"`
	ActionID string          `json:"action_id"`
	Config   json.RawMessage `json:"config"`
	Params   json.RawMessage `json:"params"`
}

// Response mirrors plugin.Response.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeyParams selects a key and optional modifiers (command, option, control, shift).
type KeyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	switch req.Action {
	case "press", "keystroke", "shortcut":
		if err := handlePress(req.Params); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("%s failed: %v", req.Action, err)})
			return
		}
	default:
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	writeResponse(Response{Success: true})
}

func parseParams(raw json.RawMessage) (KeyParams, error) {
	var p KeyParams
	if len(raw) == 0 {
		return p, errors.New("key is required")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse params: %w", err)
	}
	if p.Key == "" {
		return p, errors.New("key is required")
	}
	return p, nil
}

func handlePress(raw json.RawMessage) error {
	p, err := parseParams(raw)
	if err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("osascript", "-e", appleScript(p.Key, p.Modifiers))
	case "linux":
		cmd = exec.Command("xdotool", "key", xdoChord(p.Key, p.Modifiers))
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// appleScript builds a System Events keystroke command.
func appleScript(key string, modifiers []string) string {
	var mods []string
	for _, m := range modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(mods, ", "))
}

// xdoChord builds an xdotool key chord such as "ctrl+shift+f".
func xdoChord(key string, modifiers []string) string {
	parts := make([]string, 0, len(modifiers)+1)
	for _, m := range modifiers {
		if xm, ok := xdoModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	return strings.Join(append(parts, key), "+")
}

func writeResponse(resp Response) {
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}
