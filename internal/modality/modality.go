// Package modality decides how a result is presented: voice, document,
// or both, and for documents where the file should land.
package modality

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jack/internal/types"
)

// Fallback voice lines when a result carries no speakable text.
const (
	fallbackHighlight = "Full details in the document."
	fallbackReady     = "Result ready."
)

// Context carries the optional presentation hints the caller has.
type Context struct {
	// ProjectPath, when set, is where code documents are written
	// instead of the desktop.
	ProjectPath string
}

// Decide maps a result and content type to a presentation decision.
// Pure function: no state, no side effects.
func Decide(result *types.ExecutionResult, contentType types.ContentType, mctx *Context) types.ModalityDecision {
	switch contentType {
	case types.ContentSimpleAnswer:
		return types.ModalityDecision{
			Voice:     true,
			VoiceText: speakable(result),
		}

	case types.ContentComplexResult:
		return types.ModalityDecision{
			Voice:        true,
			VoiceText:    highlight(result),
			Document:     true,
			DocumentType: types.DocMarkdown,
			Location:     desktopDir(),
			AutoOpen:     true,
		}

	case types.ContentCode:
		location := desktopDir()
		if mctx != nil && mctx.ProjectPath != "" {
			location = mctx.ProjectPath
		}
		return types.ModalityDecision{
			Voice:        true,
			VoiceText:    "The code is ready.",
			Document:     true,
			DocumentType: types.DocCode,
			Location:     location,
			AutoOpen:     true,
		}

	case types.ContentData:
		if isLogData(result) {
			return types.ModalityDecision{
				Voice:        true,
				VoiceText:    "Logs are ready.",
				Document:     true,
				DocumentType: types.DocData,
				Location:     logsDir(),
				AutoOpen:     false,
			}
		}
		return types.ModalityDecision{
			Voice:        true,
			VoiceText:    "The data is ready.",
			Document:     true,
			DocumentType: types.DocData,
			Location:     downloadsDir(),
			AutoOpen:     true,
		}

	case types.ContentError:
		return types.ModalityDecision{
			Voice:     true,
			VoiceText: errorText(result),
		}

	default:
		return types.ModalityDecision{
			Voice:     true,
			VoiceText: speakable(result),
		}
	}
}

// speakable picks a voice line out of a result's data. Plugins that
// want a spoken answer put it under "response", "message" or "summary";
// a bare string result is spoken verbatim.
func speakable(result *types.ExecutionResult) string {
	if result == nil || result.Data == nil {
		return fallbackReady
	}
	switch data := result.Data.(type) {
	case string:
		if data != "" {
			return data
		}
	case map[string]any:
		for _, key := range []string{"response", "message", "summary"} {
			if s, ok := data[key].(string); ok && s != "" {
				return s
			}
		}
		if len(data) == 1 {
			for _, v := range data {
				if s, ok := v.(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return fallbackReady
}

// highlight extracts the spoken summary for a complex result:
// data.summary, then data.recommendation, then a fixed fallback.
func highlight(result *types.ExecutionResult) string {
	if result == nil || result.Data == nil {
		return fallbackReady
	}
	if data, ok := result.Data.(map[string]any); ok {
		if s, ok := data["summary"].(string); ok && s != "" {
			return s
		}
		if s, ok := data["recommendation"].(string); ok && s != "" {
			return s
		}
	}
	return fallbackHighlight
}

func errorText(result *types.ExecutionResult) string {
	if result != nil && result.Error != "" {
		return fmt.Sprintf("Something went wrong: %s", result.Error)
	}
	return "Something went wrong."
}

// isLogData reports whether a data result is log output, which lands
// under the app's log directory and is never auto-opened.
func isLogData(result *types.ExecutionResult) bool {
	if result == nil {
		return false
	}
	if strings.Contains(result.Action, "log") {
		return true
	}
	if data, ok := result.Data.(map[string]any); ok {
		if b, ok := data["log"].(bool); ok && b {
			return true
		}
	}
	return false
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func desktopDir() string   { return filepath.Join(homeDir(), "Desktop") }
func downloadsDir() string { return filepath.Join(homeDir(), "Downloads") }
func logsDir() string      { return filepath.Join(homeDir(), ".jack", "logs") }
