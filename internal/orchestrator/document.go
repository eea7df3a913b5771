package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jack/internal/types"
)

// writeDocument materializes a result as a file at the decided
// location and returns its path.
func writeDocument(taskID string, res *types.ExecutionResult, decision types.ModalityDecision) (string, error) {
	if err := os.MkdirAll(decision.Location, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", res.Action, shortID(taskID), docExtension(decision.DocumentType))
	path := filepath.Join(decision.Location, name)

	content, err := renderDocument(res, decision.DocumentType)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

func renderDocument(res *types.ExecutionResult, docType types.DocumentType) (string, error) {
	switch docType {
	case types.DocCode:
		// Plugins that produce code put the source under "code".
		if data, ok := res.Data.(map[string]any); ok {
			if code, ok := data["code"].(string); ok && code != "" {
				return code, nil
			}
		}
		if s, ok := res.Data.(string); ok {
			return s, nil
		}
		return marshalIndented(res.Data)

	case types.DocData:
		return marshalIndented(res.Data)

	default:
		return renderMarkdown(res), nil
	}
}

// renderMarkdown lays out a complex result as a small report: title
// from the action, summary first, then every remaining field.
func renderMarkdown(res *types.ExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", titleFromAction(res.Action))

	data, ok := res.Data.(map[string]any)
	if !ok {
		if res.Data != nil {
			fmt.Fprintf(&b, "%v\n", res.Data)
		}
		return b.String()
	}

	if s, ok := data["summary"].(string); ok && s != "" {
		fmt.Fprintf(&b, "%s\n\n", s)
	}
	keys := make([]string, 0, len(data))
	for key := range data {
		if key != "summary" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := data[key]
		fmt.Fprintf(&b, "## %s\n\n", titleFromAction(key))
		switch v := value.(type) {
		case string:
			fmt.Fprintf(&b, "%s\n\n", v)
		default:
			text, err := marshalIndented(v)
			if err != nil {
				text = fmt.Sprintf("%v", v)
			}
			fmt.Fprintf(&b, "```json\n%s\n```\n\n", text)
		}
	}
	return b.String()
}

func marshalIndented(data any) (string, error) {
	if data == nil {
		return "", nil
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return string(raw), nil
}

func titleFromAction(action string) string {
	words := strings.Split(strings.ReplaceAll(action, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func docExtension(docType types.DocumentType) string {
	switch docType {
	case types.DocCode:
		return ".txt"
	case types.DocData:
		return ".json"
	default:
		return ".md"
	}
}

func shortID(taskID string) string {
	if len(taskID) > 8 {
		return taskID[:8]
	}
	return taskID
}
