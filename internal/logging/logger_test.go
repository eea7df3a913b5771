package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeDisabledIsNoOp(t *testing.T) {
	home := t.TempDir()
	if err := Initialize(home, Settings{DebugMode: false}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer CloseAll()

	Orchestrator("should go nowhere")

	if _, err := os.Stat(filepath.Join(home, "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not exist when debug mode is off")
	}
}

func TestInitializeDebugWritesCategoryFiles(t *testing.T) {
	home := t.TempDir()
	if err := Initialize(home, Settings{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer CloseAll()

	Executor("ran %d intents", 2)

	entries, err := os.ReadDir(filepath.Join(home, "logs"))
	if err != nil {
		t.Fatalf("logs dir: %v", err)
	}

	var found bool
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_executor.log") {
			found = true
			data, err := os.ReadFile(filepath.Join(home, "logs", e.Name()))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "ran 2 intents") {
				t.Errorf("log content = %q", data)
			}
		}
	}
	if !found {
		t.Errorf("no executor log file in %v", entries)
	}
}

func TestCategoryFilter(t *testing.T) {
	home := t.TempDir()
	err := Initialize(home, Settings{
		DebugMode:  true,
		Level:      "debug",
		Categories: map[string]bool{"parser": false},
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer CloseAll()

	if IsCategoryEnabled(CategoryParser) {
		t.Error("parser category should be disabled")
	}
	if !IsCategoryEnabled(CategoryExecutor) {
		t.Error("unlisted categories default to enabled")
	}
}
