package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"jack/internal/config"
	"jack/internal/executor"
	"jack/internal/memory"
	"jack/internal/nlp"
	"jack/internal/orchestrator"
	"jack/internal/parser"
	"jack/internal/plugin"
	"jack/internal/plugin/builtin"
	"jack/internal/types"
)

// kernel is the wired pipeline plus the resources it owns.
type kernel struct {
	store        *memory.Store
	manager      *memory.Manager
	registry     *plugin.Registry
	orchestrator *orchestrator.Orchestrator
}

// newKernel wires the full pipeline from config: store, context
// manager, plugin registry with the builtins, Gemini client, parser,
// executor, orchestrator.
func newKernel(cfg *config.Config) (*kernel, error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Memory.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(home, "memory.db")
	}
	store, err := memory.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	manager := memory.NewManager(store,
		memory.WithRecentCap(cfg.Memory.RecentIntentCap),
		memory.WithRecentTTL(cfg.Memory.TTLDuration()),
	)

	registry := plugin.NewRegistry()
	registry.MustRegister(builtin.NewClockPlugin())
	registry.MustRegister(builtin.NewMathPlugin())
	registry.MustRegister(builtin.NewMemoryPlugin(store))

	client := nlp.NewGeminiClientWithConfig(nlp.GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Timeout:         cfg.LLM.TimeoutDuration(),
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})

	return &kernel{
		store:        store,
		manager:      manager,
		registry:     registry,
		orchestrator: orchestrator.New(
			parser.New(client),
			executor.New(registry),
			manager,
		),
	}, nil
}

func (k *kernel) close() {
	if k.store != nil {
		_ = k.store.Close()
	}
}

// runInteractive reads lines from stdin and pushes each through the
// pipeline, printing speech, document, clarification, and error
// callbacks as they arrive.
func runInteractive() error {
	k, err := newKernel(cfg)
	if err != nil {
		return err
	}
	defer k.close()

	const clientID = "local"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		k.orchestrator.Interrupt(clientID)
		cancel()
	}()

	fmt.Println("JACK ready. Type a request, or 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		task := k.orchestrator.Handle(ctx, types.UserInput{ClientID: clientID, Text: line}, consoleCallbacks())
		logger.Debug("task finished",
			zap.String("task_id", task.TaskID),
			zap.String("state", string(task.State)))

		if ctx.Err() != nil {
			break
		}
	}
	k.manager.ClearClient(clientID)
	return scanner.Err()
}

func consoleCallbacks() types.Callbacks {
	return types.Callbacks{
		OnAck: func(text string) {
			fmt.Println(text)
		},
		OnSpeech: func(text string) {
			fmt.Println(text)
		},
		OnDocument: func(path string, docType types.DocumentType) {
			fmt.Printf("Saved %s document: %s\n", docType, path)
		},
		OnClarify: func(question string, options []string) {
			fmt.Println(question)
			for i, opt := range options {
				fmt.Printf("  %d. %s\n", i+1, opt)
			}
		},
		OnError: func(code, message string) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", code, message)
		},
	}
}
