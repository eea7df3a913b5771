package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jack/internal/types"
)

// askCmd pushes a single request through the pipeline and exits.
var askCmd = &cobra.Command{
	Use:   "ask [text...]",
	Short: "Handle one request and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := newKernel(cfg)
		if err != nil {
			return err
		}
		defer k.close()

		text := strings.Join(args, " ")
		logger.Info("handling one-shot request", zap.String("text", text))

		var failed bool
		cb := consoleCallbacks()
		onError := cb.OnError
		cb.OnError = func(code, message string) {
			failed = true
			onError(code, message)
		}

		task := k.orchestrator.Handle(cmd.Context(), types.UserInput{ClientID: "oneshot", Text: text}, cb)
		logger.Debug("task finished",
			zap.String("task_id", task.TaskID),
			zap.String("state", string(task.State)))

		if failed {
			return fmt.Errorf("request %s", task.State)
		}
		return nil
	},
}
