package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"axe/internal/errors"
	"axe/internal/logging"
)

func main() {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", map[string]interface{}{
			"error": err.Error(),
		})
		var ee *errors.ExtractError
		if stderrors.As(err, &ee) {
			if hint := errors.Suggest(ee.Code); hint != "" {
				fmt.Fprintf(os.Stderr, "Try: %s\n", hint)
			}
		}
		os.Exit(1)
	}
}
