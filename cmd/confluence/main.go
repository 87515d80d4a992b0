package main

import (
	"os"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
)

func main() {
	colors.StructuredDebug("startup", "main", "started", nil, "", nil)
	if err := cmd.Execute(); err != nil {
		colors.StructuredError("startup", "main", "failed", err, "", nil)
		os.Exit(1)
	}
	colors.StructuredDebug("startup", "main", "completed", nil, "", nil)
}
