package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/format"
)

// OutputFormat returns the --format flag, falling back to output_format.
func OutputFormat() (format.Type, error) {
	value := outputFormat
	if value == "" {
		value = config.Get("output_format", string(format.TypeTable))
	}
	return format.ParseType(value)
}

// Print writes t to the command's stdout in the selected output format.
func Print(cmd *cobra.Command, t format.Table) error {
	typ, err := OutputFormat()
	if err != nil {
		return err
	}
	return format.Write(cmd.OutOrStdout(), typ, t)
}
