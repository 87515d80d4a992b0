package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/internal/format"
	"github.com/cristianoliveira/confluence-cli/internal/version"
)

type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Go      string `json:"go" yaml:"go"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Show the version of the confluence CLI.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := OutputFormat()
		if err != nil {
			return err
		}
		if typ == format.TypeTable {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "confluence %s\n", version.String())
			return err
		}
		return format.Write(cmd.OutOrStdout(), typ, format.Table{Data: versionInfo{
			Version: version.Version,
			Commit:  version.Commit,
			Go:      runtime.Version(),
		}})
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
