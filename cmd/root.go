package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	clierrors "github.com/cristianoliveira/confluence-cli/internal/errors"
	"github.com/cristianoliveira/confluence-cli/internal/logging"
	"github.com/cristianoliveira/confluence-cli/internal/version"
)

var (
	configPath   string
	profileName  string
	verbose      bool
	quiet        bool
	outputFormat string
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:               "confluence",
	Short:             "Browse, read and publish Confluence pages from the terminal.",
	Long:              `Browse, read and publish Confluence pages from the terminal.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.ShutdownGlobal()
	},
}

// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	err := RootCmd.Execute()
	clierrors.Report(clierrors.NewDefaultCLIHandler(), "", err)
	return err
}

func init() {
	RootCmd.Version = version.String()
	RootCmd.CompletionOptions.HiddenDefaultCmd = true
	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != RootCmd {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s", strings.TrimSpace(cmd.Long), cmd.UsageString())
			return
		}
		printHelpText(cmd)
	})

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/confluence-cli/config.toml)")
	flags.StringVar(&profileName, "profile", "", "config profile to use (default \"default\")")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only print warnings and errors")
	flags.StringVar(&outputFormat, "format", "", "output format: table, json, yaml")
}

// setup loads the selected profile and wires console output and file logging.
func setup(cmd *cobra.Command, args []string) error {
	config.LoadProfile(configPath, profileName)
	if verbose {
		config.Set("debug", "true")
	}
	if quiet {
		config.Set("quiet", "true")
	}
	colors.SetDebug(config.GetBool("debug", false))
	colors.SetQuiet(config.GetBool("quiet", false))

	if err := logging.InitGlobal(cmd.CommandPath()); err != nil {
		colors.Warning(fmt.Sprintf("file logging disabled: %v", err))
	}
	colors.StructuredDebug("cli", "setup", "completed", nil, "", colors.Fields(
		"command", cmd.CommandPath(),
		"profile", config.Profile(),
		"config", config.Path(),
	))
	return nil
}

func printHelpText(cmd *cobra.Command) {
	commandOrder := []string{
		"auth",
		"config",
		"browse",
		"convert",
		"create",
		"update",
		"author",
		"history",
		"version",
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Name(), found.Short))
	}

	helpText := fmt.Sprintf(`confluence %s

Browse, read and publish Confluence pages from the terminal.

USAGE:
    confluence [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    --config <path>     Config file
    --profile <name>    Config profile
    --format <format>   Output format: table, json, yaml
    -v, --verbose       Print debug output
    -q, --quiet         Only print warnings and errors
    -h, --help          Show help message
`, version.String(), strings.Join(cmdLines, "\n"))
	fmt.Fprint(cmd.OutOrStdout(), helpText)
}
