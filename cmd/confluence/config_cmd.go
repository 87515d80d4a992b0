package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/convert"
	"github.com/cristianoliveira/confluence-cli/internal/format"
	"github.com/cristianoliveira/confluence-cli/internal/llm"
)

// Doctor check outcomes.
const (
	checkOK   = "ok"
	checkWarn = "warn"
	checkFail = "fail"
)

// check is one line of config doctor.
type check struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// NewConfigCmd creates the config command group.
func NewConfigCmd(clients clientFactory) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show and check the configuration",
		Long:  `Show the effective configuration and check it for problems.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			colors.LogInfo(fmt.Sprintf("%s [%s]", config.Path(), config.Profile()))
			return printSettings(c, nil)
		},
	}

	var ping bool
	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check required settings, pandoc and the LLM provider",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			checks := doctorChecks()
			if ping {
				checks = append(checks, pingCheck(c.Context(), clients))
			}
			table := format.Table{
				Columns: []format.Column{{Name: "CHECK"}, {Name: "STATUS"}, {Name: "DETAIL"}},
				Data:    checks,
			}
			failed := 0
			for _, ch := range checks {
				table.AddRow(ch.Name, ch.Status, ch.Detail)
				if ch.Status == checkFail {
					failed++
				}
			}
			if err := cmd.Print(c, table); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("config doctor: %d check(s) failed", failed)
			}
			return nil
		},
	}
	doctorCmd.Flags().BoolVar(&ping, "ping", false, "also fetch the default space homepage to verify the token")

	configCmd.AddCommand(showCmd, doctorCmd)
	return configCmd
}

func doctorChecks() []check {
	var checks []check

	if _, err := os.Stat(config.Path()); err != nil {
		checks = append(checks, check{"config file", checkWarn, config.Path() + " does not exist"})
	} else {
		checks = append(checks, check{"config file", checkOK, fmt.Sprintf("%s [%s]", config.Path(), config.Profile())})
	}

	for _, key := range []string{"base_url", "pat"} {
		if _, err := config.Require(key); err != nil {
			checks = append(checks, check{key, checkFail, "missing; run `confluence auth login`"})
			continue
		}
		checks = append(checks, check{key, checkOK, ""})
	}
	if config.Get("default_space_key", "") == "" {
		checks = append(checks, check{"default_space_key", checkWarn, "not set; pass --space-key to commands"})
	} else {
		checks = append(checks, check{"default_space_key", checkOK, config.Get("default_space_key", "")})
	}

	pandoc := convert.NewPandoc(convert.WithPath(config.Get("pandoc_path", "pandoc")))
	if pandoc.Available() {
		checks = append(checks, check{"pandoc", checkOK, config.Get("pandoc_path", "pandoc")})
	} else {
		checks = append(checks, check{"pandoc", checkWarn, "not found; Markdown is converted with goldmark"})
	}

	settings := llm.SettingsFromConfig()
	switch err := settings.Validate(); {
	case errors.Is(err, llm.ErrNotConfigured):
		checks = append(checks, check{"llm", checkOK, "disabled; author uses templates"})
	case err != nil:
		checks = append(checks, check{"llm", checkWarn, err.Error()})
	default:
		checks = append(checks, check{"llm", checkOK, settings.Provider + ":" + settings.Model})
	}
	return checks
}

func pingCheck(ctx context.Context, clients clientFactory) check {
	space := config.Get("default_space_key", "")
	if space == "" {
		return check{"connection", checkWarn, "skipped; no default_space_key"}
	}
	client, err := clients()
	if err != nil {
		return check{"connection", checkFail, err.Error()}
	}
	home, err := client.SpaceHomepage(ctx, space)
	if err != nil {
		return check{"connection", checkFail, err.Error()}
	}
	return check{"connection", checkOK, fmt.Sprintf("%s homepage: %s", space, home.Title)}
}

func init() {
	cmd.RootCmd.AddCommand(NewConfigCmd(newClient))
}
