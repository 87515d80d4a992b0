package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/confluence-cli/cmd"
	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/format"
)

// loginFlags map flag names onto the config keys they set.
var loginFlags = []struct {
	flag, key, usage string
	llm              bool
}{
	{"base-url", "base_url", "Confluence base URL, e.g. https://example.atlassian.net/wiki", false},
	{"pat", "pat", "personal access token", false},
	{"default-space-key", "default_space_key", "space used when --space-key is omitted", false},
	{"parent-page-id", "parent_page_id", "default parent page for create", false},
	{"llm-provider", "llm_provider", "LLM provider for author: ollama, openai, none", true},
	{"model", "model", "LLM model name", true},
	{"ollama-base", "ollama_base", "Ollama base URL", true},
	{"api-base", "api_base", "OpenAI compatible API base, e.g. http://localhost:8000/v1", true},
	{"api-key", "api_key", "OpenAI compatible API key", true},
}

// NewAuthCmd creates the auth command group.
func NewAuthCmd(prompts func(c *cobra.Command) prompter) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage credentials",
		Long:  `Store the Confluence URL and token in a config profile.`,
	}

	values := make(map[string]*string, len(loginFlags))
	var configureLLM bool
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Save base URL, token and defaults to the config profile",
		Long: `Save base URL, token and defaults to the config profile selected by --profile.

Values not given as flags are asked for; the token is read without echo.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			p := prompts(c)
			updates := map[string]string{}
			for _, f := range loginFlags {
				if v := strings.TrimSpace(*values[f.flag]); v != "" {
					updates[f.key] = v
				}
			}
			if err := askMissing(p, updates, configureLLM); err != nil {
				return err
			}
			if updates["base_url"] == "" || updates["pat"] == "" {
				return fmt.Errorf("auth login: base URL and token are required")
			}

			path, profile := config.Path(), config.Profile()
			if err := config.Save(path, profile, updates); err != nil {
				return err
			}
			config.LoadProfile(path, profile)
			colors.Success(fmt.Sprintf("Saved profile [%s] to %s", profile, path))
			colors.StructuredInfo("auth", "login", "saved", nil, "", colors.Fields("profile", profile))
			return printSettings(c, savedKeys(updates))
		},
	}

	for _, f := range loginFlags {
		values[f.flag] = loginCmd.Flags().String(f.flag, "", f.usage)
	}
	loginCmd.Flags().BoolVar(&configureLLM, "configure-llm", false, "also ask for the LLM settings")

	authCmd.AddCommand(loginCmd)
	return authCmd
}

func askMissing(p prompter, updates map[string]string, configureLLM bool) error {
	var err error
	if updates["base_url"] == "" {
		if updates["base_url"], err = p.Ask("Confluence base URL", config.Get("base_url", "")); err != nil {
			return err
		}
	}
	if updates["pat"] == "" {
		if updates["pat"], err = p.Secret("Personal access token"); err != nil {
			return err
		}
	}
	if updates["default_space_key"] == "" {
		if updates["default_space_key"], err = p.Ask("Default space key (optional)", config.Get("default_space_key", "")); err != nil {
			return err
		}
	}
	if !configureLLM {
		return nil
	}
	if updates["llm_provider"] == "" {
		if updates["llm_provider"], err = p.Ask("LLM provider (ollama, openai)", config.Get("llm_provider", "ollama")); err != nil {
			return err
		}
	}
	if updates["model"] == "" {
		if updates["model"], err = p.Ask("Model", config.Get("model", "")); err != nil {
			return err
		}
	}
	if strings.HasPrefix(strings.ToLower(updates["llm_provider"]), "openai") {
		if updates["api_base"] == "" {
			if updates["api_base"], err = p.Ask("API base", config.Get("api_base", "")); err != nil {
				return err
			}
		}
		if updates["api_key"] == "" {
			if updates["api_key"], err = p.Secret("API key"); err != nil {
				return err
			}
		}
	}
	return nil
}

func savedKeys(updates map[string]string) map[string]bool {
	keys := make(map[string]bool, len(updates))
	for k, v := range updates {
		if v != "" {
			keys[k] = true
		}
	}
	return keys
}

// printSettings prints the redacted effective configuration, limited to keys
// when it is not nil.
func printSettings(c *cobra.Command, keys map[string]bool) error {
	table := format.Table{Columns: []format.Column{{Name: "KEY"}, {Name: "VALUE"}}}
	data := map[string]string{}
	for _, kv := range config.Redacted() {
		if keys != nil && !keys[kv.Key] {
			continue
		}
		table.AddRow(kv.Key, kv.Value)
		data[kv.Key] = kv.Value
	}
	table.Data = data
	return cmd.Print(c, table)
}

func init() {
	cmd.RootCmd.AddCommand(NewAuthCmd(newLinePrompter))
}
