package main

import (
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/llm"
	"github.com/cristianoliveira/confluence-cli/internal/opener"
	"github.com/cristianoliveira/confluence-cli/internal/storage"
	"github.com/cristianoliveira/confluence-cli/internal/storage/sqlite"
)

// clientFactory builds the gateway once configuration has been loaded.
type clientFactory func() (confluence.Client, error)

// historyFactory opens the local publish history.
type historyFactory func() storage.Storage

func newClient() (confluence.Client, error) {
	c, err := confluence.NewFromConfig()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newOpener() opener.Opener {
	return opener.NewDefaultOpener(opener.WithEditor(config.Get("editor", "")))
}

func openHistory() storage.Storage {
	return sqlite.OpenOrNop()
}

func newLLM() (llm.Client, error) {
	return llm.New(llm.SettingsFromConfig())
}

// spaceKeyOr returns flag when set, else default_space_key.
func spaceKeyOr(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return config.Require("default_space_key")
}
