package sqlite

import (
	"fmt"
	"path/filepath"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/config"
	"github.com/cristianoliveira/confluence-cli/internal/storage"
)

const historyDBFileName = "history.db"

// DBPath returns the history database location under state_dir.
func DBPath() string {
	return filepath.Join(config.Get("state_dir", ""), historyDBFileName)
}

// NewFromConfig opens the history database under state_dir.
func NewFromConfig() (*SQLiteStorage, error) {
	path := DBPath()
	s, err := NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	colors.Debug("history database: " + path)
	return s, nil
}

// OpenOrNop opens the history database and falls back to storage.Nop with a
// warning, so publishing never fails because of local bookkeeping.
func OpenOrNop() storage.Storage {
	s, err := NewFromConfig()
	if err != nil {
		colors.Warning(fmt.Sprintf("history disabled: %v", err))
		return storage.Nop{}
	}
	return s
}
