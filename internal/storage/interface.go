// Package storage keeps a local history of pages published from this machine.
package storage

import (
	"context"
	"time"
)

// Action is what was done to a page.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Entry is one recorded publish.
type Entry struct {
	ID        int64     `json:"id" yaml:"id"`
	Action    Action    `json:"action" yaml:"action"`
	PageID    string    `json:"page_id" yaml:"page_id"`
	Title     string    `json:"title" yaml:"title"`
	SpaceKey  string    `json:"space_key" yaml:"space_key"`
	ParentID  string    `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
	Version   int       `json:"version" yaml:"version"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Labels    []string  `json:"labels,omitempty" yaml:"labels,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Filter narrows List. Zero values match everything; Limit 0 means no limit.
type Filter struct {
	SpaceKey string
	Action   Action
	Since    time.Time
	Limit    int
}

// Storage defines the history operations.
type Storage interface {
	Record(ctx context.Context, e Entry) (int64, error)
	// List returns entries newest first.
	List(ctx context.Context, f Filter) ([]Entry, error)
	LastForPage(ctx context.Context, pageID string) (Entry, error)
	// Prune deletes entries older than the given number of days and returns
	// how many were (or in dry-run mode would be) removed.
	Prune(ctx context.Context, olderThanDays int, dryRun bool) (int64, error)
	Close() error
}

// Nop discards everything. It stands in when the history database cannot be
// opened so publishing still works.
type Nop struct{}

var _ Storage = Nop{}

func (Nop) Record(context.Context, Entry) (int64, error)       { return 0, nil }
func (Nop) List(context.Context, Filter) ([]Entry, error)      { return nil, nil }
func (Nop) LastForPage(context.Context, string) (Entry, error) { return Entry{}, ErrNotFound }
func (Nop) Prune(context.Context, int, bool) (int64, error)    { return 0, nil }
func (Nop) Close() error                                       { return nil }
