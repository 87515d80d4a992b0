// Package publish creates and updates pages from converted Markdown and
// records what it did in the local history.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/cristianoliveira/confluence-cli/internal/confluence"
	"github.com/cristianoliveira/confluence-cli/internal/opener"
	"github.com/cristianoliveira/confluence-cli/internal/storage"
)

// Strategy decides what Create does when the title is already taken.
type Strategy string

const (
	IfExistsFail   Strategy = "fail"
	IfExistsOpen   Strategy = "open"
	IfExistsUpdate Strategy = "update"
	IfExistsSuffix Strategy = "suffix"
)

// Actions reported in Result.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionOpen   = "open"
	ActionDryRun = "dry-run"
)

// maxSuffix is the last " (n)" tried by the suffix strategy.
const maxSuffix = 20

var (
	// ErrExists is returned by the fail strategy.
	ErrExists = errors.New("a page with this title already exists")
	// ErrNoFreeSuffix means every suffixed title up to maxSuffix is taken.
	ErrNoFreeSuffix = errors.New("could not find a free title suffix")
)

// ParseStrategy validates an --if-exists value.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return IfExistsFail, nil
	case IfExistsFail, IfExistsOpen, IfExistsUpdate, IfExistsSuffix:
		return st, nil
	}
	return "", fmt.Errorf("invalid --if-exists value %q: must be one of fail, open, update, suffix", s)
}

// DatedTitle appends " - YYYY-MM-DD" unless noDate is set.
func DatedTitle(prefix string, noDate bool, now time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if noDate {
		return prefix
	}
	return prefix + " - " + now.Format("2006-01-02")
}

// CreateRequest describes a page to publish.
type CreateRequest struct {
	Title          string   `json:"title" yaml:"title"`
	SpaceKey       string   `json:"space" yaml:"space"`
	ParentID       string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	HTML           string   `json:"-" yaml:"-"`
	Labels         []string `json:"labels" yaml:"labels"`
	IfExists       Strategy `json:"strategy" yaml:"strategy"`
	MinorEdit      bool     `json:"minor_edit" yaml:"minor_edit"`
	NotifyWatchers bool     `json:"notify_watchers" yaml:"notify_watchers"`
	Source         string   `json:"source,omitempty" yaml:"source,omitempty"`
	DryRun         bool     `json:"-" yaml:"-"`
}

// UpdateRequest identifies a page by id, or by title within a space and
// optional parent.
type UpdateRequest struct {
	PageID         string   `json:"page_id,omitempty" yaml:"page_id,omitempty"`
	Title          string   `json:"title,omitempty" yaml:"title,omitempty"`
	SpaceKey       string   `json:"space,omitempty" yaml:"space,omitempty"`
	ParentID       string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	NewTitle       string   `json:"new_title,omitempty" yaml:"new_title,omitempty"`
	HTML           string   `json:"-" yaml:"-"`
	Labels         []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	MinorEdit      bool     `json:"minor_edit" yaml:"minor_edit"`
	NotifyWatchers bool     `json:"notify_watchers" yaml:"notify_watchers"`
	Source         string   `json:"source,omitempty" yaml:"source,omitempty"`
	DryRun         bool     `json:"-" yaml:"-"`
}

// Result reports what happened.
type Result struct {
	Action string           `json:"action" yaml:"action"`
	Title  string           `json:"title" yaml:"title"`
	Page   *confluence.Page `json:"page,omitempty" yaml:"page,omitempty"`
	URL    string           `json:"url,omitempty" yaml:"url,omitempty"`
	// Existing is the page that blocked a create.
	Existing *confluence.Page `json:"existing,omitempty" yaml:"existing,omitempty"`
	// LabelErr is set when the page was published but labelling failed.
	LabelErr error `json:"-" yaml:"-"`
}

// Publisher runs create and update flows.
type Publisher struct {
	client  confluence.Client
	history storage.Storage
	opener  opener.Opener
}

// New creates a Publisher. history and op may be nil.
func New(client confluence.Client, history storage.Storage, op opener.Opener) *Publisher {
	if history == nil {
		history = storage.Nop{}
	}
	return &Publisher{client: client, history: history, opener: op}
}

// Create publishes a new page, applying req.IfExists when the title is taken
// under the same parent (or space root).
func (p *Publisher) Create(ctx context.Context, req CreateRequest) (Result, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.SpaceKey) == "" {
		return Result{}, errors.New("title and space key are required")
	}
	if req.IfExists == "" {
		req.IfExists = IfExistsFail
	}
	if req.DryRun {
		return Result{Action: ActionDryRun, Title: req.Title}, nil
	}

	existing, err := p.find(ctx, req.SpaceKey, req.Title, req.ParentID)
	if err != nil {
		return Result{}, err
	}
	if existing == nil {
		return p.create(ctx, req, req.Title)
	}

	link := confluence.URLFor(p.client, existing.Summary())
	res := Result{Title: req.Title, Existing: existing, URL: link}
	switch req.IfExists {
	case IfExistsOpen:
		res.Action = ActionOpen
		if p.opener != nil && link != "" {
			if err := p.opener.OpenURL(link); err != nil {
				return res, err
			}
		}
		return res, nil
	case IfExistsUpdate:
		return p.update(ctx, existing.ID, UpdateRequest{
			NewTitle:       req.Title,
			HTML:           req.HTML,
			Labels:         req.Labels,
			MinorEdit:      req.MinorEdit,
			NotifyWatchers: req.NotifyWatchers,
			Source:         req.Source,
			SpaceKey:       req.SpaceKey,
			ParentID:       req.ParentID,
		})
	case IfExistsSuffix:
		for i := 2; i <= maxSuffix; i++ {
			candidate := fmt.Sprintf("%s (%d)", req.Title, i)
			found, err := p.find(ctx, req.SpaceKey, candidate, req.ParentID)
			if err != nil {
				return Result{}, err
			}
			if found == nil {
				return p.create(ctx, req, candidate)
			}
		}
		return res, fmt.Errorf("%w after %d attempts", ErrNoFreeSuffix, maxSuffix-1)
	default:
		where := "space " + req.SpaceKey
		if req.ParentID != "" {
			where = "parent " + req.ParentID
		}
		return res, fmt.Errorf("%w in %s: %s [id:%s]", ErrExists, where, req.Title, existing.ID)
	}
}

// Update replaces the body of an existing page.
func (p *Publisher) Update(ctx context.Context, req UpdateRequest) (Result, error) {
	id := strings.TrimSpace(req.PageID)
	if id == "" {
		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.SpaceKey) == "" {
			return Result{}, errors.New("either a page id or a title and space key are required")
		}
		found, err := p.find(ctx, req.SpaceKey, req.Title, req.ParentID)
		if err != nil {
			return Result{}, err
		}
		if found == nil {
			return Result{}, fmt.Errorf("page not found by title %q in space %s: %w", req.Title, req.SpaceKey, confluence.ErrNotFound)
		}
		id = found.ID
	}
	if req.DryRun {
		return Result{Action: ActionDryRun, Title: firstNonEmpty(req.NewTitle, req.Title), Page: &confluence.Page{ID: id}}, nil
	}
	return p.update(ctx, id, req)
}

func (p *Publisher) find(ctx context.Context, spaceKey, title, parentID string) (*confluence.Page, error) {
	page, err := p.client.FindPageByTitle(ctx, spaceKey, title, parentID)
	if errors.Is(err, confluence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *Publisher) create(ctx context.Context, req CreateRequest, title string) (Result, error) {
	page, err := p.client.CreatePage(ctx, confluence.CreateRequest{
		SpaceKey: req.SpaceKey,
		Title:    title,
		HTML:     req.HTML,
		ParentID: req.ParentID,
	})
	if err != nil {
		return Result{}, err
	}
	res := Result{Action: ActionCreate, Title: title, Page: &page, URL: confluence.URLFor(p.client, page.Summary())}
	res.LabelErr = p.label(ctx, page.ID, req.Labels)
	p.record(ctx, storage.ActionCreate, page, res.URL, req.SpaceKey, req.ParentID, req.Source, req.Labels)
	return res, nil
}

func (p *Publisher) update(ctx context.Context, id string, req UpdateRequest) (Result, error) {
	page, err := p.client.UpdatePage(ctx, confluence.UpdateRequest{
		ID:             id,
		Title:          req.NewTitle,
		HTML:           req.HTML,
		MinorEdit:      req.MinorEdit,
		NotifyWatchers: req.NotifyWatchers,
	})
	if err != nil {
		return Result{}, err
	}
	res := Result{Action: ActionUpdate, Title: page.Title, Page: &page, URL: confluence.URLFor(p.client, page.Summary())}
	res.LabelErr = p.label(ctx, page.ID, req.Labels)
	p.record(ctx, storage.ActionUpdate, page, res.URL, firstNonEmpty(page.SpaceKey, req.SpaceKey), req.ParentID, req.Source, req.Labels)
	return res, nil
}

// label is best effort; a failure is reported but does not fail the publish.
func (p *Publisher) label(ctx context.Context, id string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	if err := p.client.AddLabels(ctx, id, labels); err != nil {
		colors.Warning(fmt.Sprintf("failed to add labels: %v", err))
		return err
	}
	return nil
}

func (p *Publisher) record(ctx context.Context, action storage.Action, page confluence.Page, url, spaceKey, parentID, source string, labels []string) {
	_, err := p.history.Record(ctx, storage.Entry{
		Action:   action,
		PageID:   page.ID,
		Title:    page.Title,
		SpaceKey: firstNonEmpty(page.SpaceKey, spaceKey),
		ParentID: firstNonEmpty(page.ParentID(), parentID),
		URL:      url,
		Version:  page.Version,
		Source:   source,
		Labels:   labels,
	})
	if err != nil {
		colors.Warning(fmt.Sprintf("failed to record history: %v", err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
