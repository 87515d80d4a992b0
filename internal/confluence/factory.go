package confluence

import (
	"time"

	"github.com/cristianoliveira/confluence-cli/internal/config"
)

// NewFromConfig builds a client from base_url, pat, timeout, retries and
// backoff_ms of the loaded configuration. Extra options are applied last.
func NewFromConfig(opts ...ClientOption) (*DefaultClient, error) {
	baseURL, err := config.Require("base_url")
	if err != nil {
		return nil, err
	}
	token, err := config.Require("pat")
	if err != nil {
		return nil, err
	}
	all := []ClientOption{
		WithTimeout(time.Duration(config.GetInt("timeout", int(DefaultTimeout/time.Second))) * time.Second),
		WithRetries(config.GetInt("retries", DefaultRetries)),
		WithBackoff(time.Duration(config.GetInt("backoff_ms", int(DefaultBackoff/time.Millisecond))) * time.Millisecond),
	}
	return NewDefaultClient(baseURL, token, append(all, opts...)...)
}
