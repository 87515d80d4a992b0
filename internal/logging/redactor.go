package logging

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// bearerValue matches Authorization header values and token query params.
	bearerValue = regexp.MustCompile(`(?i)(bearer\s+|[?&](?:token|api_key|pat)=)[^\s&"]+`)
)

// publicKeys contain a sensitive segment but only ever hold identifiers.
var publicKeys = map[string]bool{
	"space_key":         true,
	"default_space_key": true,
}

// redactor masks values whose key names a secret.
type redactor struct {
	sensitiveWords map[string]bool
}

func newRedactor() *redactor {
	words := []string{"secret", "password", "token", "key", "auth", "authorization", "credential", "pat"}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return &redactor{sensitiveWords: m}
}

// redact returns a copy of the flattened key/value pairs with sensitive
// values replaced and bearer tokens scrubbed from string values.
func (r *redactor) redact(pairs []any) []any {
	if len(pairs) == 0 {
		return pairs
	}
	result := make([]any, len(pairs))
	copy(result, pairs)
	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}
		if r.isSensitive(key) {
			result[i+1] = "[REDACTED]"
			continue
		}
		if s, ok := result[i+1].(string); ok {
			result[i+1] = redactString(s)
		}
	}
	return result
}

// isSensitive matches whole segments only, so "api_key" is sensitive but
// "keyboard" is not.
func (r *redactor) isSensitive(key string) bool {
	key = strings.ToLower(key)
	if publicKeys[key] {
		return false
	}
	for _, part := range nonAlphanumeric.Split(key, -1) {
		if r.sensitiveWords[part] {
			return true
		}
	}
	return false
}

func redactString(value string) string {
	return bearerValue.ReplaceAllString(value, "${1}[REDACTED]")
}
