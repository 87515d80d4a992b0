package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, v, commit string) {
	t.Helper()
	oldVersion, oldCommit := Version, Commit
	Version, Commit = v, commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		commit   string
		expected string
	}{
		{"development without commit", "development", "unknown", "development"},
		{"release with commit", "1.0.0", "abc1234", "1.0.0+abc1234"},
		{"empty commit", "0.5.0", "", "0.5.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, tt.version, tt.commit)
			assert.Equal(t, tt.expected, String())
		})
	}
}

func TestUserAgent(t *testing.T) {
	withBuildInfo(t, "1.2.0", "unknown")
	ua := UserAgent()
	assert.True(t, strings.HasPrefix(ua, "confluence-cli/1.2.0 ("))
	assert.Contains(t, ua, runtime.GOOS)
}
