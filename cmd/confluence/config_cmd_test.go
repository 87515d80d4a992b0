package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/confluence-cli/internal/confluence"
)

func TestConfigShowMasksSecrets(t *testing.T) {
	useConfig(t, "pat", "supersecret1234", "base_url", "https://wiki.example.com")
	captureConsole(t)

	out, err := runCmd(t, NewConfigCmd(mockClientFactory(new(confluence.MockClient))), "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "https://wiki.example.com")
	assert.Contains(t, out, "********1234")
	assert.NotContains(t, out, "supersecret")
}

func TestConfigDoctorReportsMissingSettings(t *testing.T) {
	useConfig(t, "pandoc_path", "/nonexistent/pandoc")

	out, err := runCmd(t, NewConfigCmd(mockClientFactory(new(confluence.MockClient))), "", "doctor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 check(s) failed")
	assert.Contains(t, out, "pandoc")
	assert.Contains(t, out, "not found; Markdown is converted with goldmark")
	assert.Contains(t, out, "missing; run `confluence auth login`")
}

func TestConfigDoctorPing(t *testing.T) {
	useConfig(t,
		"base_url", "https://wiki.example.com",
		"pat", "tok-1234",
		"default_space_key", "ENG",
		"llm_provider", "none",
		"pandoc_path", "/nonexistent/pandoc",
	)
	mc := new(confluence.MockClient)
	mc.On("SpaceHomepage", mock.Anything, "ENG").Return(confluence.Page{ID: "1", Title: "Engineering"}, nil).Once()

	out, err := runCmd(t, NewConfigCmd(mockClientFactory(mc)), "", "doctor", "--ping")
	require.NoError(t, err)
	assert.Contains(t, out, "ENG homepage: Engineering")
	assert.Contains(t, out, "disabled; author uses templates")
	mc.AssertExpectations(t)
}

func TestConfigDoctorPingFailure(t *testing.T) {
	useConfig(t, "base_url", "https://wiki.example.com", "pat", "tok-1234", "default_space_key", "ENG")
	mc := new(confluence.MockClient)
	mc.On("SpaceHomepage", mock.Anything, "ENG").
		Return(confluence.Page{}, &confluence.APIError{Kind: confluence.KindAuth, StatusCode: 401})

	_, err := runCmd(t, NewConfigCmd(mockClientFactory(mc)), "", "doctor", "--ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 check(s) failed")
}

func TestPingCheckSkipsWithoutSpace(t *testing.T) {
	useConfig(t)
	ch := pingCheck(t.Context(), func() (confluence.Client, error) { return nil, errors.New("unused") })
	assert.Equal(t, checkWarn, ch.Status)
}
