package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfreg/internal/selfregister/models"
	"selfreg/pkg/platform/sentinel"
)

func TestParseProperties(t *testing.T) {
	props, err := parseProperties([]string{"b=2", "a=1", "c=x=y", "d="})
	require.NoError(t, err)
	assert.Equal(t, []models.Property{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "1"},
		{Key: "c", Value: "x=y"},
		{Key: "d", Value: ""},
	}, props)

	_, err = parseProperties([]string{"novalue"})
	assert.Error(t, err)
}

func TestRegisterCommandInternalChannelPrintsNothing(t *testing.T) {
	t.Setenv("SELFREG_STORE", "memory")
	t.Setenv("SELFREG_LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"register", "--env-file", "does-not-exist.env", "--email", "alice@example.com", "--property", "first=Alice"})

	require.NoError(t, root.Execute())
	assert.Empty(t, out.String())
}

func TestRegisterCommandRejectsBlankEmail(t *testing.T) {
	t.Setenv("SELFREG_STORE", "memory")
	t.Setenv("SELFREG_LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"register", "--env-file", "does-not-exist.env", "--email", "  "})

	require.Error(t, root.Execute())
	assert.Contains(t, out.String(), models.CodeBadSelfRegisterRequest)
}

func TestPendingCommandUnknownRecoveryID(t *testing.T) {
	t.Setenv("SELFREG_STORE", "memory")
	t.Setenv("SELFREG_LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"pending", "--env-file", "does-not-exist.env", "rec-unknown"})

	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
