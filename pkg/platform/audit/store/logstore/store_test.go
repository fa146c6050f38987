package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "selfreg/pkg/platform/audit"
)

func TestAppendWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	store := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := store.Append(context.Background(), audit.Event{
		Category:     audit.CategoryCompliance,
		Action:       string(audit.EventUserSelfRegistered),
		Subject:      "alice@example.com",
		TenantDomain: "carbon.super",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["log_type"])
	assert.Equal(t, "user_self_registered", line["action"])
	assert.Equal(t, "alice@example.com", line["subject"])
	assert.Equal(t, "compliance", line["category"])
}
