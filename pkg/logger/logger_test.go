package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestInfoCarriesServiceName(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "fulfillment", Output: &buf})

	logg.Info(context.Background(), "order.transition")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "fulfillment", entry["service"])
	assert.Equal(t, "order.transition", entry["message"])
}

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "fulfillment", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithBranchID(ctx, "branch-9")
	ctx = logg.WithActorRole(ctx, "kitchen")
	logg.Info(ctx, "reconcile.start")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "branch-9", entry["branch_id"])
	assert.Equal(t, "kitchen", entry["actor_role"])
}

func TestErrorIncludesErrAndStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "fulfillment", Output: &buf})

	logg.Error(context.Background(), "reconcile.failed", errors.New("stock lookup timed out"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "stock lookup timed out", entry["error"])
	assert.NotEmpty(t, entry["stack"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "fulfillment", Level: zerolog.WarnLevel, Output: &buf})

	logg.Info(context.Background(), "suppressed")
	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}
