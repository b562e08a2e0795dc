package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNew_JSONOutputWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-42")
	logger.With(slog.String("component", "api")).InfoContext(ctx, "Movie created",
		slog.String("movie_id", "m1"),
		slog.Int("count", 3),
		slog.Any("error", errors.New("boom")),
		slog.Group("db", slog.String("table", "filmes")),
	)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	got := lines[0]
	checks := map[string]any{
		"message":    "Movie created",
		"level":      "info",
		"service":    "catalog-service",
		"request_id": "req-42",
		"component":  "api",
		"movie_id":   "m1",
		"count":      float64(3),
		"error":      "boom",
		"db.table":   "filmes",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %v, want %v", k, got[k], want)
		}
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info("dropped")
	logger.Debug("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if !logger.Enabled(context.Background(), slog.LevelError) || logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled does not follow configured level")
	}
}

func TestWithGroup_PrefixesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf}).WithGroup("grpc")
	logger.Info("call", slog.String("method", "GetMovieInfo"))

	lines := decodeLines(t, &buf)
	if lines[0]["grpc.method"] != "GetMovieInfo" {
		t.Errorf("got %v", lines[0])
	}
}

func TestParseLevel(t *testing.T) {
	if !ValidLevel("DEBUG") || ValidLevel("verbose") {
		t.Error("ValidLevel mismatch")
	}
	if ParseLevel("nonsense").String() != "info" {
		t.Error("unknown level must default to info")
	}
}
