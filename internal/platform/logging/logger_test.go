package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_KeyValueFields(t *testing.T) {
	core, logs := observer.New(LevelInfo)
	logger := FromZap(zap.New(core))

	logger.Info("pick made", "pick_number", 3, "team_id", 2, "error", errors.New("late"), "dangling")
	logger.Debug("dropped below level")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["pick_number"] != int64(3) || fields["team_id"] != int64(2) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if fields["error"] != "late" {
		t.Fatalf("unexpected error field: %v", fields["error"])
	}
	if _, ok := fields["dangling"]; !ok {
		t.Fatalf("dangling key must still be logged")
	}
}

func TestLogger_MirrorReceivesContextRecords(t *testing.T) {
	core, _ := observer.New(LevelInfo)
	logger := FromZap(zap.New(core))

	var got []string
	SetMirror(func(_ context.Context, level Level, msg string, _ ...any) {
		got = append(got, level.String()+":"+msg)
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger.InfoContext(t.Context(), "draft started")
	logger.DebugContext(t.Context(), "below level")
	logger.Info("no context")

	if len(got) != 1 || got[0] != "info:draft started" {
		t.Fatalf("unexpected mirrored records: %v", got)
	}

	SetMirror(nil)
	logger.WarnContext(t.Context(), "after removal")
	if len(got) != 1 {
		t.Fatalf("mirror must be removable")
	}
}

func TestLogger_NilReceiverUsesDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	logger.ErrorContext(context.Background(), "still no panic")
}
