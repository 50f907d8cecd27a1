package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"susu-app-go/pkg/logger"
)

func query() (string, int64) {
	return "SELECT * FROM savings_groups", 1
}

func TestQueryLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(logger.New(&buf, slog.LevelDebug, logger.FormatText), 50*time.Millisecond)
	ctx := context.Background()

	q.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	q.Trace(ctx, time.Now(), query, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected fast and not-found queries to stay quiet, got %q", buf.String())
	}

	q.Trace(ctx, time.Now(), query, errors.New("connection reset"))
	if out := buf.String(); !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "connection reset") {
		t.Fatalf("expected error line, got %q", out)
	}

	buf.Reset()
	q.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	if out := buf.String(); !strings.Contains(out, "slow query") || !strings.Contains(out, "savings_groups") {
		t.Fatalf("expected slow query warning, got %q", out)
	}
}

func TestQueryLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(logger.New(&buf, slog.LevelDebug, logger.FormatText), 0).LogMode(gormlogger.Silent)

	q.Trace(context.Background(), time.Now().Add(-time.Second), query, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("expected silent mode to drop everything, got %q", buf.String())
	}
}

func TestOrDefault(t *testing.T) {
	if got := orDefault(0, 10); got != 10 {
		t.Fatalf("expected fallback, got %d", got)
	}
	if got := orDefault(3*time.Second, time.Minute); got != 3*time.Second {
		t.Fatalf("expected configured value, got %s", got)
	}
}
