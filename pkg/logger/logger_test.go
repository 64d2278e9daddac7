package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))
}

func TestWithCtxReturnsInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	reqLog := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "abc123")

	ctx := InjectLogger(context.Background(), reqLog)
	WithCtx(ctx).Info("order placed", "order_id", 7)

	assert.Contains(t, buf.String(), "request_id=abc123")
	assert.Contains(t, buf.String(), "order_id=7")
}

func TestMultiHandlerWritesToEveryHandler(t *testing.T) {
	var a, b bytes.Buffer
	log := slog.New(NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)).With("component", "queue")

	log.Info("job processed")

	assert.Contains(t, a.String(), "component=queue")
	assert.Contains(t, b.String(), `"component":"queue"`)
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var quiet bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}))

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
