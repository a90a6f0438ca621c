package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"atrium/config"
	logs "atrium/internal/infra/log"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormSlogLogger_UsesRequestScopedLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	baseLogger := slog.New(slog.NewTextHandler(&base, nil))
	reqLogger := slog.New(slog.NewTextHandler(&scoped, nil)).With(slog.String("request_id", "req-7"))

	l := newGormSlogLogger(baseLogger, &config.Config{})
	ctx := logs.WithLogger(context.Background(), reqLogger)

	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, assert.AnError)

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), "GORM query failed")
	assert.Contains(t, scoped.String(), "request_id=req-7")
}

func TestGormSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newGormSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)), &config.Config{})
	sql := func() (string, int64) { return "SELECT * FROM users", 0 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), sql, nil)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sql, assert.AnError)
	assert.Empty(t, buf.String())
}
