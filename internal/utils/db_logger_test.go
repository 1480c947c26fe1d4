package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newObserved(level logger.LogLevel, patterns ...string) (*ZapGormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewZapGormLogger(zap.New(core), level, patterns...), logs
}

func TestZapGormLogger_SkipsIgnoredQueries(t *testing.T) {
	l, logs := newObserved(logger.Info, `FROM "appointment" WHERE status =`)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `SELECT * FROM "appointment" WHERE status = 'Scheduled'`, 3
	}, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return `SELECT * FROM "appointment" WHERE id = 1`, 1
	}, nil)
	assert.Equal(t, 1, logs.Len())
}

func TestZapGormLogger_ErrorsAndNotFound(t *testing.T) {
	l, logs := newObserved(logger.Warn)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len(), "record-not-found is not an error worth logging")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())
}

func TestZapGormLogger_SilentMode(t *testing.T) {
	l, logs := newObserved(logger.Info)
	silent := l.LogMode(logger.Silent)

	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	silent.Error(context.Background(), "nope %d", 1)
	assert.Equal(t, 0, logs.Len())
}
