package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 5, o.MaxRetries)
	assert.Equal(t, 5*time.Second, o.RetryDelay)
	assert.Equal(t, logger.Warn, o.LogLevel)

	o = Options{MaxRetries: 1, RetryDelay: time.Millisecond, LogLevel: logger.Info}.withDefaults()
	assert.Equal(t, 1, o.MaxRetries)
	assert.Equal(t, time.Millisecond, o.RetryDelay)
	assert.Equal(t, logger.Info, o.LogLevel)
}
