package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"
)

func TestNewDB(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db, err := NewDB(zap.New(core), Config{
		Driver:   Sqlite3,
		Dsn:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "error",
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, Close(db)) }()

	var n int
	require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)

	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())
}

func TestDialectorUnsupported(t *testing.T) {
	_, err := (&Config{Driver: "oracle"}).Dialector()
	assert.True(t, ErrDB.Has(err))
}

func TestGormLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), "warn")
	ctx := context.Background()
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), fc, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(ctx, time.Now().Add(-2*SlowThreshold), fc, nil)
	assert.Equal(t, 1, logs.FilterMessage("slow query").Len())

	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())

	l.LogMode(logger.Silent).Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())
}
