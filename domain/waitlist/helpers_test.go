package waitlist

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testWaitlistFile = "data/waitlist.json"

func testLogger() *log.Logger {
	return log.NewLogger(io.Discard, slog.LevelError)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.EnsureSchema(context.Background(), db))
	return db
}

func closeTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func newTestFileStore(fs afero.Fs) *FileStore {
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	return NewFileStore(fs, testWaitlistFile, testLogger())
}

func fixedStages(stages ...WaitlistStore) StageProvider {
	return StageProviderFunc(func(context.Context) []WaitlistStore {
		return stages
	})
}
