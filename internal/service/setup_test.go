package service

import (
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/util"
	"ai_academy_backend/pkg/database"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	db           *gorm.DB
	clock        *testClock
	catalog      *CatalogService
	users        *UserService
	achievements *AchievementService
	progress     *ProgressService
	analytics    *AnalyticsService
}

// 2025-03-12 是 ISO 第 11 周的周三
var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	algorithms, err := repository.NewAlgorithmRepository()
	require.NoError(t, err)

	clock := &testClock{t: testNow}
	catalog := NewCatalogService(algorithms)
	userRepo := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	storage := &StorageService{Provider: &LocalStorageProvider{Root: t.TempDir()}, Type: util.StorageLocal}

	users := NewUserService(userRepo, storage)
	achievements := NewAchievementService(repository.NewAchievementRepository(db), progressRepo, userRepo, catalog, users)
	progress := NewProgressService(progressRepo, users, achievements)
	analytics := NewAnalyticsService(repository.NewAnalyticsRepository(db), progressRepo, userRepo, catalog)

	users.now = clock.now
	achievements.now = clock.now
	progress.now = clock.now
	analytics.now = clock.now

	return &testEnv{
		db:           db,
		clock:        clock,
		catalog:      catalog,
		users:        users,
		achievements: achievements,
		progress:     progress,
		analytics:    analytics,
	}
}
