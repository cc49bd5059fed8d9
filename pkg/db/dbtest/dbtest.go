// Package dbtest opens migrated in-memory SQLite databases for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/taxchat-backend/pkg/config"
	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/db/models"
	"github.com/angelmondragon/taxchat-backend/pkg/migrate"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a client over a fresh, fully migrated in-memory database. The
// pool gate is sized poolSize; the underlying database/sql pool holds one
// connection so the in-memory database outlives idle churn.
func Open(t *testing.T, poolSize int) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, seq.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Up(context.Background(), sqlDB, config.DriverSQLite))

	return db.FromConn(conn, config.DriverSQLite, poolSize)
}

// MustUser inserts a user row with the given email.
func MustUser(t *testing.T, client *db.Client, email string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	user := &models.User{Email: email, Name: "Test User", LastActive: now, CreatedAt: now}
	require.NoError(t, client.DB().Create(user).Error)
	return user
}

// MustSession inserts a session for userID. A nil end leaves it open.
func MustSession(t *testing.T, client *db.Client, userID int64, start time.Time, end *time.Time) *models.ChatSession {
	t.Helper()
	session := &models.ChatSession{UserID: userID, StartTime: start.UTC(), EndTime: end, Topic: "Tax Consultation"}
	require.NoError(t, client.DB().Create(session).Error)
	return session
}

// MustQA inserts a QA pair with an explicit creation time.
func MustQA(t *testing.T, client *db.Client, qa models.QAPair) *models.QAPair {
	t.Helper()
	if qa.CreatedAt.IsZero() {
		qa.CreatedAt = time.Now().UTC()
	}
	qa.CreatedAt = qa.CreatedAt.UTC()
	require.NoError(t, client.DB().Create(&qa).Error)
	return &qa
}
