package migrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/taxchat-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	for _, driver := range []string{config.DriverPostgres, config.DriverSQLite} {
		require.NoError(t, ValidateDir(filepath.Join("migrations", driver)), driver)
	}
}

func TestDialectsShipMatchingVersions(t *testing.T) {
	pg, err := filepath.Glob(filepath.Join("migrations", config.DriverPostgres, "*.sql"))
	require.NoError(t, err)
	lite, err := filepath.Glob(filepath.Join("migrations", config.DriverSQLite, "*.sql"))
	require.NoError(t, err)

	require.NotEmpty(t, pg)
	require.Len(t, lite, len(pg))
	for i := range pg {
		assert.Equal(t, filepath.Base(pg[i]), filepath.Base(lite[i]))
	}
}

func TestSessionMigrationEnforcesSingleOpenSession(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*", "*_create_chat_sessions.sql"))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	for _, m := range matches {
		data, err := os.ReadFile(m)
		require.NoError(t, err)
		assert.Contains(t, string(data), "ON chat_sessions (user_id) WHERE end_time IS NULL", m)
	}
}

func TestUpCreatesSchemaOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_up?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Up(context.Background(), sqlDB, config.DriverSQLite))

	for _, table := range []string{"users", "chat_sessions", "qa_pairs", "feedback"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}

	// second run is a no-op
	require.NoError(t, Up(context.Background(), sqlDB, config.DriverSQLite))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add QA Rating!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_qa_rating.sql"), path)
	require.NoError(t, ValidateDir(dir))
}
