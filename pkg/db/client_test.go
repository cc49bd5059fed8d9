package db

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/taxchat-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), gormConfig())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&testModel{}))
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := FromConn(db, "sqlite", 0)

	ctx := context.Background()
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}))

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStorage, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "boom")

	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "rollback should leave a single record")
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := FromConn(db, "sqlite", 1)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&testModel{Name: "panicked"}).Error)
			panic("kaboom")
		})
	})

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.Zero(t, count)

	// the slot is released even after a panic
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error { return nil }))
}

func TestWithTx_TypedErrorsPassThrough(t *testing.T) {
	client := FromConn(newTestDB(t), "sqlite", 1)

	notFound := pkgerrors.New(pkgerrors.CodeNotFound, "qa pair not found")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error { return notFound })
	assert.Same(t, notFound, err)
}

func TestAcquire_FailsFastWhenSaturated(t *testing.T) {
	client := FromConn(newTestDB(t), "sqlite", 1)

	var inner error
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		inner = client.Acquire(context.Background(), func(conn *gorm.DB) error {
			t.Fatal("acquire should not run while the pool is saturated")
			return nil
		})
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrConnectionExhausted)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(inner))
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)
	err := db.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("other"), ""))
}

func TestPing(t *testing.T) {
	client := FromConn(newTestDB(t), "sqlite", 0)
	require.NoError(t, client.Ping(context.Background()))
}
