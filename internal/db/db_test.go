package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opensails/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever", Options{})
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestMigrateAndReset(t *testing.T) {
	gormDB, err := Open("sqlite", "file::memory:", Options{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)

	require.NoError(t, Migrate(gormDB))
	for _, m := range Models() {
		assert.True(t, gormDB.Migrator().HasTable(m))
	}
	assert.True(t, gormDB.Migrator().HasColumn(&model.Bid{}, "collection_id"))

	require.NoError(t, Reset(gormDB))
	for _, m := range Models() {
		assert.False(t, gormDB.Migrator().HasTable(m))
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"file::memory:", "file::memory:?_foreign_keys=on"},
		{"file:test.db?cache=shared", "file:test.db?cache=shared&_foreign_keys=on"},
		{"file:test.db?_foreign_keys=off", "file:test.db?_foreign_keys=off"},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.dsn))
		})
	}
}

func TestOpen_SQLiteForeignKeysOnEveryConnection(t *testing.T) {
	gormDB, err := Open("sqlite", "file:"+filepath.Join(t.TempDir(), "fk.db"), Options{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// hold one connection so the next query has to open another
	tx := gormDB.Begin()
	require.NoError(t, tx.Error)
	defer tx.Rollback()

	var inTx, outside int
	require.NoError(t, tx.Raw("PRAGMA foreign_keys").Scan(&inTx).Error)
	require.NoError(t, gormDB.Raw("PRAGMA foreign_keys").Scan(&outside).Error)

	assert.Equal(t, 1, inTx)
	assert.Equal(t, 1, outside)
	assert.Equal(t, 2, sqlDB.Stats().OpenConnections)
}
