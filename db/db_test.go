package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/habedi/cwactl/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB(t *testing.T) {
	tempDir := t.TempDir()
	db.Path = filepath.Join(tempDir, ".cwactl", "inventory.db")

	require.NoError(t, db.InitDB())
	assert.NotNil(t, db.GetDB())

	_, statErr := os.Stat(db.Path)
	assert.NoError(t, statErr, "database file should exist")

	assert.NoError(t, db.CloseDB())
}

func TestCloseDB_BeforeInit(t *testing.T) {
	saved := db.Db
	db.Db = nil
	t.Cleanup(func() { db.Db = saved })

	assert.NoError(t, db.CloseDB())
	assert.Nil(t, db.GetDB())
}

func TestOpen_MemoryDatabasesAreIsolated(t *testing.T) {
	a, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	b, err := db.Open(db.MemoryPath)
	require.NoError(t, err)

	require.NoError(t, a.Create(&db.Computer{ID: 1, Name: "WS-001"}).Error)

	var n int64
	require.NoError(t, b.Model(&db.Computer{}).Count(&n).Error)
	assert.Zero(t, n)
}
