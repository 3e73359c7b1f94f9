package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	database, err := InitDB("sqlite3", "file::memory:", time.Second)
	require.NoError(t, err)
	defer database.Close()

	// Every connection to file::memory: is its own database
	database.SetMaxOpenConns(1)

	require.NoError(t, RunMigrations(database.DB, "sqlite3", "file://../../migrations/sqlite3"))
	// Running again is a no-op
	require.NoError(t, RunMigrations(database.DB, "sqlite3", "file://../../migrations/sqlite3"))

	var tables []string
	err = database.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'schema_%' ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"bracket_match_teams", "bracket_matches", "poule_match_teams", "poule_matches", "poules", "teams"}, tables)

	var foreignKeys int
	require.NoError(t, database.Get(&foreignKeys, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, foreignKeys)
}

func TestRunMigrationsUnknownDriver(t *testing.T) {
	database, err := InitDB("sqlite3", "file::memory:", time.Second)
	require.NoError(t, err)
	defer database.Close()

	err = RunMigrations(database.DB, "mysql", "file://../../migrations/sqlite3")
	assert.Error(t, err)
}
