package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rehab.db")

	db, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "")
	assert.Error(t, err)
}

func TestNewDBPool_Lazy(t *testing.T) {
	// pgxpool does not connect until the first query
	pool, err := NewDBPool(context.Background(), NewDBPoolParams{
		DBHost:     "localhost",
		DBPort:     "54329",
		DBName:     "rehab",
		DBPassword: "p@ss word",
	})
	require.NoError(t, err)
	defer pool.Close()

	cfg := pool.Config().ConnConfig
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, uint16(54329), cfg.Port)
	assert.Equal(t, "rehab", cfg.Database)
	assert.Equal(t, "postgres", cfg.User)
	assert.Equal(t, "p@ss word", cfg.Password)
}
