package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpFilesAndApplied(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_authors.up.sql",
		"000001_create_quizzes.up.sql",
		"000001_create_quizzes.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	files := upFiles(dir)
	assert.Equal(t, []string{"000001_create_quizzes.up.sql", "000002_add_authors.up.sql"}, files)
	assert.Equal(t, []string{"000002_add_authors.up.sql"}, appliedBetween(files, 1, 2))
	assert.Empty(t, appliedBetween(files, 2, 2))
	assert.Nil(t, upFiles(filepath.Join(dir, "missing")))
}

func TestMigrationsDir(t *testing.T) {
	dir, err := migrationsDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.Equal(t, "migrations", filepath.Base(dir))
}

func TestConfigNormalizeAndDSN(t *testing.T) {
	assert.Error(t, Normalize(nil))
	assert.Error(t, Normalize(&Config{}))

	cfg := Config{Host: "db", User: "quiz", Password: "secret", Name: "quizzes"}
	require.NoError(t, Normalize(&cfg))
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, 10, cfg.MaxConnections)
	assert.Equal(t, "user=quiz password=secret host=db port=5432 dbname=quizzes sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://quiz:secret@db:5432/quizzes?sslmode=disable", cfg.URL())
}
