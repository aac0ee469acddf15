package postgres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/internal/quiz"
	"github.com/m3rciful/quizbot/internal/storage/storagetest"
)

// TestRepositoryContract runs against a live database when QUIZBOT_TEST_DSN is set.
func TestRepositoryContract(t *testing.T) {
	dsn := os.Getenv("QUIZBOT_TEST_DSN")
	if dsn == "" {
		t.Skip("QUIZBOT_TEST_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "000001_create_quizzes.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	storagetest.Run(t, func(t *testing.T) quiz.Repository {
		_, err := db.Exec(`TRUNCATE quizzes CASCADE`)
		require.NoError(t, err)
		return New(db)
	})
}
