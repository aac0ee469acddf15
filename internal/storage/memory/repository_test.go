package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/internal/quiz"
	"github.com/m3rciful/quizbot/internal/storage/storagetest"
)

func TestRepositoryContract(t *testing.T) {
	storagetest.Run(t, func(*testing.T) quiz.Repository { return New() })
}

func TestConcurrentCreateSameTitleOneWins(t *testing.T) {
	repo := New()
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, clash int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(context.Background(), quiz.Draft{Title: "Race"}.Build())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, quiz.ErrConflict) {
				clash++
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, ok)
	assert.Equal(t, 15, clash)
}
