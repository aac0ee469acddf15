package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/quizbot/core/bootstrap"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/quiz"
)

// SeedFile is the YAML layout of a quiz seed file.
type SeedFile struct {
	Quizzes []SeedQuiz `yaml:"quizzes"`
}

// SeedQuiz is one quiz in a seed file.
type SeedQuiz struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Author      string         `yaml:"author"`
	Questions   []SeedQuestion `yaml:"questions"`
}

// SeedQuestion is one question in a seed file.
type SeedQuestion struct {
	Text    string       `yaml:"text"`
	Answers []SeedAnswer `yaml:"answers"`
}

// SeedAnswer is one answer in a seed file.
type SeedAnswer struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

// ReadSeedFile parses the seed file at path.
func ReadSeedFile(path string) (SeedFile, error) {
	var f SeedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read seed file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse seed file: %w", err)
	}
	return f, nil
}

// Draft validates the entry and converts it into a quiz draft. Texts are
// trimmed and must be non-empty and unique within their parent.
func (s SeedQuiz) Draft() (quiz.Draft, error) {
	d := quiz.Draft{
		Title:       quiz.NormalizeText(s.Title),
		Description: quiz.NormalizeText(s.Description),
		Author:      strings.TrimPrefix(quiz.NormalizeText(s.Author), "@"),
	}
	if d.Title == "" {
		return d, errors.New("quiz title is empty")
	}
	for _, sq := range s.Questions {
		qd := quiz.QuestionDraft{Text: quiz.NormalizeText(sq.Text)}
		if qd.Text == "" {
			return d, fmt.Errorf("quiz %q: question text is empty", d.Title)
		}
		if d.HasQuestion(qd.Text) {
			return d, fmt.Errorf("quiz %q: duplicate question %q", d.Title, qd.Text)
		}
		for _, sa := range sq.Answers {
			text := quiz.NormalizeText(sa.Text)
			if text == "" {
				return d, fmt.Errorf("quiz %q: question %q: answer text is empty", d.Title, qd.Text)
			}
			if qd.HasAnswer(text) {
				return d, fmt.Errorf("quiz %q: question %q: duplicate answer %q", d.Title, qd.Text, text)
			}
			qd = qd.WithAnswer(text, sa.Correct)
		}
		d = d.WithQuestion(qd)
	}
	return d, nil
}

// RepositoryProvider is satisfied by service bundles exposing a quiz repository.
type RepositoryProvider interface {
	QuizRepository() quiz.Repository
}

// Seeder loads quizzes from a YAML file, skipping titles already stored.
type Seeder struct {
	Path string
}

var _ bootstrap.Seeder = Seeder{}

// Seed implements bootstrap.Seeder. storage must be a quiz.Repository or
// a RepositoryProvider.
func (s Seeder) Seed(ctx context.Context, storage bootstrap.Storage) error {
	var repo quiz.Repository
	switch v := storage.(type) {
	case RepositoryProvider:
		repo = v.QuizRepository()
	case quiz.Repository:
		repo = v
	default:
		return fmt.Errorf("seed: unsupported storage %T", storage)
	}
	f, err := ReadSeedFile(s.Path)
	if err != nil {
		return err
	}
	created, err := SeedQuizzes(ctx, repo, f)
	if err != nil {
		return err
	}
	logger.Info(ctx, logger.CompSeed, "seed.done",
		slog.String("file", s.Path),
		slog.Int("quizzes_total", len(f.Quizzes)),
		slog.Int("created", created),
	)
	return nil
}

// SeedQuizzes creates every quiz in f whose title is free and reports how
// many were created.
func SeedQuizzes(ctx context.Context, repo quiz.Repository, f SeedFile) (int, error) {
	created := 0
	for i, sq := range f.Quizzes {
		d, err := sq.Draft()
		if err != nil {
			return created, fmt.Errorf("seed entry %d: %w", i, err)
		}
		_, err = repo.Create(ctx, d.Build())
		switch {
		case errors.Is(err, quiz.ErrConflict):
			logger.Debug(ctx, logger.CompSeed, "seed.skip",
				slog.String("title", d.Title),
				slog.String("reason", "exists"),
			)
		case err != nil:
			return created, fmt.Errorf("seed %q: %w", d.Title, err)
		default:
			created++
		}
	}
	return created, nil
}
