package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftIsImmutable(t *testing.T) {
	base := Draft{Title: "Capitals", Description: "Europe", Author: "alice"}
	q := QuestionDraft{Text: "France?"}.WithAnswer("Paris", true)

	one := base.WithQuestion(q)
	two := one.WithQuestion(QuestionDraft{Text: "Italy?"}.WithAnswer("Rome", true))

	assert.Empty(t, base.Questions)
	require.Len(t, one.Questions, 1)
	require.Len(t, two.Questions, 2)

	more := q.WithAnswer("Lyon", false)
	assert.Len(t, q.Answers, 1)
	assert.Len(t, more.Answers, 2)
	assert.Len(t, one.Questions[0].Answers, 1, "appending to the source question must not leak into the draft")

	renamed := two.WithTitle("Other")
	renamed.Questions[0].Answers[0].Text = "changed"
	assert.Equal(t, "Paris", two.Questions[0].Answers[0].Text)
	assert.Equal(t, "Capitals", two.Title)
}

func TestDraftLookups(t *testing.T) {
	d := Draft{}.WithQuestion(QuestionDraft{Text: "A"}.WithAnswer("x", false))
	assert.True(t, d.HasQuestion("A"))
	assert.False(t, d.HasQuestion("B"))
	assert.True(t, d.Questions[0].HasAnswer("x"))
	assert.False(t, d.Questions[0].HasAnswer("y"))
}

func TestDraftBuildAssignsIdentifiers(t *testing.T) {
	d := Draft{Title: "T", Description: "D", Author: "bob"}.
		WithQuestion(QuestionDraft{Text: "Q1"}.WithAnswer("a", true).WithAnswer("b", false)).
		WithQuestion(QuestionDraft{Text: "Q2"})

	q := d.Build()
	assert.Equal(t, "T", q.Title)
	assert.Equal(t, "bob", q.Author)
	require.Len(t, q.Questions, 2)
	assert.NotEqual(t, q.Questions[0].ID, q.Questions[1].ID)
	require.Len(t, q.Questions[0].Answers, 2)
	assert.True(t, q.Questions[0].Answers[0].IsCorrect)
	assert.False(t, q.Questions[0].Answers[1].IsCorrect)
	assert.Equal(t, 1, q.Answerable())
	assert.Equal(t, []string{"Q1", "Q2"}, q.QuestionTexts())
}

func TestQuizLookupsPickFirstMatch(t *testing.T) {
	q := Quiz{Questions: []Question{
		{Text: "dup", Answers: []Answer{{Text: "x", IsCorrect: true}, {Text: "x"}}},
		{Text: "dup"},
	}}
	got, ok := q.Question("dup")
	require.True(t, ok)
	assert.True(t, got.HasAnswers())

	a, ok := got.Answer("x")
	require.True(t, ok)
	assert.True(t, a.IsCorrect)

	_, ok = q.Question("missing")
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	q := Quiz{
		Title:       "Capitals",
		Description: "Europe",
		Author:      "alice",
		Questions: []Question{
			{Text: "France?", Answers: []Answer{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}}},
		},
	}
	want := "Capitals\nEurope\n\nBy @alice\n\nQuestions:\n# France?\n1)Paris (V)\n2)Lyon (X)"
	assert.Equal(t, want, Render(q))
	assert.Equal(t, "Lyon (X)", RenderAnswer(q.Questions[0].Answers[1]))
}
