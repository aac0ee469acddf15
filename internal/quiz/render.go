package quiz

import (
	"fmt"
	"strings"
)

// Render formats the quiz the way it is shown to an editor.
func Render(q Quiz) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\nBy @%s\n\nQuestions:\n", q.Title, q.Description, q.Author)
	for _, qs := range q.Questions {
		b.WriteString("# ")
		b.WriteString(RenderQuestion(qs))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderQuestion formats a question followed by its numbered answers.
func RenderQuestion(q Question) string {
	var b strings.Builder
	b.WriteString(q.Text)
	b.WriteByte('\n')
	for i, a := range q.Answers {
		fmt.Fprintf(&b, "%d)%s\n", i+1, RenderAnswer(a))
	}
	b.WriteByte('\n')
	return b.String()
}

// RenderAnswer formats an answer with a V or X correctness mark.
func RenderAnswer(a Answer) string {
	mark := 'X'
	if a.IsCorrect {
		mark = 'V'
	}
	return fmt.Sprintf("%s (%c)", a.Text, mark)
}
