package bot

import (
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	"github.com/m3rciful/quizbot/core/telegram/keyboard"
	"github.com/m3rciful/quizbot/internal/fsm"

	tele "gopkg.in/telebot.v4"
)

// AnswerKey is the callback unique used by quiz answer buttons.
const AnswerKey = "ans"

// MaxMessageRunes is the Telegram limit for one text message.
const MaxMessageRunes = 4096

// PayloadFits reports whether an answer payload fits one callback button.
func PayloadFits(payload string) bool {
	return callbacks.Fits(AnswerKey, payload)
}

// markup renders an option set as Telegram markup; nil means no markup.
func markup(o *fsm.OptionSet) *tele.ReplyMarkup {
	if o == nil {
		return nil
	}
	switch o.Kind {
	case fsm.OptionsRemove:
		return keyboard.RemoveKeyboard()
	case fsm.OptionsInline:
		btns := make([]keyboard.InlineBtn, 0, len(o.Labels))
		for i, label := range o.Labels {
			payload := label
			if i < len(o.Payloads) {
				payload = o.Payloads[i]
			}
			btns = append(btns, keyboard.InlineBtn{Text: label, Unique: AnswerKey, Data: payload})
		}
		return keyboard.InlineButtons(btns)
	default:
		if len(o.Labels) == 0 {
			return nil
		}
		return keyboard.ReplyButtons(keyboard.ChunkLabels(o.Labels, o.Columns)...)
	}
}

// splitMessage cuts body into chunks of at most limit runes, preferring
// line breaks.
func splitMessage(body string, limit int) []string {
	if utf8.RuneCountInString(body) <= limit {
		return []string{body}
	}
	var (
		out   []string
		cur   strings.Builder
		count int
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, strings.Trim(cur.String(), "\n"))
			cur.Reset()
			count = 0
		}
	}
	for _, line := range strings.SplitAfter(body, "\n") {
		n := utf8.RuneCountInString(line)
		if count+n > limit {
			flush()
		}
		for n > limit {
			r := []rune(line)
			out = append(out, string(r[:limit]))
			line = string(r[limit:])
			n -= limit
		}
		cur.WriteString(line)
		count += n
	}
	flush()
	return out
}
