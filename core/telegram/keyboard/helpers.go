// Package keyboard builds reply and inline markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is a callback button: Unique routes the press, Data is the payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// RemoveKeyboard hides a previously shown reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons lays out a one-time reply keyboard, one row per slice.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	out := make([]tele.Row, 0, len(rows))
	for _, labels := range rows {
		row := make(tele.Row, len(labels))
		for i, label := range labels {
			row[i] = m.Text(label)
		}
		out = append(out, row)
	}
	m.Reply(out...)
	return m
}

// InlineButtons stacks buttons vertically, one per row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, len(buttons))
	for i, b := range buttons {
		rows[i] = m.Row(m.Data(b.Text, b.Unique, b.Data))
	}
	m.Inline(rows...)
	return m
}

// ChunkLabels groups labels into rows of at most n; n < 1 means one per row.
func ChunkLabels(labels []string, n int) [][]string {
	n = max(n, 1)
	rows := make([][]string, 0, (len(labels)+n-1)/n)
	for len(labels) > 0 {
		k := min(n, len(labels))
		rows = append(rows, labels[:k])
		labels = labels[k:]
	}
	return rows
}
