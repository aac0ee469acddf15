package fsm

// Action is an outbound effect the transport executes in order.
type Action interface {
	Kind() string
}

// SendText posts Body to ChatID, optionally offering Options.
type SendText struct {
	ChatID  int64
	Body    string
	Options *OptionSet
}

// EditMessageText replaces the text of an already sent message.
type EditMessageText struct {
	ChatID    int64
	MessageID int
	Body      string
}

// AcknowledgeCallback answers an inline button press; Text is an optional
// toast.
type AcknowledgeCallback struct {
	CallbackID string
	Text       string
}

func (SendText) Kind() string            { return "send" }
func (EditMessageText) Kind() string     { return "edit" }
func (AcknowledgeCallback) Kind() string { return "ack" }

// OptionKind tells the presentation layer how to offer labels.
type OptionKind int

const (
	// OptionsReply offers labels that come back as text messages.
	OptionsReply OptionKind = iota
	// OptionsInline offers labels whose selection comes back as a callback
	// carrying the matching payload.
	OptionsInline
	// OptionsRemove withdraws previously offered reply labels.
	OptionsRemove
)

// OptionSet is an ordered list of selectable labels.
type OptionSet struct {
	Kind     OptionKind
	Labels   []string
	Payloads []string
	Columns  int
}

// Reply offers labels one per row.
func Reply(labels ...string) *OptionSet {
	return &OptionSet{Kind: OptionsReply, Labels: labels, Columns: 1}
}

// Grid offers labels in rows of columns.
func Grid(columns int, labels ...string) *OptionSet {
	return &OptionSet{Kind: OptionsReply, Labels: labels, Columns: columns}
}

// Inline offers labels whose selection yields payloads[i].
func Inline(labels, payloads []string) *OptionSet {
	return &OptionSet{Kind: OptionsInline, Labels: labels, Payloads: payloads, Columns: 1}
}

// Remove withdraws reply labels.
func Remove() *OptionSet {
	return &OptionSet{Kind: OptionsRemove}
}
