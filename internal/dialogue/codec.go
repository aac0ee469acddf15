package dialogue

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownState is returned by Unmarshal for an unregistered state name.
var ErrUnknownState = errors.New("dialogue: unknown state")

type envelope struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

type decoder func(json.RawMessage) (State, error)

var decoders = map[string]decoder{}

func register[T State]() {
	var zero T
	decoders[zero.Name()] = decode[T]
}

func decode[T State](raw json.RawMessage) (State, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func init() {
	register[Start]()

	register[AwaitingTitle]()
	register[AwaitingDescription]()
	register[AwaitingAddFirstQuestion]()
	register[AwaitingQuestionText]()
	register[AwaitingAnswerText]()
	register[AwaitingAnswerCorrectness]()
	register[AwaitingAddAnotherAnswer]()
	register[AwaitingAddAnotherQuestion]()
	register[AwaitingRetitle]()

	register[SelectQuiz]()
	register[HandleQuiz]()
	register[EditName]()
	register[EditDescription]()
	register[AddQuestion]()
	register[SelectQuestion]()
	register[HandleQuestion]()
	register[EditQuestionText]()
	register[AddAnswer]()
	register[AddAnswerCorrectness]()
	register[SelectAnswer]()
	register[HandleAnswer]()
	register[EditAnswerText]()
	register[EditCorrectness]()

	register[SelectionAwaitingQuizTitle]()
	register[ReadyToRun]()
	register[Running]()
}

// Marshal encodes s as {"name": ..., "data": ...}.
func Marshal(s State) ([]byte, error) {
	if s == nil {
		s = Start{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", s.Name(), err)
	}
	if string(data) == "{}" {
		data = nil
	}
	return json.Marshal(envelope{Name: s.Name(), Data: data})
}

// Unmarshal decodes a payload produced by Marshal.
func Unmarshal(b []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	dec, ok := decoders[env.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, env.Name)
	}
	s, err := dec(env.Data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Name, err)
	}
	return s, nil
}
