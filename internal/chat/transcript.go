package chat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const DefaultSystemPrompt = "You are a chat assistant that is an expert in helping others find new friends. " +
	"You exist in a collaborative friend searching platform called Frieddie. " +
	"In Frieddie you can add buddies (frieddies) to find new friends and events. " +
	"If you don't know how to answer / perform an action you refer the user to the Frieddie documentation."

// Transcript is one conversation. The system message is always first and is
// never removed; everything after it is append-only until Reset.
type Transcript struct {
	mu       sync.RWMutex
	id       string
	messages []Message
}

func NewTranscript(systemPrompt string) *Transcript {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	msgs := make([]Message, 1, 16)
	msgs[0] = Message{Role: RoleSystem, Content: systemPrompt}
	return &Transcript{
		id:       uuid.NewString(),
		messages: msgs,
	}
}

func (t *Transcript) ID() string { return t.id }

func (t *Transcript) Append(msgs ...Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msgs...)
}

// AppendHistory adds messages supplied by a client. Client-side system
// messages are dropped so the transcript keeps exactly one, at the front.
// A function message without a call id is paired with the latest assistant
// function call, so one must precede it.
func (t *Transcript) AppendHistory(msgs []Message) error {
	accepted := make([]Message, 0, len(msgs))
	callSeen := t.hasFunctionCall()
	for i, m := range msgs {
		if !m.Role.valid() {
			return fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
		if m.Role == RoleSystem {
			continue
		}
		if m.Role == RoleFunction && m.Name == "" {
			return fmt.Errorf("message %d: function message without name", i)
		}
		if m.Role == RoleFunction && m.CallID == "" && !callSeen {
			return fmt.Errorf("message %d: function result %q without call_id and no preceding function call", i, m.Name)
		}
		if m.Role == RoleAssistant && m.FunctionCall != nil {
			callSeen = true
		}
		accepted = append(accepted, m)
	}
	t.Append(accepted...)
	return nil
}

func (t *Transcript) hasFunctionCall() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.messages {
		if m.Role == RoleAssistant && m.FunctionCall != nil {
			return true
		}
	}
	return false
}

// Messages returns a copy safe to hand to an adapter.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Reset drops everything but the system message.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = t.messages[:1]
}
