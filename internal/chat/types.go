package chat

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// FunctionCall is a model request to run one registered function. Arguments
// is the raw JSON string exactly as the model produced it.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// For function messages: which function produced Content.
	Name string `json:"name,omitempty"`

	// For assistant messages that ask for a function instead of answering.
	FunctionCall *FunctionCall `json:"function_call,omitempty"`

	// For function messages: the ID of the call being answered.
	CallID string `json:"call_id,omitempty"`
}

func (r Role) valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		return true
	}
	return false
}
