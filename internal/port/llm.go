package port

// ToolSpec describes one tool offered to the model. Every tool takes a
// single free-text query argument.
type ToolSpec struct {
	Name        string
	Description string
}

// Turn is one entry in the conversation sent to the model.
// Role is "user", "assistant" (a tool call) or "tool" (a tool result).
type Turn struct {
	Role    string
	Content string
	Tool    string
	Input   string
	CallID  string
}

// Decision is the model's next action: exactly one tool call, or a final
// answer. Tool is empty when the model answered.
type Decision struct {
	Tool   string
	Input  string
	CallID string
	Answer string
}

// ChatModel wraps a tool-calling language model behind a tagged-variant
// decision: at each step the model either names one tool to call or emits
// final answer text.
type ChatModel interface {
	Decide(system string, turns []Turn, tools []ToolSpec) (Decision, error)

	// ModelName returns the name of the model.
	ModelName() string
}
