package assistant

// Run statuses reported by the provider. The orchestration layer adds a
// local timed-out state on top of these; it never appears on the wire.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusRequiresAction = "requires_action"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
	StatusCancelling     = "cancelling"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
)

// ActionSubmitToolOutputs is the only required-action sub-type the provider
// emits for function tools.
const ActionSubmitToolOutputs = "submit_tool_outputs"

// Run is one execution of the assistant against a thread.
type Run struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *RunError       `json:"last_error,omitempty"`
}

type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RequiredAction struct {
	Type              string                   `json:"type"`
	SubmitToolOutputs *SubmitToolOutputsAction `json:"submit_tool_outputs,omitempty"`
}

type SubmitToolOutputsAction struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Tool declares a capability enabled for a run.
type Tool struct {
	Type     string       `json:"type"`
	Function *FunctionDef `json:"function,omitempty"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// RunConfig is the fixed assistant configuration a run starts with.
type RunConfig struct {
	AssistantID  string  `json:"assistant_id"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	TopP         float64 `json:"top_p,omitempty"`
	Instructions string  `json:"instructions,omitempty"`
	Tools        []Tool  `json:"tools,omitempty"`
}

// ThreadMessage is one message as returned by the provider's list call.
// CreatedAt is a unix timestamp; the list carries no ordering guarantee.
type ThreadMessage struct {
	ID        string        `json:"id"`
	Role      string        `json:"role"`
	RunID     string        `json:"run_id,omitempty"`
	CreatedAt int64         `json:"created_at"`
	Content   []ContentPart `json:"content"`
}

type ContentPart struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

type TextContent struct {
	Value string `json:"value"`
}

// Text returns the first text part of the message, or "" when the message
// carries no text content (image-only parts and the like).
func (m ThreadMessage) Text() string {
	for _, p := range m.Content {
		if p.Type == "text" && p.Text != nil {
			return p.Text.Value
		}
	}
	return ""
}

// MessageAttachment references an uploaded file when posting a message.
type MessageAttachment struct {
	FileID string `json:"file_id"`
	Tools  []Tool `json:"tools"`
}
