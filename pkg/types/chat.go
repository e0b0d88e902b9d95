package types

import "github.com/goccy/go-json"

// ChatMessage is a single message in an OpenAI-compatible conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the OpenAI-compatible chat completion request body.
// Most pool providers (Groq, NVIDIA, ZhipuAI, local llama.cpp) accept
// this format verbatim.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// ChatResponse is the OpenAI-compatible chat completion response body.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// ChatChoice is a single completion choice.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// Usage contains token accounting for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatMessagesFor builds the message list for a generate request,
// prepending the system prompt when present.
func ChatMessagesFor(req *GenerateRequest) []ChatMessage {
	msgs := make([]ChatMessage, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, ChatMessage{Role: "user", Content: req.Prompt})
	return msgs
}

// FirstText returns the text of the first choice, or empty if none.
func (r *ChatResponse) FirstText() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// MarshalBody serializes a chat request for the wire.
func (r *ChatRequest) MarshalBody() ([]byte, error) {
	return json.Marshal(r)
}
