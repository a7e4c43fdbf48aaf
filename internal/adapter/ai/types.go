package ai

// Message is a role-tagged message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries system instructions plus the ordered conversation.
type CompletionRequest struct {
	SystemInstructions string
	Messages           []Message
}

// messagesRequest is the wire format of the Messages API.
type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
}

// contentBlock is one block of the Messages API response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// messagesResponse is the wire format of the Messages API response.
type messagesResponse struct {
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// errorResponse is the Messages API error payload.
type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
