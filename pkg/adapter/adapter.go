package adapter

import "context"

// Chat roles used in Request.Messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const defaultMaxTokens = 4096

// Message is a single conversation turn passed to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attachment carries an uploaded document alongside a request. Extracted
// text is merged into the messages by the caller before the request is
// built; the raw attachment rides along for providers with native document
// support.
type Attachment struct {
	Filename     string
	MimeType     string
	DocumentType string
	Data         []byte
}

// Request is a normalized completion request.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Attachment  *Attachment
}

// Adapter defines the interface for LLM provider adapters.
type Adapter interface {
	// Complete sends the request to the provider and returns its response.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

func maxTokensOrDefault(req *Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
