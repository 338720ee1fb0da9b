package adapter

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	mu              sync.Mutex
	name            string
	responses       map[string]string
	defaultResponse string
	failuresLeft    int
	failErr         error
	calls           int
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		name:            "mock",
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined
// responses keyed by the last user message.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{name: "mock", responses: responses, defaultResponse: defaultResponse}
}

// WithName overrides the adapter identifier so tests can register several
// mocks under different provider names.
func (a *MockAdapter) WithName(name string) *MockAdapter {
	a.name = name
	return a
}

// FailNext makes the next n calls return err.
func (a *MockAdapter) FailNext(n int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failuresLeft = n
	a.failErr = err
}

// FailAlways makes every call return err.
func (a *MockAdapter) FailAlways(err error) {
	a.FailNext(-1, err)
}

// Calls reports how many times Complete has been invoked.
func (a *MockAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return a.name
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Complete returns a deterministic response for the request.
func (a *MockAdapter) Complete(_ context.Context, req *Request) (*Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++

	if a.failuresLeft != 0 && a.failErr != nil {
		if a.failuresLeft > 0 {
			a.failuresLeft--
		}
		return nil, a.failErr
	}

	model := req.Model
	if model == "" {
		model = "mock-1"
	}

	prompt := lastUserMessage(req.Messages)
	content, ok := a.responses[prompt]
	if !ok {
		content = fmt.Sprintf("%s\n%s", a.defaultResponse, prompt)
	}

	return &Response{
		Content:  content,
		Model:    model,
		Provider: a.name,
		Usage: Usage{
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(content) / 4,
			TotalTokens:      (len(prompt) + len(content)) / 4,
		},
	}, nil
}

func lastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
