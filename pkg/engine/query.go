package engine

import (
	"github.com/ledgerworks/taxpilot/pkg/adapter"
	"github.com/ledgerworks/taxpilot/pkg/classify"
	"github.com/ledgerworks/taxpilot/pkg/clarify"
	"github.com/ledgerworks/taxpilot/pkg/router"
	"github.com/ledgerworks/taxpilot/pkg/solver"
)

// Query is one user request as handed over by the transport layer.
type Query struct {
	Text       string
	History    []adapter.Message
	Tier       string
	Attachment *adapter.Attachment
	ChatMode   string
}

// ResponseType tells the UI which surface should render the response.
type ResponseType string

const (
	ResponseDocument      ResponseType = "document"
	ResponseVisualization ResponseType = "visualization"
	ResponseExport        ResponseType = "export"
	ResponseCalculation   ResponseType = "calculation"
	ResponseResearch      ResponseType = "research"
	ResponseAnalysis      ResponseType = "analysis"
	ResponseGeneral       ResponseType = "general"
)

// Result bundles the final answer with every intermediate artifact, so
// downstream consumers can render, persist, and audit one object.
type Result struct {
	Response              string                  `json:"response"`
	ModelUsed             string                  `json:"modelUsed,omitempty"`
	Provider              string                  `json:"provider,omitempty"`
	RoutingDecision       router.Decision         `json:"routingDecision"`
	Classification        classify.Classification `json:"classification"`
	CalculationResults    solver.Results          `json:"calculationResults,omitempty"`
	ClarificationAnalysis clarify.Analysis        `json:"clarificationAnalysis"`
	NeedsClarification    bool                    `json:"needsClarification"`
	ResponseType          ResponseType            `json:"responseType"`
	ShowInPane            bool                    `json:"showInPane"`
	Metadata              map[string]string       `json:"metadata"`
	TokensUsed            int                     `json:"tokensUsed"`
	ProcessingTimeMs      int64                   `json:"processingTimeMs"`
}
