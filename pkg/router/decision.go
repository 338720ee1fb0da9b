package router

// Decision is the routing verdict for one classified query.
type Decision struct {
	PrimaryModel      string   `json:"primaryModel"`
	PreferredProvider string   `json:"preferredProvider"`
	FallbackProviders []string `json:"fallbackProviders"`
	SolversNeeded     []string `json:"solversNeeded,omitempty"`
	Reasoning         string   `json:"reasoning"`
	Confidence        float64  `json:"confidence"`
}

// RouteInfo describes one policy cell for display.
type RouteInfo struct {
	Domain     string   `json:"domain"`
	Complexity string   `json:"complexity"`
	Provider   string   `json:"provider"`
	Model      string   `json:"model"`
	Solvers    []string `json:"solvers,omitempty"`
}
