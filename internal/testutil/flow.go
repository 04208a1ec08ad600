package testutil

// DefaultFlowToken is used when a scenario names no flow token.
const DefaultFlowToken = "test-flow-default"

// FixedFlowGenerator returns the same flow token on every call, so every
// call of a scenario lands in one flow. Satisfies record.FlowTokenGenerator.
type FixedFlowGenerator struct {
	token string
}

// NewFixedFlowGenerator returns a generator for token, or for
// DefaultFlowToken when token is empty.
func NewFixedFlowGenerator(token string) *FixedFlowGenerator {
	if token == "" {
		token = DefaultFlowToken
	}
	return &FixedFlowGenerator{token: token}
}

func (g *FixedFlowGenerator) Generate() string {
	return g.token
}
