package testutil

// DefaultTraceID is used when a test does not name its trace.
const DefaultTraceID = "test-trace-default"

// FixedTraceGenerator returns the same trace ID every time.
//
// Unlike engine.FixedGenerator, which hands out a list of IDs in order and
// panics when it runs out, this generator never runs out; a dictionary swap
// in a test simply starts a second trace under the same ID.
//
// Thread-safety: FixedTraceGenerator is stateless and safe for concurrent use.
type FixedTraceGenerator struct {
	id string
}

// NewFixedTraceGenerator creates a generator for id.
// If id is empty, Generate() returns DefaultTraceID.
func NewFixedTraceGenerator(id string) *FixedTraceGenerator {
	if id == "" {
		id = DefaultTraceID
	}
	return &FixedTraceGenerator{id: id}
}

// Generate returns the fixed trace ID.
//
// Implements engine.TraceIDGenerator.
func (g *FixedTraceGenerator) Generate() string {
	return g.id
}
