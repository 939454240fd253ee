package ir

// Version constants for trace records and the engine.
const (
	// TraceVersion is the step record schema version.
	TraceVersion = "1"

	// EngineVersion is the mnemo engine version recorded with every trace.
	EngineVersion = "0.1.0"
)
