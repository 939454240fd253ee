package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/mnemo/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTrace(id string) ir.Trace {
	return ir.Trace{
		ID:             id,
		DictionaryHash: "sha256:test",
		Activator:      `\`,
		EngineVersion:  ir.EngineVersion,
		TraceVersion:   ir.TraceVersion,
	}
}

func mustBeginTrace(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.BeginTrace(context.Background(), testTrace(id)); err != nil {
		t.Fatalf("BeginTrace(%q) failed: %v", id, err)
	}
}

// testKeyStep creates a key step with a content-addressed ID.
func testKeyStep(traceID string, seq int64, key ir.Key, intents ...ir.Intent) ir.Step {
	return ir.Step{
		ID:          ir.MustStepID(traceID, seq, key),
		TraceID:     traceID,
		Seq:         seq,
		Op:          ir.OpKey,
		Key:         key,
		Intents:     intents,
		Rules:       []string{"continue"},
		StateDigest: "sha256:state",
	}
}
