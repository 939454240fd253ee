package store

import (
	"context"
	"fmt"

	"github.com/roach88/mnemo/internal/ir"
)

// BeginTrace inserts a trace header.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) BeginTrace(ctx context.Context, t ir.Trace) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO traces
		(id, dictionary_hash, activator, engine_version, trace_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		t.ID,
		t.DictionaryHash,
		t.Activator,
		t.EngineVersion,
		t.TraceVersion,
	)
	if err != nil {
		return fmt.Errorf("begin trace: %w", err)
	}
	return nil
}

// RecordStep appends a step to its trace.
//
// Recording the same step ID twice is a no-op. A different step at an
// already used (trace_id, seq) violates the UNIQUE constraint and returns
// an error, as does a step whose trace was never begun (foreign key).
//
// Intents and rules are serialized to canonical JSON per RFC 8785.
func (s *Store) RecordStep(ctx context.Context, st ir.Step) error {
	intentsJSON, err := marshalIntents(st.Intents)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	rulesJSON, err := marshalRules(st.Rules)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}

	var keySpec string
	if st.Op == ir.OpKey {
		keySpec = ir.FormatKey(st.Key)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO steps
		(id, trace_id, seq, op, key_kind, key_text, key_spec, idx, intents, rules, state_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		st.ID,
		st.TraceID,
		st.Seq,
		string(st.Op),
		string(st.Key.Kind),
		st.Key.Text,
		keySpec,
		st.Index,
		intentsJSON,
		rulesJSON,
		st.StateDigest,
	)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return nil
}
