package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mnemo/internal/ir"
)

// ErrTraceNotFound is returned when a trace ID is not in the store.
var ErrTraceNotFound = errors.New("trace not found")

// TraceSummary is a trace header with its step count.
type TraceSummary struct {
	ir.Trace
	Steps   int
	LastSeq int64
}

// ReadTrace retrieves a trace header by ID.
// Returns ErrTraceNotFound if it does not exist.
func (s *Store) ReadTrace(ctx context.Context, id string) (ir.Trace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, dictionary_hash, activator, engine_version, trace_version
		FROM traces
		WHERE id = ?
	`, id)

	var t ir.Trace
	err := row.Scan(&t.ID, &t.DictionaryHash, &t.Activator, &t.EngineVersion, &t.TraceVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Trace{}, fmt.Errorf("%w: %s", ErrTraceNotFound, id)
	}
	if err != nil {
		return ir.Trace{}, fmt.Errorf("read trace: %w", err)
	}
	return t, nil
}

// LatestTrace returns the most recently started trace. Trace IDs are
// UUIDv7, so the greatest ID is the newest.
// Returns ErrTraceNotFound if the store is empty.
func (s *Store) LatestTrace(ctx context.Context) (ir.Trace, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM traces ORDER BY id COLLATE BINARY DESC LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Trace{}, ErrTraceNotFound
	}
	if err != nil {
		return ir.Trace{}, fmt.Errorf("latest trace: %w", err)
	}
	return s.ReadTrace(ctx, id)
}

// ListTraces returns every trace with its step count, ordered by ID.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListTraces(ctx context.Context) ([]TraceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.dictionary_hash, t.activator, t.engine_version, t.trace_version,
		       COUNT(st.id), COALESCE(MAX(st.seq), 0)
		FROM traces t
		LEFT JOIN steps st ON st.trace_id = t.id
		GROUP BY t.id
		ORDER BY t.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	summaries := []TraceSummary{}
	for rows.Next() {
		var ts TraceSummary
		if err := rows.Scan(
			&ts.ID, &ts.DictionaryHash, &ts.Activator, &ts.EngineVersion, &ts.TraceVersion,
			&ts.Steps, &ts.LastSeq,
		); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		summaries = append(summaries, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return summaries, nil
}

// ReadSteps returns all steps of a trace in replay order.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the trace has no steps.
func (s *Store) ReadSteps(ctx context.Context, traceID string) ([]ir.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trace_id, seq, op, key_kind, key_text, idx, intents, rules, state_digest
		FROM steps
		WHERE trace_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, traceID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []ir.Step{}
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// GetLastSeq returns the highest seq recorded for a trace, or 0.
// The harness checks it against the step count.
func (s *Store) GetLastSeq(ctx context.Context, traceID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM steps WHERE trace_id = ?
	`, traceID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

func scanStep(rows *sql.Rows) (ir.Step, error) {
	var (
		st          ir.Step
		op, kind    string
		intentsJSON string
		rulesJSON   string
	)
	if err := rows.Scan(
		&st.ID, &st.TraceID, &st.Seq, &op, &kind, &st.Key.Text, &st.Index,
		&intentsJSON, &rulesJSON, &st.StateDigest,
	); err != nil {
		return ir.Step{}, fmt.Errorf("scan step: %w", err)
	}
	st.Op = ir.StepOp(op)
	st.Key.Kind = ir.KeyKind(kind)

	intents, err := unmarshalIntents(intentsJSON)
	if err != nil {
		return ir.Step{}, fmt.Errorf("step %s: %w", st.ID, err)
	}
	rules, err := unmarshalRules(rulesJSON)
	if err != nil {
		return ir.Step{}, fmt.Errorf("step %s: %w", st.ID, err)
	}
	st.Intents = intents
	st.Rules = rules
	return st, nil
}
