package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix enables future algorithm migration.
const (
	DomainState      = "mnemo/state/v1"
	DomainStep       = "mnemo/step/v1"
	DomainDictionary = "mnemo/dictionary/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DigestState hashes a canonical state summary. Two states with the same
// observable content produce the same digest.
func DigestState(summary IRObject) (string, error) {
	canonical, err := MarshalCanonical(summary)
	if err != nil {
		return "", fmt.Errorf("DigestState: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, canonical), nil
}

// DigestDictionary hashes a canonical dictionary listing.
func DigestDictionary(listing IRValue) (string, error) {
	canonical, err := MarshalCanonical(listing)
	if err != nil {
		return "", fmt.Errorf("DigestDictionary: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDictionary, canonical), nil
}

// StepID computes the content-addressed ID of a recorded step.
// It is stable across restarts given the same trace, sequence and operation.
func StepID(traceID string, seq int64, op StepOp, key Key, index int) (string, error) {
	obj := IRObject{
		"trace_id": IRString(traceID),
		"seq":      IRInt(seq),
		"op":       IRString(op),
		"key_kind": IRString(key.Kind),
		"key_text": IRString(key.Text),
		"index":    IRInt(index),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StepID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainStep, canonical), nil
}

// MustStepID is like StepID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStepID(traceID string, seq int64, key Key) string {
	id, err := StepID(traceID, seq, OpKey, key, 0)
	if err != nil {
		panic(err)
	}
	return id
}
