package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	id := UUIDv7Generator{}.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err, "trace ID should be a valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)
}

func TestUUIDv7Generator_Uniqueness(t *testing.T) {
	gen := UUIDv7Generator{}
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := gen.Generate()
		require.False(t, seen[id], "trace ID %s generated twice", id)
		seen[id] = true
	}
}

func TestFixedGenerator_Order(t *testing.T) {
	gen := NewFixedGenerator("trace-1", "trace-2")

	assert.Equal(t, "trace-1", gen.Generate())
	assert.Equal(t, "trace-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() }, "exhausted generator should panic")
}
