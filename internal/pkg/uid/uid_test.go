package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_Generate(t *testing.T) {
	gen, err := NewSnowflake()
	require.NoError(t, err)

	first := gen.Generate()
	second := gen.Generate()

	assert.Positive(t, first)
	assert.Greater(t, second, first)
}

func TestUUID_Generate(t *testing.T) {
	gen := NewUUID()

	first := gen.Generate()
	second := gen.Generate()

	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}
