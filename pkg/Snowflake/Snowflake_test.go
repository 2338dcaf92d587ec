package Snowflake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSessionIdUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := GenerateSessionId()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
