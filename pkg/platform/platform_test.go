package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleHierarchy_Manageable(t *testing.T) {
	h := &RoleHierarchy{
		Positions: map[string]int{
			"low":   1,
			"mid":   5,
			"bot":   6,
			"above": 9,
		},
		BotHighest: 6,
	}

	allowed, skipped := h.Manageable([]string{"low", "mid", "bot", "above", "missing"})
	require.Equal(t, []string{"low", "mid"}, allowed)
	require.Equal(t, []string{"bot", "above", "missing"}, skipped)
}

func TestRoleHierarchy_Highest(t *testing.T) {
	h := &RoleHierarchy{
		Positions: map[string]int{"a": 2, "b": 7},
	}

	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{name: "none", roles: nil, want: 0},
		{name: "single", roles: []string{"a"}, want: 2},
		{name: "highest wins", roles: []string{"a", "b"}, want: 7},
		{name: "unknown ignored", roles: []string{"x", "a"}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, h.Highest(tt.roles))
		})
	}
}
