package custom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnowflakes_AddRemove(t *testing.T) {
	var s Snowflakes

	s, ok := s.Add("1")
	require.True(t, ok)
	s, ok = s.Add("2")
	require.True(t, ok)
	s, ok = s.Add("1")
	require.False(t, ok)
	s, ok = s.Add("")
	require.False(t, ok)
	require.Equal(t, Snowflakes{"1", "2"}, s)

	s, ok = s.Remove("1")
	require.True(t, ok)
	require.Equal(t, Snowflakes{"2"}, s)

	_, ok = s.Remove("9")
	require.False(t, ok)
}

func TestSnowflakes_Contains(t *testing.T) {
	s := Snowflakes{"a", "b"}
	require.True(t, s.Contains("a"))
	require.False(t, s.Contains("c"))
	require.True(t, s.ContainsAny([]string{"c", "b"}))
	require.False(t, s.ContainsAny(nil))
}

func TestUnion(t *testing.T) {
	got := Union(Snowflakes{"1", "2"}, Snowflakes{"2", "3"}, nil, Snowflakes{"1"})
	require.Equal(t, Snowflakes{"1", "2", "3"}, got)
	require.NotNil(t, Union())
}
