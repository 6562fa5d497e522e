package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set("token", "abc"))
	require.NoError(t, s.Set("count", 7))

	var token string
	ok, err := s.Get("token", &token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", token)

	// Reopen from disk
	s2, err := Open(path)
	require.NoError(t, err)

	var count int
	ok, err = s2.Get("count", &count)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 7, count)
}

func TestMissingKey(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	var out string
	ok, err := s.Get("nope", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Set("a", 1))
	require.NoError(t, s.Set("b", 2))
	require.NoError(t, s.Delete("a", "missing"))

	var v int
	ok, err := s.Get("a", &v)
	require.NoError(t, err)
	require.False(t, ok)

	s2, err := Open(path)
	require.NoError(t, err)
	ok, err = s2.Get("b", &v)
	require.NoError(t, err)
	require.True(t, ok)
}
