package logsink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing_KeepsNewest(t *testing.T) {
	r := NewRing(3)
	for _, l := range []string{"a", "b", "c", "d", "e"} {
		r.Add(l)
	}

	require.Equal(t, []string{"c", "d", "e"}, r.Lines())
	require.Equal(t, []string{"d", "e"}, r.Last(2))
	require.Equal(t, []string{"c", "d", "e"}, r.Last(10))
	require.Nil(t, r.Last(0))
	require.Equal(t, 3, r.Len())
	require.Equal(t, "c\nd\ne", r.String())
}

func TestRing_PartiallyFilled(t *testing.T) {
	r := NewRing(4)
	r.Add("a")
	r.Add("b")

	require.Equal(t, []string{"a", "b"}, r.Lines())
	require.Equal(t, 2, r.Len())
}

func TestRing_ExactlyFull(t *testing.T) {
	r := NewRing(2)
	r.Add("a")
	r.Add("b")

	require.Equal(t, []string{"a", "b"}, r.Lines())
}

func TestRing_MinimumSize(t *testing.T) {
	r := NewRing(0)
	r.Add("a")
	r.Add("b")

	require.Equal(t, []string{"b"}, r.Lines())
}
