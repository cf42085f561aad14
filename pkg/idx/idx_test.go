package idx_test

import (
	"testing"
	"time"

	"github.com/maratshchur/django-auth-template/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.NotEqual(t, idx.Zero, id)

	parsed, err := idx.Parse(" " + id.String() + "\n")
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, s)
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.UnixMilli(1700000000000).UTC()

	a := idx.NewAt(at)
	b := idx.NewAt(at)

	// Same timestamp, so ordering comes from the monotonic entropy.
	require.Less(t, a.String(), b.String())
	require.Equal(t, a.String()[:10], idx.NewAt(at.Add(999 * time.Microsecond)).String()[:10])
}
