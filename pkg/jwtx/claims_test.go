package jwtx_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/maratshchur/django-auth-template/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestNewAccessClaims(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := jwtx.NewAccessClaims("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", 30*time.Second, now)

	require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", c.UserID)
	require.Equal(t, now, c.IssuedAt.Time)
	require.Equal(t, now.Add(30*time.Second), c.ExpiresAt.Time)
	require.NoError(t, c.Validate())
}

func TestClaimsValidateRequiresUserID(t *testing.T) {
	c := jwtx.NewAccessClaims("  ", time.Minute, time.Now())
	require.ErrorIs(t, c.Validate(), jwtx.ErrInvalidClaim)
}

func TestClaimsWireShape(t *testing.T) {
	signer, err := jwtx.NewSignerHS256([]byte(strings.Repeat("k", jwtx.MinSecretLength)))
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", time.Minute, time.Unix(1700000000, 0)))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(payload, &m))

	// Only the three documented fields travel in the payload.
	require.Len(t, m, 3)
	require.Equal(t, "user-1", m["user_id"])
	require.EqualValues(t, 1700000000, m["iat"])
	require.EqualValues(t, 1700000060, m["exp"])
}
