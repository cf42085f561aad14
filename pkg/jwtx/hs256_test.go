package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maratshchur/django-auth-template/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newPair(t *testing.T, now func() time.Time) (*jwtx.HS256Signer, *jwtx.HS256Verifier) {
	t.Helper()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	verifier, err := jwtx.NewVerifierHS256(testSecret, jwtx.WithClock(now))
	require.NoError(t, err)

	return signer, verifier
}

func TestHS256SignAndVerify(t *testing.T) {
	now := time.Now()
	signer, verifier := newPair(t, func() time.Time { return now })

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", time.Minute, now))
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestHS256RejectsWeakSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewVerifierHS256(nil)
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestHS256ExpiryBoundary(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	clock := issued
	signer, verifier := newPair(t, func() time.Time { return clock })

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", 30*time.Second, issued))
	require.NoError(t, err)

	clock = issued.Add(29 * time.Second)
	_, err = verifier.Verify(token)
	require.NoError(t, err, "token is valid before exp")

	clock = issued.Add(31 * time.Second)
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestHS256Leeway(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	verifier, err := jwtx.NewVerifierHS256(testSecret,
		jwtx.WithClock(func() time.Time { return issued.Add(35 * time.Second) }),
		jwtx.WithLeeway(10*time.Second),
	)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims("user-1", 30*time.Second, issued))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.NoError(t, err)
}

func TestHS256VerifyFailures(t *testing.T) {
	now := time.Now()
	signer, verifier := newPair(t, func() time.Time { return now })

	good, err := signer.Sign(jwtx.NewAccessClaims("user-1", time.Minute, now))
	require.NoError(t, err)

	otherSigner, err := jwtx.NewSignerHS256([]byte(strings.Repeat("z", 32)))
	require.NoError(t, err)
	wrongKey, err := otherSigner.Sign(jwtx.NewAccessClaims("user-1", time.Minute, now))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtx.NewAccessClaims("user-1", time.Minute, now)).
		SignedString(testSecret)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewAccessClaims("user-1", time.Minute, now)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := signer.Sign(jwtx.NewAccessClaims("", time.Minute, now))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{UserID: "user-1"}).SignedString(testSecret)
	require.NoError(t, err)

	tampered := []byte(good)
	i := len(tampered) - 5
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}

	expiredWrongKey, err := otherSigner.Sign(jwtx.NewAccessClaims("user-1", time.Minute, now.Add(-time.Hour)))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", jwtx.ErrMalformed},
		{"empty", "", jwtx.ErrMalformed},
		{"tampered signature", string(tampered), jwtx.ErrInvalidSig},
		{"wrong key", wrongKey, jwtx.ErrInvalidSig},
		{"wrong algorithm", hs512, jwtx.ErrInvalidSig},
		{"alg none", none, jwtx.ErrInvalidSig},
		{"expired but forged", expiredWrongKey, jwtx.ErrInvalidSig},
		{"missing user_id", noSubject, jwtx.ErrInvalidClaim},
		{"missing exp", noExp, jwtx.ErrInvalidClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
