package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maratshchur/django-auth-template/pkg/idx"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	user, err := h.credentials.CreateUser(ctx, "alice@Example.com", "pw123456", "alice")
	require.NoError(t, err)
	_, err = idx.Parse(user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, "alice", user.Username)
	require.NotContains(t, user.PasswordHash, "pw123456")
	require.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))

	stored, err := h.store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user, stored)
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.credentials.CreateUser(ctx, "a@x.com", "pw123456", "")
	require.NoError(t, err)

	tests := []struct {
		name             string
		email, pw, uname string
		field            string
	}{
		{"duplicate email", "a@x.com", "pw123456", "", "email"},
		{"duplicate email different domain case", "a@X.COM", "pw123456", "", "email"},
		{"bad email", "not-an-email", "pw123456", "", "email"},
		{"missing email", "", "pw123456", "", "email"},
		{"short password", "b@x.com", "short", "", "password"},
		{"long password", "b@x.com", strings.Repeat("p", 129), "", "password"},
		{"long username", "b@x.com", "pw123456", strings.Repeat("u", 151), "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.credentials.CreateUser(ctx, tt.email, tt.pw, tt.uname)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.NotEmpty(t, ve.Fields[tt.field], "fields: %v", ve.Fields)
		})
	}
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	user, err := h.credentials.CreateUser(ctx, "a@x.com", "pw123456", "")
	require.NoError(t, err)

	got, err := h.credentials.VerifyCredentials(ctx, "a@X.com", "pw123456")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = h.credentials.VerifyCredentials(ctx, "a@x.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = h.credentials.VerifyCredentials(ctx, "nobody@x.com", "pw123456")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
