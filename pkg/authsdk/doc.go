/*
Package authsdk provides a client SDK for the authentication service, plus the
request, response and error types the service itself writes.

# Client vs Session

The package is organized around two main types:

  - Client: unauthenticated operations (register, login, refresh, logout, health)
  - Session: operations on /me with automatic token refresh

Register, then log in to obtain a session:

	client := authsdk.NewClient("https://auth.example.com")

	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	})

	session, err := client.LoginSession(ctx, "alice@example.com", "correct horse")

	me, err := session.Me(ctx)

# Automatic Token Refresh

Access tokens are short lived. A Session reads the exp claim of its access
token and refreshes shortly before it passes. If the server still answers
401 "Token has expired", the session refreshes once and retries the request.
Each refresh consumes the current refresh token, so a Session must not share
its refresh token with another client.

# Error Handling

Every non-success response is returned as an *APIError. Single-message
errors can be compared with errors.Is:

	if errors.Is(err, authsdk.ErrInvalidOrExpiredRefreshToken) {
		// log in again
	}

Validation failures carry per-field messages in APIError.Fields.

# Thread Safety

Sessions are safe for concurrent use. Concurrent requests that find the access
token expired trigger a single refresh.
*/
package authsdk
