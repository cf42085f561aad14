package service

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/maratshchur/django-auth-template/internal/auth/store/drivers/sqlite"
	"github.com/maratshchur/django-auth-template/pkg/cryptox"
	"github.com/maratshchur/django-auth-template/pkg/jwtx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// clock is a settable time source shared by every service in a harness.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	clock       *clock
	store       *sqlite.Store
	metrics     *Metrics
	credentials *CredentialService
	issuer      *TokenIssuer
	verifier    *TokenVerifier
	sessions    *SessionService
	users       *UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clk := &clock{now: time.Unix(1735689600, 0).UTC()}

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	v, err := jwtx.NewVerifierHS256(testSecret, jwtx.WithClock(clk.Now))
	require.NoError(t, err)

	m := NewMetrics(prometheus.NewRegistry())
	creds := &CredentialService{Store: st, Now: clk.Now}
	issuer := &TokenIssuer{
		Signer:     signer,
		Store:      st,
		AccessTTL:  30 * time.Second,
		RefreshTTL: 2592000 * time.Second,
		Now:        clk.Now,
		Metrics:    m,
	}

	return &harness{
		clock:       clk,
		store:       st,
		metrics:     m,
		credentials: creds,
		issuer:      issuer,
		verifier:    &TokenVerifier{Verifier: v, Store: st},
		sessions:    &SessionService{Credentials: creds, Issuer: issuer, Store: st, Now: clk.Now, Metrics: m},
		users:       &UserService{Store: st, Now: clk.Now},
	}
}
