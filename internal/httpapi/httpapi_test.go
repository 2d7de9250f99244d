package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dellswitch/switchctl/internal/audit"
	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/credentials"
	"github.com/dellswitch/switchctl/internal/governor"
	"github.com/dellswitch/switchctl/internal/hostload"
	"github.com/dellswitch/switchctl/internal/inventory"
	"github.com/dellswitch/switchctl/internal/mactrace"
	"github.com/dellswitch/switchctl/internal/switchdriver"
	"github.com/dellswitch/switchctl/internal/vlanchange"
)

// testHarness wires a Router against real (in-memory) collaborators, the
// same way cmd/switchctld/main.go does, so a request exercises the whole
// gate chain (auth -> role -> host-load -> engine) instead of a handler in
// isolation. The inventory starts empty: engine calls against an unknown
// switch ID fail fast on the inventory lookup, before ever trying to dial,
// which is enough to exercise every error-shaping path this package owns
// without a real SSH endpoint.
type testHarness struct {
	echo   *echo.Echo
	router *Router
	auth   *auth.Service
	users  *auth.LocalUserRepository
	audit  *audit.MemorySink
	guard  *hostload.Guard
	load   *controllableLoad
	inv    *inventory.MemoryStore
	creds  *credentials.Store
	gov    *governor.Governor
}

// controllableLoad lets a test flip the value hostload.Guard's background
// loop samples, without needing access to the package's unexported tick.
type controllableLoad struct {
	mu    sync.Mutex
	value float64
}

func (l *controllableLoad) set(v float64) {
	l.mu.Lock()
	l.value = v
	l.mu.Unlock()
}

func (l *controllableLoad) sample() (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, nil
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	priv, pub, err := auth.GenerateKeyPair()
	require.NoError(t, err)
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{PrivateKey: priv, PublicKey: pub})
	require.NoError(t, err)

	passwords := auth.NewDefaultPasswordService()
	users := auth.NewLocalUserRepository()
	sessions := auth.NewMemorySessionRepository()

	authSvc, err := auth.NewService(auth.Config{
		JWTService:        jwtSvc,
		PasswordService:   passwords,
		UserRepository:    users,
		SessionRepository: sessions,
	})
	require.NoError(t, err)

	inv := inventory.NewMemoryStore()
	creds, err := credentials.NewStore(credentials.Credential{Username: "svc", Secret: "s3cr3t"})
	require.NoError(t, err)
	gov := governor.New(governor.Limits{})

	traceEngine := mactrace.NewEngine(inv, creds, gov, switchdriver.DialOptions{})
	vlanEngine := vlanchange.NewEngine(inv, creds, gov, switchdriver.DialOptions{})

	auditSink := audit.NewMemorySink()
	load := &controllableLoad{}
	guard := hostload.New(hostload.Thresholds{YellowAt: 0.4, RedAt: 0.6, WindowSize: 1, SampleEvery: 2 * time.Millisecond}, load.sample, nil)
	guard.Start()
	t.Cleanup(guard.Stop)

	router := New(Config{
		Auth:       authSvc,
		MacTrace:   traceEngine,
		VlanChange: vlanEngine,
		Inventory:  inv,
		HostLoad:   guard,
		Audit:      auditSink,
	})

	e := echo.New()
	router.Register(e)

	return &testHarness{echo: e, router: router, auth: authSvc, users: users, audit: auditSink, guard: guard, load: load, inv: inv, creds: creds, gov: gov}
}

// forceRed drives the load sampler to a value past the red threshold and
// waits for the guard's background loop to classify it, so a test can
// exercise the host-load gate without reaching into package-private state.
func (h *testHarness) forceRed(t *testing.T) {
	t.Helper()
	h.load.set(0.9)
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if h.guard.Current() == hostload.Red {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("guard never transitioned to red")
}

func (h *testHarness) createUser(t *testing.T, username, password string, role auth.Role) {
	t.Helper()
	hash, err := auth.NewDefaultPasswordService().HashPassword(password)
	require.NoError(t, err)
	err = h.users.Create(context.Background(), &auth.User{
		ID:              "id-" + username,
		Username:        username,
		PasswordHash:    hash,
		Role:            role,
		Active:          true,
		PasswordChanged: time.Now(),
	})
	require.NoError(t, err)
}

const testPassword = "securePass123"

// loginAs logs username in over the real /login handler and returns the
// access-token cookie so callers can attach it to subsequent requests.
func (h *testHarness) loginAs(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(loginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == "access_token" {
			return c
		}
	}
	t.Fatal("no access_token cookie set by /login")
	return nil
}

func (h *testHarness) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	return rec
}
