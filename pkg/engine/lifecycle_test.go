package engine

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockpit/mockpit/pkg/project"
	"github.com/mockpit/mockpit/pkg/tlsprov"
)

// newTestManager wires a manager around a fresh store, dispatcher, and
// provisioner, mirroring the composition root.
func newTestManager(t *testing.T, endpoints ...project.Endpoint) (*Manager, *project.Store, *tlsprov.Provisioner) {
	t.Helper()
	store := project.NewStore(&project.State{Endpoints: endpoints})
	prov := tlsprov.New(tlsprov.WithDir(t.TempDir()))
	d := NewDispatcher(store)
	m := NewManager(store, prov, NewCORSMiddleware(d, d))
	t.Cleanup(func() {
		_ = m.Stop()
		_ = prov.CleanupEphemeral()
	})
	return m, store, prov
}

func loopbackSettings(port int, enableTLS bool) project.ServerSettings {
	return project.ServerSettings{Port: port, BindAddr: "127.0.0.1", EnableTLS: enableTLS}
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestStartServesRegisteredRoute(t *testing.T) {
	m, _, _ := newTestManager(t,
		project.Endpoint{ID: "users", Method: "GET", Path: "/api/users", Status: 200, Response: `{"ok":true}`},
	)

	status, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, StateRunning, status.State)
	require.NotZero(t, status.Port)

	code, body := httpGet(t, fmt.Sprintf("http://127.0.0.1:%d/api/users", status.Port))
	assert.Equal(t, 200, code)
	assert.Equal(t, `{"ok":true}`, body)
}

func TestUnregisteredRouteIs404(t *testing.T) {
	m, _, _ := newTestManager(t,
		project.Endpoint{ID: "users", Method: "GET", Path: "/api/users", Status: 200, Response: "{}"},
	)

	status, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)

	code, body := httpGet(t, fmt.Sprintf("http://127.0.0.1:%d/unregistered", status.Port))
	assert.Equal(t, 404, code)
	assert.JSONEq(t, `{"error": "Endpoint not found"}`, body)
}

func TestSlowRouteLatency(t *testing.T) {
	m, _, _ := newTestManager(t,
		project.Endpoint{ID: "slow", Method: "GET", Path: "/slow", Status: 200, DelayMs: 500, Response: "{}"},
	)

	status, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)

	start := time.Now()
	code, _ := httpGet(t, fmt.Sprintf("http://127.0.0.1:%d/slow", status.Port))
	elapsed := time.Since(start)

	assert.Equal(t, 200, code)
	assert.GreaterOrEqual(t, elapsed, 500*time.Millisecond)
	assert.Less(t, elapsed, 700*time.Millisecond)
}

func TestStartTLSWithoutConfigFails(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Start(loopbackSettings(0, true))
	require.Error(t, err)

	var tlsErr *TLSConfigError
	assert.ErrorAs(t, err, &tlsErr)

	status := m.Status()
	assert.False(t, status.Running)
	assert.Equal(t, StateStopped, status.State)
}

func TestStartTLSWithInvalidPairFails(t *testing.T) {
	m, store, _ := newTestManager(t)
	st := store.Current().Clone()
	st.TLS = &project.TLSConfig{CertPath: "/nonexistent/cert.pem", KeyPath: "/nonexistent/key.pem"}
	store.Replace(st)

	_, err := m.Start(loopbackSettings(0, true))
	require.Error(t, err)

	var tlsErr *TLSConfigError
	assert.ErrorAs(t, err, &tlsErr)
	assert.Equal(t, StateStopped, m.Status().State)
}

func TestStartTLSWithEphemeralCertificate(t *testing.T) {
	m, store, prov := newTestManager(t,
		project.Endpoint{ID: "users", Method: "GET", Path: "/api/users", Status: 200, Response: `{"ok":true}`},
	)

	certPath, keyPath, err := prov.GenerateEphemeral()
	require.NoError(t, err)

	st := store.Current().Clone()
	st.TLS = &project.TLSConfig{CertPath: certPath, KeyPath: keyPath}
	store.Replace(st)

	status, err := m.Start(loopbackSettings(0, true))
	require.NoError(t, err)
	assert.True(t, status.IsTLS)

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed test cert
	}}
	resp, err := client.Get(fmt.Sprintf("https://127.0.0.1:%d/api/users", status.Port))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestBindFailure(t *testing.T) {
	// Occupy a port so the manager cannot bind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	m, _, _ := newTestManager(t)
	_, err = m.Start(loopbackSettings(port, false))
	require.Error(t, err)

	var bindErr *BindError
	assert.ErrorAs(t, err, &bindErr)
	assert.Equal(t, StateStopped, m.Status().State)
}

func TestStopReleasesListener(t *testing.T) {
	m, _, _ := newTestManager(t)

	status, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)

	require.NoError(t, m.Stop())
	assert.Equal(t, StateStopped, m.Status().State)
	assert.False(t, m.IsRunning())

	_, err = net.DialTimeout("tcp", status.BoundAddr, 200*time.Millisecond)
	assert.Error(t, err, "listener must be unbound after stop")
}

func TestStopWhenNotRunning(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.ErrorIs(t, m.Stop(), ErrNotRunning)

	_, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)
	require.NoError(t, m.Stop())
	assert.ErrorIs(t, m.Stop(), ErrNotRunning)
}

func TestStartWhileRunningRestarts(t *testing.T) {
	m, _, _ := newTestManager(t,
		project.Endpoint{ID: "e", Method: "GET", Path: "/x", Status: 200, Response: "{}"},
	)

	first, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)

	second, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)
	assert.NotEqual(t, first.Port, second.Port)

	// Exactly one running instance afterward, bound to the new settings.
	status := m.Status()
	assert.True(t, status.Running)
	assert.Equal(t, second.Port, status.Port)

	code, _ := httpGet(t, fmt.Sprintf("http://127.0.0.1:%d/x", second.Port))
	assert.Equal(t, 200, code)

	_, err = net.DialTimeout("tcp", first.BoundAddr, 200*time.Millisecond)
	assert.Error(t, err, "previous listener must be gone")
}

func TestLiveRouteSwapWithoutRestart(t *testing.T) {
	m, store, _ := newTestManager(t,
		project.Endpoint{ID: "old", Method: "GET", Path: "/old", Status: 200, Response: "old"},
	)

	status, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)
	base := fmt.Sprintf("http://127.0.0.1:%d", status.Port)

	code, _ := httpGet(t, base+"/new")
	assert.Equal(t, 404, code)

	st := store.Current().Clone()
	st.Endpoints = append(st.Endpoints, project.Endpoint{
		ID: "new", Method: "GET", Path: "/new", Status: 201, Response: "added live",
	})
	store.Replace(st)

	code, body := httpGet(t, base+"/new")
	assert.Equal(t, 201, code)
	assert.Equal(t, "added live", body)

	// The old route keeps working on the same listener.
	code, _ = httpGet(t, base+"/old")
	assert.Equal(t, 200, code)
}

func TestStatusDuringLifecycle(t *testing.T) {
	m, _, _ := newTestManager(t)

	st := m.Status()
	assert.Equal(t, StateStopped, st.State)
	assert.False(t, st.Running)
	assert.Zero(t, st.Port)

	started, err := m.Start(loopbackSettings(0, false))
	require.NoError(t, err)
	assert.Equal(t, started, m.Status())

	require.NoError(t, m.Stop())
	assert.Equal(t, StateStopped, m.Status().State)
}
