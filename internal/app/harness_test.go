package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakamura-yasu/fabric-1/internal/readiness"
	"github.com/nakamura-yasu/fabric-1/internal/runner"
	"github.com/nakamura-yasu/fabric-1/internal/session"
)

type fakeOrchestrator struct {
	startupLog string
	fileSpecs  []string
}

func (f *fakeOrchestrator) Up(ctx context.Context, fileSpec string) (string, error) {
	f.fileSpecs = append(f.fileSpecs, fileSpec)
	return f.startupLog, nil
}

type fakeInspector struct {
	records map[string]session.ContainerRecord
}

func (f *fakeInspector) Discover(ctx context.Context, names []string) ([]session.ContainerRecord, error) {
	var out []session.ContainerRecord
	for _, name := range names {
		rec, ok := f.records[name]
		if !ok {
			return nil, fmt.Errorf("no such container: %s", name)
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeProber struct {
	ready map[string]bool
}

func (f *fakeProber) ContainerReady(ctx context.Context, rec session.ContainerRecord) bool {
	return f.ready[rec.Name]
}

type fakeChecker struct {
	converged map[string]bool
}

func (f *fakeChecker) PeerConverged(ctx context.Context, rec session.ContainerRecord, expected int) (bool, error) {
	return f.converged[rec.Name], nil
}

type fakeRunner struct {
	results map[string]runner.Result
}

func (f *fakeRunner) Run(ctx context.Context, argv []string, expectSuccess bool) (runner.Result, error) {
	key := strings.Join(argv, " ")
	res, ok := f.results[key]
	if !ok {
		return runner.Result{}, fmt.Errorf("unscripted command: %s", key)
	}
	return res, nil
}

func writeComposeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	content := `
services:
  vp0:
    image: peer
  vp1:
    image: peer
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func peerRecord(name, ip string) session.ContainerRecord {
	service := strings.TrimSuffix(strings.TrimPrefix(name, "net_"), "_1")
	return session.ContainerRecord{
		Name:      name,
		IPAddress: ip,
		Service:   service,
		Role:      session.RolePeer,
	}
}

func TestComposeUpAccumulatesRegistry(t *testing.T) {
	path := writeComposeFile(t)
	orch := &fakeOrchestrator{startupLog: "Creating net_vp0_1 ... done\nCreating net_vp1_1 ... done\n"}
	insp := &fakeInspector{records: map[string]session.ContainerRecord{
		"net_vp0_1": peerRecord("net_vp0_1", "172.17.0.2"),
		"net_vp1_1": peerRecord("net_vp1_1", "172.17.0.3"),
	}}
	h := NewHarness(orch, insp, &fakeProber{}, &fakeChecker{}, session.NewRegistry(), "net", time.Millisecond, zerolog.Nop())

	require.NoError(t, h.ComposeUp(context.Background(), path))
	assert.Equal(t, 2, h.Registry().Len())

	// A second invocation reporting an overlapping container set only appends
	// the genuinely new one.
	orch.startupLog = "Creating net_vp1_1 ... done\nCreating net_vp2_1 ... done\n"
	insp.records["net_vp2_1"] = peerRecord("net_vp2_1", "172.17.0.4")
	require.NoError(t, h.ComposeUp(context.Background(), path))
	assert.Equal(t, 3, h.Registry().Len())
}

func TestWaitAllReadySucceeds(t *testing.T) {
	reg := session.NewRegistry()
	reg.Merge([]session.ContainerRecord{
		peerRecord("net_vp0_1", "172.17.0.2"),
		peerRecord("net_vp1_1", "172.17.0.3"),
	}, session.MergeAppend)

	h := NewHarness(nil, nil,
		&fakeProber{ready: map[string]bool{"net_vp0_1": true, "net_vp1_1": true}},
		&fakeChecker{converged: map[string]bool{"net_vp0_1": true, "net_vp1_1": true}},
		reg, "net", time.Millisecond, zerolog.Nop())

	ready, err := h.WaitAllReady(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestWaitAllReadyFailsWhenOnePeerNeverConverges(t *testing.T) {
	reg := session.NewRegistry()
	reg.Merge([]session.ContainerRecord{
		peerRecord("net_vp0_1", "172.17.0.2"),
		peerRecord("net_vp1_1", "172.17.0.3"),
	}, session.MergeAppend)

	h := NewHarness(nil, nil,
		&fakeProber{ready: map[string]bool{"net_vp0_1": true, "net_vp1_1": true}},
		&fakeChecker{converged: map[string]bool{"net_vp0_1": true, "net_vp1_1": false}},
		reg, "net", 5*time.Millisecond, zerolog.Nop())

	ready, err := h.WaitAllReady(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ready)
}

// End to end against real prober and checker: scripted docker exec probes plus
// a live HTTP peer endpoint.
func TestWaitAllReadyEndToEnd(t *testing.T) {
	netstat := "tcp 0 0 172.17.0.2:7051 172.17.0.3:40000 ESTABLISHED\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"peers":[{"ID":{"name":"vp0"}},{"ID":{"name":"vp1"}}]}`)
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	r := &fakeRunner{results: map[string]runner.Result{
		"docker exec net_vp0_1 netstat -atun": {Stdout: netstat},
		"docker exec net_vp1_1 netstat -atun": {Stdout: netstat},
		fmt.Sprintf("docker exec net_vp0_1 curl localhost:%d", port): {ExitCode: 0},
		fmt.Sprintf("docker exec net_vp1_1 curl localhost:%d", port): {ExitCode: 0},
	}}
	prober := readiness.NewProber(r, port, zerolog.Nop())
	checker := readiness.NewChecker(readiness.NewPeerClient(port, zerolog.Nop()), zerolog.Nop())

	reg := session.NewRegistry()
	reg.Merge([]session.ContainerRecord{
		peerRecord("net_vp0_1", host),
		peerRecord("net_vp1_1", host),
	}, session.MergeAppend)

	h := NewHarness(nil, nil, prober, checker, reg, "net", 5*time.Millisecond, zerolog.Nop())

	ready, err := h.WaitAllReady(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestWaitAllReadyEndToEndEndpointFailing(t *testing.T) {
	netstat := "tcp 0 0 0.0.0.0:7051 0.0.0.0:* LISTEN\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	r := &fakeRunner{results: map[string]runner.Result{
		"docker exec net_vp0_1 netstat -atun": {Stdout: netstat},
		fmt.Sprintf("docker exec net_vp0_1 curl localhost:%d", port): {ExitCode: 0},
	}}
	prober := readiness.NewProber(r, port, zerolog.Nop())
	checker := readiness.NewChecker(readiness.NewPeerClient(port, zerolog.Nop()), zerolog.Nop())

	reg := session.NewRegistry()
	reg.Merge([]session.ContainerRecord{peerRecord("net_vp0_1", host)}, session.MergeAppend)

	h := NewHarness(nil, nil, prober, checker, reg, "net", 5*time.Millisecond, zerolog.Nop())

	ready, err := h.WaitAllReady(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ready)
}
