package influx

import (
	"bufio"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/trajgen/internal/config"
	"github.com/OCAP2/trajgen/internal/storage"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify Backend implements storage interfaces
var (
	_ storage.Sink       = (*Backend)(nil)
	_ storage.Exportable = (*Backend)(nil)
)

func testSamples() []core.Sample {
	return []core.Sample{
		{Time: 0, Position: core.NED{}, Velocity: core.NED{N: 200}},
		{Time: 0.1, Position: core.NED{N: 20, D: -5}, Velocity: core.NED{N: 200, D: -50}},
		{Time: 0.2, Position: core.NED{N: 50, E: 40, D: -10}, Velocity: core.NED{E: 200}},
	}
}

// unreachableConfig points at a closed local port.
func unreachableConfig(t *testing.T) config.InfluxConfig {
	return config.InfluxConfig{
		Protocol:   "http",
		Host:       "127.0.0.1",
		Port:       "1",
		Org:        "trajgen",
		Bucket:     "trajectories",
		BackupPath: filepath.Join(t.TempDir(), "backup", "influx.lp.gz"),
	}
}

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var lines []string
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestBackupWhenUnreachable(t *testing.T) {
	cfg := unreachableConfig(t)
	b := New(cfg, "run-1", nil, zerolog.Nop())
	require.NoError(t, b.Init())
	assert.False(t, b.isValid)

	require.NoError(t, b.StartTarget(core.TargetInfo{ID: "t1", Name: "alpha"}, core.DefaultConfiguration()))
	require.NoError(t, b.Append("t1", testSamples()))
	require.NoError(t, b.Close())
	assert.Equal(t, cfg.BackupPath, b.ExportedFilePath())

	lines := readBackup(t, cfg.BackupPath)
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, Measurement+","), line)
		assert.Contains(t, line, "target=t1")
		assert.Contains(t, line, "name=alpha")
		assert.Contains(t, line, "run=run-1")
		assert.Contains(t, line, "lat=")
	}
	assert.Contains(t, lines[2], "n=50")
	assert.Contains(t, lines[2], "e=40")
	assert.Contains(t, lines[2], "d=-10")
}

func TestBackupAltCoordinatesColumns(t *testing.T) {
	cfg := unreachableConfig(t)
	b := New(cfg, "run-1", nil, zerolog.Nop())
	require.NoError(t, b.Init())

	gen := core.DefaultConfiguration()
	gen.AltCoordinates = true
	require.NoError(t, b.StartTarget(core.TargetInfo{ID: "t1"}, gen))
	require.NoError(t, b.Append("t1", testSamples()[2:]))
	require.NoError(t, b.Close())

	lines := readBackup(t, cfg.BackupPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "u=10")
	assert.NotContains(t, lines[0], "name=")
}

func TestBackupWithoutPath(t *testing.T) {
	cfg := unreachableConfig(t)
	cfg.BackupPath = ""
	b := New(cfg, "run-1", nil, zerolog.Nop())
	assert.Error(t, b.Init())
}

func TestTargetErrors(t *testing.T) {
	b := New(unreachableConfig(t), "run-1", nil, zerolog.Nop())
	require.NoError(t, b.Init())
	defer b.Close()

	info := core.TargetInfo{ID: "t1"}
	require.NoError(t, b.StartTarget(info, core.DefaultConfiguration()))
	assert.Error(t, b.StartTarget(info, core.DefaultConfiguration()))
	assert.Error(t, b.Append("missing", testSamples()))
}

func TestPointTime(t *testing.T) {
	b := New(unreachableConfig(t), "run-1", nil, zerolog.Nop())
	b.epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p := b.point(target{info: core.TargetInfo{ID: "t1"}, cfg: core.DefaultConfiguration()}, core.Sample{Time: 1.5})
	assert.Equal(t, b.epoch.Add(1500*time.Millisecond), p.Time())
	assert.Equal(t, Measurement, p.Name())
}

// fakeInflux answers the handful of API calls the sink makes and records
// written line protocol.
type fakeInflux struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping", "/health":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/orgs":
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"orgs":[{"id":"0000000000000001","name":"trajgen"}]}`)
	case "/api/v2/buckets":
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"buckets":[{"id":"0000000000000002","name":"trajectories","retentionRules":[]}]}`)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			if line != "" {
				f.lines = append(f.lines, line)
			}
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestWritesToServer(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := config.InfluxConfig{
		Protocol: "http",
		Host:     u.Hostname(),
		Port:     u.Port(),
		Token:    "token",
		Org:      "trajgen",
		Bucket:   "trajectories",
	}
	b := New(cfg, "run-1", nil, zerolog.Nop())
	require.NoError(t, b.Init())
	assert.True(t, b.isValid)

	require.NoError(t, b.StartTarget(core.TargetInfo{ID: "t1", Name: "alpha"}, core.DefaultConfiguration()))
	require.NoError(t, b.Append("t1", testSamples()))
	require.NoError(t, b.Close())
	assert.Empty(t, b.ExportedFilePath())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.lines, 3)
	assert.Contains(t, fake.lines[0], "target=t1")
}
