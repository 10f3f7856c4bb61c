package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/atc0005/go-nagios"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chr126/nagios-puppet/internal/config"
)

const summaryPage = `<div id="node_summary">
  <a href="/nodes/unresponsive">0</a>
  <a href="/nodes/failed">5</a>
  <a href="/nodes/pending">1</a>
  <a href="/nodes/changed">3</a>
  <a href="/nodes/unchanged">88</a>
</div>`

func parse(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	cmd, opts := newRootCmd()
	require.NoError(t, cmd.ParseFlags(args))
	return resolveConfig(cmd.Flags(), opts)
}

func TestResolveConfigFromFlags(t *testing.T) {
	cfg, err := parse(t,
		"-H", "dashboard.example.com",
		"-p", "3000",
		"-U", "nagios",
		"-P", "secret",
		"-s",
		"-w", "1,1,1,1,1,1",
		"-c", "2,2,2,2,2,2",
	)
	require.NoError(t, err)

	assert.Equal(t, "dashboard.example.com", cfg.Dashboard.Host)
	assert.Equal(t, "3000", cfg.Dashboard.Port)
	assert.True(t, cfg.Dashboard.SSL)
	assert.Equal(t, "Puppet Dashboard", cfg.Dashboard.Realm)
	assert.Equal(t, "nagios", cfg.Credentials().User)
	assert.Equal(t, "1,1,1,1,1,1", cfg.Thresholds.Warning)
	assert.Equal(t, "2,2,2,2,2,2", cfg.Thresholds.Critical)
}

func TestResolveConfigLongFlags(t *testing.T) {
	cfg, err := parse(t,
		"--host=dashboard", "--port=8080", "--realm=Internal",
		"--httpuser=u", "--httppass=p", "--ssl",
		"--warning=1,1,1,1,1,1", "--critical=2,2,2,2,2,2",
	)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Dashboard.Port)
	assert.Equal(t, "Internal", cfg.Credentials().Realm)
	assert.True(t, cfg.Dashboard.SSL)
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := parse(t, "-H", "dashboard", "-w", "1,1,1,1,1,1", "-c", "2,2,2,2,2,2")
	require.NoError(t, err)

	assert.Equal(t, "80", cfg.Dashboard.Port)
	assert.False(t, cfg.Dashboard.SSL)
	assert.Nil(t, cfg.Credentials())
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dashboard:
  host: from-file
  port: 3000
thresholds:
  warning: 1,1,1,1,1,1
  critical: 2,2,2,2,2,2
`), 0600))

	cfg, err := parse(t, "--config", path, "-H", "from-flag")
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Dashboard.Host)
	assert.Equal(t, "3000", cfg.Dashboard.Port)
	assert.Equal(t, "1,1,1,1,1,1", cfg.Thresholds.Warning)
}

func TestResolveConfigMissingRequired(t *testing.T) {
	_, err := parse(t, "-w", "1,1,1,1,1,1", "-c", "2,2,2,2,2,2")
	assert.ErrorContains(t, err, "host is required")

	_, err = parse(t, "-H", "dashboard", "-c", "2,2,2,2,2,2")
	assert.ErrorContains(t, err, "warning thresholds are required")
}

func newDashboard(t *testing.T, status int) (*httptest.Server, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hits := 0
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		hits++
		c.Data(status, "text/html; charset=utf-8", []byte(summaryPage))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func configFor(t *testing.T, srv *httptest.Server, warning, critical string) *config.Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, port, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Dashboard.Host = host
	cfg.Dashboard.Port = port
	cfg.Thresholds.Warning = warning
	cfg.Thresholds.Critical = critical
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunCheck(t *testing.T) {
	tests := []struct {
		name       string
		warning    string
		critical   string
		wantExit   int
		wantOutput string
	}{
		{
			name:       "ok",
			warning:    "1,10,10,10,100,1",
			critical:   "2,20,20,20,200,2",
			wantExit:   nagios.StateOKExitCode,
			wantOutput: "PUPPET DASHBOARD OK",
		},
		{
			name:       "warning",
			warning:    "1,10,1,10,100,1",
			critical:   "2,20,20,20,200,2",
			wantExit:   nagios.StateWARNINGExitCode,
			wantOutput: "PUPPET DASHBOARD WARNING - pending = 1;",
		},
		{
			name:       "critical",
			warning:    "1,1,1,1,100,1",
			critical:   "2,5,20,20,200,2",
			wantExit:   nagios.StateCRITICALExitCode,
			wantOutput: "PUPPET DASHBOARD CRITICAL - failed = 5; pending = 1; changed = 3;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := newDashboard(t, http.StatusOK)

			plugin := nagios.NewPlugin()
			runCheck(context.Background(), configFor(t, srv, tt.warning, tt.critical), plugin, srv.Client())

			assert.Equal(t, 1, *hits)
			assert.Equal(t, tt.wantExit, plugin.ExitStatusCode)
			assert.Equal(t, tt.wantOutput, plugin.ServiceOutput)
		})
	}
}

func TestRunCheckServerError(t *testing.T) {
	srv, _ := newDashboard(t, http.StatusInternalServerError)

	plugin := nagios.NewPlugin()
	runCheck(context.Background(), configFor(t, srv, "1,1,1,1,1,1", "2,2,2,2,2,2"), plugin, srv.Client())

	assert.Equal(t, nagios.StateUNKNOWNExitCode, plugin.ExitStatusCode)
	assert.Equal(t, "PUPPET DASHBOARD UNKNOWN - 500 Internal Server Error", plugin.ServiceOutput)
}

func TestRunCheckInvalidArgumentsMakeNoRequest(t *testing.T) {
	tests := []struct {
		name     string
		warning  string
		critical string
		port     string
	}{
		{"non numeric threshold", "1,1,x,1,1,1", "2,2,2,2,2,2", ""},
		{"wrong arity", "1,1,1", "2,2,2,2,2,2", ""},
		{"warning not below critical", "2,1,1,1,1,1", "2,2,2,2,2,2", ""},
		{"non numeric port", "1,1,1,1,1,1", "2,2,2,2,2,2", "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := newDashboard(t, http.StatusOK)
			cfg := configFor(t, srv, tt.warning, tt.critical)
			if tt.port != "" {
				cfg.Dashboard.Port = tt.port
			}

			plugin := nagios.NewPlugin()
			runCheck(context.Background(), cfg, plugin, srv.Client())

			assert.Equal(t, 0, *hits)
			assert.Equal(t, nagios.StateUNKNOWNExitCode, plugin.ExitStatusCode)
			assert.NotEmpty(t, plugin.ServiceOutput)
		})
	}
}

func TestRunCheckWritesMetricsTextfile(t *testing.T) {
	srv, _ := newDashboard(t, http.StatusOK)
	cfg := configFor(t, srv, "1,1,1,1,100,1", "2,5,20,20,200,2")
	cfg.Prometheus.Textfile = filepath.Join(t.TempDir(), "puppet_dashboard.prom")

	plugin := nagios.NewPlugin()
	runCheck(context.Background(), cfg, plugin, srv.Client())

	data, err := os.ReadFile(cfg.Prometheus.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `puppet_dashboard_nodes{category="failed"} 5`)
	assert.Contains(t, string(data), `puppet_dashboard_nodes{category="unreported"} 0`)
	assert.Contains(t, string(data), `puppet_dashboard_check_status{status="critical"} 2`)
}
