//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".." // relative to ./e2e

const mqttPort nat.Port = "1883/tcp"

func TestSmoke_IngestAndDashboard(t *testing.T) {
	repoRoot := repoRootPath(t)
	brokerHost, brokerPort := startBroker(t)

	server := buildBinary(t, repoRoot, "./cmd/server")
	simulator := buildBinary(t, repoRoot, "./cmd/simulator")
	addr := pickFreeAddr(t)
	today := time.Now().UTC().Format("2006-01-02")

	cmd := exec.Command(server)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=info",
		"HTTP_ADDR="+addr,
		// The server is its own data source.
		"HOST_API=http://"+addr,
		"DASHBOARD_DATES="+today,
		"DASHBOARD_DEFAULT_DATE="+today,
		"DB_DRIVER=sqlite3",
		"SQLITE_PATH="+filepath.Join(t.TempDir(), "riego.db"),
		"MQTT_BROKER="+brokerHost,
		"MQTT_PORT="+brokerPort,
		"MQTT_CLIENT_ID=riego-e2e-server",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	client := &http.Client{Timeout: 5 * time.Second}
	base := "http://" + addr
	waitFor(t, 15*time.Second, "dashboard ready", func() bool {
		var body map[string]string
		return getJSON(client, base+"/healthz", &body) == nil && body["dashboard"] == "ready"
	})

	sim := exec.Command(simulator)
	sim.Env = append(os.Environ(),
		"APP_ENV=dev",
		"MQTT_BROKER="+brokerHost,
		"MQTT_PORT="+brokerPort,
		"MQTT_CLIENT_ID=riego-e2e-simulator",
		"SIM_DEVICE_ID=parcela-e2e",
		"SIM_INTERVAL=100ms",
		"SIM_COUNT=5",
	)
	sim.Stdout = os.Stdout
	sim.Stderr = os.Stderr
	if err := sim.Run(); err != nil {
		t.Fatalf("simulator: %v", err)
	}

	waitFor(t, 10*time.Second, "readings stored", func() bool {
		var rows []map[string]any
		return getJSON(client, base+"/fecha/"+today, &rows) == nil && len(rows) == 5
	})

	var charts struct {
		Date     string `json:"date"`
		RowCount int    `json:"rowCount"`
	}
	if err := getJSON(client, base+"/api/v1/charts?fecha="+today, &charts); err != nil {
		t.Fatalf("GET /api/v1/charts: %v", err)
	}
	if charts.Date != today || charts.RowCount != 5 {
		t.Errorf("charts = %+v; want date %s with 5 rows", charts, today)
	}

	resp, err := client.Get(base + "/?fecha=" + today)
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status=%d want=%d", resp.StatusCode, http.StatusOK)
	}

	stopServer(t, cmd)
}

func startBroker(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2",
		ExposedPorts: []string{string(mqttPort)},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort(mqttPort).WithStartupTimeout(30 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mosquitto container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("broker host: %v", err)
	}
	port, err := c.MappedPort(ctx, mqttPort)
	if err != nil {
		t.Fatalf("broker port: %v", err)
	}
	return host, port.Port()
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}

	return repo
}

func buildBinary(t *testing.T, repoRoot, pkg string) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), filepath.Base(pkg))

	build := exec.Command("go", "build", "-o", out, pkg)
	build.Dir = repoRoot
	build.Env = os.Environ()

	b, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("go build %s failed: %v\n%s", pkg, err, string(b))
	}

	return out
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen :0: %v", err)
	}
	defer ln.Close()

	return ln.Addr().String()
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("timed out after %s waiting for %s", timeout, what)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("server did not exit in time")
	case err := <-done:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("server exited non-zero: %v", err)
			}
			t.Fatalf("server wait error: %v", err)
		}
	}
}
