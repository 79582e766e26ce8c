package webdriver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DriverConfig describes the driver executable to launch.
type DriverConfig struct {
	Path           string        `mapstructure:"path" yaml:"path"`
	Port           int           `mapstructure:"port" yaml:"port"`
	Browser        string        `mapstructure:"browser" yaml:"browser"`
	StartupTimeout time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
}

// Driver is a running geckodriver or chromedriver process.
type Driver struct {
	cmd    *exec.Cmd
	url    string
	exited chan struct{}
	logger *zap.Logger
}

// StartDriver launches the driver on cfg.Port and waits until its status
// endpoint reports ready. The process is killed if it does not become ready
// within cfg.StartupTimeout.
func StartDriver(ctx context.Context, cfg DriverConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Path == "" {
		return nil, errors.New("driver path is empty")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid driver port %d", cfg.Port)
	}

	cmd := exec.Command(cfg.Path, "--port="+strconv.Itoa(cfg.Port))
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	logger.Info("Starting driver", zap.String("path", cfg.Path), zap.Int("port", cfg.Port))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start driver: %w", err)
	}

	d := &Driver{
		cmd:    cmd,
		url:    "http://localhost:" + strconv.Itoa(cfg.Port),
		exited: make(chan struct{}),
		logger: logger,
	}
	go func() {
		_ = cmd.Wait()
		close(d.exited)
	}()

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := d.waitReady(ctx, timeout); err != nil {
		_ = d.Stop()
		return nil, err
	}
	return d, nil
}

// URL is the base URL of the driver's HTTP endpoint.
func (d *Driver) URL() string { return d.url }

func (d *Driver) waitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if ready, _ := Ready(ctx, d.url, nil); ready {
			return nil
		}
		select {
		case <-d.exited:
			return errors.New("driver exited before it became ready")
		case <-ctx.Done():
			return fmt.Errorf("driver not ready: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Stop kills the driver process and waits for it to exit.
func (d *Driver) Stop() error {
	if d == nil || d.cmd == nil || d.cmd.Process == nil {
		return nil
	}
	d.logger.Info("Stopping driver")
	if err := d.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill driver: %w", err)
	}
	<-d.exited
	return nil
}

// Ready queries the status endpoint of a remote end.
func Ready(ctx context.Context, baseURL string, client *http.Client) (bool, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/status", nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	var status struct {
		Value struct {
			Ready bool `json:"ready"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, fmt.Errorf("failed to decode status: %w", err)
	}
	return status.Value.Ready, nil
}
