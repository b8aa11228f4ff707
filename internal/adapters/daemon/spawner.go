package daemon

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DaemonConnector = (*Connector)(nil)

const (
	pollInterval    = 100 * time.Millisecond
	maxPollDuration = 5 * time.Second
	pingTimeout     = time.Second
)

// Connector implements ports.DaemonConnector by re-executing the current
// binary as "daemon serve" in the workspace root.
type Connector struct {
	executablePath string
}

// NewConnector creates a connector spawning the running executable.
func NewConnector() (*Connector, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine executable path")
	}
	return &Connector{executablePath: exe}, nil
}

// Connect returns a client to the workspace daemon, spawning it if necessary.
func (c *Connector) Connect(ctx context.Context, ws *domain.Workspace) (ports.DaemonClient, error) {
	if client, err := c.dialResponsive(ctx, ws); err == nil {
		return client, nil
	}

	if err := c.Spawn(ctx, ws); err != nil {
		return nil, err
	}

	client, err := c.dialResponsive(ctx, ws)
	if err != nil {
		return nil, zerr.Wrap(err, "daemon started but is not responsive")
	}
	return client, nil
}

// Dial returns a client to an already running daemon.
func (c *Connector) Dial(ws *domain.Workspace) (ports.DaemonClient, error) {
	return Dial(ws)
}

// IsRunning reports whether the workspace daemon answers a ping.
func (c *Connector) IsRunning(ws *domain.Workspace) bool {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	client, err := c.dialResponsive(ctx, ws)
	if err != nil {
		return false
	}
	_ = client.Close()
	return true
}

func (c *Connector) dialResponsive(ctx context.Context, ws *domain.Workspace) (*Client, error) {
	if _, err := os.Stat(ws.DaemonSocketPath()); err != nil {
		return nil, domain.ErrDaemonNotRunning
	}
	client, err := Dial(ws)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Spawn starts the daemon process in the background and waits until it answers.
func (c *Connector) Spawn(ctx context.Context, ws *domain.Workspace) error {
	if err := ws.EnsureDaemonDir(); err != nil {
		return zerr.Wrap(err, "failed to create daemon directory")
	}

	logPath := ws.DaemonLogPath()
	//nolint:gosec // G304: the log path is derived from the workspace root
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.PrivateFilePerm)
	if err != nil {
		return zerr.Wrap(err, "failed to open daemon log")
	}

	//nolint:gosec // G204: executablePath is our own binary and the args are fixed
	cmd := exec.Command(c.executablePath, "daemon", "serve")
	cmd.Dir = ws.Root
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return zerr.Wrap(err, domain.ErrDaemonSpawnFailed.Error())
	}

	go func() {
		_ = cmd.Wait()
		_ = logFile.Close()
	}()

	return c.waitForStartup(ctx, ws)
}

func (c *Connector) waitForStartup(ctx context.Context, ws *domain.Workspace) error {
	deadline := time.Now().Add(maxPollDuration)
	for time.Now().Before(deadline) {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		client, err := c.dialResponsive(pingCtx, ws)
		cancel()
		if err == nil {
			_ = client.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return domain.Cancelled(ctx.Err())
		case <-time.After(pollInterval):
		}
	}
	return zerr.With(zerr.Wrap(domain.ErrDaemonSpawnFailed, "daemon did not become responsive"), "log", ws.DaemonLogPath())
}
