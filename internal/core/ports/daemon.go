package ports

import (
	"context"
	"time"

	"go.trai.ch/tgraph/internal/core/domain"
)

//go:generate mockgen -source=daemon.go -destination=mocks/mock_daemon.go -package=mocks

// DaemonStatus represents the current state of the daemon.
type DaemonStatus struct {
	Running       bool
	PID           int
	Uptime        time.Duration
	LastActivity  time.Time
	IdleRemaining time.Duration
	Counters      domain.Counters
	Cache         []domain.CacheStats
}

// GraphRequest asks for the target graph of a set of target patterns.
type GraphRequest struct {
	Targets  []string `json:"targets"`
	Cwd      string   `json:"cwd"`
	Platform string   `json:"platform,omitempty"`
}

// GraphNode is the serializable form of one target graph node.
type GraphNode struct {
	Target    string   `json:"target"`
	Rule      string   `json:"rule"`
	BuildFile string   `json:"build_file"`
	Platform  string   `json:"platform,omitempty"`
	Deps      []string `json:"deps,omitempty"`
}

// GraphResponse is the serializable form of a target graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
}

// DaemonClient defines the interface for communicating with the daemon.
type DaemonClient interface {
	// Ping checks if the daemon is alive and resets the inactivity timer.
	Ping(ctx context.Context) error
	// Status returns the current daemon status.
	Status(ctx context.Context) (*DaemonStatus, error)
	// Graph builds a target graph inside the daemon.
	Graph(ctx context.Context, req *GraphRequest) (*GraphResponse, error)
	// Shutdown requests a graceful daemon shutdown.
	Shutdown(ctx context.Context) error
	// Close releases client resources.
	Close() error
}

// DaemonConnector manages daemon lifecycle from the CLI perspective.
type DaemonConnector interface {
	// Connect returns a client to the daemon, spawning it if necessary.
	Connect(ctx context.Context, ws *domain.Workspace) (DaemonClient, error)
	// Dial returns a client to an already running daemon.
	Dial(ws *domain.Workspace) (DaemonClient, error)
	// IsRunning checks if the daemon process is currently running.
	IsRunning(ws *domain.Workspace) bool
}
