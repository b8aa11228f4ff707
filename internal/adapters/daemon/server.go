package daemon

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
)

var _ serviceServer = (*Server)(nil)

// Backend is the parsing engine the daemon keeps warm between requests.
type Backend interface {
	Graph(ctx context.Context, req *ports.GraphRequest) (*ports.GraphResponse, error)
	Counters() domain.Counters
	Stats() []domain.CacheStats
}

// Server serves daemon requests over a Unix socket inside the workspace.
type Server struct {
	ws         *domain.Workspace
	lifecycle  *Lifecycle
	backend    Backend
	logger     ports.Logger
	grpcServer *grpc.Server
}

// NewServer creates a daemon server for the workspace.
func NewServer(ws *domain.Workspace, lifecycle *Lifecycle, backend Backend, logger ports.Logger) *Server {
	s := &Server{
		ws:        ws,
		lifecycle: lifecycle,
		backend:   backend,
		logger:    logger,
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.intercept))
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

// Serve listens on the workspace socket until ctx is done or the daemon shuts
// down. The socket and PID file are removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.ws.EnsureDaemonDir(); err != nil {
		return zerr.Wrap(err, "failed to create daemon directory")
	}

	socketPath := s.ws.DaemonSocketPath()
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return zerr.Wrap(err, "failed to remove stale socket")
	}

	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen on socket"), "socket", socketPath)
	}
	if err := os.Chmod(socketPath, domain.SocketPerm); err != nil {
		_ = lis.Close()
		return zerr.Wrap(err, "failed to set socket permissions")
	}

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(s.ws.DaemonPIDPath(), []byte(pid), domain.PrivateFilePerm); err != nil {
		_ = lis.Close()
		return zerr.Wrap(err, "failed to write PID file")
	}
	defer s.cleanup()

	s.logger.Info("daemon listening on " + socketPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.grpcServer.GracefulStop()
		return ctx.Err()
	case <-s.lifecycle.ShutdownChan():
		s.grpcServer.GracefulStop()
		s.logger.Info("daemon stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) cleanup() {
	_ = os.Remove(s.ws.DaemonSocketPath())
	_ = os.Remove(s.ws.DaemonPIDPath())
}

// intercept keeps the idle clock from running during calls and converts
// domain errors to statuses.
func (s *Server) intercept(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	end := s.lifecycle.Begin()
	defer end()

	resp, err := handler(ctx, req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return resp, nil
}

// Ping implements the Ping method.
func (s *Server) Ping(_ context.Context, _ *PingRequest) (*PingResponse, error) {
	return &PingResponse{IdleRemaining: s.lifecycle.IdleRemaining()}, nil
}

// Status implements the Status method.
func (s *Server) Status(_ context.Context, _ *StatusRequest) (*StatusResponse, error) {
	return &StatusResponse{
		PID:           os.Getpid(),
		Uptime:        s.lifecycle.Uptime(),
		LastActivity:  s.lifecycle.LastActivity(),
		IdleRemaining: s.lifecycle.IdleRemaining(),
		Counters:      s.backend.Counters(),
		Cache:         s.backend.Stats(),
	}, nil
}

// Graph implements the Graph method.
func (s *Server) Graph(ctx context.Context, req *ports.GraphRequest) (*ports.GraphResponse, error) {
	resp, err := s.backend.Graph(ctx, req)
	if err != nil {
		s.logger.Error(err)
		return nil, err
	}
	return resp, nil
}

// Shutdown implements the Shutdown method.
func (s *Server) Shutdown(_ context.Context, _ *ShutdownRequest) (*ShutdownResponse, error) {
	s.lifecycle.Shutdown()
	return &ShutdownResponse{Accepted: true}, nil
}
