// Package daemon runs the parsing engine as a background process per workspace
// and talks to it over gRPC on a Unix socket.
package daemon

import (
	"context"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

var _ ports.DaemonClient = (*Client)(nil)

// Client implements ports.DaemonClient.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for the workspace daemon. The connection is made
// lazily on the first call.
func Dial(ws *domain.Workspace) (*Client, error) {
	conn, err := grpc.NewClient("unix://"+ws.DaemonSocketPath(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, zerr.Wrap(err, "daemon client creation failed")
	}
	return &Client{conn: conn}, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	var trailer metadata.MD
	err := c.conn.Invoke(ctx, fullMethod(method), req, resp, grpc.Trailer(&trailer))
	return fromStatus(err, trailer)
}

// Ping implements ports.DaemonClient.
func (c *Client) Ping(ctx context.Context) error {
	return c.invoke(ctx, "Ping", &PingRequest{}, &PingResponse{})
}

// Status implements ports.DaemonClient.
func (c *Client) Status(ctx context.Context) (*ports.DaemonStatus, error) {
	var resp StatusResponse
	if err := c.invoke(ctx, "Status", &StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &ports.DaemonStatus{
		Running:       true,
		PID:           resp.PID,
		Uptime:        resp.Uptime,
		LastActivity:  resp.LastActivity,
		IdleRemaining: resp.IdleRemaining,
		Counters:      resp.Counters,
		Cache:         resp.Cache,
	}, nil
}

// Graph implements ports.DaemonClient.
func (c *Client) Graph(ctx context.Context, req *ports.GraphRequest) (*ports.GraphResponse, error) {
	var resp ports.GraphResponse
	if err := c.invoke(ctx, "Graph", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown implements ports.DaemonClient.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.invoke(ctx, "Shutdown", &ShutdownRequest{}, &ShutdownResponse{})
}

// Close implements ports.DaemonClient.
func (c *Client) Close() error {
	return c.conn.Close()
}
