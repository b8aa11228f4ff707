package daemon

import (
	"context"
	"time"

	"go.trai.ch/tgraph/internal/core/domain"
	"go.trai.ch/tgraph/internal/core/ports"
	"google.golang.org/grpc"
)

const serviceName = "tgraph.daemon.v1.DaemonService"

// PingRequest is the request of the Ping method.
type PingRequest struct{}

// PingResponse reports how long the daemon stays up without further activity.
type PingResponse struct {
	IdleRemaining time.Duration `json:"idle_remaining"`
}

// StatusRequest is the request of the Status method.
type StatusRequest struct{}

// StatusResponse is the wire form of ports.DaemonStatus.
type StatusResponse struct {
	PID           int                 `json:"pid"`
	Uptime        time.Duration       `json:"uptime"`
	LastActivity  time.Time           `json:"last_activity"`
	IdleRemaining time.Duration       `json:"idle_remaining"`
	Counters      domain.Counters     `json:"counters"`
	Cache         []domain.CacheStats `json:"cache"`
}

// ShutdownRequest is the request of the Shutdown method.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}

// serviceServer is the set of methods a daemon server registers.
type serviceServer interface {
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
	Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error)
	Graph(ctx context.Context, req *ports.GraphRequest) (*ports.GraphResponse, error)
	Shutdown(ctx context.Context, req *ShutdownRequest) (*ShutdownResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*serviceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", serviceServer.Ping),
		unary("Status", serviceServer.Status),
		unary("Graph", serviceServer.Graph),
		unary("Shutdown", serviceServer.Shutdown),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "daemon.go",
}

func fullMethod(name string) string {
	return "/" + serviceName + "/" + name
}

func unary[Req, Resp any](
	name string,
	call func(serviceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(serviceServer) //nolint:forcetypeassert // registered with serviceDesc
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req)) //nolint:forcetypeassert // decoded above
			})
		},
	}
}
