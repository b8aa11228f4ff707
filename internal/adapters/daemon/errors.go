package daemon

import (
	"context"
	"errors"

	"go.trai.ch/tgraph/internal/core/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// errorKindKey is the trailer carrying the domain error kind of a failed call.
const errorKindKey = "tgraph-error-kind"

type errorKind struct {
	name     string
	sentinel error
	code     codes.Code
}

// errorKinds is ordered from specific to general; the first match wins.
var errorKinds = []errorKind{
	{"cancelled", domain.ErrCancelled, codes.Canceled},
	{"parse", domain.ErrParse, codes.InvalidArgument},
	{"build_file_not_found", domain.ErrBuildFileNotFound, codes.NotFound},
	{"target_not_found", domain.ErrTargetNotFound, codes.NotFound},
	{"invalid_target", domain.ErrInvalidTarget, codes.InvalidArgument},
	{"unknown_cell", domain.ErrUnknownCell, codes.NotFound},
	{"no_targets", domain.ErrNoTargetsSpecified, codes.InvalidArgument},
	{"cycle", domain.ErrCycleDetected, codes.FailedPrecondition},
	{"boundary", domain.ErrBoundaryViolation, codes.FailedPrecondition},
	{"incompatible", domain.ErrIncompatibleTarget, codes.FailedPrecondition},
	{"platform", domain.ErrPlatformResolution, codes.FailedPrecondition},
	{"attribute", domain.ErrAttributeResolution, codes.FailedPrecondition},
	{"inconsistent", domain.ErrInconsistentNode, codes.Internal},
}

// toStatus converts a domain error into a gRPC status and tags the call with
// its kind so the client can restore the sentinel.
func toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.sentinel) {
			_ = grpc.SetTrailer(ctx, metadata.Pairs(errorKindKey, k.name))
			return status.Error(k.code, err.Error())
		}
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}

// RemoteError is a failure reported by the daemon. It matches the domain
// sentinel the daemon classified it as.
type RemoteError struct {
	msg      string
	sentinel error
}

func (e *RemoteError) Error() string { return e.msg }

// Unwrap returns the domain sentinel, if any.
func (e *RemoteError) Unwrap() error { return e.sentinel }

// fromStatus restores a domain error from a failed call.
func fromStatus(err error, trailer metadata.MD) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() == codes.Unavailable {
		return errors.Join(domain.ErrDaemonNotRunning, err)
	}

	remote := &RemoteError{msg: st.Message()}
	if kinds := trailer.Get(errorKindKey); len(kinds) > 0 {
		for _, k := range errorKinds {
			if k.name == kinds[0] {
				remote.sentinel = k.sentinel
				break
			}
		}
	}
	if remote.sentinel == nil && st.Code() == codes.Canceled {
		remote.sentinel = domain.ErrCancelled
	}
	return remote
}
