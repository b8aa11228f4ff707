package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

// Tagged wraps a sentinel so that it still matches under errors.Is and attaches
// key/value metadata. kv must alternate string keys and values.
func Tagged(sentinel error, kv ...any) error {
	err := zerr.Wrap(sentinel, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}

// Cancelled reports abandoned work as ErrCancelled while keeping cause
// (typically context.Canceled) reachable through errors.Is.
func Cancelled(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return errors.Join(ErrCancelled, cause)
}

var (
	// ErrParse is returned when the interpreter fails to evaluate a build or package file.
	ErrParse = zerr.New("failed to parse build file")

	// ErrBuildFileNotFound is returned when a directory has no build file.
	ErrBuildFileNotFound = zerr.New("build file not found")

	// ErrTargetNotFound is returned when a build file does not declare the requested target.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrInvalidTarget is returned when a target pattern cannot be parsed.
	ErrInvalidTarget = zerr.New("invalid target")

	// ErrUnknownCell is returned when a target references a cell that is not configured.
	ErrUnknownCell = zerr.New("unknown cell")

	// ErrUnknownRule is returned when a build file calls a rule that has no descriptor.
	ErrUnknownRule = zerr.New("unknown rule type")

	// ErrAttributeResolution is returned when a configurable attribute cannot be resolved.
	// The more specific attribute errors below wrap it.
	ErrAttributeResolution = zerr.New("failed to resolve attribute")

	// ErrSelectConcatenation is returned when select branches are concatenated for a scalar attribute.
	ErrSelectConcatenation = zerr.Wrap(ErrAttributeResolution, "attribute type doesn't support select concatenation")

	// ErrNoMatchingCondition is returned when no select condition matches and no DEFAULT exists.
	ErrNoMatchingCondition = zerr.Wrap(ErrAttributeResolution, "no matching condition in select")

	// ErrAmbiguousCondition is returned when several select conditions match and none is most specific.
	ErrAmbiguousCondition = zerr.Wrap(ErrAttributeResolution, "ambiguous select conditions")

	// ErrNotConfigurationRule is returned when a select key does not refer to a configuration rule.
	ErrNotConfigurationRule = zerr.Wrap(ErrAttributeResolution, "select key is not a configuration rule")

	// ErrPlatformResolution is returned when the target platform cannot be determined.
	ErrPlatformResolution = zerr.Wrap(ErrAttributeResolution, "failed to resolve target platform")

	// ErrCycleDetected is returned when a cycle is detected in the target graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrBoundaryViolation is returned when an input crosses a package or cell boundary.
	ErrBoundaryViolation = zerr.New("boundary violation")

	// ErrInconsistentNode is returned when the same target resolves to two different nodes.
	ErrInconsistentNode = zerr.New("inconsistent target node in index")

	// ErrIncompatibleTarget is returned when a requested target is incompatible with the platform.
	ErrIncompatibleTarget = zerr.New("target is incompatible with the target platform")

	// ErrCancelled is returned when work is abandoned because the session is shutting down.
	ErrCancelled = zerr.New("operation cancelled")

	// ErrNoTargetsSpecified is returned when no targets are specified for the graph command.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrConfigNotFound is returned when no workspace configuration can be found.
	ErrConfigNotFound = zerr.New("could not find tgraph.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the workspace configuration is well-formed YAML but inconsistent.
	ErrInvalidConfig = zerr.New("invalid workspace configuration")

	// ErrInvalidEnforcement is returned when the boundary enforcement mode is unknown.
	ErrInvalidEnforcement = zerr.New("invalid enforcement mode, expected 'enforce', 'warn' or 'disabled'")

	// ErrInvalidOutputMode is returned when the --output flag names an unknown mode.
	ErrInvalidOutputMode = zerr.New("invalid output mode, expected 'auto', 'pretty', 'plain' or 'json'")

	// ErrDaemonNotRunning is returned when a daemon operation requires a running daemon.
	ErrDaemonNotRunning = zerr.New("daemon is not running")

	// ErrDaemonSpawnFailed is returned when the daemon process cannot be started.
	ErrDaemonSpawnFailed = zerr.New("failed to spawn daemon")
)
