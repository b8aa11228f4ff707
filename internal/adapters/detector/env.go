// Package detector picks how command output is rendered.
package detector

import (
	"os"

	"go.trai.ch/tgraph/internal/core/domain"
	"golang.org/x/term"
)

// OutputMode is the rendering mode of graph output.
type OutputMode int

const (
	// ModeAuto detects the mode from the environment.
	ModeAuto OutputMode = iota
	// ModePretty renders an annotated, human oriented listing.
	ModePretty
	// ModePlain prints one target per line for scripts.
	ModePlain
	// ModeJSON prints the graph as JSON.
	ModeJSON
)

// String returns the flag spelling of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModePretty:
		return "pretty"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the mode suited to stdout: pretty on an
// interactive terminal, plain when piped or running in CI.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // fd fits in int

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModePlain
	}
	return ModePretty
}

// ResolveMode applies the --output flag to the detected mode.
func ResolveMode(autoDetected OutputMode, userFlag string) (OutputMode, error) {
	switch userFlag {
	case "pretty":
		return ModePretty, nil
	case "plain":
		return ModePlain, nil
	case "json":
		return ModeJSON, nil
	case "auto", "":
		return autoDetected, nil
	default:
		return autoDetected, domain.Tagged(domain.ErrInvalidOutputMode, "value", userFlag)
	}
}
