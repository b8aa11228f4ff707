package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/muesli/termenv"
	"go.trai.ch/tgraph/internal/adapters/detector" //nolint:depguard // Wired in app layer
	"go.trai.ch/tgraph/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	colorTarget = "#2563EB"
	colorMuted  = "#667085"
)

// renderGraph writes the graph in the given mode.
func renderGraph(w io.Writer, profile termenv.Profile, mode detector.OutputMode, resp *ports.GraphResponse) error {
	switch mode {
	case detector.ModeJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return zerr.Wrap(err, "failed to encode graph")
		}
		return nil
	case detector.ModePretty:
		return renderPretty(termenv.NewOutput(w, termenv.WithProfile(profile)), resp)
	default:
		for _, n := range resp.Nodes {
			if _, err := fmt.Fprintln(w, n.Target); err != nil {
				return err
			}
		}
		return nil
	}
}

func renderPretty(out *termenv.Output, resp *ports.GraphResponse) error {
	for _, n := range resp.Nodes {
		header := out.String(n.Target).Foreground(out.Color(colorTarget)).Bold().String()
		meta := fmt.Sprintf("%s  %s", n.Rule, n.BuildFile)
		if n.Platform != "" {
			meta += "  @" + n.Platform
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", header, out.String(meta).Foreground(out.Color(colorMuted))); err != nil {
			return err
		}
		for _, dep := range n.Deps {
			if _, err := fmt.Fprintf(out, "  → %s\n", dep); err != nil {
				return err
			}
		}
	}
	summary := fmt.Sprintf("%d targets", len(resp.Nodes))
	_, err := fmt.Fprintln(out, out.String(summary).Foreground(out.Color(colorMuted)))
	return err
}
