package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// zerrLike is the part of zerr.Error the formatter relies on.
type zerrLike interface {
	Message() string
	Metadata() map[string]any
}

type errorEntry struct {
	Message  string
	Metadata map[string]any
}

// collectErrorEntries flattens an error chain. zerr links without a message
// (context-only wrappers) lend their metadata to the next entry that has one.
// A non-zerr error ends the walk with its full text.
func collectErrorEntries(err error) []errorEntry {
	var (
		entries []errorEntry
		pending map[string]any
	)
	for current := err; current != nil; {
		z, ok := current.(zerrLike)
		if !ok {
			entries = append(entries, errorEntry{Message: current.Error(), Metadata: pending})
			break
		}
		meta := z.Metadata()
		if len(pending) > 0 {
			merged := maps.Clone(pending)
			maps.Copy(merged, meta)
			meta = merged
		}
		if z.Message() == "" {
			pending = meta
		} else {
			entries = append(entries, errorEntry{Message: z.Message(), Metadata: meta})
			pending = nil
		}
		current = errors.Unwrap(current)
	}
	return entries
}

// formatErrorEntries renders the entries as a headline plus a "Caused by" list.
func formatErrorEntries(entries []errorEntry) string {
	var lines []string
	for i, e := range entries {
		msgLines := strings.Split(e.Message, "\n")
		head, indent := "Error: ", "       "
		if i > 0 {
			if i == 1 {
				lines = append(lines, "", "  Caused by:")
			}
			head, indent = "    → ", "      "
		}
		lines = append(lines, head+msgLines[0])
		for _, l := range msgLines[1:] {
			lines = append(lines, indent+l)
		}
		for _, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s=%v", indent, k, e.Metadata[k]))
		}
	}
	return strings.Join(lines, "\n")
}
