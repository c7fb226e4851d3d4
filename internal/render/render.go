// Package render turns the walker's entry sequence into the final output text,
// either a structure listing or concatenated file contents.
package render

import (
	"strings"

	"github.com/swapnikshah/promptgen/internal/walker"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directorySuffix     = "/"
	excludedMarker      = " (excluded)"
	depthBoundaryMarker = " (depth limit)"

	separatorLine        = "----------------------------------------"
	binaryContentOmitted = "(binary content omitted)"
)

// Renderer consumes the walker's entry sequence and produces the final text.
// Handle must see entries in walk order; Flush assembles the result once the
// sequence is exhausted.
type Renderer interface {
	Handle(entry walker.Entry) error
	Flush() (string, error)
}

// treeLineWriter renders connector-style tree lines from a pre-order entry
// sequence. It tracks which ancestors were last siblings so the vertical
// guides stop at the right depth.
type treeLineWriter struct {
	lastFlags []bool
}

// line formats one entry as a tree line without a trailing newline.
func (writer *treeLineWriter) line(entry walker.Entry) string {
	var lineBuilder strings.Builder

	if entry.Depth > 0 {
		ancestorCount := entry.Depth - 1
		if len(writer.lastFlags) > ancestorCount {
			writer.lastFlags = writer.lastFlags[:ancestorCount]
		}
		for _, ancestorWasLast := range writer.lastFlags {
			if ancestorWasLast {
				lineBuilder.WriteString(treeLastPadding)
			} else {
				lineBuilder.WriteString(treeBranchPadding)
			}
		}
		if entry.IsLastSibling {
			lineBuilder.WriteString(treeLastConnector)
		} else {
			lineBuilder.WriteString(treeBranchConnector)
		}
	} else {
		writer.lastFlags = writer.lastFlags[:0]
	}

	lineBuilder.WriteString(entry.Name)
	if entry.IsDirectory {
		lineBuilder.WriteString(directorySuffix)
	}
	if entry.ExcludedByPattern {
		lineBuilder.WriteString(excludedMarker)
	}
	if entry.DepthBoundary {
		lineBuilder.WriteString(depthBoundaryMarker)
	}

	if entry.IsDirectory && entry.Depth > 0 {
		writer.lastFlags = append(writer.lastFlags, entry.IsLastSibling)
	}
	return lineBuilder.String()
}
