package render

import (
	"strings"

	"github.com/swapnikshah/promptgen/internal/walker"
)

// TreeRenderer renders the structure-only view: one line per entry, indented
// by depth, with directories, exclusions, and depth boundaries annotated.
type TreeRenderer struct {
	builder       strings.Builder
	lineWriter    treeLineWriter
	lastRootIndex int
	sawEntry      bool
}

// NewTreeRenderer constructs a TreeRenderer.
func NewTreeRenderer() *TreeRenderer {
	return &TreeRenderer{lastRootIndex: -1}
}

// Handle appends one tree line for the entry.
func (renderer *TreeRenderer) Handle(entry walker.Entry) error {
	if renderer.sawEntry && entry.RootIndex != renderer.lastRootIndex {
		renderer.builder.WriteString("\n")
		renderer.lineWriter = treeLineWriter{}
	}
	renderer.lastRootIndex = entry.RootIndex
	renderer.sawEntry = true

	renderer.builder.WriteString(renderer.lineWriter.line(entry))
	renderer.builder.WriteString("\n")
	return nil
}

// Flush returns the assembled tree text.
func (renderer *TreeRenderer) Flush() (string, error) {
	return renderer.builder.String(), nil
}
