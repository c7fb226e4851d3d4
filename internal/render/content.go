package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/swapnikshah/promptgen/internal/limits"
	"github.com/swapnikshah/promptgen/internal/utils"
	"github.com/swapnikshah/promptgen/internal/walker"
)

const (
	fileHeaderFormat    = "File: %s\n"
	fileFooterFormat    = "End of file: %s\n"
	sizeSkippedFormat   = "(skipped: %s exceeds maximum file size)\n"
	unreadableFormat    = "(unreadable: %v)\n"
	warningReadFormat   = "Warning: failed to read file %s: %v"
	budgetSkippedFormat = "%d file(s) skipped: total output limit reached\n"
	sizeSkipTotalFormat = "%d file(s) skipped: exceeds maximum file size\n"
)

// fileRecord holds what the content pass needs from a file entry. The file
// itself is opened only when its section is rendered, one file at a time.
type fileRecord struct {
	absolutePath    string
	relativePath    string
	sizeBytes       int64
	excludedForSize bool
}

// rootBlock accumulates the structure listing and the candidate files of one root.
type rootBlock struct {
	lineWriter  treeLineWriter
	treeBuilder strings.Builder
	files       []fileRecord
}

// ContentRenderer renders the structure listing of every root followed by a
// delimited section per included file, in walk order, gated by the budget
// enforcer. Reaching the budget stops further file bodies; the listing and the
// summary still complete.
type ContentRenderer struct {
	enforcer   *limits.Enforcer
	warn       func(message string)
	rootBlocks []*rootBlock
}

// NewContentRenderer constructs a ContentRenderer around the budget enforcer.
func NewContentRenderer(enforcer *limits.Enforcer, warn func(message string)) *ContentRenderer {
	if warn == nil {
		warn = func(string) {}
	}
	return &ContentRenderer{enforcer: enforcer, warn: warn}
}

// Handle records the entry's structure line and, for files not excluded by
// pattern, queues the file for the content pass.
func (renderer *ContentRenderer) Handle(entry walker.Entry) error {
	for len(renderer.rootBlocks) <= entry.RootIndex {
		renderer.rootBlocks = append(renderer.rootBlocks, &rootBlock{})
	}
	block := renderer.rootBlocks[entry.RootIndex]

	block.treeBuilder.WriteString(block.lineWriter.line(entry))
	block.treeBuilder.WriteString("\n")

	if entry.IsDirectory || entry.ExcludedByPattern {
		return nil
	}
	block.files = append(block.files, fileRecord{
		absolutePath:    entry.AbsolutePath,
		relativePath:    entry.RelativePath,
		sizeBytes:       entry.SizeBytes,
		excludedForSize: entry.ExcludedForSize,
	})
	return nil
}

// Flush assembles the final text: per root, the structure listing followed by
// the file sections, then a summary reporting rendered and skipped files.
func (renderer *ContentRenderer) Flush() (string, error) {
	var outputBuilder strings.Builder
	var renderedFiles int
	var skippedForBudget int
	var skippedForSize int
	budgetExhausted := false

	for _, block := range renderer.rootBlocks {
		outputBuilder.WriteString(block.treeBuilder.String())
		outputBuilder.WriteString("\n")

		for _, file := range block.files {
			if file.excludedForSize {
				skippedForSize++
				note := fmt.Sprintf(fileHeaderFormat, file.relativePath) +
					fmt.Sprintf(sizeSkippedFormat, utils.FormatFileSize(file.sizeBytes)) +
					separatorLine + "\n"
				if !budgetExhausted && renderer.enforcer.TryConsume(len(note)) {
					outputBuilder.WriteString(note)
				} else {
					budgetExhausted = true
				}
				continue
			}

			if budgetExhausted {
				skippedForBudget++
				continue
			}

			section, sectionIsContent := renderer.renderSection(file)
			if !renderer.enforcer.TryConsume(len(section)) {
				budgetExhausted = true
				skippedForBudget++
				continue
			}
			outputBuilder.WriteString(section)
			if sectionIsContent {
				renderedFiles++
			}
		}
	}

	outputBuilder.WriteString(renderSummary(renderedFiles, renderer.enforcer.Consumed(), skippedForBudget, skippedForSize))
	return outputBuilder.String(), nil
}

// renderSection builds the delimited section for one file. The returned flag
// reports whether actual file content was included rather than a placeholder.
// The file handle never outlives this call.
func (renderer *ContentRenderer) renderSection(file fileRecord) (string, bool) {
	var sectionBuilder strings.Builder
	sectionBuilder.WriteString(fmt.Sprintf(fileHeaderFormat, file.relativePath))

	sectionIsContent := false
	fileBytes, readError := os.ReadFile(file.absolutePath)
	switch {
	case readError != nil:
		renderer.warn(fmt.Sprintf(warningReadFormat, file.absolutePath, readError))
		sectionBuilder.WriteString(fmt.Sprintf(unreadableFormat, readError))
	case utils.IsBinary(fileBytes):
		sectionBuilder.WriteString(binaryContentOmitted)
		sectionBuilder.WriteString("\n")
	default:
		sectionBuilder.Write(fileBytes)
		if len(fileBytes) == 0 || fileBytes[len(fileBytes)-1] != '\n' {
			sectionBuilder.WriteString("\n")
		}
		sectionIsContent = true
	}

	sectionBuilder.WriteString(fmt.Sprintf(fileFooterFormat, file.relativePath))
	sectionBuilder.WriteString(separatorLine)
	sectionBuilder.WriteString("\n")
	return sectionBuilder.String(), sectionIsContent
}

// renderSummary formats the closing summary lines.
func renderSummary(renderedFiles, consumedCharacters, skippedForBudget, skippedForSize int) string {
	var summaryBuilder strings.Builder
	fileLabel := "files"
	if renderedFiles == 1 {
		fileLabel = "file"
	}
	summaryBuilder.WriteString(fmt.Sprintf("%d %s, %s rendered\n", renderedFiles, fileLabel, utils.FormatFileSize(int64(consumedCharacters))))
	if skippedForBudget > 0 {
		summaryBuilder.WriteString(fmt.Sprintf(budgetSkippedFormat, skippedForBudget))
	}
	if skippedForSize > 0 {
		summaryBuilder.WriteString(fmt.Sprintf(sizeSkipTotalFormat, skippedForSize))
	}
	return summaryBuilder.String()
}
