package render_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/swapnikshah/promptgen/internal/limits"
	"github.com/swapnikshah/promptgen/internal/matcher"
	"github.com/swapnikshah/promptgen/internal/render"
	"github.com/swapnikshah/promptgen/internal/walker"
)

// renderTree runs the full walk-and-render pipeline for one configuration.
func renderTree(testingHandle *testing.T, options walker.Options, renderer render.Renderer) string {
	testingHandle.Helper()
	treeWalker := walker.NewTreeWalker(options)
	walkError := treeWalker.Walk(renderer.Handle)
	if walkError != nil {
		testingHandle.Fatalf("Walk error: %v", walkError)
	}
	renderedText, flushError := renderer.Flush()
	if flushError != nil {
		testingHandle.Fatalf("Flush error: %v", flushError)
	}
	return renderedText
}

func mustWriteFile(testingHandle *testing.T, path string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(path, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("writing %s: %v", path, writeError)
	}
}

// TestTreeModeMarksExcludedEntries covers the *.log exclusion scenario: the
// excluded file stays in the listing with a marker.
func TestTreeModeMarksExcludedEntries(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "a.txt"), "hello")
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "b.log"), "noise")

	patternMatcher, compileError := matcher.Compile([]string{"*.log"})
	if compileError != nil {
		testingHandle.Fatalf("Compile error: %v", compileError)
	}

	renderedText := renderTree(testingHandle, walker.Options{
		Roots:    []string{rootDirectory},
		Matcher:  patternMatcher,
		MaxDepth: -1,
	}, render.NewTreeRenderer())

	lines := strings.Split(strings.TrimRight(renderedText, "\n"), "\n")
	if len(lines) != 3 {
		testingHandle.Fatalf("expected 3 lines, got %v", lines)
	}
	if lines[0] != filepath.Base(rootDirectory)+"/" {
		testingHandle.Fatalf("unexpected root line: %q", lines[0])
	}
	if lines[1] != "├── a.txt" {
		testingHandle.Fatalf("unexpected included line: %q", lines[1])
	}
	if lines[2] != "└── b.log (excluded)" {
		testingHandle.Fatalf("unexpected excluded line: %q", lines[2])
	}
}

// TestTreeModeConnectorsForNestedDirectories verifies the vertical guides.
func TestTreeModeConnectorsForNestedDirectories(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	if mkdirError := os.MkdirAll(filepath.Join(rootDirectory, "alpha"), 0o755); mkdirError != nil {
		testingHandle.Fatalf("mkdir: %v", mkdirError)
	}
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "alpha", "inner.txt"), "x")
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "beta.txt"), "x")

	renderedText := renderTree(testingHandle, walker.Options{
		Roots:    []string{rootDirectory},
		MaxDepth: -1,
	}, render.NewTreeRenderer())

	lines := strings.Split(strings.TrimRight(renderedText, "\n"), "\n")
	expectedLines := []string{
		filepath.Base(rootDirectory) + "/",
		"├── alpha/",
		"│   └── inner.txt",
		"└── beta.txt",
	}
	if len(lines) != len(expectedLines) {
		testingHandle.Fatalf("expected %d lines, got %v", len(expectedLines), lines)
	}
	for index, expectedLine := range expectedLines {
		if lines[index] != expectedLine {
			testingHandle.Fatalf("line %d: expected %q, got %q", index, expectedLine, lines[index])
		}
	}
}

// TestContentModeSizeGateScenario covers the a.txt/b.log scenario: content for
// the small file, a size-exclusion note for the oversized one.
func TestContentModeSizeGateScenario(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "a.txt"), "hello")
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "b.log"), strings.Repeat("x", 20))

	enforcer := limits.NewEnforcer(12000, 10)
	renderedText := renderTree(testingHandle, walker.Options{
		Roots:    []string{rootDirectory},
		MaxDepth: -1,
		Limits:   enforcer,
	}, render.NewContentRenderer(enforcer, nil))

	if !strings.Contains(renderedText, "File: a.txt\nhello\n") {
		testingHandle.Fatalf("missing small file content:\n%s", renderedText)
	}
	if !strings.Contains(renderedText, "File: b.log\n(skipped: 20b exceeds maximum file size)") {
		testingHandle.Fatalf("missing size-exclusion note:\n%s", renderedText)
	}
	if !strings.Contains(renderedText, "1 file(s) skipped: exceeds maximum file size") {
		testingHandle.Fatalf("missing size-skip summary:\n%s", renderedText)
	}
}

// TestContentModeBudgetStopsAtFirstOverflow covers the input-limit scenario:
// the first file fits, the second is reported as skipped, and nothing is
// partially truncated.
func TestContentModeBudgetStopsAtFirstOverflow(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "a.txt"), "hello")
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "b.txt"), "world")

	enforcer := limits.NewEnforcer(100, 0)
	renderedText := renderTree(testingHandle, walker.Options{
		Roots:    []string{rootDirectory},
		MaxDepth: -1,
		Limits:   enforcer,
	}, render.NewContentRenderer(enforcer, nil))

	if !strings.Contains(renderedText, "File: a.txt\nhello\n") {
		testingHandle.Fatalf("missing first file content:\n%s", renderedText)
	}
	if strings.Contains(renderedText, "world") {
		testingHandle.Fatalf("second file body must not appear:\n%s", renderedText)
	}
	if !strings.Contains(renderedText, "1 file(s) skipped: total output limit reached") {
		testingHandle.Fatalf("missing budget-skip summary:\n%s", renderedText)
	}
}

// TestContentModeBinaryPlaceholder verifies binary files render a note instead
// of raw bytes.
func TestContentModeBinaryPlaceholder(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "data.bin"), "\x00\xff\x00")

	enforcer := limits.NewEnforcer(12000, 0)
	renderedText := renderTree(testingHandle, walker.Options{
		Roots:    []string{rootDirectory},
		MaxDepth: -1,
		Limits:   enforcer,
	}, render.NewContentRenderer(enforcer, nil))

	if !strings.Contains(renderedText, "File: data.bin\n(binary content omitted)") {
		testingHandle.Fatalf("missing binary placeholder:\n%s", renderedText)
	}
	if strings.Contains(renderedText, "\x00") {
		testingHandle.Fatalf("raw binary bytes leaked into the output")
	}
}

// TestContentModeIsIdempotent verifies two passes over an unchanged tree with
// the same configuration produce byte-identical output.
func TestContentModeIsIdempotent(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "a.txt"), "hello")
	mustWriteFile(testingHandle, filepath.Join(rootDirectory, "b.txt"), "world")

	runPipeline := func() string {
		enforcer := limits.NewEnforcer(12000, 1<<20)
		return renderTree(testingHandle, walker.Options{
			Roots:    []string{rootDirectory},
			MaxDepth: -1,
			Limits:   enforcer,
		}, render.NewContentRenderer(enforcer, nil))
	}

	firstPass := runPipeline()
	secondPass := runPipeline()
	if firstPass != secondPass {
		testingHandle.Fatalf("output differs between identical runs:\n%s\n---\n%s", firstPass, secondPass)
	}
}
