// Package walker traverses the filesystem from one or more roots, applying
// exclusion patterns and the depth bound, and yields an ordered sequence of
// visited entries.
package walker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/swapnikshah/promptgen/internal/limits"
	"github.com/swapnikshah/promptgen/internal/matcher"
	"github.com/swapnikshah/promptgen/internal/utils"
)

const (
	warningStatPathFormat      = "Warning: unable to stat %s: %v"
	warningSkipDirectoryFormat = "Warning: skipping directory %s due to error: %v"
	warningResolvePathFormat   = "Warning: unable to resolve %s: %v"

	errorReadDirectoryFormat = "reading directory %s: %v"
)

// Entry is one filesystem node visited during a walk. Read-only after creation.
type Entry struct {
	// AbsolutePath is the cleaned absolute path of the node.
	AbsolutePath string
	// RelativePath is the path relative to the scan root, "." for a directory root.
	RelativePath string
	// Name is the final path element.
	Name string
	// RootIndex identifies which configured root produced the entry.
	RootIndex int
	// Depth is the number of directory levels below the root; a root is 0.
	Depth int
	// IsDirectory reports whether the node is a directory.
	IsDirectory bool
	// SizeBytes is the file size from metadata; zero for directories.
	SizeBytes int64
	// Included reports whether the entry survives pattern and size filtering.
	Included bool
	// ExcludedByPattern marks entries matched by an exclusion pattern.
	ExcludedByPattern bool
	// ExcludedForSize marks files over the per-file size bound in content mode.
	ExcludedForSize bool
	// DepthBoundary marks directories whose children were cut off by the depth bound.
	DepthBoundary bool
	// IsLastSibling reports whether the entry is the last yielded child of its parent.
	IsLastSibling bool
}

// TraversalError reports a filesystem failure at a specific path. It is fatal
// when the failing path is a root or part of a symlink cycle; other occurrences
// are downgraded to warnings by the walker itself.
type TraversalError struct {
	Path string
	Err  error
}

func (traversalError *TraversalError) Error() string {
	return fmt.Sprintf("traversal failed at %s: %v", traversalError.Path, traversalError.Err)
}

func (traversalError *TraversalError) Unwrap() error {
	return traversalError.Err
}

// errCyclicSymlink marks a directory reached twice through symlink resolution.
var errCyclicSymlink = errors.New("cyclic symbolic link")

// directoryReadError marks a failed directory listing. It is the only error
// kind a parent frame may downgrade to a warning; handler errors and
// TraversalError values always propagate unchanged.
type directoryReadError struct {
	path string
	err  error
}

func (readError *directoryReadError) Error() string {
	return fmt.Sprintf(errorReadDirectoryFormat, readError.path, readError.err)
}

func (readError *directoryReadError) Unwrap() error {
	return readError.err
}

// Options configures a TreeWalker.
type Options struct {
	// Roots are validated absolute paths, walked in order.
	Roots []string
	// Matcher decides pattern-based exclusion; nil means nothing is excluded.
	Matcher *matcher.PatternMatcher
	// MaxDepth bounds traversal depth per root; a negative value disables it.
	MaxDepth int
	// Limits, when non-nil, provides the per-file size gate for content mode.
	// Size filtering never removes entries from the yielded sequence.
	Limits *limits.Enforcer
	// Warn receives recoverable per-entry diagnostics.
	Warn func(message string)
}

// TreeWalker produces a lazy, finite, non-restartable sequence of entries in
// depth-first pre-order with lexically ordered siblings.
type TreeWalker struct {
	options Options
}

// NewTreeWalker constructs a TreeWalker for the provided options.
func NewTreeWalker(options Options) *TreeWalker {
	if options.Warn == nil {
		options.Warn = func(string) {}
	}
	return &TreeWalker{options: options}
}

// Walk yields every entry to handler. Handler errors abort the walk
// immediately and are returned unchanged. A failing root or a symlink cycle is
// fatal; a failed stat or directory listing below a root is reported through
// Warn and skipped.
func (treeWalker *TreeWalker) Walk(handler func(Entry) error) error {
	for rootIndex, rootPath := range treeWalker.options.Roots {
		if walkError := treeWalker.walkRoot(rootIndex, rootPath, handler); walkError != nil {
			return walkError
		}
	}
	return nil
}

func (treeWalker *TreeWalker) walkRoot(rootIndex int, rootPath string, handler func(Entry) error) error {
	rootInfo, rootStatError := os.Stat(rootPath)
	if rootStatError != nil {
		return &TraversalError{Path: rootPath, Err: rootStatError}
	}

	// Roots are matched by basename, so an explicitly passed path is still
	// subject to the exclusion patterns.
	rootExcluded := false
	if treeWalker.options.Matcher != nil {
		rootExcluded = treeWalker.options.Matcher.Matches(filepath.Base(rootPath), rootInfo.IsDir())
	}

	if !rootInfo.IsDir() {
		fileEntry := Entry{
			AbsolutePath:      rootPath,
			RelativePath:      filepath.Base(rootPath),
			Name:              filepath.Base(rootPath),
			RootIndex:         rootIndex,
			Depth:             0,
			SizeBytes:         rootInfo.Size(),
			Included:          !rootExcluded,
			ExcludedByPattern: rootExcluded,
			IsLastSibling:     true,
		}
		treeWalker.applySizeGate(&fileEntry)
		return handler(fileEntry)
	}

	rootEntry := Entry{
		AbsolutePath:      rootPath,
		RelativePath:      ".",
		Name:              filepath.Base(rootPath),
		RootIndex:         rootIndex,
		Depth:             0,
		IsDirectory:       true,
		Included:          !rootExcluded,
		ExcludedByPattern: rootExcluded,
		DepthBoundary:     !rootExcluded && treeWalker.options.MaxDepth == 0,
		IsLastSibling:     true,
	}
	if handlerError := handler(rootEntry); handlerError != nil {
		return handlerError
	}
	if rootExcluded || rootEntry.DepthBoundary {
		return nil
	}

	visitedDirectories := make(map[string]struct{})
	if resolvedRoot, resolveError := filepath.EvalSymlinks(rootPath); resolveError == nil {
		visitedDirectories[resolvedRoot] = struct{}{}
	}

	walkError := treeWalker.walkDirectory(rootPath, rootPath, rootIndex, 1, visitedDirectories, handler)
	if walkError != nil {
		var listingFailure *directoryReadError
		if errors.As(walkError, &listingFailure) {
			return &TraversalError{Path: listingFailure.path, Err: listingFailure.err}
		}
		return walkError
	}
	return nil
}

// childRecord holds one sibling's metadata between listing and yielding so the
// last displayed sibling can be marked before any entry is produced.
type childRecord struct {
	absolutePath string
	relativePath string
	name         string
	isDirectory  bool
	sizeBytes    int64
	excluded     bool
}

func (treeWalker *TreeWalker) walkDirectory(
	directoryPath string,
	rootPath string,
	rootIndex int,
	childDepth int,
	visitedDirectories map[string]struct{},
	handler func(Entry) error,
) error {
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return &directoryReadError{path: directoryPath, err: readDirectoryError}
	}

	// os.ReadDir returns entries sorted by name, which keeps sibling order
	// stable and reruns byte-identical.
	childRecords := make([]childRecord, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		childInfo, childStatError := os.Stat(childPath)
		if childStatError != nil {
			treeWalker.options.Warn(fmt.Sprintf(warningStatPathFormat, childPath, childStatError))
			continue
		}
		relativePath := utils.RelativePathOrSelf(childPath, rootPath)
		record := childRecord{
			absolutePath: childPath,
			relativePath: relativePath,
			name:         directoryEntry.Name(),
			isDirectory:  childInfo.IsDir(),
		}
		if !record.isDirectory {
			record.sizeBytes = childInfo.Size()
		}
		if treeWalker.options.Matcher != nil {
			record.excluded = treeWalker.options.Matcher.Matches(relativePath, record.isDirectory)
		}
		childRecords = append(childRecords, record)
	}

	maxDepth := treeWalker.options.MaxDepth
	for recordIndex, record := range childRecords {
		entry := Entry{
			AbsolutePath:      record.absolutePath,
			RelativePath:      record.relativePath,
			Name:              record.name,
			RootIndex:         rootIndex,
			Depth:             childDepth,
			IsDirectory:       record.isDirectory,
			SizeBytes:         record.sizeBytes,
			Included:          !record.excluded,
			ExcludedByPattern: record.excluded,
			IsLastSibling:     recordIndex == len(childRecords)-1,
		}
		if record.isDirectory && !record.excluded && maxDepth >= 0 && childDepth == maxDepth {
			entry.DepthBoundary = true
		}
		if !record.isDirectory {
			treeWalker.applySizeGate(&entry)
		}

		if handlerError := handler(entry); handlerError != nil {
			return handlerError
		}

		if !record.isDirectory || record.excluded || entry.DepthBoundary {
			continue
		}

		if cycleError := treeWalker.checkSymlinkCycle(record.absolutePath, visitedDirectories); cycleError != nil {
			return cycleError
		}

		descendError := treeWalker.walkDirectory(record.absolutePath, rootPath, rootIndex, childDepth+1, visitedDirectories, handler)
		if descendError != nil {
			var listingFailure *directoryReadError
			if !errors.As(descendError, &listingFailure) {
				return descendError
			}
			treeWalker.options.Warn(fmt.Sprintf(warningSkipDirectoryFormat, record.absolutePath, listingFailure.err))
		}
	}
	return nil
}

// checkSymlinkCycle resolves directoryPath and fails with a TraversalError when
// the resolved directory was already visited within the current root.
func (treeWalker *TreeWalker) checkSymlinkCycle(directoryPath string, visitedDirectories map[string]struct{}) error {
	resolvedPath, resolveError := filepath.EvalSymlinks(directoryPath)
	if resolveError != nil {
		treeWalker.options.Warn(fmt.Sprintf(warningResolvePathFormat, directoryPath, resolveError))
		return nil
	}
	if _, alreadyVisited := visitedDirectories[resolvedPath]; alreadyVisited {
		return &TraversalError{Path: directoryPath, Err: errCyclicSymlink}
	}
	visitedDirectories[resolvedPath] = struct{}{}
	return nil
}

// applySizeGate flags files over the per-file bound when a size gate is
// configured. Oversized files stay in the sequence for the tree view but are
// excluded from content rendering.
func (treeWalker *TreeWalker) applySizeGate(fileEntry *Entry) {
	if treeWalker.options.Limits == nil || fileEntry.ExcludedByPattern {
		return
	}
	if !treeWalker.options.Limits.FitsFileLimit(fileEntry.SizeBytes) {
		fileEntry.ExcludedForSize = true
		fileEntry.Included = false
	}
}
