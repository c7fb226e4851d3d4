// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/swapnikshah/promptgen/internal/config"
	"github.com/swapnikshah/promptgen/internal/limits"
	"github.com/swapnikshah/promptgen/internal/matcher"
	"github.com/swapnikshah/promptgen/internal/render"
	"github.com/swapnikshah/promptgen/internal/services/clipboard"
	"github.com/swapnikshah/promptgen/internal/tokenizer"
	"github.com/swapnikshah/promptgen/internal/utils"
	"github.com/swapnikshah/promptgen/internal/walker"
)

const (
	filesFlagName         = "files"
	filesFlagShorthand    = "f"
	saveFlagName          = "save"
	saveFlagShorthand     = "s"
	projectFlagName       = "project"
	projectFlagShorthand  = "p"
	excludeFlagName       = "exclude"
	excludeFlagShorthand  = "e"
	gitignoreFlagName     = "gitignore"
	excludeConfigFlagName = "exclude-config"
	maxDepthFlagName      = "max-depth"
	inputLimitFlagName    = "input-limit"
	maxFileSizeFlagName   = "max-file-size"
	copyFlagName          = "copy"
	tokensFlagName        = "tokens"
	modelFlagName         = "model"
	versionFlagName       = "version"

	filesFlagDescription         = "paths to directories or files to process"
	saveFlagDescription          = "save output to the specified file"
	projectFlagDescription       = "display only the project structure"
	excludeFlagDescription       = "exclusion pattern (repeatable)"
	gitignoreFlagDescription     = "path to a gitignore file supplying exclusion rules"
	excludeConfigFlagDescription = "path to a JSON or YAML file with an 'exclude' pattern list"
	maxDepthFlagDescription      = "maximum traversal depth below each root; negative disables the bound"
	inputLimitFlagDescription    = "total rendered content budget in characters"
	maxFileSizeFlagDescription   = "maximum size in bytes of a single rendered file"
	copyFlagDescription          = "copy the rendered output to the system clipboard"
	tokensFlagDescription        = "append an estimated token count to the output"
	modelFlagDescription         = "tokenizer model used for the token estimate"
	versionFlagDescription       = "display application version"

	rootUse              = "promptgen"
	rootShortDescription = "render a project's structure or contents for pasting elsewhere"
	rootLongDescription  = `promptgen walks one or more directory trees and emits either an indented
structure listing or the concatenated contents of the matched files, bounded by
a total output budget. Exclusions come from a gitignore file, an exclude-config
file, and --exclude patterns.`
	rootUsageExample = `  # Contents of the current project, honoring .gitignore
  promptgen --gitignore .gitignore

  # Structure only, two levels deep, without logs
  promptgen -p --max-depth 2 -e '*.log'

  # Save a tight excerpt of two folders
  promptgen -f ./cmd -f ./internal --input-limit 4000 -s excerpt.txt`

	versionTemplate = "promptgen version: %s\n"

	savedConfirmationFormat = "Contents stored in %s\n"
	tokenEstimateFormat     = "Estimated tokens: %d (%s)\n"

	warningNegationFormat  = "Warning: negation pattern %q is not supported and was ignored\n"
	warningClipboardFormat = "Warning: failed to copy output to clipboard: %v\n"

	errorAbsolutePathFormat = "abs failed for '%s': %w"
	errorPathMissingFormat  = "path '%s' does not exist"
	errorStatFormat         = "stat failed for '%s': %w"
	errorNoValidPaths       = "no valid paths"
	errorSaveFormat         = "writing output to %s: %w"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
)

// commandOptions stores the raw flag values before resolution.
type commandOptions struct {
	rootPaths         []string
	savePath          string
	projectOnly       bool
	exclusionPatterns []string
	gitignorePath     string
	excludeConfigPath string
	maxDepth          int
	inputLimit        int
	maxFileSize       int64
	copyToClipboard   bool
	countTokens       bool
	tokenizerModel    string
}

// Execute runs the promptgen application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var options commandOptions
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			configuration, configurationError := resolveConfiguration(options)
			if configurationError != nil {
				return configurationError
			}
			return runTool(configuration)
		},
	}

	rootCommand.Flags().StringArrayVarP(&options.rootPaths, filesFlagName, filesFlagShorthand, nil, filesFlagDescription)
	rootCommand.Flags().StringVarP(&options.savePath, saveFlagName, saveFlagShorthand, "", saveFlagDescription)
	rootCommand.Flags().BoolVarP(&options.projectOnly, projectFlagName, projectFlagShorthand, false, projectFlagDescription)
	rootCommand.Flags().StringArrayVarP(&options.exclusionPatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	rootCommand.Flags().StringVar(&options.gitignorePath, gitignoreFlagName, "", gitignoreFlagDescription)
	rootCommand.Flags().StringVar(&options.excludeConfigPath, excludeConfigFlagName, "", excludeConfigFlagDescription)
	rootCommand.Flags().IntVar(&options.maxDepth, maxDepthFlagName, config.UnlimitedDepth, maxDepthFlagDescription)
	rootCommand.Flags().IntVar(&options.inputLimit, inputLimitFlagName, config.DefaultInputLimit, inputLimitFlagDescription)
	rootCommand.Flags().Int64Var(&options.maxFileSize, maxFileSizeFlagName, config.DefaultMaxFileSize, maxFileSizeFlagDescription)
	rootCommand.Flags().BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	rootCommand.Flags().BoolVar(&options.countTokens, tokensFlagName, false, tokensFlagDescription)
	rootCommand.Flags().StringVar(&options.tokenizerModel, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	return rootCommand
}

// resolveConfiguration turns raw flag values into the immutable Configuration,
// loading every pattern source. Pattern-source failures surface here, before
// any traversal starts.
func resolveConfiguration(options commandOptions) (config.Configuration, error) {
	rootPaths := options.rootPaths
	if len(rootPaths) == 0 {
		workingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return config.Configuration{}, fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
		}
		rootPaths = []string{workingDirectory}
	}
	validatedRoots, pathValidationError := resolveAndValidatePaths(rootPaths)
	if pathValidationError != nil {
		return config.Configuration{}, pathValidationError
	}

	gitignorePatterns, gitignoreError := config.LoadGitignorePatterns(options.gitignorePath)
	if gitignoreError != nil {
		return config.Configuration{}, gitignoreError
	}
	configPatterns, excludeConfigError := config.LoadExcludeConfigPatterns(options.excludeConfigPath)
	if excludeConfigError != nil {
		return config.Configuration{}, excludeConfigError
	}

	return config.Configuration{
		Roots:           validatedRoots,
		ExcludePatterns: config.CombineExclusionPatterns(gitignorePatterns, configPatterns, options.exclusionPatterns),
		MaxDepth:        options.maxDepth,
		InputLimit:      options.inputLimit,
		MaxFileSize:     options.maxFileSize,
		TreeOnly:        options.projectOnly,
		SavePath:        options.savePath,
		CopyToClipboard: options.copyToClipboard,
		CountTokens:     options.countTokens,
		TokenizerModel:  options.tokenizerModel,
	}, nil
}

// runTool wires matcher, walker, and renderer together and routes the result.
func runTool(configuration config.Configuration) error {
	patternMatcher, compileError := matcher.Compile(configuration.ExcludePatterns)
	if compileError != nil {
		return compileError
	}
	for _, skippedNegation := range patternMatcher.SkippedNegations() {
		fmt.Fprintf(os.Stderr, warningNegationFormat, skippedNegation)
	}

	warn := func(message string) {
		fmt.Fprintln(os.Stderr, message)
	}

	walkerOptions := walker.Options{
		Roots:    configuration.Roots,
		Matcher:  patternMatcher,
		MaxDepth: configuration.MaxDepth,
		Warn:     warn,
	}

	var renderer render.Renderer
	if configuration.TreeOnly {
		renderer = render.NewTreeRenderer()
	} else {
		enforcer := limits.NewEnforcer(configuration.InputLimit, configuration.MaxFileSize)
		walkerOptions.Limits = enforcer
		renderer = render.NewContentRenderer(enforcer, warn)
	}

	treeWalker := walker.NewTreeWalker(walkerOptions)
	if dispatchError := dispatchEntries(context.Background(), treeWalker, renderer); dispatchError != nil {
		return dispatchError
	}

	renderedText, flushError := renderer.Flush()
	if flushError != nil {
		return flushError
	}

	if configuration.CountTokens {
		tokenLine, tokenError := estimateTokens(renderedText, configuration.TokenizerModel)
		if tokenError != nil {
			return tokenError
		}
		renderedText += tokenLine
	}

	return deliverOutput(configuration, renderedText)
}

// dispatchEntries streams walker entries to the renderer through an unbuffered
// channel so inclusion decisions happen strictly in walk order.
func dispatchEntries(ctx context.Context, treeWalker *walker.TreeWalker, renderer render.Renderer) error {
	group, streamContext := errgroup.WithContext(ctx)
	entries := make(chan walker.Entry)

	group.Go(func() error {
		defer close(entries)
		return treeWalker.Walk(func(entry walker.Entry) error {
			select {
			case <-streamContext.Done():
				return streamContext.Err()
			case entries <- entry:
				return nil
			}
		})
	})

	group.Go(func() error {
		for {
			select {
			case <-streamContext.Done():
				return streamContext.Err()
			case entry, channelOpen := <-entries:
				if !channelOpen {
					return nil
				}
				if handleError := renderer.Handle(entry); handleError != nil {
					return handleError
				}
			}
		}
	})

	if waitError := group.Wait(); waitError != nil && !errors.Is(waitError, context.Canceled) {
		return waitError
	}
	return nil
}

// estimateTokens formats the token-estimate line for the rendered text.
func estimateTokens(renderedText string, model string) (string, error) {
	counter, resolvedModel, counterError := tokenizer.NewCounter(model)
	if counterError != nil {
		return "", counterError
	}
	tokenCount, countError := counter.CountString(renderedText)
	if countError != nil {
		return "", countError
	}
	return fmt.Sprintf(tokenEstimateFormat, tokenCount, resolvedModel), nil
}

// deliverOutput writes the rendered text to its destinations: the save file or
// stdout, and optionally the clipboard.
func deliverOutput(configuration config.Configuration, renderedText string) error {
	if configuration.SavePath != "" {
		if writeError := os.WriteFile(configuration.SavePath, []byte(renderedText), 0o644); writeError != nil {
			return fmt.Errorf(errorSaveFormat, configuration.SavePath, writeError)
		}
		fmt.Printf(savedConfirmationFormat, configuration.SavePath)
	} else {
		fmt.Print(renderedText)
	}

	if configuration.CopyToClipboard {
		copier := clipboard.NewService()
		if copyError := copier.Copy(renderedText); copyError != nil {
			fmt.Fprintf(os.Stderr, warningClipboardFormat, copyError)
		}
	}
	return nil
}

// resolveAndValidatePaths converts input paths to absolute form and validates their existence.
func resolveAndValidatePaths(inputs []string) ([]string, error) {
	seen := make(map[string]struct{})
	var result []string
	for _, inputPath := range inputs {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, alreadySeen := seen[cleanPath]; alreadySeen {
			continue
		}
		if _, fileStatusError := os.Stat(cleanPath); fileStatusError != nil {
			if os.IsNotExist(fileStatusError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, cleanPath)
	}
	if len(result) == 0 {
		return nil, errors.New(errorNoValidPaths)
	}
	return result, nil
}
