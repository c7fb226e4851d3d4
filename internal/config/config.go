// Package config resolves the immutable run configuration and loads exclusion
// pattern sources.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/swapnikshah/promptgen/internal/utils"
)

const (
	// DefaultInputLimit bounds the total rendered content in characters.
	DefaultInputLimit = 12000
	// DefaultMaxFileSize bounds a single file's size in bytes.
	DefaultMaxFileSize = 1 << 20
	// UnlimitedDepth disables the traversal depth bound.
	UnlimitedDepth = -1

	// excludeConfigKey is the top-level key holding patterns in an exclude-config document.
	excludeConfigKey = "exclude"

	commentLinePrefix = "#"
)

// Configuration is the resolved, immutable input to every core component.
// The CLI layer constructs it once; the core never mutates it.
type Configuration struct {
	// Roots are the validated absolute paths to walk, in the order given.
	Roots []string
	// ExcludePatterns is the union of gitignore lines, exclude-config entries,
	// and command-line exclusions, deduplicated in first-seen order.
	ExcludePatterns []string
	// MaxDepth bounds traversal depth per root; UnlimitedDepth disables it.
	MaxDepth int
	// InputLimit bounds the total rendered content in characters.
	InputLimit int
	// MaxFileSize bounds a single file's size in bytes for content rendering.
	MaxFileSize int64
	// TreeOnly selects the structure-only rendering mode.
	TreeOnly bool
	// SavePath, when non-empty, receives the rendered text instead of stdout.
	SavePath string
	// CopyToClipboard places the rendered text on the system clipboard.
	CopyToClipboard bool
	// CountTokens appends an estimated token count to the rendered summary.
	CountTokens bool
	// TokenizerModel selects the tokenizer used for the estimate.
	TokenizerModel string
}

// ConfigError reports an unusable pattern-configuration source. It is fatal
// and aborts the run before traversal begins.
type ConfigError struct {
	Path string
	Err  error
}

func (configError *ConfigError) Error() string {
	return fmt.Sprintf("configuration file %s: %v", configError.Path, configError.Err)
}

func (configError *ConfigError) Unwrap() error {
	return configError.Err
}

// LoadGitignorePatterns reads a line-oriented gitignore file, skipping blank
// lines and comment lines. A missing file is not an error: it contributes no
// additional patterns.
func LoadGitignorePatterns(gitignorePath string) ([]string, error) {
	if gitignorePath == "" {
		return nil, nil
	}
	fileHandle, openFileError := os.Open(gitignorePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, &ConfigError{Path: gitignorePath, Err: openFileError}
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", gitignorePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentLinePrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, &ConfigError{Path: gitignorePath, Err: scanError}
	}
	return ignorePatterns, nil
}

// LoadExcludeConfigPatterns reads a JSON or YAML exclude-config document. The
// supported schema is a top-level "exclude" key mapping to a list of pattern
// strings. An unparseable document or a missing key is a ConfigError.
func LoadExcludeConfigPatterns(excludeConfigPath string) ([]string, error) {
	if excludeConfigPath == "" {
		return nil, nil
	}

	reader := viper.New()
	reader.SetConfigFile(excludeConfigPath)
	if readError := reader.ReadInConfig(); readError != nil {
		return nil, &ConfigError{Path: excludeConfigPath, Err: readError}
	}
	if !reader.IsSet(excludeConfigKey) {
		return nil, &ConfigError{
			Path: excludeConfigPath,
			Err:  fmt.Errorf("missing required %q key holding a list of patterns", excludeConfigKey),
		}
	}
	var excludePatterns []string
	if decodeError := reader.UnmarshalKey(excludeConfigKey, &excludePatterns); decodeError != nil {
		return nil, &ConfigError{Path: excludeConfigPath, Err: decodeError}
	}
	return excludePatterns, nil
}

// CombineExclusionPatterns unions the pattern sources in first-seen order:
// gitignore lines first, exclude-config entries second, command-line
// exclusions last. Order carries no precedence; every pattern is an exclusion.
func CombineExclusionPatterns(gitignorePatterns, configPatterns, commandLinePatterns []string) []string {
	var combinedPatterns []string
	combinedPatterns = append(combinedPatterns, gitignorePatterns...)
	combinedPatterns = append(combinedPatterns, configPatterns...)

	deduplicatedPatterns := utils.DeduplicatePatterns(combinedPatterns)
	for _, pattern := range commandLinePatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if !utils.ContainsString(deduplicatedPatterns, trimmedPattern) {
			deduplicatedPatterns = append(deduplicatedPatterns, trimmedPattern)
		}
	}
	return deduplicatedPatterns
}
