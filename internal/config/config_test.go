package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/swapnikshah/promptgen/internal/config"
)

func writeConfigFile(testingHandle *testing.T, fileName string, content string) string {
	testingHandle.Helper()
	filePath := filepath.Join(testingHandle.TempDir(), fileName)
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("writing %s: %v", filePath, writeError)
	}
	return filePath
}

// TestLoadGitignorePatternsSkipsBlanksAndComments verifies line filtering.
func TestLoadGitignorePatternsSkipsBlanksAndComments(testingHandle *testing.T) {
	gitignorePath := writeConfigFile(testingHandle, ".gitignore", "# build artifacts\n\n*.log\nvendor/\n   \n")
	patterns, loadError := config.LoadGitignorePatterns(gitignorePath)
	if loadError != nil {
		testingHandle.Fatalf("LoadGitignorePatterns error: %v", loadError)
	}
	if len(patterns) != 2 || patterns[0] != "*.log" || patterns[1] != "vendor/" {
		testingHandle.Fatalf("unexpected patterns: %v", patterns)
	}
}

// TestLoadGitignorePatternsMissingFileIsNotAnError verifies the missing-file contract.
func TestLoadGitignorePatternsMissingFileIsNotAnError(testingHandle *testing.T) {
	missingPath := filepath.Join(testingHandle.TempDir(), "no-such-file")
	patterns, loadError := config.LoadGitignorePatterns(missingPath)
	if loadError != nil {
		testingHandle.Fatalf("missing gitignore must not be an error, got %v", loadError)
	}
	if patterns != nil {
		testingHandle.Fatalf("expected no patterns, got %v", patterns)
	}
}

// TestLoadExcludeConfigPatternsYAML verifies the supported YAML schema.
func TestLoadExcludeConfigPatternsYAML(testingHandle *testing.T) {
	configPath := writeConfigFile(testingHandle, "excludes.yaml", "exclude:\n  - '*.tmp'\n  - node_modules/\n")
	patterns, loadError := config.LoadExcludeConfigPatterns(configPath)
	if loadError != nil {
		testingHandle.Fatalf("LoadExcludeConfigPatterns error: %v", loadError)
	}
	if len(patterns) != 2 || patterns[0] != "*.tmp" || patterns[1] != "node_modules/" {
		testingHandle.Fatalf("unexpected patterns: %v", patterns)
	}
}

// TestLoadExcludeConfigPatternsJSON verifies the supported JSON schema.
func TestLoadExcludeConfigPatternsJSON(testingHandle *testing.T) {
	configPath := writeConfigFile(testingHandle, "excludes.json", `{"exclude": ["*.bak", "dist/"]}`)
	patterns, loadError := config.LoadExcludeConfigPatterns(configPath)
	if loadError != nil {
		testingHandle.Fatalf("LoadExcludeConfigPatterns error: %v", loadError)
	}
	if len(patterns) != 2 || patterns[0] != "*.bak" || patterns[1] != "dist/" {
		testingHandle.Fatalf("unexpected patterns: %v", patterns)
	}
}

// TestLoadExcludeConfigPatternsMalformedFileIsConfigError verifies the fatal
// pre-traversal error path.
func TestLoadExcludeConfigPatternsMalformedFileIsConfigError(testingHandle *testing.T) {
	configPath := writeConfigFile(testingHandle, "broken.json", `{"exclude": [`)
	_, loadError := config.LoadExcludeConfigPatterns(configPath)
	var configError *config.ConfigError
	if !errors.As(loadError, &configError) {
		testingHandle.Fatalf("expected ConfigError, got %v", loadError)
	}
}

// TestLoadExcludeConfigPatternsMissingKeyIsConfigError verifies schema validation.
func TestLoadExcludeConfigPatternsMissingKeyIsConfigError(testingHandle *testing.T) {
	configPath := writeConfigFile(testingHandle, "wrong.yaml", "patterns:\n  - '*.tmp'\n")
	_, loadError := config.LoadExcludeConfigPatterns(configPath)
	var configError *config.ConfigError
	if !errors.As(loadError, &configError) {
		testingHandle.Fatalf("expected ConfigError for missing key, got %v", loadError)
	}
}

// TestCombineExclusionPatternsDeduplicates verifies the first-seen union.
func TestCombineExclusionPatternsDeduplicates(testingHandle *testing.T) {
	combined := config.CombineExclusionPatterns(
		[]string{"*.log", "vendor/"},
		[]string{"*.log", "dist/"},
		[]string{" vendor/ ", "", "node_modules"},
	)
	expected := []string{"*.log", "vendor/", "dist/", "node_modules"}
	if len(combined) != len(expected) {
		testingHandle.Fatalf("unexpected combined patterns: %v", combined)
	}
	for index, expectedPattern := range expected {
		if combined[index] != expectedPattern {
			testingHandle.Fatalf("pattern %d: expected %s, got %s", index, expectedPattern, combined[index])
		}
	}
}
