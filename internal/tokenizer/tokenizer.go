// Package tokenizer estimates token counts for rendered output.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

const (
	// DefaultModel is used when no tokenizer model is requested explicitly.
	DefaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

// NewCounter returns a Counter for the requested model along with the resolved
// model or encoding name. Unknown models fall back to the default encoding.
func NewCounter(model string) (Counter, string, error) {
	resolvedModel := strings.ToLower(strings.TrimSpace(model))
	if resolvedModel == "" {
		resolvedModel = DefaultModel
	}

	encoding, encodingError := tiktoken.EncodingForModel(resolvedModel)
	if encodingError == nil && encoding != nil {
		return encodingCounter{encoding: encoding, name: resolvedModel}, resolvedModel, nil
	}

	fallback, fallbackError := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackError != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackError)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}

type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIdentifiers := counter.encoding.Encode(input, nil, nil)
	return len(tokenIdentifiers), nil
}
