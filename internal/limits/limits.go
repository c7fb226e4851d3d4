// Package limits enforces the per-file size bound and the cumulative rendered
// output budget.
package limits

// Enforcer tracks the running rendered-output total against a fixed budget and
// answers per-file size checks. It is mutated only by the single rendering
// pass; reaching the budget is a normal state transition, not an error.
type Enforcer struct {
	consumed    int
	inputLimit  int
	maxFileSize int64
}

// NewEnforcer constructs an Enforcer. An inputLimit of zero or below disables
// the total budget; a maxFileSize of zero or below disables the per-file bound.
func NewEnforcer(inputLimit int, maxFileSize int64) *Enforcer {
	return &Enforcer{inputLimit: inputLimit, maxFileSize: maxFileSize}
}

// TryConsume records byteLength characters of rendered output against the
// budget. It returns false and leaves the running total unchanged when the
// addition would exceed the configured limit.
func (enforcer *Enforcer) TryConsume(byteLength int) bool {
	if byteLength < 0 {
		return false
	}
	if enforcer.inputLimit > 0 && enforcer.consumed+byteLength > enforcer.inputLimit {
		return false
	}
	enforcer.consumed += byteLength
	return true
}

// FitsFileLimit reports whether a file of sizeBytes may be rendered at all.
// The check uses filesystem metadata, so oversized files are rejected before
// any read happens. It is independent of the running total.
func (enforcer *Enforcer) FitsFileLimit(sizeBytes int64) bool {
	if enforcer.maxFileSize <= 0 {
		return true
	}
	return sizeBytes <= enforcer.maxFileSize
}

// Consumed returns the characters of rendered output recorded so far.
func (enforcer *Enforcer) Consumed() int {
	return enforcer.consumed
}

// InputLimit returns the configured total budget; zero or below means unlimited.
func (enforcer *Enforcer) InputLimit() int {
	return enforcer.inputLimit
}
