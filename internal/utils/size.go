package utils

import (
	"fmt"
	"strings"
)

// FormatFileSize renders a byte count the way the summary and skip notes show
// sizes: lower-case units, at most one decimal place, whole bytes unscaled.
func FormatFileSize(sizeBytes int64) string {
	if sizeBytes < 0 {
		return "0b"
	}
	const unitStep = 1024
	unitSuffixes := []string{"b", "kb", "mb", "gb", "tb", "pb"}
	scaledValue := float64(sizeBytes)
	suffixIndex := 0
	for scaledValue >= unitStep && suffixIndex < len(unitSuffixes)-1 {
		scaledValue /= unitStep
		suffixIndex++
	}
	if suffixIndex == 0 {
		return fmt.Sprintf("%db", sizeBytes)
	}
	if scaledValue < 10 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", scaledValue), ".0") + unitSuffixes[suffixIndex]
	}
	return fmt.Sprintf("%.0f%s", scaledValue, unitSuffixes[suffixIndex])
}
