package utils

import "unicode/utf8"

// sniffLength bounds how many leading bytes are examined for binary detection.
const sniffLength = 8000

// IsBinary reports whether content looks binary. Only the first sniffLength
// bytes are judged: a NUL byte or invalid UTF-8 inside the probe marks the
// content binary, anything past the probe is not consulted.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if len(data) > sniffLength {
		data = data[:sniffLength]
		// The bound may split a multi-byte rune; drop the fragment before judging.
		for trimmed := 0; trimmed < utf8.UTFMax && !utf8.Valid(data); trimmed++ {
			data = data[:len(data)-1]
		}
	}
	if !utf8.Valid(data) {
		return true
	}
	for _, contentByte := range data {
		if contentByte == 0 {
			return true
		}
	}
	return false
}
