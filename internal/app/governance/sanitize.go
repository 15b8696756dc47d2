package governance

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// MaxInputLength is the hard cap, in characters, for any free text that ends
// up in a prompt.
const MaxInputLength = 2500

// Sanitizer bounds untrusted free text before prompt interpolation.
type Sanitizer struct {
	logger *zap.Logger
}

func NewSanitizer(logger *zap.Logger) *Sanitizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sanitizer{logger: logger}
}

// Sanitize trims the input and truncates it to MaxInputLength characters.
// Truncation is logged, never returned as an error. The result is trimmed
// again after truncation so Sanitize(Sanitize(x)) == Sanitize(x).
func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return ""
	}

	clean := strings.TrimSpace(input)
	if n := utf8.RuneCountInString(clean); n > MaxInputLength {
		s.logger.Warn("Input truncated",
			zap.Int("original_length", n),
			zap.Int("max_length", MaxInputLength))
		clean = strings.TrimSpace(string([]rune(clean)[:MaxInputLength]))
	}
	return clean
}

// SanitizeAll sanitizes every element and drops the ones that end up empty.
func (s *Sanitizer) SanitizeAll(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if clean := s.Sanitize(in); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
