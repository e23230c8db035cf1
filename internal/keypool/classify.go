package keypool

import "strings"

// DefaultQuotaPatterns are the lowercase substrings that mark an error as a
// rate-limit or quota failure. "resourceexhausted" covers the gRPC status name
// as the Gemini SDK renders it.
var DefaultQuotaPatterns = []string{
	"quota",
	"rate limit",
	"resource exhausted",
	"resourceexhausted",
	"too many requests",
	"429",
	"quota exceeded",
	"rate_limit_exceeded",
	"insufficient quota",
}

// Classifier decides whether an error is retryable by rotating credentials.
type Classifier struct {
	patterns []string
}

// NewClassifier builds a classifier from patterns. An empty list falls back to
// DefaultQuotaPatterns.
func NewClassifier(patterns []string) *Classifier {
	if len(patterns) == 0 {
		patterns = DefaultQuotaPatterns
	}

	normalized := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			normalized = append(normalized, p)
		}
	}
	return &Classifier{patterns: normalized}
}

// IsQuotaError reports whether the error message contains any quota pattern,
// ignoring case.
func (c *Classifier) IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, p := range c.patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
