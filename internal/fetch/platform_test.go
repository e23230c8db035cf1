package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://www.upwork.com/jobs/~01abc", PlatformUpwork},
		{"https://upwork.com/freelance-jobs/apply/x", PlatformUpwork},
		{"https://www.freelancer.com/projects/go/api-123", PlatformFreelancer},
		{"https://www.linkedin.com/jobs/view/123", PlatformLinkedIn},
		{"https://example.com/jobs", PlatformUnknown},
		{"https://notupwork.com/jobs", PlatformUnknown},
		{"https://indeed.com/viewjob", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformContentSelectors_Upwork(t *testing.T) {
	selectors := PlatformContentSelectors(PlatformUpwork)
	assert.Contains(t, selectors, "[data-test='Description']")
	assert.Contains(t, selectors, "main")
}

func TestPlatformContentSelectors_Unknown(t *testing.T) {
	selectors := PlatformContentSelectors(PlatformUnknown)
	// Unknown boards use the generic posting selectors
	assert.Contains(t, selectors, ".job-description")
	assert.Contains(t, selectors, "main")
}

func TestPlatformNoiseSelectors_LinkedIn(t *testing.T) {
	selectors := PlatformNoiseSelectors(PlatformLinkedIn)
	// Common selectors
	assert.Contains(t, selectors, "#application-form")
	assert.Contains(t, selectors, "form")
	// LinkedIn-specific
	assert.Contains(t, selectors, ".sign-in-modal")
}

func TestPlatformNoiseSelectors_Unknown(t *testing.T) {
	selectors := PlatformNoiseSelectors(PlatformUnknown)
	assert.Contains(t, selectors, "form")
	assert.Contains(t, selectors, ".cookie-banner")
	assert.NotContains(t, selectors, ".sign-in-modal")
}
