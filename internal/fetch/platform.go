package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformUpwork is the Upwork freelance marketplace
	PlatformUpwork Platform = "upwork"
	// PlatformFreelancer is Freelancer.com
	PlatformFreelancer Platform = "freelancer"
	// PlatformLinkedIn is LinkedIn Jobs
	PlatformLinkedIn Platform = "linkedin"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())

	switch {
	case hostIs(host, "upwork.com"):
		return PlatformUpwork
	case hostIs(host, "freelancer.com"):
		return PlatformFreelancer
	case hostIs(host, "linkedin.com"):
		return PlatformLinkedIn
	default:
		return PlatformUnknown
	}
}

// hostIs reports whether host is domain or one of its subdomains.
func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformUpwork:
		return []string{
			"[data-test='Description']",
			"[data-test='job-description-text']",
			".job-description",
			"section.air3-card-section",
			"main",
		}
	case PlatformFreelancer:
		return []string{
			".PageProjectViewLogout-detail",
			"fl-project-details",
			".ProjectDescription",
			".project-description",
			"main",
		}
	case PlatformLinkedIn:
		return []string{
			".show-more-less-html__markup",
			".description__text",
			".jobs-description__content",
			"#job-details",
			"main",
		}
	default:
		return []string{
			".job-description",
			"#job-description",
			".job-details",
			".posting-content",
			"[data-testid='job-description']",
			"main",
			"article",
			"#content",
		}
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		// Application and bid forms
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",

		// Social and share buttons
		".social-share",
		".share-buttons",
		".social-links",

		// Cookie and GDPR
		".cookie-banner",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformUpwork:
		return append(common,
			"[data-test='about-client-container']",
			"[data-test='similar-jobs']",
			".air3-modal",
		)
	case PlatformFreelancer:
		return append(common,
			".PageProjectViewLogout-bidsList",
			"fl-bid-form",
			".similar-projects",
		)
	case PlatformLinkedIn:
		return append(common,
			".top-card-layout__cta-container",
			".similar-jobs",
			".sign-in-modal",
			".contextual-sign-in-modal",
		)
	default:
		return common
	}
}
