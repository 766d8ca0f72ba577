package entity

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// MaxPromptLength is the maximum number of characters accepted for a prompt text.
const MaxPromptLength = 2000

// ValidateLink checks that rawURL is a well-formed http(s) URL with a host.
// It performs no network lookups and is used for article links.
func ValidateLink(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("malformed URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// ValidateURL validates the format and safety of a feed URL.
// On top of ValidateLink it blocks hosts resolving to private addresses (SSRF).
func ValidateURL(rawURL string) error {
	if err := ValidateLink(rawURL); err != nil {
		return err
	}

	parsedURL, _ := url.Parse(rawURL)
	ips, err := net.LookupIP(parsedURL.Hostname())
	if err == nil && len(ips) > 0 {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{
					Field:   "url",
					Message: "url cannot point to private network",
				}
			}
		}
	}

	return nil
}

// ValidatePromptText checks that a prompt text is present and not oversized.
func ValidatePromptText(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if utf8.RuneCountInString(text) > MaxPromptLength {
		return &ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("text must not exceed %d characters", MaxPromptLength),
		}
	}
	return nil
}

// ValidateSettings checks the scoring-time filters of a prompt.
func ValidateSettings(s PromptSettings) error {
	if s.Limit < 0 {
		return &ValidationError{Field: "settings.limit", Message: "limit must not be negative"}
	}
	if s.Threshold != nil && (*s.Threshold < 0 || *s.Threshold > 2) {
		return &ValidationError{Field: "settings.threshold", Message: "threshold must be between 0 and 2"}
	}
	return nil
}

// isPrivateIP checks if an IP address is in a private or restricted range:
// loopback, link-local (including cloud metadata) and RFC 1918 networks.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsPrivate() {
		return true
	}

	_, metadata, _ := net.ParseCIDR("169.254.0.0/16")
	return metadata.Contains(ip)
}
