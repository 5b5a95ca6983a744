// Package validation checks browser origins against the configured
// allow-list shared by the API's CORS headers and the websocket handshake.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// CheckOrigin reports whether a request's Origin header is allowed. An
// allow-list entry matches as "*", as a full origin such as
// "https://example.com", or as a bare host such as "localhost:3000".
func CheckOrigin(origin string, allowed []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, entry := range allowed {
		entry = strings.TrimSuffix(entry, "/")
		if entry == "*" || strings.EqualFold(entry, origin) || strings.EqualFold(entry, originURL.Host) {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// ValidateAllowedOrigin checks one allow-list entry from the configuration
func ValidateAllowedOrigin(entry string) error {
	if strings.TrimSpace(entry) == "" {
		return fmt.Errorf("empty origin")
	}
	if entry == "*" {
		return nil
	}
	if strings.ContainsAny(entry, " \t\"'<>\\") {
		return fmt.Errorf("origin %q contains invalid characters", entry)
	}

	if !strings.Contains(entry, "://") {
		// bare host, optionally with a port or a leading wildcard label
		if strings.ContainsAny(entry, "/?#") {
			return fmt.Errorf("origin %q must be a host or scheme://host", entry)
		}
		return nil
	}

	u, err := url.Parse(entry)
	if err != nil {
		return fmt.Errorf("invalid origin %q: %w", entry, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin %q: only http and https are allowed", entry)
	}
	if u.Host == "" {
		return fmt.Errorf("origin %q has no host", entry)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("origin %q must not have a path, query or fragment", entry)
	}
	return nil
}
