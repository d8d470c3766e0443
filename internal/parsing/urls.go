// Package parsing holds small input normalization helpers.
package parsing

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// BaseDomain normalizes a media URL to its eTLD+1 ("youtube.com",
// "twitch.tv"), the label used for cookie scoping and history rows.
func BaseDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL %q: %w", rawURL, err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("URL %q has no host", rawURL)
	}

	base, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Bare hosts (localhost, IPs) fall back to themselves.
		return host, nil
	}
	return base, nil
}

// LooksLikeURL is a cheap pre-check before handing input to the
// extractor.
func LooksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
