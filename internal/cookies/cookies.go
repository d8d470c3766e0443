// Package cookies exports browser session cookies to a Netscape file
// yt-dlp can consume for authenticated sites.
package cookies

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"telefetch/internal/parsing"
	"telefetch/internal/utils/logging"

	"github.com/browserutils/kooky"
	// Register all browser cookie stores with Kooky:
	_ "github.com/browserutils/kooky/browser/all"
)

// Exporter caches exported cookie files per domain so repeated
// downloads from the same site reuse one file.
type Exporter struct {
	mu    sync.Mutex
	dir   string
	files map[string]string
}

// NewExporter writes cookie files under dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{
		dir:   dir,
		files: make(map[string]string),
	}
}

// FileFor returns the path of a Netscape cookie file covering the URL's
// domain, or "" when no cookies exist for it.
func (e *Exporter) FileFor(ctx context.Context, rawURL string) (string, error) {
	domain, err := parsing.BaseDomain(rawURL)
	if err != nil {
		return "", fmt.Errorf("error extracting base domain in cookie grab: %w", err)
	}

	e.mu.Lock()
	if path, ok := e.files[domain]; ok {
		e.mu.Unlock()
		return path, nil
	}
	e.mu.Unlock()

	cookies := loadCookiesForDomain(ctx, domain)
	if len(cookies) == 0 {
		e.mu.Lock()
		e.files[domain] = ""
		e.mu.Unlock()
		return "", nil
	}

	path := filepath.Join(e.dir, "cookies_"+strings.ReplaceAll(domain, ".", "_")+".txt")
	if err := saveCookiesToFile(cookies, domain, path); err != nil {
		return "", fmt.Errorf("failed saving cookies for %s: %w", domain, err)
	}

	e.mu.Lock()
	e.files[domain] = path
	e.mu.Unlock()

	return path, nil
}

// loadCookiesForDomain loads the cookies associated with a particular domain.
func loadCookiesForDomain(ctx context.Context, domain string) []*http.Cookie {
	kookieCookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.Domain(domain))
	if err != nil {
		logging.D(2, "Failed reading cookies: %v", err)
		return nil
	}

	if len(kookieCookies) > 0 {
		logging.I("Found %d cookies for %s", len(kookieCookies), domain)
		return convertToHTTPCookies(kookieCookies)
	}

	logging.I("No cookies found for %s", domain)
	return nil
}

// convertToHTTPCookies converts kooky cookies to http.Cookie format.
func convertToHTTPCookies(kookyCookies []*kooky.Cookie) []*http.Cookie {
	httpCookies := make([]*http.Cookie, len(kookyCookies))
	for i, c := range kookyCookies {
		httpCookies[i] = &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Domain:  c.Domain,
			Secure:  c.Secure,
			Expires: c.Expires,
		}
	}
	return httpCookies
}

// saveCookiesToFile saves the cookies to a file in Netscape format.
func saveCookiesToFile(cookies []*http.Cookie, domain, cookieFilePath string) error {
	file, err := os.Create(cookieFilePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.E("failed to close file %q due to error: %v", cookieFilePath, err)
		}
	}()

	// Header for the Netscape cookies file
	if _, err = file.WriteString("# Netscape HTTP Cookie File\n# https://curl.haxx.se/rfc/cookie_spec.html\n# This is a generated file! Do not edit.\n\n"); err != nil {
		return err
	}

	logging.D(1, "Saving %d cookies to file %s...", len(cookies), cookieFilePath)

	for _, cookie := range cookies {
		d := cookie.Domain
		if d == "" {
			d = domain
		}
		if !strings.HasPrefix(d, ".") && strings.Count(d, ".") > 1 {
			d = "." + d
		}

		secure := "FALSE"
		if cookie.Secure {
			secure = "TRUE"
		}

		expires := int64(0)
		if !cookie.Expires.IsZero() {
			expires = cookie.Expires.Unix()
		} else {
			// Session cookies get a synthetic far expiry so yt-dlp
			// does not discard them.
			expires = time.Now().Add(24 * time.Hour).Unix()
		}

		if _, err := fmt.Fprintf(file, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			d, "FALSE", cookie.Path, secure, expires, cookie.Name, cookie.Value); err != nil {
			return err
		}
	}
	return nil
}
