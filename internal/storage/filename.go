package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"regexp"
	"strings"
)

// maxSlugLength bounds the URL-derived part of a filename so the full name
// stays well under common filesystem limits.
const maxSlugLength = 126

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileName derives a deterministic filename for a fetched body:
// <prefix>_<host>_<path>_<hash8>.<ext>. The short URL hash keeps two URLs
// that sanitize to the same slug from colliding.
func FileName(prefix, rawURL, contentType string) string {
	return fmt.Sprintf("%s_%s%s", prefix, slug(rawURL), Extension(contentType))
}

func slug(rawURL string) string {
	hash := hashURL(rawURL)[:8]
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return hash
	}
	host := strings.ReplaceAll(strings.ToLower(u.Hostname()), ".", "_")
	p := strings.Trim(u.EscapedPath(), "/")
	p = strings.ReplaceAll(p, "/", "__")
	base := host
	if p != "" {
		base += "_" + invalidFilenameChars.ReplaceAllString(p, "_")
	}
	if len(base) > maxSlugLength {
		// Keep the tail, like the path suffix a human would look for.
		base = base[len(base)-maxSlugLength:]
	}
	return base + "_" + hash
}

func hashURL(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Extension guesses a file extension from a Content-Type header value,
// falling back to ".html".
func Extension(contentType string) string {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	switch strings.ToLower(mediaType) {
	case "", "text/html", "application/xhtml+xml":
		return ".html"
	case "text/plain":
		return ".txt"
	case "application/pdf":
		return ".pdf"
	case "application/json":
		return ".json"
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ".html"
	}
	return exts[0]
}
