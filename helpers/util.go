package helpers

import (
	"errors"
	"net/url"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// LastPathSegment returns the final non-empty segment of a URL path.
// "https://alkoteka.com/catalog/vino/?sort=asc" yields "vino".
func LastPathSegment(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		return "", errors.New("url has no path segment")
	}
	parts := strings.Split(path, "/")
	return GetSplitPart(path, "/", len(parts)-1)
}
