package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"strconv"
	"time"

	apperrors "sjsage522/alkotekaworker/pkg/errors"

	"golang.org/x/net/html/charset"
)

const provider = "http"

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	}

	referers = []string{
		"https://alkoteka.com/",
		"https://www.google.com/",
		"https://yandex.ru/",
	}

	// DefaultClient is used when the caller passes a nil client
	DefaultClient = &http.Client{
		Timeout: 30 * time.Second,
	}
)

// NewClient returns an HTTP client with the given timeout
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// FetchJSON sends a GET request with randomized browser headers asking for JSON,
// converts the body to UTF-8 when the server declares another charset and
// returns it.
//
// Failures are returned as *errors.CrawlerError: transport errors and 5xx
// responses are network errors, 429/430 are rate limit errors and other
// non-200 responses are http_status errors.
func FetchJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = DefaultClient
	}
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewNetwork(provider, "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork(provider, fmt.Sprintf("failed to fetch %s", url), err)
	}
	defer resp.Body.Close()

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, apperrors.NewRateLimit(provider, parseRetryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, apperrors.NewNetwork(provider,
			fmt.Sprintf("fetch %s unexpected status code: %d", url, resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewHTTPStatus(provider, url, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetwork(provider, "failed to read response body", err)
	}

	return toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
}

func toUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, apperrors.NewParsing(provider, "failed to read converted UTF-8 body", err)
	}
	return buf.Bytes(), nil
}

// parseRetryAfter understands both the delta-seconds and HTTP-date forms.
// Zero means the server gave no usable hint.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
