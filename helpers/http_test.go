package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "sjsage522/alkotekaworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check that headers are set
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "application/json")
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		assert.NotEmpty(t, r.Header.Get("Referer"))

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true,"results":[]}`))
	}))
	defer server.Close()

	body, err := FetchJSON(context.Background(), nil, server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"results":[]}`, string(body))
}

func TestFetchJSONNonUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=windows-1251")
		w.WriteHeader(http.StatusOK)
		// "Вино" in windows-1251
		w.Write([]byte{'{', '"', 'n', '"', ':', '"', 0xC2, 0xE8, 0xED, 0xEE, '"', '}'})
	}))
	defer server.Close()

	body, err := FetchJSON(context.Background(), nil, server.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":"Вино"}`, string(body))
}

func TestFetchJSONStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/500":
			w.WriteHeader(http.StatusInternalServerError)
		case "/404":
			w.WriteHeader(http.StatusNotFound)
		case "/429":
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
		case "/430":
			w.WriteHeader(430)
		}
	}))
	defer server.Close()

	ctx := context.Background()

	_, err := FetchJSON(ctx, nil, server.URL+"/500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
	assert.True(t, apperrors.IsRetryable(err))

	_, err = FetchJSON(ctx, nil, server.URL+"/404")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeHTTPStatus, apperrors.TypeOf(err))
	assert.False(t, apperrors.IsRetryable(err))

	_, err = FetchJSON(ctx, nil, server.URL+"/429")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	wait, ok := apperrors.RetryAfter(err)
	assert.True(t, ok)
	assert.Equal(t, 60*time.Second, wait)

	_, err = FetchJSON(ctx, nil, server.URL+"/430")
	assert.Equal(t, apperrors.ErrorTypeRateLimit, apperrors.TypeOf(err))
}

func TestFetchJSONInvalidURL(t *testing.T) {
	_, err := FetchJSON(context.Background(), NewClient(time.Second), "http://invalid.url.that.does.not.exist")
	assert.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestFetchJSONCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchJSON(ctx, nil, server.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.Greater(t, parseRetryAfter(future), 30*time.Minute)
}
