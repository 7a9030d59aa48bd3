package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures and unexpected status codes
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeHTTPStatus represents non-retryable client error responses
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeParsing represents undecodable API responses
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeStorage represents database errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeValidation represents malformed records
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeCityNotFound is returned when the target city is absent from the city list
	ErrorTypeCityNotFound ErrorType = "city_not_found"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type       ErrorType
	Provider   string
	Message    string
	Err        error
	Time       time.Time
	RetryAfter time.Duration // set on rate limit errors when the server named a delay
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the error makes the rest of the run pointless.
func (e *CrawlerError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeConfiguration, ErrorTypeCityNotFound:
		return true
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, provider, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewHTTPStatus creates an error for a 4xx response other than rate limiting
func NewHTTPStatus(provider, url string, status int) *CrawlerError {
	return New(ErrorTypeHTTPStatus, provider, fmt.Sprintf("fetch %s unexpected status code: %d", url, status), nil)
}

// NewParsing creates a new parsing error
func NewParsing(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, duration time.Duration) *CrawlerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	err := New(ErrorTypeRateLimit, provider, message, nil)
	err.RetryAfter = duration
	return err
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(provider, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, provider, message, err)
}

// NewStorage creates a new storage error
func NewStorage(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeStorage, provider, message, err)
}

// NewValidation creates a new validation error
func NewValidation(provider, message string) *CrawlerError {
	return New(ErrorTypeValidation, provider, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewCityNotFound creates the fatal error raised when the city lookup finds no match
func NewCityNotFound(provider, city string) *CrawlerError {
	return New(ErrorTypeCityNotFound, provider, fmt.Sprintf("city with name %q can't be found", city), nil)
}

// TypeOf returns the ErrorType of the first CrawlerError in err's chain, or "unknown".
func TypeOf(err error) ErrorType {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type
	}
	return "unknown"
}

// IsFatal reports whether err carries a fatal CrawlerError.
func IsFatal(err error) bool {
	var ce *CrawlerError
	return stderrors.As(err, &ce) && ce.IsFatal()
}

// RetryAfter returns the delay carried by a rate limit error in err's chain.
func RetryAfter(err error) (time.Duration, bool) {
	var ce *CrawlerError
	if stderrors.As(err, &ce) && ce.Type == ErrorTypeRateLimit {
		return ce.RetryAfter, true
	}
	return 0, false
}

// IsRetryable reports whether err carries a retryable CrawlerError.
func IsRetryable(err error) bool {
	var ce *CrawlerError
	return stderrors.As(err, &ce) && ce.IsRetryable()
}
