package common

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// RetryOnTooManyRequests retries a request the upstream throttled.
func RetryOnTooManyRequests(r *resty.Response, err error) bool {
	return err == nil && r != nil && r.StatusCode() == http.StatusTooManyRequests
}

// RetryOnServerError retries transport failures and 5xx replies. Only use it
// for calls that are safe to repeat.
func RetryOnServerError(r *resty.Response, err error) bool {
	return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
}

// NewRestyClient returns a JSON client for baseURL that retries throttled calls
// retryCount times with exponential backoff starting at retryWait.
func NewRestyClient(baseURL string, timeout time.Duration, retryCount int, retryWait time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(time.Duration(retryCount+1) * 4 * retryWait).
		AddRetryCondition(RetryOnTooManyRequests)
}
