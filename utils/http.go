// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient is used for outbound calls such as key-set fetches.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
