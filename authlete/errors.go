/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package authlete

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthenticated is returned when the remote authorization service
// rejects the resource server's own API credentials.
var ErrUnauthenticated = errors.New("request to authorization service is unauthenticated")

// UnexpectedResponseError represents an error that occurs when an unexpected HTTP response is received.
// It captures the HTTP status code and response headers for further analysis.
type UnexpectedResponseError struct {
	StatusCode int
	Header     http.Header
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected HTTP status code %d", e.StatusCode)
}
