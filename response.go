/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"fmt"
	"net/http"

	"github.com/acronis/go-appkit/log"
)

// HeaderWWWAuthenticate contains the name of HTTP header that carries an RFC 6750 challenge in error responses.
const HeaderWWWAuthenticate = "WWW-Authenticate"

// Response is an HTTP response built by an endpoint handler.
// It is assembled first and sent explicitly afterwards (see Respond),
// so headers set by the hosting middleware are preserved.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewJSONResponse creates a response with the given status code and a JSON body.
func NewJSONResponse(statusCode int, body string) *Response {
	return &Response{
		StatusCode: statusCode,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(body),
	}
}

// NewPlainTextResponse creates a response with the given status code and a plain-text body.
func NewPlainTextResponse(statusCode int, body string) *Response {
	return &Response{
		StatusCode: statusCode,
		Header:     http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:       []byte(body),
	}
}

// NewBearerErrorResponse creates an error response carrying an RFC 6750 challenge
// in the WWW-Authenticate header. The challenge is sent as-is, it is usually
// precomputed by the authorization service.
func NewBearerErrorResponse(statusCode int, challenge string) *Response {
	header := make(http.Header)
	header.Set(HeaderWWWAuthenticate, challenge)
	return &Response{
		StatusCode: statusCode,
		Header:     header,
	}
}

// Respond sends the response to the client merging its headers into the ones
// already present on the http.ResponseWriter. Values set by the hosting
// middleware (request ID, session cookies) come first, the response's own
// values are appended after them; nothing is overwritten. Status code and
// body are written exactly once.
func Respond(rw http.ResponseWriter, resp *Response, logger log.FieldLogger) {
	for key, values := range resp.Header {
		key = http.CanonicalHeaderKey(key)
		rw.Header()[key] = append(rw.Header()[key], values...)
	}
	rw.WriteHeader(resp.StatusCode)
	if len(resp.Body) == 0 {
		return
	}
	if _, err := rw.Write(resp.Body); err != nil && logger != nil {
		logger.Error(fmt.Sprintf("error while writing response body, status code: %d", resp.StatusCode),
			log.Error(err))
	}
}
