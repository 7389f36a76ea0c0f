/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"net/http"
	"regexp"
)

// HeaderAuthorization contains the name of HTTP header with data that is used for authentication and authorization.
const HeaderAuthorization = "Authorization"

// ContentTypeFormURLEncoded is the content type required for requests that carry the access token in the body.
const ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"

// accessTokenParamName is the query parameter and form field name for passing an access token (RFC 6750, 2.2 and 2.3).
const accessTokenParamName = "access_token"

var bearerTokenRegexp = regexp.MustCompile(`(?i)^Bearer\s*(\S+)\s*$`)

// AccessTokenFromRequest extracts an access token from the request per RFC 6750.
// Channels are checked in order: the "Authorization" header, the "access_token" query parameter
// (GET requests only), and the "access_token" form field (form-urlencoded requests only).
// An Authorization header that is present but does not structurally match the bearer scheme
// does not terminate the search, the token may still be passed via the remaining channels.
// An empty result means no token was supplied; it is up to the caller to treat that as
// an unauthenticated request.
func AccessTokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get(HeaderAuthorization); authHeader != "" {
		if m := bearerTokenRegexp.FindStringSubmatch(authHeader); m != nil {
			return m[1]
		}
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get(accessTokenParamName)
	}
	if r.Header.Get("Content-Type") == ContentTypeFormURLEncoded {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return r.PostForm.Get(accessTokenParamName)
	}
	return ""
}
