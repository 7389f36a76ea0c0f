/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package authlete provides a thin HTTP client for the remote authorization
// service API. Token introspection, claim resolution and response-content
// construction all happen on the remote side; the client only forwards
// requests and decodes the returned verdicts.
package authlete
